package logger_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/linemk/storefront/internal/lib/logger"
	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	attr := logger.Err(errors.New("connection refused"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "connection refused", attr.Value.String())

	assert.Equal(t, "", logger.Err(nil).Value.String())
}

func TestErr_InRecord(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	log.Error("server error", logger.Err(errors.New("bind: address already in use")))

	assert.Contains(t, buf.String(), `"error":"bind: address already in use"`)
}

func TestSetupLogger(t *testing.T) {
	for _, env := range []string{logger.EnvLocal, logger.EnvDev, logger.EnvProd, "development"} {
		assert.NotNil(t, logger.SetupLogger(env), env)
	}
}
