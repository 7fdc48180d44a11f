package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/SMTech-UK/workload-wizard-sub001/pkg/middleware/requestid"
)

func TestWithContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithContext(requestid.WithID(context.Background(), "req-42"), base).Info("saved")
	WithContext(context.Background(), base).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestWithContextNilLogger(t *testing.T) {
	assert.NotNil(t, WithContext(context.Background(), nil))
}
