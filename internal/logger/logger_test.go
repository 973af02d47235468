package logger

import (
	"context"
	"testing"

	"github.com/shinyyama/goods-backend/internal/reqctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("loud", "json")
	require.Error(t, err)
}

func TestWithContextAddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := reqctx.WithRequestID(context.Background(), "rid-9")
	ctx = reqctx.WithUser(ctx, "user-1", "member")
	WithContext(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "rid-9", fields["request_id"])
	assert.Equal(t, "user-1", fields["uid"])
}

func TestWithContextEmpty(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, WithContext(context.Background(), base))
}
