package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimitedGenerator_DisabledReturnsNext(t *testing.T) {
	next := &scriptedLLM{}
	assert.Same(t, next, NewRateLimitedGenerator(next, 0, 5))
	assert.Nil(t, NewRateLimitedGenerator(nil, 1, 1))
}

func TestRateLimitedGenerator_Delegates(t *testing.T) {
	next := &scriptedLLM{}
	gen := NewRateLimitedGenerator(next, 100, 0)

	text, err := gen.Complete(context.Background(), "PROMPT:reviewer", "u")

	require.NoError(t, err)
	assert.Equal(t, "APPROVED", text)
	assert.Equal(t, "scripted", gen.ModelName())
	assert.NoError(t, gen.Ping(context.Background()))
	assert.NoError(t, gen.Close())
}

func TestRateLimitedGenerator_RespectsCancellation(t *testing.T) {
	gen := NewRateLimitedGenerator(&scriptedLLM{}, 0.001, 1)

	// The first call consumes the only token.
	_, err := gen.Complete(context.Background(), "s", "u")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = gen.Complete(ctx, "s", "u")
	assert.Error(t, err)
}
