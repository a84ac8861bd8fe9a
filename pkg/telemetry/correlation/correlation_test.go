package correlation

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureRunIDGeneratesOnce(t *testing.T) {
	ctx, id := EnsureRunID(context.Background())
	require.NotEmpty(t, id)

	_, err := ulid.ParseStrict(id)
	require.NoError(t, err)

	again, sameID := EnsureRunID(ctx)
	assert.Equal(t, id, sameID)
	assert.Equal(t, id, ExtractRunID(again))
}

func TestContextWithRunIDIgnoresEmpty(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, ContextWithRunID(ctx, ""))
	assert.Empty(t, ExtractRunID(ctx))
	assert.Empty(t, ExtractRunID(nil))
}
