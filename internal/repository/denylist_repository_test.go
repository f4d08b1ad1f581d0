package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenylistWithoutRedisIsNoop(t *testing.T) {
	repo := NewDenylistRepository(nil, nil)
	assert.False(t, repo.Enabled())
	require.NoError(t, repo.Revoke(context.Background(), "jti", time.Hour))

	revoked, err := repo.IsRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, repo.Close())
}
