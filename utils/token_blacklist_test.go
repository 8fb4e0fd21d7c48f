package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlacklistInMemory(t *testing.T) {
	SetRedis(nil)
	BlacklistToken("tok-a", time.Now().Add(time.Hour))
	BlacklistToken("tok-expired", time.Now().Add(-time.Minute))

	assert.True(t, IsTokenBlacklisted("tok-a"))
	assert.False(t, IsTokenBlacklisted("tok-expired"))
	assert.False(t, IsTokenBlacklisted("tok-unknown"))
}

func TestSweepBlacklist(t *testing.T) {
	SetRedis(nil)
	BlacklistToken("tok-sweep", time.Now().Add(50*time.Millisecond))

	assert.Zero(t, sweepBlacklist(time.Now()))
	assert.Equal(t, 1, sweepBlacklist(time.Now().Add(time.Second)))
	assert.False(t, IsTokenBlacklisted("tok-sweep"))
}

func TestStartBlacklistSweeperStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	StartBlacklistSweeper(ctx, time.Millisecond)
	BlacklistToken("tok-short", time.Now().Add(2*time.Millisecond))
	assert.Eventually(t, func() bool {
		blacklistMu.Lock()
		defer blacklistMu.Unlock()
		_, ok := blacklist[tokenKey("tok-short")]
		return !ok
	}, time.Second, 5*time.Millisecond)
	cancel()
}
