package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartBlacklistSweeper periodically drops expired entries from the in-memory
// token blacklist until ctx is cancelled. Redis entries expire on their own.
func StartBlacklistSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := sweepBlacklist(now); n > 0 {
					L().Debug("token blacklist swept", zap.Int("removed", n))
				}
			}
		}
	}()
}

func sweepBlacklist(now time.Time) int {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	removed := 0
	for key, expiresAt := range blacklist {
		if now.After(expiresAt) {
			delete(blacklist, key)
			removed++
		}
	}
	return removed
}
