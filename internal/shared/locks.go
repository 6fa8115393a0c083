package shared

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// OverdueScanLockKey guards the scheduled overdue-invoice scan so only one
// worker runs it at a time.
const OverdueScanLockKey = "fees:overdue_scan:lock"

// ScanLock is a best-effort redis mutex for singleton background scans.
type ScanLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScanLock returns a ScanLock with the given lease duration.
func NewScanLock(client *redis.Client, ttl time.Duration) *ScanLock {
	return &ScanLock{client: client, ttl: ttl}
}

// Acquire attempts to take the lock. It returns false when another holder
// owns the key.
func (l *ScanLock) Acquire(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	return l.client.SetNX(ctx, key, time.Now().Format(time.RFC3339), l.ttl).Result()
}

// Release drops the lock. The TTL covers crashed holders.
func (l *ScanLock) Release(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, key).Err()
}
