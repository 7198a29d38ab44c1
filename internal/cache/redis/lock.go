package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alanyoungcy/predictdash/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockLua deletes the lock only while it still holds the caller's token.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// PurchaseLocks implements domain.PurchaseLocker. Each wallet has one key,
// so two dashboards sharing a wallet never submit approve or buy at the same
// time.
type PurchaseLocks struct {
	rdb      *redis.Client
	unlockSc *redis.Script
}

// NewPurchaseLocks creates PurchaseLocks backed by the given Client.
func NewPurchaseLocks(c *Client) *PurchaseLocks {
	return &PurchaseLocks{
		rdb:      c.Underlying(),
		unlockSc: redis.NewScript(unlockLua),
	}
}

func purchaseLockKey(wallet string) string {
	return "lock:" + domain.PurchaseLockKey(wallet)
}

// LockPurchase takes the wallet's purchase lock for ttl. Addresses are
// matched case-insensitively. The returned unlock func is idempotent. It
// returns domain.ErrLockHeld while another write holds the wallet.
func (pl *PurchaseLocks) LockPurchase(ctx context.Context, wallet string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	lk := purchaseLockKey(wallet)

	ok, err := pl.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: lock purchase %s: %w", wallet, err)
	}
	if !ok {
		return nil, fmt.Errorf("redis: lock purchase %s: %w", wallet, domain.ErrLockHeld)
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			// The caller's context may already be done.
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = pl.unlockSc.Run(unlockCtx, pl.rdb, []string{lk}, token).Err()
		})
	}
	return unlock, nil
}

var _ domain.PurchaseLocker = (*PurchaseLocks)(nil)
