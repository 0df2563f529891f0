package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KanishKumar11/UNextDoor-sub005/pkg/cache"
	"github.com/KanishKumar11/UNextDoor-sub005/pkg/domain"
)

const pendingKeyPrefix = "payment:pending:"

// compareAndClearScript deletes the slot only while it still holds the
// expected order id, so a clear can never erase a newer order written by a
// concurrent initiation.
const compareAndClearScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// PendingStore is the single-slot per-user store for in-flight payment
// order ids. A new initiation overwrites the slot; clearing is
// compare-and-clear.
type PendingStore struct {
	cache domain.CacheRepository
	ttl   time.Duration
}

// NewPendingStore creates a pending order store with the given slot TTL
func NewPendingStore(c domain.CacheRepository, ttl time.Duration) *PendingStore {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &PendingStore{
		cache: c,
		ttl:   ttl,
	}
}

func pendingKey(userID int) string {
	return fmt.Sprintf("%s%d", pendingKeyPrefix, userID)
}

// Put stores the order id, overwriting any previous slot value
func (s *PendingStore) Put(ctx context.Context, userID int, orderID string) error {
	return s.cache.Set(ctx, pendingKey(userID), orderID, s.ttl)
}

// Get returns the stored order id, or empty when the slot is vacant
func (s *PendingStore) Get(ctx context.Context, userID int) (string, error) {
	val, err := s.cache.Get(ctx, pendingKey(userID))
	if err != nil {
		if cache.IsNil(err) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

// CompareAndClear removes the slot only if it still holds orderID,
// returning whether anything was cleared
func (s *PendingStore) CompareAndClear(ctx context.Context, userID int, orderID string) (bool, error) {
	res, err := s.cache.Eval(ctx, compareAndClearScript, []string{pendingKey(userID)}, orderID)
	if err != nil {
		return false, err
	}

	deleted, ok := res.(int64)
	return ok && deleted > 0, nil
}

// PendingUserIDs returns the ids of all users with an occupied slot.
// Used by the periodic recovery sweep.
func (s *PendingStore) PendingUserIDs(ctx context.Context) ([]int, error) {
	keys, err := s.cache.ScanKeys(ctx, pendingKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(keys))
	for _, key := range keys {
		id, err := strconv.Atoi(strings.TrimPrefix(key, pendingKeyPrefix))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}
