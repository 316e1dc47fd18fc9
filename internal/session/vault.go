package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrVaultMiss is returned when no token is parked under the given key.
var ErrVaultMiss = errors.New("no vaulted token for key")

// DefaultVaultTTL matches the demo token lifetime: a parked session that
// outlives every demo session it could bridge is garbage.
const DefaultVaultTTL = time.Hour

// Vault parks a live session token while a demo session shadows it, keyed by
// a caller-identifying key. Save overwrites; Delete is idempotent.
type Vault interface {
	Save(ctx context.Context, key, token string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type vaultEntry struct {
	token string
	exp   time.Time
}

// MemoryVault is a mutex-guarded TTL map. Single-process only; deployments
// with more than one instance use the redis vault.
type MemoryVault struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]vaultEntry
	now func() time.Time
}

func NewMemoryVault(ttl time.Duration) *MemoryVault {
	if ttl <= 0 {
		ttl = DefaultVaultTTL
	}

	return &MemoryVault{
		ttl: ttl,
		m:   make(map[string]vaultEntry),
		now: time.Now,
	}
}

func (v *MemoryVault) Save(_ context.Context, key, token string) error {
	v.mu.Lock()
	v.m[key] = vaultEntry{token: token, exp: v.now().Add(v.ttl)}
	v.mu.Unlock()

	return nil
}

func (v *MemoryVault) Get(_ context.Context, key string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, ok := v.m[key]

	if !ok {
		return "", ErrVaultMiss
	}

	if v.now().After(e.exp) {
		delete(v.m, key)
		return "", ErrVaultMiss
	}

	return e.token, nil
}

func (v *MemoryVault) Delete(_ context.Context, key string) error {
	v.mu.Lock()
	delete(v.m, key)
	v.mu.Unlock()

	return nil
}
