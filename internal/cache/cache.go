package cache

import (
	"context"
	"sync"
	"time"

	"lapakpos/backend/internal/domain"
)

// ArtifactCache holds rendered report files under a download token until
// the browser fetches them. Only finished artifacts are cached; aggregates
// are always recomputed from the transaction list.
type ArtifactCache interface {
	Get(ctx context.Context, token string) (*domain.ReportArtifact, bool, error)
	Set(ctx context.Context, token string, artifact *domain.ReportArtifact, ttl time.Duration) error
}

type NoopArtifactCache struct{}

func (NoopArtifactCache) Get(_ context.Context, _ string) (*domain.ReportArtifact, bool, error) {
	return nil, false, nil
}

func (NoopArtifactCache) Set(_ context.Context, _ string, _ *domain.ReportArtifact, _ time.Duration) error {
	return nil
}

// MemoryArtifactCache is the single-process fallback used when Redis is not
// configured. Expired entries are dropped lazily on Get.
type MemoryArtifactCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	artifact  domain.ReportArtifact
	expiresAt time.Time
}

func NewMemoryArtifactCache() *MemoryArtifactCache {
	return &MemoryArtifactCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryArtifactCache) Get(_ context.Context, token string) (*domain.ReportArtifact, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[token]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, token)
		return nil, false, nil
	}
	artifact := entry.artifact
	return &artifact, true, nil
}

func (c *MemoryArtifactCache) Set(_ context.Context, token string, artifact *domain.ReportArtifact, ttl time.Duration) error {
	if artifact == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[token] = memoryEntry{artifact: *artifact, expiresAt: time.Now().Add(ttl)}
	return nil
}
