package cache

import (
	"context"
	"testing"
	"time"

	"lapakpos/backend/internal/domain"
)

func TestMemoryArtifactCacheRoundTrip(t *testing.T) {
	c := NewMemoryArtifactCache()
	ctx := context.Background()

	artifact := &domain.ReportArtifact{
		FileName:    "Laporan_Penjualan_2025-03-21.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4"),
	}
	if err := c.Set(ctx, "tok-1", artifact, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, "tok-1")
	if err != nil || !ok {
		t.Fatalf("get = (%v, %v), want hit", ok, err)
	}
	if got.FileName != artifact.FileName || string(got.Data) != string(artifact.Data) {
		t.Fatalf("got %+v", got)
	}
}

func TestMemoryArtifactCacheExpiry(t *testing.T) {
	c := NewMemoryArtifactCache()
	ctx := context.Background()

	artifact := &domain.ReportArtifact{FileName: "x.csv"}
	if err := c.Set(ctx, "tok-2", artifact, -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "tok-2"); ok {
		t.Fatal("expired entry must miss")
	}
}

func TestMemoryArtifactCacheMiss(t *testing.T) {
	c := NewMemoryArtifactCache()
	if _, ok, err := c.Get(context.Background(), "absent"); ok || err != nil {
		t.Fatalf("miss = (%v, %v)", ok, err)
	}
}
