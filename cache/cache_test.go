package cache

import (
	"testing"
	"time"

	"github.com/civiceg/voterlookup/models"
)

func TestCacheGetSet(t *testing.T) {
	c := New(10, time.Minute)
	key := Key("29805150101234")

	if _, hit := c.Get(key); hit {
		t.Fatal("unexpected hit on an empty cache")
	}

	resp := &models.LookupResponse{
		Success:    true,
		NationalID: "29805150101234",
		Status:     models.StatusRegistered,
	}
	c.Set(key, resp)

	got, hit := c.Get(key)
	if !hit {
		t.Fatal("expected a hit after Set")
	}
	if got.NationalID != "29805150101234" {
		t.Errorf("NationalID = %q", got.NationalID)
	}
}

func TestCacheExpires(t *testing.T) {
	c := New(10, 10*time.Millisecond)
	key := Key("29805150101234")
	c.Set(key, &models.LookupResponse{Success: true})

	time.Sleep(20 * time.Millisecond)

	if _, hit := c.Get(key); hit {
		t.Error("expected the entry to expire")
	}
}

func TestCacheEvictsAtCapacity(t *testing.T) {
	c := New(2, time.Minute)
	c.Set(Key("1"), &models.LookupResponse{})
	c.Set(Key("2"), &models.LookupResponse{})
	c.Set(Key("3"), &models.LookupResponse{})

	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.store) > 2 {
		t.Errorf("store holds %d entries, want at most 2", len(c.store))
	}
}

func TestKeyHidesTheIdentifier(t *testing.T) {
	k := Key("29805150101234")
	if k == "29805150101234" {
		t.Error("key must not be the raw national ID")
	}
	if k != Key("29805150101234") {
		t.Error("key must be deterministic")
	}
}
