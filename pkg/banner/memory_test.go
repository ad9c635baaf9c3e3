package banner

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	updated := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	store.Put(Record{
		Metadata: Metadata{ID: testID, IsActive: true, UpdatedAt: updated},
		Config:   []byte(`{"theme":"dark"}`),
	})

	md, err := store.Metadata(ctx, testID)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if !md.IsActive || !md.UpdatedAt.Equal(updated) {
		t.Errorf("Metadata() = %+v", md)
	}

	// Lookups are case-insensitive like UUIDs
	rec, err := store.Fetch(ctx, "3F1C1E4A-6A3B-4C6E-9D1F-2B7F0C9A8E51")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(rec.Config) != `{"theme":"dark"}` {
		t.Errorf("Config = %s", rec.Config)
	}

	// Mutating the result must not leak into the store
	rec.Config[0] = 'X'
	again, _ := store.Fetch(ctx, testID)
	if string(again.Config) != `{"theme":"dark"}` {
		t.Errorf("stored config mutated through Fetch result: %s", again.Config)
	}

	store.Delete(testID)
	if _, err := store.Metadata(ctx, testID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Metadata() after Delete error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore()
	store.Put(Record{Metadata: Metadata{ID: testID}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Fetch(ctx, testID); !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
}

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name       string
		active     string
		updated    string
		wantErr    bool
		wantActive bool
	}{
		{name: "valid", active: "true", updated: "1767268800000", wantActive: true},
		{name: "inactive", active: "false", updated: "1767268800000", wantActive: false},
		{name: "bad flag", active: "yes please", updated: "1767268800000", wantErr: true},
		{name: "bad timestamp", active: "true", updated: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := parseMetadata(testID, tt.active, tt.updated)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMetadata() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if md.IsActive != tt.wantActive {
				t.Errorf("IsActive = %v, want %v", md.IsActive, tt.wantActive)
			}
			if md.UpdatedAt.UnixMilli() != 1767268800000 {
				t.Errorf("UpdatedAt = %v", md.UpdatedAt)
			}
		})
	}
}

func TestRedisKey(t *testing.T) {
	if got := RedisKey("ABC"); got != "banner:config:abc" {
		t.Errorf("RedisKey() = %q, want %q", got, "banner:config:abc")
	}
}
