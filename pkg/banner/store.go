// Package banner defines the banner configuration record consumed by the
// delivery endpoint, the stores it is read from, and script generation.
package banner

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound indicates no configuration record exists for the identifier.
var ErrNotFound = errors.New("banner not found")

// Metadata is the narrow slice of a record needed to compute an ETag.
type Metadata struct {
	ID        string    `json:"id"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is a full banner configuration record.
type Record struct {
	Metadata

	// Config is the serialized banner configuration (see DecodeConfig).
	Config json.RawMessage `json:"config"`
}

// Store reads banner records. Implementations return ErrNotFound (possibly
// wrapped) when the identifier does not exist.
type Store interface {
	// Metadata fetches only the fields needed for freshness checks.
	Metadata(ctx context.Context, id string) (*Metadata, error)

	// Fetch returns the full record.
	Fetch(ctx context.Context, id string) (*Record, error)
}
