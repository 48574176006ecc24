package guards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stockdesk/backend/internal/store"
)

// Existence is the three-valued outcome of an existence check
type Existence int

const (
	// Unknown - the check could not be completed (transient store failure)
	Unknown Existence = iota
	// Absent - no record matches the key
	Absent
	// Exists - at least one record matches the key
	Exists
)

var (
	// ErrInvalidKey - the check itself was malformed (caller bug)
	ErrInvalidKey = errors.New("natural key cannot be empty and must be a string")
	// ErrUnavailable - existence state unknown, mutation must not proceed
	ErrUnavailable = errors.New("unable to verify record state")
)

// Finder is the slice of the store guards need
type Finder interface {
	Exists(ctx context.Context, kind, field, value string) (bool, error)
}

// Guard answers existence questions for one kind of record looked up
// by one document field, and gates mutations on the answer
type Guard struct {
	finder Finder
	kind   string
	field  string
}

// New creates a guard for the given record kind and key field
func New(finder Finder, kind, field string) *Guard {
	return &Guard{finder: finder, kind: kind, field: field}
}

// Check queries for any record matching the key. An empty key is a
// caller bug reported immediately; a transient store failure comes
// back as Unknown so callers decide whether to retry or abort.
func (g *Guard) Check(ctx context.Context, key string) (Existence, error) {
	if strings.TrimSpace(key) == "" {
		return Unknown, fmt.Errorf("%w: %s", ErrInvalidKey, g.field)
	}
	found, err := g.finder.Exists(ctx, g.kind, g.field, key)
	if err != nil {
		if errors.Is(err, store.ErrTransient) {
			return Unknown, nil
		}
		return Unknown, err
	}
	if found {
		return Exists, nil
	}
	return Absent, nil
}

// CanCreate permits creation only when no record with the key exists.
// An absent key is a business "no", not a caller bug; an Unknown
// existence state fails loudly rather than guessing.
func (g *Guard) CanCreate(ctx context.Context, key string) (bool, error) {
	return g.allow(ctx, key, Absent)
}

// CanUpdate permits an update only when the record exists
func (g *Guard) CanUpdate(ctx context.Context, key string) (bool, error) {
	return g.allow(ctx, key, Exists)
}

// CanReset permits a reset only when the record exists
func (g *Guard) CanReset(ctx context.Context, key string) (bool, error) {
	return g.allow(ctx, key, Exists)
}

func (g *Guard) allow(ctx context.Context, key string, want Existence) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, nil
	}
	state, err := g.Check(ctx, key)
	if err != nil {
		return false, err
	}
	if state == Unknown {
		return false, ErrUnavailable
	}
	return state == want, nil
}
