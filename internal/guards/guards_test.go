package guards

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stockdesk/backend/internal/store"
)

// fakeFinder scripts the store's existence answers
type fakeFinder struct {
	found map[string]bool
	err   error
}

func (f *fakeFinder) Exists(ctx context.Context, kind, field, value string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.found[value], nil
}

func TestCheck_EmptyKeyIsCallerBug(t *testing.T) {
	g := New(&fakeFinder{}, "wallets", "uid")
	_, err := g.Check(context.Background(), "")
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
	_, err = g.Check(context.Background(), "   ")
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey for whitespace key, got %v", err)
	}
}

func TestCheck_TransientFailureIsUnknown(t *testing.T) {
	g := New(&fakeFinder{err: fmt.Errorf("%w: connection refused", store.ErrTransient)}, "wallets", "uid")
	state, err := g.Check(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Transient failure should not surface as an error, got %v", err)
	}
	if state != Unknown {
		t.Errorf("Expected Unknown, got %v", state)
	}
}

func TestCheck_PermanentFailureSurfaces(t *testing.T) {
	g := New(&fakeFinder{err: fmt.Errorf("%w: bad field", store.ErrInvalidArgument)}, "wallets", "uid")
	if _, err := g.Check(context.Background(), "u1"); err == nil {
		t.Error("Expected permanent failure to surface")
	}
}

func TestCanCreate(t *testing.T) {
	g := New(&fakeFinder{found: map[string]bool{"u1": true}}, "wallets", "uid")

	ok, err := g.CanCreate(context.Background(), "u1")
	if err != nil || ok {
		t.Errorf("Expected create denied for existing key, got %v %v", ok, err)
	}
	ok, err = g.CanCreate(context.Background(), "u2")
	if err != nil || !ok {
		t.Errorf("Expected create allowed for new key, got %v %v", ok, err)
	}
	// empty key is a business no, not an error
	ok, err = g.CanCreate(context.Background(), "")
	if err != nil || ok {
		t.Errorf("Expected create denied for empty key without error, got %v %v", ok, err)
	}
}

func TestCanUpdateAndReset(t *testing.T) {
	g := New(&fakeFinder{found: map[string]bool{"u1": true}}, "wallets", "uid")

	for name, fn := range map[string]func(context.Context, string) (bool, error){
		"update": g.CanUpdate,
		"reset":  g.CanReset,
	} {
		ok, err := fn(context.Background(), "u1")
		if err != nil || !ok {
			t.Errorf("%s: expected allowed for existing key, got %v %v", name, ok, err)
		}
		ok, err = fn(context.Background(), "missing")
		if err != nil || ok {
			t.Errorf("%s: expected denied for missing key, got %v %v", name, ok, err)
		}
		ok, err = fn(context.Background(), "")
		if err != nil || ok {
			t.Errorf("%s: expected denied for empty key without error, got %v %v", name, ok, err)
		}
	}
}

func TestOperations_DenyOnUnknownExistence(t *testing.T) {
	g := New(&fakeFinder{err: fmt.Errorf("%w: throttled", store.ErrTransient)}, "wallets", "uid")

	for name, fn := range map[string]func(context.Context, string) (bool, error){
		"create": g.CanCreate,
		"update": g.CanUpdate,
		"reset":  g.CanReset,
	} {
		ok, err := fn(context.Background(), "u1")
		if ok {
			t.Errorf("%s: mutation allowed on unknown existence state", name)
		}
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("%s: expected ErrUnavailable, got %v", name, err)
		}
	}
}
