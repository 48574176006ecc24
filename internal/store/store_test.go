package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stockdesk/backend/internal/db"
)

// These tests run against a live Postgres and skip when none is
// reachable, matching the environment the store targets.

func setupStore(t *testing.T) *Store {
	t.Helper()
	database := db.SetupTestDB(t)
	t.Cleanup(func() {
		db.CleanupTestDB(t, database)
		database.Close()
	})

	st := New(database, 3, 3*time.Second)
	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return st
}

type testDoc struct {
	UID    string         `json:"uid"`
	Name   string         `json:"name"`
	Nested map[string]any `json:"nested,omitempty"`
}

func TestPutGetRoundTrip(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	doc := testDoc{UID: "test_u1", Name: "first"}
	if err := st.Put(ctx, "test_kind", "test_u1", doc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rec, err := st.Get(ctx, "test_kind", "test_u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var got testDoc
	if err := rec.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != "first" {
		t.Errorf("Expected name first, got %q", got.Name)
	}

	// Put again overwrites
	doc.Name = "second"
	if err := st.Put(ctx, "test_kind", "test_u1", doc); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	rec, err = st.Get(ctx, "test_kind", "test_u1")
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if err := rec.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != "second" {
		t.Errorf("Expected name second, got %q", got.Name)
	}
}

func TestGetMissingRecord(t *testing.T) {
	st := setupStore(t)

	_, err := st.Get(context.Background(), "test_kind", "test_ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPutIfAbsentConflicts(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	doc := testDoc{UID: "test_u2", Name: "original"}
	if err := st.PutIfAbsent(ctx, "test_kind", "test_u2", doc); err != nil {
		t.Fatalf("PutIfAbsent: %v", err)
	}

	doc.Name = "clobber"
	err := st.PutIfAbsent(ctx, "test_kind", "test_u2", doc)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}

	rec, err := st.Get(ctx, "test_kind", "test_u2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var got testDoc
	if err := rec.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != "original" {
		t.Errorf("Expected original doc untouched, got %q", got.Name)
	}
}

func TestQueryByField(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	for _, doc := range []testDoc{
		{UID: "test_q1", Name: "alpha"},
		{UID: "test_q2", Name: "alpha"},
		{UID: "test_q3", Name: "beta"},
	} {
		if err := st.Put(ctx, "test_kind", doc.UID, doc); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	records, err := st.Query(ctx, "test_kind", "name", "alpha")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 matches, got %d", len(records))
	}

	found, err := st.Exists(ctx, "test_kind", "name", "beta")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !found {
		t.Error("Expected beta to exist")
	}
}

func TestQueryRangeOnNestedPath(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	for uid, amount := range map[string]int{"test_r1": 50, "test_r2": 150, "test_r3": 500} {
		doc := testDoc{UID: uid, Nested: map[string]any{"amount": amount}}
		if err := st.Put(ctx, "test_kind", uid, doc); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	records, err := st.QueryRange(ctx, "test_kind", []string{"nested", "amount"}, 100, 400)
	if err != nil {
		t.Fatalf("QueryRange: %v", err)
	}
	if len(records) != 1 || records[0].Key != "test_r2" {
		t.Errorf("Expected only test_r2 in range, got %d records", len(records))
	}
}

func TestInvalidArguments(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	if _, err := st.Get(ctx, "", "key"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty kind, got %v", err)
	}
	if err := st.Put(ctx, "test_kind", "", testDoc{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty key, got %v", err)
	}
}
