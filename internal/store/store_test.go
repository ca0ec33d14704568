package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jo-hoe/gopassgen/internal/backend/database"
)

func newTestDB(t *testing.T) database.DatabaseService {
	t.Helper()
	ds, err := database.NewDatabase(database.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("NewDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

// failingDB wraps a real database and fails Set on demand.
type failingDB struct {
	database.DatabaseService
	failSet bool
}

func (f *failingDB) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.DatabaseService.Set(ctx, key, value)
}

// assertMirrored checks that the durable copy equals the in-memory list.
func assertMirrored(t *testing.T, s *Store, ds database.DatabaseService) {
	t.Helper()
	want, err := Marshal(s.Entries())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	got, err := ds.Get(context.Background(), s.key)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("durable copy %s differs from in-memory %s", got, want)
	}
}

func TestLoad_EmptyStore(t *testing.T) {
	s := New(newTestDB(t), "")
	s.Load(context.Background())

	if got := s.Entries(); len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestLoad_MalformedValue(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"garbage", "{not json"},
		{"object", `{"website":"a.com"}`},
		{"null", "null"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds := newTestDB(t)
			if err := ds.Set(context.Background(), DefaultKey, []byte(tc.value)); err != nil {
				t.Fatalf("Set error: %v", err)
			}
			s := New(ds, DefaultKey)
			s.Load(context.Background())
			if s.Len() != 0 {
				t.Fatalf("expected empty list for %q, got %+v", tc.value, s.Entries())
			}
		})
	}
}

func TestLoad_UnreachableMediumFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run error: %v", err)
	}
	ds, err := database.NewDatabase(database.TypeRedis, "redis://"+mr.Addr()+"/0")
	if err != nil {
		mr.Close()
		t.Fatalf("NewDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	mr.Close()

	s := New(ds, DefaultKey)
	s.Load(context.Background())
	if s.Len() != 0 {
		t.Fatalf("expected empty list, got %+v", s.Entries())
	}
}

func TestSaveThenReload(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	s := New(ds, DefaultKey)
	s.Load(ctx)
	entries := []SavedEntry{
		{Website: "a.com", PasswordName: "x", Password: "p1"},
		{Website: "b.com", PasswordName: "y", Password: "p2"},
	}
	for _, e := range entries {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save error: %v", err)
		}
		assertMirrored(t, s, ds)
	}

	reloaded := New(ds, DefaultKey)
	reloaded.Load(ctx)
	if !reflect.DeepEqual(reloaded.Entries(), entries) {
		t.Fatalf("reloaded %+v, want %+v", reloaded.Entries(), entries)
	}
}

func TestSaveAndDeleteScenario(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()
	s := New(ds, DefaultKey)
	s.Load(ctx)

	a := SavedEntry{Website: "a.com", PasswordName: "x", Password: "p1"}
	b := SavedEntry{Website: "b.com", PasswordName: "y", Password: "p2"}
	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("Save a error: %v", err)
	}
	if err := s.Save(ctx, b); err != nil {
		t.Fatalf("Save b error: %v", err)
	}
	if got := s.Entries(); !reflect.DeepEqual(got, []SavedEntry{a, b}) {
		t.Fatalf("after saves got %+v", got)
	}

	if err := s.Delete(ctx, 0); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if got := s.Entries(); !reflect.DeepEqual(got, []SavedEntry{b}) {
		t.Fatalf("after delete got %+v, want [b.com]", got)
	}
	assertMirrored(t, s, ds)

	raw, err := ds.Get(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	want := `[{"website":"b.com","passwordName":"y","password":"p2"}]`
	if string(raw) != want {
		t.Fatalf("persisted %s, want %s", raw, want)
	}
}

func TestSaveThenDeleteRestoresPriorList(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()
	s := New(ds, DefaultKey)
	s.Load(ctx)

	for _, e := range []SavedEntry{
		{Website: "a.com", PasswordName: "x", Password: "p1"},
		{Website: "a.com", PasswordName: "x", Password: "p1"},
	} {
		if err := s.Save(ctx, e); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}
	before := s.Entries()

	if err := s.Save(ctx, SavedEntry{Website: "c.com", PasswordName: "z", Password: "p3"}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := s.Delete(ctx, len(before)); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if got := s.Entries(); !reflect.DeepEqual(got, before) {
		t.Fatalf("got %+v, want %+v", got, before)
	}
	assertMirrored(t, s, ds)
}

func TestDelete_OutOfRange(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()
	s := New(ds, DefaultKey)
	s.Load(ctx)
	if err := s.Save(ctx, SavedEntry{Website: "a.com", PasswordName: "x", Password: "p1"}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	before := s.Entries()

	for _, index := range []int{-1, 1, 42} {
		err := s.Delete(ctx, index)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Delete(%d) error = %v, want ErrIndexOutOfRange", index, err)
		}
		if got := s.Entries(); !reflect.DeepEqual(got, before) {
			t.Fatalf("Delete(%d) changed list to %+v", index, got)
		}
	}
	assertMirrored(t, s, ds)
}

func TestPersistFailureRollsBack(t *testing.T) {
	ds := &failingDB{DatabaseService: newTestDB(t)}
	ctx := context.Background()
	s := New(ds, DefaultKey)
	s.Load(ctx)

	if err := s.Save(ctx, SavedEntry{Website: "a.com", PasswordName: "x", Password: "p1"}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	before := s.Entries()

	ds.failSet = true
	if err := s.Save(ctx, SavedEntry{Website: "b.com"}); err == nil {
		t.Fatal("expected Save to fail")
	}
	if err := s.Delete(ctx, 0); err == nil {
		t.Fatal("expected Delete to fail")
	}
	if got := s.Entries(); !reflect.DeepEqual(got, before) {
		t.Fatalf("failed writes changed list to %+v", got)
	}

	ds.failSet = false
	assertMirrored(t, s, ds)
}

func TestEntriesReturnsCopy(t *testing.T) {
	s := New(newTestDB(t), DefaultKey)
	ctx := context.Background()
	if err := s.Save(ctx, SavedEntry{Website: "a.com"}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got := s.Entries()
	got[0].Website = "changed"
	if s.Entries()[0].Website != "a.com" {
		t.Fatal("mutating the returned slice changed the store")
	}
}

func TestMarshal_NilIsEmptyArray(t *testing.T) {
	data, err := Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("Marshal(nil) = %s, want []", data)
	}
}
