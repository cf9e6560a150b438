package store

import (
	"testing"

	"github.com/ethereum/go-ethereum/core/rawdb"
)

func TestPutGet(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	s := New(db, "a:")

	if _, ok, err := s.Get([]byte("k")); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := s.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := s.Get([]byte("k"))
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}
	has, err := s.Has([]byte("k"))
	if err != nil || !has {
		t.Fatalf("has: %v %v", has, err)
	}
}

func TestPrefixIsolation(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	a := New(db, "a:")
	b := New(db, "b:")

	if err := a.Put([]byte("k"), []byte("1")); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Get([]byte("k")); ok {
		t.Error("prefixes must not share keys")
	}
}

func TestEach(t *testing.T) {
	db := rawdb.NewMemoryDatabase()
	s := New(db, "a:")
	other := New(db, "b:")

	_ = s.Put([]byte("x"), []byte("1"))
	_ = s.Put([]byte("y"), []byte("2"))
	_ = other.Put([]byte("z"), []byte("3"))

	seen := make(map[string]string)
	if err := s.Each(func(k, v []byte) bool {
		seen[string(k)] = string(v)
		return true
	}); err != nil {
		t.Fatalf("each: %v", err)
	}
	if len(seen) != 2 || seen["x"] != "1" || seen["y"] != "2" {
		t.Errorf("unexpected walk result: %v", seen)
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
}
