package statestore

import (
	"context"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := store.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(raw) != "v1" {
		t.Fatalf("Get(k) = %q ok=%v err=%v, want v1", raw, ok, err)
	}

	// Mutating the returned slice must not affect the stored value.
	raw[0] = 'x'
	raw2, _, _ := store.Get(ctx, "k")
	if string(raw2) != "v1" {
		t.Errorf("stored value mutated through returned slice: %q", raw2)
	}

	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("key still present after Remove")
	}

	// Removing a missing key is not an error.
	if err := store.Remove(ctx, "k"); err != nil {
		t.Errorf("Remove(missing): %v", err)
	}
}

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	var out record
	ok, err := GetJSON(ctx, store, "rec", &out)
	if err != nil || ok {
		t.Fatalf("GetJSON(missing) = ok=%v err=%v, want absent", ok, err)
	}

	in := record{Name: "a", Count: 2}
	if err := SetJSON(ctx, store, "rec", in); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	ok, err = GetJSON(ctx, store, "rec", &out)
	if err != nil || !ok {
		t.Fatalf("GetJSON = ok=%v err=%v", ok, err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}

	// Corrupt record surfaces a state store error.
	_ = store.Set(ctx, "rec", []byte("{not json"))
	if ok, err := GetJSON(ctx, store, "rec", &out); err == nil || ok {
		t.Errorf("GetJSON(corrupt) = ok=%v err=%v, want error", ok, err)
	}
}
