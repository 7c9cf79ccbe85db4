/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rowstore

import (
	"path/filepath"
	"testing"

	"hsqlcore/internal/storage/cache"
	"hsqlcore/internal/storage/freespace"
	"hsqlcore/internal/storage/rfile"
	"hsqlcore/internal/storage/rowcodec"
)

func newHybridFixture(t *testing.T, threshold int) *Hybrid {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.bin")
	backend, err := rfile.OpenBuffered(path, false)
	if err != nil {
		t.Fatalf("OpenBuffered: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	if _, err := backend.EnsureLength(1 << 20); err != nil {
		t.Fatalf("EnsureLength: %v", err)
	}

	codec := rowcodec.NewBinaryCodec(8)
	c := cache.New(backend, nil, 0, 0)
	space := freespace.NewSimple(64, int64(codec.Scale))
	factory := NewDiskBackend(backend, c, space, codec, []rowcodec.IndexDef{pkIndex()}, 1, nil, "")
	return NewHybridMemory([]rowcodec.IndexDef{pkIndex()}, nil, "", threshold, factory)
}

func TestHybridStaysInMemoryBelowThreshold(t *testing.T) {
	h := newHybridFixture(t, 10)
	for _, n := range []int64{3, 1, 2} {
		if err := h.Add(intRow(n)); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
	}
	if h.disk != nil {
		t.Fatal("expected store to remain in-memory below threshold")
	}
}

func TestHybridSwitchesOverAtThreshold(t *testing.T) {
	h := newHybridFixture(t, 3)
	for _, n := range []int64{5, 1, 9} {
		if err := h.Add(intRow(n)); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
	}
	if h.disk == nil {
		t.Fatal("expected switch-over to Disk at threshold")
	}

	it := h.RowIterator()
	var got []int64
	for {
		row, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if row == nil {
			break
		}
		got = append(got, row.Values[0].Int64)
	}
	want := []int64{1, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestHybridReindexWhileInMemory(t *testing.T) {
	h := newHybridFixture(t, 10)
	for _, n := range []int64{7, 2, 5} {
		if err := h.Add(intRow(n)); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
	}
	if err := h.Reindex(0, true); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	it := h.RowIterator()
	var got []int64
	for {
		row, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if row == nil {
			break
		}
		got = append(got, row.Values[0].Int64)
	}
	want := []int64{2, 5, 7}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestHybridMoveDataObservesPromotionThreshold(t *testing.T) {
	src := newHybridFixture(t, 10)
	for _, n := range []int64{1, 2, 3} {
		if err := src.Add(intRow(n)); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
	}

	dst := newHybridFixture(t, 2)
	if err := dst.MoveData(src, []int{0}, nil); err != nil {
		t.Fatalf("MoveData: %v", err)
	}
	if dst.disk == nil {
		t.Fatal("expected MoveData to drive dst through its own promotion threshold")
	}

	it := dst.RowIterator()
	var got []int64
	for {
		row, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if row == nil {
			break
		}
		got = append(got, row.Values[0].Int64)
	}
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestHybridAddAfterSwitchOverGoesToDisk(t *testing.T) {
	h := newHybridFixture(t, 2)
	if err := h.Add(intRow(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := h.Add(intRow(2)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if h.disk == nil {
		t.Fatal("expected switch-over after second add")
	}

	third := intRow(3)
	if err := h.Add(third); err != nil {
		t.Fatalf("Add post-switch: %v", err)
	}
	got, err := h.Get(third.Position)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Values[0].Int64 != 3 {
		t.Errorf("Values[0].Int64 = %d, want 3", got.Values[0].Int64)
	}
}
