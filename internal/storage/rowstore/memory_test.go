/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rowstore

import (
	"testing"

	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/sqltype"
)

func intRow(n int64) *rowcodec.Row {
	return rowcodec.NewRow([]sqltype.Value{{Kind: sqltype.KindInteger, Int64: n}}, 1)
}

func pkIndex() rowcodec.IndexDef {
	return rowcodec.IndexDef{ID: 0, Columns: []int{0}, Ascending: []bool{true}, NullsLast: []bool{true}, Unique: true, PrimaryKey: true}
}

func TestMemoryAddGetRoundTrip(t *testing.T) {
	m := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	row := intRow(7)
	if err := m.Add(row); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := m.Get(row.Position)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Values[0].Int64 != 7 {
		t.Errorf("Values[0].Int64 = %d, want 7", got.Values[0].Int64)
	}
}

func TestMemoryRejectsDuplicateUniqueKey(t *testing.T) {
	m := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	if err := m.Add(intRow(1)); err != nil {
		t.Fatalf("Add first: %v", err)
	}
	if err := m.Add(intRow(1)); err == nil {
		t.Fatal("expected duplicate key error")
	}
	if m.RowCount() != 1 {
		t.Errorf("RowCount() = %d, want 1 after rejected duplicate", m.RowCount())
	}
}

func TestMemoryIteratorOrdersByKey(t *testing.T) {
	m := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	for _, n := range []int64{5, 1, 9, 3} {
		if err := m.Add(intRow(n)); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
	}

	it := m.RowIterator()
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

	want := []int64{1, 3, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMemoryDeleteThenAddRollback(t *testing.T) {
	m := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	row := intRow(42)
	if err := m.Add(row); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := m.Delete(row); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(row.Position); err == nil {
		t.Fatal("expected error reading a deleted row")
	}

	if err := m.RollbackRow(row, ActionDelete); err != nil {
		t.Fatalf("RollbackRow: %v", err)
	}
	got, err := m.Get(row.Position)
	if err != nil {
		t.Fatalf("Get after rollback: %v", err)
	}
	if got.Values[0].Int64 != 42 {
		t.Errorf("Values[0].Int64 = %d, want 42", got.Values[0].Int64)
	}
}

func TestMemoryRollbackInsertUnlinks(t *testing.T) {
	m := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	row := intRow(9)
	if err := m.Add(row); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.RollbackRow(row, ActionInsert); err != nil {
		t.Fatalf("RollbackRow: %v", err)
	}
	if m.RowCount() != 0 {
		t.Errorf("RowCount() = %d, want 0 after rolled-back insert", m.RowCount())
	}
}

func TestMemoryMoveDataTranslatesColumns(t *testing.T) {
	src := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	for _, n := range []int64{1, 2, 3} {
		if err := src.Add(intRow(n)); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
	}

	dst := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	if err := dst.MoveData(src, []int{0}, nil); err != nil {
		t.Fatalf("MoveData: %v", err)
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

func TestMemoryMoveDataAppliesAdjust(t *testing.T) {
	src := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	if err := src.Add(intRow(5)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	dst := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	double := func(values []sqltype.Value) error {
		values[0].Int64 *= 2
		return nil
	}
	if err := dst.MoveData(src, []int{0}, double); err != nil {
		t.Fatalf("MoveData: %v", err)
	}

	it := dst.RowIterator()
	row, err := it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row == nil || row.Values[0].Int64 != 10 {
		t.Fatalf("got %v, want a single row with value 10", row)
	}
}

func TestMemoryReindexRebuildsTree(t *testing.T) {
	m := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	for _, n := range []int64{5, 1, 9, 3} {
		if err := m.Add(intRow(n)); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
	}

	if err := m.Reindex(0, true); err != nil {
		t.Fatalf("Reindex: %v", err)
	}

	it := m.RowIterator()
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
	want := []int64{1, 3, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMemorySearchCost(t *testing.T) {
	m := NewMemory([]rowcodec.IndexDef{pkIndex()}, nil, "")
	if got := m.SearchCost(-1, 1000); got != 1000 {
		t.Errorf("full-scan SearchCost = %v, want 1000", got)
	}
	if got := m.SearchCost(0, 1024); got < 10 || got > 12 {
		t.Errorf("indexed SearchCost(1024) = %v, want ~11", got)
	}
}
