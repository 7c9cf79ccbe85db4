/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package defrag

import (
	"path/filepath"
	"testing"

	"hsqlcore/internal/storage/cache"
	"hsqlcore/internal/storage/freespace"
	"hsqlcore/internal/storage/rfile"
	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/rowstore"
	"hsqlcore/internal/storage/sqltype"
)

func pkIndexDef() rowcodec.IndexDef {
	return rowcodec.IndexDef{
		ID: 0, Columns: []int{0}, Ascending: []bool{true}, NullsLast: []bool{true},
		Unique: true, PrimaryKey: true,
	}
}

func intRow(n int64) *rowcodec.Row {
	return rowcodec.NewRow([]sqltype.Value{{Kind: sqltype.KindInteger, Int64: n}}, 1)
}

func openDisk(t *testing.T, path string) *rowstore.Disk {
	t.Helper()
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
	return rowstore.NewDisk(backend, c, space, codec, []rowcodec.IndexDef{pkIndexDef()}, 1, nil, "")
}

func TestDefragmentCompactsAndPreservesRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.bin")
	d := openDisk(t, path)

	const total = 300
	for n := int64(0); n < total; n++ {
		if err := d.Add(intRow(n)); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
	}

	// Delete every third row so the surviving set is fragmented
	// across the file.
	var toDelete []*rowcodec.Row
	it := d.RowIterator()
	for {
		row, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if row == nil {
			break
		}
		if row.Values[0].Int64%3 == 0 {
			toDelete = append(toDelete, row)
		}
	}
	for _, row := range toDelete {
		if err := d.Delete(row); err != nil {
			t.Fatalf("Delete(%d): %v", row.Values[0].Int64, err)
		}
	}
	wantCount := total - len(toDelete)

	oldSize, err := d.Backend().Length()
	if err != nil {
		t.Fatalf("Length: %v", err)
	}

	destPath := filepath.Join(dir, "rows.defrag.bin")
	result, err := Defragment(d, 64, destPath)
	if err != nil {
		t.Fatalf("Defragment: %v", err)
	}

	if result.RowCount != wantCount {
		t.Errorf("RowCount = %d, want %d", result.RowCount, wantCount)
	}
	if result.NewSize >= oldSize {
		t.Errorf("NewSize = %d did not shrink from oldSize %d", result.NewSize, oldSize)
	}

	// Reopen the compacted file fresh and confirm every surviving row
	// is reachable, in order, through the translated primary root.
	d2 := openDisk(t, destPath)
	d2.SetAccessor(pkIndexDef().ID, result.NewRoots[0])

	var got []int64
	it2 := d2.RowIterator()
	for {
		row, err := it2.Next()
		if err != nil {
			t.Fatalf("Next on defragged file: %v", err)
		}
		if row == nil {
			break
		}
		got = append(got, row.Values[0].Int64)
	}
	if len(got) != wantCount {
		t.Fatalf("defragged file has %d rows, want %d", len(got), wantCount)
	}
	for i, v := range got {
		if v%3 == 0 {
			t.Fatalf("deleted row %d survived defrag", v)
		}
		if i > 0 && got[i-1] >= v {
			t.Fatalf("defragged rows out of order at %d: %v", i, got)
		}
	}
}

func TestDefragmentEmptyTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.bin")
	d := openDisk(t, path)

	destPath := filepath.Join(dir, "rows.defrag.bin")
	result, err := Defragment(d, 64, destPath)
	if err != nil {
		t.Fatalf("Defragment: %v", err)
	}
	if result.RowCount != 0 {
		t.Errorf("RowCount = %d, want 0", result.RowCount)
	}
	if result.NewRoots[0] != rowcodec.NoPosition {
		t.Errorf("NewRoots[0] = %d, want NoPosition", result.NewRoots[0])
	}
}
