/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package storage

import (
	"os"
	"testing"

	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/sqltype"
)

func TestEngineCreateTableAddGetRoundTrip(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	indexes, numColumns := singleIntColumnTable()
	store, err := engine.CreateTable("accounts", indexes, numColumns, nil)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	row := rowcodec.NewRow([]sqltype.Value{{Kind: sqltype.KindInteger, Int64: 7}}, 1)
	if err := store.Add(row); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := store.Get(row.Position)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Values[0].Int64 != 7 {
		t.Errorf("Values[0].Int64 = %d, want 7", got.Values[0].Int64)
	}
}

func TestEngineCreateTableTwiceFails(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	indexes, numColumns := singleIntColumnTable()
	if _, err := engine.CreateTable("t", indexes, numColumns, nil); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := engine.CreateTable("t", indexes, numColumns, nil); err == nil {
		t.Fatal("expected error creating a table that is already open")
	}
}

func TestEngineOpenTableUnknownFails(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	if _, err := engine.OpenTable("missing"); err == nil {
		t.Fatal("expected error opening a table that was never created")
	}
}

func TestEngineDropTableRemovesFile(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	indexes, numColumns := singleIntColumnTable()
	if _, err := engine.CreateTable("t", indexes, numColumns, nil); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := engine.DropTable("t"); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if _, err := engine.OpenTable("t"); err == nil {
		t.Fatal("expected error opening a dropped table")
	}

	// Recreating under the same name must succeed once the old file is gone.
	if _, err := engine.CreateTable("t", indexes, numColumns, nil); err != nil {
		t.Fatalf("CreateTable after drop: %v", err)
	}
}

func TestEngineStatsCountsRowsAcrossTables(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	indexes, numColumns := singleIntColumnTable()
	store, err := engine.CreateTable("t", indexes, numColumns, nil)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	for _, n := range []int64{1, 2, 3} {
		row := rowcodec.NewRow([]sqltype.Value{{Kind: sqltype.KindInteger, Int64: n}}, 1)
		if err := store.Add(row); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
	}

	stats, err := engine.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TableCount != 1 {
		t.Errorf("TableCount = %d, want 1", stats.TableCount)
	}
	if stats.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3", stats.TotalRows)
	}
}

func TestEngineDefragmentTableCompacts(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	indexes, numColumns := singleIntColumnTable()
	store, err := engine.CreateTable("t", indexes, numColumns, nil)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	var deleted []*rowcodec.Row
	for n := int64(0); n < 60; n++ {
		row := rowcodec.NewRow([]sqltype.Value{{Kind: sqltype.KindInteger, Int64: n}}, 1)
		if err := store.Add(row); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
		if n%2 == 0 {
			deleted = append(deleted, row)
		}
	}
	for _, row := range deleted {
		if err := store.Delete(row); err != nil {
			t.Fatalf("Delete: %v", err)
		}
	}

	result, err := engine.DefragmentTable("t")
	if err != nil {
		t.Fatalf("DefragmentTable: %v", err)
	}
	if want := 60 - len(deleted); result.RowCount != want {
		t.Errorf("RowCount = %d, want %d", result.RowCount, want)
	}

	reopened, err := engine.OpenTable("t")
	if err != nil {
		t.Fatalf("OpenTable after defrag: %v", err)
	}
	it := reopened.RowIterator()
	var count int
	for {
		row, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if row == nil {
			break
		}
		if row.Values[0].Int64%2 == 0 {
			t.Errorf("deleted row %d survived defrag", row.Values[0].Int64)
		}
		count++
	}
	if count != result.RowCount {
		t.Errorf("iterated %d rows, defrag reported %d", count, result.RowCount)
	}
}

func TestEngineReopenTableRecoversStateAfterCleanClose(t *testing.T) {
	dir := t.TempDir()
	indexes, numColumns := singleIntColumnTable()

	engine, err := NewEngine(Config{DataDir: dir, CacheMaxRows: 256})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	store, err := engine.CreateTable("t", indexes, numColumns, nil)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	for _, n := range []int64{1, 2, 3} {
		row := rowcodec.NewRow([]sqltype.Value{{Kind: sqltype.KindInteger, Int64: n}}, 1)
		if err := store.Add(row); err != nil {
			t.Fatalf("Add(%d): %v", n, err)
		}
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	engine2, err := NewEngine(Config{DataDir: dir, CacheMaxRows: 256})
	if err != nil {
		t.Fatalf("NewEngine (second): %v", err)
	}
	defer engine2.Close()

	reopened, err := engine2.ReopenTable("t", indexes, numColumns, nil)
	if err != nil {
		t.Fatalf("ReopenTable: %v", err)
	}
	it := reopened.RowIterator()
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
	if len(got) != 3 {
		t.Fatalf("recovered %d rows, want 3: %v", len(got), got)
	}
}

func TestEngineReopenTableReplaysShadowLogAfterUncleanShutdown(t *testing.T) {
	dir := t.TempDir()
	indexes, numColumns := singleIntColumnTable()

	engine, err := NewEngine(Config{DataDir: dir, CacheMaxRows: 256, EnableShadowLog: true})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	store, err := engine.CreateTable("t", indexes, numColumns, nil)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	row := rowcodec.NewRow([]sqltype.Value{{Kind: sqltype.KindInteger, Int64: 42}}, 1)
	if err := store.Add(row); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Sync flushes the row and the header to disk but deliberately
	// leaves the header's modified flag set and the backend open,
	// simulating a process kill before a clean Close checkpoints it. A
	// shadow-protected file's on-disk <name>.shadow log still exists at
	// this point.
	if err := engine.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	shadowFile := engine.shadowPath("t")
	if _, err := os.Stat(shadowFile); err != nil {
		t.Fatalf("expected shadow file to exist before recovery: %v", err)
	}

	engine2, err := NewEngine(Config{DataDir: dir, CacheMaxRows: 256, EnableShadowLog: true})
	if err != nil {
		t.Fatalf("NewEngine (second): %v", err)
	}
	defer engine2.Close()

	reopened, err := engine2.ReopenTable("t", indexes, numColumns, nil)
	if err != nil {
		t.Fatalf("ReopenTable: %v", err)
	}

	// A fresh shadow window is open for the new session, replacing the
	// one consumed by recovery.
	if _, err := os.Stat(shadowFile); err != nil {
		t.Errorf("expected a fresh shadow file for the new session: %v", err)
	}

	// The reopened store must still be usable: further rows can be
	// added and read back through it.
	next := rowcodec.NewRow([]sqltype.Value{{Kind: sqltype.KindInteger, Int64: 7}}, 1)
	if err := reopened.Add(next); err != nil {
		t.Fatalf("Add after recovery: %v", err)
	}
	got, err := reopened.Get(next.Position)
	if err != nil {
		t.Fatalf("Get after recovery: %v", err)
	}
	if got.Values[0].Int64 != 7 {
		t.Errorf("Values[0].Int64 = %d, want 7", got.Values[0].Int64)
	}
}

func TestEngineSyncFlushesHybridTable(t *testing.T) {
	engine, cleanup := setupTestEngineHybrid(t, 1000)
	defer cleanup()

	indexes, numColumns := singleIntColumnTable()
	store, err := engine.CreateTable("t", indexes, numColumns, nil)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	row := rowcodec.NewRow([]sqltype.Value{{Kind: sqltype.KindInteger, Int64: 99}}, 1)
	if err := store.Add(row); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.CommitRow(row, 0); err != nil {
		t.Fatalf("CommitRow: %v", err)
	}
	if err := engine.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
