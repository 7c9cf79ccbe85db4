/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package storage

import (
	"os"
	"testing"

	"hsqlcore/internal/storage/rowcodec"
)

// setupTestEngine creates an Engine rooted at a fresh temp directory
// and returns it with a cleanup function that closes it and removes
// the directory.
func setupTestEngine(t *testing.T) (*Engine, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "hsqlcore-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	engine, err := NewEngine(Config{DataDir: tmpDir, CacheMaxRows: 256})
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to create engine: %v", err)
	}

	cleanup := func() {
		engine.Close()
		os.RemoveAll(tmpDir)
	}
	return engine, cleanup
}

// setupTestEngineHybrid is setupTestEngine with table promotion to
// disk residency enabled once a table's row count reaches threshold.
func setupTestEngineHybrid(t *testing.T, threshold int) (*Engine, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "hsqlcore-test-hybrid-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	engine, err := NewEngine(Config{DataDir: tmpDir, CacheMaxRows: 256, HybridRowThreshold: threshold})
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to create engine: %v", err)
	}

	cleanup := func() {
		engine.Close()
		os.RemoveAll(tmpDir)
	}
	return engine, cleanup
}

// setupTestEngineShadowed is setupTestEngine with shadow logging
// enabled, returning the data directory too so a test can reopen a
// second Engine instance against the same files.
func setupTestEngineShadowed(t *testing.T) (*Engine, string, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "hsqlcore-test-shadow-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	engine, err := NewEngine(Config{DataDir: tmpDir, CacheMaxRows: 256, EnableShadowLog: true})
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to create engine: %v", err)
	}

	cleanup := func() {
		engine.Close()
		os.RemoveAll(tmpDir)
	}
	return engine, tmpDir, cleanup
}

// singleIntColumnTable is the smallest schema CreateTable needs: one
// INTEGER primary key column.
func singleIntColumnTable() ([]rowcodec.IndexDef, int) {
	idx := rowcodec.IndexDef{
		ID:         0,
		Columns:    []int{0},
		Ascending:  []bool{true},
		NullsLast:  []bool{true},
		Unique:     true,
		PrimaryKey: true,
	}
	return []rowcodec.IndexDef{idx}, 1
}
