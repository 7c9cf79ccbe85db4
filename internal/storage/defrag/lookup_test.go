/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package defrag

import (
	"testing"

	"hsqlcore/internal/storage/rowcodec"
)

func TestDoubleIntIndexRoundTrip(t *testing.T) {
	idx := NewDoubleIntIndex(4)
	idx.Put(100, 10)
	idx.Put(200, 20)

	if got, ok := idx.Lookup(100); !ok || got != 10 {
		t.Errorf("Lookup(100) = (%d, %v), want (10, true)", got, ok)
	}
	if _, ok := idx.Lookup(300); ok {
		t.Error("Lookup(300) unexpectedly found")
	}
	if got, ok := idx.Lookup(rowcodec.NoPosition); !ok || got != rowcodec.NoPosition {
		t.Errorf("Lookup(NoPosition) = (%d, %v), want (NoPosition, true)", got, ok)
	}
	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
}

func TestDoubleLongIndexRoundTrip(t *testing.T) {
	idx := NewDoubleLongIndex(4)
	idx.Put(1<<40, 1<<33)

	if got, ok := idx.Lookup(1 << 40); !ok || got != 1<<33 {
		t.Errorf("Lookup = (%d, %v), want (%d, true)", got, ok, int64(1)<<33)
	}
	if got, ok := idx.Lookup(rowcodec.NoPosition); !ok || got != rowcodec.NoPosition {
		t.Errorf("Lookup(NoPosition) = (%d, %v), want (NoPosition, true)", got, ok)
	}
}
