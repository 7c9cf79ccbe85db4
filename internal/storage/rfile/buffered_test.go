/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rfile

import (
	"path/filepath"
	"testing"
)

func TestBufferedWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	b, err := OpenBuffered(path, false)
	if err != nil {
		t.Fatalf("OpenBuffered: %v", err)
	}
	defer b.Close()

	if err := b.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if err := b.WriteInt(42); err != nil {
		t.Fatalf("WriteInt: %v", err)
	}
	if err := b.WriteLong(123456789); err != nil {
		t.Fatalf("WriteLong: %v", err)
	}

	if err := b.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	gotInt, err := b.ReadInt()
	if err != nil {
		t.Fatalf("ReadInt: %v", err)
	}
	if gotInt != 42 {
		t.Errorf("ReadInt = %d, want 42", gotInt)
	}
	gotLong, err := b.ReadLong()
	if err != nil {
		t.Fatalf("ReadLong: %v", err)
	}
	if gotLong != 123456789 {
		t.Errorf("ReadLong = %d, want 123456789", gotLong)
	}
}

func TestBufferedReadPastEndFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	b, err := OpenBuffered(path, false)
	if err != nil {
		t.Fatalf("OpenBuffered: %v", err)
	}
	defer b.Close()

	if err := b.Seek(1000); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := b.ReadByte(); err == nil {
		t.Error("expected EndOfFile reading past end, got nil")
	}
}

func TestBufferedWritePatchesBufferWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	b, err := OpenBuffered(path, false)
	if err != nil {
		t.Fatalf("OpenBuffered: %v", err)
	}
	defer b.Close()

	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}
	b.Seek(0)
	b.Write(payload)

	// Prime the buffer window by reading the whole span.
	b.Seek(0)
	readBack := make([]byte, len(payload))
	if _, err := b.Read(readBack); err != nil {
		t.Fatalf("Read: %v", err)
	}

	// Overwrite a sub-range that falls inside the cached window.
	patch := []byte{0xFF, 0xFF, 0xFF}
	b.Seek(10)
	if _, err := b.Write(patch); err != nil {
		t.Fatalf("Write: %v", err)
	}

	b.Seek(10)
	got := make([]byte, 3)
	if _, err := b.Read(got); err != nil {
		t.Fatalf("Read after patch: %v", err)
	}
	for i, v := range got {
		if v != 0xFF {
			t.Errorf("byte %d = %x, want ff", i, v)
		}
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	b, err := OpenBuffered(path, false)
	if err != nil {
		t.Fatalf("OpenBuffered: %v", err)
	}
	b.EnsureLength(100)
	b.Close()

	inner, err := OpenBuffered(path, true)
	if err != nil {
		t.Fatalf("OpenBuffered readonly: %v", err)
	}
	ro := NewReadOnly(inner)
	defer ro.Close()

	if !ro.IsReadOnly() {
		t.Error("IsReadOnly() = false, want true")
	}
	if _, err := ro.Write([]byte{1}); err == nil {
		t.Error("expected Write to fail on read-only backend")
	}
	if err := ro.WriteInt(1); err == nil {
		t.Error("expected WriteInt to fail on read-only backend")
	}
}

func TestGrowthBucketRounding(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{1, 1 << 15},
		{1 << 15, 1 << 15},
		{(1 << 15) + 1, 2 << 15},
		{300 * 1024, 1 << 19},
		{2 * 1024 * 1024, 1 << 21},
		{64 * 1024 * 1024, 64*1024*1024 + (1 << 25)},
	}
	for _, c := range cases {
		got := growthBucket(c.in)
		if got < c.in {
			t.Errorf("growthBucket(%d) = %d, must be >= input", c.in, got)
		}
		if got%(1<<13) != 0 {
			t.Errorf("growthBucket(%d) = %d, not a multiple of the base page size", c.in, got)
		}
	}
}
