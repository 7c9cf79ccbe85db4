/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package shadow

import (
	"bytes"
	"path/filepath"
	"testing"

	"hsqlcore/internal/storage/rfile"
)

func openBackend(t *testing.T, dir, name string) (*rfile.Buffered, string) {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := rfile.OpenBuffered(path, false)
	if err != nil {
		t.Fatalf("OpenBuffered(%s): %v", name, err)
	}
	return b, path
}

// TestCrashRestoreIdempotence mirrors the "shadow restore after crash"
// scenario: snapshot a page of an 8 MiB file, corrupt it, synch, then
// replay the shadow log over the corrupted file and verify the
// corrupted bytes revert to the snapshot.
func TestCrashRestoreIdempotence(t *testing.T) {
	const fileSize = 8 * 1024 * 1024
	const pageSize = 4096
	dir := t.TempDir()

	data, dataPath := openBackend(t, dir, "data.bin")
	data.EnsureLength(fileSize)

	original := bytes.Repeat([]byte{0xAB}, pageSize)
	data.Seek(pageSize)
	data.Write(original)

	shadowBackend, shadowPath := openBackend(t, dir, "shadow.log")

	log, err := NewLog(shadowBackend, pageSize, fileSize)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}

	if _, err := log.Copy(data, pageSize, pageSize); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	corrupted := bytes.Repeat([]byte{0xFF}, pageSize)
	data.Seek(pageSize)
	data.Write(corrupted)

	if err := log.Synch(); err != nil {
		t.Fatalf("Synch: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data.Close()

	// "Crash": reopen both backends fresh, as recovery would.
	restoreSrc, err := rfile.OpenBuffered(shadowPath, false)
	if err != nil {
		t.Fatalf("reopen shadow: %v", err)
	}
	defer restoreSrc.Close()
	restoreDst, err := rfile.OpenBuffered(dataPath, false)
	if err != nil {
		t.Fatalf("reopen data: %v", err)
	}
	defer restoreDst.Close()

	applied, err := RestoreFile(restoreSrc, restoreDst)
	if err != nil {
		t.Fatalf("RestoreFile: %v", err)
	}
	if applied == 0 {
		t.Fatal("expected at least one page restored")
	}

	restoreDst.Seek(pageSize)
	got := make([]byte, pageSize)
	if _, err := restoreDst.Read(got); err != nil {
		t.Fatalf("Read restored page: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("restored page does not match original before-image")
	}
}

func TestCopySkipsAlreadyPreservedPage(t *testing.T) {
	const pageSize = 4096
	dir := t.TempDir()
	data, _ := openBackend(t, dir, "data.bin")
	defer data.Close()
	data.EnsureLength(pageSize * 4)

	shadowBackend, _ := openBackend(t, dir, "shadow.log")
	defer shadowBackend.Close()

	log, err := NewLog(shadowBackend, pageSize, pageSize*4)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}

	n1, err := log.Copy(data, pageSize, pageSize)
	if err != nil {
		t.Fatalf("Copy 1: %v", err)
	}
	n2, err := log.Copy(data, pageSize, pageSize)
	if err != nil {
		t.Fatalf("Copy 2: %v", err)
	}
	if n2 != 0 {
		t.Errorf("second Copy over the same page wrote %d pages, want 0", n2)
	}
	if n1 == 0 {
		t.Errorf("first Copy wrote 0 pages, want at least page 0 and the requested page")
	}
}

func TestBackupDigestMatchesAcrossEquivalentStreams(t *testing.T) {
	const pageSize = 4096
	dir := t.TempDir()
	data, _ := openBackend(t, dir, "data.bin")
	defer data.Close()
	data.EnsureLength(pageSize * 2)
	data.Seek(0)
	data.Write(bytes.Repeat([]byte{0x11}, pageSize))

	shadowBackend, _ := openBackend(t, dir, "shadow.log")
	defer shadowBackend.Close()

	log, err := NewLog(shadowBackend, pageSize, pageSize*2)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	if _, err := log.Copy(data, 0, pageSize); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if err := log.Synch(); err != nil {
		t.Fatalf("Synch: %v", err)
	}

	d1, err := BackupDigest(log.InputStream())
	if err != nil {
		t.Fatalf("BackupDigest 1: %v", err)
	}
	d2, err := BackupDigest(log.InputStream())
	if err != nil {
		t.Fatalf("BackupDigest 2: %v", err)
	}
	if !bytes.Equal(d1, d2) {
		t.Error("digest of the same synched backup differed across reads")
	}
}
