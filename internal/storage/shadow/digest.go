/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package shadow

import (
	"io"

	"github.com/zeebo/blake3"
)

// BackupDigest hashes an entire backup stream (normally a Log's
// InputStream) with blake3, for callers that want a single fingerprint
// to compare two backups without a full byte-for-byte diff.
func BackupDigest(r io.Reader) ([]byte, error) {
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
