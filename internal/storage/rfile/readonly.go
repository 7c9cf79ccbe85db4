/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rfile

// ReadOnly wraps a Backend, rejecting every mutating call regardless
// of whether the wrapped backend would itself permit it — used when a
// data file must be opened read-only even though the underlying file
// descriptor was opened read-write (e.g. while a shadow restore is in
// progress on the same path).
type ReadOnly struct {
	inner Backend
}

// NewReadOnly wraps inner, which NewReadOnly takes ownership of: Close
// on the wrapper closes inner too.
func NewReadOnly(inner Backend) *ReadOnly {
	return &ReadOnly{inner: inner}
}

func (r *ReadOnly) Length() (int64, error)   { return r.inner.Length() }
func (r *ReadOnly) Seek(pos int64) error     { return r.inner.Seek(pos) }
func (r *ReadOnly) FilePointer() int64       { return r.inner.FilePointer() }
func (r *ReadOnly) ReadByte() (byte, error)  { return r.inner.ReadByte() }
func (r *ReadOnly) Read(buf []byte) (int, error) { return r.inner.Read(buf) }
func (r *ReadOnly) ReadInt() (int32, error)  { return r.inner.ReadInt() }
func (r *ReadOnly) ReadLong() (int64, error) { return r.inner.ReadLong() }
func (r *ReadOnly) IsReadOnly() bool         { return true }

func (r *ReadOnly) Write(buf []byte) (int, error) { return 0, errReadOnly }
func (r *ReadOnly) WriteInt(v int32) error         { return errReadOnly }
func (r *ReadOnly) WriteLong(v int64) error        { return errReadOnly }
func (r *ReadOnly) EnsureLength(pos int64) (bool, error) { return false, errReadOnly }
func (r *ReadOnly) SetLength(pos int64) (bool, error)    { return false, errReadOnly }

func (r *ReadOnly) Sync() error  { return nil }
func (r *ReadOnly) Close() error { return r.inner.Close() }
