/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rowcodec

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeTextRowRoundTrip(t *testing.T) {
	cfg := DefaultTextTableConfig()
	cfg.Quoted = true
	fields := []string{"plain", "has,comma", `has"quote`, "has\nnewline"}

	line, err := EncodeTextRow(fields, cfg)
	if err != nil {
		t.Fatalf("EncodeTextRow: %v", err)
	}

	got, err := DecodeTextRow(line, cfg)
	if err != nil {
		t.Fatalf("DecodeTextRow: %v", err)
	}
	if !reflect.DeepEqual(got, fields) {
		t.Errorf("round trip = %#v, want %#v", got, fields)
	}
}

func TestEncodeTextRowRejectsUnquotableSeparator(t *testing.T) {
	cfg := DefaultTextTableConfig()
	cfg.Quoted = false

	_, err := EncodeTextRow([]string{"a,b"}, cfg)
	if err == nil {
		t.Fatal("expected error encoding a field containing the separator with quoting disabled")
	}
	if _, ok := err.(*TextEncodingError); !ok {
		t.Errorf("error type = %T, want *TextEncodingError", err)
	}
}

func TestEncodeTextRowAllFieldsQuoted(t *testing.T) {
	cfg := DefaultTextTableConfig()
	cfg.Quoted = true
	cfg.AllFieldsQuoted = true

	line, err := EncodeTextRow([]string{"a", "b"}, cfg)
	if err != nil {
		t.Fatalf("EncodeTextRow: %v", err)
	}
	if line != "\"a\",\"b\"\n" {
		t.Errorf("line = %q, want %q", line, "\"a\",\"b\"\n")
	}
}

func TestDecodeTextRowPlainUnquoted(t *testing.T) {
	cfg := DefaultTextTableConfig()
	got, err := DecodeTextRow("one,two,three\n", cfg)
	if err != nil {
		t.Fatalf("DecodeTextRow: %v", err)
	}
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}
