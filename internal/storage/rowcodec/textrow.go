/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rowcodec

import (
	"fmt"
	"strings"
)

// TextTableConfig configures the TEXT TABLE row format.
type TextTableConfig struct {
	FieldSep          string // fs: separates fields within a row
	VarcharSep        string // vs: separates VARCHAR fields specifically
	LongVarcharSep    string // lvs: separates long VARCHAR/CLOB fields
	Quoted            bool   // enable double-quote escaping of embedded separators
	QuoteChar         byte   // default '"'
	AllFieldsQuoted   bool   // quote every field, not just ones that need it
}

// DefaultTextTableConfig returns the conventional comma-separated,
// quoted configuration.
func DefaultTextTableConfig() TextTableConfig {
	return TextTableConfig{
		FieldSep:   ",",
		VarcharSep: ",",
		QuoteChar:  '"',
	}
}

// TextEncodingError reports a field value containing a separator that
// cannot be represented because quoting is disabled.
type TextEncodingError struct {
	Field string
	Sep   string
}

func (e *TextEncodingError) Error() string {
	return fmt.Sprintf("rowcodec: text encoding error: field %q contains separator %q and quoting is disabled", e.Field, e.Sep)
}

// EncodeTextRow renders fields as one TEXT TABLE row, terminated by a
// newline. Each field is quoted if
// cfg.Quoted and it contains the separator or a quote character;
// embedded quote characters are doubled per the standard escape.
func EncodeTextRow(fields []string, cfg TextTableConfig) (string, error) {
	sep := cfg.FieldSep
	if sep == "" {
		sep = ","
	}
	quote := cfg.QuoteChar
	if quote == 0 {
		quote = '"'
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		needsQuote := cfg.AllFieldsQuoted || strings.Contains(f, sep) || strings.ContainsRune(f, rune(quote)) || strings.ContainsAny(f, "\r\n")
		if needsQuote {
			if !cfg.Quoted {
				return "", &TextEncodingError{Field: f, Sep: sep}
			}
			escaped := strings.ReplaceAll(f, string(quote), string(quote)+string(quote))
			parts[i] = string(quote) + escaped + string(quote)
		} else {
			parts[i] = f
		}
	}
	return strings.Join(parts, sep) + "\n", nil
}

// DecodeTextRow splits one TEXT TABLE line back into fields, reversing
// EncodeTextRow's quoting.
func DecodeTextRow(line string, cfg TextTableConfig) ([]string, error) {
	line = strings.TrimRight(line, "\r\n")
	sep := cfg.FieldSep
	if sep == "" {
		sep = ","
	}
	quote := cfg.QuoteChar
	if quote == 0 {
		quote = '"'
	}

	var fields []string
	i := 0
	for i <= len(line) {
		if i < len(line) && line[i] == quote {
			// quoted field: scan to the closing quote, unescaping doubled quotes
			var b strings.Builder
			j := i + 1
			for j < len(line) {
				if line[j] == quote {
					if j+1 < len(line) && line[j+1] == quote {
						b.WriteByte(quote)
						j += 2
						continue
					}
					j++ // closing quote
					break
				}
				b.WriteByte(line[j])
				j++
			}
			fields = append(fields, b.String())
			i = j
			if i < len(line) && strings.HasPrefix(line[i:], sep) {
				i += len(sep)
			} else {
				i = len(line) + 1
			}
			continue
		}

		idx := strings.Index(line[i:], sep)
		if idx < 0 {
			fields = append(fields, line[i:])
			break
		}
		fields = append(fields, line[i:i+idx])
		i += idx + len(sep)
	}
	return fields, nil
}
