/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rowcodec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hsqlcore/internal/storage/sqltype"
)

// TextLogWriter renders DML redo entries as
// human-readable INSERT/DELETE statements, one per line. It only
// renders the lines; writing them to a file is left to the caller.
// Unlike the binary row codec, this format is meant
// to be read by a human or replayed by a statement interpreter, not
// decoded back into a Row.
type TextLogWriter struct {
	tableName string
	columns   []string
}

// NewTextLogWriter creates a writer that renders rows of tableName,
// whose columns are named in order by columns.
func NewTextLogWriter(tableName string, columns []string) *TextLogWriter {
	return &TextLogWriter{tableName: tableName, columns: columns}
}

// Insert renders a logical INSERT statement carrying values.
func (w *TextLogWriter) Insert(values []sqltype.Value) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s VALUES(", w.tableName)
	for i, v := range values {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(literalOf(v))
	}
	b.WriteString(")\n")
	return b.String()
}

// Delete renders a logical DELETE statement removing the row matching
// every column in values by value (HSQLDB's conservative DELETE FROM
// ... WHERE col1=v1 AND col2=v2 ... redo form, robust to the absence
// of a known primary key at redo time).
func (w *TextLogWriter) Delete(values []sqltype.Value) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s WHERE ", w.tableName)
	for i, v := range values {
		if i > 0 {
			b.WriteString(" AND ")
		}
		name := fmt.Sprintf("C%d", i)
		if i < len(w.columns) {
			name = w.columns[i]
		}
		if v.IsNull() {
			fmt.Fprintf(&b, "%s IS NULL", name)
		} else {
			fmt.Fprintf(&b, "%s=%s", name, literalOf(v))
		}
	}
	b.WriteString("\n")
	return b.String()
}

// Commit renders a COMMIT marker line, closing a redo group.
func (w *TextLogWriter) Commit() string {
	return "COMMIT\n"
}

// literalOf renders a single value as a SQL literal suitable for use
// inside a redo statement.
func literalOf(v sqltype.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	switch v.Kind {
	case sqltype.KindBoolean:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case sqltype.KindTinyInt, sqltype.KindSmallInt, sqltype.KindInteger, sqltype.KindBigInt:
		return strconv.FormatInt(v.Int64, 10)
	case sqltype.KindReal, sqltype.KindDouble:
		return strconv.FormatFloat(v.Float64, 'g', -1, 64)
	case sqltype.KindDecimal:
		return v.Dec.String()
	case sqltype.KindChar, sqltype.KindVarchar, sqltype.KindClobHandle:
		return quoteSQLString(v.Str)
	case sqltype.KindBinary, sqltype.KindVarbinary, sqltype.KindBlobHandle:
		return "X'" + fmt.Sprintf("%X", v.Bytes) + "'"
	case sqltype.KindDate:
		return "DATE'" + v.Time.Format("2006-01-02") + "'"
	case sqltype.KindTime:
		return "TIME'" + v.Time.Format("15:04:05") + "'"
	case sqltype.KindTimestamp:
		return "TIMESTAMP'" + v.Time.Format("2006-01-02 15:04:05.999999999") + "'"
	case sqltype.KindIntervalYM:
		return fmt.Sprintf("INTERVAL '%d' MONTH", v.IntervalYM.Months)
	case sqltype.KindIntervalDS:
		return fmt.Sprintf("INTERVAL '%d' SECOND", v.IntervalDS.Nanos/1e9)
	case sqltype.KindUUID:
		return quoteSQLString(v.UUID.String())
	case sqltype.KindBit, sqltype.KindBitVarying:
		return "B'" + bitStringLiteral(v.Bits) + "'"
	default:
		return quoteSQLString(fmt.Sprintf("%v", v))
	}
}

// bitStringLiteral renders a BitString as a string of '0'/'1' characters.
func bitStringLiteral(b sqltype.BitString) string {
	var sb strings.Builder
	for i := 0; i < b.NumBits; i++ {
		if b.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// quoteSQLString single-quotes s, doubling embedded single quotes per
// standard SQL literal escaping.
func quoteSQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ParseTimestampLiteral parses the TIMESTAMP literal form produced by
// literalOf, for tooling that re-reads a text log.
func ParseTimestampLiteral(s string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05.999999999", s)
}
