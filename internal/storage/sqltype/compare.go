/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package sqltype

import "bytes"

// Compare returns -1, 0, or 1 comparing a to b under the natural
// ordering of their Kind. NULL sorts according to nullsLast, which
// callers pass through from the index definition.
//
// a and b must share the same Kind, except that either may be NULL.
func Compare(a, b Value, nullsLast bool) int {
	if a.IsNull() || b.IsNull() {
		return compareNulls(a.IsNull(), b.IsNull(), nullsLast)
	}

	switch a.Kind {
	case KindBoolean:
		return compareBool(a.Bool, b.Bool)
	case KindTinyInt, KindSmallInt, KindInteger, KindBigInt:
		return compareInt64(a.Int64, b.Int64)
	case KindReal, KindDouble:
		return compareFloat64(a.Float64, b.Float64)
	case KindDecimal:
		return a.Dec.Cmp(b.Dec)
	case KindChar, KindVarchar, KindClobHandle:
		return compareString(a.Str, b.Str)
	case KindBinary, KindVarbinary, KindBlobHandle, KindOther:
		return bytes.Compare(a.Bytes, b.Bytes)
	case KindUUID:
		return bytes.Compare(a.UUID[:], b.UUID[:])
	case KindBit, KindBitVarying:
		return compareBits(a.Bits, b.Bits)
	case KindDate, KindTime, KindTimestamp:
		switch {
		case a.Time.Before(b.Time):
			return -1
		case a.Time.After(b.Time):
			return 1
		default:
			return 0
		}
	case KindIntervalYM:
		return compareInt64(a.IntervalYM.Months, b.IntervalYM.Months)
	case KindIntervalDS:
		return compareInt64(a.IntervalDS.Nanos, b.IntervalDS.Nanos)
	case KindArray:
		return compareArray(a.Array, b.Array)
	default:
		return 0
	}
}

func compareNulls(aNull, bNull, nullsLast bool) int {
	if aNull && bNull {
		return 0
	}
	// nullsLast: NULL sorts after every non-null value.
	if nullsLast {
		if aNull {
			return 1
		}
		return -1
	}
	if aNull {
		return -1
	}
	return 1
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBits(a, b BitString) int {
	n := a.NumBits
	if b.NumBits < n {
		n = b.NumBits
	}
	for i := 0; i < n; i++ {
		if a.Bit(i) != b.Bit(i) {
			if !a.Bit(i) {
				return -1
			}
			return 1
		}
	}
	return compareInt64(int64(a.NumBits), int64(b.NumBits))
}

func compareArray(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i], true); c != 0 {
			return c
		}
	}
	return compareInt64(int64(len(a)), int64(len(b)))
}
