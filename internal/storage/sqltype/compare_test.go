/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package sqltype

import (
	"math/big"
	"testing"
)

func TestCompareInteger(t *testing.T) {
	a := Value{Kind: KindInteger, Int64: 1}
	b := Value{Kind: KindInteger, Int64: 2}
	if got := Compare(a, b, true); got != -1 {
		t.Errorf("Compare(1, 2) = %d, want -1", got)
	}
	if got := Compare(b, a, true); got != 1 {
		t.Errorf("Compare(2, 1) = %d, want 1", got)
	}
	if got := Compare(a, a, true); got != 0 {
		t.Errorf("Compare(1, 1) = %d, want 0", got)
	}
}

func TestCompareVarchar(t *testing.T) {
	a := Value{Kind: KindVarchar, Str: "apple"}
	b := Value{Kind: KindVarchar, Str: "banana"}
	if got := Compare(a, b, true); got != -1 {
		t.Errorf("Compare(apple, banana) = %d, want -1", got)
	}
}

func TestCompareNullsLast(t *testing.T) {
	null := Null()
	val := Value{Kind: KindInteger, Int64: 5}

	if got := Compare(null, val, true); got != 1 {
		t.Errorf("nullsLast: Compare(NULL, 5) = %d, want 1", got)
	}
	if got := Compare(val, null, true); got != -1 {
		t.Errorf("nullsLast: Compare(5, NULL) = %d, want -1", got)
	}
	if got := Compare(null, null, true); got != 0 {
		t.Errorf("Compare(NULL, NULL) = %d, want 0", got)
	}
}

func TestCompareNullsFirst(t *testing.T) {
	null := Null()
	val := Value{Kind: KindInteger, Int64: 5}

	if got := Compare(null, val, false); got != -1 {
		t.Errorf("nullsFirst: Compare(NULL, 5) = %d, want -1", got)
	}
	if got := Compare(val, null, false); got != 1 {
		t.Errorf("nullsFirst: Compare(5, NULL) = %d, want 1", got)
	}
}

func TestCompareDecimal(t *testing.T) {
	a := Value{Kind: KindDecimal, Dec: mustDecimal(t, "1.50")}
	b := Value{Kind: KindDecimal, Dec: mustDecimal(t, "1.5000")}
	if got := Compare(a, b, true); got != 0 {
		t.Errorf("Compare(1.50, 1.5000) = %d, want 0 (equal at differing scale)", got)
	}

	c := Value{Kind: KindDecimal, Dec: mustDecimal(t, "1.51")}
	if got := Compare(a, c, true); got != -1 {
		t.Errorf("Compare(1.50, 1.51) = %d, want -1", got)
	}
}

func mustDecimal(t *testing.T, s string) Decimal {
	t.Helper()
	// Minimal fixed-point parse: digits with at most one '.'.
	dot := -1
	var digits []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			dot = len(digits)
			continue
		}
		digits = append(digits, s[i])
	}
	scale := int32(0)
	if dot >= 0 {
		scale = int32(len(digits) - dot)
	}
	unscaled := int64(0)
	for _, d := range digits {
		unscaled = unscaled*10 + int64(d-'0')
	}
	return Decimal{Unscaled: big.NewInt(unscaled), Scale: scale}
}

func TestCompareBits(t *testing.T) {
	a := Value{Kind: KindBit, Bits: BitString{Bytes: []byte{0b10100000}, NumBits: 4}}
	b := Value{Kind: KindBit, Bits: BitString{Bytes: []byte{0b10110000}, NumBits: 4}}
	if got := Compare(a, b, true); got != -1 {
		t.Errorf("Compare(1010, 1011) = %d, want -1", got)
	}
}

func TestCompareArray(t *testing.T) {
	a := Value{Kind: KindArray, Array: []Value{
		{Kind: KindInteger, Int64: 1}, {Kind: KindInteger, Int64: 2},
	}}
	b := Value{Kind: KindArray, Array: []Value{
		{Kind: KindInteger, Int64: 1}, {Kind: KindInteger, Int64: 3},
	}}
	if got := Compare(a, b, true); got != -1 {
		t.Errorf("Compare([1,2], [1,3]) = %d, want -1", got)
	}
}
