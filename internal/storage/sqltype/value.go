/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package sqltype defines the tagged-union scalar value type used by the
row codec and the AVL index comparator.

Column Types:
=============

  - BOOLEAN, TINYINT, SMALLINT, INTEGER, BIGINT
  - REAL, DOUBLE
  - NUMERIC/DECIMAL (exact scale preserved via big.Int unscaled value/scale pair)
  - CHAR, VARCHAR, CLOB (handle)
  - BINARY, VARBINARY, UUID
  - BIT, BIT VARYING
  - DATE, TIME, TIMESTAMP
  - INTERVAL YEAR TO MONTH, INTERVAL DAY TO SECOND
  - ARRAY
  - BLOB (handle)
  - OTHER (opaque bytes)

A Value is a closed tagged union rather than an interface{}: the Kind
field selects which of the typed fields is meaningful, so a row's
columns can be stored as a dense []Value without per-element boxing
beyond what the variable-length fields (string/[]byte) already need.
*/
package sqltype

import (
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which scalar type a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindTinyInt
	KindSmallInt
	KindInteger
	KindBigInt
	KindReal
	KindDouble
	KindDecimal
	KindChar
	KindVarchar
	KindClobHandle
	KindBinary
	KindVarbinary
	KindUUID
	KindBit
	KindBitVarying
	KindDate
	KindTime
	KindTimestamp
	KindIntervalYM
	KindIntervalDS
	KindArray
	KindBlobHandle
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindBoolean:
		return "BOOLEAN"
	case KindTinyInt:
		return "TINYINT"
	case KindSmallInt:
		return "SMALLINT"
	case KindInteger:
		return "INTEGER"
	case KindBigInt:
		return "BIGINT"
	case KindReal:
		return "REAL"
	case KindDouble:
		return "DOUBLE"
	case KindDecimal:
		return "DECIMAL"
	case KindChar:
		return "CHAR"
	case KindVarchar:
		return "VARCHAR"
	case KindClobHandle:
		return "CLOB"
	case KindBinary:
		return "BINARY"
	case KindVarbinary:
		return "VARBINARY"
	case KindUUID:
		return "UUID"
	case KindBit:
		return "BIT"
	case KindBitVarying:
		return "BIT VARYING"
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindTimestamp:
		return "TIMESTAMP"
	case KindIntervalYM:
		return "INTERVAL YEAR TO MONTH"
	case KindIntervalDS:
		return "INTERVAL DAY TO SECOND"
	case KindArray:
		return "ARRAY"
	case KindBlobHandle:
		return "BLOB"
	case KindOther:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Decimal preserves an exact scale through serialization: Unscaled is
// the integer value with Scale implied decimal places, so 1.2345 at
// scale 4 is stored as Unscaled=12345, Scale=4.
type Decimal struct {
	Unscaled *big.Int
	Scale    int32
}

// String renders the decimal in its canonical fixed-point form.
func (d Decimal) String() string {
	if d.Unscaled == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(d.Unscaled, pow10(d.Scale))
	return r.FloatString(int(d.Scale))
}

func pow10(scale int32) *big.Int {
	if scale <= 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
}

// Cmp compares two decimals of potentially differing scale.
func (d Decimal) Cmp(o Decimal) int {
	a := new(big.Rat).SetFrac(d.Unscaled, pow10(d.Scale))
	b := new(big.Rat).SetFrac(o.Unscaled, pow10(o.Scale))
	return a.Cmp(b)
}

// IntervalYM is a YEAR TO MONTH interval, stored as total months so
// comparison is a plain integer compare.
type IntervalYM struct {
	Months int64
}

// IntervalDS is a DAY TO SECOND interval, stored as total nanoseconds.
type IntervalDS struct {
	Nanos int64
}

// Value is a tagged-union SQL scalar.
type Value struct {
	Kind Kind

	Bool    bool
	Int64   int64 // TINYINT/SMALLINT/INTEGER/BIGINT
	Float64 float64
	Dec     Decimal
	Str     string    // CHAR/VARCHAR, CLOB handle id
	Bytes   []byte    // BINARY/VARBINARY, BLOB handle id
	UUID    uuid.UUID
	Bits    BitString
	Time    time.Time
	IntervalYM IntervalYM
	IntervalDS IntervalDS
	Array   []Value
}

// BitString is a MSB-first packed bit string; the first bit of the
// logical value is the high bit of Bytes[0]. NumBits may be less than
// len(Bytes)*8 when the last byte is partially used.
type BitString struct {
	Bytes   []byte
	NumBits int
}

// Bit returns the i-th bit (0 = most significant of the whole string).
func (b BitString) Bit(i int) bool {
	byteIdx := i / 8
	bitIdx := 7 - (i % 8)
	return b.Bytes[byteIdx]&(1<<uint(bitIdx)) != 0
}

// Null returns the NULL value.
func Null() Value { return Value{Kind: KindNull} }

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// NewUUID parses s into a UUID-kind Value, validating RFC 4122 form.
func NewUUID(s string) (Value, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return Value{}, fmt.Errorf("invalid UUID value %q: %w", s, err)
	}
	return Value{Kind: KindUUID, UUID: id}, nil
}

// NewRandomUUID produces a fresh random (v4) UUID value.
func NewRandomUUID() Value {
	return Value{Kind: KindUUID, UUID: uuid.New()}
}
