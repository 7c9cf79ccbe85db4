/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package rowcodec

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"hsqlcore/internal/storage/sqltype"
)

// Terminator is the magic trailer written after every binary row
// image so a decode that mis-measured the image length fails fast
// instead of silently reading into the next row.
const Terminator uint32 = 0xA5A5A5A5

// Scale multiplies stored positions to reach file offsets. Row starts
// and sizes are always rounded to a multiple of it.
type Scale uint32

// ValidScales enumerates the data-file scale factors a header may
// declare.
var ValidScales = []Scale{1, 2, 4, 8, 16, 32, 64}

// Align rounds n up to the next multiple of the scale.
func (s Scale) Align(n int64) int64 {
	m := int64(s)
	if m <= 1 {
		return n
	}
	if r := n % m; r != 0 {
		n += m - r
	}
	return n
}

// BinaryCodec encodes/decodes the cached-data-file row format:
//
//	{u32 size, per-index nodes, typed-fields, u32 terminator}
//
// size is the total byte length of the image (including itself and
// the terminator), rounded up to the configured scale; any padding
// introduced by rounding is written as zero bytes immediately before
// the terminator.
type BinaryCodec struct {
	Scale Scale
}

// NewBinaryCodec returns a codec for the given data-file scale.
func NewBinaryCodec(scale Scale) *BinaryCodec {
	return &BinaryCodec{Scale: scale}
}

// EncodeRow serializes row (with numIndexes AVL nodes) to its on-disk
// image. row.StorageSize is updated to the encoded length.
func (c *BinaryCodec) EncodeRow(row *Row, numIndexes int) ([]byte, error) {
	for len(row.Nodes) < numIndexes {
		row.Nodes = append(row.Nodes, AVLNode{Parent: NoPosition, Left: NoPosition, Right: NoPosition})
	}

	var fieldBuf []byte
	for _, v := range row.Values {
		b, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		fieldBuf = append(fieldBuf, b...)
	}

	nodeBytes := numIndexes * nodeWireSize
	rawLen := int64(4 + nodeBytes + len(fieldBuf) + 4)
	total := c.Scale.Align(rawLen)
	pad := int(total - rawLen)

	buf := make([]byte, total)
	binary.BigEndian.PutUint32(buf[0:4], uint32(total))
	off := 4
	for i := 0; i < numIndexes; i++ {
		n := row.Nodes[i]
		binary.BigEndian.PutUint64(buf[off:], uint64(n.Parent))
		binary.BigEndian.PutUint64(buf[off+8:], uint64(n.Left))
		binary.BigEndian.PutUint64(buf[off+16:], uint64(n.Right))
		buf[off+24] = byte(n.Balance)
		off += nodeWireSize
	}
	copy(buf[off:], fieldBuf)
	off += len(fieldBuf)
	off += pad // padding bytes are already zero
	binary.BigEndian.PutUint32(buf[off:], Terminator)

	row.StorageSize = int32(total)
	row.HasDataChanged = false
	row.HasNodesChanged = false
	return buf, nil
}

const nodeWireSize = 8 + 8 + 8 + 1 // parent, left, right, balance

// DecodeRow reconstructs a Row from its on-disk image. numIndexes is
// the number of AVL nodes in the image and numColumns the number of
// values to read; every value, NULL or not, carries its own tag byte.
func (c *BinaryCodec) DecodeRow(buf []byte, numIndexes, numColumns int) (*Row, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("rowcodec: corrupt row: image too short (%d bytes)", len(buf))
	}
	size := binary.BigEndian.Uint32(buf[0:4])
	if int(size) > len(buf) {
		return nil, fmt.Errorf("rowcodec: corrupt row: declared size %d exceeds buffer %d", size, len(buf))
	}
	if binary.BigEndian.Uint32(buf[size-4:size]) != Terminator {
		return nil, fmt.Errorf("rowcodec: corrupt row: missing terminator")
	}

	off := 4
	nodes := make([]AVLNode, numIndexes)
	for i := 0; i < numIndexes; i++ {
		if off+nodeWireSize > len(buf) {
			return nil, fmt.Errorf("rowcodec: corrupt row: truncated node %d", i)
		}
		nodes[i] = AVLNode{
			Parent:  int64(binary.BigEndian.Uint64(buf[off:])),
			Left:    int64(binary.BigEndian.Uint64(buf[off+8:])),
			Right:   int64(binary.BigEndian.Uint64(buf[off+16:])),
			Balance: int8(buf[off+24]),
		}
		off += nodeWireSize
	}

	values := make([]sqltype.Value, 0, numColumns)
	fieldsEnd := int(size) - 4
	for len(values) < numColumns && off < fieldsEnd {
		v, n, err := decodeValue(buf[off:fieldsEnd])
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		off += n
	}

	return &Row{
		Position:    NoPosition,
		StorageSize: int32(size),
		Values:      values,
		Nodes:       nodes,
	}, nil
}

// ---- value tags -----------------------------------------------------

const (
	tagNull byte = iota
	tagBoolean
	tagInt64
	tagFloat64
	tagDecimal
	tagString
	tagBytes
	tagUUID
	tagBits
	tagTime
	tagIntervalYM
	tagIntervalDS
	tagArray
)

func kindKindByte(k sqltype.Kind) byte {
	switch k {
	case sqltype.KindBoolean:
		return tagBoolean
	case sqltype.KindTinyInt, sqltype.KindSmallInt, sqltype.KindInteger, sqltype.KindBigInt:
		return tagInt64
	case sqltype.KindReal, sqltype.KindDouble:
		return tagFloat64
	case sqltype.KindDecimal:
		return tagDecimal
	case sqltype.KindChar, sqltype.KindVarchar, sqltype.KindClobHandle:
		return tagString
	case sqltype.KindBinary, sqltype.KindVarbinary, sqltype.KindBlobHandle, sqltype.KindOther:
		return tagBytes
	case sqltype.KindUUID:
		return tagUUID
	case sqltype.KindBit, sqltype.KindBitVarying:
		return tagBits
	case sqltype.KindDate, sqltype.KindTime, sqltype.KindTimestamp:
		return tagTime
	case sqltype.KindIntervalYM:
		return tagIntervalYM
	case sqltype.KindIntervalDS:
		return tagIntervalDS
	case sqltype.KindArray:
		return tagArray
	default:
		return tagNull
	}
}

func encodeValue(v sqltype.Value) ([]byte, error) {
	if v.IsNull() {
		return []byte{tagNull}, nil
	}
	tag := kindKindByte(v.Kind)
	switch tag {
	case tagBoolean:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return []byte{tag, byte(v.Kind), b}, nil
	case tagInt64:
		buf := make([]byte, 10)
		buf[0], buf[1] = tag, byte(v.Kind)
		binary.BigEndian.PutUint64(buf[2:], uint64(v.Int64))
		return buf, nil
	case tagFloat64:
		buf := make([]byte, 10)
		buf[0], buf[1] = tag, byte(v.Kind)
		binary.BigEndian.PutUint64(buf[2:], float64bits(v.Float64))
		return buf, nil
	case tagDecimal:
		unscaled := v.Dec.Unscaled
		if unscaled == nil {
			unscaled = big.NewInt(0)
		}
		raw := unscaled.Bytes()
		neg := unscaled.Sign() < 0
		buf := make([]byte, 0, 10+len(raw))
		buf = append(buf, tag, byte(v.Kind))
		var scaleBuf [4]byte
		binary.BigEndian.PutUint32(scaleBuf[:], uint32(v.Dec.Scale))
		buf = append(buf, scaleBuf[:]...)
		negByte := byte(0)
		if neg {
			negByte = 1
		}
		buf = append(buf, negByte)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(raw)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, raw...)
		return buf, nil
	case tagString:
		s := []byte(v.Str)
		buf := make([]byte, 0, 6+len(s))
		buf = append(buf, tag, byte(v.Kind))
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, s...)
		return buf, nil
	case tagBytes:
		buf := make([]byte, 0, 6+len(v.Bytes))
		buf = append(buf, tag, byte(v.Kind))
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v.Bytes)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, v.Bytes...)
		return buf, nil
	case tagUUID:
		buf := make([]byte, 18)
		buf[0], buf[1] = tag, byte(v.Kind)
		copy(buf[2:], v.UUID[:])
		return buf, nil
	case tagBits:
		buf := make([]byte, 0, 8+len(v.Bits.Bytes))
		buf = append(buf, tag, byte(v.Kind))
		var nb [4]byte
		binary.BigEndian.PutUint32(nb[:], uint32(v.Bits.NumBits))
		buf = append(buf, nb[:]...)
		var lb [4]byte
		binary.BigEndian.PutUint32(lb[:], uint32(len(v.Bits.Bytes)))
		buf = append(buf, lb[:]...)
		buf = append(buf, v.Bits.Bytes...)
		return buf, nil
	case tagTime:
		buf := make([]byte, 10)
		buf[0], buf[1] = tag, byte(v.Kind)
		binary.BigEndian.PutUint64(buf[2:], uint64(v.Time.UnixNano()))
		return buf, nil
	case tagIntervalYM:
		buf := make([]byte, 10)
		buf[0], buf[1] = tag, byte(v.Kind)
		binary.BigEndian.PutUint64(buf[2:], uint64(v.IntervalYM.Months))
		return buf, nil
	case tagIntervalDS:
		buf := make([]byte, 10)
		buf[0], buf[1] = tag, byte(v.Kind)
		binary.BigEndian.PutUint64(buf[2:], uint64(v.IntervalDS.Nanos))
		return buf, nil
	case tagArray:
		buf := []byte{tag, byte(v.Kind)}
		var lb [4]byte
		binary.BigEndian.PutUint32(lb[:], uint32(len(v.Array)))
		buf = append(buf, lb[:]...)
		for _, elem := range v.Array {
			eb, err := encodeValue(elem)
			if err != nil {
				return nil, err
			}
			buf = append(buf, eb...)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("rowcodec: unsupported kind %v", v.Kind)
	}
}

func decodeValue(buf []byte) (sqltype.Value, int, error) {
	if len(buf) < 1 {
		return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated value tag")
	}
	tag := buf[0]
	if tag == tagNull {
		return sqltype.Null(), 1, nil
	}
	if len(buf) < 2 {
		return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated value kind")
	}
	kind := sqltype.Kind(buf[1])

	switch tag {
	case tagBoolean:
		if len(buf) < 3 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated BOOLEAN")
		}
		return sqltype.Value{Kind: kind, Bool: buf[2] != 0}, 3, nil
	case tagInt64:
		if len(buf) < 10 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated integer")
		}
		return sqltype.Value{Kind: kind, Int64: int64(binary.BigEndian.Uint64(buf[2:10]))}, 10, nil
	case tagFloat64:
		if len(buf) < 10 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated float")
		}
		return sqltype.Value{Kind: kind, Float64: float64frombits(binary.BigEndian.Uint64(buf[2:10]))}, 10, nil
	case tagDecimal:
		if len(buf) < 11 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated decimal")
		}
		scale := int32(binary.BigEndian.Uint32(buf[2:6]))
		neg := buf[6] != 0
		n := int(binary.BigEndian.Uint32(buf[7:11]))
		if len(buf) < 11+n {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated decimal magnitude")
		}
		mag := new(big.Int).SetBytes(buf[11 : 11+n])
		if neg {
			mag.Neg(mag)
		}
		return sqltype.Value{Kind: kind, Dec: sqltype.Decimal{Unscaled: mag, Scale: scale}}, 11 + n, nil
	case tagString:
		if len(buf) < 6 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated string length")
		}
		n := int(binary.BigEndian.Uint32(buf[2:6]))
		if len(buf) < 6+n {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated string")
		}
		return sqltype.Value{Kind: kind, Str: string(buf[6 : 6+n])}, 6 + n, nil
	case tagBytes:
		if len(buf) < 6 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated bytes length")
		}
		n := int(binary.BigEndian.Uint32(buf[2:6]))
		if len(buf) < 6+n {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated bytes")
		}
		out := make([]byte, n)
		copy(out, buf[6:6+n])
		return sqltype.Value{Kind: kind, Bytes: out}, 6 + n, nil
	case tagUUID:
		if len(buf) < 18 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated uuid")
		}
		id, err := uuid.FromBytes(buf[2:18])
		if err != nil {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: %w", err)
		}
		return sqltype.Value{Kind: kind, UUID: id}, 18, nil
	case tagBits:
		if len(buf) < 10 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated bitstring header")
		}
		numBits := int(binary.BigEndian.Uint32(buf[2:6]))
		n := int(binary.BigEndian.Uint32(buf[6:10]))
		if len(buf) < 10+n {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated bitstring")
		}
		out := make([]byte, n)
		copy(out, buf[10:10+n])
		return sqltype.Value{Kind: kind, Bits: sqltype.BitString{Bytes: out, NumBits: numBits}}, 10 + n, nil
	case tagTime:
		if len(buf) < 10 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated time")
		}
		nanos := int64(binary.BigEndian.Uint64(buf[2:10]))
		return sqltype.Value{Kind: kind, Time: timeFromUnixNano(nanos)}, 10, nil
	case tagIntervalYM:
		if len(buf) < 10 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated interval")
		}
		return sqltype.Value{Kind: kind, IntervalYM: sqltype.IntervalYM{Months: int64(binary.BigEndian.Uint64(buf[2:10]))}}, 10, nil
	case tagIntervalDS:
		if len(buf) < 10 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated interval")
		}
		return sqltype.Value{Kind: kind, IntervalDS: sqltype.IntervalDS{Nanos: int64(binary.BigEndian.Uint64(buf[2:10]))}}, 10, nil
	case tagArray:
		if len(buf) < 6 {
			return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: truncated array length")
		}
		count := int(binary.BigEndian.Uint32(buf[2:6]))
		off := 6
		elems := make([]sqltype.Value, 0, count)
		for i := 0; i < count; i++ {
			v, n, err := decodeValue(buf[off:])
			if err != nil {
				return sqltype.Value{}, 0, err
			}
			elems = append(elems, v)
			off += n
		}
		return sqltype.Value{Kind: kind, Array: elems}, off, nil
	default:
		return sqltype.Value{}, 0, fmt.Errorf("rowcodec: corrupt row: unknown type tag %d", tag)
	}
}
