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
Package compression provides configurable compression for hsqlcore.

Compression Overview:
=====================

This module implements configurable compression for:
- The text log (DML redo) stream, to reduce disk I/O
- Online backup streams, to reduce transfer size
- Batch operations for better compression ratios

Supported Algorithms:
=====================

1. LZ4: Fast compression/decompression, moderate ratio
2. Snappy: Very fast, lower ratio, good for real-time
3. Zstd: Best ratio, configurable speed/ratio tradeoff
4. XZ: Best ratio of all, slowest, for cold archival data
5. Gzip: stdlib fallback, decent ratio

Batch Compression:
==================

Batching multiple entries before compression improves ratios:
1. Collect entries into a batch
2. Compress the entire batch
3. Store/transmit compressed batch
4. Decompress and split on read
*/
package compression

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Algorithm represents a compression algorithm
type Algorithm int

const (
	AlgorithmNone Algorithm = iota
	AlgorithmGzip
	AlgorithmLZ4
	AlgorithmSnappy
	AlgorithmZstd
	AlgorithmXZ
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "none"
	case AlgorithmGzip:
		return "gzip"
	case AlgorithmLZ4:
		return "lz4"
	case AlgorithmSnappy:
		return "snappy"
	case AlgorithmZstd:
		return "zstd"
	case AlgorithmXZ:
		return "xz"
	default:
		return "unknown"
	}
}

// ParseAlgorithm parses a compression algorithm from string
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "none", "":
		return AlgorithmNone, nil
	case "gzip":
		return AlgorithmGzip, nil
	case "lz4":
		return AlgorithmLZ4, nil
	case "snappy":
		return AlgorithmSnappy, nil
	case "zstd":
		return AlgorithmZstd, nil
	case "xz":
		return AlgorithmXZ, nil
	default:
		return AlgorithmNone, fmt.Errorf("unknown compression algorithm: %s", s)
	}
}

// Level represents compression level
type Level int

const (
	LevelFastest Level = 1
	LevelDefault Level = 5
	LevelBest    Level = 9
)

// Config holds compression configuration
type Config struct {
	Algorithm        Algorithm `json:"algorithm"`
	Level            Level     `json:"level"`
	MinSize          int       `json:"min_size"`          // Minimum size to compress
	BatchSize        int       `json:"batch_size"`        // Number of entries per batch
	BatchTimeout     int       `json:"batch_timeout_ms"`  // Max wait time for batch (ms)
	DictionaryEnable bool      `json:"dictionary_enable"` // Use dictionary compression
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Algorithm:        AlgorithmGzip,
		Level:            LevelDefault,
		MinSize:          256,
		BatchSize:        100,
		BatchTimeout:     10,
		DictionaryEnable: false,
	}
}

// Errors
var (
	ErrDataTooSmall     = errors.New("data too small to compress")
	ErrInvalidHeader    = errors.New("invalid compression header")
	ErrUnsupportedAlgo  = errors.New("unsupported compression algorithm")
	ErrDecompressFailed = errors.New("decompression failed")
)

// Compressor provides compression/decompression operations
type Compressor struct {
	config     Config
	gzipPool   sync.Pool
	bufferPool sync.Pool
}

// NewCompressor creates a new compressor
func NewCompressor(config Config) *Compressor {
	return &Compressor{
		config: config,
		gzipPool: sync.Pool{
			New: func() interface{} {
				return gzip.NewWriter(nil)
			},
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

// Compress compresses data with the compressor's configured algorithm.
// Data shorter than config.MinSize is returned framed as AlgorithmNone,
// since compressing it would not pay for its own framing overhead.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) < c.config.MinSize {
		return c.frame(AlgorithmNone, data), nil
	}

	var payload []byte
	var err error
	switch c.config.Algorithm {
	case AlgorithmNone:
		payload = data
	case AlgorithmGzip:
		payload, err = c.compressGzip(data)
	case AlgorithmLZ4:
		payload, err = compressLZ4(data)
	case AlgorithmSnappy:
		payload = snappy.Encode(nil, data)
	case AlgorithmZstd:
		payload, err = compressZstd(data, c.config.Level)
	case AlgorithmXZ:
		payload, err = compressXZ(data)
	default:
		return nil, ErrUnsupportedAlgo
	}
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return c.frame(c.config.Algorithm, payload), nil
}

// Decompress reverses Compress. algo is the caller's expectation of
// which algorithm was used; the frame's own header is authoritative
// and is what actually drives decoding, so a frame written as
// AlgorithmNone (data under MinSize) still decodes correctly even if
// the caller passes the configured algorithm.
func (c *Compressor) Decompress(data []byte, algo Algorithm) ([]byte, error) {
	framedAlgo, payload, err := c.unframe(data)
	if err != nil {
		return nil, err
	}
	_ = algo
	switch framedAlgo {
	case AlgorithmNone:
		return payload, nil
	case AlgorithmGzip:
		return c.decompressGzip(payload)
	case AlgorithmLZ4:
		return decompressLZ4(payload)
	case AlgorithmSnappy:
		out, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
		}
		return out, nil
	case AlgorithmZstd:
		return decompressZstd(payload)
	case AlgorithmXZ:
		return decompressXZ(payload)
	default:
		return nil, ErrUnsupportedAlgo
	}
}

// frame prepends a {u8 algo, u32 payloadLen} header identifying how the
// payload that follows was produced.
func (c *Compressor) frame(algo Algorithm, payload []byte) []byte {
	buf := make([]byte, 5+len(payload))
	buf[0] = byte(algo)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(payload)))
	copy(buf[5:], payload)
	return buf
}

func (c *Compressor) unframe(data []byte) (Algorithm, []byte, error) {
	if len(data) < 5 {
		return 0, nil, ErrInvalidHeader
	}
	algo := Algorithm(data[0])
	return algo, data[5:], nil
}

func (c *Compressor) compressGzip(data []byte) ([]byte, error) {
	buf := c.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer c.bufferPool.Put(buf)

	gw := c.gzipPool.Get().(*gzip.Writer)
	gw.Reset(buf)
	defer c.gzipPool.Put(gw)

	if _, err := gw.Write(data); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (c *Compressor) decompressGzip(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
	}
	defer gr.Close()
	out, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
	}
	return out, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressLZ4(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
	}
	return out, nil
}

func compressZstd(data []byte, level Level) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstdLevel(level)))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zstdLevel(l Level) zstd.EncoderLevel {
	switch {
	case l <= LevelFastest:
		return zstd.SpeedFastest
	case l >= LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func decompressZstd(data []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
	}
	return out, nil
}

func compressXZ(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressXZ(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressFailed, err)
	}
	return out, nil
}

// BatchCompressor accumulates entries and compresses them as a single
// unit, improving the compression ratio over compressing each entry
// independently.
type BatchCompressor struct {
	config  Config
	entries [][]byte
}

// NewBatchCompressor creates a batch compressor using config.
func NewBatchCompressor(config Config) *BatchCompressor {
	return &BatchCompressor{config: config}
}

// Add appends an entry to the pending batch.
func (b *BatchCompressor) Add(entry []byte) {
	cp := make([]byte, len(entry))
	copy(cp, entry)
	b.entries = append(b.entries, cp)
}

// Len reports the number of entries pending in the batch.
func (b *BatchCompressor) Len() int { return len(b.entries) }

// Flush compresses all pending entries as one unit and clears the
// batch. The pre-compression wire format is {u32 count, (u32 len,
// bytes)*}.
func (b *BatchCompressor) Flush() ([]byte, error) {
	var buf bytes.Buffer
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(b.entries)))
	buf.Write(countBuf[:])
	for _, e := range b.entries {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(e)))
		buf.Write(lenBuf[:])
		buf.Write(e)
	}
	b.entries = nil

	compressor := NewCompressor(Config{Algorithm: b.config.Algorithm, Level: b.config.Level, MinSize: 0})
	return compressor.Compress(buf.Bytes())
}

// DecompressBatch reverses Flush.
func (b *BatchCompressor) DecompressBatch(data []byte, algo Algorithm) ([][]byte, error) {
	compressor := NewCompressor(Config{Algorithm: algo, MinSize: 0})
	raw, err := compressor.Decompress(data, algo)
	if err != nil {
		return nil, err
	}
	if len(raw) < 4 {
		return nil, ErrInvalidHeader
	}
	count := binary.BigEndian.Uint32(raw[0:4])
	off := 4
	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+4 > len(raw) {
			return nil, ErrInvalidHeader
		}
		n := int(binary.BigEndian.Uint32(raw[off : off+4]))
		off += 4
		if off+n > len(raw) {
			return nil, ErrInvalidHeader
		}
		entry := make([]byte, n)
		copy(entry, raw[off:off+n])
		out = append(out, entry)
		off += n
	}
	return out, nil
}
