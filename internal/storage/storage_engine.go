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
Package storage is the facade tying the random-access file backend,
row codec, data-file cache, free-space manager, AVL index, row store,
and defragmenter into one per-table lifecycle: CreateTable opens a
table's data file and returns the rowstore.Store the SQL executor (not
part of this module) drives directly for every row operation; Sync and
Close operate across every table still open.

When Config.EnableShadowLog is set, every table also gets a shadow
log (package shadow): the data-file cache intercepts each page's first
overwrite within the current backup window into it, and ReopenTable
replays it automatically if the table's data-file header shows the
table was not closed cleanly last time.

Engine does not persist table schemas across restarts: recording which
tables exist, their column types, and their index definitions is a
catalog concern that belongs to the SQL layer above this module, not to
the storage substrate itself — ReopenTable must be given the same
schema CreateTable originally used.
*/
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/logging"
	"hsqlcore/internal/storage/cache"
	"hsqlcore/internal/storage/collate"
	"hsqlcore/internal/storage/defrag"
	"hsqlcore/internal/storage/freespace"
	"hsqlcore/internal/storage/rfile"
	"hsqlcore/internal/storage/rowcodec"
	"hsqlcore/internal/storage/rowstore"
	"hsqlcore/internal/storage/shadow"
)

var log = logging.NewLogger("storage.engine")

// shadowWindowMaxSize bounds the page range a table's shadow log will
// ever consider. Unlike a one-shot online backup window, a table's
// shadow log stays open for the table's entire lifetime, so this is
// set far above any realistic data-file size rather than to the
// file's length at window-open time.
const shadowWindowMaxSize = int64(1) << 48

// Config controls how Engine opens and caches table data files.
type Config struct {
	// DataDir is the directory each table's <name>.data file lives in.
	// It is created if it doesn't already exist.
	DataDir string

	// Scale is the data-file scale factor every table's BinaryCodec
	// uses (row starts/sizes are multiples of it). Defaults to 8 if 0.
	Scale rowcodec.Scale

	// CacheMaxRows/CacheMaxBytes bound each table's data-file cache; 0
	// disables that bound.
	CacheMaxRows  int
	CacheMaxBytes int64

	// HybridRowThreshold, if > 0, makes CreateTable start a table as
	// an in-memory store that switches permanently to disk residency
	// once its row count reaches this value. 0 means every table goes
	// straight to Disk.
	HybridRowThreshold int

	// Locale resolves Unicode collation when a column's collation is
	// CollationUnicode.
	Locale string

	// EnableShadowLog turns on per-table before-image backup logging:
	// CreateTable and ReopenTable each open a <name>.shadow file
	// alongside the data file, wire it into the table's data-file
	// cache so page overwrites are intercepted into it, and
	// ReopenTable replays it automatically when the data-file header
	// indicates the table was not closed cleanly.
	EnableShadowLog bool

	// ShadowPageSize overrides the shadow log's before-image page
	// granularity. Defaults to shadow.DefaultPageSize if 0.
	ShadowPageSize int64
}

func (c Config) shadowPageSizeOrDefault() int64 {
	if c.ShadowPageSize == 0 {
		return shadow.DefaultPageSize
	}
	return c.ShadowPageSize
}

func (c Config) scaleOrDefault() rowcodec.Scale {
	if c.Scale == 0 {
		return 8
	}
	return c.Scale
}

// tableHandle is everything Engine keeps open for one table.
type tableHandle struct {
	name    string
	path    string
	backend rfile.Backend
	cache   *cache.Cache
	space   freespace.Manager
	store   rowstore.Store

	// shadowLog is nil unless Config.EnableShadowLog is set.
	shadowLog     *shadow.Log
	shadowBackend rfile.Backend
	shadowPath    string

	// Remembered so a table can be torn down and rebuilt against a
	// freshly compacted file after DefragmentTable, or reopened later
	// against a scale-compatible header.
	indexes       []rowcodec.IndexDef
	numColumns    int
	colCollations []collate.Collation
}

// Engine owns every open table's data file and data-file cache for one
// database directory.
type Engine struct {
	mu     sync.RWMutex
	config Config
	tables map[string]*tableHandle
}

// NewEngine creates (if necessary) config.DataDir and returns an
// engine with no tables open yet.
func NewEngine(config Config) (*Engine, error) {
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, hsqlerrors.IoFailure("create data directory", err)
	}
	return &Engine{config: config, tables: make(map[string]*tableHandle)}, nil
}

func (e *Engine) tablePath(name string) string {
	return filepath.Join(e.config.DataDir, name+".data")
}

func (e *Engine) shadowPath(name string) string {
	return filepath.Join(e.config.DataDir, name+".shadow")
}

// openFreshShadowLog opens (truncating if present) name's shadow file
// and starts a new backup window over it.
func (e *Engine) openFreshShadowLog(name string) (*shadow.Log, rfile.Backend, error) {
	path := e.shadowPath(name)
	backend, err := rfile.OpenBuffered(path, false)
	if err != nil {
		return nil, nil, hsqlerrors.IoFailure(fmt.Sprintf("open shadow log %q", name), err)
	}
	if _, err := backend.SetLength(0); err != nil {
		backend.Close()
		return nil, nil, err
	}
	l, err := shadow.NewLog(backend, e.config.shadowPageSizeOrDefault(), shadowWindowMaxSize)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return l, backend, nil
}

// CreateTable opens a brand-new data file for name and returns the row
// store the caller drives for every Add/Delete/Get on it. It is an
// error to create a table that is already open or whose data file
// already exists on disk.
func (e *Engine) CreateTable(name string, indexes []rowcodec.IndexDef, numColumns int, colCollations []collate.Collation) (rowstore.Store, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, open := e.tables[name]; open {
		return nil, hsqlerrors.StorageTableExists(name)
	}
	path := e.tablePath(name)
	if _, err := os.Stat(path); err == nil {
		return nil, hsqlerrors.StorageTableExists(name)
	}

	backend, err := rfile.OpenBuffered(path, false)
	if err != nil {
		return nil, hsqlerrors.IoFailure(fmt.Sprintf("open table %q", name), err)
	}
	if _, err := backend.EnsureLength(headerSize); err != nil {
		backend.Close()
		return nil, err
	}

	scale := e.config.scaleOrDefault()
	header := newFileHeader(scale)
	if err := writeFileHeader(backend, header); err != nil {
		backend.Close()
		return nil, err
	}

	var shadowLog *shadow.Log
	var shadowBackend rfile.Backend
	if e.config.EnableShadowLog {
		shadowLog, shadowBackend, err = e.openFreshShadowLog(name)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	codec := rowcodec.NewBinaryCodec(scale)
	space := freespace.NewSimple(headerSize, int64(scale))
	c := cache.New(backend, shadowLog, e.config.CacheMaxRows, e.config.CacheMaxBytes)

	var store rowstore.Store
	if e.config.HybridRowThreshold > 0 {
		factory := rowstore.NewDiskBackend(backend, c, space, codec, indexes, numColumns, colCollations, e.config.Locale)
		store = rowstore.NewHybridMemory(indexes, colCollations, e.config.Locale, e.config.HybridRowThreshold, factory)
	} else {
		store = rowstore.NewDisk(backend, c, space, codec, indexes, numColumns, colCollations, e.config.Locale)
	}

	e.tables[name] = &tableHandle{
		name: name, path: path, backend: backend, cache: c, space: space, store: store,
		shadowLog: shadowLog, shadowBackend: shadowBackend, shadowPath: e.shadowPath(name),
		indexes: indexes, numColumns: numColumns, colCollations: colCollations,
	}
	log.Info("table created", "name", name, "path", path, "shadowLog", shadowLog != nil)
	return store, nil
}

// OpenTable returns the row store for a table this Engine instance
// already has open (via a prior CreateTable or ReopenTable call in
// this process).
func (e *Engine) OpenTable(name string) (rowstore.Store, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.tables[name]
	if !ok {
		return nil, hsqlerrors.StorageTableNotOpen(name)
	}
	return h.store, nil
}

// ReopenTable opens a table whose data file already exists on disk
// (written by a prior CreateTable, possibly in an earlier process),
// reading back its 256-byte header to recover the free-space position
// and each index's accessor root. The caller must supply the same
// schema CreateTable originally used — it is not recorded in the file.
//
// If the header's modified flag is still set, the table was not
// closed cleanly last time (a crash, or a kill -9). When
// Config.EnableShadowLog is set and a shadow file survives from that
// session, it is replayed over the data file before the table is
// brought up, restoring it to the state of its last checkpoint; the
// shadow file is then discarded and a fresh window opened for the new
// session. Without a shadow log, a dirty header is only logged — the
// data file is used as found.
func (e *Engine) ReopenTable(name string, indexes []rowcodec.IndexDef, numColumns int, colCollations []collate.Collation) (rowstore.Store, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if h, open := e.tables[name]; open {
		return h.store, nil
	}
	path := e.tablePath(name)
	if _, err := os.Stat(path); err != nil {
		return nil, hsqlerrors.StorageTableNotOpen(name)
	}

	backend, err := rfile.OpenBuffered(path, false)
	if err != nil {
		return nil, hsqlerrors.IoFailure(fmt.Sprintf("reopen table %q", name), err)
	}
	header, err := readFileHeader(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	dirty := header.modified()
	shadowPath := e.shadowPath(name)
	var shadowLog *shadow.Log
	var shadowBackend rfile.Backend
	if e.config.EnableShadowLog {
		if dirty {
			if _, err := os.Stat(shadowPath); err == nil {
				if err := e.replayShadowLog(name, backend); err != nil {
					backend.Close()
					return nil, err
				}
				log.Info("replayed shadow log after unclean shutdown", "name", name)
			} else {
				log.Warn("table reopened with dirty header and no shadow log to replay", "name", name)
			}
		}
		shadowLog, shadowBackend, err = e.openFreshShadowLog(name)
		if err != nil {
			backend.Close()
			return nil, err
		}
	} else if dirty {
		log.Warn("table reopened with dirty header and shadow logging disabled", "name", name)
	}

	codec := rowcodec.NewBinaryCodec(header.Scale)
	space := freespace.NewSimple(headerSize, int64(header.Scale))
	space.SeedFreePosition(header.FileFreePosition)
	c := cache.New(backend, shadowLog, e.config.CacheMaxRows, e.config.CacheMaxBytes)

	disk := rowstore.NewDisk(backend, c, space, codec, indexes, numColumns, colCollations, e.config.Locale)
	for i, idx := range indexes {
		if i < maxHeaderIndexRoots {
			disk.SetAccessor(idx.ID, header.IndexRoots[i])
		}
	}

	h := &tableHandle{
		name: name, path: path, backend: backend, cache: c, space: space, store: disk,
		shadowLog: shadowLog, shadowBackend: shadowBackend, shadowPath: shadowPath,
		indexes: indexes, numColumns: numColumns, colCollations: colCollations,
	}
	if err := e.checkpointLocked(h, false); err != nil {
		backend.Close()
		return nil, err
	}
	e.tables[name] = h
	log.Info("table reopened", "name", name, "path", path, "wasDirty", dirty)
	return disk, nil
}

// replayShadowLog applies name's shadow file onto backend, then
// removes the shadow file — it has now served its purpose and a fresh
// window replaces it.
func (e *Engine) replayShadowLog(name string, backend rfile.Backend) error {
	path := e.shadowPath(name)
	source, err := rfile.OpenBuffered(path, true)
	if err != nil {
		return hsqlerrors.IoFailure(fmt.Sprintf("open shadow log %q for replay", name), err)
	}
	defer source.Close()

	if _, err := shadow.RestoreFile(source, backend); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return hsqlerrors.IoFailure(fmt.Sprintf("remove replayed shadow log %q", name), err)
	}
	return nil
}

// checkpointLocked writes h's current state (scale, free position,
// index roots if disk-resident) to its data-file header. clean marks
// the header as having been shut down properly — modified stays set
// otherwise, so the next ReopenTable knows to replay the shadow log.
func (e *Engine) checkpointLocked(h *tableHandle, clean bool) error {
	header := &fileHeader{Scale: e.config.scaleOrDefault(), FileFreePosition: headerSize}
	for i := range header.IndexRoots {
		header.IndexRoots[i] = rowcodec.NoPosition
	}
	if disk, ok := rowstore.AsDisk(h.store); ok {
		header.Scale = disk.Codec().Scale
		header.setRoots(disk.Roots())
		if s, ok := h.space.(*freespace.Simple); ok {
			header.FileFreePosition = s.FileFreePosition()
		}
	}
	header.setModified(!clean)
	return writeFileHeader(h.backend, header)
}

// closeShadowLocked closes h's shadow log and backend, if any. When
// clean, the shadow file is also removed: a cleanly checkpointed
// header needs no replay, so nothing is left for ReopenTable to find.
func closeShadowLocked(h *tableHandle, clean bool) error {
	if h.shadowLog == nil {
		return nil
	}
	if err := h.shadowLog.Close(); err != nil {
		return err
	}
	if clean {
		if err := os.Remove(h.shadowPath); err != nil && !os.IsNotExist(err) {
			return hsqlerrors.IoFailure(fmt.Sprintf("remove shadow log %q", h.name), err)
		}
	}
	return nil
}

// DropTable closes name's data file (and shadow log, if any) and
// deletes them from disk.
func (e *Engine) DropTable(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.tables[name]
	if !ok {
		return hsqlerrors.StorageTableNotOpen(name)
	}
	delete(e.tables, name)
	if err := closeShadowLocked(h, true); err != nil {
		return err
	}
	if err := h.backend.Close(); err != nil {
		return err
	}
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return hsqlerrors.IoFailure(fmt.Sprintf("remove table %q", name), err)
	}
	log.Info("table dropped", "name", name)
	return nil
}

// Sync flushes every open table's data-file cache, forces its backend
// to durable storage, checkpoints its header, and synchs its shadow
// log (if any) to the same durable point. The header's modified flag
// stays set — the table is still open — so a crash immediately after
// Sync still triggers shadow-log replay on the next ReopenTable.
func (e *Engine) Sync() error {
	e.mu.RLock()
	handles := make([]*tableHandle, 0, len(e.tables))
	for _, h := range e.tables {
		handles = append(handles, h)
	}
	e.mu.RUnlock()

	for _, h := range handles {
		if err := h.cache.Sync(); err != nil {
			return err
		}
		if h.shadowLog != nil {
			if err := h.shadowLog.Synch(); err != nil {
				return err
			}
		}
		e.mu.Lock()
		err := e.checkpointLocked(h, false)
		e.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// Close syncs every open table, checkpoints its header clean, and
// closes its data file and shadow log.
func (e *Engine) Close() error {
	if err := e.Sync(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for name, h := range e.tables {
		if err := e.checkpointLocked(h, true); err != nil {
			return err
		}
		if err := closeShadowLocked(h, true); err != nil {
			return err
		}
		if err := h.backend.Close(); err != nil {
			return err
		}
		delete(e.tables, name)
	}
	return nil
}

// EngineStats summarizes the tables an Engine currently has open.
type EngineStats struct {
	TableCount int
	TotalRows  int64
	DataSize   int64
}

// String returns a human-readable rendering of the stats.
func (s EngineStats) String() string {
	return fmt.Sprintf("Engine: %d tables, %d rows, %d bytes", s.TableCount, s.TotalRows, s.DataSize)
}

// Stats walks every open table's primary index to report row counts,
// and its backend length for data size. This is an O(total rows)
// operation, same cost class as a full table scan.
func (e *Engine) Stats() (EngineStats, error) {
	e.mu.RLock()
	handles := make([]*tableHandle, 0, len(e.tables))
	for _, h := range e.tables {
		handles = append(handles, h)
	}
	e.mu.RUnlock()

	stats := EngineStats{TableCount: len(handles)}
	for _, h := range handles {
		size, err := h.backend.Length()
		if err != nil {
			return EngineStats{}, err
		}
		stats.DataSize += size

		it := h.store.RowIterator()
		for {
			row, err := it.Next()
			if err != nil {
				return EngineStats{}, err
			}
			if row == nil {
				break
			}
			stats.TotalRows++
		}
	}
	return stats, nil
}

// rebuildAfterDefrag closes h's old backend, opens the file defrag
// just installed at h.path, and rebuilds h's cache, free-space
// manager, and disk store against it, wiring in newRoots as each
// index's accessor. It replaces h.store in e.tables, so any caller
// still holding the pre-defrag store must re-fetch it via OpenTable.
func (e *Engine) rebuildAfterDefrag(h *tableHandle, result defrag.Result) error {
	if err := h.backend.Close(); err != nil {
		return err
	}
	if err := closeShadowLocked(h, true); err != nil {
		return err
	}

	backend, err := rfile.OpenBuffered(h.path, false)
	if err != nil {
		return hsqlerrors.IoFailure(fmt.Sprintf("reopen defragmented table %q", h.name), err)
	}
	scale := e.config.scaleOrDefault()
	codec := rowcodec.NewBinaryCodec(scale)
	space := freespace.NewSimple(headerSize, int64(scale))
	space.SeedFreePosition(result.NewSize)

	var shadowLog *shadow.Log
	var shadowBackend rfile.Backend
	if e.config.EnableShadowLog {
		shadowLog, shadowBackend, err = e.openFreshShadowLog(h.name)
		if err != nil {
			backend.Close()
			return err
		}
	}
	c := cache.New(backend, shadowLog, e.config.CacheMaxRows, e.config.CacheMaxBytes)

	disk := rowstore.NewDisk(backend, c, space, codec, h.indexes, h.numColumns, h.colCollations, e.config.Locale)
	for i, idx := range h.indexes {
		if i < len(result.NewRoots) {
			disk.SetAccessor(idx.ID, result.NewRoots[i])
		}
	}

	h.backend, h.cache, h.space, h.store = backend, c, space, disk
	h.shadowLog, h.shadowBackend = shadowLog, shadowBackend
	return e.checkpointLocked(h, false)
}

// DefragmentTable compacts name's data file in place: every live row
// is rewritten at a fresh, contiguous position and the file is
// atomically replaced. It requires name have no concurrent readers or
// writers in progress, and only applies to disk-resident tables (a
// Hybrid table still in memory has nothing to compact). Every store
// reference obtained before this call (via CreateTable or OpenTable)
// is stale afterward; re-fetch through OpenTable.
func (e *Engine) DefragmentTable(name string) (defrag.Result, error) {
	e.mu.Lock()
	h, ok := e.tables[name]
	if !ok {
		e.mu.Unlock()
		return defrag.Result{}, hsqlerrors.StorageTableNotOpen(name)
	}
	disk, ok := rowstore.AsDisk(h.store)
	e.mu.Unlock()
	if !ok {
		return defrag.Result{}, hsqlerrors.IoFailure(fmt.Sprintf("defragment table %q", name),
			fmt.Errorf("table is not disk-resident"))
	}

	if err := h.cache.Sync(); err != nil {
		return defrag.Result{}, err
	}

	result, err := defrag.Defragment(disk, headerSize, h.path)
	if err != nil {
		return defrag.Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.rebuildAfterDefrag(h, result); err != nil {
		return defrag.Result{}, err
	}
	log.Info("table defragmented", "name", name, "rows", result.RowCount, "oldSize", result.OldSize, "newSize", result.NewSize)
	return result, nil
}

// DefragmentAll compacts every disk-resident table concurrently; a
// Hybrid table still in memory is skipped (there is nothing to
// compact). As with DefragmentTable, every store reference obtained
// before this call is stale afterward.
func (e *Engine) DefragmentAll() (map[string]defrag.Result, error) {
	e.mu.Lock()
	jobs := make([]defrag.Job, 0, len(e.tables))
	handles := make(map[string]*tableHandle, len(e.tables))
	for name, h := range e.tables {
		disk, ok := rowstore.AsDisk(h.store)
		if !ok {
			continue
		}
		if err := h.cache.Sync(); err != nil {
			e.mu.Unlock()
			return nil, err
		}
		jobs = append(jobs, defrag.Job{Name: name, Source: disk, HeaderSize: headerSize, DestPath: h.path})
		handles[name] = h
	}
	e.mu.Unlock()

	results, err := defrag.All(jobs)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for name, result := range results {
		if err := e.rebuildAfterDefrag(handles[name], result); err != nil {
			return nil, err
		}
	}
	log.Info("defragmented all tables", "count", len(results))
	return results, nil
}
