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

// Package cache implements the data-file object cache: a position-
// keyed map from file offset to CachedObject (row or free-space
// directory block), with LRU eviction pinned by a per-object keep
// count, and write-through to the random-access file backend with
// shadow-log interception before the first overwrite of a page range
// in the current backup window.
package cache

import (
	"strconv"
	"sync"

	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/logging"
	"hsqlcore/internal/storage/rfile"
	"hsqlcore/internal/storage/shadow"

	"golang.org/x/sync/singleflight"
)

var log = logging.NewLogger("storage.cache")

type entry struct {
	obj       CachedObject
	keepCount int
	prev, next *entry
}

// Cache holds CachedObjects keyed by their file position, evicting the
// least-recently-used unpinned entry when either capacity bound is
// exceeded.
type Cache struct {
	mu sync.Mutex

	backend   rfile.Backend
	shadowLog *shadow.Log // nil disables shadow interception

	maxRows  int
	maxBytes int64

	objects map[int64]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
	bytes   int64

	// loads collapses concurrent misses on the same position into a
	// single backend read.
	loads singleflight.Group
}

// New creates a cache writing through backend. shadowLog may be nil
// (no backup window active); maxRows/maxBytes of 0 disable that bound.
func New(backend rfile.Backend, shadowLog *shadow.Log, maxRows int, maxBytes int64) *Cache {
	return &Cache{
		backend:   backend,
		shadowLog: shadowLog,
		maxRows:   maxRows,
		maxBytes:  maxBytes,
		objects:   make(map[int64]*entry),
	}
}

// Get returns the object cached at position, loading it via load on a
// miss. keep pins the object against eviction until Release is called.
func (c *Cache) Get(position int64, keep bool, load Loader) (CachedObject, error) {
	c.mu.Lock()
	if e, ok := c.objects[position]; ok {
		if keep {
			e.keepCount++
		}
		c.moveToFront(e)
		obj := e.obj
		c.mu.Unlock()
		return obj, nil
	}
	c.mu.Unlock()

	result, err, _ := c.loads.Do(strconv.FormatInt(position, 10), func() (any, error) {
		// Re-check: another goroutine may have populated the cache
		// while this one waited to acquire the singleflight call.
		c.mu.Lock()
		if e, ok := c.objects[position]; ok {
			c.mu.Unlock()
			return e.obj, nil
		}
		c.mu.Unlock()
		return load(position)
	})
	if err != nil {
		return nil, err
	}
	obj := result.(CachedObject)
	c.Add(obj, keep)
	return obj, nil
}

// Add inserts a new object whose position has already been assigned by
// the free-space manager.
func (c *Cache) Add(obj CachedObject, keep bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos := obj.Position()
	if existing, ok := c.objects[pos]; ok {
		existing.obj = obj
		if keep {
			existing.keepCount++
		}
		c.moveToFront(existing)
		return
	}

	c.evictToFit(1, obj.StorageSize())

	e := &entry{obj: obj}
	if keep {
		e.keepCount = 1
	}
	c.objects[pos] = e
	c.pushFront(e)
	c.bytes += obj.StorageSize()
}

// Release unpins one keep on the object at position, making it
// eligible for eviction again once its keep count reaches zero.
func (c *Cache) Release(position int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.objects[position]; ok && e.keepCount > 0 {
		e.keepCount--
	}
}

// Remove invalidates the cached instance at obj's position. The
// caller is responsible for freeing the on-disk slot through the
// free-space manager.
func (c *Cache) Remove(obj CachedObject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.objects[obj.Position()]
	if !ok {
		return
	}
	c.unlink(e)
	delete(c.objects, obj.Position())
	c.bytes -= e.obj.StorageSize()
}

// CommitPersistence flushes obj to the backend at obj.Position(),
// intercepting the shadow log first if a backup window is active and
// this is the first overwrite of the affected range, then clears the
// object's dirty bit.
func (c *Cache) CommitPersistence(obj CachedObject) error {
	data, err := obj.Encode()
	if err != nil {
		return err
	}

	if c.shadowLog != nil {
		if _, err := c.shadowLog.Copy(c.backend, obj.Position(), int64(len(data))); err != nil {
			return err
		}
	}

	if err := c.backend.Seek(obj.Position()); err != nil {
		return err
	}
	if _, err := c.backend.Write(data); err != nil {
		return hsqlerrors.IoFailure("commitPersistence", err)
	}
	obj.SetDirty(false)
	return nil
}

// Sync flushes every dirty cached object, then forces the backend.
func (c *Cache) Sync() error {
	c.mu.Lock()
	dirty := make([]CachedObject, 0)
	for _, e := range c.objects {
		if e.obj.IsDirty() {
			dirty = append(dirty, e.obj)
		}
	}
	c.mu.Unlock()

	for _, obj := range dirty {
		if err := c.CommitPersistence(obj); err != nil {
			return err
		}
	}
	return c.backend.Sync()
}

// evictToFit makes room for addCount more objects and addBytes more
// bytes, flushing and dropping unpinned LRU entries. Must be called
// with c.mu held.
func (c *Cache) evictToFit(addCount int, addBytes int64) {
	for c.overCapacity(addCount, addBytes) {
		victim := c.tail
		for victim != nil && victim.keepCount > 0 {
			victim = victim.prev
		}
		if victim == nil {
			// everything pinned; cannot make room
			return
		}
		if victim.obj.IsDirty() {
			if err := c.commitPersistenceLocked(victim.obj); err != nil {
				log.Error("evict flush failed", "position", victim.obj.Position(), "error", err.Error())
				return
			}
		}
		c.unlink(victim)
		delete(c.objects, victim.obj.Position())
		c.bytes -= victim.obj.StorageSize()
	}
}

// commitPersistenceLocked is CommitPersistence without re-acquiring
// c.mu, for use from within an already-locked eviction path. The
// shadow/backend I/O itself does not touch c.mu, so this is safe.
func (c *Cache) commitPersistenceLocked(obj CachedObject) error {
	data, err := obj.Encode()
	if err != nil {
		return err
	}
	if c.shadowLog != nil {
		if _, err := c.shadowLog.Copy(c.backend, obj.Position(), int64(len(data))); err != nil {
			return err
		}
	}
	if err := c.backend.Seek(obj.Position()); err != nil {
		return err
	}
	if _, err := c.backend.Write(data); err != nil {
		return hsqlerrors.IoFailure("commitPersistence", err)
	}
	obj.SetDirty(false)
	return nil
}

func (c *Cache) overCapacity(addCount int, addBytes int64) bool {
	if c.maxRows > 0 && len(c.objects)+addCount > c.maxRows {
		return true
	}
	if c.maxBytes > 0 && c.bytes+addBytes > c.maxBytes {
		return true
	}
	return false
}

func (c *Cache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *Cache) moveToFront(e *entry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

// Len reports the number of objects currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.objects)
}
