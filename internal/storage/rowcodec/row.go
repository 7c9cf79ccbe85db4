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
Package rowcodec defines the row and AVL-node representation shared by
the cache, the row stores, and the AVL index, and the three wire
formats that serialize them:

  - Binary row: used by the cached data file (BinaryCodec).
  - Text row: used by TEXT TABLE backing files (TextRowCodec).
  - Text log: human-readable INSERT/DELETE DML redo (TextLogWriter).

Row nodes address their AVL neighbors by position rather than by
pointer (DESIGN NOTES: "use arena-backed indices rather than owning
references"). A position is a synthetic int64 for in-memory stores and
a real file offset for disk-backed stores; the AVL package is agnostic
to which.
*/
package rowcodec

import "hsqlcore/internal/storage/sqltype"

// NoPosition is the sentinel for "no row"/"no node" — root's parent,
// a leaf's children, or a row that has never been assigned storage.
const NoPosition int64 = -1

// AVLNode is the per-index balanced-tree linkage co-located with a
// row. Parent/Left/Right are positions, not pointers.
type AVLNode struct {
	Parent  int64
	Left    int64
	Right   int64
	Balance int8 // -1, 0, +1
}

// IndexDef describes one index a table's rows participate in.
type IndexDef struct {
	ID             int
	Columns        []int
	Ascending      []bool
	NullsLast      []bool
	Unique         bool
	PrimaryKey     bool
	ForConstraint  bool
	AutoFkForward  bool
}

// Row is a single table row: its typed values plus one AVLNode per
// index it participates in.
type Row struct {
	Position int64 // file offset, or NoPosition if purely in memory
	StorageSize int32

	HasDataChanged  bool
	HasNodesChanged bool
	KeepCount       int32
	IsInMemory      bool
	IsNew           bool

	Values []sqltype.Value
	Nodes  []AVLNode // Nodes[i] belongs to the index with ID i
}

// NewRow constructs a fresh, in-memory, dirty row ready for insertion.
func NewRow(values []sqltype.Value, numIndexes int) *Row {
	nodes := make([]AVLNode, numIndexes)
	for i := range nodes {
		nodes[i] = AVLNode{Parent: NoPosition, Left: NoPosition, Right: NoPosition}
	}
	return &Row{
		Position:        NoPosition,
		HasDataChanged:  true,
		HasNodesChanged: true,
		IsInMemory:      true,
		IsNew:           true,
		Values:          values,
		Nodes:           nodes,
	}
}

// Pin increments the keep count, preventing cache eviction.
func (r *Row) Pin() { r.KeepCount++ }

// Unpin decrements the keep count. It is a programmer error to unpin a
// row more times than it was pinned.
func (r *Row) Unpin() {
	if r.KeepCount <= 0 {
		panic("rowcodec: Unpin called on a row with zero keepCount")
	}
	r.KeepCount--
}

// Node returns the AVL node for the given index ID, extending Nodes if
// the row has not yet been linked into that index.
func (r *Row) Node(indexID int) *AVLNode {
	for len(r.Nodes) <= indexID {
		r.Nodes = append(r.Nodes, AVLNode{Parent: NoPosition, Left: NoPosition, Right: NoPosition})
	}
	return &r.Nodes[indexID]
}
