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
Package avl implements the balanced binary search tree one row store
index is built from. Nodes are addressed by position (int64), uniform
across in-memory and disk-backed row stores: the tree itself never
holds a row reference, only the NodeStore abstraction through which it
reads and writes AVLNode linkage.
*/
package avl

import (
	hsqlerrors "hsqlcore/internal/errors"
	"hsqlcore/internal/storage/rowcodec"
)

// NoPosition mirrors rowcodec.NoPosition: "no node" for a child/parent
// link, or "empty tree" for a root.
const NoPosition = rowcodec.NoPosition

// AVLNode is an alias of the shared row-linkage struct.
type AVLNode = rowcodec.AVLNode

// NodeStore is the linkage storage a Tree is built on — normally
// implemented by a row store, dereferencing a position to the row
// that owns the node for this tree's index.
type NodeStore interface {
	GetNode(position int64, indexID int) (AVLNode, error)
	SetNode(position int64, indexID int, node AVLNode) error
}

// Comparator compares the keys of the rows at positions a and b for
// this tree's index, returning <0, 0, or >0.
type Comparator func(a, b int64) (int, error)

// Tree is one index's balanced tree. Unique trees reject a second row
// with an equal key; non-unique trees break ties by row position
// (physical insertion order).
type Tree struct {
	IndexID int
	Unique  bool

	store NodeStore
	cmp   Comparator
	root  int64
}

// NewTree creates an empty tree over store, comparing keys with cmp.
func NewTree(indexID int, unique bool, store NodeStore, cmp Comparator) *Tree {
	return &Tree{IndexID: indexID, Unique: unique, store: store, cmp: cmp, root: NoPosition}
}

// Root returns the tree's current accessor (root position), or
// NoPosition if the tree is empty.
func (t *Tree) Root() int64 { return t.root }

// SetRoot installs pos as the tree's accessor directly, used when
// restoring a tree from a previously persisted root.
func (t *Tree) SetRoot(pos int64) { t.root = pos }

func (t *Tree) node(pos int64) (AVLNode, error) {
	n, err := t.store.GetNode(pos, t.IndexID)
	if err != nil {
		return AVLNode{}, hsqlerrors.CorruptIndex(err.Error())
	}
	return n, nil
}

func (t *Tree) setNode(pos int64, n AVLNode) error {
	return t.store.SetNode(pos, t.IndexID, n)
}

// replaceChild repoints grandparent's child link that used to point
// at oldChild so that it points at newChild instead. grandparent ==
// NoPosition means oldChild was the tree root.
func (t *Tree) replaceChild(grandparent, oldChild, newChild int64) error {
	if grandparent == NoPosition {
		t.root = newChild
		return nil
	}
	gn, err := t.node(grandparent)
	if err != nil {
		return err
	}
	if gn.Left == oldChild {
		gn.Left = newChild
	} else if gn.Right == oldChild {
		gn.Right = newChild
	} else {
		return hsqlerrors.CorruptIndex("parent/child linkage mismatch during rotation")
	}
	return t.setNode(grandparent, gn)
}

// setChildPointer sets parent's left (if left) or right child link to
// child directly, without touching child's Parent field — used after
// an inner rotation in a double-rotation sequence, where the rotated
// node's Parent is already correct but its outer parent's link to it
// is stale.
func (t *Tree) setChildPointer(parent int64, left bool, child int64) error {
	pn, err := t.node(parent)
	if err != nil {
		return err
	}
	if left {
		pn.Left = child
	} else {
		pn.Right = child
	}
	return t.setNode(parent, pn)
}

// rotateLeft performs a single left rotation around z (z.Right
// becomes the new subtree root), relinking parent/child/sibling
// pointers. It does not touch balance factors or the grandparent's
// child pointer — callers handle those. Returns the new subtree root.
func (t *Tree) rotateLeft(z int64) (int64, error) {
	zn, err := t.node(z)
	if err != nil {
		return NoPosition, err
	}
	y := zn.Right
	yn, err := t.node(y)
	if err != nil {
		return NoPosition, err
	}

	zn.Right = yn.Left
	if yn.Left != NoPosition {
		c, err := t.node(yn.Left)
		if err != nil {
			return NoPosition, err
		}
		c.Parent = z
		if err := t.setNode(yn.Left, c); err != nil {
			return NoPosition, err
		}
	}
	yn.Left = z
	yn.Parent = zn.Parent
	zn.Parent = y

	if err := t.setNode(z, zn); err != nil {
		return NoPosition, err
	}
	if err := t.setNode(y, yn); err != nil {
		return NoPosition, err
	}
	return y, nil
}

// rotateRight is the mirror of rotateLeft.
func (t *Tree) rotateRight(z int64) (int64, error) {
	zn, err := t.node(z)
	if err != nil {
		return NoPosition, err
	}
	y := zn.Left
	yn, err := t.node(y)
	if err != nil {
		return NoPosition, err
	}

	zn.Left = yn.Right
	if yn.Right != NoPosition {
		c, err := t.node(yn.Right)
		if err != nil {
			return NoPosition, err
		}
		c.Parent = z
		if err := t.setNode(yn.Right, c); err != nil {
			return NoPosition, err
		}
	}
	yn.Right = z
	yn.Parent = zn.Parent
	zn.Parent = y

	if err := t.setNode(z, zn); err != nil {
		return NoPosition, err
	}
	if err := t.setNode(y, yn); err != nil {
		return NoPosition, err
	}
	return y, nil
}

func (t *Tree) setBalance(pos int64, balance int8) error {
	n, err := t.node(pos)
	if err != nil {
		return err
	}
	n.Balance = balance
	return t.setNode(pos, n)
}

// First returns the leftmost (smallest-key) position, or NoPosition if
// the tree is empty.
func (t *Tree) First() (int64, error) {
	if t.root == NoPosition {
		return NoPosition, nil
	}
	return t.leftmost(t.root)
}

// Last returns the rightmost (largest-key) position, or NoPosition if
// the tree is empty.
func (t *Tree) Last() (int64, error) {
	if t.root == NoPosition {
		return NoPosition, nil
	}
	return t.rightmost(t.root)
}

func (t *Tree) leftmost(pos int64) (int64, error) {
	for {
		n, err := t.node(pos)
		if err != nil {
			return NoPosition, err
		}
		if n.Left == NoPosition {
			return pos, nil
		}
		pos = n.Left
	}
}

func (t *Tree) rightmost(pos int64) (int64, error) {
	for {
		n, err := t.node(pos)
		if err != nil {
			return NoPosition, err
		}
		if n.Right == NoPosition {
			return pos, nil
		}
		pos = n.Right
	}
}

// Next returns the in-order successor of pos: descend right then
// leftmost if a right child exists, else ascend while coming from the
// right child. Returns NoPosition if pos is the last element.
func (t *Tree) Next(pos int64) (int64, error) {
	n, err := t.node(pos)
	if err != nil {
		return NoPosition, err
	}
	if n.Right != NoPosition {
		return t.leftmost(n.Right)
	}
	child, parent := pos, n.Parent
	for parent != NoPosition {
		pn, err := t.node(parent)
		if err != nil {
			return NoPosition, err
		}
		if pn.Left == child {
			return parent, nil
		}
		child, parent = parent, pn.Parent
	}
	return NoPosition, nil
}

// Prev returns the in-order predecessor of pos, the symmetric mirror
// of Next.
func (t *Tree) Prev(pos int64) (int64, error) {
	n, err := t.node(pos)
	if err != nil {
		return NoPosition, err
	}
	if n.Left != NoPosition {
		return t.rightmost(n.Left)
	}
	child, parent := pos, n.Parent
	for parent != NoPosition {
		pn, err := t.node(parent)
		if err != nil {
			return NoPosition, err
		}
		if pn.Right == child {
			return parent, nil
		}
		child, parent = parent, pn.Parent
	}
	return NoPosition, nil
}

// Find descends the tree looking for a row whose key compares equal
// to keyOf's key (keyOf need not itself be in the tree — only its key, as
// seen through cmp, is used). Returns NoPosition if no match exists.
func (t *Tree) Find(keyOf int64) (int64, error) {
	cur := t.root
	for cur != NoPosition {
		c, err := t.cmp(keyOf, cur)
		if err != nil {
			return NoPosition, err
		}
		if c == 0 {
			return cur, nil
		}
		n, err := t.node(cur)
		if err != nil {
			return NoPosition, err
		}
		if c < 0 {
			cur = n.Left
		} else {
			cur = n.Right
		}
	}
	return NoPosition, nil
}
