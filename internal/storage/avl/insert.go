/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package avl

import hsqlerrors "hsqlcore/internal/errors"

// Insert links the row at position into the tree. position must
// already have a zeroed AVLNode reachable through the tree's
// NodeStore (the row store assigns storage and creates the node
// before calling Insert). For a unique tree, an equal-key match fails
// with a DuplicateKey error and leaves the tree unchanged; for a
// non-unique tree, equal keys are ordered by row position.
func (t *Tree) Insert(position int64) error {
	if t.root == NoPosition {
		t.root = position
		return t.setNode(position, AVLNode{Parent: NoPosition, Left: NoPosition, Right: NoPosition})
	}

	cur := t.root
	parent := NoPosition
	wentLeft := false
	for cur != NoPosition {
		c, err := t.cmp(position, cur)
		if err != nil {
			return err
		}
		if c == 0 {
			if t.Unique {
				return hsqlerrors.StoreDuplicateKey(t.IndexID)
			}
			if position < cur {
				c = -1
			} else {
				c = 1
			}
		}
		parent = cur
		n, err := t.node(cur)
		if err != nil {
			return err
		}
		if c < 0 {
			wentLeft = true
			cur = n.Left
		} else {
			wentLeft = false
			cur = n.Right
		}
	}

	if err := t.setNode(position, AVLNode{Parent: parent, Left: NoPosition, Right: NoPosition}); err != nil {
		return err
	}
	pn, err := t.node(parent)
	if err != nil {
		return err
	}
	if wentLeft {
		pn.Left = position
	} else {
		pn.Right = position
	}
	if err := t.setNode(parent, pn); err != nil {
		return err
	}

	return t.retraceInsert(parent, position)
}

// retraceInsert walks from the newly linked node's parent toward the
// root, updating balance factors and rotating the first subtree found
// unbalanced. After a rotation the subtree height is restored to its
// pre-insert value, so retracing always stops there.
func (t *Tree) retraceInsert(parent, child int64) error {
	for parent != NoPosition {
		pn, err := t.node(parent)
		if err != nil {
			return err
		}
		isLeft := pn.Left == child
		if isLeft {
			pn.Balance--
		} else {
			pn.Balance++
		}
		if err := t.setNode(parent, pn); err != nil {
			return err
		}

		switch pn.Balance {
		case 0:
			return nil
		case -1, 1:
			child = parent
			parent = pn.Parent
			continue
		default:
			return t.rebalanceInsert(parent, pn)
		}
	}
	return nil
}

// rebalanceInsert restores the AVL property at the subtree rooted at
// z (whose balance just became ±2), and reattaches the rebalanced
// subtree to z's former parent.
func (t *Tree) rebalanceInsert(z int64, zn AVLNode) error {
	grandparent := zn.Parent
	var newRoot int64
	var err error

	if zn.Balance == 2 {
		y, yErr := t.node(zn.Right)
		if yErr != nil {
			return yErr
		}
		if y.Balance >= 0 {
			// single left rotation (RR case)
			newRoot, err = t.rotateLeft(z)
			if err != nil {
				return err
			}
			if serr := t.setBalance(z, 0); serr != nil {
				return serr
			}
			if serr := t.setBalance(newRoot, 0); serr != nil {
				return serr
			}
		} else {
			// double rotation (RL case)
			x := y.Left
			xn, xErr := t.node(x)
			if xErr != nil {
				return xErr
			}
			xBalance := xn.Balance
			inner, rErr := t.rotateRight(zn.Right)
			if rErr != nil {
				return rErr
			}
			if err := t.setChildPointer(z, false, inner); err != nil {
				return err
			}
			newRoot, err = t.rotateLeft(z)
			if err != nil {
				return err
			}
			switch xBalance {
			case 1:
				if err := t.setBalance(z, -1); err != nil {
					return err
				}
				if err := t.setBalance(zn.Right, 0); err != nil {
					return err
				}
			case -1:
				if err := t.setBalance(z, 0); err != nil {
					return err
				}
				if err := t.setBalance(zn.Right, 1); err != nil {
					return err
				}
			default:
				if err := t.setBalance(z, 0); err != nil {
					return err
				}
				if err := t.setBalance(zn.Right, 0); err != nil {
					return err
				}
			}
			if err := t.setBalance(x, 0); err != nil {
				return err
			}
			newRoot = x
		}
	} else {
		y, yErr := t.node(zn.Left)
		if yErr != nil {
			return yErr
		}
		if y.Balance <= 0 {
			// single right rotation (LL case)
			newRoot, err = t.rotateRight(z)
			if err != nil {
				return err
			}
			if serr := t.setBalance(z, 0); serr != nil {
				return serr
			}
			if serr := t.setBalance(newRoot, 0); serr != nil {
				return serr
			}
		} else {
			// double rotation (LR case)
			x := y.Right
			xn, xErr := t.node(x)
			if xErr != nil {
				return xErr
			}
			xBalance := xn.Balance
			inner, rErr := t.rotateLeft(zn.Left)
			if rErr != nil {
				return rErr
			}
			if err := t.setChildPointer(z, true, inner); err != nil {
				return err
			}
			newRoot, err = t.rotateRight(z)
			if err != nil {
				return err
			}
			switch xBalance {
			case -1:
				if err := t.setBalance(z, 1); err != nil {
					return err
				}
				if err := t.setBalance(zn.Left, 0); err != nil {
					return err
				}
			case 1:
				if err := t.setBalance(z, 0); err != nil {
					return err
				}
				if err := t.setBalance(zn.Left, -1); err != nil {
					return err
				}
			default:
				if err := t.setBalance(z, 0); err != nil {
					return err
				}
				if err := t.setBalance(zn.Left, 0); err != nil {
					return err
				}
			}
			if err := t.setBalance(x, 0); err != nil {
				return err
			}
			newRoot = x
		}
	}

	return t.replaceChild(grandparent, z, newRoot)
}
