package btree

import (
	"github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/record"
)

// IndexCursor yields the rowids of index entries whose first key
// column equals a target value, in ascending rowid order. Indexes are
// not assumed unique, so every tying entry is visited.
//
// The cursor keeps a worklist of pending subtrees and already-decoded
// rowids. Interior index cells are entries in their own right: the
// in-order sequence of a page is child[0], cell[0], child[1], cell[1],
// ..., rightmost child. SeekEqual prunes children whose key range
// provably cannot contain the target.
type IndexCursor struct {
	src    PageSource
	root   uint32
	target record.Value

	work  []indexWork
	depth map[uint32]int // page -> depth at which it was scheduled
}

// indexWork is either a subtree still to expand or a rowid ready to
// yield.
type indexWork struct {
	page    uint32
	rowid   int64
	isRowid bool
}

// SeekEqual positions a cursor over all entries in the index tree
// rooted at root whose key equals target.
func SeekEqual(src PageSource, root uint32, target record.Value) *IndexCursor {
	c := &IndexCursor{
		src:    src,
		root:   root,
		target: target,
		work:   []indexWork{{page: root}},
		depth:  map[uint32]int{root: 0},
	}
	return c
}

// Next returns the next matching rowid. The bool result is false when
// the seek is exhausted.
func (c *IndexCursor) Next() (int64, bool, error) {
	for len(c.work) > 0 {
		item := c.work[len(c.work)-1]
		c.work = c.work[:len(c.work)-1]

		if item.isRowid {
			return item.rowid, true, nil
		}

		if err := c.expand(item.page); err != nil {
			return 0, false, err
		}
	}
	return 0, false, nil
}

// expand scans one index page, pushing the matching rowids and the
// children that may contain the target onto the worklist in reverse
// order, so they pop in ascending key order.
func (c *IndexCursor) expand(page uint32) error {
	if c.depth[page] >= MaxDepth {
		return errors.NewPage(page, errors.ErrCorruptPage, "b-tree deeper than supported")
	}

	data, err := c.src.ReadPage(page)
	if err != nil {
		return err
	}
	hdr, err := ParsePageHeader(data, page)
	if err != nil {
		return err
	}
	if hdr.IsTable {
		return errors.NewPage(page, errors.ErrCorruptPage, "table page inside index tree")
	}

	n := int(hdr.NumCells)

	// Binary search for the first cell whose key >= target. Cells with
	// smaller keys and their left subtrees cannot contain the target.
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		key, _, err := c.entryAt(data, hdr, page, mid)
		if err != nil {
			return err
		}
		if record.Compare(key, c.target) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	if hdr.IsLeaf {
		// Matching cells are contiguous from lo; push in reverse so the
		// leftmost pops first.
		var rowids []int64
		for i := lo; i < n; i++ {
			key, rowid, err := c.entryAt(data, hdr, page, i)
			if err != nil {
				return err
			}
			if record.Compare(key, c.target) != 0 {
				break
			}
			rowids = append(rowids, rowid)
		}
		for i := len(rowids) - 1; i >= 0; i-- {
			c.work = append(c.work, indexWork{rowid: rowids[i], isRowid: true})
		}
		return nil
	}

	// Interior: the in-order slice that may hold the target is
	// child[lo], then alternating cell/child while cells still tie.
	type step struct {
		child uint32
		rowid int64
		isKey bool
	}
	var steps []step

	appendChild := func(idx int) error {
		var child uint32
		if idx < n {
			cell, err := c.cellAt(data, hdr, page, idx)
			if err != nil {
				return err
			}
			child = cell.ChildPage
		} else {
			child = hdr.RightChild
		}
		if child == 0 {
			return errors.NewPage(page, errors.ErrCorruptPage, "interior page without rightmost child")
		}
		steps = append(steps, step{child: child})
		return nil
	}

	if err := appendChild(lo); err != nil {
		return err
	}
	for i := lo; i < n; i++ {
		key, rowid, err := c.entryAt(data, hdr, page, i)
		if err != nil {
			return err
		}
		if record.Compare(key, c.target) != 0 {
			break
		}
		steps = append(steps, step{rowid: rowid, isKey: true})
		if err := appendChild(i + 1); err != nil {
			return err
		}
	}

	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		if s.isKey {
			c.work = append(c.work, indexWork{rowid: s.rowid, isRowid: true})
		} else {
			c.depth[s.child] = c.depth[page] + 1
			c.work = append(c.work, indexWork{page: s.child})
		}
	}
	return nil
}

// cellAt parses the idx-th cell of an index page.
func (c *IndexCursor) cellAt(data []byte, hdr *PageHeader, page uint32, idx int) (*Cell, error) {
	ptr, err := hdr.CellPointer(data, page, idx)
	if err != nil {
		return nil, err
	}
	cell, err := ParseCell(hdr.PageType, data[ptr:], c.src.UsableSize())
	if err != nil {
		return nil, errors.Wrapf(err, "page %d cell %d", page, idx)
	}
	return cell, nil
}

// entryAt decodes the idx-th index entry into its key (first column)
// and rowid (last column).
func (c *IndexCursor) entryAt(data []byte, hdr *PageHeader, page uint32, idx int) (record.Value, int64, error) {
	cell, err := c.cellAt(data, hdr, page, idx)
	if err != nil {
		return record.Value{}, 0, err
	}

	payload, err := record.AssemblePayload(cell.Payload, cell.PayloadSize, cell.OverflowPage, c.src)
	if err != nil {
		return record.Value{}, 0, errors.Wrapf(err, "page %d cell %d", page, idx)
	}
	rec, err := record.Decode(payload)
	if err != nil {
		return record.Value{}, 0, err
	}
	if len(rec.Values) < 2 {
		return record.Value{}, 0, errors.NewRecord(0, "index entry with fewer than two columns")
	}

	key := rec.Values[0]
	last := rec.Values[len(rec.Values)-1]
	if last.Type != record.TypeInteger {
		return record.Value{}, 0, errors.NewRecord(0, "index entry rowid is not an integer")
	}
	return key, last.Int, nil
}
