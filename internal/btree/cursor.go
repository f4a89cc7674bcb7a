package btree

import (
	"github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/record"
)

// PageSource supplies raw pages to cursors. It is implemented by
// pager.Pager.
type PageSource interface {
	// ReadPage returns the raw contents of the given 1-based page.
	ReadPage(pageNum uint32) ([]byte, error)
	// UsableSize returns the usable bytes per page.
	UsableSize() int
}

// frame is one level of a cursor's descent. next is the cell index to
// visit; on interior pages the value NumCells selects the rightmost
// child pointer, which lives in the page header rather than a cell.
type frame struct {
	page uint32
	data []byte
	hdr  *PageHeader
	next int
}

// TableCursor walks a table b-tree in rowid order. A fresh cursor is
// positioned before the first row; each Next advances one row. The
// cursor holds an explicit frame stack, so traversal depth is bounded
// by MaxDepth regardless of tree height.
type TableCursor struct {
	src   PageSource
	root  uint32
	stack []frame

	cell *Cell // current leaf cell, nil before first Next / after exhaustion
}

// NewTableCursor creates a cursor over the table tree rooted at root.
func NewTableCursor(src PageSource, root uint32) *TableCursor {
	return &TableCursor{src: src, root: root}
}

// Rewind resets the cursor to before the first row.
func (c *TableCursor) Rewind() {
	c.stack = nil
	c.cell = nil
}

// Next advances to the next row in ascending rowid order. It returns
// false when the tree is exhausted. Any error aborts the scan; the
// cursor is only restartable via Rewind.
func (c *TableCursor) Next() (bool, error) {
	if c.stack == nil {
		if err := c.push(c.root); err != nil {
			return false, err
		}
	}

	for len(c.stack) > 0 {
		f := &c.stack[len(c.stack)-1]

		if f.hdr.IsLeaf {
			if f.next >= int(f.hdr.NumCells) {
				c.pop()
				continue
			}
			cell, err := c.cellAt(f, f.next)
			if err != nil {
				return false, err
			}
			f.next++
			c.cell = cell
			return true, nil
		}

		// Interior: children first in cell order, rightmost child last.
		switch {
		case f.next < int(f.hdr.NumCells):
			cell, err := c.cellAt(f, f.next)
			if err != nil {
				return false, err
			}
			f.next++
			if err := c.push(cell.ChildPage); err != nil {
				return false, err
			}
		case f.next == int(f.hdr.NumCells):
			child := f.hdr.RightChild
			f.next++
			if child == 0 {
				return false, errors.NewPage(f.page, errors.ErrCorruptPage,
					"interior page without rightmost child")
			}
			if err := c.push(child); err != nil {
				return false, err
			}
		default:
			c.pop()
		}
	}

	c.cell = nil
	return false, nil
}

// Rowid returns the rowid of the current row.
func (c *TableCursor) Rowid() int64 {
	if c.cell == nil {
		return 0
	}
	return c.cell.Rowid
}

// Record decodes the current row's payload, resolving any overflow
// chain through the page source.
func (c *TableCursor) Record() (*record.Record, error) {
	if c.cell == nil {
		return nil, errors.NewRecord(0, "cursor not positioned on a row")
	}
	payload, err := record.AssemblePayload(c.cell.Payload, c.cell.PayloadSize, c.cell.OverflowPage, c.src)
	if err != nil {
		return nil, errors.Wrapf(err, "rowid %d", c.cell.Rowid)
	}
	return record.Decode(payload)
}

func (c *TableCursor) push(page uint32) error {
	if len(c.stack) >= MaxDepth {
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
	if !hdr.IsTable {
		return errors.NewPage(page, errors.ErrCorruptPage, "index page inside table tree")
	}
	c.stack = append(c.stack, frame{page: page, data: data, hdr: hdr})
	return nil
}

func (c *TableCursor) pop() {
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *TableCursor) cellAt(f *frame, idx int) (*Cell, error) {
	ptr, err := f.hdr.CellPointer(f.data, f.page, idx)
	if err != nil {
		return nil, err
	}
	cell, err := ParseCell(f.hdr.PageType, f.data[ptr:], c.src.UsableSize())
	if err != nil {
		return nil, errors.Wrapf(err, "page %d cell %d", f.page, idx)
	}
	return cell, nil
}

// SeekRowid performs a point lookup in the table tree rooted at root,
// descending interior boundary keys. It returns (nil, false, nil) when
// no row has the given rowid.
func SeekRowid(src PageSource, root uint32, rowid int64) (*record.Record, bool, error) {
	page := root
	for depth := 0; ; depth++ {
		if depth >= MaxDepth {
			return nil, false, errors.NewPage(page, errors.ErrCorruptPage, "b-tree deeper than supported")
		}

		data, err := src.ReadPage(page)
		if err != nil {
			return nil, false, err
		}
		hdr, err := ParsePageHeader(data, page)
		if err != nil {
			return nil, false, err
		}
		if !hdr.IsTable {
			return nil, false, errors.NewPage(page, errors.ErrCorruptPage, "index page inside table tree")
		}

		if hdr.IsLeaf {
			// Binary search the leaf cells; rowids are ascending.
			lo, hi := 0, int(hdr.NumCells)
			for lo < hi {
				mid := (lo + hi) / 2
				cell, err := pageCellAt(src, data, hdr, page, mid)
				if err != nil {
					return nil, false, err
				}
				switch {
				case cell.Rowid == rowid:
					payload, err := record.AssemblePayload(cell.Payload, cell.PayloadSize, cell.OverflowPage, src)
					if err != nil {
						return nil, false, errors.Wrapf(err, "rowid %d", rowid)
					}
					rec, err := record.Decode(payload)
					if err != nil {
						return nil, false, err
					}
					return rec, true, nil
				case cell.Rowid < rowid:
					lo = mid + 1
				default:
					hi = mid
				}
			}
			return nil, false, nil
		}

		// Interior: first cell whose boundary key >= rowid routes left;
		// past the last boundary, descend the rightmost child.
		lo, hi := 0, int(hdr.NumCells)
		for lo < hi {
			mid := (lo + hi) / 2
			cell, err := pageCellAt(src, data, hdr, page, mid)
			if err != nil {
				return nil, false, err
			}
			if cell.Rowid < rowid {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo == int(hdr.NumCells) {
			if hdr.RightChild == 0 {
				return nil, false, errors.NewPage(page, errors.ErrCorruptPage,
					"interior page without rightmost child")
			}
			page = hdr.RightChild
		} else {
			cell, err := pageCellAt(src, data, hdr, page, lo)
			if err != nil {
				return nil, false, err
			}
			page = cell.ChildPage
		}
	}
}

func pageCellAt(src PageSource, data []byte, hdr *PageHeader, page uint32, idx int) (*Cell, error) {
	ptr, err := hdr.CellPointer(data, page, idx)
	if err != nil {
		return nil, err
	}
	cell, err := ParseCell(hdr.PageType, data[ptr:], src.UsableSize())
	if err != nil {
		return nil, errors.Wrapf(err, "page %d cell %d", page, idx)
	}
	return cell, nil
}
