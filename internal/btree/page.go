// Package btree traverses SQLite table and index b-trees.
//
// Pages come from the pager; this package parses their headers and
// cells and walks the trees with explicit page stacks, so traversal
// depth is bounded regardless of tree height.
package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/internal/format"
)

// MaxDepth bounds b-tree traversal depth to guard against corrupt
// databases with cyclic child pointers.
const MaxDepth = 20

// PageHeader represents the parsed header of a B-tree page
type PageHeader struct {
	PageType         byte   // Page type (0x02, 0x05, 0x0a, 0x0d)
	FirstFreeblock   uint16 // Offset to first freeblock (0 if none)
	NumCells         uint16 // Number of cells on this page
	CellContentStart uint16 // Start of cell content area
	FragmentedBytes  byte   // Number of fragmented free bytes
	RightChild       uint32 // Right-most child page number (interior pages only)

	// Derived properties
	IsLeaf        bool // True if this is a leaf page
	IsTable       bool // True if this is a table b-tree
	HeaderSize    int  // Size of the page header (8 or 12 bytes)
	CellPtrOffset int  // Offset where the cell pointer array starts
}

// ParsePageHeader parses the B-tree page header from raw page data.
// Page 1 carries the 100-byte file header before its b-tree header.
func ParsePageHeader(data []byte, pageNum uint32) (*PageHeader, error) {
	offset := 0
	if pageNum == 1 {
		offset = format.HeaderSize
	}
	if len(data) < offset+format.BtreeHeaderSizeLeaf {
		return nil, errors.NewPage(pageNum, errors.ErrTruncated,
			fmt.Sprintf("page data too small: %d bytes", len(data)))
	}

	h := &PageHeader{
		PageType:         data[offset+format.BtreePageType],
		FirstFreeblock:   binary.BigEndian.Uint16(data[offset+format.BtreeFirstFreeblock:]),
		NumCells:         binary.BigEndian.Uint16(data[offset+format.BtreeCellCount:]),
		CellContentStart: binary.BigEndian.Uint16(data[offset+format.BtreeCellContentStart:]),
		FragmentedBytes:  data[offset+format.BtreeFragmentedBytes],
	}

	switch h.PageType {
	case format.PageTypeLeafTable:
		h.IsLeaf, h.IsTable = true, true
	case format.PageTypeInteriorTable:
		h.IsTable = true
	case format.PageTypeLeafIndex:
		h.IsLeaf = true
	case format.PageTypeInteriorIndex:
	default:
		return nil, errors.NewPage(pageNum, errors.ErrCorruptPage,
			fmt.Sprintf("unrecognized page type 0x%02x", h.PageType))
	}

	if h.IsLeaf {
		h.HeaderSize = format.BtreeHeaderSizeLeaf
	} else {
		if len(data) < offset+format.BtreeHeaderSizeInterior {
			return nil, errors.NewPage(pageNum, errors.ErrTruncated,
				fmt.Sprintf("interior page data too small: %d bytes", len(data)))
		}
		h.RightChild = binary.BigEndian.Uint32(data[offset+format.BtreeRightmostPointer:])
		h.HeaderSize = format.BtreeHeaderSizeInterior
	}

	h.CellPtrOffset = offset + h.HeaderSize

	return h, nil
}

// CellPointer returns the page offset of the i-th cell, validating
// that the pointer lands inside the page's content area.
func (h *PageHeader) CellPointer(data []byte, pageNum uint32, cellIndex int) (int, error) {
	if cellIndex < 0 || cellIndex >= int(h.NumCells) {
		return 0, errors.NewPage(pageNum, errors.ErrCorruptPage,
			fmt.Sprintf("cell index %d outside 0..%d", cellIndex, int(h.NumCells)-1))
	}

	ptrOffset := h.CellPtrOffset + cellIndex*2
	if ptrOffset+2 > len(data) {
		return 0, errors.NewPage(pageNum, errors.ErrCorruptPage,
			fmt.Sprintf("cell pointer array overruns page at offset %d", ptrOffset))
	}

	ptr := int(binary.BigEndian.Uint16(data[ptrOffset:]))
	contentFloor := h.CellPtrOffset + int(h.NumCells)*2
	if ptr < contentFloor || ptr >= len(data) {
		return 0, errors.NewPage(pageNum, errors.ErrCorruptPage,
			fmt.Sprintf("cell %d points outside content area: %d", cellIndex, ptr))
	}

	return ptr, nil
}
