package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/internal/format"
	"github.com/yuann3/sequel/internal/varint"
)

// Cell contains the parsed fields of a B-tree cell. Which fields are
// meaningful depends on the page type the cell came from.
type Cell struct {
	Rowid        int64  // Table cells: the integer key
	ChildPage    uint32 // Interior cells: left-child page number
	Payload      []byte // Locally stored payload bytes
	PayloadSize  int    // Total declared payload bytes (local + overflow)
	OverflowPage uint32 // First overflow page number (0 if none)
}

// ParseCell parses a cell of the given page type starting at cellData.
func ParseCell(pageType byte, cellData []byte, usableSize int) (*Cell, error) {
	switch pageType {
	case format.PageTypeLeafTable:
		return parseTableLeafCell(cellData, usableSize)
	case format.PageTypeInteriorTable:
		return parseTableInteriorCell(cellData)
	case format.PageTypeLeafIndex:
		return parseIndexCell(cellData, usableSize, false)
	case format.PageTypeInteriorIndex:
		return parseIndexCell(cellData, usableSize, true)
	default:
		return nil, fmt.Errorf("%w: page type 0x%02x", errors.ErrCorruptPage, pageType)
	}
}

// parseTableLeafCell parses a table leaf cell:
// varint(payload_size), varint(rowid), payload, [overflow page].
func parseTableLeafCell(cellData []byte, usableSize int) (*Cell, error) {
	c := &Cell{}
	offset := 0

	payloadSize, n := varint.Get(cellData)
	if n == 0 {
		return nil, errors.NewRecord(0, "truncated payload size varint")
	}
	c.PayloadSize = int(payloadSize)
	offset += n

	rowid, n := varint.Get(cellData[offset:])
	if n == 0 {
		return nil, errors.NewRecord(0, "truncated rowid varint")
	}
	c.Rowid = int64(rowid)
	offset += n

	return finishPayloadCell(c, cellData, offset, usableSize, tableMaxLocal(usableSize))
}

// parseTableInteriorCell parses a table interior cell:
// 4-byte left child page number, varint(rowid boundary key).
func parseTableInteriorCell(cellData []byte) (*Cell, error) {
	if len(cellData) < 4 {
		return nil, fmt.Errorf("%w: interior cell shorter than child pointer", errors.ErrCorruptPage)
	}

	c := &Cell{ChildPage: binary.BigEndian.Uint32(cellData[:4])}

	rowid, n := varint.Get(cellData[4:])
	if n == 0 {
		return nil, errors.NewRecord(0, "truncated boundary rowid varint")
	}
	c.Rowid = int64(rowid)

	return c, nil
}

// parseIndexCell parses an index cell. Interior index cells carry a
// 4-byte left child page number before the payload; leaf cells do not.
func parseIndexCell(cellData []byte, usableSize int, interior bool) (*Cell, error) {
	c := &Cell{}
	offset := 0

	if interior {
		if len(cellData) < 4 {
			return nil, fmt.Errorf("%w: interior cell shorter than child pointer", errors.ErrCorruptPage)
		}
		c.ChildPage = binary.BigEndian.Uint32(cellData[:4])
		offset = 4
	}

	payloadSize, n := varint.Get(cellData[offset:])
	if n == 0 {
		return nil, errors.NewRecord(0, "truncated payload size varint")
	}
	c.PayloadSize = int(payloadSize)
	offset += n

	return finishPayloadCell(c, cellData, offset, usableSize, indexMaxLocal(usableSize))
}

// finishPayloadCell slices out the local payload and, when the
// declared size exceeds what fits locally, the overflow page number.
func finishPayloadCell(c *Cell, cellData []byte, offset, usableSize, maxLocal int) (*Cell, error) {
	local := c.PayloadSize
	if c.PayloadSize > maxLocal {
		local = surplusLocal(c.PayloadSize, usableSize, maxLocal)
	}

	if offset+local > len(cellData) {
		return nil, errors.NewRecord(c.Rowid,
			fmt.Sprintf("local payload of %d bytes overruns cell", local))
	}
	c.Payload = cellData[offset : offset+local]

	if c.PayloadSize > maxLocal {
		overflowOffset := offset + local
		if overflowOffset+4 > len(cellData) {
			return nil, errors.NewRecord(c.Rowid, "overflow page number truncated")
		}
		c.OverflowPage = binary.BigEndian.Uint32(cellData[overflowOffset:])
		if c.OverflowPage == 0 {
			return nil, errors.NewRecord(c.Rowid, "payload overflows but overflow page is 0")
		}
	}

	return c, nil
}

// Local payload limits per the SQLite file format. Table leaves embed
// at most usable-35 bytes; index pages at most ((usable-12)*64/255)-23.
// Both share the minimum ((usable-12)*32/255)-23.

func tableMaxLocal(usableSize int) int {
	return usableSize - 35
}

func indexMaxLocal(usableSize int) int {
	return (usableSize-12)*64/255 - 23
}

func minLocal(usableSize int) int {
	return (usableSize-12)*32/255 - 23
}

// surplusLocal computes how many payload bytes stay on the page when
// the payload spills: spill whole overflow pages if possible, keeping
// the tail local only when it fits under maxLocal.
func surplusLocal(payloadSize, usableSize, maxLocal int) int {
	min := minLocal(usableSize)
	surplus := min + (payloadSize-min)%(usableSize-4)
	if surplus <= maxLocal {
		return surplus
	}
	return min
}
