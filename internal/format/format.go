// Package format defines SQLite file format constants and the database
// header structure.
//
// This package provides the low-level file format definitions the read
// path consumes:
//   - Database header format and offsets
//   - Page type constants
//   - B-tree page header offsets
//   - Helper functions for validation
package format

import (
	"encoding/binary"
	"fmt"

	"github.com/yuann3/sequel/core/errors"
)

// SQLite file format constants
const (
	// HeaderSize is the database header size in bytes (first 100 bytes of the database file).
	HeaderSize = 100

	// MagicString is the magic header string for SQLite 3 database files.
	// Exactly 16 bytes including the null terminator.
	MagicString = "SQLite format 3\000"

	// MinPageSize is the minimum allowed page size (512 bytes).
	MinPageSize = 512

	// MaxPageSize is the maximum allowed page size (65536 bytes).
	MaxPageSize = 65536
)

// Header offsets - byte positions in the 100-byte database header
const (
	// OffsetMagic is the offset of the magic header string (16 bytes).
	OffsetMagic = 0

	// OffsetPageSize is the offset of the page size field (2 bytes big-endian).
	// A value of 1 represents 65536.
	OffsetPageSize = 16

	// OffsetReservedSpace is the reserved space at end of each page (1 byte).
	OffsetReservedSpace = 20

	// OffsetFileChangeCounter is the file change counter (4 bytes big-endian).
	OffsetFileChangeCounter = 24

	// OffsetDatabaseSize is the database size in pages (4 bytes big-endian).
	OffsetDatabaseSize = 28

	// OffsetFreelistCount is the total number of freelist pages (4 bytes big-endian).
	OffsetFreelistCount = 36

	// OffsetTextEncoding is the database text encoding (4 bytes big-endian).
	// 1 = UTF-8, 2 = UTF-16le, 3 = UTF-16be.
	OffsetTextEncoding = 56
)

// Text encodings - values for the OffsetTextEncoding field
const (
	// EncodingUTF8 indicates UTF-8 text encoding.
	EncodingUTF8 = 1

	// EncodingUTF16LE indicates UTF-16 little-endian text encoding.
	EncodingUTF16LE = 2

	// EncodingUTF16BE indicates UTF-16 big-endian text encoding.
	EncodingUTF16BE = 3
)

// Page types - first byte of B-tree page header
const (
	// PageTypeInteriorIndex is an interior index b-tree page (0x02).
	PageTypeInteriorIndex = 0x02

	// PageTypeInteriorTable is an interior table b-tree page (0x05).
	PageTypeInteriorTable = 0x05

	// PageTypeLeafIndex is a leaf index b-tree page (0x0a).
	PageTypeLeafIndex = 0x0a

	// PageTypeLeafTable is a leaf table b-tree page (0x0d).
	PageTypeLeafTable = 0x0d
)

// B-tree page header offsets
const (
	// BtreePageType is the page type (1 byte).
	BtreePageType = 0

	// BtreeFirstFreeblock is the first freeblock offset (2 bytes big-endian).
	BtreeFirstFreeblock = 1

	// BtreeCellCount is the number of cells (2 bytes big-endian).
	BtreeCellCount = 3

	// BtreeCellContentStart is the start of cell content area (2 bytes big-endian).
	BtreeCellContentStart = 5

	// BtreeFragmentedBytes is the number of fragmented free bytes (1 byte).
	BtreeFragmentedBytes = 7

	// BtreeRightmostPointer is the right-most child pointer (4 bytes big-endian).
	// Only present in interior pages (offset 8).
	BtreeRightmostPointer = 8
)

// B-tree page header sizes
const (
	// BtreeHeaderSizeLeaf is the size of a leaf page header (8 bytes).
	BtreeHeaderSizeLeaf = 8

	// BtreeHeaderSizeInterior is the size of an interior page header (12 bytes).
	// Includes the 4-byte right-most pointer.
	BtreeHeaderSizeInterior = 12
)

// Header represents the fields of the 100-byte SQLite database file
// header that the read path consumes. Fields the reader never looks at
// (journaling, vacuum, version counters) are not retained.
type Header struct {
	// PageSize is the database page size in bytes.
	// Stored as 1 in the file when the page size is 65536.
	PageSize uint16

	// ReservedSpace is the number of unused bytes at the end of each page.
	ReservedSpace uint8

	// FileChangeCounter is incremented whenever the database file is modified.
	FileChangeCounter uint32

	// DatabaseSize is the size of the database file in pages.
	DatabaseSize uint32

	// FreelistCount is the total number of freelist pages.
	FreelistCount uint32

	// TextEncoding is the database text encoding (1=UTF-8, 2=UTF-16le, 3=UTF-16be).
	TextEncoding uint32
}

// Parse parses the 100-byte database header from raw bytes.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header: %w: got %d bytes, want %d", errors.ErrTruncated, len(data), HeaderSize)
	}

	if string(data[OffsetMagic:OffsetMagic+16]) != MagicString {
		return fmt.Errorf("invalid magic header: %q", data[OffsetMagic:OffsetMagic+16])
	}

	h.PageSize = binary.BigEndian.Uint16(data[OffsetPageSize : OffsetPageSize+2])
	if !IsValidPageSize(h.GetPageSize()) {
		return fmt.Errorf("invalid page size: %d", h.GetPageSize())
	}

	h.ReservedSpace = data[OffsetReservedSpace]
	h.FileChangeCounter = binary.BigEndian.Uint32(data[OffsetFileChangeCounter : OffsetFileChangeCounter+4])
	h.DatabaseSize = binary.BigEndian.Uint32(data[OffsetDatabaseSize : OffsetDatabaseSize+4])
	h.FreelistCount = binary.BigEndian.Uint32(data[OffsetFreelistCount : OffsetFreelistCount+4])
	h.TextEncoding = binary.BigEndian.Uint32(data[OffsetTextEncoding : OffsetTextEncoding+4])

	return nil
}

// GetPageSize returns the actual page size, handling the special case
// where a stored value of 1 means 65536.
func (h *Header) GetPageSize() int {
	if h.PageSize == 1 {
		return MaxPageSize
	}
	return int(h.PageSize)
}

// UsableSize returns the number of usable bytes per page (page size
// minus the reserved region).
func (h *Header) UsableSize() int {
	return h.GetPageSize() - int(h.ReservedSpace)
}

// IsValidPageSize checks if a page size is valid.
// Valid page sizes are powers of 2 between 512 and 65536 inclusive.
func IsValidPageSize(size int) bool {
	if size < MinPageSize || size > MaxPageSize {
		return false
	}
	return size&(size-1) == 0
}
