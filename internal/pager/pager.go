// Package pager provides read-only page access to a SQLite database
// file.
//
// The pager views its byte source as a sequence of fixed-size pages,
// numbered from 1. The workload is strictly read-only: pages are
// immutable once read and are cached for the lifetime of the pager.
package pager

import (
	"fmt"
	"io"

	"github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/internal/format"
)

// Pager reads fixed-size pages from a database file.
type Pager struct {
	src    io.ReaderAt
	size   int64 // total bytes available from src
	header format.Header

	// cache holds pages already read. The source file never changes
	// during a run, so entries are never invalidated.
	cache map[uint32][]byte
}

// New creates a Pager over src, which must hold size bytes. The
// 100-byte database header is parsed immediately.
func New(src io.ReaderAt, size int64) (*Pager, error) {
	var hdr [format.HeaderSize]byte
	n, err := src.ReadAt(hdr[:], 0)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "read database header")
	}
	if n < format.HeaderSize {
		return nil, fmt.Errorf("database header: %w: got %d bytes, want %d",
			errors.ErrTruncated, n, format.HeaderSize)
	}

	p := &Pager{
		src:   src,
		size:  size,
		cache: make(map[uint32][]byte),
	}
	if err := p.header.Parse(hdr[:]); err != nil {
		return nil, errors.Wrap(err, "parse database header")
	}
	if p.header.DatabaseSize == 0 {
		// Files written before the in-header size was maintained
		// leave it zero; fall back to the file length.
		p.header.DatabaseSize = uint32(size / int64(p.PageSize()))
	}
	return p, nil
}

// PageSize returns the database page size in bytes.
func (p *Pager) PageSize() int {
	return p.header.GetPageSize()
}

// PageCount returns the number of pages declared in the header.
func (p *Pager) PageCount() uint32 {
	return p.header.DatabaseSize
}

// UsableSize returns the usable bytes per page (page size minus the
// reserved region).
func (p *Pager) UsableSize() int {
	return p.header.UsableSize()
}

// Header returns the parsed database header.
func (p *Pager) Header() format.Header {
	return p.header
}

// ReadPage returns the raw contents of the given 1-based page.
// It fails with ErrOutOfRange for page numbers outside 1..PageCount
// and ErrTruncated when the source holds fewer bytes than the page
// demands.
func (p *Pager) ReadPage(pageNum uint32) ([]byte, error) {
	if pageNum < 1 || pageNum > p.PageCount() {
		return nil, errors.NewPage(pageNum, errors.ErrOutOfRange,
			fmt.Sprintf("page number outside 1..%d", p.PageCount()))
	}

	if data, ok := p.cache[pageNum]; ok {
		return data, nil
	}

	pageSize := p.PageSize()
	offset := int64(pageNum-1) * int64(pageSize)
	if offset+int64(pageSize) > p.size {
		return nil, errors.NewPage(pageNum, errors.ErrTruncated,
			fmt.Sprintf("file ends at byte %d, page needs %d", p.size, offset+int64(pageSize)))
	}

	data := make([]byte, pageSize)
	n, err := p.src.ReadAt(data, offset)
	if err != nil && err != io.EOF {
		return nil, errors.NewPage(pageNum, errors.ErrTruncated, err.Error())
	}
	if n < pageSize {
		return nil, errors.NewPage(pageNum, errors.ErrTruncated,
			fmt.Sprintf("short read: got %d of %d bytes", n, pageSize))
	}

	p.cache[pageNum] = data
	return data, nil
}
