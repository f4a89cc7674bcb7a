package record

import (
	"encoding/binary"
	"fmt"

	"github.com/yuann3/sequel/core/errors"
)

// PageSource supplies raw pages for overflow chain resolution. It is
// implemented by pager.Pager.
type PageSource interface {
	// ReadPage returns the raw contents of the given 1-based page.
	ReadPage(pageNum uint32) ([]byte, error)
	// UsableSize returns the usable bytes per page.
	UsableSize() int
}

// AssemblePayload reconstructs a full record payload from the locally
// stored prefix and its overflow chain. Each overflow page holds a
// 4-byte next-page number followed by content; a next-page number of 0
// terminates the chain.
func AssemblePayload(local []byte, total int, overflowPage uint32, src PageSource) ([]byte, error) {
	if overflowPage == 0 {
		if len(local) != total {
			return nil, errors.NewRecord(0,
				fmt.Sprintf("payload declares %d bytes but stores %d with no overflow", total, len(local)))
		}
		return local, nil
	}

	payload := make([]byte, 0, total)
	payload = append(payload, local...)

	perPage := src.UsableSize() - 4
	if perPage <= 0 {
		return nil, errors.NewRecord(0, "usable page size too small for overflow content")
	}

	visited := make(map[uint32]bool)
	page := overflowPage
	for page != 0 {
		if visited[page] {
			return nil, errors.NewRecord(0,
				fmt.Sprintf("cyclic overflow chain revisits page %d", page))
		}
		visited[page] = true

		data, err := src.ReadPage(page)
		if err != nil {
			return nil, errors.Wrapf(err, "overflow page %d", page)
		}
		if len(data) < 4 {
			return nil, errors.NewRecord(0,
				fmt.Sprintf("overflow page %d shorter than its next-page pointer", page))
		}

		next := binary.BigEndian.Uint32(data[:4])
		remaining := total - len(payload)
		if remaining <= 0 {
			return nil, errors.NewRecord(0, "overflow chain longer than declared payload")
		}

		take := perPage
		if take > remaining {
			take = remaining
		}
		if 4+take > len(data) {
			return nil, errors.NewRecord(0,
				fmt.Sprintf("overflow page %d holds %d bytes, need %d", page, len(data)-4, take))
		}
		payload = append(payload, data[4:4+take]...)
		page = next
	}

	if len(payload) != total {
		return nil, errors.NewRecord(0,
			fmt.Sprintf("overflow chain yields %d bytes, payload declares %d", len(payload), total))
	}
	return payload, nil
}
