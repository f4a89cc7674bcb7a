package pager

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	coreerrors "github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/internal/format"
)

// testDB builds an in-memory database image: a valid header on page 1
// plus pageCount-1 trailing pages filled with the page number byte.
func testDB(pageSize uint16, pageCount uint32, reserved uint8) []byte {
	actual := int(pageSize)
	if pageSize == 1 {
		actual = format.MaxPageSize
	}
	data := make([]byte, actual*int(pageCount))
	copy(data, format.MagicString)
	binary.BigEndian.PutUint16(data[format.OffsetPageSize:], pageSize)
	data[format.OffsetReservedSpace] = reserved
	binary.BigEndian.PutUint32(data[format.OffsetDatabaseSize:], pageCount)
	binary.BigEndian.PutUint32(data[format.OffsetTextEncoding:], format.EncodingUTF8)
	for p := 1; p < int(pageCount); p++ {
		data[p*actual] = byte(p)
	}
	return data
}

func newTestPager(t *testing.T, data []byte) *Pager {
	t.Helper()
	p, err := New(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestPagerHeaderFields(t *testing.T) {
	p := newTestPager(t, testDB(512, 3, 16))

	if got := p.PageSize(); got != 512 {
		t.Errorf("PageSize() = %d, want 512", got)
	}
	if got := p.PageCount(); got != 3 {
		t.Errorf("PageCount() = %d, want 3", got)
	}
	if got := p.UsableSize(); got != 496 {
		t.Errorf("UsableSize() = %d, want 496", got)
	}
}

func TestPagerMaxPageSizeEncoding(t *testing.T) {
	// A stored page size of 1 means 65536.
	p := newTestPager(t, testDB(1, 1, 0))
	if got := p.PageSize(); got != format.MaxPageSize {
		t.Errorf("PageSize() = %d, want %d", got, format.MaxPageSize)
	}
}

func TestPagerReadPage(t *testing.T) {
	p := newTestPager(t, testDB(512, 3, 0))

	for n := uint32(2); n <= 3; n++ {
		page, err := p.ReadPage(n)
		if err != nil {
			t.Fatalf("ReadPage(%d) error = %v", n, err)
		}
		if len(page) != 512 {
			t.Errorf("page %d length = %d, want 512", n, len(page))
		}
		if page[0] != byte(n-1) {
			t.Errorf("page %d marker = %d, want %d", n, page[0], n-1)
		}
	}

	// Page 1 starts with the file header.
	page, err := p.ReadPage(1)
	if err != nil {
		t.Fatalf("ReadPage(1) error = %v", err)
	}
	if string(page[:16]) != format.MagicString {
		t.Errorf("page 1 does not start with the magic string")
	}
}

func TestPagerOutOfRange(t *testing.T) {
	p := newTestPager(t, testDB(512, 2, 0))

	for _, n := range []uint32{0, 3, 100} {
		_, err := p.ReadPage(n)
		if !errors.Is(err, coreerrors.ErrOutOfRange) {
			t.Errorf("ReadPage(%d) error = %v, want ErrOutOfRange", n, err)
		}
	}
}

func TestPagerTruncatedFile(t *testing.T) {
	data := testDB(512, 3, 0)
	short := data[:len(data)-100] // page 3 incomplete

	p, err := New(bytes.NewReader(short), int64(len(short)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := p.ReadPage(2); err != nil {
		t.Errorf("ReadPage(2) error = %v, want nil", err)
	}
	if _, err := p.ReadPage(3); !errors.Is(err, coreerrors.ErrTruncated) {
		t.Errorf("ReadPage(3) error = %v, want ErrTruncated", err)
	}
}

func TestPagerTruncatedHeader(t *testing.T) {
	_, err := New(bytes.NewReader(make([]byte, 50)), 50)
	if !errors.Is(err, coreerrors.ErrTruncated) {
		t.Errorf("New() error = %v, want ErrTruncated", err)
	}
}

func TestPagerBadMagic(t *testing.T) {
	data := testDB(512, 1, 0)
	data[0] = 'X'
	if _, err := New(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Error("New() succeeded with corrupt magic string")
	}
}

func TestPagerZeroPageCountFallback(t *testing.T) {
	data := testDB(512, 4, 0)
	binary.BigEndian.PutUint32(data[format.OffsetDatabaseSize:], 0)

	p := newTestPager(t, data)
	if got := p.PageCount(); got != 4 {
		t.Errorf("PageCount() = %d, want 4 derived from file size", got)
	}
}

func TestPagerCachesPages(t *testing.T) {
	p := newTestPager(t, testDB(512, 2, 0))

	first, err := p.ReadPage(2)
	if err != nil {
		t.Fatalf("ReadPage(2) error = %v", err)
	}
	second, err := p.ReadPage(2)
	if err != nil {
		t.Fatalf("ReadPage(2) error = %v", err)
	}
	if &first[0] != &second[0] {
		t.Error("repeated reads returned distinct buffers")
	}
}
