package format

import (
	"encoding/binary"
	"testing"
)

func validHeader() []byte {
	data := make([]byte, HeaderSize)
	copy(data, MagicString)
	binary.BigEndian.PutUint16(data[OffsetPageSize:], 4096)
	data[OffsetReservedSpace] = 0
	binary.BigEndian.PutUint32(data[OffsetFileChangeCounter:], 12)
	binary.BigEndian.PutUint32(data[OffsetDatabaseSize:], 7)
	binary.BigEndian.PutUint32(data[OffsetFreelistCount:], 1)
	binary.BigEndian.PutUint32(data[OffsetTextEncoding:], EncodingUTF8)
	return data
}

func TestHeaderParse(t *testing.T) {
	var h Header
	if err := h.Parse(validHeader()); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if h.GetPageSize() != 4096 {
		t.Errorf("GetPageSize() = %d, want 4096", h.GetPageSize())
	}
	if h.DatabaseSize != 7 {
		t.Errorf("DatabaseSize = %d, want 7", h.DatabaseSize)
	}
	if h.FileChangeCounter != 12 {
		t.Errorf("FileChangeCounter = %d, want 12", h.FileChangeCounter)
	}
	if h.FreelistCount != 1 {
		t.Errorf("FreelistCount = %d, want 1", h.FreelistCount)
	}
	if h.TextEncoding != EncodingUTF8 {
		t.Errorf("TextEncoding = %d, want %d", h.TextEncoding, EncodingUTF8)
	}
}

func TestHeaderParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"short header", func(d []byte) []byte { return d[:50] }},
		{"bad magic", func(d []byte) []byte { d[0] = 'x'; return d }},
		{"page size not power of two", func(d []byte) []byte {
			binary.BigEndian.PutUint16(d[OffsetPageSize:], 1000)
			return d
		}},
		{"page size too small", func(d []byte) []byte {
			binary.BigEndian.PutUint16(d[OffsetPageSize:], 256)
			return d
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h Header
			if err := h.Parse(tt.mutate(validHeader())); err == nil {
				t.Error("Parse() succeeded, want error")
			}
		})
	}
}

func TestHeaderPageSizeOne(t *testing.T) {
	data := validHeader()
	binary.BigEndian.PutUint16(data[OffsetPageSize:], 1)

	var h Header
	if err := h.Parse(data); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if h.GetPageSize() != MaxPageSize {
		t.Errorf("GetPageSize() = %d, want %d", h.GetPageSize(), MaxPageSize)
	}
}

func TestHeaderUsableSize(t *testing.T) {
	data := validHeader()
	data[OffsetReservedSpace] = 32

	var h Header
	if err := h.Parse(data); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if h.UsableSize() != 4064 {
		t.Errorf("UsableSize() = %d, want 4064", h.UsableSize())
	}
}

func TestIsValidPageSize(t *testing.T) {
	valid := []int{512, 1024, 2048, 4096, 8192, 16384, 32768, 65536}
	for _, s := range valid {
		if !IsValidPageSize(s) {
			t.Errorf("IsValidPageSize(%d) = false, want true", s)
		}
	}
	invalid := []int{0, 1, 256, 511, 513, 1000, 65537, 131072}
	for _, s := range invalid {
		if IsValidPageSize(s) {
			t.Errorf("IsValidPageSize(%d) = true, want false", s)
		}
	}
}
