package btree

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/yuann3/sequel/internal/format"
	"github.com/yuann3/sequel/internal/varint"
	"github.com/yuann3/sequel/record"
)

func TestParseTableLeafCell(t *testing.T) {
	payload := record.Encode([]record.Value{record.TextValue("Acme")})

	var cell []byte
	var buf [9]byte
	cell = append(cell, buf[:varint.Put(buf[:], uint64(len(payload)))]...)
	cell = append(cell, buf[:varint.Put(buf[:], 42)]...)
	cell = append(cell, payload...)

	c, err := ParseCell(format.PageTypeLeafTable, cell, 4096)
	if err != nil {
		t.Fatalf("ParseCell() error = %v", err)
	}
	if c.Rowid != 42 {
		t.Errorf("Rowid = %d, want 42", c.Rowid)
	}
	if c.PayloadSize != len(payload) {
		t.Errorf("PayloadSize = %d, want %d", c.PayloadSize, len(payload))
	}
	if !bytes.Equal(c.Payload, payload) {
		t.Errorf("Payload = %x, want %x", c.Payload, payload)
	}
	if c.OverflowPage != 0 {
		t.Errorf("OverflowPage = %d, want 0", c.OverflowPage)
	}
}

func TestParseTableInteriorCell(t *testing.T) {
	cell := make([]byte, 6)
	binary.BigEndian.PutUint32(cell[:4], 9)
	cell[4] = 0x81 // varint 200
	cell[5] = 0x48

	c, err := ParseCell(format.PageTypeInteriorTable, cell, 4096)
	if err != nil {
		t.Fatalf("ParseCell() error = %v", err)
	}
	if c.ChildPage != 9 {
		t.Errorf("ChildPage = %d, want 9", c.ChildPage)
	}
	if c.Rowid != 200 {
		t.Errorf("Rowid = %d, want 200", c.Rowid)
	}
}

func TestParseIndexCells(t *testing.T) {
	payload := record.Encode([]record.Value{record.TextValue("japan"), record.IntValue(3)})

	var leaf []byte
	var buf [9]byte
	leaf = append(leaf, buf[:varint.Put(buf[:], uint64(len(payload)))]...)
	leaf = append(leaf, payload...)

	c, err := ParseCell(format.PageTypeLeafIndex, leaf, 4096)
	if err != nil {
		t.Fatalf("ParseCell(leaf) error = %v", err)
	}
	if !bytes.Equal(c.Payload, payload) {
		t.Errorf("leaf Payload = %x, want %x", c.Payload, payload)
	}

	interior := make([]byte, 4)
	binary.BigEndian.PutUint32(interior, 11)
	interior = append(interior, leaf...)

	c, err = ParseCell(format.PageTypeInteriorIndex, interior, 4096)
	if err != nil {
		t.Fatalf("ParseCell(interior) error = %v", err)
	}
	if c.ChildPage != 11 {
		t.Errorf("interior ChildPage = %d, want 11", c.ChildPage)
	}
	if !bytes.Equal(c.Payload, payload) {
		t.Errorf("interior Payload = %x, want %x", c.Payload, payload)
	}
}

func TestParseCellOverflow(t *testing.T) {
	const usable = 512
	maxLocal := tableMaxLocal(usable)
	payloadSize := usable * 3 // forces a spill
	local := surplusLocal(payloadSize, usable, maxLocal)

	var cell []byte
	var buf [9]byte
	cell = append(cell, buf[:varint.Put(buf[:], uint64(payloadSize))]...)
	cell = append(cell, buf[:varint.Put(buf[:], 1)]...)
	cell = append(cell, make([]byte, local)...)
	overflowPtr := make([]byte, 4)
	binary.BigEndian.PutUint32(overflowPtr, 6)
	cell = append(cell, overflowPtr...)

	c, err := ParseCell(format.PageTypeLeafTable, cell, usable)
	if err != nil {
		t.Fatalf("ParseCell() error = %v", err)
	}
	if len(c.Payload) != local {
		t.Errorf("local payload = %d bytes, want %d", len(c.Payload), local)
	}
	if c.OverflowPage != 6 {
		t.Errorf("OverflowPage = %d, want 6", c.OverflowPage)
	}
	if c.PayloadSize != payloadSize {
		t.Errorf("PayloadSize = %d, want %d", c.PayloadSize, payloadSize)
	}
}

func TestParseCellTruncatedPayload(t *testing.T) {
	var cell []byte
	var buf [9]byte
	cell = append(cell, buf[:varint.Put(buf[:], 50)]...) // declares 50 bytes
	cell = append(cell, buf[:varint.Put(buf[:], 1)]...)
	cell = append(cell, make([]byte, 10)...) // stores 10

	if _, err := ParseCell(format.PageTypeLeafTable, cell, 4096); err == nil {
		t.Error("ParseCell() succeeded with truncated payload")
	}
}

func TestLocalPayloadLimits(t *testing.T) {
	tests := []struct {
		usable       int
		wantTableMax int
		wantIndexMax int
		wantMin      int
	}{
		{512, 477, 102, 39},
		{1024, 989, 230, 103},
		{4096, 4061, 1002, 489},
		{65536, 65501, 16422, 8199},
	}
	for _, tt := range tests {
		if got := tableMaxLocal(tt.usable); got != tt.wantTableMax {
			t.Errorf("tableMaxLocal(%d) = %d, want %d", tt.usable, got, tt.wantTableMax)
		}
		if got := indexMaxLocal(tt.usable); got != tt.wantIndexMax {
			t.Errorf("indexMaxLocal(%d) = %d, want %d", tt.usable, got, tt.wantIndexMax)
		}
		if got := minLocal(tt.usable); got != tt.wantMin {
			t.Errorf("minLocal(%d) = %d, want %d", tt.usable, got, tt.wantMin)
		}
	}
}
