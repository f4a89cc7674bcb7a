package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestPageError(t *testing.T) {
	tests := []struct {
		name     string
		err      *PageError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with message",
			err:      &PageError{Page: 7, Message: "short read", Err: ErrTruncated},
			wantMsg:  "page 7: short read",
			wantBase: ErrTruncated,
		},
		{
			name:     "sentinel only",
			err:      &PageError{Page: 2, Err: ErrOutOfRange},
			wantMsg:  "page 2: out of range",
			wantBase: ErrOutOfRange,
		},
		{
			name:     "defaults to corrupt page",
			err:      &PageError{Page: 1, Message: "bad type"},
			wantMsg:  "page 1: bad type",
			wantBase: ErrCorruptPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, tt.wantBase) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.wantBase)
			}
		})
	}
}

func TestRecordErrorDefaultsToMalformed(t *testing.T) {
	err := NewRecord(42, "header overrun")
	if got := err.Error(); got != "record at rowid 42: header overrun" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrMalformedRecord) {
		t.Error("RecordError should unwrap to ErrMalformedRecord")
	}
}

func TestSchemaError(t *testing.T) {
	err := NewSchema("table", "missing")
	if got := err.Error(); got != "table not found: missing" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Error("SchemaError should unwrap to ErrSchemaNotFound")
	}

	colErr := &SchemaError{Kind: "column", Name: "height", Err: ErrColumnNotFound}
	if !errors.Is(colErr, ErrColumnNotFound) {
		t.Error("column SchemaError should unwrap to ErrColumnNotFound")
	}
}

func TestQueryError(t *testing.T) {
	err := NewQuery("SELECT * FROM t", "star projection")
	if !errors.Is(err, ErrUnsupportedQuery) {
		t.Error("QueryError should unwrap to ErrUnsupportedQuery")
	}
}

func TestWrap(t *testing.T) {
	base := fmt.Errorf("disk error")
	wrapped := Wrap(base, "read page")
	if wrapped.Error() != "read page: disk error" {
		t.Errorf("Wrap() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("Wrap() should preserve the chain")
	}

	if Wrap(nil, "nothing") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "nothing %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}
