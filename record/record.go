// Package record implements the SQLite record format.
//
// A record is a cell payload: a header of varint serial-type codes
// followed by a body of column values. The header begins with a varint
// giving the total header length, including that varint itself.
//
// Serial type codes:
//
//	0: NULL
//	1: 8-bit signed integer
//	2: 16-bit big-endian signed integer
//	3: 24-bit big-endian signed integer
//	4: 32-bit big-endian signed integer
//	5: 48-bit big-endian signed integer
//	6: 64-bit big-endian signed integer
//	7: IEEE 754 float64 (big-endian)
//	8: integer constant 0 (no data stored)
//	9: integer constant 1 (no data stored)
//	10,11: reserved for internal use
//	N>=12 (even): BLOB of (N-12)/2 bytes
//	N>=13 (odd): TEXT of (N-13)/2 bytes
package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/internal/varint"
)

// SerialType represents a SQLite serial type code
type SerialType uint64

const (
	SerialTypeNull    SerialType = 0
	SerialTypeInt8    SerialType = 1
	SerialTypeInt16   SerialType = 2
	SerialTypeInt24   SerialType = 3
	SerialTypeInt32   SerialType = 4
	SerialTypeInt48   SerialType = 5
	SerialTypeInt64   SerialType = 6
	SerialTypeFloat64 SerialType = 7
	SerialTypeZero    SerialType = 8
	SerialTypeOne     SerialType = 9
)

// ValueType discriminates the variants of Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInteger
	TypeFloat
	TypeText
	TypeBlob
)

// Value is a single decoded column value. Exactly one variant is
// meaningful, selected by Type.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Text  string
	Blob  []byte
}

// Record is an ordered sequence of column values decoded from a cell
// payload.
type Record struct {
	Values []Value
}

// IntValue creates an integer value
func IntValue(i int64) Value {
	return Value{Type: TypeInteger, Int: i}
}

// FloatValue creates a float value
func FloatValue(f float64) Value {
	return Value{Type: TypeFloat, Float: f}
}

// TextValue creates a text value
func TextValue(s string) Value {
	return Value{Type: TypeText, Text: s}
}

// BlobValue creates a blob value
func BlobValue(b []byte) Value {
	return Value{Type: TypeBlob, Blob: b}
}

// NullValue creates a null value
func NullValue() Value {
	return Value{Type: TypeNull}
}

// IsNull reports whether v is the NULL variant.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// String renders v the way the CLI prints result columns.
func (v Value) String() string {
	switch v.Type {
	case TypeNull:
		return "NULL"
	case TypeInteger:
		return fmt.Sprintf("%d", v.Int)
	case TypeFloat:
		return fmt.Sprintf("%g", v.Float)
	case TypeText:
		return v.Text
	case TypeBlob:
		return fmt.Sprintf("x'%x'", v.Blob)
	}
	return "?"
}

// SerialTypeLen returns the body length in bytes for a serial type.
func SerialTypeLen(st SerialType) int {
	switch st {
	case SerialTypeNull, SerialTypeZero, SerialTypeOne:
		return 0
	case SerialTypeInt8:
		return 1
	case SerialTypeInt16:
		return 2
	case SerialTypeInt24:
		return 3
	case SerialTypeInt32:
		return 4
	case SerialTypeInt48:
		return 6
	case SerialTypeInt64, SerialTypeFloat64:
		return 8
	default:
		if st >= 12 {
			return int(st-12) / 2
		}
		return 0
	}
}

// Decode parses a complete record payload into column values.
// The payload must already be fully assembled; overflow chains are
// resolved by AssemblePayload first.
func Decode(payload []byte) (*Record, error) {
	if len(payload) == 0 {
		return nil, errors.NewRecord(0, "empty payload")
	}

	headerLen, n := varint.Get(payload)
	if n == 0 {
		return nil, errors.NewRecord(0, "truncated header length varint")
	}
	if headerLen < uint64(n) || headerLen > uint64(len(payload)) {
		return nil, errors.NewRecord(0,
			fmt.Sprintf("header length %d outside payload of %d bytes", headerLen, len(payload)))
	}

	// Serial types fill the header exactly, including the length varint.
	var serialTypes []SerialType
	offset := n
	for offset < int(headerLen) {
		st, m := varint.Get(payload[offset:])
		if m == 0 || offset+m > int(headerLen) {
			return nil, errors.NewRecord(0, "serial type varint overruns header")
		}
		serialTypes = append(serialTypes, SerialType(st))
		offset += m
	}
	if offset != int(headerLen) {
		return nil, errors.NewRecord(0,
			fmt.Sprintf("header consumed %d bytes, declared %d", offset, headerLen))
	}

	values := make([]Value, len(serialTypes))
	for i, st := range serialTypes {
		val, m, err := decodeValue(payload, offset, st)
		if err != nil {
			return nil, err
		}
		values[i] = val
		offset += m
	}

	return &Record{Values: values}, nil
}

// decodeValue parses a single value from the record body.
func decodeValue(data []byte, offset int, st SerialType) (Value, int, error) {
	need := SerialTypeLen(st)
	if offset+need > len(data) {
		return Value{}, 0, errors.NewRecord(0,
			fmt.Sprintf("serial type %d needs %d body bytes, %d remain", st, need, len(data)-offset))
	}

	switch st {
	case SerialTypeNull:
		return NullValue(), 0, nil

	case SerialTypeZero:
		return IntValue(0), 0, nil

	case SerialTypeOne:
		return IntValue(1), 0, nil

	case SerialTypeInt8:
		return IntValue(int64(int8(data[offset]))), 1, nil

	case SerialTypeInt16:
		return IntValue(int64(int16(binary.BigEndian.Uint16(data[offset:])))), 2, nil

	case SerialTypeInt24:
		v := int32(data[offset])<<16 | int32(data[offset+1])<<8 | int32(data[offset+2])
		if v&0x800000 != 0 {
			v |= ^0xffffff // Sign extend
		}
		return IntValue(int64(v)), 3, nil

	case SerialTypeInt32:
		return IntValue(int64(int32(binary.BigEndian.Uint32(data[offset:])))), 4, nil

	case SerialTypeInt48:
		v := int64(data[offset])<<40 | int64(data[offset+1])<<32 |
			int64(data[offset+2])<<24 | int64(data[offset+3])<<16 |
			int64(data[offset+4])<<8 | int64(data[offset+5])
		if v&0x800000000000 != 0 {
			v |= ^0xffffffffffff // Sign extend
		}
		return IntValue(v), 6, nil

	case SerialTypeInt64:
		return IntValue(int64(binary.BigEndian.Uint64(data[offset:]))), 8, nil

	case SerialTypeFloat64:
		bits := binary.BigEndian.Uint64(data[offset:])
		return FloatValue(math.Float64frombits(bits)), 8, nil

	default:
		if st == 10 || st == 11 {
			return Value{}, 0, errors.NewRecord(0, fmt.Sprintf("reserved serial type %d", st))
		}
		b := make([]byte, need)
		copy(b, data[offset:offset+need])
		if st%2 == 0 {
			return BlobValue(b), need, nil
		}
		return TextValue(string(b)), need, nil
	}
}

// SerialTypeFor determines the smallest serial type for a value.
func SerialTypeFor(val Value) SerialType {
	switch val.Type {
	case TypeNull:
		return SerialTypeNull

	case TypeInteger:
		i := val.Int
		if i == 0 {
			return SerialTypeZero
		}
		if i == 1 {
			return SerialTypeOne
		}
		if i >= -128 && i <= 127 {
			return SerialTypeInt8
		}
		if i >= -32768 && i <= 32767 {
			return SerialTypeInt16
		}
		if i >= -8388608 && i <= 8388607 {
			return SerialTypeInt24
		}
		if i >= -2147483648 && i <= 2147483647 {
			return SerialTypeInt32
		}
		if i >= -140737488355328 && i <= 140737488355327 {
			return SerialTypeInt48
		}
		return SerialTypeInt64

	case TypeFloat:
		return SerialTypeFloat64

	case TypeText:
		return SerialType(13 + 2*len(val.Text))

	case TypeBlob:
		return SerialType(12 + 2*len(val.Blob))
	}

	return SerialTypeNull
}

// Encode builds a record payload from values. It is the symmetric
// construction to Decode and is used by tests and fixture builders.
func Encode(values []Value) []byte {
	serialTypes := make([]SerialType, len(values))
	serialTypesSize := 0
	bodySize := 0

	for i, val := range values {
		st := SerialTypeFor(val)
		serialTypes[i] = st
		serialTypesSize += varint.Len(uint64(st))
		bodySize += SerialTypeLen(st)
	}

	// The header length varint counts itself, so iterate until stable.
	headerSize := serialTypesSize + 1
	for {
		next := varint.Len(uint64(headerSize)) + serialTypesSize
		if next == headerSize {
			break
		}
		headerSize = next
	}

	buf := make([]byte, 0, headerSize+bodySize)
	var tmp [9]byte

	n := varint.Put(tmp[:], uint64(headerSize))
	buf = append(buf, tmp[:n]...)

	for _, st := range serialTypes {
		n = varint.Put(tmp[:], uint64(st))
		buf = append(buf, tmp[:n]...)
	}

	for i, val := range values {
		buf = appendValue(buf, val, serialTypes[i])
	}

	return buf
}

// appendValue appends a value's body bytes per its serial type.
func appendValue(buf []byte, val Value, st SerialType) []byte {
	switch st {
	case SerialTypeNull, SerialTypeZero, SerialTypeOne:
		return buf

	case SerialTypeInt8:
		return append(buf, byte(val.Int))

	case SerialTypeInt16:
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(val.Int))
		return append(buf, tmp[:]...)

	case SerialTypeInt24:
		v := uint32(val.Int)
		return append(buf, byte(v>>16), byte(v>>8), byte(v))

	case SerialTypeInt32:
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(val.Int))
		return append(buf, tmp[:]...)

	case SerialTypeInt48:
		v := uint64(val.Int)
		return append(buf,
			byte(v>>40), byte(v>>32), byte(v>>24),
			byte(v>>16), byte(v>>8), byte(v))

	case SerialTypeInt64:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(val.Int))
		return append(buf, tmp[:]...)

	case SerialTypeFloat64:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(val.Float))
		return append(buf, tmp[:]...)

	default:
		if st%2 == 0 {
			return append(buf, val.Blob...)
		}
		return append(buf, val.Text...)
	}
}
