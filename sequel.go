// Package sequel reads SQLite database files without linking the
// SQLite C library. It parses the file format directly: the 100-byte
// header, b-tree pages, and the record serialization used for table
// rows and index entries.
//
// The database is opened read-only. Writes, journals, and WAL files
// are out of scope; a database mid-transaction may not be readable.
package sequel

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/internal/pager"
	"github.com/yuann3/sequel/internal/query"
	"github.com/yuann3/sequel/internal/schema"
	"github.com/yuann3/sequel/record"
)

// xzMagic is the stream header every xz container starts with.
var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// DB is an open database file.
type DB struct {
	src    io.ReaderAt
	size   int64
	closer io.Closer

	pg  *pager.Pager
	cat *schema.Catalog
}

// Info summarizes the database header and schema.
type Info struct {
	PageSize   int    `json:"page_size"`
	PageCount  uint32 `json:"page_count"`
	TableCount int    `json:"table_count"`
}

// Open opens the database file at path. Files compressed with xz are
// detected by their stream header and decompressed into memory.
func Open(path string) (*DB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	magic := make([]byte, len(xzMagic))
	if _, err := io.ReadFull(f, magic); err == nil && bytes.Equal(magic, xzMagic) {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("seek database: %w", err)
		}
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		data, err := io.ReadAll(xzr)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decompress database: %w", err)
		}
		db, err := OpenReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat database: %w", err)
	}
	db, err := OpenReader(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	db.closer = f
	return db, nil
}

// OpenReader opens a database from an io.ReaderAt covering size bytes.
// The reader must remain valid for the lifetime of the DB.
func OpenReader(r io.ReaderAt, size int64) (*DB, error) {
	pg, err := pager.New(r, size)
	if err != nil {
		return nil, err
	}
	cat, err := schema.Load(pg)
	if err != nil {
		return nil, err
	}
	return &DB{src: r, size: size, pg: pg, cat: cat}, nil
}

// Close releases the underlying file, if Open owned one.
func (db *DB) Close() error {
	if db.closer != nil {
		err := db.closer.Close()
		db.closer = nil
		return err
	}
	return nil
}

// Info reports the page size, page count, and the number of user
// tables (sqlite_* internal tables excluded).
func (db *DB) Info() Info {
	return Info{
		PageSize:   db.pg.PageSize(),
		PageCount:  db.pg.PageCount(),
		TableCount: len(db.cat.TableNames()),
	}
}

// Tables returns the user table names in sorted order.
func (db *DB) Tables() []string {
	return db.cat.TableNames()
}

// Query executes a SELECT statement and returns its result set.
func (db *DB) Query(sql string) (*Result, error) {
	stmt, err := query.Parse(sql)
	if err != nil {
		return nil, err
	}
	res, err := query.New(db.pg, db.cat).Execute(stmt)
	if err != nil {
		return nil, err
	}
	return &Result{
		Columns: res.Columns,
		Rows:    res.Rows,
		Count:   res.Count,
		IsCount: res.IsCount,
	}, nil
}

// Result is a materialized result set. For COUNT(*) queries only
// Count is populated and IsCount is true.
type Result struct {
	Columns []string
	Rows    [][]record.Value
	Count   int64
	IsCount bool
}

// Format renders the result in the pipe-delimited shell format:
// one row per line, column values joined with "|".
func (r *Result) Format() string {
	if r.IsCount {
		return fmt.Sprintf("%d\n", r.Count)
	}
	var b strings.Builder
	cols := make([]string, len(r.Columns))
	for _, row := range r.Rows {
		for i, v := range row {
			if i < len(cols) {
				cols[i] = v.String()
			}
		}
		b.WriteString(strings.Join(cols[:len(row)], "|"))
		b.WriteByte('\n')
	}
	return b.String()
}

// Hash returns the BLAKE3 digest of the page contents, hashed in page
// order. Two byte-identical databases hash identically regardless of
// how they were opened.
func (db *DB) Hash() (string, error) {
	h := blake3.New()
	count := db.pg.PageCount()
	for n := uint32(1); n <= count; n++ {
		page, err := db.pg.ReadPage(n)
		if err != nil {
			return "", errors.Wrapf(err, "hash page %d", n)
		}
		h.Write(page)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Indexes returns the names of explicit indexes, sorted.
func (db *DB) Indexes() []string {
	names := make([]string, 0)
	for _, ix := range db.cat.Indexes() {
		names = append(names, ix.Name)
	}
	sort.Strings(names)
	return names
}
