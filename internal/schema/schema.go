// Package schema loads table and index definitions from the
// sqlite_master catalog.
//
// sqlite_master is an ordinary table b-tree rooted at page 1:
//
//	CREATE TABLE sqlite_master (
//	  type TEXT,      -- "table", "index", "trigger", "view"
//	  name TEXT,      -- object name
//	  tbl_name TEXT,  -- owning table name
//	  rootpage INT,   -- root b-tree page
//	  sql TEXT        -- CREATE statement
//	);
//
// Column order and indexed columns are recovered from the stored
// CREATE statements by string-level extraction of the parenthesized
// list, not a full SQL parse.
package schema

import (
	"sort"
	"strings"

	"github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/internal/btree"
	"github.com/yuann3/sequel/internal/pager"
	"github.com/yuann3/sequel/record"
)

// Table describes one table from the catalog.
type Table struct {
	Name       string   // Declared name
	RootPage   uint32   // Root page of the table b-tree
	SQL        string   // CREATE TABLE statement text
	Columns    []string // Column names in declared order
	RowidAlias string   // Column declared INTEGER PRIMARY KEY, "" if none
}

// Index describes one single-column index from the catalog.
type Index struct {
	Name     string // Declared name
	Table    string // Owning table name
	RootPage uint32 // Root page of the index b-tree
	Column   string // Indexed column name
	SQL      string // CREATE INDEX statement text
}

// Catalog holds every table and index definition found in
// sqlite_master. It is built once per run and never mutated.
type Catalog struct {
	tables  map[string]*Table // keyed by lowercased name
	indexes []*Index
}

// sqlite_master column positions
const (
	masterColType     = 0
	masterColName     = 1
	masterColTblName  = 2
	masterColRootPage = 3
	masterColSQL      = 4
)

// Load reads the catalog from the table tree rooted at page 1.
func Load(pg *pager.Pager) (*Catalog, error) {
	cat := &Catalog{tables: make(map[string]*Table)}

	cur := btree.NewTableCursor(pg, 1)
	for {
		ok, err := cur.Next()
		if err != nil {
			return nil, errors.Wrap(err, "scan sqlite_master")
		}
		if !ok {
			break
		}

		rec, err := cur.Record()
		if err != nil {
			return nil, errors.Wrap(err, "decode sqlite_master row")
		}
		if len(rec.Values) < 5 {
			return nil, errors.NewRecord(cur.Rowid(), "sqlite_master row with fewer than 5 columns")
		}

		kind := rec.Values[masterColType]
		name := rec.Values[masterColName]
		tblName := rec.Values[masterColTblName]
		rootPage := rec.Values[masterColRootPage]
		sqlText := rec.Values[masterColSQL]

		if kind.Type != record.TypeText || name.Type != record.TypeText {
			continue
		}

		switch kind.Text {
		case "table":
			t := &Table{
				Name:     name.Text,
				RootPage: uint32(rootPage.Int),
			}
			if sqlText.Type == record.TypeText {
				t.SQL = sqlText.Text
				t.Columns, t.RowidAlias = parseCreateTable(sqlText.Text)
			}
			cat.tables[strings.ToLower(t.Name)] = t

		case "index":
			if sqlText.Type != record.TypeText {
				// Auto-indexes (sqlite_autoindex_*) have no SQL text and
				// unknown column lists; skip them.
				continue
			}
			col, ok := parseCreateIndex(sqlText.Text)
			if !ok {
				continue
			}
			owner := ""
			if tblName.Type == record.TypeText {
				owner = tblName.Text
			}
			cat.indexes = append(cat.indexes, &Index{
				Name:     name.Text,
				Table:    owner,
				RootPage: uint32(rootPage.Int),
				Column:   col,
				SQL:      sqlText.Text,
			})
		}
	}

	return cat, nil
}

// Table looks up a table by name, case-insensitively.
func (c *Catalog) Table(name string) (*Table, error) {
	t, ok := c.tables[strings.ToLower(name)]
	if !ok {
		return nil, errors.NewSchema("table", name)
	}
	return t, nil
}

// TableNames returns the names of user tables in sorted order,
// excluding sqlite_* internal tables.
func (c *Catalog) TableNames() []string {
	var names []string
	for _, t := range c.tables {
		if strings.HasPrefix(t.Name, "sqlite_") {
			continue
		}
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// IndexOn returns a single-column index covering the given table and
// column, if one exists.
func (c *Catalog) IndexOn(table, column string) (*Index, bool) {
	for _, ix := range c.indexes {
		if strings.EqualFold(ix.Table, table) && strings.EqualFold(ix.Column, column) {
			return ix, true
		}
	}
	return nil, false
}

// Indexes returns every explicit index in the schema.
func (c *Catalog) Indexes() []*Index {
	return c.indexes
}

// ColumnIndex resolves a column name to its position in the table's
// declared order, case-insensitively.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, col := range t.Columns {
		if strings.EqualFold(col, name) {
			return i, nil
		}
	}
	return 0, &errors.SchemaError{Kind: "column", Name: name, Err: errors.ErrColumnNotFound}
}

// IsRowidAlias reports whether the named column aliases the rowid
// (declared INTEGER PRIMARY KEY, or the conventional "rowid" name).
func (t *Table) IsRowidAlias(name string) bool {
	if strings.EqualFold(name, "rowid") {
		return true
	}
	return t.RowidAlias != "" && strings.EqualFold(name, t.RowidAlias)
}
