package query

import (
	"fmt"

	"github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/internal/btree"
	"github.com/yuann3/sequel/internal/pager"
	"github.com/yuann3/sequel/internal/schema"
	"github.com/yuann3/sequel/record"
)

// rowidColumn marks a projected column resolved to the cell rowid
// rather than a stored field.
const rowidColumn = -1

// Result holds the outcome of executing a Select.
type Result struct {
	Columns []string         // projected column names, in projection order
	Rows    [][]record.Value // one tuple per row, nil for COUNT(*)
	Count   int64            // row count, meaningful when IsCount is set
	IsCount bool
}

// Executor runs Select intents against one database. It is built per
// invocation: the catalog is loaded once and passed in explicitly.
type Executor struct {
	pg  *pager.Pager
	cat *schema.Catalog
}

// New creates an Executor over the given pager and catalog.
func New(pg *pager.Pager, cat *schema.Catalog) *Executor {
	return &Executor{pg: pg, cat: cat}
}

// Execute resolves the table and columns, picks a scan strategy, and
// produces result rows. With an equality predicate on an indexed
// column it seeks the index and fetches rows by rowid; otherwise it
// scans the table tree and filters.
func (e *Executor) Execute(sel *Select) (*Result, error) {
	tbl, err := e.cat.Table(sel.Table)
	if err != nil {
		return nil, err
	}

	proj, err := resolveColumns(tbl, sel.Columns)
	if err != nil {
		return nil, err
	}

	var pred *resolvedPredicate
	if sel.Where != nil {
		pred, err = resolvePredicate(tbl, sel.Where)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{Columns: sel.Columns, IsCount: sel.Count}

	emit := func(rowid int64, rec *record.Record) {
		if sel.Count {
			res.Count++
			return
		}
		row := make([]record.Value, len(proj))
		for i, idx := range proj {
			row[i] = columnValue(rec, rowid, idx)
		}
		res.Rows = append(res.Rows, row)
	}

	switch {
	case pred != nil && pred.isRowid && pred.value.Type == record.TypeInteger:
		// Equality on the rowid alias: a single point lookup.
		rec, found, err := btree.SeekRowid(e.pg, tbl.RootPage, pred.value.Int)
		if err != nil {
			return nil, err
		}
		if found {
			emit(pred.value.Int, rec)
		}
		return res, nil

	case pred != nil && !pred.isRowid:
		if ix, ok := e.cat.IndexOn(tbl.Name, sel.Where.Column); ok {
			if err := e.indexSeek(tbl, ix, pred, emit); err != nil {
				return nil, err
			}
			return res, nil
		}
	}

	if err := e.fullScan(tbl, pred, sel.Count, emit); err != nil {
		return nil, err
	}
	return res, nil
}

// indexSeek walks the index tree for rowids matching the predicate and
// fetches each row from the table tree by point lookup.
func (e *Executor) indexSeek(tbl *schema.Table, ix *schema.Index, pred *resolvedPredicate, emit func(int64, *record.Record)) error {
	cur := btree.SeekEqual(e.pg, ix.RootPage, pred.value)
	for {
		rowid, ok, err := cur.Next()
		if err != nil {
			return errors.Wrapf(err, "seek index %s", ix.Name)
		}
		if !ok {
			return nil
		}

		rec, found, err := btree.SeekRowid(e.pg, tbl.RootPage, rowid)
		if err != nil {
			return err
		}
		if !found {
			return errors.NewPage(tbl.RootPage, errors.ErrCorruptPage,
				fmt.Sprintf("index %s references missing rowid %d", ix.Name, rowid))
		}
		emit(rowid, rec)
	}
}

// fullScan walks the table tree, filtering by the predicate when one
// is present. A bare COUNT(*) never decodes row payloads.
func (e *Executor) fullScan(tbl *schema.Table, pred *resolvedPredicate, counting bool, emit func(int64, *record.Record)) error {
	cur := btree.NewTableCursor(e.pg, tbl.RootPage)
	for {
		ok, err := cur.Next()
		if err != nil {
			return errors.Wrapf(err, "scan table %s", tbl.Name)
		}
		if !ok {
			return nil
		}

		if pred == nil && counting {
			emit(cur.Rowid(), nil)
			continue
		}

		rec, err := cur.Record()
		if err != nil {
			return errors.Wrapf(err, "scan table %s", tbl.Name)
		}

		if pred != nil {
			got := columnValue(rec, cur.Rowid(), pred.index)
			if !record.Equal(got, pred.value) {
				continue
			}
		}
		emit(cur.Rowid(), rec)
	}
}

// resolvedPredicate is a predicate with its column bound to a position.
type resolvedPredicate struct {
	index   int // stored column position, or rowidColumn
	isRowid bool
	value   record.Value
}

func resolvePredicate(tbl *schema.Table, p *Predicate) (*resolvedPredicate, error) {
	if tbl.IsRowidAlias(p.Column) {
		return &resolvedPredicate{index: rowidColumn, isRowid: true, value: p.Value}, nil
	}
	idx, err := tbl.ColumnIndex(p.Column)
	if err != nil {
		return nil, err
	}
	return &resolvedPredicate{index: idx, value: p.Value}, nil
}

// resolveColumns maps projected names to stored positions, with the
// rowid alias resolved to the cell rowid.
func resolveColumns(tbl *schema.Table, names []string) ([]int, error) {
	proj := make([]int, len(names))
	for i, name := range names {
		if tbl.IsRowidAlias(name) {
			proj[i] = rowidColumn
			continue
		}
		idx, err := tbl.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		proj[i] = idx
	}
	return proj, nil
}

// columnValue extracts one column from a decoded row. The rowid alias
// column is materialized from the cell rowid; SQLite stores NULL in
// its record slot. Rows shorter than the declared column list (ALTER
// TABLE ADD COLUMN) read as NULL.
func columnValue(rec *record.Record, rowid int64, idx int) record.Value {
	if idx == rowidColumn {
		return record.IntValue(rowid)
	}
	if rec == nil || idx >= len(rec.Values) {
		return record.NullValue()
	}
	return rec.Values[idx]
}
