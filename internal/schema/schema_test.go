package schema

import (
	"errors"
	"reflect"
	"testing"

	coreerrors "github.com/yuann3/sequel/core/errors"
)

func testCatalog() *Catalog {
	return &Catalog{
		tables: map[string]*Table{
			"companies": {
				Name:       "companies",
				RootPage:   2,
				Columns:    []string{"id", "name", "country"},
				RowidAlias: "id",
			},
			"apples": {
				Name:     "apples",
				RootPage: 3,
				Columns:  []string{"name", "color"},
			},
			"sqlite_sequence": {
				Name:     "sqlite_sequence",
				RootPage: 4,
				Columns:  []string{"name", "seq"},
			},
		},
		indexes: []*Index{
			{Name: "idx_companies_country", Table: "companies", RootPage: 5, Column: "country"},
		},
	}
}

func TestCatalogTableLookup(t *testing.T) {
	cat := testCatalog()

	for _, name := range []string{"companies", "COMPANIES", "Companies"} {
		tbl, err := cat.Table(name)
		if err != nil {
			t.Fatalf("Table(%q) error = %v", name, err)
		}
		if tbl.Name != "companies" {
			t.Errorf("Table(%q).Name = %q", name, tbl.Name)
		}
	}

	_, err := cat.Table("missing")
	if !errors.Is(err, coreerrors.ErrSchemaNotFound) {
		t.Errorf("Table(missing) error = %v, want ErrSchemaNotFound", err)
	}
}

func TestCatalogTableNames(t *testing.T) {
	got := testCatalog().TableNames()
	want := []string{"apples", "companies"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TableNames() = %v, want %v", got, want)
	}
}

func TestCatalogIndexOn(t *testing.T) {
	cat := testCatalog()

	ix, ok := cat.IndexOn("companies", "country")
	if !ok {
		t.Fatal("IndexOn(companies, country) not found")
	}
	if ix.RootPage != 5 {
		t.Errorf("RootPage = %d, want 5", ix.RootPage)
	}

	if _, ok := cat.IndexOn("COMPANIES", "Country"); !ok {
		t.Error("IndexOn should match case-insensitively")
	}
	if _, ok := cat.IndexOn("companies", "name"); ok {
		t.Error("IndexOn(companies, name) found, want none")
	}
}

func TestTableColumnIndex(t *testing.T) {
	tbl, _ := testCatalog().Table("companies")

	for i, name := range []string{"id", "NAME", "Country"} {
		got, err := tbl.ColumnIndex(name)
		if err != nil {
			t.Fatalf("ColumnIndex(%q) error = %v", name, err)
		}
		if got != i {
			t.Errorf("ColumnIndex(%q) = %d, want %d", name, got, i)
		}
	}

	_, err := tbl.ColumnIndex("height")
	if !errors.Is(err, coreerrors.ErrColumnNotFound) {
		t.Errorf("ColumnIndex(height) error = %v, want ErrColumnNotFound", err)
	}
}

func TestTableIsRowidAlias(t *testing.T) {
	cat := testCatalog()
	companies, _ := cat.Table("companies")
	apples, _ := cat.Table("apples")

	if !companies.IsRowidAlias("id") || !companies.IsRowidAlias("ID") {
		t.Error("id should alias the rowid for companies")
	}
	if !companies.IsRowidAlias("rowid") || !apples.IsRowidAlias("rowid") {
		t.Error("rowid is always an alias")
	}
	if apples.IsRowidAlias("name") {
		t.Error("name should not alias the rowid for apples")
	}
}
