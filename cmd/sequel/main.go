// Command sequel inspects SQLite database files.
//
// Usage:
//
//	sequel <database> .dbinfo
//	sequel <database> .tables
//	sequel <database> .dbhash
//	sequel <database> "SELECT name FROM companies WHERE country = 'japan'"
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	json "github.com/goccy/go-json"

	"github.com/yuann3/sequel"
	"github.com/yuann3/sequel/internal/logging"
	"github.com/yuann3/sequel/record"
)

// CLI is the root command grammar.
type CLI struct {
	JSON    bool `help:"Emit output as JSON instead of the shell format."`
	Verbose bool `short:"v" help:"Enable debug logging on stderr."`

	Path    string `arg:"" help:"Path to the database file" type:"existingfile"`
	Command string `arg:"" help:"Dot command (.dbinfo, .tables, .dbhash) or a SELECT statement"`
}

func (c *CLI) Run() error {
	if c.Verbose {
		logging.InitLogger(logging.LevelDebug, logging.FormatText, os.Stderr)
	}

	db, err := sequel.Open(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	info := db.Info()
	logging.Debug("database opened",
		"path", c.Path,
		"page_size", info.PageSize,
		"page_count", info.PageCount,
		"tables", info.TableCount)

	switch strings.ToLower(strings.TrimSpace(c.Command)) {
	case ".dbinfo":
		return c.dbinfo(db)
	case ".tables":
		return c.tables(db)
	case ".dbhash":
		return c.dbhash(db)
	default:
		return c.query(db)
	}
}

func (c *CLI) dbinfo(db *sequel.DB) error {
	info := db.Info()
	if c.JSON {
		return emitJSON(info)
	}
	fmt.Printf("database page size: %d\n", info.PageSize)
	fmt.Printf("database page count: %d\n", info.PageCount)
	fmt.Printf("number of tables: %d\n", info.TableCount)
	return nil
}

func (c *CLI) tables(db *sequel.DB) error {
	names := db.Tables()
	if c.JSON {
		return emitJSON(map[string][]string{"tables": names})
	}
	sort.Strings(names)
	fmt.Println(strings.Join(names, " "))
	return nil
}

func (c *CLI) dbhash(db *sequel.DB) error {
	digest, err := db.Hash()
	if err != nil {
		return err
	}
	if c.JSON {
		return emitJSON(map[string]string{"blake3": digest})
	}
	fmt.Println(digest)
	return nil
}

func (c *CLI) query(db *sequel.DB) error {
	res, err := db.Query(c.Command)
	if err != nil {
		return err
	}
	logging.Debug("query executed", "sql", c.Command, "rows", len(res.Rows), "count", res.Count)
	if c.JSON {
		return emitJSON(jsonResult(res))
	}
	fmt.Print(res.Format())
	return nil
}

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// jsonResult flattens a result set into JSON-friendly values:
// NULL becomes null, integers and floats stay numeric, text stays a
// string, and blobs are hex-encoded.
func jsonResult(res *sequel.Result) any {
	if res.IsCount {
		return map[string]int64{"count": res.Count}
	}
	rows := make([][]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = jsonValue(v)
		}
		rows = append(rows, vals)
	}
	return map[string]any{"columns": res.Columns, "rows": rows}
}

func jsonValue(v record.Value) any {
	switch v.Type {
	case record.TypeNull:
		return nil
	case record.TypeInteger:
		return v.Int
	case record.TypeFloat:
		return v.Float
	case record.TypeText:
		return v.Text
	default:
		return fmt.Sprintf("x'%x'", v.Blob)
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("sequel"),
		kong.Description("Read-only SQLite database file inspector"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
