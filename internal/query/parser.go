// Package query parses and executes the supported SELECT grammar.
//
// The surface is deliberately fixed: projection of named columns or
// COUNT(*), a single table, and an optional single equality predicate.
// Anything else is rejected with ErrUnsupportedQuery.
package query

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/yuann3/sequel/core/errors"
	"github.com/yuann3/sequel/record"
)

// Select is the parsed intent of a supported statement.
type Select struct {
	Table   string
	Columns []string // projected column names; empty when Count is set
	Count   bool     // COUNT(*) projection
	Where   *Predicate
}

// Predicate is a single equality condition.
type Predicate struct {
	Column string
	Value  record.Value
}

// sqlLexer tokenizes the supported grammar. Order matters: COUNT(*)
// must win over a bare identifier.
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "CountStar", Pattern: `(?i)COUNT\s*\(\s*\*\s*\)`},
	{Name: "Keyword", Pattern: `(?i)\b(SELECT|FROM|WHERE)\b`},
	{Name: "Ident", Pattern: "[a-zA-Z_][a-zA-Z0-9_]*|\"[^\"]*\"|`[^`]*`|\\[[^\\]]*\\]"},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `[-+]?\d+(\.\d+)?([eE][-+]?\d+)?`},
	{Name: "Punct", Pattern: `[(),=;*]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// selectGrammar mirrors the statement shape for participle.
type selectGrammar struct {
	Count   bool          `parser:"\"SELECT\" ( @CountStar"`
	Columns []string      `parser:"        | @Ident (\",\" @Ident)* )"`
	Table   string        `parser:"\"FROM\" @Ident"`
	Where   *whereGrammar `parser:"(\"WHERE\" @@)? \";\"?"`
}

type whereGrammar struct {
	Column string         `parser:"@Ident"`
	Value  literalGrammar `parser:"\"=\" @@"`
}

type literalGrammar struct {
	Str *string `parser:"  @String"`
	Num *string `parser:"| @Number"`
}

var selectParser = participle.MustBuild[selectGrammar](
	participle.Lexer(sqlLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
)

// Parse turns a statement string into a Select intent.
func Parse(sql string) (*Select, error) {
	g, err := selectParser.ParseString("", sql)
	if err != nil {
		return nil, &errors.QueryError{SQL: sql, Message: err.Error(), Err: errors.ErrUnsupportedQuery}
	}

	sel := &Select{
		Table: unquoteIdent(g.Table),
		Count: g.Count,
	}
	for _, col := range g.Columns {
		sel.Columns = append(sel.Columns, unquoteIdent(col))
	}

	if g.Where != nil {
		val, err := g.Where.Value.toValue()
		if err != nil {
			return nil, &errors.QueryError{SQL: sql, Message: err.Error(), Err: errors.ErrUnsupportedQuery}
		}
		sel.Where = &Predicate{
			Column: unquoteIdent(g.Where.Column),
			Value:  val,
		}
	}

	return sel, nil
}

// toValue converts a parsed literal into a typed value: text literals
// keep their bytes, numeric literals become integers when they have no
// fractional part.
func (l literalGrammar) toValue() (record.Value, error) {
	if l.Str != nil {
		s := *l.Str
		s = s[1 : len(s)-1]                     // strip surrounding quotes
		s = strings.ReplaceAll(s, "''", "'")    // unescape doubled quotes
		return record.TextValue(s), nil
	}

	s := *l.Num
	if !strings.ContainsAny(s, ".eE") {
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return record.IntValue(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return record.Value{}, err
	}
	return record.FloatValue(f), nil
}

// unquoteIdent strips "name", `name`, or [name] quoting.
func unquoteIdent(s string) string {
	if len(s) < 2 {
		return s
	}
	switch {
	case s[0] == '"' && s[len(s)-1] == '"',
		s[0] == '`' && s[len(s)-1] == '`':
		return s[1 : len(s)-1]
	case s[0] == '[' && s[len(s)-1] == ']':
		return s[1 : len(s)-1]
	}
	return s
}
