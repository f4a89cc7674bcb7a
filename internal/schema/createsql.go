package schema

import (
	"strings"
)

// Keywords that open a table-level constraint rather than a column
// definition inside CREATE TABLE.
var tableConstraintKeywords = map[string]bool{
	"primary":    true,
	"unique":     true,
	"check":      true,
	"foreign":    true,
	"constraint": true,
}

// parseCreateTable extracts the ordered column names from a CREATE
// TABLE statement, plus the column (if any) declared INTEGER PRIMARY
// KEY, which aliases the rowid.
//
// This is deliberately a string-level extraction of the parenthesized
// definition list: it handles quoted identifiers and nested
// parentheses, but not generated columns or exotic quoting inside
// CHECK expressions beyond balanced nesting.
func parseCreateTable(sql string) (columns []string, rowidAlias string) {
	body, ok := parenBody(sql)
	if !ok {
		return nil, ""
	}

	for _, def := range splitTopLevel(body) {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}

		name, rest := firstIdentifier(def)
		if name == "" {
			continue
		}
		if tableConstraintKeywords[strings.ToLower(name)] && !isQuoted(def) {
			continue
		}

		columns = append(columns, name)

		upper := strings.ToUpper(rest)
		if strings.HasPrefix(strings.TrimSpace(upper), "INTEGER") &&
			strings.Contains(upper, "PRIMARY KEY") {
			rowidAlias = name
		}
	}
	return columns, rowidAlias
}

// parseCreateIndex extracts the indexed column name from a CREATE
// INDEX statement. Only the first column of the list is returned;
// multi-column indexes are not used by the executor.
func parseCreateIndex(sql string) (string, bool) {
	body, ok := parenBody(sql)
	if !ok {
		return "", false
	}
	defs := splitTopLevel(body)
	if len(defs) == 0 {
		return "", false
	}
	name, _ := firstIdentifier(strings.TrimSpace(defs[0]))
	if name == "" {
		return "", false
	}
	return name, true
}

// parenBody returns the text between the first '(' and its matching
// last ')' in sql.
func parenBody(sql string) (string, bool) {
	start := strings.IndexByte(sql, '(')
	end := strings.LastIndexByte(sql, ')')
	if start < 0 || end < 0 || start >= end {
		return "", false
	}
	return sql[start+1 : end], true
}

// splitTopLevel splits s on commas that are not nested inside
// parentheses or quotes.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var quote byte
	last := 0

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '[':
			quote = ']'
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// firstIdentifier returns the leading identifier of a column
// definition, unquoting "name", `name`, [name], or 'name' forms, and
// the remainder of the definition after it.
func firstIdentifier(def string) (string, string) {
	def = strings.TrimSpace(def)
	if def == "" {
		return "", ""
	}

	switch def[0] {
	case '"', '`', '\'':
		closer := def[0]
		if end := strings.IndexByte(def[1:], closer); end >= 0 {
			return def[1 : 1+end], def[2+end:]
		}
	case '[':
		if end := strings.IndexByte(def, ']'); end > 0 {
			return def[1:end], def[end+1:]
		}
	}

	end := 0
	for end < len(def) && !isIdentBreak(def[end]) {
		end++
	}
	return def[:end], def[end:]
}

func isIdentBreak(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '(' || ch == ','
}

// isQuoted reports whether a definition begins with a quoted
// identifier, which can never be a bare constraint keyword.
func isQuoted(def string) bool {
	switch def[0] {
	case '"', '`', '\'', '[':
		return true
	}
	return false
}
