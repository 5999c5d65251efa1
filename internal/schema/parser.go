// Package schema parses PostgreSQL-flavored DDL text into table and column
// descriptors. Parsing is string-level and deliberately lenient: a table that
// is absent, or a statement the parser does not understand, yields empty
// results rather than an error, so partial schema text never breaks table
// discovery.
package schema

import (
	"regexp"
	"strings"
)

// createTablePattern locates CREATE TABLE statements, tolerant of an optional
// IF NOT EXISTS clause and optional double-quoting of the table name.
var createTablePattern = regexp.MustCompile(
	`(?i)\bCREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?"?([A-Za-z_][A-Za-z0-9_]*)"?`,
)

// Table-level constraint leaders that are not column definitions.
var tableConstraintLeaders = map[string]bool{
	"PRIMARY":    true,
	"FOREIGN":    true,
	"UNIQUE":     true,
	"CONSTRAINT": true,
	"CHECK":      true,
	"EXCLUDE":    true,
}

// ParseSchema extracts every CREATE TABLE statement from the schema text in a
// single pass. Interleaved CREATE EXTENSION, CREATE INDEX, and INSERT
// statements are tolerated; their parentheses are never confused with a column
// list because each table's column block is located by balanced-paren scanning
// from its own CREATE TABLE match.
func ParseSchema(schemaText string) []Table {
	var tables []Table

	for _, match := range createTablePattern.FindAllStringSubmatchIndex(schemaText, -1) {
		name := schemaText[match[2]:match[3]]

		openIdx := nextOpenParen(schemaText, match[1])
		if openIdx < 0 {
			continue
		}

		block, ok := parenBlock(schemaText, openIdx)
		if !ok {
			continue
		}

		tables = append(tables, Table{Name: name, Columns: parseColumns(block)})
	}

	return tables
}

// ExtractColumns returns the parsed columns of the named table, or an empty
// slice when the table does not appear in the schema text.
func ExtractColumns(schemaText, tableName string) []Column {
	for _, table := range ParseSchema(schemaText) {
		if table.Name == tableName {
			return table.Columns
		}
	}

	return []Column{}
}

// nextOpenParen finds the first '(' after start, giving up at the statement
// terminator so a parenless statement cannot steal the next statement's block.
func nextOpenParen(s string, start int) int {
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			return i
		case ';':
			return -1
		}
	}

	return -1
}

// parenBlock returns the contents of the balanced parenthesis group opening at
// openIdx. Nesting depth and quote state are tracked so parentheses inside
// VECTOR(384), REFERENCES t(id), ENUM('a','b'), or string literals do not
// terminate the block early.
func parenBlock(s string, openIdx int) (string, bool) {
	if openIdx < 0 || openIdx >= len(s) || s[openIdx] != '(' {
		return "", false
	}

	depth := 0

	var quote byte

	escaped := false

	for i := openIdx; i < len(s); i++ {
		ch := s[i]

		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == quote:
				quote = 0
			}

			continue
		}

		switch ch {
		case '\'', '"':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[openIdx+1 : i], true
			}
		}
	}

	return "", false
}

// parseColumns splits a column-list block into definitions and parses each one
func parseColumns(block string) []Column {
	var columns []Column

	for _, def := range splitTopLevel(block) {
		if col, ok := parseColumnDef(def); ok {
			columns = append(columns, col)
		}
	}

	return columns
}

// splitTopLevel splits on commas at parenthesis depth zero outside string
// literals, in a single left-to-right scan. A comma inside ENUM('x,y') or
// REFERENCES t(a,b) does not split.
func splitTopLevel(s string) []string {
	var parts []string

	depth := 0
	start := 0

	var quote byte

	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == quote:
				quote = 0
			}

			continue
		}

		switch ch {
		case '\'', '"':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}

	parts = append(parts, s[start:])

	return parts
}

// parseColumnDef parses one column definition: the first whitespace-delimited
// token is the name, the remainder is mapped to a value type. Table-level
// constraint entries (PRIMARY KEY (...), FOREIGN KEY ...) are skipped.
func parseColumnDef(def string) (Column, bool) {
	trimmed := strings.TrimSpace(def)
	if trimmed == "" {
		return Column{}, false
	}

	fields := strings.Fields(trimmed)
	name := strings.Trim(fields[0], `"`)

	if tableConstraintLeaders[strings.ToUpper(name)] {
		return Column{}, false
	}

	rest := strings.TrimSpace(trimmed[len(fields[0]):])
	valueType, sqlType := MapType(rest)

	return Column{
		Name:       name,
		SQLType:    sqlType,
		Type:       valueType,
		NotNull:    notNullPattern.MatchString(rest),
		HasDefault: defaultPattern.MatchString(rest),
	}, true
}

var (
	notNullPattern = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	defaultPattern = regexp.MustCompile(`(?i)\bDEFAULT\b|\bGENERATED\s+(?:ALWAYS|BY\s+DEFAULT)\s+AS\s+IDENTITY\b`)
)

// parseEnumLiterals extracts the ordered quoted literal list from the inside
// of an ENUM(...) clause. Backslash escapes and doubled quotes are honored.
func parseEnumLiterals(inner string) []string {
	var values []string

	for i := 0; i < len(inner); i++ {
		quote := inner[i]
		if quote != '\'' && quote != '"' {
			continue
		}

		var literal strings.Builder

		i++

		closed := false
		for i < len(inner) && !closed {
			ch := inner[i]

			switch {
			case ch == '\\' && i+1 < len(inner):
				literal.WriteByte(inner[i+1])
				i += 2
			case ch == quote && i+1 < len(inner) && inner[i+1] == quote:
				literal.WriteByte(quote)
				i += 2
			case ch == quote:
				closed = true // outer loop increment steps past the closing quote
			default:
				literal.WriteByte(ch)
				i++
			}
		}

		values = append(values, literal.String())
	}

	return values
}
