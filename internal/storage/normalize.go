package storage

import (
	"regexp"
	"strings"
)

// The schema text contract is PostgreSQL-flavored DDL (pgvector included);
// DuckDB speaks a close dialect but not an identical one. Normalize rewrites
// the differences statement by statement:
//
//   - CREATE EXTENSION statements are dropped (no extension loading needed)
//   - VECTOR(n) / VECTOR columns become FLOAT[] lists
//   - JSONB becomes JSON
//   - GENERATED ... AS IDENTITY becomes a per-table sequence default
//   - PRIMARY KEY and UNIQUE constraints are stripped: DuckDB runs UPDATE as
//     delete+insert and re-checks ART indexes against the not-yet-deleted row,
//     so any UPDATE on a keyed table fails with a duplicate-key error. The
//     trade-off is that uniqueness is not engine-enforced; identity/sequence
//     defaults still generate distinct ids.
//   - CREATE TABLE / CREATE INDEX gain IF NOT EXISTS so repeated
//     initialization is safe
//
// All rewrites apply only outside quoted string literals.
var (
	extensionStmtPattern  = regexp.MustCompile(`(?i)^\s*CREATE\s+EXTENSION\b`)
	tableNamePattern      = regexp.MustCompile(`(?i)\bCREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?"?([A-Za-z_][A-Za-z0-9_]*)"?`)
	identityClausePattern = regexp.MustCompile(`(?i)\bGENERATED\s+(?:ALWAYS|BY\s+DEFAULT)\s+AS\s+IDENTITY\b`)
	jsonbTypePattern      = regexp.MustCompile(`(?i)\bJSONB\b`)
	vectorTypePattern     = regexp.MustCompile(`(?i)\bVECTOR\s*\(\s*\d+\s*\)|\bVECTOR\b`)
	tableKeyConstraint    = regexp.MustCompile(`(?i),\s*(?:CONSTRAINT\s+\w+\s+)?(?:PRIMARY\s+KEY|UNIQUE)\s*\([^()]*\)`)
	columnKeyConstraint   = regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\b|\bUNIQUE\b`)
	createTableLead       = regexp.MustCompile(`(?i)\bCREATE\s+TABLE\s+`)
	createIndexLead       = regexp.MustCompile(`(?i)\b(CREATE\s+(?:UNIQUE\s+)?INDEX)\s+`)
	ifNotExistsClause     = regexp.MustCompile(`(?i)\bIF\s+NOT\s+EXISTS\b`)
)

// Normalize rewrites Postgres-flavored schema text into the DuckDB dialect
func Normalize(schemaText string) string {
	var out []string

	for _, stmt := range splitStatements(schemaText) {
		if extensionStmtPattern.MatchString(stmt) {
			continue
		}

		stmt = mapOutsideQuotes(stmt, func(seg string) string {
			seg = jsonbTypePattern.ReplaceAllString(seg, "JSON")
			return vectorTypePattern.ReplaceAllString(seg, "FLOAT[]")
		})

		if m := tableNamePattern.FindStringSubmatch(stmt); m != nil {
			table := m[1]

			hasIdentity := false

			stmt = mapOutsideQuotes(stmt, func(seg string) string {
				if identityClausePattern.MatchString(seg) {
					hasIdentity = true
					seg = identityClausePattern.ReplaceAllString(seg, "DEFAULT nextval('seq_"+table+"')")
				}

				seg = tableKeyConstraint.ReplaceAllString(seg, "")

				return columnKeyConstraint.ReplaceAllString(seg, "")
			})

			if hasIdentity {
				out = append(out, "CREATE SEQUENCE IF NOT EXISTS seq_"+table+" START 1")
			}

			if !ifNotExistsClause.MatchString(stmt) {
				stmt = createTableLead.ReplaceAllString(stmt, "CREATE TABLE IF NOT EXISTS ")
			}
		} else if createIndexLead.MatchString(stmt) && !ifNotExistsClause.MatchString(stmt) {
			stmt = createIndexLead.ReplaceAllString(stmt, "$1 IF NOT EXISTS ")
		}

		out = append(out, stmt)
	}

	if len(out) == 0 {
		return ""
	}

	return strings.Join(out, ";\n") + ";"
}

// splitStatements splits schema text on semicolons outside string literals
func splitStatements(s string) []string {
	var stmts []string

	start := 0

	var quote byte

	escaped := false

	flush := func(end int) {
		stmt := strings.TrimSpace(s[start:end])
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}

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
		case ';':
			flush(i)
			start = i + 1
		}
	}

	flush(len(s))

	return stmts
}

// mapOutsideQuotes applies fn to the segments of s that lie outside string
// literals, passing quoted content through verbatim
func mapOutsideQuotes(s string, fn func(string) string) string {
	var out strings.Builder

	segStart := 0

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
				out.WriteString(s[segStart : i+1])
				segStart = i + 1
			}

			continue
		}

		if ch == '\'' || ch == '"' {
			quote = ch
			out.WriteString(fn(s[segStart:i]))
			segStart = i
		}
	}

	if segStart < len(s) {
		if quote != 0 {
			out.WriteString(s[segStart:]) // unterminated literal passes through
		} else {
			out.WriteString(fn(s[segStart:]))
		}
	}

	return out.String()
}
