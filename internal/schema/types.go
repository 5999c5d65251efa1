package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ValueKind is the semantic value type a column maps to
type ValueKind int

const (
	// TypeUnknown marks a column whose SQL type was not recognized. Values
	// pass through untouched; callers must branch on the tag explicitly.
	TypeUnknown ValueKind = iota
	TypeInteger
	TypeText
	TypeBoolean
	TypeTimestamp
	TypeFloatVector
	TypeJSON
	TypeEnum
)

// String returns the string representation of the value kind
func (k ValueKind) String() string {
	switch k {
	case TypeInteger:
		return "integer"
	case TypeText:
		return "text"
	case TypeBoolean:
		return "boolean"
	case TypeTimestamp:
		return "timestamp"
	case TypeFloatVector:
		return "float_vector"
	case TypeJSON:
		return "json"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ValueType is the mapped semantic type of a column
type ValueType struct {
	Kind       ValueKind
	Dimensions int      // set for TypeFloatVector when VECTOR(n) declared a size
	EnumValues []string // set for TypeEnum, in declaration order
	Raw        string   // raw SQL type token for TypeUnknown
}

// Column describes one parsed column definition
type Column struct {
	Name       string
	SQLType    string // canonical recognized type, e.g. "VECTOR(384)", or the raw token
	Type       ValueType
	NotNull    bool
	HasDefault bool // DEFAULT clause or generated identity
}

// Required reports whether a create payload must supply this column
func (c Column) Required() bool {
	return c.NotNull && !c.HasDefault
}

// EncryptionEligible reports whether this column is transparently encrypted
// when a key is active. Only TEXT qualifies; VARCHAR maps to the same value
// kind but stays plaintext.
func (c Column) EncryptionEligible() bool {
	return c.SQLType == "TEXT"
}

// Table describes one parsed CREATE TABLE statement
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the named column, if present
func (t Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}

	return Column{}, false
}

// EmbeddingColumn returns the vector column used for similarity search: a
// column whose name contains "embedding" and whose type is a float vector.
func (t Table) EmbeddingColumn() (Column, bool) {
	for _, col := range t.Columns {
		if col.Type.Kind == TypeFloatVector && strings.Contains(strings.ToLower(col.Name), "embedding") {
			return col, true
		}
	}

	return Column{}, false
}

// Type keyword patterns, matched against the column definition remainder in
// fixed precedence order. ENUM and VECTOR(n) come first because their bare
// keywords would otherwise shadow the parenthesized forms.
var (
	enumPattern      = regexp.MustCompile(`(?i)\bENUM\s*\(`)
	vectorDimPattern = regexp.MustCompile(`(?i)\bVECTOR\s*\(\s*(\d+)\s*\)`)
	vectorPattern    = regexp.MustCompile(`(?i)\bVECTOR\b`)
	bigintPattern    = regexp.MustCompile(`(?i)\bBIGINT\b`)
	integerPattern   = regexp.MustCompile(`(?i)\bINTEGER\b|\bINT\b`)
	varcharPattern   = regexp.MustCompile(`(?i)\bVARCHAR\b`)
	textPattern      = regexp.MustCompile(`(?i)\bTEXT\b`)
	booleanPattern   = regexp.MustCompile(`(?i)\bBOOLEAN\b|\bBOOL\b`)
	timestampPattern = regexp.MustCompile(`(?i)\bTIMESTAMP\b`)
	jsonbPattern     = regexp.MustCompile(`(?i)\bJSONB\b`)
	jsonPattern      = regexp.MustCompile(`(?i)\bJSON\b`)
)

// MapType maps a SQL type string (the column definition remainder after the
// column name, constraints and all) to its semantic value type plus the
// canonical recognized SQL type token. Keyword matching runs against a copy
// with string literals blanked out, so a DEFAULT 'vector' literal cannot
// reclassify the column. The same mapping backs parsing, encryption
// eligibility, and value coercion, so they can never disagree.
func MapType(sqlType string) (ValueType, string) {
	trimmed := strings.TrimSpace(sqlType)
	scrubbed := scrubLiterals(trimmed)

	switch {
	case enumPattern.MatchString(scrubbed):
		loc := enumPattern.FindStringIndex(scrubbed)
		// scrubbing preserves offsets, so the literal list is read from the
		// original text at the matched position
		inner, ok := parenBlock(trimmed, loc[1]-1)
		if !ok {
			break
		}

		values := parseEnumLiterals(inner)

		return ValueType{Kind: TypeEnum, EnumValues: values},
			fmt.Sprintf("ENUM(%s)", quoteEnumLiterals(values))

	case vectorDimPattern.MatchString(scrubbed):
		dims, _ := strconv.Atoi(vectorDimPattern.FindStringSubmatch(scrubbed)[1])
		return ValueType{Kind: TypeFloatVector, Dimensions: dims}, fmt.Sprintf("VECTOR(%d)", dims)

	case vectorPattern.MatchString(scrubbed):
		return ValueType{Kind: TypeFloatVector}, "VECTOR"

	case bigintPattern.MatchString(scrubbed):
		return ValueType{Kind: TypeInteger}, "BIGINT"

	case integerPattern.MatchString(scrubbed):
		return ValueType{Kind: TypeInteger}, "INTEGER"

	case varcharPattern.MatchString(scrubbed):
		return ValueType{Kind: TypeText}, "VARCHAR"

	case textPattern.MatchString(scrubbed):
		return ValueType{Kind: TypeText}, "TEXT"

	case booleanPattern.MatchString(scrubbed):
		return ValueType{Kind: TypeBoolean}, "BOOLEAN"

	case timestampPattern.MatchString(scrubbed):
		return ValueType{Kind: TypeTimestamp}, "TIMESTAMP"

	case jsonbPattern.MatchString(scrubbed):
		return ValueType{Kind: TypeJSON}, "JSONB"

	case jsonPattern.MatchString(scrubbed):
		return ValueType{Kind: TypeJSON}, "JSON"
	}

	raw := trimmed
	if idx := strings.IndexAny(raw, " \t\n"); idx >= 0 {
		raw = raw[:idx]
	}

	return ValueType{Kind: TypeUnknown, Raw: raw}, raw
}

// scrubLiterals overwrites quoted string literals (delimiters included) with
// spaces. The result has the same length as the input, keeping match offsets
// valid against the original text.
func scrubLiterals(s string) string {
	b := []byte(s)

	var quote byte

	escaped := false

	for i := 0; i < len(b); i++ {
		ch := b[i]

		if quote == 0 {
			if ch == '\'' || ch == '"' {
				quote = ch
				b[i] = ' '
			}

			continue
		}

		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == quote:
			quote = 0
		}

		b[i] = ' '
	}

	return string(b)
}

func quoteEnumLiterals(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}

	return strings.Join(quoted, ",")
}
