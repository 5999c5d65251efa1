package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapTypeCanonicalTokens(t *testing.T) {
	tests := []struct {
		input   string
		kind    ValueKind
		sqlType string
	}{
		{"BIGINT PRIMARY KEY GENERATED ALWAYS AS IDENTITY", TypeInteger, "BIGINT"},
		{"bigint", TypeInteger, "BIGINT"},
		{"INTEGER NOT NULL", TypeInteger, "INTEGER"},
		{"INT", TypeInteger, "INTEGER"},
		{"TEXT NOT NULL UNIQUE", TypeText, "TEXT"},
		{"VARCHAR(255) DEFAULT 'x'", TypeText, "VARCHAR"},
		{"VECTOR(384)", TypeFloatVector, "VECTOR(384)"},
		{"vector", TypeFloatVector, "VECTOR"},
		{"BOOLEAN DEFAULT FALSE", TypeBoolean, "BOOLEAN"},
		{"TIMESTAMP DEFAULT CURRENT_TIMESTAMP", TypeTimestamp, "TIMESTAMP"},
		{"JSON", TypeJSON, "JSON"},
		{"JSONB NOT NULL", TypeJSON, "JSONB"},
		{"NUMERIC(10,2)", TypeUnknown, "NUMERIC(10,2)"},
		{"POINT", TypeUnknown, "POINT"}, // must not match INT inside POINT
		{"SMALLINT", TypeUnknown, "SMALLINT"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			valueType, sqlType := MapType(tt.input)
			assert.Equal(t, tt.kind, valueType.Kind)
			assert.Equal(t, tt.sqlType, sqlType)
		})
	}
}

func TestMapTypeIgnoresQuotedKeywords(t *testing.T) {
	tests := []struct {
		input   string
		kind    ValueKind
		sqlType string
	}{
		{"TEXT DEFAULT 'vector'", TypeText, "TEXT"},
		{"TEXT DEFAULT 'VECTOR(3)'", TypeText, "TEXT"},
		{"VARCHAR DEFAULT 'json'", TypeText, "VARCHAR"},
		{"TIMESTAMP DEFAULT 'enum(''a'')'", TypeTimestamp, "TIMESTAMP"},
		{`NUMERIC DEFAULT 'bigint'`, TypeUnknown, "NUMERIC"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			valueType, sqlType := MapType(tt.input)
			assert.Equal(t, tt.kind, valueType.Kind, "a keyword inside a quoted default must not reclassify the column")
			assert.Equal(t, tt.sqlType, sqlType)
		})
	}
}

func TestMapTypeEnumCapturesLiterals(t *testing.T) {
	valueType, sqlType := MapType("ENUM('a','b','c') DEFAULT 'a'")

	assert.Equal(t, TypeEnum, valueType.Kind)
	assert.Equal(t, []string{"a", "b", "c"}, valueType.EnumValues)
	assert.Equal(t, "ENUM('a','b','c')", sqlType)
}

func TestMapTypeVectorBeforeBareVector(t *testing.T) {
	withDims, _ := MapType("VECTOR(128)")
	assert.Equal(t, 128, withDims.Dimensions)

	bare, _ := MapType("VECTOR")
	assert.Equal(t, TypeFloatVector, bare.Kind)
	assert.Zero(t, bare.Dimensions)
}

func TestEncryptionEligibility(t *testing.T) {
	text := Column{Name: "secret", SQLType: "TEXT", Type: ValueType{Kind: TypeText}}
	varchar := Column{Name: "url", SQLType: "VARCHAR", Type: ValueType{Kind: TypeText}}

	assert.True(t, text.EncryptionEligible())
	assert.False(t, varchar.EncryptionEligible(), "VARCHAR shares the value kind but stays plaintext")
}

func TestValueKindString(t *testing.T) {
	assert.Equal(t, "integer", TypeInteger.String())
	assert.Equal(t, "float_vector", TypeFloatVector.String())
	assert.Equal(t, "unknown", TypeUnknown.String())
}
