package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONPathExprSimpleKey(t *testing.T) {
	assert.Equal(t, `json_extract(attributes_json, '$."http.method"')`, JSONPathExpr("attributes_json", "http.method"))
}

func TestJSONPathExprEscapesQuotesAndBackslashes(t *testing.T) {
	got := JSONPathExpr("attributes_json", `weird"key\here`)
	assert.Equal(t, `json_extract(attributes_json, '$."weird\"key\\here"')`, got)
}
