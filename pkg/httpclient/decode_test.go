package httpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	data, err := Decode(FormatJSON, []byte(`{"a":1,"b":{"c":"x"}}`))
	require.NoError(t, err)
	m, ok := data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, m["a"])
	assert.Equal(t, map[string]any{"c": "x"}, m["b"])
}

func TestDecodeJSONMalformed(t *testing.T) {
	_, err := Decode(FormatJSON, []byte(`{"a":`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeURLEncodedLastValueWins(t *testing.T) {
	data, err := Decode(FormatURLEncoded, []byte("a=1&b=2&a=3&c=hello%20world"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "3", "b": "2", "c": "hello world"}, data)
}

func TestDecodeURLEncodedMalformed(t *testing.T) {
	_, err := Decode(FormatURLEncoded, []byte("a=%zz"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeXML(t *testing.T) {
	data, err := Decode(FormatXML, []byte(`<a><b>1</b></a>`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": "1"}, data)
}

func TestDecodeXMLNestedRepeatedAndAttributes(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<root id="7">
  <name> gopher </name>
  <empty/>
  <nested kind="x"><leaf>v</leaf></nested>
  <item>1</item>
  <item>2</item>
  <item>3</item>
</root>`
	data, err := Decode(FormatXML, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":   "gopher",
		"empty":  "",
		"nested": map[string]any{"leaf": "v"},
		"item":   []any{"1", "2", "3"},
	}, data)
}

func TestDecodeXMLCDATA(t *testing.T) {
	data, err := Decode(FormatXML, []byte(`<xml><msg><![CDATA[a < b]]></msg></xml>`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"msg": "a < b"}, data)
}

func TestDecodeXMLLeafAndEmptyRoot(t *testing.T) {
	data, err := Decode(FormatXML, []byte(`<a>text</a>`))
	require.NoError(t, err)
	assert.Equal(t, "text", data)

	data, err = Decode(FormatXML, []byte(`<a/>`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, data)
}

func TestDecodeXMLMalformed(t *testing.T) {
	for _, body := range []string{`<a><b>1</a>`, `<a><b>1</b>`, `<>`} {
		_, err := Decode(FormatXML, []byte(body))
		assert.ErrorIs(t, err, ErrDecode, "body %q", body)
	}
}

func TestDecodeUnknownIsNil(t *testing.T) {
	data, err := Decode(FormatUnknown, []byte("whatever"))
	assert.NoError(t, err)
	assert.Nil(t, data)
}
