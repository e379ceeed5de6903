package httpclient

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"golang.org/x/net/html/charset"
)

// Decode converts body into a generic map or sequence according to format.
// An unknown format decodes to nil without error.
func Decode(format Format, body []byte) (any, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(body)
	case FormatURLEncoded:
		return decodeURLEncoded(body)
	case FormatXML:
		return decodeXML(body)
	default:
		return nil, nil
	}
}

func decodeJSON(body []byte) (any, error) {
	var out any
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrDecode, err)
	}
	return out, nil
}

// decodeURLEncoded follows form decoding rules: repeated keys keep the last value.
func decodeURLEncoded(body []byte) (any, error) {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: urlencoded: %v", ErrDecode, err)
	}
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 0 {
			out[k] = ""
			continue
		}
		out[k] = vs[len(vs)-1]
	}
	return out, nil
}

// decodeXML maps the children of the root element onto a tree of maps. Leaf
// elements become strings, repeated siblings collapse into a slice, and
// attributes are dropped.
func decodeXML(body []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: xml: no root element", ErrDecode)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: xml: %v", ErrDecode, err)
		}
		if _, ok := tok.(xml.StartElement); !ok {
			continue
		}

		root, err := decodeXMLElement(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: xml: %v", ErrDecode, err)
		}
		if s, ok := root.(string); ok && s == "" {
			return map[string]any{}, nil
		}
		return root, nil
	}
}

func decodeXMLElement(dec *xml.Decoder) (any, error) {
	var (
		text     strings.Builder
		children map[string]any
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeXMLElement(dec)
			if err != nil {
				return nil, err
			}
			if children == nil {
				children = make(map[string]any)
			}
			addXMLChild(children, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if children != nil {
				return children, nil
			}
			return strings.TrimSpace(text.String()), nil
		}
	}
}

// addXMLChild stores child under name. Element values are never slices, so a
// slice already stored under name always means repeated siblings.
func addXMLChild(children map[string]any, name string, child any) {
	existing, ok := children[name]
	if !ok {
		children[name] = child
		return
	}
	if list, ok := existing.([]any); ok {
		children[name] = append(list, child)
		return
	}
	children[name] = []any{existing, child}
}
