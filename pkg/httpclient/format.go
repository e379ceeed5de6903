package httpclient

import (
	"bytes"
	"regexp"
	"strings"
)

// Format is the serialization format detected for a response body.
type Format string

const (
	FormatUnknown    Format = ""
	FormatJSON       Format = "json"
	FormatURLEncoded Format = "urlencoded"
	FormatXML        Format = "xml"
)

// contentTypeFormats is checked in order; the first keyword found wins.
var contentTypeFormats = []Format{FormatJSON, FormatURLEncoded, FormatXML}

var (
	jsonBodyPattern       = regexp.MustCompile(`(?s)^\{.*\}$`)
	urlencodedBodyPattern = regexp.MustCompile(`^[^=&]+=[^=&]*(?:&[^=&]+=[^=&]*)*$`)
)

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// DetectFormat classifies a body from its Content-Type header, falling back to
// the shape of the body itself when the header names none of the known formats.
func DetectFormat(contentType string, body []byte) Format {
	ct := strings.ToLower(contentType)
	for _, f := range contentTypeFormats {
		if strings.Contains(ct, string(f)) {
			return f
		}
	}
	return sniffBody(body)
}

func sniffBody(body []byte) Format {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return FormatUnknown
	}

	switch {
	case jsonBodyPattern.Match(trimmed):
		return FormatJSON
	case urlencodedBodyPattern.Match(trimmed):
		return FormatURLEncoded
	case trimmed[0] == '<' && trimmed[len(trimmed)-1] == '>':
		return FormatXML
	default:
		return FormatUnknown
	}
}
