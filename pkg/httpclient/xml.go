package httpclient

import (
	"bytes"
	"encoding"
	"encoding/xml"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultXMLRoot = "xml"
	xmlItemTag     = "item"
)

var xmlTagPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

// EncodeXML serializes maps, sequences and structs into an XML document wrapped
// in a synthetic root element (xml when root is empty). Map keys and exported
// struct fields become tag names, sequence entries are emitted as item elements
// (structs use their type name instead) and scalars become escaped text.
// Attributes are not supported.
func EncodeXML(data any, root string) ([]byte, error) {
	if root == "" {
		root = defaultXMLRoot
	}
	if !xmlTagPattern.MatchString(root) {
		return nil, fmt.Errorf("encode xml: invalid root tag %q", root)
	}

	var buf bytes.Buffer
	buf.WriteString("<" + root + ">")
	if err := writeXMLContent(&buf, reflect.ValueOf(data)); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	buf.WriteString("</" + root + ">")
	return buf.Bytes(), nil
}

func writeXMLContent(buf *bytes.Buffer, v reflect.Value) error {
	v = indirect(v)
	if !v.IsValid() {
		return nil
	}
	if !isComposite(v) {
		return writeXMLText(buf, v)
	}

	switch v.Kind() {
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			name := xmlItemTag
			if indirect(k).Kind() == reflect.String {
				name = indirect(k).String()
			}
			if err := writeXMLElement(buf, name, v.MapIndex(k)); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			name := xmlItemTag
			if ev := indirect(elem); ev.IsValid() && ev.Kind() == reflect.Struct && ev.Type().Name() != "" {
				name = ev.Type().Name()
			}
			if err := writeXMLElement(buf, name, elem); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if tag, ok := field.Tag.Lookup("xml"); ok {
				tagName, _, _ := strings.Cut(tag, ",")
				if tagName == "-" {
					continue
				}
				if tagName != "" {
					name = tagName
				}
			}
			if err := writeXMLElement(buf, name, v.Field(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeXMLElement(buf *bytes.Buffer, name string, v reflect.Value) error {
	if !xmlTagPattern.MatchString(name) {
		return fmt.Errorf("invalid tag name %q", name)
	}
	buf.WriteString("<" + name + ">")
	if err := writeXMLContent(buf, v); err != nil {
		return err
	}
	buf.WriteString("</" + name + ">")
	return nil
}

func writeXMLText(buf *bytes.Buffer, v reflect.Value) error {
	var text string
	if v.Type().Implements(textMarshalerType) {
		raw, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return err
		}
		text = string(raw)
	} else {
		switch v.Kind() {
		case reflect.String:
			text = v.String()
		case reflect.Bool:
			text = strconv.FormatBool(v.Bool())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			text = strconv.FormatInt(v.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			text = strconv.FormatUint(v.Uint(), 10)
		case reflect.Float32:
			text = strconv.FormatFloat(v.Float(), 'f', -1, 32)
		case reflect.Float64:
			text = strconv.FormatFloat(v.Float(), 'f', -1, 64)
		case reflect.Slice:
			// only []byte reaches here
			text = string(v.Bytes())
		default:
			return fmt.Errorf("unsupported value of kind %s", v.Kind())
		}
	}
	return xml.EscapeText(buf, []byte(text))
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isComposite(v reflect.Value) bool {
	if v.Type().Implements(textMarshalerType) {
		return false
	}
	switch v.Kind() {
	case reflect.Map, reflect.Array, reflect.Struct:
		return true
	case reflect.Slice:
		return v.Type().Elem().Kind() != reflect.Uint8
	default:
		return false
	}
}
