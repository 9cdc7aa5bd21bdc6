package modelref

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// errNotObject is returned by walkObject when the value is not a JSON object.
var errNotObject = errors.New("value is not a JSON object")

// walkObject calls fn for each member of the JSON object in data, in document
// order. Unlike decoding into a map, repeated keys are all reported to fn.
// An error returned by fn stops the walk and is returned unchanged.
func walkObject(data []byte, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}

	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// jsonFieldNames returns the JSON member names declared by the struct tags of v.
func jsonFieldNames(v any) map[string]struct{} {
	names := make(map[string]struct{})
	t := reflect.TypeOf(v)
	for i := 0; i < t.NumField(); i++ {
		if name := jsonName(t.Field(i)); name != "" {
			names[name] = struct{}{}
		}
	}
	return names
}

// jsonName returns the JSON member name of a struct field, or "" if the field
// is not serialized.
func jsonName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

// docOrder records how a value appeared in its source document so it can be
// written back the same way.
type docOrder struct {
	// index is the 1-based position of a record in its reference, or 0 for
	// records built in code.
	index int

	// members are the object's member names in document order. Members listed
	// here are written even when their values are empty.
	members []string
}

// objectMembers returns the member names of the JSON object in data in
// document order, together with the members keyed by name.
func objectMembers(data []byte) ([]string, map[string]json.RawMessage, error) {
	names := []string{}
	fields := make(map[string]json.RawMessage)
	err := walkObject(data, func(key string, value json.RawMessage) error {
		names = append(names, key)
		fields[key] = value
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return names, fields, nil
}

func extraKeys(fields map[string]json.RawMessage, known map[string]struct{}) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	for k, v := range fields {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra
}

// marshalOrdered encodes the struct v, plus extra members, as one object.
//
// Members named in order come first, in that order; a declared field named
// there is written even if omitempty would drop it. Declared fields that
// encode by default follow in declaration order, then the remaining extra
// members in name order.
func marshalOrdered(v any, order []string, extra map[string]json.RawMessage) ([]byte, error) {
	declared, err := declaredValues(v)
	if err != nil {
		return nil, err
	}
	defaults, err := marshalNoEscape(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	written := make(map[string]bool)
	write := func(key string, value []byte) error {
		if written[key] {
			return nil
		}
		written[key] = true
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := marshalNoEscape(key)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(value)
		return nil
	}

	buf.WriteByte('{')
	for _, key := range order {
		value, ok := declared[key]
		if !ok {
			value, ok = extra[key]
		}
		if !ok {
			continue
		}
		if err := write(key, value); err != nil {
			return nil, err
		}
	}
	err = walkObject(defaults, func(key string, value json.RawMessage) error {
		return write(key, value)
	})
	if err != nil {
		return nil, err
	}
	for _, key := range sortedKeys(extra) {
		if err := write(key, extra[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// declaredValues encodes every serialized field of the struct v by JSON name,
// ignoring omitempty.
func declaredValues(v any) (map[string][]byte, error) {
	rv := reflect.ValueOf(v)
	t := rv.Type()
	out := make(map[string][]byte, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := jsonName(t.Field(i))
		if name == "" {
			continue
		}
		data, err := marshalNoEscape(rv.Field(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// marshalNoEscape is json.Marshal without HTML escaping, so download URLs
// keep their literal '&'.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encodeReference renders ref as a reference document: records in source
// order (records built in code last, by name), four-space indentation and a
// trailing newline.
func encodeReference(ref Reference) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, name := range ref.documentNames() {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := marshalNoEscape(name)
		if err != nil {
			return nil, err
		}
		value, err := marshalNoEscape(ref[name])
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		compact.Write(key)
		compact.WriteByte(':')
		compact.Write(value)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
