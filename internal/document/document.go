// Package document parses napkin's YAML metadata documents and exposes strict,
// typed lookups of top-level keys.
//
// A valid document is exactly one YAML document whose root is a mapping:
//
//	---
//	version: "0.1.0"
//	napkins: [ ]
//	...
//
// Every failure is reported as a [*FieldError] so callers can tell a content
// problem (fixable by re-editing) from an infrastructure problem.
package document

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ValueKind is the kind a typed getter expects.
type ValueKind uint8

// ValueKind values.
const (
	ValueString ValueKind = iota + 1
	ValueBool
	ValueInt
	ValueList
	ValueTimestamp
)

func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueBool:
		return "boolean"
	case ValueInt:
		return "integer"
	case ValueList:
		return "list"
	case ValueTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// YAML core schema tags as reported by [yaml.Node.ShortTag].
const (
	tagNull      = "!!null"
	tagStr       = "!!str"
	tagBool      = "!!bool"
	tagInt       = "!!int"
	tagTimestamp = "!!timestamp"
)

// Document is a parsed document whose root is a single mapping.
// It is not modified after [Parse] returns.
type Document struct {
	root *yaml.Node
}

// Parse parses text into a [Document].
//
// Errors are always [*FieldError]:
//   - syntax errors and duplicate top-level keys: [KindMalformedSource]
//   - no document content at all: [KindEmptyDocument]
//   - more than one document: [KindMultipleDocuments]
//   - a root that is a list or scalar: [KindNotAMapping]
//
// A document with no content (a bare "---", or only comments) does not count
// as a document.
func Parse(text string) (*Document, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))

	var roots []*yaml.Node

	for {
		var node yaml.Node

		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, syntaxError(err)
		}

		if root := documentRoot(&node); root != nil {
			roots = append(roots, root)
		}
	}

	switch {
	case len(roots) == 0:
		return nil, &FieldError{Kind: KindEmptyDocument}
	case len(roots) > 1:
		return nil, &FieldError{Kind: KindMultipleDocuments}
	}

	root := resolveAlias(roots[0])
	if root.Kind != yaml.MappingNode {
		return nil, &FieldError{Kind: KindNotAMapping}
	}

	if err := checkDuplicateKeys(root); err != nil {
		return nil, err
	}

	return &Document{root: root}, nil
}

// documentRoot returns the content of a document node, or nil for a document
// without content.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind != yaml.DocumentNode {
		return doc
	}

	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == tagNull && root.Value == "" {
		return nil
	}

	return root
}

var yamlLineError = regexp.MustCompile(`(?s)^yaml: line (\d+): (.*)$`)

func syntaxError(err error) *FieldError {
	msg := err.Error()

	if m := yamlLineError.FindStringSubmatch(msg); m != nil {
		line, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			return MalformedSource(line, m[2])
		}
	}

	return MalformedSource(0, strings.TrimPrefix(msg, "yaml: "))
}

// checkDuplicateKeys rejects repeated top-level keys. yaml.v3 only reports
// them when decoding into Go values, not into a node tree.
func checkDuplicateKeys(root *yaml.Node) error {
	seen := make(map[string]int, len(root.Content)/2)

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]

		if first, ok := seen[key.Value]; ok {
			return MalformedSource(key.Line,
				fmt.Sprintf("mapping key %q already defined at line %d", key.Value, first))
		}

		seen[key.Value] = key.Line
	}

	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}

	return n
}

// lookup returns the value node for a top-level key, following aliases.
func (d *Document) lookup(key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		if k := resolveAlias(d.root.Content[i]); k.Kind == yaml.ScalarNode && k.Value == key {
			return resolveAlias(d.root.Content[i+1]), true
		}
	}

	return nil, false
}

// scalar returns the value node for key if it is a scalar with one of tags.
func (d *Document) scalar(key string, expected ValueKind, tags ...string) (*yaml.Node, error) {
	node, ok := d.lookup(key)
	if !ok {
		return nil, MissingKey(key)
	}

	if node.Kind != yaml.ScalarNode {
		return nil, WrongType(key, expected)
	}

	tag := node.ShortTag()
	for _, want := range tags {
		if tag == want {
			return node, nil
		}
	}

	return nil, WrongType(key, expected)
}

// String returns the string value of key. A number or boolean is never
// converted; quote it in the document instead.
func (d *Document) String(key string) (string, error) {
	node, err := d.scalar(key, ValueString, tagStr)
	if err != nil {
		return "", err
	}

	return node.Value, nil
}

// Bool returns the boolean value of key.
func (d *Document) Bool(key string) (bool, error) {
	node, err := d.scalar(key, ValueBool, tagBool)
	if err != nil {
		return false, err
	}

	var b bool
	if decodeErr := node.Decode(&b); decodeErr != nil {
		return false, WrongType(key, ValueBool)
	}

	return b, nil
}

// Int returns the integer value of key.
func (d *Document) Int(key string) (int64, error) {
	node, err := d.scalar(key, ValueInt, tagInt)
	if err != nil {
		return 0, err
	}

	var i int64
	if decodeErr := node.Decode(&i); decodeErr != nil {
		return 0, WrongType(key, ValueInt)
	}

	return i, nil
}

// List returns the items of the sequence at key. The returned slice is a copy.
func (d *Document) List(key string) ([]*yaml.Node, error) {
	node, ok := d.lookup(key)
	if !ok {
		return nil, MissingKey(key)
	}

	if node.Kind != yaml.SequenceNode {
		return nil, WrongType(key, ValueList)
	}

	items := make([]*yaml.Node, len(node.Content))
	copy(items, node.Content)

	return items, nil
}

// Timestamp returns the RFC 3339 date-time at key. The value must carry an
// explicit offset ("Z" or "+01:00"); quoted and unquoted forms are accepted.
func (d *Document) Timestamp(key string) (time.Time, error) {
	node, err := d.scalar(key, ValueTimestamp, tagStr, tagTimestamp)
	if err != nil {
		return time.Time{}, err
	}

	ts, parseErr := time.Parse(time.RFC3339, node.Value)
	if parseErr != nil {
		return time.Time{}, InvalidTimestamp(key)
	}

	return ts, nil
}

// Field is a required top-level key and the kind its value must have.
type Field struct {
	Key  string
	Kind ValueKind
}

// Check runs the getter matching f.Kind and discards the value.
func (d *Document) Check(f Field) error {
	var err error

	switch f.Kind {
	case ValueString:
		_, err = d.String(f.Key)
	case ValueBool:
		_, err = d.Bool(f.Key)
	case ValueInt:
		_, err = d.Int(f.Key)
	case ValueList:
		_, err = d.List(f.Key)
	case ValueTimestamp:
		_, err = d.Timestamp(f.Key)
	default:
		return fmt.Errorf("field %q: unknown kind %s", f.Key, f.Kind)
	}

	return err
}

// Validate checks fields in order and returns the first failure.
func Validate(doc *Document, fields []Field) error {
	for _, f := range fields {
		if err := doc.Check(f); err != nil {
			return err
		}
	}

	return nil
}

// ParseAndValidate parses text and validates fields against it.
func ParseAndValidate(text string, fields []Field) (*Document, error) {
	doc, err := Parse(text)
	if err != nil {
		return nil, err
	}

	if err := Validate(doc, fields); err != nil {
		return nil, err
	}

	return doc, nil
}
