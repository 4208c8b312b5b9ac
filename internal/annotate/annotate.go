// Package annotate writes document errors back into the document text as
// YAML comments, so the user sees them the next time the text is opened in
// an editor.
package annotate

import (
	"fmt"
	"strings"

	"github.com/calvinalkan/napkin/internal/document"
)

// Marker starts every inserted comment. It is a YAML comment, so annotated
// text parses to the same document as the original.
const Marker = "## ERROR: "

// Annotate returns text with one comment describing err inserted. The
// original text is always kept as a contiguous substring.
//
// Placement depends on the error:
//   - malformed source: a comment line right before the reported line
//   - missing key and document-level errors: a comment line at the top
//   - wrong type and invalid timestamp: at the end of the line holding the
//     first occurrence of "key:" (or just "key"), or at the top if the key
//     text cannot be found
//
// Finding keys is textual: a key name that also appears in an earlier
// comment or value is matched there instead. Existing annotations are never
// removed, so repeated rounds accumulate comments.
func Annotate(text string, err *document.FieldError) string {
	msg := Message(err)

	switch err.Kind {
	case document.KindMalformedSource:
		return insertLine(text, lineStart(text, err.Line), msg)
	case document.KindMissingKey, document.KindEmptyDocument,
		document.KindNotAMapping, document.KindMultipleDocuments:
		return insertLine(text, 0, msg)
	case document.KindWrongType, document.KindInvalidTimestamp:
		idx := findKey(text, err.Key)
		if idx < 0 {
			return insertLine(text, 0, msg)
		}

		return appendToLine(text, idx, msg)
	default:
		return insertLine(text, 0, msg)
	}
}

// Message renders the comment for err, including [Marker], on a single line.
func Message(err *document.FieldError) string {
	var body string

	switch err.Kind {
	case document.KindMalformedSource:
		if err.Line > 0 {
			body = fmt.Sprintf("Invalid YAML (line %d): %s", err.Line, err.Message)
		} else {
			body = "Invalid YAML: " + err.Message
		}
	case document.KindMissingKey:
		body = fmt.Sprintf("Missing key '%s'", err.Key)
	case document.KindWrongType:
		body = fmt.Sprintf("Key of wrong type: expected '%s' to be a %s", err.Key, err.Expected)
	case document.KindInvalidTimestamp:
		body = fmt.Sprintf("Invalid date: expected '%s' to be an RFC 3339 date-time with offset", err.Key)
	case document.KindEmptyDocument:
		body = "Expected some YAML here..."
	case document.KindNotAMapping:
		body = "Expected a mapping (key: value) YAML document instead"
	case document.KindMultipleDocuments:
		body = "Multiple YAML documents found"
	default:
		body = err.Error()
	}

	return Marker + singleLine(body)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// lineStart returns the byte offset at which 1-based line begins. Lines
// before the first clamp to 0; lines past the last clamp to len(text).
func lineStart(text string, line int) int {
	if line <= 1 {
		return 0
	}

	offset := 0

	for current := 1; current < line; current++ {
		next := strings.IndexByte(text[offset:], '\n')
		if next < 0 {
			return len(text)
		}

		offset += next + 1
	}

	return offset
}

// insertLine puts comment on its own line starting at offset, which must be
// the start of a line or len(text).
func insertLine(text string, offset int, comment string) string {
	if offset >= len(text) && text != "" && !strings.HasSuffix(text, "\n") {
		return text + "\n" + comment + "\n"
	}

	return text[:offset] + comment + "\n" + text[offset:]
}

// findKey returns the offset of the first "key:" in text, falling back to
// the bare key, or -1.
func findKey(text, key string) int {
	if key == "" {
		return -1
	}

	if idx := strings.Index(text, key+":"); idx >= 0 {
		return idx
	}

	return strings.Index(text, key)
}

// appendToLine appends comment to the end of the line containing offset,
// keeping the line terminator ("\n" or "\r\n") after it.
func appendToLine(text string, offset int, comment string) string {
	end := len(text)
	if nl := strings.IndexByte(text[offset:], '\n'); nl >= 0 {
		end = offset + nl
		if end > offset && text[end-1] == '\r' {
			end--
		}
	}

	return text[:end] + " " + comment + text[end:]
}
