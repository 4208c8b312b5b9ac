package document

import (
	"errors"
	"fmt"
)

// ErrInvalid is matched by every [*FieldError] via errors.Is.
var ErrInvalid = errors.New("invalid document")

// ErrorKind tags which variant a [FieldError] is.
type ErrorKind uint8

// ErrorKind values. The set is closed: the annotator and the edit loop switch
// over all of them.
const (
	KindMissingKey ErrorKind = iota + 1
	KindWrongType
	KindInvalidTimestamp
	KindMalformedSource
	KindEmptyDocument
	KindNotAMapping
	KindMultipleDocuments
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingKey:
		return "missing key"
	case KindWrongType:
		return "wrong type"
	case KindInvalidTimestamp:
		return "invalid timestamp"
	case KindMalformedSource:
		return "malformed source"
	case KindEmptyDocument:
		return "empty document"
	case KindNotAMapping:
		return "not a mapping"
	case KindMultipleDocuments:
		return "multiple documents"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// FieldError describes why a document failed to parse or a required field
// lookup failed. Exactly one variant describes a single failure; which
// fields are populated depends on Kind:
//
//	KindMissingKey        Key
//	KindWrongType         Key, Expected
//	KindInvalidTimestamp  Key
//	KindMalformedSource   Line (1-based, 0 if unknown), Message
//	KindEmptyDocument     -
//	KindNotAMapping       -
//	KindMultipleDocuments -
type FieldError struct {
	Kind     ErrorKind
	Key      string
	Expected ValueKind
	Line     int
	Message  string
}

// MissingKey returns a [KindMissingKey] error for key.
func MissingKey(key string) *FieldError {
	return &FieldError{Kind: KindMissingKey, Key: key}
}

// WrongType returns a [KindWrongType] error for key.
func WrongType(key string, expected ValueKind) *FieldError {
	return &FieldError{Kind: KindWrongType, Key: key, Expected: expected}
}

// InvalidTimestamp returns a [KindInvalidTimestamp] error for key.
func InvalidTimestamp(key string) *FieldError {
	return &FieldError{Kind: KindInvalidTimestamp, Key: key}
}

// MalformedSource returns a [KindMalformedSource] error.
func MalformedSource(line int, message string) *FieldError {
	return &FieldError{Kind: KindMalformedSource, Line: line, Message: message}
}

func (e *FieldError) Error() string {
	switch e.Kind {
	case KindMissingKey:
		return fmt.Sprintf("missing key %q", e.Key)
	case KindWrongType:
		return fmt.Sprintf("key %q: expected a %s", e.Key, e.Expected)
	case KindInvalidTimestamp:
		return fmt.Sprintf("key %q: invalid timestamp (want RFC 3339 with offset)", e.Key)
	case KindMalformedSource:
		if e.Line > 0 {
			return fmt.Sprintf("malformed source at line %d: %s", e.Line, e.Message)
		}

		return "malformed source: " + e.Message
	case KindEmptyDocument, KindNotAMapping, KindMultipleDocuments:
		return e.Kind.String()
	default:
		return e.Kind.String()
	}
}

// Is reports whether target is [ErrInvalid].
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalid
}

// AsFieldError returns the [*FieldError] wrapped in err, if any.
func AsFieldError(err error) (*FieldError, bool) {
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr, true
	}

	return nil, false
}
