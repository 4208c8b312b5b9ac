package annotate_test

import (
	"strings"
	"testing"

	"github.com/calvinalkan/napkin/internal/annotate"
	"github.com/calvinalkan/napkin/internal/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineContaining(t *testing.T, text, substr string) (int, string) {
	t.Helper()

	for i, line := range strings.Split(text, "\n") {
		if strings.Contains(line, substr) {
			return i + 1, line
		}
	}

	t.Fatalf("no line contains %q\ntext:\n%s", substr, text)

	return 0, ""
}

func TestAnnotateMissingKeyPrependsComment(t *testing.T) {
	t.Parallel()

	src := "---\nversion: \"0.1.0\"\n..."

	got := annotate.Annotate(src, document.MissingKey("napkins"))

	first, _, _ := strings.Cut(got, "\n")
	assert.True(t, strings.HasPrefix(first, annotate.Marker), "first line %q", first)
	assert.Contains(t, first, "napkins")
	assert.Contains(t, got, src, "annotation must keep the original text")
}

func TestAnnotateDocumentLevelErrorsPrependComment(t *testing.T) {
	t.Parallel()

	src := "- a\n- b\n"

	for _, kind := range []document.ErrorKind{
		document.KindEmptyDocument,
		document.KindNotAMapping,
		document.KindMultipleDocuments,
	} {
		got := annotate.Annotate(src, &document.FieldError{Kind: kind})

		assert.True(t, strings.HasPrefix(got, annotate.Marker), "kind %s: %q", kind, got)
		assert.True(t, strings.HasSuffix(got, "\n"+src), "kind %s: %q", kind, got)
		assert.Equal(t, 1, strings.Count(got, annotate.Marker))
	}
}

func TestAnnotateEmptyTextStaysParseableAsEmpty(t *testing.T) {
	t.Parallel()

	got := annotate.Annotate("", &document.FieldError{Kind: document.KindEmptyDocument})
	assert.Equal(t, annotate.Marker+"Expected some YAML here...\n", got)

	_, err := document.Parse(got)
	fieldErr, ok := document.AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, document.KindEmptyDocument, fieldErr.Kind)
}

func TestAnnotateWrongTypeGoesOnKeyLine(t *testing.T) {
	t.Parallel()

	src := "---\nversion: 1\nnapkins: [ ]\n...\n"
	fieldErr := document.WrongType("version", document.ValueString)

	got := annotate.Annotate(src, fieldErr)

	lineNo, line := lineContaining(t, got, annotate.Marker)
	assert.Equal(t, 2, lineNo)
	assert.True(t, strings.HasPrefix(line, "version: 1 "+annotate.Marker), "line %q", line)
	assert.Contains(t, line, "'version'")
	assert.Contains(t, line, "string")
	assert.Equal(t, strings.Count(src, "\n"), strings.Count(got, "\n"), "no lines added")

	// The comment does not change what the document means.
	_, err := document.ParseAndValidate(got, []document.Field{{Key: "version", Kind: document.ValueString}})
	reparsed, ok := document.AsFieldError(err)
	require.True(t, ok, "err=%v", err)
	assert.Equal(t, fieldErr, reparsed)
}

func TestAnnotateWrongTypeKeepsCRLF(t *testing.T) {
	t.Parallel()

	src := "version: 1\r\nnapkins: []\r\n"

	got := annotate.Annotate(src, document.WrongType("version", document.ValueString))

	assert.True(t, strings.HasPrefix(got, "version: 1 "+annotate.Marker), got)
	assert.Contains(t, got, "string\r\nnapkins: []\r\n")
}

func TestAnnotateWrongTypeOnLastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	src := "napkins: []\ncount: nope"

	got := annotate.Annotate(src, document.WrongType("count", document.ValueInt))

	assert.True(t, strings.HasPrefix(got, src+" "+annotate.Marker), got)
	assert.False(t, strings.HasSuffix(got, "\n"))
}

func TestAnnotateWrongTypeFallbacks(t *testing.T) {
	t.Parallel()

	t.Run("bare key when separator form is absent", func(t *testing.T) {
		t.Parallel()

		src := "{\"created\" : 5}\n"

		got := annotate.Annotate(src, document.InvalidTimestamp("created"))

		assert.True(t, strings.HasPrefix(got, "{\"created\" : 5} "+annotate.Marker), got)
		assert.Contains(t, got, "Invalid date")
	})

	t.Run("start of text when key is absent", func(t *testing.T) {
		t.Parallel()

		src := "other: 1\n"

		got := annotate.Annotate(src, document.WrongType("missing", document.ValueList))

		assert.True(t, strings.HasPrefix(got, annotate.Marker), got)
		assert.True(t, strings.HasSuffix(got, src))
	})
}

func TestAnnotateMalformedSourceBeforeLine(t *testing.T) {
	t.Parallel()

	src := "version: \"1\"\nfoo: bar: baz\nnapkins: []\n"

	tests := []struct {
		name     string
		line     int
		wantLine int // line number of the comment in the output
	}{
		{name: "reported line", line: 2, wantLine: 2},
		{name: "first line", line: 1, wantLine: 1},
		{name: "unknown line", line: 0, wantLine: 1},
		{name: "past the end", line: 99, wantLine: 4},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := annotate.Annotate(src, document.MalformedSource(tt.line, "mapping values are not allowed\nin this context"))

			lineNo, line := lineContaining(t, got, annotate.Marker)
			assert.Equal(t, tt.wantLine, lineNo, "output:\n%s", got)
			assert.True(t, strings.HasPrefix(line, annotate.Marker))
			assert.Contains(t, line, "mapping values are not allowed in this context")
			assert.Contains(t, got, "foo: bar: baz")
		})
	}
}

func TestAnnotateMalformedSourceFromParser(t *testing.T) {
	t.Parallel()

	src := "version: \"1\"\nfoo: bar: baz\nnapkins: []\n"

	_, err := document.Parse(src)
	fieldErr, ok := document.AsFieldError(err)
	require.True(t, ok)

	got := annotate.Annotate(src, fieldErr)

	lines := strings.Split(got, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[1], annotate.Marker), "output:\n%s", got)
	assert.Equal(t, "foo: bar: baz", lines[2])
}

func TestAnnotateMalformedSourceWithoutTrailingNewline(t *testing.T) {
	t.Parallel()

	got := annotate.Annotate("a: 1", document.MalformedSource(5, "boom"))

	assert.Equal(t, "a: 1\n"+annotate.Marker+"Invalid YAML (line 5): boom\n", got)
}

func TestAnnotateAccumulates(t *testing.T) {
	t.Parallel()

	src := "version: 1\n"
	fieldErr := document.WrongType("version", document.ValueString)

	once := annotate.Annotate(src, fieldErr)
	twice := annotate.Annotate(once, fieldErr)

	assert.Equal(t, 2, strings.Count(twice, annotate.Marker))
	assert.Contains(t, twice, once[:len(once)-1])
}

func TestMessageIsSingleLine(t *testing.T) {
	t.Parallel()

	errs := []*document.FieldError{
		document.MissingKey("napkins"),
		document.WrongType("version", document.ValueString),
		document.InvalidTimestamp("created"),
		document.MalformedSource(3, "multi\nline\n\tmessage"),
		{Kind: document.KindEmptyDocument},
		{Kind: document.KindNotAMapping},
		{Kind: document.KindMultipleDocuments},
	}

	for _, fieldErr := range errs {
		msg := annotate.Message(fieldErr)

		assert.True(t, strings.HasPrefix(msg, annotate.Marker), msg)
		assert.NotContains(t, msg, "\n")
	}
}
