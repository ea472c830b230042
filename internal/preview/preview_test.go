package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"data.csv":         FormatCSV,
		"DATA.CSV":         FormatCSV,
		"x/y/rows.tsv":     FormatTSV,
		"config.json":      FormatJSON,
		"README.md":        FormatMarkdown,
		"main.go":          FormatText,
		"Dockerfile":       FormatText,
		"image.png":        FormatUnknown,
		"no-extension":     FormatUnknown,
		"archive.tar.gz":   FormatUnknown,
		"nested/notes.txt": FormatText,
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, DetectFormat(name))
		})
	}
}

func TestIsLikelyBinary(t *testing.T) {
	assert.False(t, IsLikelyBinary(nil))
	assert.False(t, IsLikelyBinary([]byte("plain text\nwith lines\r\n\tand tabs")))
	assert.True(t, IsLikelyBinary([]byte("abc\x00def")))
	assert.True(t, IsLikelyBinary([]byte("\x01\x02\x03abcdefg")))
	assert.False(t, IsLikelyBinary([]byte("\x01abcdefghijklmnop")))

	// only the first 8 KB are inspected
	data := append([]byte(strings.Repeat("a", sniffBytes)), 0)
	assert.False(t, IsLikelyBinary(data))
}

func TestParse_CSV(t *testing.T) {
	doc := Parse("people.csv", []byte("name,age\nana,31\nbo,27,extra\n"), false)

	require.Equal(t, KindTable, doc.Kind)
	assert.Equal(t, []string{"name", "age"}, doc.Headers)
	assert.Equal(t, [][]string{{"ana", "31"}, {"bo", "27", "extra"}}, doc.Rows)
	assert.False(t, doc.Truncated)
}

func TestParse_TSVTruncatedDropsPartialRow(t *testing.T) {
	doc := Parse("rows.tsv", []byte("a\tb\n1\t2\n3\t4\n5\t"), true)

	require.Equal(t, KindTable, doc.Kind)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, doc.Rows)
	assert.True(t, doc.Truncated)
}

func TestParse_CSVRowLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < MaxRows+20; i++ {
		b.WriteString("x\n")
	}
	doc := Parse("big.csv", []byte(b.String()), false)

	assert.Len(t, doc.Rows, MaxRows)
	assert.True(t, doc.Truncated)
}

func TestParse_JSONArrayOfObjects(t *testing.T) {
	doc := Parse("items.json", []byte(`[{"b":1,"a":"x"},{"a":"y","c":true,"d":null}]`), false)

	require.Equal(t, KindTable, doc.Kind)
	assert.Equal(t, []string{"a", "b", "c", "d"}, doc.Headers)
	assert.Equal(t, [][]string{{"x", "1", "", ""}, {"y", "", "true", "null"}}, doc.Rows)
}

func TestParse_JSONPretty(t *testing.T) {
	doc := Parse("obj.json", []byte(`{"k":[1,2]}`), false)

	require.Equal(t, KindJSON, doc.Kind)
	assert.Equal(t, []string{"{", `  "k": [`, "    1,", "    2", "  ]", "}"}, doc.Lines)
}

func TestParse_InvalidJSONFallsBackToRaw(t *testing.T) {
	doc := Parse("bad.json", []byte(`{"k": `), false)

	assert.Equal(t, KindText, doc.Kind)
	assert.Equal(t, []string{`{"k": `}, doc.Lines)
	assert.Contains(t, doc.Note, "invalid JSON")
}

func TestParse_TextLineLimit(t *testing.T) {
	doc := Parse("log.txt", []byte(strings.Repeat("line\n", MaxLines+5)), false)

	assert.Equal(t, KindText, doc.Kind)
	assert.Len(t, doc.Lines, MaxLines)
	assert.True(t, doc.Truncated)
}

func TestParse_BinaryAndEmpty(t *testing.T) {
	assert.Equal(t, KindBinary, Parse("blob.bin", []byte{0, 1, 2}, false).Kind)
	assert.Equal(t, KindEmpty, Parse("empty.txt", nil, false).Kind)
}

func TestParse_InvalidUTF8(t *testing.T) {
	doc := Parse("x.txt", []byte("ok \xff end"), false)
	assert.Equal(t, []string{"ok � end"}, doc.Lines)
}

func TestParse_Markdown(t *testing.T) {
	doc := Parse("README.md", []byte("# Title\n\nbody\n"), false)
	assert.Equal(t, KindMarkdown, doc.Kind)
	assert.Equal(t, []string{"# Title", "", "body"}, doc.Lines)
}

func TestMarkdownRender(t *testing.T) {
	m := NewMarkdown()

	assert.Nil(t, m.Render("", 80))
	assert.Equal(t, []string{"# a", "b"}, m.Render("# a\nb", 10))

	first := m.Render("# Heading\n\nSome *text*.", 60)
	require.NotEmpty(t, first)
	assert.Contains(t, strings.Join(first, "\n"), "Heading")
	assert.Len(t, m.cache, 1)

	again := m.Render("# Heading\n\nSome *text*.", 60)
	assert.Equal(t, first, again)
	assert.Len(t, m.cache, 1)
}

func TestHighlight(t *testing.T) {
	out, err := Highlight("package main\n", "main.go")
	require.NoError(t, err)
	assert.Contains(t, out, "package")
}
