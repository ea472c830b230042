// Package preview turns the first bytes of an object into something that can
// be shown in the preview pane.
package preview

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
)

const (
	// MaxBytes is how much of an object is fetched for a preview
	MaxBytes = 50 * 1024
	// MaxRows caps table previews
	MaxRows = 100
	// MaxLines caps text and JSON previews
	MaxLines = 200

	sniffBytes = 8 * 1024
)

// Kind is the shape of a preview document
type Kind int

const (
	KindText Kind = iota
	KindTable
	KindJSON
	KindMarkdown
	KindBinary
	KindEmpty
)

// Document is a parsed preview
type Document struct {
	Kind Kind
	Name string

	Headers []string
	Rows    [][]string
	Lines   []string

	// Truncated is set when the object or the parsed content was cut short
	Truncated bool
	Note      string
}

// Format is the parser chosen from a file name
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatTSV
	FormatJSON
	FormatMarkdown
	FormatText
)

var textExtensions = map[string]bool{
	"txt": true, "log": true, "yaml": true, "yml": true, "toml": true,
	"xml": true, "html": true, "htm": true, "css": true, "js": true,
	"ts": true, "go": true, "py": true, "rs": true, "java": true, "c": true,
	"h": true, "cpp": true, "hpp": true, "sh": true, "bash": true, "sql": true,
	"ini": true, "cfg": true, "conf": true, "env": true, "properties": true,
	"rb": true, "php": true, "kt": true, "swift": true, "tf": true,
	"jsonl": true, "ndjson": true, "gitignore": true, "dockerfile": true,
}

// DetectFormat picks a parser from the file extension
func DetectFormat(name string) Format {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	switch ext {
	case "csv":
		return FormatCSV
	case "tsv", "tab":
		return FormatTSV
	case "json":
		return FormatJSON
	case "md", "markdown":
		return FormatMarkdown
	}
	if textExtensions[ext] || strings.EqualFold(path.Base(name), "dockerfile") {
		return FormatText
	}
	return FormatUnknown
}

// IsLikelyBinary reports whether data looks like binary content: any NUL
// byte, or more than 10% control characters, within the first 8 KB
func IsLikelyBinary(data []byte) bool {
	if len(data) > sniffBytes {
		data = data[:sniffBytes]
	}
	if len(data) == 0 {
		return false
	}
	control := 0
	for _, b := range data {
		if b == 0 {
			return true
		}
		if b < 0x20 && b != '\n' && b != '\r' && b != '\t' && b != '\f' {
			control++
		}
	}
	return control*10 > len(data)
}

// Parse builds a Document for name from data. truncated tells whether data
// is only the head of the object.
func Parse(name string, data []byte, truncated bool) Document {
	doc := Document{Name: name, Truncated: truncated}
	if len(data) == 0 {
		doc.Kind = KindEmpty
		return doc
	}
	if IsLikelyBinary(data) {
		doc.Kind = KindBinary
		doc.Note = "binary content"
		return doc
	}

	text := strings.ToValidUTF8(string(data), "�")

	switch DetectFormat(name) {
	case FormatCSV:
		return parseDelimited(doc, text, ',')
	case FormatTSV:
		return parseDelimited(doc, text, '\t')
	case FormatJSON:
		return parseJSON(doc, text)
	case FormatMarkdown:
		doc.Kind = KindMarkdown
		doc.Lines = splitLines(text, MaxLines, &doc.Truncated)
		return doc
	}
	doc.Kind = KindText
	doc.Lines = splitLines(text, MaxLines, &doc.Truncated)
	return doc
}

func splitLines(text string, limit int, truncated *bool) []string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	if len(lines) > limit {
		lines = lines[:limit]
		*truncated = true
	}
	return lines
}

func parseDelimited(doc Document, text string, sep rune) Document {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// a cut-off quoted field at the end of a truncated read
			if doc.Truncated {
				break
			}
			doc.Kind = KindText
			doc.Note = "could not parse as table: " + err.Error()
			doc.Lines = splitLines(text, MaxLines, &doc.Truncated)
			return doc
		}
		records = append(records, rec)
	}

	// the last record of a partial read is probably incomplete
	if doc.Truncated && len(records) > 1 {
		records = records[:len(records)-1]
	}
	if len(records) == 0 {
		doc.Kind = KindEmpty
		return doc
	}

	doc.Kind = KindTable
	doc.Headers = records[0]
	rows := records[1:]
	if len(rows) > MaxRows {
		rows = rows[:MaxRows]
		doc.Truncated = true
	}
	doc.Rows = rows
	return doc
}

func parseJSON(doc Document, text string) Document {
	var value any
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		doc.Kind = KindText
		if doc.Truncated {
			doc.Note = "partial JSON, showing raw text"
		} else {
			doc.Note = "invalid JSON, showing raw text"
		}
		doc.Lines = splitLines(text, MaxLines, &doc.Truncated)
		return doc
	}

	if headers, rows, ok := objectTable(value); ok {
		doc.Kind = KindTable
		doc.Headers = headers
		if len(rows) > MaxRows {
			rows = rows[:MaxRows]
			doc.Truncated = true
		}
		doc.Rows = rows
		return doc
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		doc.Kind = KindText
		doc.Lines = splitLines(text, MaxLines, &doc.Truncated)
		return doc
	}
	doc.Kind = KindJSON
	doc.Lines = splitLines(buf.String(), MaxLines, &doc.Truncated)
	return doc
}

// objectTable turns a non-empty array of objects into headers and rows.
// Columns are the keys of the first object in sorted order, followed by
// keys first seen in later objects.
func objectTable(value any) ([]string, [][]string, bool) {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil, nil, false
	}
	objects := make([]map[string]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, nil, false
		}
		objects = append(objects, obj)
	}

	seen := map[string]bool{}
	var headers []string
	for _, obj := range objects {
		var fresh []string
		for k := range obj {
			if !seen[k] {
				seen[k] = true
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		headers = append(headers, fresh...)
	}

	rows := make([][]string, 0, len(objects))
	for _, obj := range objects {
		row := make([]string, len(headers))
		for i, h := range headers {
			if v, ok := obj[h]; ok {
				row[i] = cell(v)
			}
		}
		rows = append(rows, row)
	}
	return headers, rows, true
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
