package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encodings reported by Read.
const (
	EncodingUTF8     = "utf-8"
	EncodingUTF8BOM  = "utf-8-bom"
	EncodingShiftJIS = "shift_jis"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("file is empty")

// Table is a decoded delimited file: one header row followed by data rows.
// Data rows are padded to the header width.
type Table struct {
	Header   []string
	Rows     [][]string
	Encoding string

	lines []int
}

// Column names a logical column and the header spellings accepted for it.
type Column struct {
	Name    string
	Aliases []string
}

// Requirement is satisfied when any one of its columns is present.
type Requirement []Column

func (r Requirement) String() string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return strings.Join(names, "|")
}

// Read decodes a UTF-8 (with or without BOM) or Shift-JIS delimited file.
// Tab is used as the delimiter when the header line has tabs and no commas.
func Read(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	encoding := EncodingUTF8
	var decoder transform.Transformer
	switch {
	case bytes.HasPrefix(raw, utf8BOM):
		encoding = EncodingUTF8BOM
		decoder = unicode.UTF8BOM.NewDecoder()
	case utf8.Valid(raw):
		decoder = transform.Nop
	default:
		encoding = EncodingShiftJIS
		decoder = japanese.ShiftJIS.NewDecoder()
	}

	text, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s input: %w", encoding, err)
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.Comma = sniffDelimiter(text)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	// Leading-space trimming would also eat tab delimiters.
	cr.TrimLeadingSpace = cr.Comma == ','

	t := &Table{Encoding: encoding}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse delimited input: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if t.Header == nil {
			for _, h := range rec {
				t.Header = append(t.Header, strings.TrimSpace(h))
			}
			t.Header[0] = strings.TrimPrefix(t.Header[0], "\ufeff")
			continue
		}
		if isBlank(rec) {
			continue
		}

		row := make([]string, max(len(rec), len(t.Header)))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
		t.lines = append(t.lines, line)
	}
	if t.Header == nil {
		return nil, ErrEmptyFile
	}

	return t, nil
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Index returns the position of the first header matching the column, or -1.
func (t *Table) Index(c Column) int {
	for i, h := range t.Header {
		if c.matches(h) {
			return i
		}
	}
	return -1
}

// Has reports whether the column is present.
func (t *Table) Has(c Column) bool {
	return t.Index(c) >= 0
}

// Require checks every requirement and reports all of them when any is unmet.
func (t *Table) Require(reqs ...Requirement) error {
	var missing []string
	for _, req := range reqs {
		found := false
		for _, c := range req {
			if t.Has(c) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}

	required := make([]string, len(reqs))
	for i, req := range reqs {
		required[i] = req.String()
	}
	return &SchemaError{Required: required, Missing: missing}
}

// Line returns the 1-based source line of Rows[i]. Tables built in memory
// fall back to counting the header as line 1.
func (t *Table) Line(i int) int {
	if i < len(t.lines) {
		return t.lines[i]
	}
	return i + 2
}

// Cell returns the trimmed value at column idx of Rows[i], or "" when idx is -1.
func (t *Table) Cell(i, idx int) string {
	if idx < 0 || idx >= len(t.Rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[i][idx])
}

func (c Column) matches(header string) bool {
	h := normalizeHeader(header)
	if h == normalizeHeader(c.Name) {
		return true
	}
	for _, a := range c.Aliases {
		if h == normalizeHeader(a) {
			return true
		}
	}
	return false
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sniffDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	if bytes.IndexByte(line, '\t') >= 0 && bytes.IndexByte(line, ',') < 0 {
		return '\t'
	}
	return ','
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
