// Package csvimport reads spreadsheet exports of mapping tables.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Parser reads a header row followed by data rows keyed by header name
type Parser struct {
	delimiter rune
	headers   []string
	index     map[string]int
	line      int
	reader    *csv.Reader
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.delimiter = d
	}
}

// NewParser wraps r, dropping a UTF-8 byte order mark and rejecting
// content that is empty or not UTF-8.
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{delimiter: ',', index: make(map[string]int)}
	for _, opt := range opts {
		opt(p)
	}

	buf := bufio.NewReader(r)
	if bom, err := buf.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	const sniff = 4096
	head, err := buf.Peek(sniff)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(strings.TrimSpace(string(head))) == 0 {
		return nil, ErrEmptyFile
	}
	valid := utf8.Valid(head)
	if !valid && len(head) == sniff {
		valid = utf8.Valid(trimPartialRune(head))
	}
	if !valid {
		return nil, ErrInvalidEncoding
	}

	p.reader = csv.NewReader(buf)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// a peek window may end in the middle of a multi-byte rune
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

// ParseHeader reads the header row. Header names are lower-cased.
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	p.line = 1

	p.headers = make([]string, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		p.headers[i] = name
		if name != "" {
			p.index[name] = i
		}
	}
	if len(p.index) == 0 {
		return ErrMissingHeader
	}
	return nil
}

// Headers returns the parsed header names
func (p *Parser) Headers() []string {
	return p.headers
}

// MissingHeaders lists the required names absent from the header row
func (p *Parser) MissingHeaders(required ...string) []string {
	var missing []string
	for _, h := range required {
		if _, ok := p.index[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data row with its 1-based line number in the file
type Row struct {
	Line   int
	fields map[string]string
}

// Get returns the trimmed value of a column, empty when absent
func (r Row) Get(column string) string {
	return r.fields[column]
}

// IsBlank reports whether every cell is empty
func (r Row) IsBlank() bool {
	for _, v := range r.fields {
		if v != "" {
			return false
		}
	}
	return true
}

// Next returns the next row or io.EOF
func (p *Parser) Next() (Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return Row{}, io.EOF
	}
	p.line++
	if err != nil {
		return Row{}, fmt.Errorf("line %d: %w", p.line, err)
	}

	row := Row{Line: p.line, fields: make(map[string]string, len(p.index))}
	for name, i := range p.index {
		if i < len(record) {
			row.fields[name] = strings.TrimSpace(record[i])
		}
	}
	return row, nil
}
