package dxf

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Tag is one DXF group-code/value pair.
type Tag struct {
	Code  int
	Value string
}

// Float parses the tag value as a float64.
func (t Tag) Float() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// tagReader reads group-code/value pairs from an ASCII DXF stream with
// single-tag pushback, so entity parsers can stop at the next code 0.
type tagReader struct {
	scanner *bufio.Scanner
	pushed  *Tag
	skipped int
}

func newTagReader(r io.Reader) *tagReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &tagReader{scanner: scanner}
}

// next returns the next tag. Pairs with a malformed group code are skipped;
// io.EOF is returned at end of stream.
func (tr *tagReader) next() (Tag, error) {
	if tr.pushed != nil {
		tag := *tr.pushed
		tr.pushed = nil
		return tag, nil
	}

	for {
		if !tr.scanner.Scan() {
			if err := tr.scanner.Err(); err != nil {
				return Tag{}, err
			}
			return Tag{}, io.EOF
		}
		codeLine := strings.TrimSpace(tr.scanner.Text())

		if !tr.scanner.Scan() {
			if err := tr.scanner.Err(); err != nil {
				return Tag{}, err
			}
			return Tag{}, io.EOF
		}
		// Values keep interior whitespace; DXF text may contain leading
		// spaces that matter to nobody here, so trim both ends.
		value := strings.TrimSpace(tr.scanner.Text())

		code, err := strconv.Atoi(codeLine)
		if err != nil {
			tr.skipped++
			continue
		}
		return Tag{Code: code, Value: value}, nil
	}
}

// unread pushes tag back so the next call to next returns it again.
func (tr *tagReader) unread(tag Tag) {
	tr.pushed = &tag
}
