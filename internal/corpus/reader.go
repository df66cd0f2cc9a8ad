package corpus

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	delimiters = []rune{',', ';', '\t', '|'}
)

// table is a parsed CSV file: a header and rows padded to the header width.
type table struct {
	header  []string
	rows    [][]string
	skipped int
	latin1  bool
	comma   rune
}

// decode returns data as UTF-8, falling back to ISO-8859-1 when data is not valid UTF-8.
func decode(data []byte) (string, bool, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), false, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", false, err
	}
	return string(out), true, nil
}

// sniff picks the delimiter that splits the first lines most consistently.
func sniff(text string) rune {
	lines := strings.SplitN(text, "\n", 6)
	if len(lines) > 5 {
		lines = lines[:5]
	}
	best, bestScore := ',', -1
	for _, d := range delimiters {
		header := strings.Count(lines[0], string(d))
		if header == 0 {
			continue
		}
		score := header
		for _, l := range lines[1:] {
			if strings.Count(l, string(d)) >= header {
				score += header
			}
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

func parse(data []byte) (*table, error) {
	text, latin1, err := decode(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return &table{}, nil
	}
	comma := sniff(text)
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	t := &table{header: header, latin1: latin1, comma: comma}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			t.skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > len(header) {
			t.skipped++
			continue
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}
