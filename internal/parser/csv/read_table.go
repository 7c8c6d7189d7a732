// Package csv reads source CSV files into frame.Table values.
//
// The reader is batch-oriented: a file is opened, fully consumed and closed
// within a single call. Cell and header conventions:
//   - header cells are trimmed and the UTF-8 BOM is stripped from the first
//   - empty cells become nil (missing)
//   - column types are inferred after the read: int64 when every cell is an
//     integer and none are missing, float64 when every non-missing cell is
//     numeric, object otherwise
//
// Options understood (config.Options):
//   - "has_header" (bool, default true)
//   - "comma" (string, default ",")
//   - "trim_space" (bool, default true)
//   - "lazy_quotes" (bool, default false)
//   - "sample_every" (int, default 1): keep data line i when i%n == 0,
//     counting from 1 under the header; deterministic subsampling
//   - "encoding" ("utf-8" default, or "windows-1252")
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ChronoBoot/loan-score/internal/config"
	"github.com/ChronoBoot/loan-score/internal/frame"
)

// ReadTable reads one CSV document into a table.
//
// Errors:
//   - header read failures and malformed record errors are fatal; source
//     tables are machine-produced and a parse error means a broken file,
//     not a bad row.
func ReadTable(ctx context.Context, src io.Reader, opt config.Options) (*frame.Table, error) {
	hasHeader := opt.Bool("has_header", true)
	comma := opt.Rune("comma", ',')
	trim := opt.Bool("trim_space", true)
	lazy := opt.Bool("lazy_quotes", false)
	sampleEvery := opt.Int("sample_every", 1)
	if sampleEvery < 1 {
		sampleEvery = 1
	}

	if enc := opt.String("encoding", ""); enc != "" {
		var err error
		src, err = decodeReader(src, enc)
		if err != nil {
			return nil, err
		}
	}

	cr := csv.NewReader(src)
	cr.Comma = comma
	cr.LazyQuotes = lazy
	cr.FieldsPerRecord = -1

	var header []string
	if hasHeader {
		hdr, err := cr.Read()
		if err != nil {
			return nil, fmt.Errorf("csv: read header: %w", err)
		}
		header = make([]string, len(hdr))
		for i, h := range hdr {
			if trim {
				h = strings.TrimSpace(h)
			}
			if i == 0 {
				h = strings.TrimPrefix(h, "\uFEFF")
			}
			header[i] = h
		}
	}

	var cells [][]string // column-major raw cells; "" means missing
	var nrows int
	line := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read line %d: %w", line+1, err)
		}
		line++
		if line%sampleEvery != 0 {
			continue
		}

		if header == nil {
			header = make([]string, len(rec))
			for i := range rec {
				header[i] = "col_" + strconv.Itoa(i)
			}
		}
		if cells == nil {
			cells = make([][]string, len(header))
		}
		for i := range header {
			v := ""
			if i < len(rec) {
				v = rec[i]
				if trim && v != strings.TrimSpace(v) {
					v = strings.TrimSpace(v)
				}
			}
			cells[i] = append(cells[i], v)
		}
		nrows++
	}

	if header == nil {
		return nil, fmt.Errorf("csv: empty input")
	}
	if cells == nil {
		cells = make([][]string, len(header))
	}

	t := frame.New()
	for i, name := range header {
		if err := t.AddColumn(buildColumn(name, cells[i], nrows)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// buildColumn infers the column kind from the raw cells and converts them
// to frame values.
func buildColumn(name string, raw []string, nrows int) *frame.Column {
	intOK, floatOK, hasNull := true, true, false
	for _, s := range raw {
		if s == "" {
			hasNull = true
			continue
		}
		if intOK {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				intOK = false
			}
		}
		if floatOK {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				floatOK = false
			}
		}
	}

	c := &frame.Column{Name: name, Vals: make([]any, nrows)}
	switch {
	case intOK && floatOK && !hasNull && len(raw) > 0:
		c.Kind = frame.Int64
	case floatOK && len(raw) > 0:
		c.Kind = frame.Float64
	default:
		c.Kind = frame.String
	}

	for i, s := range raw {
		if s == "" {
			continue
		}
		if c.Kind == frame.String {
			c.Vals[i] = s
			continue
		}
		f, _ := strconv.ParseFloat(s, 64)
		c.Vals[i] = f
	}
	return c
}

func decodeReader(src io.Reader, enc string) (io.Reader, error) {
	switch strings.ToLower(enc) {
	case "", "utf-8", "utf8":
		return src, nil
	case "windows-1252", "cp1252", "latin1":
		return transform.NewReader(src, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("csv: unsupported encoding %q", enc)
	}
}
