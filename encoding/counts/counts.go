// Package counts reads and writes UMI count matrices as tab-separated text.
// The first header field names the row axis (conventionally "cell"), the
// remaining header fields are the ordered gene names; every following line
// holds a row name and one count per gene.  Files ending in .gz are
// transparently decompressed.
package counts

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/scrna/expr"
)

// Read parses a count matrix from r.
func Read(r io.Reader) (*expr.Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<28)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, errors.Wrap(err, "counts: reading header")
		}
		return nil, errors.New("counts: empty input")
	}
	header := strings.Split(scanner.Text(), "\t")
	if len(header) < 2 {
		return nil, errors.Errorf("counts: header has %d fields, want at least 2", len(header))
	}
	genes := header[1:]

	var rowNames []string
	var rows [][]float64
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != len(genes)+1 {
			return nil, errors.Errorf("counts: line %d has %d fields, want %d", lineNo, len(fields), len(genes)+1)
		}
		row := make([]float64, len(genes))
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "counts: line %d, gene %s", lineNo, genes[i])
			}
			if v < 0 {
				return nil, errors.Errorf("counts: line %d, gene %s: negative count %g", lineNo, genes[i], v)
			}
			row[i] = v
		}
		rowNames = append(rowNames, fields[0])
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "counts: reading rows")
	}

	m, err := expr.FromRows(genes, rows)
	if err != nil {
		return nil, err
	}
	if err := m.SetRowNames(rowNames); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadFile reads a count matrix from path, decompressing .gz files.
func ReadFile(path string) (m *expr.Matrix, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "counts")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(f)
	if strings.HasSuffix(path, ".gz") {
		if reader, err = gzip.NewReader(reader); err != nil {
			return nil, errors.Wrap(err, "counts: gzip")
		}
	}
	return Read(reader)
}

// Write writes m to w in the format accepted by Read.  Rows without names
// are written as row-<index>.  Counts are written with just enough precision
// to round-trip.
func Write(w io.Writer, m *expr.Matrix) error {
	out := tsv.NewWriter(w)
	out.WriteString("cell")
	for _, g := range m.Genes() {
		out.WriteString(g)
	}
	if err := out.EndLine(); err != nil {
		return errors.Wrap(err, "counts: writing header")
	}

	names := m.RowNames()
	for i := 0; i < m.NumRows(); i++ {
		if names != nil {
			out.WriteString(names[i])
		} else {
			out.WriteString("row-" + strconv.Itoa(i))
		}
		for _, v := range m.Row(i) {
			out.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := out.EndLine(); err != nil {
			return errors.Wrapf(err, "counts: writing row %d", i)
		}
	}
	return errors.Wrap(out.Flush(), "counts: flush")
}
