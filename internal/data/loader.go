package data

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// LoadCSV reads a labeled crop table. Columns are located by header name so
// the file may order them freely; any malformed row fails the whole load.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()
	ds, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read dataset %s", path)
	}
	ds.Path = path
	return ds, nil
}

func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, errors.Wrap(err, "header")
	}
	pos := map[string]int{}
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	cols := make([]int, len(FeatureColumns))
	for j, name := range FeatureColumns {
		i, ok := pos[name]
		if !ok {
			return nil, errors.Newf("missing column %q", name)
		}
		cols[j] = i
	}
	labelCol, ok := pos[LabelColumn]
	if !ok {
		return nil, errors.Newf("missing column %q", LabelColumn)
	}

	ds := &Dataset{}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		var v [7]float64
		for j, c := range cols {
			x, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d column %q", line, FeatureColumns[j])
			}
			v[j] = x
		}
		label := strings.TrimSpace(row[labelCol])
		if label == "" {
			return nil, errors.Newf("line %d: empty label", line)
		}
		ds.Samples = append(ds.Samples, Sample{
			Measurements: Measurements{N: v[0], P: v[1], K: v[2], Temperature: v[3], Humidity: v[4], PH: v[5], Rainfall: v[6]},
			Label:        label,
		})
	}
	if len(ds.Samples) == 0 {
		return nil, errors.New("csv has no rows")
	}
	return ds, nil
}

func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, FeatureColumns...), LabelColumn)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		m := s.Measurements
		rec := []string{
			fmtFloat(m.N), fmtFloat(m.P), fmtFloat(m.K),
			fmtFloat(m.Temperature), fmtFloat(m.Humidity), fmtFloat(m.PH), fmtFloat(m.Rainfall),
			s.Label,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
