package converter

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/apicheck/reportcsv/model"
	log "github.com/sirupsen/logrus"
)

type Converter struct {
	Fields  []string
	Column  string
	Encoder Encoder
}

func NewConverter(fields []string, column string) *Converter {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	if column == "" {
		column = DefaultColumn
	}
	return &Converter{
		Fields:  fields,
		Column:  column,
		Encoder: CSVEncoder{},
	}
}

// Write overwrites <dir>/<FileName(record.Name)> with the record's CSV row.
func (c *Converter) Write(dir string, record *model.Record) (string, error) {
	path := filepath.Join(dir, FileName(record.Name))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return path, model.MakeCSVError(path, err)
	}
	if err := c.Encoder.Encode(f, c.Fields, Project(record.Data, c.Fields)); err != nil {
		f.Close()
		return path, model.MakeCSVError(path, err)
	}
	if err := f.Close(); err != nil {
		return path, model.MakeCSVError(path, err)
	}
	log.Debugf("Wrote %d fields of %q to %s", len(c.Fields), record.Name, path)
	return path, nil
}

// Convert writes the record then checks the written file against it.
func (c *Converter) Convert(dir string, record *model.Record) *model.Result {
	result := &model.Result{
		Name:     record.Name,
		Index:    record.Index,
		Expected: FormatValue(record.Data[c.Column]),
	}
	path, err := c.Write(dir, record)
	result.CSVPath = path
	if err != nil {
		result.Err = err
		return result
	}
	result.Actual, result.Err = Validate(path, c.Column, result.Expected)
	return result
}

// Validate reads column from the first data row of the CSV at path and compares it with expected.
func Validate(path, column, expected string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", model.MakeCSVError(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return "", model.MakeColumnMissingError(column, path)
	}
	if err != nil {
		return "", model.MakeCSVError(path, err)
	}
	idx := -1
	for i, h := range header {
		if h == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", model.MakeColumnMissingError(column, path)
	}
	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return "", model.MakeRowMissingError(path)
	}
	if err != nil {
		return "", model.MakeCSVError(path, err)
	}
	if idx >= len(row) {
		return "", model.MakeRowMissingError(path)
	}
	actual := row[idx]
	if actual != expected {
		return actual, model.MakeFieldMismatchError(column, expected, actual)
	}
	return actual, nil
}
