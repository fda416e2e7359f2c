package converter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var DefaultFields = []string{"id", "email", "first_name", "last_name", "avatar"}

const DefaultColumn = "first_name"

// Encoder serializes a header and a single data row.
type Encoder interface {
	Encode(w io.Writer, header, row []string) error
}

// CSVEncoder quotes a value when it holds a comma, a quote or a line break and doubles
// embedded quotes.
type CSVEncoder struct{}

// emptyRecord is a row made of one empty field. Left bare it would be a blank line, which
// readers skip.
const emptyRecord = `""` + "\n"

func (CSVEncoder) Encode(w io.Writer, header, row []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if len(row) == 1 && row[0] == "" {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		_, err := io.WriteString(w, emptyRecord)
		return err
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Project selects fields from data in order. Absent and null fields become empty strings.
func Project(data map[string]interface{}, fields []string) []string {
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = FormatValue(data[f])
	}
	return row
}

func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

var separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")

// FileName turns a request name into a CSV file name: "GET USER USING ID" -> "GET_USER_USING_ID.csv".
func FileName(requestName string) string {
	name := whitespaceRun.ReplaceAllString(requestName, "_")
	return separatorReplacer.Replace(name) + ".csv"
}
