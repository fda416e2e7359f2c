package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"unicode/utf8"

	"github.com/apicheck/reportcsv/model"
	log "github.com/sirupsen/logrus"
)

const dataField = "data"

// Extract pulls the `data` object out of every execution named target, in report order.
//
// Records that cannot be extracted come back as failed results when strict is false, and scanning
// goes on. With strict set the first such error is returned and nothing else is. Finding no
// execution named target is always an error.
func Extract(execs []model.Execution, target string, strict bool) ([]*model.Record, []*model.Result, error) {
	var records []*model.Record
	var skips []*model.Result
	matched := 0
	for i := range execs {
		e := &execs[i]
		if e.Name != target {
			continue
		}
		matched++
		record, err := extractRecord(e)
		if err != nil {
			if strict {
				return nil, nil, err
			}
			log.WithFields(log.Fields{"request": e.Name, "index": e.Index}).Warnf("Skipping execution: %v", err)
			skips = append(skips, &model.Result{Name: e.Name, Index: e.Index, Err: err})
			continue
		}
		records = append(records, record)
	}
	if matched == 0 {
		return nil, nil, model.MakeNoMatchingExecutionError(target)
	}
	return records, skips, nil
}

func extractRecord(e *model.Execution) (*model.Record, error) {
	if e.Response != nil && e.Response.Err != nil {
		return nil, model.MakeResponseDecodeError(e, e.Response.Err)
	}
	if !e.HasResponse() {
		return nil, model.MakeMissingResponseError(e)
	}
	data, err := decodeData(e.Response.Stream)
	if err != nil {
		if errors.Is(err, errNoData) {
			return nil, model.MakeMissingDataFieldError(e)
		}
		return nil, model.MakeResponseDecodeError(e, err)
	}
	return &model.Record{
		Name:  e.Name,
		Index: e.Index,
		Data:  data,
	}, nil
}

var (
	errInvalidUTF8 = errors.New("response body is not valid UTF-8")
	errNoData      = errors.New("no data object")
)

func decodeData(stream []byte) (map[string]interface{}, error) {
	if !utf8.Valid(stream) {
		return nil, errInvalidUTF8
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(stream, &payload); err != nil {
		return nil, err
	}
	raw, ok := payload[dataField]
	if !ok {
		return nil, errNoData
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		// null, scalars and arrays are not a data object
		return nil, errNoData
	}
	d := json.NewDecoder(bytes.NewReader(trimmed))
	d.UseNumber()
	var data map[string]interface{}
	if err := d.Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}
