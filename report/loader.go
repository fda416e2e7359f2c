package report

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/apicheck/reportcsv/model"
	log "github.com/sirupsen/logrus"
)

// Load reads the report at path and normalizes it into executions in report order.
func Load(path string) ([]model.Execution, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.MakeReportNotFoundError(path)
		}
		return nil, model.MakeReportParseError(path, err)
	}
	execs, err := Decode(raw)
	if err != nil {
		return nil, model.MakeReportParseError(path, err)
	}
	log.Debugf("Loaded %d executions from %s", len(execs), path)
	return execs, nil
}

func Decode(raw []byte) ([]model.Execution, error) {
	r := new(rawReport)
	if err := json.Unmarshal(raw, r); err != nil {
		return nil, err
	}
	log.Debugf("Report has %s shape", r.shape)
	return r.normalize(), nil
}

func (r *rawReport) normalize() []model.Execution {
	execs := make([]model.Execution, len(r.executions))
	for i, re := range r.executions {
		execs[i] = model.Execution{
			Name:  re.name(),
			Index: i,
		}
		if re.Response == nil {
			continue
		}
		stream := re.Response.Stream
		if stream.err != nil {
			execs[i].Response = &model.Response{Err: stream.err}
		} else if stream.data != nil {
			execs[i].Response = &model.Response{Stream: stream.data}
		}
	}
	return execs
}
