package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type reportShape int

const (
	shapeObject reportShape = iota
	shapeList
)

func (s reportShape) String() string {
	if s == shapeList {
		return "list"
	}
	return "object"
}

// rawReport is either {"run": {"executions": [...]}} or a bare list of executions.
type rawReport struct {
	shape      reportShape
	executions []rawExecution
}

type rawRun struct {
	Executions []rawExecution `json:"executions"`
}

type rawObjectReport struct {
	Run *rawRun `json:"run"`
}

func (r *rawReport) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return errors.New("empty document")
	}
	switch trimmed[0] {
	case '[':
		r.shape = shapeList
		return json.Unmarshal(trimmed, &r.executions)
	case '{':
		r.shape = shapeObject
		obj := new(rawObjectReport)
		if err := json.Unmarshal(trimmed, obj); err != nil {
			return err
		}
		if obj.Run != nil {
			r.executions = obj.Run.Executions
		}
		return nil
	default:
		return fmt.Errorf("report must be an object or a list, got %q", trimmed[0])
	}
}

type rawRequest struct {
	Name string `json:"name"`
}

type rawResponse struct {
	Stream rawStream `json:"stream"`
}

type rawExecution struct {
	Item            *rawRequest  `json:"item"`
	RequestExecuted *rawRequest  `json:"requestExecuted"`
	Response        *rawResponse `json:"response"`
}

func (re *rawExecution) name() string {
	if re.Item != nil {
		return re.Item.Name
	}
	if re.RequestExecuted != nil {
		return re.RequestExecuted.Name
	}
	return ""
}

// rawStream is a response body serialized as a Node Buffer ({"type":"Buffer","data":[...]}),
// a bare byte array or a plain string. A body that fits none of these keeps its decode error so
// that only its own execution is rejected.
type rawStream struct {
	data []byte
	err  error
}

type rawBuffer struct {
	Type string `json:"type"`
	Data []int  `json:"data"`
}

func (s *rawStream) UnmarshalJSON(b []byte) error {
	s.data, s.err = decodeStream(b)
	return nil
}

func decodeStream(b []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var data []int
	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, err
		}
		return []byte(text), nil
	case '[':
		if err := json.Unmarshal(trimmed, &data); err != nil {
			return nil, err
		}
	case '{':
		buf := new(rawBuffer)
		if err := json.Unmarshal(trimmed, buf); err != nil {
			return nil, err
		}
		data = buf.Data
	default:
		return nil, fmt.Errorf("unsupported response stream %q", trimmed[0])
	}
	out := make([]byte, len(data))
	for i, v := range data {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("response stream byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}
