package model

// Execution is one recorded invocation of a named request in a test-run report.
type Execution struct {
	Name     string
	Index    int
	Response *Response
}

type Response struct {
	Stream []byte
	// Err is set when the recorded body could not be turned into bytes.
	Err error
}

func (e *Execution) HasResponse() bool {
	return e.Response != nil && len(e.Response.Stream) > 0
}

// Record is the `data` object pulled out of a matching execution's response body.
type Record struct {
	Name  string
	Index int
	Data  map[string]interface{}
}
