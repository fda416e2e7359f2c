package model

import "errors"

// Result is the outcome of converting and validating one execution.
type Result struct {
	Name     string
	Index    int
	CSVPath  string
	Expected string
	Actual   string
	Err      error
}

func (r *Result) Passed() bool {
	return r.Err == nil
}

func (r *Result) Skipped() bool {
	return IsSkip(r.Err)
}

const (
	OutcomePassed   = "passed"
	OutcomeMismatch = "mismatch"
	OutcomeSkipped  = "skipped"
	OutcomeError    = "error"
)

func (r *Result) Outcome() string {
	switch {
	case r.Err == nil:
		return OutcomePassed
	case r.Skipped():
		return OutcomeSkipped
	case errors.Is(r.Err, FieldMismatch), errors.Is(r.Err, ColumnMissing), errors.Is(r.Err, RowMissing):
		return OutcomeMismatch
	default:
		return OutcomeError
	}
}

// Summary folds the per-execution results of one run.
type Summary struct {
	Request string
	Results []*Result
}

func (s *Summary) Add(r *Result) {
	s.Results = append(s.Results, r)
}

func (s *Summary) FailedCount() int {
	failed := 0
	for _, r := range s.Results {
		if !r.Passed() {
			failed++
		}
	}
	return failed
}

// Failed is true when nothing was processed or any execution did not validate.
func (s *Summary) Failed() bool {
	return len(s.Results) == 0 || s.FailedCount() > 0
}
