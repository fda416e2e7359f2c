package utils

import (
	"errors"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

const RETRY_LIMIT int = 5
const RETRY_INTERVAL = 2 * time.Second

type Retrier struct {
	Limit    int
	Interval time.Duration
}

var DefaultRetrier = Retrier{Limit: RETRY_LIMIT, Interval: RETRY_INTERVAL}

// Retry calls attempt until it succeeds, fails with exempt, or runs out of attempts.
func (r Retrier) Retry(attempt func() error, exempt error) error {
	var err error
	for i := 0; i < r.Limit; i++ {
		err = attempt()
		if err == nil {
			return nil
		}
		if exempt != nil && errors.Is(err, exempt) {
			return err
		}
		pc, file, line, ok := runtime.Caller(1)
		if ok {
			log.Errorf("%s Called from %s, line #%d, func: %v", err,
				file, line, runtime.FuncForPC(pc).Name())
		}
		if i < r.Limit-1 {
			time.Sleep(r.Interval)
		}
	}
	return err
}

func Retry(attempt func() error, exempt error) error {
	return DefaultRetrier.Retry(attempt, exempt)
}
