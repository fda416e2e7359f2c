package controller

import (
	"fmt"
	"path/filepath"

	"github.com/apicheck/reportcsv/config"
	"github.com/apicheck/reportcsv/junit"
	"github.com/apicheck/reportcsv/model"
	"github.com/apicheck/reportcsv/utils"
	log "github.com/sirupsen/logrus"
)

func recordMetrics(summary *model.Summary, fatal error) {
	request := summary.Request
	for _, r := range summary.Results {
		config.ValidationCounter.WithLabelValues(request, r.Outcome()).Inc()
	}
	config.MatchedGauge.WithLabelValues(request).Set(float64(len(summary.Results)))
	success := 0.0
	if fatal == nil && !summary.Failed() {
		success = 1
	}
	config.LastRunSuccessGauge.WithLabelValues(request).Set(success)
}

// writeReports records metrics and writes the junit and metrics files when they are configured.
func (c *Controller) writeReports(summary *model.Summary, fatal error) error {
	recordMetrics(summary, fatal)
	if c.sc.JUnit != nil && c.sc.JUnit.Path != "" {
		if err := utils.MakeFolder(filepath.Dir(c.sc.JUnit.Path)); err != nil {
			return err
		}
		if err := junit.Write(c.sc.JUnit.Path, summary.Request, summary, fatal); err != nil {
			return fmt.Errorf("Cannot write junit report %s: %w", c.sc.JUnit.Path, err)
		}
		log.Debugf("Wrote junit report to %s", c.sc.JUnit.Path)
	}
	if c.sc.Metrics != nil && c.sc.Metrics.Textfile != "" {
		if err := utils.MakeFolder(filepath.Dir(c.sc.Metrics.Textfile)); err != nil {
			return err
		}
		if err := config.WriteMetrics(c.sc.Metrics.Textfile); err != nil {
			return fmt.Errorf("Cannot write metrics %s: %w", c.sc.Metrics.Textfile, err)
		}
		log.Debugf("Wrote metrics to %s", c.sc.Metrics.Textfile)
	}
	return nil
}
