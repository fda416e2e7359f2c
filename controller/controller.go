package controller

import (
	"fmt"
	"sort"

	"github.com/apicheck/reportcsv/config"
	"github.com/apicheck/reportcsv/converter"
	"github.com/apicheck/reportcsv/extractor"
	"github.com/apicheck/reportcsv/model"
	sos "github.com/apicheck/reportcsv/object_storage"
	"github.com/apicheck/reportcsv/report"
	"github.com/apicheck/reportcsv/utils"
	log "github.com/sirupsen/logrus"
)

type Controller struct {
	Converter *converter.Converter
	Storage   sos.StorageInterface
	Retrier   utils.Retrier
	sc        *config.ReportCSVConfig
}

func NewController(sc *config.ReportCSVConfig) (*Controller, error) {
	c := &Controller{
		Converter: converter.NewConverter(sc.Fields, sc.ValidateField),
		Retrier:   utils.DefaultRetrier,
		sc:        sc,
	}
	if sc.ObjectStorage != nil {
		s, err := sos.NewStorage(sc)
		if err != nil {
			return nil, err
		}
		c.Storage = s
	}
	return c, nil
}

// Run loads the report, converts every matching execution and validates each written CSV.
// The returned summary is never nil. A non-nil error is fatal and the summary is then partial.
func (c *Controller) Run() (*model.Summary, error) {
	summary := &model.Summary{Request: c.sc.RequestName}
	if err := utils.MakeFolder(c.sc.OutputDir); err != nil {
		return summary, fmt.Errorf("Cannot create output folder %s: %w", c.sc.OutputDir, err)
	}
	execs, err := report.Load(c.sc.ReportPath)
	if err != nil {
		return summary, err
	}
	records, skips, err := extractor.Extract(execs, c.sc.RequestName, c.sc.StrictMode)
	if err != nil {
		return summary, err
	}
	for _, record := range records {
		result := c.Converter.Convert(c.sc.OutputDir, record)
		logResult(result, c.Converter.Column)
		summary.Add(result)
	}
	for _, skip := range skips {
		summary.Add(skip)
	}
	sort.SliceStable(summary.Results, func(i, j int) bool {
		return summary.Results[i].Index < summary.Results[j].Index
	})
	return summary, nil
}

func logResult(r *model.Result, column string) {
	entry := log.WithFields(log.Fields{
		"request": r.Name,
		"index":   r.Index,
		"csv":     r.CSVPath,
	})
	if r.Passed() {
		entry.Infof("Validation passed: %s=%q matches CSV", column, r.Expected)
		return
	}
	entry.Errorf("Validation failed: %v", r.Err)
}

// Execute runs the pipeline, publishes the CSV artifacts and writes the configured reports.
func (c *Controller) Execute() (*model.Summary, error) {
	summary, err := c.Run()
	if err == nil && c.Storage != nil {
		c.publishArtifacts(summary)
	}
	if reportErr := c.writeReports(summary, err); reportErr != nil {
		if err != nil {
			log.Error(reportErr)
		} else {
			err = reportErr
		}
	}
	if err != nil {
		if model.IsSkip(err) {
			err = fmt.Errorf("strict mode: %w", err)
		}
		return summary, err
	}
	if summary.Failed() {
		log.Errorf("%d of %d executions of %q failed validation", summary.FailedCount(),
			len(summary.Results), summary.Request)
	} else {
		log.Infof("All %d executions of %q validated", len(summary.Results), summary.Request)
	}
	return summary, nil
}
