package controller

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"path"
	"path/filepath"
	"strings"

	"github.com/apicheck/reportcsv/converter"
	"github.com/apicheck/reportcsv/model"
	sos "github.com/apicheck/reportcsv/object_storage"
	log "github.com/sirupsen/logrus"
)

func (c *Controller) artifactPrefix() string {
	if c.sc.ObjectStorage != nil && c.sc.ObjectStorage.Prefix != "" {
		return strings.Trim(c.sc.ObjectStorage.Prefix, "/")
	}
	return path.Join("reportcsv", strings.TrimSuffix(converter.FileName(c.sc.RequestName), ".csv"))
}

func (c *Controller) artifactKey(csvPath string) string {
	return path.Join(c.artifactPrefix(), filepath.Base(csvPath))
}

// groupByFile keeps the order in which CSV files were first written. Executions sharing a
// request name share a file.
func groupByFile(summary *model.Summary) ([]string, map[string][]*model.Result) {
	var files []string
	groups := make(map[string][]*model.Result)
	for _, r := range summary.Results {
		if r.CSVPath == "" {
			continue
		}
		if _, ok := groups[r.CSVPath]; !ok {
			files = append(files, r.CSVPath)
		}
		groups[r.CSVPath] = append(groups[r.CSVPath], r)
	}
	return files, groups
}

func allPassed(results []*model.Result) bool {
	for _, r := range results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

// publishArtifacts uploads every CSV whose executions all validated and removes the stored copy
// of the others so a stale artifact is never mistaken for a fresh one.
func (c *Controller) publishArtifacts(summary *model.Summary) {
	files, groups := groupByFile(summary)
	for _, csvPath := range files {
		key := c.artifactKey(csvPath)
		results := groups[csvPath]
		if !allPassed(results) {
			if err := c.removeArtifact(key); err != nil {
				log.Warnf("Cannot remove stale artifact %s: %v", key, err)
			}
			continue
		}
		if err := c.uploadArtifact(csvPath, key); err != nil {
			uploadErr := fmt.Errorf("artifact upload %s: %w", key, err)
			log.Error(uploadErr)
			for _, r := range results {
				r.Err = uploadErr
			}
			continue
		}
		log.Infof("Published %s to %s", csvPath, c.Storage.GetUrl(key))
	}
}

func (c *Controller) uploadArtifact(csvPath, key string) error {
	content, err := ioutil.ReadFile(csvPath)
	if err != nil {
		return err
	}
	return c.Retrier.Retry(func() error {
		if err := c.Storage.Upload(key, ioutil.NopCloser(bytes.NewReader(content))); err != nil {
			return err
		}
		stored, err := c.Storage.Download(key)
		if err != nil {
			return err
		}
		if !bytes.Equal(stored, content) {
			return errors.New("stored artifact differs from the local CSV")
		}
		return nil
	}, nil)
}

func (c *Controller) removeArtifact(key string) error {
	err := c.Retrier.Retry(func() error {
		return c.Storage.Delete(key)
	}, sos.FileNotFoundError())
	if err == nil || sos.IsFileNotFound(err) {
		return nil
	}
	return err
}
