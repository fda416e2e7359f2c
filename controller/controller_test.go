package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apicheck/reportcsv/artifactstore"
	"github.com/apicheck/reportcsv/config"
	"github.com/apicheck/reportcsv/converter"
	"github.com/apicheck/reportcsv/model"
	"github.com/apicheck/reportcsv/utils"
	etree "github.com/beevik/etree"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userBody(id int, firstName string) string {
	return fmt.Sprintf(`{"data":{"id":%d,"email":"user%d@reqres.in","first_name":%q,"last_name":"Weaver","avatar":"https://reqres.in/img/faces/%d-image.jpg"},"support":{"url":"https://reqres.in"}}`,
		id, id, firstName, id)
}

type fixtureExecution struct {
	name string
	body string
}

// writeFixture writes a report in the run.executions shape with Buffer encoded streams.
func writeFixture(t *testing.T, dir string, execs ...fixtureExecution) string {
	items := make([]string, len(execs))
	for i, e := range execs {
		if e.body == "" {
			items[i] = fmt.Sprintf(`{"item":{"name":%q}}`, e.name)
			continue
		}
		data := make([]string, len(e.body))
		for j := 0; j < len(e.body); j++ {
			data[j] = fmt.Sprintf("%d", e.body[j])
		}
		items[i] = fmt.Sprintf(`{"item":{"name":%q},"response":{"code":200,"stream":{"type":"Buffer","data":[%s]}}}`,
			e.name, strings.Join(data, ","))
	}
	p := filepath.Join(dir, "postman-report.json")
	doc := fmt.Sprintf(`{"run":{"stats":{},"executions":[%s]}}`, strings.Join(items, ","))
	require.Nil(t, os.WriteFile(p, []byte(doc), 0644))
	return p
}

func makeController(t *testing.T, request, reportPath, outputDir string) *Controller {
	sc := config.DefaultConfig()
	sc.RequestName = request
	sc.ReportPath = reportPath
	sc.OutputDir = outputDir
	require.Nil(t, sc.Finalize())
	c, err := NewController(sc)
	require.Nil(t, err)
	c.Retrier = utils.Retrier{Limit: 1}
	return c
}

func csvFiles(t *testing.T, dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	require.Nil(t, err)
	return matches
}

func TestRunSingleMatch(t *testing.T) {
	request := "GET USER USING ID"
	dir := t.TempDir()
	out := filepath.Join(dir, "results")
	report := writeFixture(t, dir,
		fixtureExecution{"LIST USERS", `{"data":[]}`},
		fixtureExecution{request, userBody(2, "Janet")},
	)
	c := makeController(t, request, report, out)
	summary, err := c.Run()
	if err != nil {
		t.Fatal(err)
	}
	assert.False(t, summary.Failed())
	require.Equal(t, 1, len(summary.Results))
	result := summary.Results[0]
	assert.Equal(t, filepath.Join(out, "GET_USER_USING_ID.csv"), result.CSVPath)
	assert.Equal(t, "Janet", result.Actual)
	assert.Equal(t, 1, result.Index)
	assert.Equal(t, []string{result.CSVPath}, csvFiles(t, out))
}

func TestRunNoMatchWritesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "results")
	report := writeFixture(t, dir, fixtureExecution{"LIST USERS", `{"data":[]}`})
	c := makeController(t, "GET USER USING ID", report, out)
	summary, err := c.Run()
	assert.True(t, errors.Is(err, model.NoMatchingExecution))
	assert.True(t, summary.Failed())
	assert.Equal(t, 0, len(csvFiles(t, out)))
}

func TestRunMissingReport(t *testing.T) {
	dir := t.TempDir()
	c := makeController(t, "GET USER USING ID", filepath.Join(dir, "nope.json"), dir)
	_, err := c.Run()
	assert.True(t, errors.Is(err, model.ReportNotFound))
}

// upperEncoder corrupts first_name on its way to disk.
type upperEncoder struct{}

func (upperEncoder) Encode(w io.Writer, header, row []string) error {
	row[2] = strings.ToUpper(row[2])
	return converter.CSVEncoder{}.Encode(w, header, row)
}

func TestRunCorruptedWriter(t *testing.T) {
	request := "GET USER CORRUPTED"
	dir := t.TempDir()
	report := writeFixture(t, dir, fixtureExecution{request, userBody(2, "Janet")})
	c := makeController(t, request, report, dir)
	c.Converter.Encoder = upperEncoder{}
	summary, err := c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, summary.Failed())
	result := summary.Results[0]
	assert.True(t, errors.Is(result.Err, model.FieldMismatch))
	assert.Contains(t, result.Err.Error(), `"Janet"`)
	assert.Contains(t, result.Err.Error(), `"JANET"`)
	assert.Equal(t, float64(1), testutil.ToFloat64(config.ValidationCounter.WithLabelValues(request, model.OutcomeMismatch)))
	assert.Equal(t, float64(0), testutil.ToFloat64(config.LastRunSuccessGauge.WithLabelValues(request)))
}

func TestRunDuplicateNamesOverwrite(t *testing.T) {
	request := "GET USER USING ID"
	dir := t.TempDir()
	report := writeFixture(t, dir,
		fixtureExecution{request, userBody(2, "Janet")},
		fixtureExecution{request, userBody(3, "Emma")},
	)
	c := makeController(t, request, report, dir)
	summary, err := c.Run()
	if err != nil {
		t.Fatal(err)
	}
	assert.False(t, summary.Failed())
	require.Equal(t, 2, len(summary.Results))
	assert.Equal(t, "Janet", summary.Results[0].Actual)
	assert.Equal(t, "Emma", summary.Results[1].Actual)
	assert.Equal(t, summary.Results[0].CSVPath, summary.Results[1].CSVPath)

	files := csvFiles(t, dir)
	require.Equal(t, 1, len(files))
	content, err := os.ReadFile(files[0])
	require.Nil(t, err)
	assert.Contains(t, string(content), "Emma")
	assert.NotContains(t, string(content), "Janet")
}

func TestRunLenientSkipsInvalidJSON(t *testing.T) {
	request := "GET USER LENIENT"
	dir := t.TempDir()
	report := writeFixture(t, dir,
		fixtureExecution{request, `<html>502 Bad Gateway</html>`},
		fixtureExecution{request, userBody(2, "Janet")},
	)
	c := makeController(t, request, report, dir)
	summary, err := c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, len(summary.Results))
	assert.True(t, errors.Is(summary.Results[0].Err, model.ResponseDecodeError))
	assert.True(t, summary.Results[0].Skipped())
	assert.True(t, summary.Results[1].Passed())
	assert.Equal(t, 1, len(csvFiles(t, dir)))
	// a skipped execution still fails the run
	assert.True(t, summary.Failed())
	assert.Equal(t, float64(1), testutil.ToFloat64(config.ValidationCounter.WithLabelValues(request, model.OutcomeSkipped)))
	assert.Equal(t, float64(1), testutil.ToFloat64(config.ValidationCounter.WithLabelValues(request, model.OutcomePassed)))
}

func TestRunLenientSkipsUndecodableStream(t *testing.T) {
	request := "GET USER BAD STREAM"
	dir := t.TempDir()
	good := writeFixture(t, t.TempDir(), fixtureExecution{request, userBody(2, "Janet")})
	content, err := os.ReadFile(good)
	require.Nil(t, err)
	doc := strings.Replace(string(content), `"executions":[`,
		fmt.Sprintf(`"executions":[{"item":{"name":%q},"response":{"stream":[256]}},`, request), 1)
	report := filepath.Join(dir, "postman-report.json")
	require.Nil(t, os.WriteFile(report, []byte(doc), 0644))

	c := makeController(t, request, report, dir)
	summary, err := c.Run()
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, len(summary.Results))
	assert.True(t, errors.Is(summary.Results[0].Err, model.ResponseDecodeError))
	assert.True(t, summary.Results[1].Passed())
	assert.Equal(t, 1, len(csvFiles(t, dir)))

	c.sc.StrictMode = true
	_, err = c.Run()
	assert.True(t, errors.Is(err, model.ResponseDecodeError))
}

func TestRunStrictAbortsOnInvalidJSON(t *testing.T) {
	request := "GET USER USING ID"
	dir := t.TempDir()
	report := writeFixture(t, dir,
		fixtureExecution{request, `<html>502 Bad Gateway</html>`},
		fixtureExecution{request, userBody(2, "Janet")},
	)
	c := makeController(t, request, report, dir)
	c.sc.StrictMode = true
	summary, err := c.Run()
	assert.True(t, errors.Is(err, model.ResponseDecodeError))
	assert.Equal(t, 0, len(summary.Results))
	assert.Equal(t, 0, len(csvFiles(t, dir)))
}

func TestRunStrictAbortsOnMissingResponse(t *testing.T) {
	request := "GET USER USING ID"
	dir := t.TempDir()
	report := writeFixture(t, dir, fixtureExecution{request, ""})
	c := makeController(t, request, report, dir)

	summary, err := c.Run()
	assert.Nil(t, err)
	assert.True(t, errors.Is(summary.Results[0].Err, model.MissingResponse))

	c.sc.StrictMode = true
	_, err = c.Run()
	assert.True(t, errors.Is(err, model.MissingResponse))
}

func TestExecuteWritesReports(t *testing.T) {
	request := "GET USER REPORTED"
	dir := t.TempDir()
	report := writeFixture(t, dir, fixtureExecution{request, userBody(2, "Janet")})
	c := makeController(t, request, report, filepath.Join(dir, "results"))
	c.sc.JUnit = &config.JUnitConfig{Path: filepath.Join(dir, "reports", "junit.xml")}
	c.sc.Metrics = &config.MetricsConfig{Textfile: filepath.Join(dir, "metrics", "reportcsv.prom")}

	summary, err := c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	assert.False(t, summary.Failed())

	doc := etree.NewDocument()
	require.Nil(t, doc.ReadFromFile(c.sc.JUnit.Path))
	suite := doc.FindElement("//testsuite")
	require.NotNil(t, suite)
	assert.Equal(t, "1", suite.SelectAttrValue("tests", ""))
	assert.Equal(t, "0", suite.SelectAttrValue("failures", ""))

	metrics, err := os.ReadFile(c.sc.Metrics.Textfile)
	require.Nil(t, err)
	assert.Contains(t, string(metrics), `reportcsv_validations_total{outcome="passed",request="GET USER REPORTED"} 1`)
	assert.Contains(t, string(metrics), `reportcsv_last_run_success{request="GET USER REPORTED"} 1`)
}

func TestExecuteReportsFatalError(t *testing.T) {
	dir := t.TempDir()
	c := makeController(t, "GET USER FATAL", filepath.Join(dir, "missing.json"), dir)
	c.sc.JUnit = &config.JUnitConfig{Path: filepath.Join(dir, "junit.xml")}
	_, err := c.Execute()
	assert.True(t, errors.Is(err, model.ReportNotFound))

	doc := etree.NewDocument()
	require.Nil(t, doc.ReadFromFile(c.sc.JUnit.Path))
	failure := doc.FindElement("//failure")
	require.NotNil(t, failure)
	assert.Equal(t, "fatal", failure.SelectAttrValue("type", ""))
}

func TestExecutePublishesArtifacts(t *testing.T) {
	storeRoot := t.TempDir()
	server := httptest.NewServer(artifactstore.NewRouter(storeRoot))
	defer server.Close()

	dir := t.TempDir()
	report := writeFixture(t, dir,
		fixtureExecution{"GET USER USING ID", userBody(2, "Janet")},
	)
	sc := config.DefaultConfig()
	sc.ReportPath = report
	sc.OutputDir = filepath.Join(dir, "results")
	sc.ObjectStorage = &config.ObjectStorage{Provider: "local", Url: server.URL}
	require.Nil(t, sc.Finalize())
	c, err := NewController(sc)
	require.Nil(t, err)
	c.Retrier = utils.Retrier{Limit: 1}

	summary, err := c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	assert.False(t, summary.Failed())
	stored := filepath.Join(storeRoot, "reportcsv", "GET_USER_USING_ID", "GET_USER_USING_ID.csv")
	local, err := os.ReadFile(summary.Results[0].CSVPath)
	require.Nil(t, err)
	remote, err := os.ReadFile(stored)
	require.Nil(t, err)
	assert.Equal(t, local, remote)

	// a failing run removes the previously published artifact
	c.Converter.Encoder = upperEncoder{}
	summary, err = c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, summary.Failed())
	assert.NoFileExists(t, stored)
}

func TestExecuteUploadFailureFailsRun(t *testing.T) {
	server := httptest.NewServer(artifactstore.NewRouter(t.TempDir()))
	server.Close()

	dir := t.TempDir()
	report := writeFixture(t, dir, fixtureExecution{"GET USER USING ID", userBody(2, "Janet")})
	sc := config.DefaultConfig()
	sc.ReportPath = report
	sc.OutputDir = dir
	sc.ObjectStorage = &config.ObjectStorage{Provider: "local", Url: server.URL}
	require.Nil(t, sc.Finalize())
	c, err := NewController(sc)
	require.Nil(t, err)
	c.Retrier = utils.Retrier{Limit: 1}

	summary, err := c.Execute()
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, summary.Failed())
	assert.Contains(t, summary.Results[0].Err.Error(), "artifact upload")
}
