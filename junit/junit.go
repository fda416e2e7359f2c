package junit

import (
	"fmt"
	"strconv"

	"github.com/apicheck/reportcsv/model"
	etree "github.com/beevik/etree"
)

const className = "reportcsv"

func caseName(r *model.Result) string {
	return fmt.Sprintf("%s#%d", r.Name, r.Index)
}

// Build renders the summary as a JUnit document with one testcase per execution. A fatal
// error becomes one more failing testcase named after the suite.
func Build(suiteName string, summary *model.Summary, fatal error) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	suites := doc.CreateElement("testsuites")
	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", suiteName)
	tests := len(summary.Results)
	failures := summary.FailedCount()
	for _, r := range summary.Results {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("classname", className)
		tc.CreateAttr("name", caseName(r))
		if r.CSVPath != "" {
			tc.CreateAttr("file", r.CSVPath)
		}
		if r.Passed() {
			continue
		}
		failure := tc.CreateElement("failure")
		failure.CreateAttr("type", r.Outcome())
		failure.CreateAttr("message", r.Err.Error())
	}
	if fatal != nil {
		// the run stopped before every execution could be checked
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("classname", className)
		tc.CreateAttr("name", suiteName)
		failure := tc.CreateElement("failure")
		failure.CreateAttr("type", "fatal")
		failure.CreateAttr("message", fatal.Error())
		tests++
		failures++
	}
	suite.CreateAttr("tests", strconv.Itoa(tests))
	suite.CreateAttr("failures", strconv.Itoa(failures))
	doc.Indent(2)
	return doc
}

func Write(path, suiteName string, summary *model.Summary, fatal error) error {
	return Build(suiteName, summary, fatal).WriteToFile(path)
}
