package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/apicheck/reportcsv/config"
	"github.com/apicheck/reportcsv/controller"
	"github.com/apicheck/reportcsv/model"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath  string
	reportPath  string
	outputDir   string
	requestName string
	field       string
	junitPath   string
	metricsPath string
	strict      bool
	verbose     bool
)

var errValidationFailed = errors.New("validation failed")

var rootCmd = &cobra.Command{
	Use:   "reportcsv",
	Short: "Extract an API test response to CSV and check the CSV against it",
	Long: `reportcsv reads a Postman/Newman JSON report, finds every execution of one request,
writes the response's data object to <output-dir>/<request>.csv and reads the CSV back to
make sure the validated field survived the conversion.

It exits 1 when the report is missing, the request never ran, or any execution fails.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runValidation,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Convert and validate the configured request (default command)",
	RunE:  runValidation,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "JSON or YAML config file")
	pf.StringVar(&reportPath, "report", config.DefaultReportPath, "path of the JSON test-run report")
	pf.StringVar(&outputDir, "output-dir", config.DefaultOutputDir, "directory receiving the CSV files")
	pf.StringVar(&requestName, "request", config.DefaultRequestName, "request name to extract")
	pf.StringVar(&field, "field", "", "column checked after the CSV is written")
	pf.StringVar(&junitPath, "junit", "", "write a JUnit XML summary to this path")
	pf.StringVar(&metricsPath, "metrics-textfile", "", "write Prometheus metrics to this textfile")
	pf.BoolVar(&strict, "strict", false, "abort on the first execution that cannot be extracted")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(runCmd, versionCmd)
}

// applyFlags lets explicitly set flags win over the config file.
func applyFlags(cmd *cobra.Command, sc *config.ReportCSVConfig) {
	flags := cmd.Flags()
	if flags.Changed("report") {
		sc.ReportPath = reportPath
	}
	if flags.Changed("output-dir") {
		sc.OutputDir = outputDir
	}
	if flags.Changed("request") {
		sc.RequestName = requestName
	}
	if flags.Changed("field") {
		sc.ValidateField = field
	}
	if flags.Changed("strict") {
		sc.StrictMode = strict
	}
	if flags.Changed("junit") {
		sc.JUnit = &config.JUnitConfig{Path: junitPath}
	}
	if flags.Changed("metrics-textfile") {
		sc.Metrics = &config.MetricsConfig{Textfile: metricsPath}
	}
}

func runValidation(cmd *cobra.Command, args []string) error {
	sc, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, sc)
	if err := sc.Finalize(); err != nil {
		return err
	}
	if err := config.SetupLogging(sc, verbose); err != nil {
		return err
	}
	c, err := controller.NewController(sc)
	if err != nil {
		return err
	}
	summary, err := c.Execute()
	if err != nil {
		return err
	}
	if summary.Failed() {
		return errValidationFailed
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		switch {
		case errors.Is(err, errValidationFailed):
		case model.IsFatal(err):
			log.Errorf("Aborting: %v", err)
		default:
			log.Error(err)
		}
		os.Exit(1)
	}
}
