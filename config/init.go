package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/apicheck/reportcsv/converter"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	DefaultReportPath  = "results/postman-report.json"
	DefaultOutputDir   = "results"
	DefaultRequestName = "GET USER USING ID"
)

type LogFormat struct {
	Json     bool   `json:"json" yaml:"json"`
	JsonPath string `json:"path" yaml:"path"`
}

type HttpConfig struct {
	Proxy string `json:"proxy" yaml:"proxy"`
}

type ObjectStorage struct {
	Provider     string `json:"provider" yaml:"provider"`
	Url          string `json:"url" yaml:"url"`
	User         string `json:"user" yaml:"user"`
	Password     string `json:"password" yaml:"password"`
	Bucket       string `json:"bucket" yaml:"bucket"`
	Prefix       string `json:"prefix" yaml:"prefix"`
	RequireProxy bool   `json:"require_proxy" yaml:"require_proxy"`
}

type JUnitConfig struct {
	Path string `json:"path" yaml:"path"`
}

type MetricsConfig struct {
	Textfile string `json:"textfile" yaml:"textfile"`
}

type ReportCSVConfig struct {
	ReportPath    string         `json:"report_path" yaml:"report_path"`
	OutputDir     string         `json:"output_dir" yaml:"output_dir"`
	RequestName   string         `json:"request_name" yaml:"request_name"`
	Fields        []string       `json:"fields" yaml:"fields"`
	ValidateField string         `json:"validate_field" yaml:"validate_field"`
	StrictMode    bool           `json:"strict_mode" yaml:"strict_mode"`
	LogFormat     *LogFormat     `json:"log_format" yaml:"log_format"`
	HttpConfig    *HttpConfig    `json:"http_config" yaml:"http_config"`
	JUnit         *JUnitConfig   `json:"junit" yaml:"junit"`
	Metrics       *MetricsConfig `json:"metrics" yaml:"metrics"`
	ObjectStorage *ObjectStorage `json:"object_storage" yaml:"object_storage"`

	// below are generated from above values
	HTTPClient      *http.Client `json:"-" yaml:"-"`
	HTTPProxyClient *http.Client `json:"-" yaml:"-"`
}

func DefaultConfig() *ReportCSVConfig {
	return &ReportCSVConfig{
		ReportPath:    DefaultReportPath,
		OutputDir:     DefaultOutputDir,
		RequestName:   DefaultRequestName,
		Fields:        append([]string(nil), converter.DefaultFields...),
		ValidateField: converter.DefaultColumn,
		LogFormat:     &LogFormat{},
		HttpConfig:    &HttpConfig{},
	}
}

func isYaml(configPath string) bool {
	ext := strings.ToLower(filepath.Ext(configPath))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig reads configPath over the defaults. An empty configPath yields the defaults.
func LoadConfig(configPath string) (*ReportCSVConfig, error) {
	sc := DefaultConfig()
	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("Cannot find config file %s: %w", configPath, err)
		}
		defer f.Close()
		raw, err := ioutil.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("Cannot read config file %v", err)
		}
		if isYaml(configPath) {
			err = yaml.Unmarshal(raw, sc)
		} else {
			err = json.Unmarshal(raw, sc)
		}
		if err != nil {
			return nil, fmt.Errorf("Cannot unmarshal config %s: %v", configPath, err)
		}
	}
	if err := sc.Finalize(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Finalize fills the derived values. It must run again after flags override the file.
func (sc *ReportCSVConfig) Finalize() error {
	if sc.LogFormat == nil {
		sc.LogFormat = &LogFormat{}
	}
	if sc.HttpConfig == nil {
		sc.HttpConfig = &HttpConfig{}
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	return sc.makeHTTPClients()
}

func (sc *ReportCSVConfig) Validate() error {
	if sc.ReportPath == "" {
		return errors.New("report_path is required")
	}
	if sc.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	if sc.RequestName == "" {
		return errors.New("request_name is required")
	}
	if len(sc.Fields) == 0 {
		return errors.New("fields cannot be empty")
	}
	if err := sc.ObjectStorage.validate(); err != nil {
		return err
	}
	for _, f := range sc.Fields {
		if f == sc.ValidateField {
			return nil
		}
	}
	return fmt.Errorf("validate_field %q is not one of fields %v", sc.ValidateField, sc.Fields)
}

// The local artifact store serves /<kind>/<folder>/<file>, so its keys need a two segment prefix.
func (o *ObjectStorage) validate() error {
	if o == nil || o.Prefix == "" {
		return nil
	}
	if o.Provider != "" && o.Provider != "local" {
		return nil
	}
	parts := strings.Split(strings.Trim(o.Prefix, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("object_storage.prefix %q must be <kind>/<folder> for the local provider", o.Prefix)
	}
	return nil
}

func (sc *ReportCSVConfig) makeHTTPClients() error {
	sc.HTTPClient = &http.Client{}
	if sc.HttpConfig.Proxy == "" {
		return nil
	}
	proxyUrl, err := url.Parse(sc.HttpConfig.Proxy)
	if err != nil {
		return err
	}
	rt := &http.Transport{
		Proxy: http.ProxyURL(proxyUrl),
	}
	sc.HTTPProxyClient = &http.Client{Transport: rt}
	return nil
}

func applyJsonLogging(lf *LogFormat) error {
	log.SetFormatter(&log.JSONFormatter{})
	if lf.JsonPath == "" {
		return nil
	}
	if err := os.MkdirAll(lf.JsonPath, os.ModePerm); err != nil {
		return err
	}
	file, err := os.OpenFile(path.Join(lf.JsonPath, "reportcsv.json"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("Failed to log to file. %v", err)
	}
	log.SetOutput(file)
	return nil
}

func SetupLogging(sc *ReportCSVConfig, verbose bool) error {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	}
	if sc.LogFormat != nil && sc.LogFormat.Json {
		return applyJsonLogging(sc.LogFormat)
	}
	return nil
}
