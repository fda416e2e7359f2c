package object_storage

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/apicheck/reportcsv/config"
)

// localStorage talks to the artifact store served by cmd/artifact-store.
type localStorage struct {
	url        string
	httpClient *http.Client
}

func NewLocalStorage(c *config.ReportCSVConfig) localStorage {
	return localStorage{
		url:        strings.TrimSuffix(c.ObjectStorage.Url, "/"),
		httpClient: c.HTTPClient,
	}
}

func (l localStorage) GetUrl(filename string) string {
	return fmt.Sprintf("%s/%s", l.url, filename)
}

func (l localStorage) Upload(filename string, content io.ReadCloser) error {
	defer content.Close()

	var b bytes.Buffer
	var err error
	w := multipart.NewWriter(&b)
	var fw io.Writer
	if fw, err = w.CreateFormFile("file", filename); err != nil {
		return err
	}
	if _, err = io.Copy(fw, content); err != nil {
		return err
	}
	w.Close()

	req, err := http.NewRequest("PUT", l.GetUrl(filename), &b)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == 201 {
		return nil
	}
	return fmt.Errorf("Bad response from Local storage: %d", resp.StatusCode)
}

func (l localStorage) Delete(filename string) error {
	req, err := http.NewRequest("DELETE", l.GetUrl(filename), nil)
	if err != nil {
		return err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case 204:
		return nil
	case 404:
		return FileNotFoundError()
	}
	return fmt.Errorf("Bad response from Local storage: %d", resp.StatusCode)
}

func (l localStorage) Download(filename string) ([]byte, error) {
	req, err := http.NewRequest("GET", l.GetUrl(filename), nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return nil, FileNotFoundError()
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("Bad response from Local storage: %d", resp.StatusCode)
	}
	return ioutil.ReadAll(resp.Body)
}
