package object_storage

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/apicheck/reportcsv/config"
)

type nexusStorage struct {
	nexusURL   string
	username   string
	password   string
	httpClient *http.Client
}

func NewNexusStorage(c *config.ReportCSVConfig) nexusStorage {
	o := c.ObjectStorage
	return nexusStorage{
		nexusURL:   strings.TrimSuffix(o.Url, "/"),
		username:   o.User,
		password:   o.Password,
		httpClient: c.HTTPClient,
	}
}

func (n nexusStorage) GetUrl(filename string) string {
	return fmt.Sprintf("%s/%s", n.nexusURL, filename)
}

func (n nexusStorage) Upload(filename string, content io.ReadCloser) error {
	defer content.Close()

	req, err := http.NewRequest("PUT", n.GetUrl(filename), content)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/csv")
	req.SetBasicAuth(n.username, n.password)
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == 201 {
		return nil
	}
	return fmt.Errorf("Bad response from Nexus: %d", resp.StatusCode)
}

func (n nexusStorage) Delete(filename string) error {
	req, err := http.NewRequest("DELETE", n.GetUrl(filename), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(n.username, n.password)
	resp, err := n.httpClient.Do(req)
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
	return fmt.Errorf("Bad response from Nexus: %d", resp.StatusCode)
}

func (n nexusStorage) Download(filename string) ([]byte, error) {
	req, err := http.NewRequest("GET", n.GetUrl(filename), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(n.username, n.password)
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return nil, FileNotFoundError()
	}
	if resp.StatusCode != 200 {
		return nil, errors.New("Bad response from Nexus")
	}
	return ioutil.ReadAll(resp.Body)
}
