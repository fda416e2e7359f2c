package object_storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"time"

	"cloud.google.com/go/storage"
	"github.com/apicheck/reportcsv/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"
)

type gcpStorage struct {
	client *storage.Client
	ctx    context.Context
	bucket string
}

func NewGcpStorage(c *config.ReportCSVConfig) (*gcpStorage, error) {
	ctx := context.Background()
	if c.ObjectStorage.RequireProxy {
		if c.HTTPProxyClient == nil {
			return nil, errors.New("gcp storage requires a proxy but http_config.proxy is empty")
		}
		// the oauth2 lib takes its http.Client from the context
		log.Info("Setting up GCP OAuth client with proxy")
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPProxyClient)
	}
	client, err := newStorageClient(ctx, c)
	if err != nil {
		return nil, err
	}
	return &gcpStorage{
		client: client,
		ctx:    ctx,
		bucket: c.ObjectStorage.Bucket,
	}, nil
}

func newStorageClient(ctx context.Context, c *config.ReportCSVConfig) (*storage.Client, error) {
	if !c.ObjectStorage.RequireProxy {
		return storage.NewClient(ctx)
	}
	// A plain net/http client does not authenticate with gcp, so the proxy transport
	// is placed under the credentialed one.
	creds, err := google.FindDefaultCredentials(ctx, storage.ScopeFullControl)
	if err != nil {
		return nil, err
	}
	hc, _, err := htransport.NewClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}
	log.Info("Setting up GCP storage client with proxy")
	baseTransportWithProxy, err := htransport.NewTransport(ctx, c.HTTPProxyClient.Transport,
		option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}
	ot, ok := hc.Transport.(*oauth2.Transport)
	if !ok {
		return nil, fmt.Errorf("unexpected gcp transport %T", hc.Transport)
	}
	ot.Base = baseTransportWithProxy
	return storage.NewClient(ctx, option.WithHTTPClient(hc))
}

func (gs *gcpStorage) GetUrl(filename string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", gs.bucket, filename)
}

func (gs *gcpStorage) Upload(filename string, content io.ReadCloser) error {
	defer content.Close()
	ctx, cancel := context.WithTimeout(gs.ctx, time.Minute*5)
	defer cancel()

	wc := gs.client.Bucket(gs.bucket).Object(filename).NewWriter(ctx)
	wc.ContentType = "text/csv"
	if _, err := io.Copy(wc, content); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

func (gs *gcpStorage) Delete(filename string) error {
	ctx, cancel := context.WithTimeout(gs.ctx, time.Second*10)
	defer cancel()

	err := gs.client.Bucket(gs.bucket).Object(filename).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return FileNotFoundError()
	}
	return err
}

func (gs *gcpStorage) Download(filename string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(gs.ctx, time.Minute*5)
	defer cancel()
	rc, err := gs.client.Bucket(gs.bucket).Object(filename).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, FileNotFoundError()
		}
		return nil, err
	}
	defer rc.Close()
	return ioutil.ReadAll(rc)
}
