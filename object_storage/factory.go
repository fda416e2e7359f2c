package object_storage

import (
	"fmt"

	"github.com/apicheck/reportcsv/config"
)

const (
	localStorageProvider = "local"
	nexusStorageProvider = "nexus"
	gcpStorageProvider   = "gcp"
)

var allStorageProviders = []string{localStorageProvider, nexusStorageProvider, gcpStorageProvider}

// NewStorage builds the artifact storage configured in c.ObjectStorage.
func NewStorage(c *config.ReportCSVConfig) (StorageInterface, error) {
	if c.ObjectStorage == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	storageProvider := c.ObjectStorage.Provider
	if storageProvider == "" {
		storageProvider = localStorageProvider
	}
	switch storageProvider {
	case localStorageProvider:
		return NewLocalStorage(c), nil
	case nexusStorageProvider:
		return NewNexusStorage(c), nil
	case gcpStorageProvider:
		return NewGcpStorage(c)
	default:
		return nil, fmt.Errorf("Unknown storage type %s, valid storage types are %v", storageProvider, allStorageProviders)
	}
}
