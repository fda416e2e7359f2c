package utils

import (
	"os"
)

// MakeFolder creates folderPath and its parents if they do not exist yet.
func MakeFolder(folderPath string) error {
	if _, err := os.Stat(folderPath); os.IsNotExist(err) {
		return os.MkdirAll(folderPath, os.ModePerm)
	} else if err != nil {
		return err
	}
	return nil
}
