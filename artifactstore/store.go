package artifactstore

import (
	"errors"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
)

// maxUploadSize bounds the multipart form kept in memory.
const maxUploadSize = 32 << 20

type Store struct {
	root string
}

type artifactFile struct {
	Kind       string
	Folder     string
	File       string
	FolderPath string
	FilePath   string
}

func (s *Store) newArtifactFile(kind, folder, file string) (*artifactFile, error) {
	af := artifactFile{
		Kind:       kind,
		Folder:     folder,
		File:       file,
		FolderPath: filepath.Join(s.root, kind, folder),
		FilePath:   filepath.Join(s.root, kind, folder, file),
	}
	if af.valid() {
		return &af, nil
	}
	return nil, errors.New("Invalid file or folder name")
}

func (af *artifactFile) valid() bool {
	for _, part := range []string{af.Kind, af.Folder, af.File} {
		if len(part) == 0 || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return false
		}
	}
	return true
}

func (af *artifactFile) store(content io.Reader) error {
	if err := os.MkdirAll(af.FolderPath, 0755); err != nil {
		return err
	}
	fileContents, err := ioutil.ReadAll(content)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(af.FilePath, fileContents, 0644)
}

func (s *Store) fromParams(w http.ResponseWriter, params httprouter.Params) *artifactFile {
	af, err := s.newArtifactFile(params.ByName("kind"), params.ByName("folder"), params.ByName("file"))
	if err != nil {
		http.Error(w, err.Error(), 400)
		return nil
	}
	return af
}

func (s *Store) fileGetHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	af := s.fromParams(w, params)
	if af == nil {
		return
	}
	file, err := ioutil.ReadFile(af.FilePath)
	if err != nil {
		http.Error(w, "File not Found", 404)
		return
	}
	w.Write(file)
}

func (s *Store) filePutHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	af := s.fromParams(w, params)
	if af == nil {
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	defer file.Close()
	if err := af.store(file); err != nil {
		log.Error(err)
		http.Error(w, err.Error(), 500)
		return
	}
	log.Infof("artifact-store: stored %s", af.FilePath)
	w.WriteHeader(201)
}

func (s *Store) fileDeleteHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	af := s.fromParams(w, params)
	if af == nil {
		return
	}
	if err := os.Remove(af.FilePath); err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "File not Found", 404)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	w.WriteHeader(204)
}

// NewRouter serves /:kind/:folder/:file out of root.
func NewRouter(root string) *httprouter.Router {
	s := &Store{root: root}
	r := httprouter.New()
	r.GET("/:kind/:folder/:file", s.fileGetHandler)
	r.PUT("/:kind/:folder/:file", s.filePutHandler)
	r.DELETE("/:kind/:folder/:file", s.fileDeleteHandler)
	return r
}
