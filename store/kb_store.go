package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/hk-bmi/ontoemma/models"
)

// ErrUnsupportedFormat is returned when a file extension has no registered
// loader or writer. It is a configuration error: fail fast, no partial
// state.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Store reads knowledge bases and gold alignments and writes produced
// alignments. All file access goes through the afero filesystem so tests
// run on the in-memory backend.
type Store struct {
	fs         afero.Fs
	httpClient *http.Client
}

// NewStore creates a Store over the given filesystem.
func NewStore(fs afero.Fs) *Store {
	return &Store{
		fs:         fs,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// LoadKB loads a knowledge base, dispatching on the path's extension:
// .json is the native serialized form, .obo and .owl/.rdf go through the
// format importers, and an http(s) URL is fetched and imported as OWL.
// Anything else is an unsupported-format error; .pickle/.pkl is called out
// explicitly because the Python-era native format has no Go reader.
func (s *Store) LoadKB(path string) (*models.KnowledgeBase, error) {
	if path == "" {
		return nil, fmt.Errorf("empty knowledge base path")
	}
	if isURL(path) {
		return s.loadKBFromURL(path)
	}

	var (
		kb  *models.KnowledgeBase
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		kb, err = s.loadNativeKB(path)
	case ".pickle", ".pkl":
		return nil, fmt.Errorf("%w: %s (pickle KBs must be converted to the native JSON form)", ErrUnsupportedFormat, path)
	case ".obo":
		kb, err = s.importOBO(kbNameFromPath(path), path)
	case ".owl", ".rdf":
		kb, err = s.importOWL(kbNameFromPath(path), path)
	case ".ttl", ".n3":
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	kb.BuildIndex()
	return kb, nil
}

// loadNativeKB reads the native JSON serialization.
func (s *Store) loadNativeKB(path string) (*models.KnowledgeBase, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base %s: %w", path, err)
	}
	var kb models.KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("parse knowledge base %s: %w", path, err)
	}
	if kb.Name == "" {
		kb.Name = kbNameFromPath(path)
	}
	return &kb, nil
}

// SaveKB writes a knowledge base in the native JSON serialization.
func (s *Store) SaveKB(kb *models.KnowledgeBase, path string) error {
	data, err := json.MarshalIndent(kb, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal knowledge base: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write knowledge base %s: %w", path, err)
	}
	return nil
}

// loadKBFromURL fetches the resource to a temporary file and imports it as
// OWL. Network errors propagate immediately.
func (s *Store) loadKBFromURL(rawURL string) (*models.KnowledgeBase, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("malformed knowledge base URL %q", rawURL)
	}

	resp, err := s.httpClient.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch knowledge base %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch knowledge base %s: unexpected status %s", rawURL, resp.Status)
	}

	tmp, err := afero.TempFile(s.fs, "", "ontoemma-*.owl")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer s.fs.Remove(tmpPath)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("download knowledge base %s: %w", rawURL, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("write temp file %s: %w", tmpPath, err)
	}

	kb, err := s.importOWL(kbNameFromPath(parsed.Path), tmpPath)
	if err != nil {
		return nil, err
	}
	kb.BuildIndex()
	return kb, nil
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// kbNameFromPath derives a KB name from the file name, e.g.
// "kb-mesh.json" -> "mesh".
func kbNameFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimPrefix(name, "kb-")
}
