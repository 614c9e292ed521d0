package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/scuti-ai/seocanvas/internal/domain"
	"gopkg.in/yaml.v3"
)

// ExportStore persists analyses the user chose to keep. This sits outside
// the conversational core, which stays purely in-memory: exports are the
// one thing worth keeping across restarts.
type ExportStore struct {
	dir string
}

type ExportEntry struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title,omitempty"`
	URL       string    `yaml:"url,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

type exportIndex struct {
	Exports []ExportEntry `yaml:"exports"`
}

type exportFile struct {
	Entry    ExportEntry    `yaml:"entry"`
	Analysis map[string]any `yaml:"analysis"`
}

func NewExportStore(dir string) *ExportStore {
	return &ExportStore{dir: dir}
}

// Save writes the analysis to its own file and adds it to the index.
func (s *ExportStore) Save(title, url string, analysis map[string]any) (ExportEntry, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return ExportEntry{}, fmt.Errorf("create export dir: %w", err)
	}

	entry := ExportEntry{
		ID:        uuid.NewString(),
		Title:     title,
		URL:       url,
		CreatedAt: time.Now(),
	}

	data, err := yaml.Marshal(exportFile{Entry: entry, Analysis: analysis})
	if err != nil {
		return ExportEntry{}, fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(s.exportPath(entry.ID), data, 0644); err != nil {
		return ExportEntry{}, fmt.Errorf("write export: %w", err)
	}

	index, err := s.loadIndex()
	if err != nil {
		index = &exportIndex{}
	}
	index.Exports = append(index.Exports, entry)
	if err := s.saveIndex(index); err != nil {
		return ExportEntry{}, err
	}
	return entry, nil
}

func (s *ExportStore) List() ([]ExportEntry, error) {
	index, err := s.loadIndex()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return index.Exports, nil
}

func (s *ExportStore) Load(id string) (map[string]any, error) {
	data, err := os.ReadFile(s.exportPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrExportNotFound
		}
		return nil, fmt.Errorf("read export: %w", err)
	}

	var file exportFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal export: %w", err)
	}
	return file.Analysis, nil
}

func (s *ExportStore) exportPath(id string) string {
	return filepath.Join(s.dir, "analysis_"+id+".yaml")
}

func (s *ExportStore) indexPath() string {
	return filepath.Join(s.dir, "index.yaml")
}

func (s *ExportStore) loadIndex() (*exportIndex, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return nil, err
	}
	var index exportIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("unmarshal export index: %w", err)
	}
	return &index, nil
}

func (s *ExportStore) saveIndex(index *exportIndex) error {
	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshal export index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0644); err != nil {
		return fmt.Errorf("write export index: %w", err)
	}
	return nil
}
