package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader loads and caches the topic catalogue from the filesystem.
type Loader struct {
	rootDir string
	topics  map[string]Topic
	mu      sync.RWMutex
}

// NewLoader creates a new topic loader and loads all topic files under rootDir.
// A missing rootDir yields an empty catalogue.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		topics:  make(map[string]Topic),
	}

	if _, err := os.Stat(rootDir); os.IsNotExist(err) {
		slog.Warn("topic catalogue directory not found", "path", rootDir)
		return l, nil
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading topics: %w", err)
	}

	slog.Info("topics loaded", "topics", len(l.topics))
	return l, nil
}

// NewCatalogue builds a loader from in-memory topics.
func NewCatalogue(topics ...Topic) *Loader {
	l := &Loader{topics: make(map[string]Topic, len(topics))}
	for _, t := range topics {
		l.topics[t.ID] = t
	}
	return l
}

// GetTopic returns a topic by ID.
func (l *Loader) GetTopic(id string) (Topic, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.topics[id]
	return t, ok
}

// HasTopic reports whether id is a known topic.
func (l *Loader) HasTopic(id string) bool {
	_, ok := l.GetTopic(id)
	return ok
}

// Len returns the number of loaded topics.
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.topics)
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadTopic(path)
		}
		return nil
	})
}

func (l *Loader) loadTopic(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var topic Topic
	if err := yaml.Unmarshal(data, &topic); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return nil
	}

	if topic.ID == "" {
		return nil // Not a topic file
	}

	l.mu.Lock()
	l.topics[topic.ID] = topic
	l.mu.Unlock()

	return nil
}
