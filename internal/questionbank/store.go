package questionbank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Store loads the whole question bank and writes back complete partitions.
type Store interface {
	// Load returns every question from every readable partition.
	Load(ctx context.Context) (*Bank, error)
	// SavePartition replaces a partition with questions. It either fully
	// succeeds or leaves the previous partition intact.
	SavePartition(ctx context.Context, partition string, questions []Question) error
	// Name identifies the backing source in logs.
	Name() string
}

// LoadError reports that no partition could be read.
type LoadError struct {
	Source string
	Failed []string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("no readable question partitions in %s", e.Source)
	if len(e.Failed) > 0 {
		msg += fmt.Sprintf(" (failed: %s)", strings.Join(e.Failed, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// partitionFile is the on-disk shape of a partition.
type partitionFile struct {
	Questions []json.RawMessage `json:"questions"`
}

// FileStore reads partitions from <dir>/<partition>.json files. It remembers
// what the last Load could not read: unreadable partitions are never
// overwritten and rejected question objects are written back verbatim.
type FileStore struct {
	dir string

	mu         sync.Mutex
	unreadable map[string]error
	rejected   map[string][]json.RawMessage
}

// NewFileStore creates a store over the JSON partitions in dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Name() string {
	return "files:" + s.dir
}

func (s *FileStore) Load(_ context.Context) (*Bank, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, &LoadError{Source: s.Name(), Err: err}
	}
	sort.Strings(paths)

	bank := &Bank{}
	unreadable := make(map[string]error)
	rejected := make(map[string][]json.RawMessage)
	var failed []string
	readable := 0
	for _, path := range paths {
		partition := strings.TrimSuffix(filepath.Base(path), ".json")
		p, err := readPartition(path, partition)
		if err != nil {
			slog.Warn("skipping unreadable question partition", "path", path, "error", err)
			failed = append(failed, partition)
			unreadable[partition] = err
			bank.Rejected = append(bank.Rejected, ValidationIssue{
				Partition: partition,
				Field:     "partition",
				Message:   "unreadable: " + err.Error(),
			})
			continue
		}
		readable++
		bank.Questions = append(bank.Questions, p.questions...)
		bank.Rejected = append(bank.Rejected, p.issues...)
		if len(p.rejected) > 0 {
			rejected[partition] = p.rejected
		}
	}

	s.mu.Lock()
	s.unreadable = unreadable
	s.rejected = rejected
	s.mu.Unlock()

	if readable == 0 {
		return nil, &LoadError{Source: s.Name(), Failed: failed}
	}

	slog.Info("question bank loaded", "source", s.Name(), "partitions", readable,
		"questions", bank.Len(), "rejected", len(bank.Rejected))
	return bank, nil
}

type loadedPartition struct {
	questions []Question
	rejected  []json.RawMessage
	issues    []ValidationIssue
}

func readPartition(path, partition string) (loadedPartition, error) {
	var out loadedPartition
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}

	var pf partitionFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return out, fmt.Errorf("decoding partition: %w", err)
	}

	out.questions = make([]Question, 0, len(pf.Questions))
	for i, raw := range pf.Questions {
		q, err := Normalize(raw)
		if err != nil {
			slog.Warn("rejecting malformed question", "partition", partition, "index", i, "error", err)
			out.rejected = append(out.rejected, raw)
			out.issues = append(out.issues, Rejection(partition, raw, err))
			continue
		}
		q.Partition = partition
		out.questions = append(out.questions, q)
	}
	return out, nil
}

// SavePartition writes the full partition to a temp file and renames it into
// place so a crash never leaves a half-written partition. Question objects
// rejected by the last Load are appended unchanged. A partition the last Load
// could not read is left untouched and an error is returned.
func (s *FileStore) SavePartition(_ context.Context, partition string, questions []Question) error {
	if partition == "" || strings.ContainsAny(partition, `/\`) {
		return fmt.Errorf("invalid partition name %q", partition)
	}

	s.mu.Lock()
	loadErr, unreadable := s.unreadable[partition]
	kept := s.rejected[partition]
	s.mu.Unlock()
	if unreadable {
		return fmt.Errorf("partition %s was unreadable at load, refusing to overwrite: %w", partition, loadErr)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating question dir: %w", err)
	}

	raws := make([]json.RawMessage, 0, len(questions)+len(kept))
	for _, q := range questions {
		b, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encoding question %s: %w", q.ID, err)
		}
		raws = append(raws, b)
	}
	raws = append(raws, kept...)

	data, err := json.MarshalIndent(partitionFile{Questions: raws}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding partition %s: %w", partition, err)
	}
	data = append(data, '\n')

	if err := WriteFileAtomic(filepath.Join(s.dir, partition+".json"), data); err != nil {
		return fmt.Errorf("writing partition %s: %w", partition, err)
	}
	slog.Info("question partition saved", "partition", partition, "questions", len(questions), "kept", len(kept))
	return nil
}

// WriteFileAtomic writes data to path via a temp file in the same directory.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// FallbackStore prefers a primary source and transparently falls back to a
// secondary one when the primary is unreachable or empty. Writes go to
// whichever source served the last Load.
type FallbackStore struct {
	primary   Store
	secondary Store
	active    Store
}

// NewFallbackStore creates a fallback store. primary may be nil.
func NewFallbackStore(primary, secondary Store) *FallbackStore {
	return &FallbackStore{primary: primary, secondary: secondary}
}

func (s *FallbackStore) Name() string {
	if s.active != nil {
		return s.active.Name()
	}
	return "fallback"
}

func (s *FallbackStore) Load(ctx context.Context) (*Bank, error) {
	if s.primary != nil {
		bank, err := s.primary.Load(ctx)
		switch {
		case err != nil:
			slog.Warn("primary question source unavailable, falling back", "source", s.primary.Name(), "error", err)
		case bank.Len() == 0:
			slog.Warn("primary question source is empty, falling back", "source", s.primary.Name())
		default:
			s.active = s.primary
			return bank, nil
		}
	}

	if s.secondary == nil {
		return nil, &LoadError{Source: "fallback", Err: fmt.Errorf("no secondary source configured")}
	}
	bank, err := s.secondary.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.active = s.secondary
	return bank, nil
}

func (s *FallbackStore) SavePartition(ctx context.Context, partition string, questions []Question) error {
	target := s.active
	if target == nil {
		target = s.secondary
	}
	if target == nil {
		return fmt.Errorf("no question source to write partition %s", partition)
	}
	return target.SavePartition(ctx, partition, questions)
}
