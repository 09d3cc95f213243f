package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alkime/pagenotes/internal/note"
	"gopkg.in/yaml.v3"
)

const (
	fileExt        = ".yaml"
	tempFilePrefix = "pagenotes-tmp-"
)

// File stores one YAML file per note in a flat directory.
type File struct {
	dir    string
	logger *slog.Logger

	mu  sync.Mutex
	seq uint64
	now func() time.Time
}

// OpenFile prepares dir, creating it if needed, and resumes the insertion
// sequence from the notes already there.
func OpenFile(dir string, logger *slog.Logger) (*File, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create notes directory: %w", err)
	}

	f := &File{dir: dir, logger: logger.With("component", "repository"), now: time.Now}

	records, err := f.readAll()
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		f.seq = max(f.seq, r.Seq)
	}

	return f, nil
}

func (f *File) List(ctx context.Context, documentID string) ([]note.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := f.readAll()
	if err != nil {
		return nil, err
	}

	var matched []record
	for _, r := range records {
		if r.DocumentID == documentID {
			matched = append(matched, r)
		}
	}

	return newestFirst(matched), nil
}

func (f *File) Create(ctx context.Context, draft note.Draft) (note.Note, error) {
	if err := draft.Validate(); err != nil {
		return note.Note{}, fmt.Errorf("invalid draft: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return note.Note{}, err
	}

	r := fromDraft(draft, f.now(), f.seq+1)
	if err := f.write(r); err != nil {
		return note.Note{}, err
	}

	f.seq = r.Seq

	return r.Note, nil
}

func (f *File) Update(ctx context.Context, id string, patch note.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	r, err := f.read(id)
	if err != nil {
		return err
	}

	if err := checkPatch(r.Note, patch); err != nil {
		return err
	}

	r.Note = r.Apply(patch)

	return f.write(r)
}

func (f *File) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := f.path(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		return fmt.Errorf("failed to remove note %s: %w", id, err)
	}

	return nil
}

// path rejects ids that could escape the directory.
func (f *File) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	return filepath.Join(f.dir, id+fileExt), nil
}

func (f *File) read(id string) (record, error) {
	path, err := f.path(id)
	if err != nil {
		return record{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		return record{}, fmt.Errorf("failed to read note %s: %w", id, err)
	}

	var r record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return record{}, fmt.Errorf("failed to parse note %s: %w", id, err)
	}

	return r, nil
}

func (f *File) readAll() ([]record, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read notes directory: %w", err)
	}

	records := make([]record, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, tempFilePrefix) {
			continue
		}

		r, err := f.read(strings.TrimSuffix(name, fileExt))
		if err != nil {
			f.logger.Warn("skipping unreadable note file", "file", name, "error", err)
			continue
		}

		records = append(records, r)
	}

	return records, nil
}

func (f *File) write(r record) error {
	path, err := f.path(r.ID)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal note %s: %w", r.ID, err)
	}

	return writeFileAtomic(path, data, 0o640)
}

// writeFileAtomic writes to a temp file in the same directory and renames
// it over filename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}

	return nil
}
