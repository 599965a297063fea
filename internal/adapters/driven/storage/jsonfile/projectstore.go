// Package jsonfile persists the project registry as a JSON array of projects.
//
// projects.json holds only the array, rewritten wholesale on every save. The
// highest ID ever assigned lives in a sidecar file (projects.json.seq) so IDs
// stay unique after the highest project is hard-deleted.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/ragindex/internal/core/domain"
	"github.com/custodia-labs/ragindex/internal/core/ports/driven"
)

// DefaultFile is the registry file name inside the data directory.
const DefaultFile = "projects.json"

// SeqSuffix is appended to the registry path to name the ID sidecar.
const SeqSuffix = ".seq"

// Ensure ProjectStore implements the interface.
var _ driven.ProjectStore = (*ProjectStore)(nil)

// ProjectStore reads and replaces projects.json. Saves write a sibling
// temporary file and rename it over the original.
type ProjectStore struct {
	mu   sync.Mutex
	path string
}

// NewProjectStore creates a store backed by the file at path.
func NewProjectStore(path string) *ProjectStore {
	return &ProjectStore{path: path}
}

// Path returns the registry file path.
func (s *ProjectStore) Path() string {
	return s.path
}

// SeqPath returns the path of the ID sidecar.
func (s *ProjectStore) SeqPath() string {
	return s.path + SeqSuffix
}

// Load reads the snapshot. A missing file yields an empty snapshot. LastID
// is the larger of the sidecar value and the highest stored ID.
func (s *ProjectStore) Load(ctx context.Context) (driven.ProjectSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return driven.ProjectSnapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot driven.ProjectSnapshot
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return driven.ProjectSnapshot{}, fmt.Errorf("reading %s: %w", s.path, err)
	default:
		if snapshot, err = decode(data); err != nil {
			return driven.ProjectSnapshot{}, fmt.Errorf("parsing %s: %w", s.path, err)
		}
	}

	seq, err := s.readSeq()
	if err != nil {
		return driven.ProjectSnapshot{}, err
	}
	snapshot.LastID = max(snapshot.LastID, seq)
	for _, p := range snapshot.Projects {
		snapshot.LastID = max(snapshot.LastID, p.ID)
	}
	return snapshot, nil
}

// decode accepts the project array, and the {"last_id", "projects"} object
// written by earlier releases.
func decode(data []byte) (driven.ProjectSnapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return driven.ProjectSnapshot{}, nil
	}
	if trimmed[0] == '{' {
		var legacy struct {
			LastID   int              `json:"last_id"`
			Projects []domain.Project `json:"projects"`
		}
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return driven.ProjectSnapshot{}, err
		}
		return driven.ProjectSnapshot{LastID: legacy.LastID, Projects: legacy.Projects}, nil
	}

	var projects []domain.Project
	if err := json.Unmarshal(trimmed, &projects); err != nil {
		return driven.ProjectSnapshot{}, err
	}
	return driven.ProjectSnapshot{Projects: projects}, nil
}

func (s *ProjectStore) readSeq() (int, error) {
	data, err := os.ReadFile(s.SeqPath())
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", s.SeqPath(), err)
	}
	seq, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", s.SeqPath(), err)
	}
	return seq, nil
}

// Save replaces the file with the snapshot's projects. The sidecar is
// written first, so a crash between the two renames can only leave it ahead
// of the array.
func (s *ProjectStore) Save(ctx context.Context, snapshot driven.ProjectSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	projects := snapshot.Projects
	if projects == nil {
		projects = []domain.Project{}
	}
	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling projects: %w", err)
	}
	lastID := snapshot.LastID
	for _, p := range projects {
		lastID = max(lastID, p.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := replaceFile(s.SeqPath(), []byte(strconv.Itoa(lastID)+"\n")); err != nil {
		return err
	}
	return replaceFile(s.path, append(data, '\n'))
}

// replaceFile writes data to a temporary sibling of path and renames it
// into place.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".projects-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
