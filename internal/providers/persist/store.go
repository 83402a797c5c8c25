package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/glasskit/windowd/internal/domain/wm"
	"github.com/glasskit/windowd/internal/infrastructure/logging"
)

// Store writes task snapshots to disk, one JSON file per task group.
// SaveTask is fire-and-forget: snapshots are queued and written by a
// background worker so the window manager loop never blocks on IO.
type Store struct {
	dir    string
	logger *logging.Logger

	queue chan wm.TaskSnapshot
	done  chan struct{}
	once  sync.Once
}

// queueDepth bounds the write backlog; under sustained pressure the
// newest snapshot for a task supersedes older queued ones anyway, so
// dropping is preferable to blocking.
const queueDepth = 64

// New creates the store and starts its writer.
func New(dir string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	s := &Store{
		dir:    dir,
		logger: logger.Named("persist"),
		queue:  make(chan wm.TaskSnapshot, queueDepth),
		done:   make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// SaveTask queues one snapshot. Never blocks; a full queue drops the
// snapshot with a log line.
func (s *Store) SaveTask(snap wm.TaskSnapshot) {
	select {
	case s.queue <- snap:
	default:
		s.logger.Warn("snapshot queue full, dropping",
			zap.Int("task", snap.Info.ID),
		)
	}
}

// Close stops the writer after draining queued snapshots.
func (s *Store) Close() {
	s.once.Do(func() {
		close(s.queue)
		<-s.done
	})
}

func (s *Store) run() {
	defer close(s.done)
	for snap := range s.queue {
		if err := s.write(snap); err != nil {
			s.logger.Error("snapshot write failed",
				zap.Int("task", snap.Info.ID),
				zap.Error(err),
			)
		}
	}
}

// write lands the snapshot atomically: temp file then rename.
func (s *Store) write(snap wm.TaskSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	final := s.path(snap.Info.ID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *Store) path(taskID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("task-%d.json", taskID))
}

// LoadAll reads every snapshot currently on disk, skipping files that
// fail to parse.
func (s *Store) LoadAll() ([]wm.TaskSnapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}
	var out []wm.TaskSnapshot
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.logger.Warn("snapshot unreadable", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		var snap wm.TaskSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			s.logger.Warn("snapshot corrupt", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

// Remove deletes a task's snapshot, if present.
func (s *Store) Remove(taskID int) error {
	err := os.Remove(s.path(taskID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}
