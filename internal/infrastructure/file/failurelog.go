package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
)

type FailureLog interface {
	Append(entry domain.UnresolvedEntry) error
}

type failureLog struct {
	path string
	mu   sync.Mutex
}

// NewFailureLog returns an append-only log of unresolved tracks at path.
func NewFailureLog(path string) (FailureLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	return &failureLog{path: path}, nil
}

func (l *failureLog) Append(entry domain.UnresolvedEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open failure log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(entry.Line() + "\n"); err != nil {
		return fmt.Errorf("failed to write failure log: %w", err)
	}
	return nil
}
