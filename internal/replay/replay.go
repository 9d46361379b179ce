package replay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Sink receives one serialized request per forwarded call.
type Sink interface {
	AppendLine(line string) error
}

// Nop discards every line.
type Nop struct{}

func (Nop) AppendLine(string) error { return nil }

// FileSink appends lines to a file. Writes are serialized so concurrent
// lines never interleave. The file is opened per write so it can be rotated
// externally.
type FileSink struct {
	Path string

	mu sync.Mutex
}

// NewFileSink returns a sink appending to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

func (s *FileSink) AppendLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create replay dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open replay log: %w", err)
	}
	line = strings.TrimRight(line, "\n") + "\n"
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("write replay log: %w", err)
	}
	return f.Close()
}
