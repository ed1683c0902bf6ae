package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// FS is a filesystem-backed sink writing one JSON document per event through
// the abstract file storage layer, so the trail can live on local disk, in
// memory (mem://) or in a bucket without code changes.
type FS struct {
	basePath string
	fs       afs.Service
	mu       sync.Mutex
}

// NewFS creates a filesystem sink rooted at basePath.
func NewFS(basePath string) (*FS, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	fsService := afs.New()

	ctx := context.Background()
	exists, _ := fsService.Exists(ctx, basePath)
	if !exists {
		if err := fsService.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create audit base directory: %w", err)
		}
	}

	return &FS{
		basePath: url.Normalize(basePath, file.Scheme),
		fs:       fsService,
	}, nil
}

// Append persists the event as <basePath>/<eventType>/<id>.json.
func (s *FS) Append(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	filePath := s.eventPath(event)
	if err := s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write audit event %s: %w", filePath, err)
	}
	return nil
}

// List loads all persisted events of the given type.
func (s *FS) List(ctx context.Context, eventType string) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent := path.Join(s.basePath, eventType)
	objects, err := s.fs.List(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}

	var events []*Event
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		data, err := s.fs.DownloadWithURL(ctx, object.URL())
		if err != nil {
			return nil, fmt.Errorf("failed to read audit event %s: %w", object.URL(), err)
		}
		event := &Event{}
		if err := json.Unmarshal(data, event); err != nil {
			return nil, fmt.Errorf("failed to decode audit event %s: %w", object.URL(), err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *FS) eventPath(event *Event) string {
	return path.Join(s.basePath, event.EventType, fmt.Sprintf("%s.json", event.ID))
}

var _ Sink = (*FS)(nil)
