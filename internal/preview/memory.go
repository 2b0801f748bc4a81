package preview

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipcheck/internal/domain"
	"shipcheck/internal/upload"
	"shipcheck/pkg/utils"
)

// Object is a rendered preview held in memory.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore keeps previews in process and serves them under baseURL.
type MemoryStore struct {
	baseURL string
	opt     Options
	proc    *utils.ImageProcessor
	log     *zap.Logger

	mu      sync.RWMutex
	objects map[string]Object
}

var _ upload.PreviewStore = (*MemoryStore)(nil)

func NewMemoryStore(baseURL string, opt Options, log *zap.Logger) *MemoryStore {
	return &MemoryStore{
		baseURL: baseURL,
		opt:     opt,
		proc:    utils.NewImageProcessor(log),
		log:     log,
		objects: make(map[string]Object),
	}
}

func (m *MemoryStore) Create(_ context.Context, c domain.Candidate) (domain.Preview, error) {
	data, ct, err := render(m.proc, m.opt, c.Content, c.MediaType)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("render preview: %w", err)
	}

	id := uuid.New().String()
	m.mu.Lock()
	m.objects[id] = Object{Data: data, ContentType: ct}
	m.mu.Unlock()

	return domain.Preview{ID: id, URL: m.baseURL + "/" + id}, nil
}

func (m *MemoryStore) Release(_ context.Context, p domain.Preview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[p.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, p.ID)
	}
	delete(m.objects, p.ID)
	return nil
}

// Get returns the preview stored under id.
func (m *MemoryStore) Get(id string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[id]
	return obj, ok
}

// Len is the number of live previews.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
