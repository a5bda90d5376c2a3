package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"taskhub-go/pkg/tasks"
)

// memoryObjectStore 是 storage.ObjectStore 的内存实现。
type memoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryObjectStore() *memoryObjectStore {
	return &memoryObjectStore{objects: make(map[string][]byte)}
}

func (m *memoryObjectStore) PutObject(_ context.Context, objectName string, reader io.Reader, _ int64) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = data
	return nil
}

func (m *memoryObjectStore) ConcatObjects(_ context.Context, dst string, srcs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var buf bytes.Buffer
	for _, src := range srcs {
		data, ok := m.objects[src]
		if !ok {
			return errors.New("missing object " + src)
		}
		buf.Write(data)
	}
	m.objects[dst] = buf.Bytes()
	return nil
}

func (m *memoryObjectStore) RemoveObjects(_ context.Context, objectNames []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range objectNames {
		delete(m.objects, name)
	}
	return nil
}

func (m *memoryObjectStore) get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	return data, ok
}

func (m *memoryObjectStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// memoryChunkMarks 是 repository.ChunkMarkRepository 的内存实现。
type memoryChunkMarks struct {
	mu    sync.Mutex
	marks map[uuid.UUID]map[int]bool
}

func newMemoryChunkMarks() *memoryChunkMarks {
	return &memoryChunkMarks{marks: make(map[uuid.UUID]map[int]bool)}
}

func (m *memoryChunkMarks) IsChunkUploaded(_ context.Context, sessionID uuid.UUID, chunkNumber int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marks[sessionID][chunkNumber], nil
}

func (m *memoryChunkMarks) MarkChunkUploaded(_ context.Context, sessionID uuid.UUID, chunkNumber int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.marks[sessionID] == nil {
		m.marks[sessionID] = make(map[int]bool)
	}
	m.marks[sessionID][chunkNumber] = true
	return nil
}

func (m *memoryChunkMarks) GetUploadedChunks(_ context.Context, sessionID uuid.UUID, totalChunks int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uploaded := make([]int, 0)
	for n := range m.marks[sessionID] {
		if n < totalChunks {
			uploaded = append(uploaded, n)
		}
	}
	sort.Ints(uploaded)
	return uploaded, nil
}

func (m *memoryChunkMarks) DeleteMarks(_ context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.marks, sessionID)
	return nil
}

func (m *memoryChunkMarks) has(sessionID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.marks[sessionID]
	return ok
}

// recordingPublisher 记录所有投递过的上传任务。
type recordingPublisher struct {
	mu        sync.Mutex
	published []tasks.UploadJobTask
	err       error
}

func (p *recordingPublisher) PublishUploadJob(_ context.Context, task tasks.UploadJobTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, task)
	return nil
}

// bytesPart 是内存中的 FilePart。
type bytesPart struct {
	name string
	data []byte
}

func (p bytesPart) Filename() string { return p.name }
func (p bytesPart) Size() int64      { return int64(len(p.data)) }
func (p bytesPart) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(p.data)), nil
}
