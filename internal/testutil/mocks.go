package testutil

import (
	"context"
	"sync"
	"time"
	"wayfarer/internal/providers"
	storage "wayfarer/internal/storage/interfaces"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// LevelCount returns how many entries were recorded at the given level.
func (m *MockLogger) LevelCount(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu                 sync.Mutex
	Requests           int
	CacheHits          int
	CacheMisses        int
	Generations        int
	GenerationFailures int
	GenerationTimings  int
	Diaries            int
	Dailies            int
	Dropped            int
	Failures           int
	Depth              int
	PersistTimings     int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) IncGenerations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Generations++
}
func (m *MockMetrics) IncGenerationFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerationFailures++
}
func (m *MockMetrics) ObserveGenerationDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerationTimings++
}
func (m *MockMetrics) IncDiariesGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Diaries++
}
func (m *MockMetrics) IncDailySummaries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dailies++
}
func (m *MockMetrics) IncTasksDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dropped++
}
func (m *MockMetrics) IncTaskFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures++
}
func (m *MockMetrics) SetQueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Depth = depth
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistTimings++
}

// MockQueue implements interfaces.TaskQueueInterface. With Inline set,
// enqueued tasks run immediately on the caller's goroutine, which makes
// background cascades deterministic in tests.
type MockQueue struct {
	mu     sync.Mutex
	Tasks  []string
	Inline bool
	Reject bool
}

func (m *MockQueue) Start() {}
func (m *MockQueue) Stop()  {}

func (m *MockQueue) Enqueue(name string, fn func(ctx context.Context) error) bool {
	if m.Reject {
		return false
	}
	m.mu.Lock()
	m.Tasks = append(m.Tasks, name)
	inline := m.Inline
	m.mu.Unlock()
	if inline && fn != nil {
		_ = fn(context.Background())
	}
	return true
}

func (m *MockQueue) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Tasks)
}

func (m *MockQueue) TaskNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Tasks))
	copy(out, m.Tasks)
	return out
}

// MockGenerator implements generation.TextGeneratorInterface and records
// every prompt it was asked to complete.
type MockGenerator struct {
	mu       sync.Mutex
	Response string
	Err      error
	Echo     bool
	Prompts  []string
}

func (m *MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if m.Echo {
		return prompt, nil
	}
	return m.Response, nil
}

func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}

// RecordingStore wraps a document store and counts mutations, so tests can
// assert that an operation wrote nothing.
type RecordingStore struct {
	Inner       storage.DocumentStoreInterface
	mu          sync.Mutex
	SetCalls    int
	UpdateCalls int
	AppendCalls int
	DeleteCalls int
}

func (r *RecordingStore) GetDocument(ctx context.Context, collection, key string) (storage.Document, error) {
	return r.Inner.GetDocument(ctx, collection, key)
}

func (r *RecordingStore) SetDocument(ctx context.Context, collection, key string, data map[string]interface{}, merge bool) error {
	r.mu.Lock()
	r.SetCalls++
	r.mu.Unlock()
	return r.Inner.SetDocument(ctx, collection, key, data, merge)
}

func (r *RecordingStore) UpdateField(ctx context.Context, collection, key, path string, value interface{}) error {
	r.mu.Lock()
	r.UpdateCalls++
	r.mu.Unlock()
	return r.Inner.UpdateField(ctx, collection, key, path, value)
}

func (r *RecordingStore) AppendToArray(ctx context.Context, collection, key, field string, values ...interface{}) error {
	r.mu.Lock()
	r.AppendCalls++
	r.mu.Unlock()
	return r.Inner.AppendToArray(ctx, collection, key, field, values...)
}

func (r *RecordingStore) DeleteDocument(ctx context.Context, collection, key string) error {
	r.mu.Lock()
	r.DeleteCalls++
	r.mu.Unlock()
	return r.Inner.DeleteDocument(ctx, collection, key)
}

func (r *RecordingStore) Persist() error { return r.Inner.Persist() }
func (r *RecordingStore) Close() error   { return r.Inner.Close() }

// Mutations reports the total number of write calls.
func (r *RecordingStore) Mutations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.SetCalls + r.UpdateCalls + r.AppendCalls + r.DeleteCalls
}
