package storage

import (
	"context"
	json "github.com/goccy/go-json"
	"os"
	"path/filepath"
	"sync"
	"wayfarer/internal/providers"
	"wayfarer/internal/storage/interfaces"
)

const fileExt = ".json.zst"

// FileStore persists one zstd-compressed json file per document under
// dir/<collection>/<key>.json.zst. Documents load lazily on first touch
// and stay cached; mutations only mark the document dirty, and Persist is
// the sole place disk writes happen. Plain uncompressed json files from
// older deployments are still readable and get rewritten compressed on
// their next flush.
type FileStore struct {
	mu         sync.Mutex
	dir        string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	cache      map[string]map[string]interface{}
	loaded     map[string]bool
	dirty      map[string]bool
}

func NewFileStore(dir string, compressor interfaces.CompressorInterface, logger providers.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{
		dir:        dir,
		compressor: compressor,
		logger:     logger,
		cache:      make(map[string]map[string]interface{}),
		loaded:     make(map[string]bool),
		dirty:      make(map[string]bool),
	}, nil
}

func (f *FileStore) GetDocument(_ context.Context, collection, key string) (interfaces.Document, error) {
	if err := validateRef(collection, key); err != nil {
		return interfaces.Document{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.getOrLoad(collection, key)
	if err != nil {
		return interfaces.Document{}, err
	}
	if doc == nil {
		return interfaces.Document{}, nil
	}
	return interfaces.Document{Exists: true, Data: deepCopyMap(doc)}, nil
}

func (f *FileStore) SetDocument(_ context.Context, collection, key string, data map[string]interface{}, merge bool) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if merge {
		doc, err := f.getOrLoad(collection, key)
		if err != nil {
			return err
		}
		f.putDirty(collection, key, deepMerge(deepCopyMap(doc), deepCopyMap(data)))
		return nil
	}
	f.putDirty(collection, key, deepCopyMap(data))
	return nil
}

func (f *FileStore) UpdateField(_ context.Context, collection, key, path string, value interface{}) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.getOrLoad(collection, key)
	if err != nil {
		return err
	}
	updated := deepCopyMap(doc)
	if updated == nil {
		updated = make(map[string]interface{})
	}
	if err := setPath(updated, path, deepCopyValue(value)); err != nil {
		return err
	}
	f.putDirty(collection, key, updated)
	return nil
}

func (f *FileStore) AppendToArray(_ context.Context, collection, key, field string, values ...interface{}) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.getOrLoad(collection, key)
	if err != nil {
		return err
	}
	updated := deepCopyMap(doc)
	if updated == nil {
		updated = make(map[string]interface{})
	}
	appendValues(updated, field, deepCopyValue(values).([]interface{}))
	f.putDirty(collection, key, updated)
	return nil
}

func (f *FileStore) DeleteDocument(_ context.Context, collection, key string) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ck := cacheKey(collection, key)
	f.cache[ck] = nil
	f.loaded[ck] = true
	f.dirty[ck] = true
	return nil
}

// Persist flushes every dirty document atomically: write to a tmp file,
// fsync, then rename over the live file. Deleted documents remove the
// file instead.
func (f *FileStore) Persist() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ck := range f.dirty {
		collection, key := splitCacheKey(ck)
		doc := f.cache[ck]
		if doc == nil {
			if err := os.Remove(f.path(collection, key)); err != nil && !os.IsNotExist(err) {
				return err
			}
			delete(f.dirty, ck)
			continue
		}
		if err := f.writeFile(collection, key, doc); err != nil {
			return err
		}
		delete(f.dirty, ck)
	}
	return nil
}

func (f *FileStore) Close() error {
	err := f.Persist()
	f.compressor.Close()
	return err
}

// getOrLoad returns the cached document, loading it from disk on first
// access. A nil return with nil error means the document does not exist.
// Must be called under f.mu.
func (f *FileStore) getOrLoad(collection, key string) (map[string]interface{}, error) {
	ck := cacheKey(collection, key)
	if f.loaded[ck] {
		return f.cache[ck], nil
	}
	doc, err := f.loadFromDisk(collection, key)
	if err != nil {
		return nil, err
	}
	f.cache[ck] = doc
	f.loaded[ck] = true
	return doc, nil
}

func (f *FileStore) loadFromDisk(collection, key string) (map[string]interface{}, error) {
	path := f.path(collection, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	raw, err := f.compressor.Decompress(data)
	if err != nil {
		// Pre-compression deployments stored plain json.
		var doc map[string]interface{}
		if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
			return nil, err
		}
		f.logger.Warnf(providers.TypeApp, "Migrating legacy uncompressed document %s", path)
		return doc, nil
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (f *FileStore) writeFile(collection, key string, doc map[string]interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	path := f.path(collection, key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, path)
}

func (f *FileStore) path(collection, key string) string {
	return filepath.Join(f.dir, collection, key+fileExt)
}

func (f *FileStore) putDirty(collection, key string, doc map[string]interface{}) {
	ck := cacheKey(collection, key)
	f.cache[ck] = doc
	f.loaded[ck] = true
	f.dirty[ck] = true
}

func cacheKey(collection, key string) string {
	return collection + "/" + key
}

func splitCacheKey(ck string) (string, string) {
	for i := 0; i < len(ck); i++ {
		if ck[i] == '/' {
			return ck[:i], ck[i+1:]
		}
	}
	return ck, ""
}
