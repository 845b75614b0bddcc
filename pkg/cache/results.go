package cache

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/OneOfOne/xxhash"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-java-cfg/pkg/cfg"
)

// ErrPartialResult is returned by Store for results with failed methods.
// Errors are not persisted, so such results are always rebuilt.
var ErrPartialResult = errors.New("result has failed methods")

// ResultsFile is the file name used inside the cache directory.
const ResultsFile = "results.msgpack"

// keyVersion changes whenever the encoded graph layout changes.
const keyVersion = "g1"

// Key returns the cache key of a source file with the given content.
func Key(content []byte) string {
	return fmt.Sprintf("%s:%016x", keyVersion, xxhash.Checksum64(content))
}

// fileRecord is the encoded value stored per source file.
type fileRecord struct {
	Methods []*cfg.Graph `msgpack:"methods"`
}

// Results caches the graphs built for whole source files, keyed by a hash of
// their content.
type Results struct {
	lru  *LRUCache
	path string
}

// OpenResults creates a result cache holding at most maxEntries files and
// loads any previous state persisted in dir. An empty dir keeps the cache in
// memory only.
func OpenResults(dir string, maxEntries int) (*Results, error) {
	r := &Results{lru: New(Options{MaxSize: maxEntries})}
	if dir == "" {
		return r, nil
	}
	r.path = filepath.Join(dir, ResultsFile)
	if err := r.lru.LoadFromFile(r.path); err != nil {
		return nil, err
	}
	return r, nil
}

// Lookup returns the cached result for content, or ErrKeyNotFound.
func (r *Results) Lookup(content []byte) (*cfg.FileResult, error) {
	key := Key(content)
	data, ok := r.lru.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}

	var rec fileRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		r.lru.Delete(key)
		return nil, fmt.Errorf("decoding cached result: %w", err)
	}

	res := &cfg.FileResult{Methods: make([]cfg.MethodResult, 0, len(rec.Methods))}
	for _, g := range rec.Methods {
		res.Methods = append(res.Methods, cfg.MethodResult{Name: g.Method, Graph: g})
	}
	return res, nil
}

// Store records res as the result for content.
func (r *Results) Store(content []byte, res *cfg.FileResult) error {
	if res.Err() != nil {
		return ErrPartialResult
	}

	data, err := msgpack.Marshal(&fileRecord{Methods: res.Graphs()})
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	r.lru.Set(Key(content), data)
	return nil
}

// Stats returns the statistics of the underlying cache.
func (r *Results) Stats() Stats {
	return r.lru.Stats()
}

// Flush persists the cache to its directory, if it has one.
func (r *Results) Flush() error {
	if r.path == "" {
		return nil
	}
	return r.lru.PersistToFile(r.path)
}
