package nodes

import (
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
	"github.com/klauspost/compress/zstd"

	"github.com/awantoch/flowbridge/model"
)

// Cache holds loaded node definitions per version with a blanket TTL.
// Each definition is stored as its own zstd-compressed entry because
// freecache limits a single entry to 1/1024 of the cache size; a version
// index entry lists the names.
type Cache struct {
	store     *freecache.Cache
	expirySec int
}

// NewCache sizes the cache in bytes. A ttl of zero disables expiry.
func NewCache(sizeBytes int, ttl time.Duration) *Cache {
	return &Cache{
		store:     freecache.NewCache(sizeBytes),
		expirySec: int(ttl / time.Second),
	}
}

func indexKey(version string) []byte { return []byte("index|" + version) }

func nodeKey(version, name string) []byte { return []byte("node|" + version + "|" + name) }

// Get returns the cached definitions for version. A partially evicted
// version counts as a miss.
func (c *Cache) Get(version string) ([]model.NodeDefinition, bool) {
	raw, err := c.store.Get(indexKey(version))
	if err != nil {
		return nil, false
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, false
	}
	defs := make([]model.NodeDefinition, 0, len(names))
	for _, name := range names {
		packed, err := c.store.Get(nodeKey(version, name))
		if err != nil {
			return nil, false
		}
		var def model.NodeDefinition
		if err := unpack(packed, &def); err != nil {
			return nil, false
		}
		defs = append(defs, def)
	}
	return defs, true
}

// Set caches defs under version. The index is written last so a failed
// write leaves the version uncached.
func (c *Cache) Set(version string, defs []model.NodeDefinition) error {
	names := make([]string, 0, len(defs))
	for i := range defs {
		packed, err := pack(&defs[i])
		if err != nil {
			return err
		}
		if err := c.store.Set(nodeKey(version, defs[i].Name), packed, c.expirySec); err != nil {
			return err
		}
		names = append(names, defs[i].Name)
	}
	index, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return c.store.Set(indexKey(version), index, c.expirySec)
}

// Invalidate drops the version index; node entries age out on their own.
func (c *Cache) Invalidate(version string) {
	c.store.Del(indexKey(version))
}

// HitRate reports the ratio of hits to lookups since creation.
func (c *Cache) HitRate() float64 { return c.store.HitRate() }

func (c *Cache) EntryCount() int64 { return c.store.EntryCount() }

var (
	encoder = must(zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression)))
	decoder = must(zstd.NewReader(nil, zstd.WithDecoderConcurrency(0)))
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pack(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func unpack(data []byte, v any) error {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
