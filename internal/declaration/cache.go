package declaration

import (
	"context"
	"slices"
	"sync"

	"github.com/maypok86/otter"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheCapacity bounds the number of cached extractions.
const DefaultCacheCapacity = 256

// Cache memoizes extraction results per file. Several runners read the same
// declaration file (every RDS engine class lives in one file), so each file
// is parsed at most once per kind of extraction. Concurrent requests for the
// same file share one parse.
type Cache struct {
	opts   ParseOptions
	fields otter.Cache[string, []StaticFieldFact]
	enums  otter.Cache[string, []EnumMemberFact]
	group  singleflight.Group

	extractFields func(context.Context, string, ParseOptions) ([]StaticFieldFact, error)
	extractEnums  func(context.Context, string, ParseOptions) ([]EnumMemberFact, error)

	mu    sync.Mutex
	paths map[string]struct{}
}

// NewCache creates a cache holding up to capacity results of each kind.
func NewCache(capacity int, opts ParseOptions) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}

	fields, err := otter.MustBuilder[string, []StaticFieldFact](capacity).Build()
	if err != nil {
		return nil, err
	}
	enums, err := otter.MustBuilder[string, []EnumMemberFact](capacity).Build()
	if err != nil {
		fields.Close()
		return nil, err
	}

	return &Cache{
		opts:          opts,
		fields:        fields,
		enums:         enums,
		extractFields: ExtractStaticFields,
		extractEnums:  ExtractEnumMembers,
		paths:         make(map[string]struct{}),
	}, nil
}

// StaticFields returns the static field facts of path, parsing it on first use.
func (c *Cache) StaticFields(ctx context.Context, path string) ([]StaticFieldFact, error) {
	if facts, ok := c.fields.Get(path); ok {
		return facts, nil
	}

	v, err, _ := c.group.Do("fields:"+path, func() (any, error) {
		// A call that just finished may have filled the entry.
		if facts, ok := c.fields.Get(path); ok {
			return facts, nil
		}
		facts, err := c.extractFields(ctx, path, c.opts)
		if err != nil {
			return nil, err
		}
		c.fields.Set(path, facts)
		c.track(path)
		return facts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]StaticFieldFact), nil
}

// EnumMembers returns the enum member facts of path, parsing it on first use.
func (c *Cache) EnumMembers(ctx context.Context, path string) ([]EnumMemberFact, error) {
	if facts, ok := c.enums.Get(path); ok {
		return facts, nil
	}

	v, err, _ := c.group.Do("enums:"+path, func() (any, error) {
		if facts, ok := c.enums.Get(path); ok {
			return facts, nil
		}
		facts, err := c.extractEnums(ctx, path, c.opts)
		if err != nil {
			return nil, err
		}
		c.enums.Set(path, facts)
		c.track(path)
		return facts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]EnumMemberFact), nil
}

func (c *Cache) track(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths[path] = struct{}{}
}

// Paths returns every file parsed so far, sorted.
func (c *Cache) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	paths := make([]string, 0, len(c.paths))
	for path := range c.paths {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

// Invalidate drops the results of paths so that they are parsed again on
// next use.
func (c *Cache) Invalidate(paths ...string) {
	for _, path := range paths {
		c.fields.Delete(path)
		c.enums.Delete(path)
	}
}

// Close releases the cache.
func (c *Cache) Close() {
	c.fields.Close()
	c.enums.Close()
}
