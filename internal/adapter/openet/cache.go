package openet

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/greenblume/et-shade-etl/internal/domain"
	"github.com/greenblume/et-shade-etl/internal/observability"
)

// CachedSource wraps an ET source with an LRU cache keyed by field and year.
// Yearly series are immutable once published, so entries never expire.
type CachedSource struct {
	source  domain.ETSource
	metrics *observability.Metrics

	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key     string
	records []domain.ETRecord
}

// NewCachedSource wraps source with an LRU cache holding up to capacity
// field-year series.
func NewCachedSource(source domain.ETSource, capacity int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		source:   source,
		metrics:  metrics,
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

func cacheKey(field domain.Field, year int) string {
	return fmt.Sprintf("%s|%.6f|%.6f|%d", field.ID, field.Lat, field.Lon, year)
}

// DailyET returns the cached series when present, otherwise delegates to the
// underlying source. Only non-empty successful results are cached.
func (c *CachedSource) DailyET(ctx context.Context, field domain.Field, year int) ([]domain.ETRecord, error) {
	key := cacheKey(field, year)

	if records, ok := c.get(key); ok {
		c.metrics.OpenETCache.WithLabelValues("hit").Inc()
		return records, nil
	}
	c.metrics.OpenETCache.WithLabelValues("miss").Inc()

	records, err := c.source.DailyET(ctx, field, year)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		c.put(key, records)
	}
	return records, nil
}

func (c *CachedSource) get(key string) ([]domain.ETRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).records, true
}

func (c *CachedSource) put(key string, records []domain.ETRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).records = records
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, records: records})
}

// Len reports the number of cached series.
func (c *CachedSource) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
