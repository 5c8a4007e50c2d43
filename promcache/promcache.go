// Package promcache counts the traffic of a formulas.Cache with Prometheus
// metrics.
package promcache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zephyrtronium/formulas"
)

// Cache wraps a formulas.Cache, counting lookups by outcome and stores.
type Cache struct {
	next    formulas.Cache
	lookups *prometheus.CounterVec
	stores  prometheus.Counter
}

// Wrap wraps next and registers the metrics with reg. If reg is nil, the
// metrics are not registered anywhere but are still counted.
func Wrap(next formulas.Cache, reg prometheus.Registerer) (*Cache, error) {
	c := &Cache{
		next: next,
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "formula_cache_lookups_total",
			Help: "Formula cache lookups by result",
		}, []string{"result"}),
		stores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formula_cache_stores_total",
			Help: "Formula results stored in the cache",
		}),
	}
	if reg != nil {
		for _, m := range []prometheus.Collector{c.lookups, c.stores} {
			if err := reg.Register(m); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Lookup looks up a formula in the wrapped cache.
func (c *Cache) Lookup(key string) (float64, bool) {
	v, ok := c.next.Lookup(key)
	if ok {
		c.lookups.WithLabelValues("hit").Inc()
	} else {
		c.lookups.WithLabelValues("miss").Inc()
	}
	return v, ok
}

// Store stores a result in the wrapped cache.
func (c *Cache) Store(key string, v float64) {
	c.stores.Inc()
	c.next.Store(key, v)
}

// Capacity returns the capacity of the wrapped cache, or 0 if it has no limit.
func (c *Cache) Capacity() int64 {
	if b, ok := c.next.(formulas.Bounded); ok {
		return b.Capacity()
	}
	return 0
}

var (
	_ formulas.Cache   = (*Cache)(nil)
	_ formulas.Bounded = (*Cache)(nil)
)
