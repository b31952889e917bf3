package statesave

import (
	"sync"
	"time"
)

// FieldEvent describes one tracked field inside a pass.
type FieldEvent struct {
	Name    string
	Level   Level
	Options Options
	Reading bool
	// Changed, Bytes and Err are only populated on the after callback.
	Changed bool
	Bytes   int64
	Err     error
}

// NopMonitor ignores every event.
type NopMonitor struct{}

func (NopMonitor) FieldSerializing(FieldEvent) {}
func (NopMonitor) FieldSerialized(FieldEvent)  {}

// FieldStats accumulates transfer statistics for one field name.
type FieldStats struct {
	Transfers  uint64
	Skips      uint64
	Bytes      uint64
	Errors     uint64
	LastChange time.Time
}

// Collector is a Monitor that aggregates per-field statistics. Unlike a
// Tracker it is safe to share across trackers and goroutines.
type Collector struct {
	mu     sync.RWMutex
	fields map[string]*FieldStats
	now    func() time.Time
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		fields: make(map[string]*FieldStats),
		now:    time.Now,
	}
}

func (c *Collector) FieldSerializing(FieldEvent) {}

func (c *Collector) FieldSerialized(ev FieldEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.fields[ev.Name]
	if !ok {
		st = &FieldStats{}
		c.fields[ev.Name] = st
	}
	switch {
	case ev.Err != nil:
		st.Errors++
	case ev.Changed:
		st.Transfers++
		st.Bytes += uint64(ev.Bytes)
		st.LastChange = c.now()
	default:
		st.Skips++
	}
}

// Stats returns a copy of the statistics for one field name.
func (c *Collector) Stats(name string) (FieldStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.fields[name]
	if !ok {
		return FieldStats{}, false
	}
	return *st, true
}

// ForEach visits every field's statistics under the read lock.
func (c *Collector) ForEach(fn func(name string, st FieldStats)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for name, st := range c.fields {
		fn(name, *st)
	}
}

// Reset drops all accumulated statistics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.fields)
}
