package logger

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"sync"
	"time"
)

// Publisher ships a digest to a topic. *kafka.Producer satisfies it.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

// CollectionConfig controls error-log aggregation.
type CollectionConfig struct {
	Interval    time.Duration // flush period, default 30s
	MaxEntries  int           // distinct entries that force an early flush, default 100
	Topic       string
	Source      string // service name stamped on every digest
	Publisher   Publisher
	IncludeWarn bool
}

// AggregatedLogEntry is one distinct (level, caller, message, fields) tuple.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogDigest is the payload published once per flush.
type LogDigest struct {
	Source      string               `json:"source,omitempty"`
	WindowStart time.Time            `json:"window_start"`
	WindowEnd   time.Time            `json:"window_end"`
	Entries     []AggregatedLogEntry `json:"entries"`
}

const (
	publishTimeout = 10 * time.Second
	pendingDigests = 4
)

// LogCollector folds repeated log lines into counted entries and publishes
// them in windows. Publishing happens on one goroutine, in window order; if
// the publisher falls behind, whole digests are dropped.
type LogCollector struct {
	cfg CollectionConfig
	now func() time.Time

	mu          sync.Mutex
	entries     map[uint64]*AggregatedLogEntry
	windowStart time.Time
	dropped     int

	out  chan LogDigest
	stop chan struct{}
	done sync.WaitGroup
	once sync.Once
}

func NewLogCollector(cfg *CollectionConfig) *LogCollector {
	c := &LogCollector{
		cfg:     *cfg,
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[uint64]*AggregatedLogEntry),
		out:     make(chan LogDigest, pendingDigests),
		stop:    make(chan struct{}),
	}
	if c.cfg.Interval <= 0 {
		c.cfg.Interval = 30 * time.Second
	}
	if c.cfg.MaxEntries <= 0 {
		c.cfg.MaxEntries = 100
	}
	c.windowStart = c.now()

	c.done.Add(2)
	go c.tick()
	go c.publish()
	return c
}

func (c *LogCollector) collectsWarn() bool { return c.cfg.IncludeWarn }

// AddLog counts one occurrence.
func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	key := entryKey(level, message, fields, caller)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
		return
	}
	c.entries[key] = &AggregatedLogEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Caller:    caller,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	if len(c.entries) >= c.cfg.MaxEntries {
		c.cutLocked(now)
	}
}

// entryKey hashes fields in key order so map iteration does not split entries.
func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%s", level, caller, message)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "\x00%s=%v", k, fields[k])
	}
	return h.Sum64()
}

// cutLocked closes the current window and hands it to the publisher.
func (c *LogCollector) cutLocked(now time.Time) {
	if len(c.entries) == 0 {
		c.windowStart = now
		return
	}
	d := LogDigest{
		Source:      c.cfg.Source,
		WindowStart: c.windowStart,
		WindowEnd:   now,
		Entries:     make([]AggregatedLogEntry, 0, len(c.entries)),
	}
	for _, e := range c.entries {
		d.Entries = append(d.Entries, *e)
	}
	sort.Slice(d.Entries, func(i, j int) bool { return d.Entries[i].FirstSeen.Before(d.Entries[j].FirstSeen) })

	c.entries = make(map[uint64]*AggregatedLogEntry)
	c.windowStart = now

	select {
	case c.out <- d:
	default:
		c.dropped++
	}
}

func (c *LogCollector) tick() {
	defer c.done.Done()
	t := time.NewTicker(c.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			c.mu.Lock()
			c.cutLocked(c.now())
			c.mu.Unlock()
		case <-c.stop:
			c.mu.Lock()
			c.cutLocked(c.now())
			c.mu.Unlock()
			close(c.out)
			return
		}
	}
}

func (c *LogCollector) publish() {
	defer c.done.Done()
	for d := range c.out {
		if c.cfg.Publisher == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, d)
		cancel()
		if err != nil {
			// the logger cannot report its own shipping failures through itself
			fmt.Fprintf(os.Stderr, "log digest publish to %s failed: %v\n", c.cfg.Topic, err)
		}
	}
}

// Dropped reports how many digests were discarded because the publisher lagged.
func (c *LogCollector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close flushes the open window and waits until it has been published.
func (c *LogCollector) Close() {
	c.once.Do(func() { close(c.stop) })
	c.done.Wait()
}
