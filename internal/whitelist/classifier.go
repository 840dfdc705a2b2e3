package whitelist

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/metricgate/metricgate/internal/audit"
)

// Classifier decides whether a metric name may be emitted. Each unique name
// is tested against the combined whitelist expression once; later calls reuse
// the cached verdict. Newly rejected names are recorded to the blocked-metric
// log.
type Classifier struct {
	matcher  *regexp.Regexp
	recorder audit.Recorder
	logger   *slog.Logger

	mu       sync.RWMutex
	verdicts map[string]bool
	bounded  *lru.Cache[string, bool]

	rejected atomic.Int64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCacheSize bounds the verdict cache to n entries with LRU eviction. An
// evicted name is re-evaluated (and re-recorded if rejected) when seen again.
func WithCacheSize(n int) Option {
	return func(c *Classifier) {
		cache, err := lru.New[string, bool](n)
		if err == nil {
			c.bounded = cache
		}
	}
}

// NewClassifier joins patterns with alternation and compiles the result. The
// patterns are expected to come pre-validated from LoadPatterns; a list that
// does not compile as a whole is the one fatal construction error. The
// recorder may be nil to disable blocked-metric logging.
func NewClassifier(logger *slog.Logger, patterns []string, recorder audit.Recorder, opts ...Option) (*Classifier, error) {
	matcher, err := regexp.Compile(strings.Join(patterns, "|"))
	if err != nil {
		return nil, fmt.Errorf("compiling whitelist expression: %w", err)
	}
	c := &Classifier{
		matcher:  matcher,
		recorder: recorder,
		logger:   logger,
		verdicts: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Allowed reports whether the metric name is whitelisted. The first call for
// a name evaluates the combined expression and, on rejection, records the
// name to the blocked-metric log exactly once; repeated calls return the
// cached verdict with no side effects.
func (c *Classifier) Allowed(metricName string) bool {
	c.mu.RLock()
	verdict, ok := c.lookup(metricName)
	c.mu.RUnlock()
	if ok {
		return verdict
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have classified the name while we waited, and the
	// blocked-metric log must see each name once.
	if verdict, ok := c.lookup(metricName); ok {
		return verdict
	}

	// Every pattern is anchor-wrapped, so a match here is a full-string match.
	verdict = c.matcher.MatchString(metricName)
	c.store(metricName, verdict)
	c.logger.Debug("metric classified", "metric", metricName, "allowed", verdict)
	if !verdict {
		c.rejected.Add(1)
		if c.recorder != nil {
			c.recorder.Record(metricName)
		}
	}
	return verdict
}

// Rejected returns how many metric names have been rejected on first sight.
func (c *Classifier) Rejected() int64 {
	return c.rejected.Load()
}

func (c *Classifier) lookup(name string) (bool, bool) {
	if c.bounded != nil {
		return c.bounded.Get(name)
	}
	v, ok := c.verdicts[name]
	return v, ok
}

func (c *Classifier) store(name string, verdict bool) {
	if c.bounded != nil {
		c.bounded.Add(name, verdict)
		return
	}
	c.verdicts[name] = verdict
}
