package whitelist

import (
	"fmt"
	"sync"
	"testing"
)

// recordingLog captures blocked metric names in memory.
type recordingLog struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingLog) Record(metricName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, metricName)
}

func (r *recordingLog) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func TestClassifier_EndToEnd(t *testing.T) {
	path := writeWhitelist(t, "cpu\\.load\nmem\\..*\n")
	patterns := LoadPatterns(newTestLogger(), path, false)

	blocked := &recordingLog{}
	classifier, err := NewClassifier(newTestLogger(), patterns, blocked)
	if err != nil {
		t.Fatal(err)
	}

	if !classifier.Allowed("cpu.load") {
		t.Error("expected cpu.load to be allowed")
	}
	if !classifier.Allowed("mem.used") {
		t.Error("expected mem.used to be allowed")
	}
	if classifier.Allowed("disk.io") {
		t.Error("expected disk.io to be rejected")
	}

	got := blocked.recorded()
	if len(got) != 1 || got[0] != "disk.io" {
		t.Fatalf("expected blocked log [disk.io], got %v", got)
	}

	// Second call hits the cache: same verdict, no new log entry.
	if classifier.Allowed("disk.io") {
		t.Error("expected disk.io to stay rejected")
	}
	if got := blocked.recorded(); len(got) != 1 {
		t.Errorf("expected one blocked log entry, got %v", got)
	}
	if classifier.Rejected() != 1 {
		t.Errorf("expected 1 rejection, got %d", classifier.Rejected())
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	classifier, err := NewClassifier(newTestLogger(), []string{`^cpu\..*$`}, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		if !classifier.Allowed("cpu.idle") {
			t.Fatal("expected cpu.idle to be allowed on every call")
		}
		if classifier.Allowed("disk.io") {
			t.Fatal("expected disk.io to be rejected on every call")
		}
	}
}

func TestClassifier_PartialNameNotAllowed(t *testing.T) {
	// Anchoring makes the rule a full-string match, not a prefix match.
	classifier, err := NewClassifier(newTestLogger(), []string{`^cpu\.load$`}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if classifier.Allowed("cpu.load.avg") {
		t.Error("expected cpu.load.avg to be rejected")
	}
	if classifier.Allowed("prefix.cpu.load") {
		t.Error("expected prefix.cpu.load to be rejected")
	}
}

func TestClassifier_FallbackRejectsEverything(t *testing.T) {
	blocked := &recordingLog{}
	classifier, err := NewClassifier(newTestLogger(), []string{EmptyPattern}, blocked)
	if err != nil {
		t.Fatal(err)
	}

	names := []string{"cpu.load", "mem.used", "disk.io"}
	for _, name := range names {
		if classifier.Allowed(name) {
			t.Errorf("expected %s to be rejected by fallback", name)
		}
	}

	if got := blocked.recorded(); len(got) != len(names) {
		t.Errorf("expected %d blocked log entries, got %v", len(names), got)
	}
}

func TestClassifier_ConcurrentFirstClassificationLogsOnce(t *testing.T) {
	blocked := &recordingLog{}
	classifier, err := NewClassifier(newTestLogger(), []string{EmptyPattern}, blocked)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			classifier.Allowed("disk.io")
		}()
	}
	wg.Wait()

	if got := blocked.recorded(); len(got) != 1 {
		t.Errorf("expected exactly one blocked log entry, got %v", got)
	}
}

func TestClassifier_ConcurrentDistinctNames(t *testing.T) {
	blocked := &recordingLog{}
	classifier, err := NewClassifier(newTestLogger(), []string{`^cpu\..*$`}, blocked)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			classifier.Allowed(fmt.Sprintf("cpu.core%d", i))
			classifier.Allowed(fmt.Sprintf("disk.io%d", i))
		}(i)
	}
	wg.Wait()

	if got := blocked.recorded(); len(got) != 16 {
		t.Errorf("expected 16 blocked log entries, got %d", len(got))
	}
}

func TestClassifier_BoundedCacheRelogsEvictedName(t *testing.T) {
	blocked := &recordingLog{}
	classifier, err := NewClassifier(newTestLogger(), []string{EmptyPattern}, blocked, WithCacheSize(2))
	if err != nil {
		t.Fatal(err)
	}

	classifier.Allowed("a")
	classifier.Allowed("b")
	classifier.Allowed("c") // evicts "a"

	if got := blocked.recorded(); len(got) != 3 {
		t.Fatalf("expected 3 blocked log entries, got %v", got)
	}

	classifier.Allowed("a") // re-evaluated after eviction
	if got := blocked.recorded(); len(got) != 4 {
		t.Errorf("expected evicted name to be logged again, got %v", got)
	}
}

func TestClassifier_NilRecorder(t *testing.T) {
	classifier, err := NewClassifier(newTestLogger(), []string{EmptyPattern}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if classifier.Allowed("disk.io") {
		t.Error("expected disk.io to be rejected")
	}
	if classifier.Rejected() != 1 {
		t.Errorf("expected 1 rejection, got %d", classifier.Rejected())
	}
}

func TestNewClassifier_InvalidPatternList(t *testing.T) {
	if _, err := NewClassifier(newTestLogger(), []string{"("}, nil); err == nil {
		t.Fatal("expected error for invalid pattern list")
	}
}
