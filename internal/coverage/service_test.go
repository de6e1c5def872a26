package coverage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/psr-academy/internal/platform/cache"
	"github.com/p-n-ai/psr-academy/internal/questionbank"
)

func testService(t *testing.T, store cache.Store) (*Service, *MemoryProgress) {
	t.Helper()
	bank := &questionbank.Bank{Questions: []questionbank.Question{
		q("q1", "arrest"), q("q2", "arrest"), q("q3", "bail"),
	}}
	progress := NewMemoryProgress()
	return NewService(testDocument(), bank, progress, store), progress
}

func TestService_Coverage(t *testing.T) {
	mem := cache.NewMemory(time.Minute)
	svc, _ := testService(t, mem)
	ctx := context.Background()

	sum, err := svc.Coverage(ctx)
	if err != nil {
		t.Fatalf("Coverage() error = %v", err)
	}
	if sum.Covered != 1 || sum.Total != 3 {
		t.Errorf("Coverage() = %d/%d, want 1/3", sum.Covered, sum.Total)
	}
	if mem.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", mem.Len())
	}

	again, err := svc.Coverage(ctx)
	if err != nil {
		t.Fatalf("second Coverage() error = %v", err)
	}
	if again.Covered != sum.Covered || again.Total != sum.Total {
		t.Errorf("cached coverage %+v differs from computed %+v", again, sum)
	}
}

func TestService_CoverageConcurrent(t *testing.T) {
	mem := cache.NewMemory(time.Minute)
	svc, _ := testService(t, mem)

	var wg sync.WaitGroup
	results := make([]Summary, 8)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Coverage(context.Background())
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("Coverage() #%d error = %v", i, errs[i])
		}
		if results[i].Covered != 1 || results[i].Total != 3 {
			t.Errorf("Coverage() #%d = %d/%d, want 1/3", i, results[i].Covered, results[i].Total)
		}
	}
	if mem.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", mem.Len())
	}
}

func TestService_Node(t *testing.T) {
	svc, _ := testService(t, nil)

	n, err := svc.Node(context.Background(), "U1")
	if err != nil {
		t.Fatalf("Node() error = %v", err)
	}
	if n.Covered != 1 || n.Total != 2 {
		t.Errorf("U1 = %d/%d, want 1/2", n.Covered, n.Total)
	}

	_, err = svc.Node(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Node(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestService_LearnerQueries(t *testing.T) {
	svc, progress := testService(t, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := progress.Record("learner-1", "C1", i < 8); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if err := progress.Record("learner-1", "C2", i < 3); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	weak, err := svc.Weakest(ctx, "learner-1", 5)
	if err != nil {
		t.Fatalf("Weakest() error = %v", err)
	}
	if len(weak) != 1 || weak[0].CriterionID != "C2" || weak[0].Trend != TrendDeclining {
		t.Errorf("Weakest() = %+v, want only C2 declining", weak)
	}

	r, err := svc.Readiness(ctx, "learner-1")
	if err != nil {
		t.Fatalf("Readiness() error = %v", err)
	}
	if r.Mastered != 1 || r.Total != 3 || r.Score != 33 || r.Ready {
		t.Errorf("Readiness() = %+v", r)
	}

	a, err := svc.Criterion(ctx, "learner-1", "C1")
	if err != nil {
		t.Fatalf("Criterion() error = %v", err)
	}
	if a.Mastery != 80 || a.Gap != 0 || a.Matches != 2 {
		t.Errorf("Criterion(C1) = %+v", a)
	}

	if _, err := svc.Criterion(ctx, "learner-1", "C9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Criterion(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestFingerprint(t *testing.T) {
	doc := testDocument()
	a := Fingerprint(doc, &questionbank.Bank{Questions: []questionbank.Question{q("q1", "arrest")}})
	b := Fingerprint(doc, &questionbank.Bank{Questions: []questionbank.Question{q("q1", "arrest")}})
	c := Fingerprint(doc, &questionbank.Bank{Questions: []questionbank.Question{q("q1", "bail")}})

	if a != b {
		t.Error("Fingerprint() should be stable for equal snapshots")
	}
	if a == c {
		t.Error("Fingerprint() should change when tags change")
	}
	if len(a) != 64 {
		t.Errorf("Fingerprint() length = %d, want 64 hex chars", len(a))
	}
}

func TestMemoryProgress_Set(t *testing.T) {
	m := NewMemoryProgress()
	if err := m.Set("", Progress{CriterionID: "C1"}); err == nil {
		t.Error("Set() should reject empty learner")
	}
	if err := m.Set("l", Progress{CriterionID: "C1", Answered: 1, Correct: 2}); err == nil {
		t.Error("Set() should reject correct > answered")
	}
	if err := m.Set("l", Progress{CriterionID: "C1", Answered: 2, Correct: 1}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, _ := m.Progress(context.Background(), "l")
	if got["C1"].Answered != 2 {
		t.Errorf("Progress() = %+v", got)
	}
}

func TestNewPostgresProgress_NilPool(t *testing.T) {
	if _, err := NewPostgresProgress(nil); err == nil {
		t.Error("NewPostgresProgress(nil) should error")
	}
}
