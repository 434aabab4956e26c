package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/weftworks/weft/pkg/models"
)

func task(id string, deps ...string) *models.GenerationTask {
	return &models.GenerationTask{
		ID:        id,
		Status:    models.TaskStatusPending,
		DependsOn: deps,
	}
}

func TestBuildSimple(t *testing.T) {
	g := New()
	err := g.Build([]*models.GenerationTask{task("a"), task("b"), task("c")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Size() != 3 {
		t.Errorf("expected size 3, got %d", g.Size())
	}
}

func TestBuildUnknownDependency(t *testing.T) {
	g := New()
	err := g.Build([]*models.GenerationTask{task("a", "ghost")})
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func TestCycleDetectionDirect(t *testing.T) {
	g := New()
	err := g.Build([]*models.GenerationTask{task("a", "b"), task("b", "a")})
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected cycle error, got %v", err)
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatal("expected CycleError with participants")
	}
	if !reflect.DeepEqual(cycleErr.TaskIDs, []string{"a", "b"}) {
		t.Errorf("cycle participants = %v, want [a b]", cycleErr.TaskIDs)
	}
}

func TestCycleDetectionIndirect(t *testing.T) {
	g := New()
	err := g.Build([]*models.GenerationTask{
		task("a", "c"), task("b", "a"), task("c", "b"), task("d"),
	})
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected cycle error, got %v", err)
	}

	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatal("expected CycleError")
	}
	if len(cycleErr.TaskIDs) != 3 {
		t.Errorf("expected 3 participants, got %v", cycleErr.TaskIDs)
	}
}

func TestSelfCycle(t *testing.T) {
	g := New()
	err := g.Build([]*models.GenerationTask{task("a", "a")})
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestWavesRespectDependencies(t *testing.T) {
	g := New()
	tasks := []*models.GenerationTask{
		task("schema"),
		task("api", "schema"),
		task("component"),
		task("test-api", "api"),
		task("test-component", "component"),
	}
	if err := g.Build(tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waves, err := g.Waves()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waveOf := make(map[string]int)
	for _, w := range waves {
		for _, id := range w.TaskIDs {
			waveOf[id] = w.Number
		}
	}

	// Every task placed exactly once.
	if len(waveOf) != len(tasks) {
		t.Fatalf("expected %d placed tasks, got %d", len(tasks), len(waveOf))
	}

	// No task appears in a wave before all its dependencies' waves.
	for _, task := range tasks {
		for _, dep := range task.DependsOn {
			if waveOf[dep] >= waveOf[task.ID] {
				t.Errorf("task %s (wave %d) scheduled before dependency %s (wave %d)",
					task.ID, waveOf[task.ID], dep, waveOf[dep])
			}
		}
	}

	// Independent roots share wave 0.
	if waveOf["schema"] != 0 || waveOf["component"] != 0 {
		t.Errorf("expected schema and component in wave 0, got %v", waveOf)
	}
}

func TestWavesDeterministic(t *testing.T) {
	build := func() []models.Wave {
		g := New()
		if err := g.Build([]*models.GenerationTask{
			task("c"), task("a"), task("b", "a"), task("d", "a"),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		waves, err := g.Waves()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return waves
	}

	first := build()
	for i := 0; i < 10; i++ {
		if got := build(); !reflect.DeepEqual(got, first) {
			t.Fatalf("wave assignment not deterministic: %v vs %v", got, first)
		}
	}

	// Sorted within each wave.
	if !reflect.DeepEqual(first[0].TaskIDs, []string{"a", "c"}) {
		t.Errorf("wave 0 = %v, want [a c]", first[0].TaskIDs)
	}
	if !reflect.DeepEqual(first[1].TaskIDs, []string{"b", "d"}) {
		t.Errorf("wave 1 = %v, want [b d]", first[1].TaskIDs)
	}
}

func TestDependents(t *testing.T) {
	g := New()
	if err := g.Build([]*models.GenerationTask{
		task("a"), task("b", "a"), task("c", "b"), task("d"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	direct := g.GetDependents("a")
	if !reflect.DeepEqual(direct, []string{"b"}) {
		t.Errorf("direct dependents of a = %v, want [b]", direct)
	}

	all := g.TransitiveDependents("a")
	if !reflect.DeepEqual(all, []string{"b", "c"}) {
		t.Errorf("transitive dependents of a = %v, want [b c]", all)
	}

	if deps := g.TransitiveDependents("d"); len(deps) != 0 {
		t.Errorf("expected no dependents for d, got %v", deps)
	}
}
