package traffic

import (
	"errors"
	"sync"
	"testing"

	"github.com/Arcilios/Take-a-Bike/internal/models"
)

func newTestDisplay(t *testing.T) *Display {
	t.Helper()
	engine := newTestEngine(t, stationsOf("S1", "S2"), []models.Trip{
		trip("r1", "S1", "S2", at(0, 5), at(0, 10)),
	})
	d, err := NewDisplay(engine)
	if err != nil {
		t.Fatalf("NewDisplay failed: %v", err)
	}
	return d
}

func TestDisplay_StartsAtAllTime(t *testing.T) {
	d := newTestDisplay(t)
	if !d.Selector().IsAllTime() {
		t.Errorf("initial state should be AllTime, got %v", d.Selector())
	}
	if d.Current().Label != "" {
		t.Errorf("AllTime label should be empty, got %q", d.Current().Label)
	}
}

func TestDisplay_Transitions(t *testing.T) {
	d := newTestDisplay(t)

	res, err := d.Apply(10)
	if err != nil {
		t.Fatalf("Apply(10) failed: %v", err)
	}
	if res.Selector != 10 || d.Selector() != 10 {
		t.Errorf("expected WindowedAt(00:10), got %v", d.Selector())
	}
	if res.Label != "00:10" {
		t.Errorf("label = %q, want 00:10", res.Label)
	}

	if _, err := d.Apply(-1); err != nil {
		t.Fatalf("Apply(-1) failed: %v", err)
	}
	if !d.Selector().IsAllTime() {
		t.Errorf("expected AllTime, got %v", d.Selector())
	}
}

func TestDisplay_InvalidSelectorKeepsPreviousState(t *testing.T) {
	d := newTestDisplay(t)
	if _, err := d.Apply(600); err != nil {
		t.Fatalf("Apply(600) failed: %v", err)
	}
	before := d.Current()

	for _, v := range []int{-2, 1440} {
		if _, err := d.Apply(v); !errors.Is(err, ErrInvalidSelector) {
			t.Errorf("Apply(%d) should fail with ErrInvalidSelector, got %v", v, err)
		}
	}

	if d.Current() != before {
		t.Error("a rejected selection must leave the displayed result untouched")
	}
}

func TestDisplay_ConcurrentAppliesSettleOnCommittedResult(t *testing.T) {
	d := newTestDisplay(t)

	var wg sync.WaitGroup
	for m := 0; m < 200; m++ {
		wg.Add(1)
		go func(m int) {
			defer wg.Done()
			if _, err := d.Apply(m); err != nil {
				t.Errorf("Apply(%d) failed: %v", m, err)
			}
		}(m)
	}
	wg.Wait()

	cur := d.Current()
	if cur == nil {
		t.Fatal("display lost its result")
	}
	if cur.Label != FormatTime(cur.Selector) {
		t.Errorf("displayed label %q does not match displayed selector %v", cur.Label, cur.Selector)
	}
	if d.committed != d.issued.Load() {
		t.Errorf("last issued apply (%d) should be the committed one, got %d", d.issued.Load(), d.committed)
	}
}

func TestDisplay_StaleApplyDoesNotOverwrite(t *testing.T) {
	d := newTestDisplay(t)

	// Simulate a newer apply having committed before an older one finishes
	newer, err := d.Apply(900)
	if err != nil {
		t.Fatalf("Apply(900) failed: %v", err)
	}
	d.mu.Lock()
	d.committed += 10
	d.mu.Unlock()

	got, err := d.Apply(100)
	if err != nil {
		t.Fatalf("Apply(100) failed: %v", err)
	}
	if got != newer || d.Selector() != 900 {
		t.Errorf("stale apply overwrote the newer selection: displayed %v", d.Selector())
	}
}

func TestDisplay_ReloadResetsToAllTime(t *testing.T) {
	d := newTestDisplay(t)
	if _, err := d.Apply(10); err != nil {
		t.Fatalf("Apply(10) failed: %v", err)
	}

	next := newTestEngine(t, stationsOf("S1", "S2", "S3"), nil)
	res, err := d.Reload(next)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if !res.Selector.IsAllTime() || !d.Selector().IsAllTime() {
		t.Errorf("reload should reset to AllTime, got %v", d.Selector())
	}
	if d.Engine() != next || res.DatasetID != next.Dataset().ID {
		t.Error("display should query the reloaded dataset")
	}
	if len(d.Current().Records) != 3 {
		t.Errorf("expected 3 records from the new dataset, got %d", len(d.Current().Records))
	}

	// Applies after the reload run against the new dataset
	res, err = d.Apply(10)
	if err != nil {
		t.Fatalf("Apply(10) failed: %v", err)
	}
	if res.DatasetID != next.Dataset().ID {
		t.Error("apply after reload used the old dataset")
	}
}
