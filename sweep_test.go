package asr

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

func tier2Entity(id, domain string, due int64) *model.LegalEntity {
	return &model.LegalEntity{
		ID:                id,
		Domain:            domain,
		Tier:              model.Tier2,
		ReverificationDue: &due,
	}
}

func TestSweepDowngradesDueEntities(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour).Unix()
	future := now.Add(time.Hour).Unix()
	store := newFakeEntityStore(
		tier2Entity("due-1", "a.example.com", past),
		tier2Entity("due-2", "b.example.com", past),
		tier2Entity("fresh", "c.example.com", future),
	)
	report := NewDowngradeSweep(store, testClock(now)).Run()
	if report.Checked != 2 {
		t.Errorf("expected 2 checked, got %d", report.Checked)
	}
	if report.Downgraded != 2 {
		t.Errorf("expected 2 downgraded, got %d", report.Downgraded)
	}
	if report.Failed != 0 {
		t.Errorf("expected 0 failed, got %d", report.Failed)
	}
	for _, id := range []string{"due-1", "due-2"} {
		e, _ := store.ByID(id)
		if e.Tier != model.Tier3 {
			t.Errorf("%s: expected tier 3, got %s", id, e.Tier)
		}
		if e.ReverificationDue != nil {
			t.Errorf("%s: deadline must be cleared", id)
		}
	}
	fresh, _ := store.ByID("fresh")
	if fresh.Tier != model.Tier2 {
		t.Errorf("fresh entity must stay tier 2, got %s", fresh.Tier)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeEntityStore(tier2Entity("due-1", "a.example.com", now.Add(-time.Hour).Unix()))
	sweep := NewDowngradeSweep(store, testClock(now))

	first := sweep.Run()
	if first.Downgraded != 1 {
		t.Fatalf("expected 1 downgrade on the first run, got %d", first.Downgraded)
	}
	second := sweep.Run()
	if second.Downgraded != 0 {
		t.Errorf("expected no downgrades on the second run, got %d", second.Downgraded)
	}
	if second.Failed != 0 {
		t.Errorf("re-running must not fail, got %d failures", second.Failed)
	}
}

func TestSweepIsolatesFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour).Unix()
	store := newFakeEntityStore(
		tier2Entity("broken", "a.example.com", past),
		tier2Entity("fine", "b.example.com", past),
	)
	store.downgradeErr["broken"] = errors.New("database hiccup")

	report := NewDowngradeSweep(store, testClock(now)).Run()
	if report.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", report.Failed)
	}
	if report.Downgraded != 1 {
		t.Errorf("the healthy entity must still be downgraded, got %d", report.Downgraded)
	}
	fine, _ := store.ByID("fine")
	if fine.Tier != model.Tier3 {
		t.Errorf("expected tier 3 for the healthy entity, got %s", fine.Tier)
	}
}
