package econ

import (
	"context"
	"errors"
	"testing"

	"citydesk/internal/cityapi"
)

type fakeLoader struct {
	jobs     []cityapi.Job
	jobsErr  error
	items    []cityapi.ShopItem
	itemsErr error
	owned    map[int][]cityapi.OwnedItem
	ownedErr error

	jobCalls, itemCalls, ownedCalls int
}

func (f *fakeLoader) FetchJobs(ctx context.Context) ([]cityapi.Job, error) {
	f.jobCalls++
	return f.jobs, f.jobsErr
}

func (f *fakeLoader) FetchShopItems(ctx context.Context) ([]cityapi.ShopItem, error) {
	f.itemCalls++
	return f.items, f.itemsErr
}

func (f *fakeLoader) FetchAgentItems(ctx context.Context, agentID int) ([]cityapi.OwnedItem, error) {
	f.ownedCalls++
	return f.owned[agentID], f.ownedErr
}

func TestPanelLoadsActiveModeOnly(t *testing.T) {
	loader := &fakeLoader{jobs: []cityapi.Job{{ID: 1, Title: "磨坊工"}}}
	panel := NewPanel(loader, nil)

	panel.Load(context.Background())
	if loader.jobCalls != 1 || loader.itemCalls != 0 || loader.ownedCalls != 0 {
		t.Fatalf("expected only jobs fetch, got jobs=%d items=%d owned=%d",
			loader.jobCalls, loader.itemCalls, loader.ownedCalls)
	}
	if len(panel.Jobs()) != 1 || panel.Loading() {
		t.Errorf("jobs not installed: %+v loading=%v", panel.Jobs(), panel.Loading())
	}
}

func TestStaleLoadResultIsDiscarded(t *testing.T) {
	loader := &fakeLoader{
		jobs:  []cityapi.Job{{ID: 1, Title: "磨坊工"}},
		items: []cityapi.ShopItem{{ID: 9, Name: "称号"}},
	}
	panel := NewPanel(loader, nil)

	// Jobs load starts, then the user switches to Shop before it resolves.
	staleGen, _, _ := panel.StartLoad()
	panel.SetMode(ModeShop)
	panel.Load(context.Background())

	if applied := panel.ApplyJobs(staleGen, loader.jobs, nil); applied {
		t.Fatal("stale jobs result must be discarded")
	}
	if len(panel.Items()) != 1 {
		t.Errorf("shop data lost: %+v", panel.Items())
	}
	if panel.Loading() {
		t.Error("panel stuck loading after settled newer load")
	}
}

func TestLoadFailureRetainsPriorDataAndFlags(t *testing.T) {
	loader := &fakeLoader{jobs: []cityapi.Job{{ID: 1}}}
	panel := NewPanel(loader, nil)
	panel.Load(context.Background())

	loader.jobsErr = errors.New("backend down")
	panel.Load(context.Background())

	if !panel.LoadFailed() {
		t.Error("expected load failure flag")
	}
	if len(panel.Jobs()) != 1 {
		t.Errorf("prior data must be retained on failure, got %+v", panel.Jobs())
	}

	// A later successful load clears the flag.
	loader.jobsErr = nil
	panel.Load(context.Background())
	if panel.LoadFailed() {
		t.Error("failure flag not cleared by successful load")
	}
}

func TestEnsureActorPicksFirstNonHumanOnce(t *testing.T) {
	panel := NewPanel(&fakeLoader{}, nil)

	if panel.EnsureActor(nil) {
		t.Error("empty roster must not select an actor")
	}
	roster := []cityapi.Agent{{ID: 0, Name: "人类"}, {ID: 5, Name: "甲"}, {ID: 7, Name: "乙"}}
	if !panel.EnsureActor(roster) {
		t.Fatal("expected default actor selection")
	}
	if panel.Actor() != 5 {
		t.Fatalf("expected first non-human agent 5, got %d", panel.Actor())
	}

	// Manual reselection persists across roster refreshes.
	panel.SetActor(7)
	if panel.EnsureActor(roster) {
		t.Error("EnsureActor must not re-force after a selection exists")
	}
	if panel.Actor() != 7 {
		t.Errorf("manual selection lost, got %d", panel.Actor())
	}
}

func TestInventoryLoadWithoutActorSkipsFetch(t *testing.T) {
	loader := &fakeLoader{owned: map[int][]cityapi.OwnedItem{5: {{ItemID: 1}}}}
	panel := NewPanel(loader, nil)
	panel.SetMode(ModeInventory)

	panel.Load(context.Background())
	if loader.ownedCalls != 0 {
		t.Fatal("inventory load without actor must not hit the backend")
	}
	if panel.Loading() {
		t.Error("loading flag stuck")
	}

	panel.SetActor(5)
	panel.Load(context.Background())
	if loader.ownedCalls != 1 || len(panel.Owned()) != 1 {
		t.Errorf("expected owned items for actor 5, calls=%d owned=%+v", loader.ownedCalls, panel.Owned())
	}
}

func TestCanCheckInCapacityGate(t *testing.T) {
	cases := []struct {
		job  cityapi.Job
		want bool
	}{
		{cityapi.Job{MaxWorkers: 0, TodayWorkers: 100}, true}, // unlimited
		{cityapi.Job{MaxWorkers: 3, TodayWorkers: 2}, true},
		{cityapi.Job{MaxWorkers: 3, TodayWorkers: 3}, false},
		{cityapi.Job{MaxWorkers: 3, TodayWorkers: 4}, false},
	}
	for _, tc := range cases {
		if got := CanCheckIn(tc.job); got != tc.want {
			t.Errorf("CanCheckIn(%+v) = %v, want %v", tc.job, got, tc.want)
		}
	}
}

func TestCanPurchaseCreditGate(t *testing.T) {
	item := cityapi.ShopItem{Price: 60}
	if CanPurchase(item, cityapi.Agent{}, false) {
		t.Error("no selected actor must disable purchase")
	}
	if CanPurchase(item, cityapi.Agent{Credits: 59}, true) {
		t.Error("insufficient cached credits must disable purchase")
	}
	if !CanPurchase(item, cityapi.Agent{Credits: 60}, true) {
		t.Error("exact credits must enable purchase")
	}
}
