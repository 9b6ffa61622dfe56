package cityapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchCityOverviewDecodesRoster(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/city/overview" {
			t.Errorf("expected /city/overview, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("city"); got != "长安" {
			t.Errorf("expected city=长安, got %q", got)
		}
		io.WriteString(w, `{"city":"长安","agents":[
			{"id":0,"name":"人类","credits":0,"resources":[]},
			{"id":3,"name":"小麦","credits":120,"resources":[{"resource_type":"flour","quantity":7}]}
		]}`)
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	overview, err := client.FetchCityOverview(context.Background(), "长安")
	if err != nil {
		t.Fatalf("fetch overview: %v", err)
	}
	if len(overview.Agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(overview.Agents))
	}
	a := overview.Agents[1]
	if a.ID != 3 || a.Credits != 120 {
		t.Errorf("unexpected agent: %+v", a)
	}
	if len(a.Resources) != 1 || a.Resources[0].ResourceType != "flour" || a.Resources[0].Quantity != 7 {
		t.Errorf("unexpected resources: %+v", a.Resources)
	}
}

func TestTransferResourceSendsRequestAndDecodesOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/city/transfer" {
			t.Errorf("expected /city/transfer, got %s", r.URL.Path)
		}
		var payload map[string]any
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("invalid JSON payload: %v", err)
		}
		if payload["from_agent_id"] != float64(3) || payload["to_agent_id"] != float64(7) {
			t.Errorf("unexpected ids: %#v", payload)
		}
		if payload["resource_type"] != "flour" || payload["quantity"] != float64(5) {
			t.Errorf("unexpected transfer body: %#v", payload)
		}
		io.WriteString(w, `{"ok":true,"reason":"转移 5 flour 成功"}`)
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	out, err := client.TransferResource(context.Background(), 3, 7, "flour", 5)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !out.OK || out.Reason != "转移 5 flour 成功" {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestCheckInAndPurchasePaths(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/work/jobs/2/checkin":
			io.WriteString(w, `{"ok":true,"reason":"success","reward":10}`)
		case "/shop/purchase":
			io.WriteString(w, `{"ok":true,"reason":"success","price":60,"remaining_credits":40}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	checkin, err := client.CheckIn(context.Background(), 2, 5)
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if !checkin.OK || checkin.Reward != 10 {
		t.Errorf("unexpected checkin outcome: %+v", checkin)
	}
	purchase, err := client.PurchaseItem(context.Background(), 5, 9)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if !purchase.OK || purchase.Price != 60 || purchase.RemainingCredits != 40 {
		t.Errorf("unexpected purchase outcome: %+v", purchase)
	}
}

func TestDoReportsHTTPStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.FetchJobs(context.Background()); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
