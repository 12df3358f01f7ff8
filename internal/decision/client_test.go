package decision

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/autorescue/autorescue/pkg/types"
)

func TestHTTPClientStartRun(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": "run-9", "defaultDatasetId": "ds-9"},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "tok")
	client.Client = server.Client()

	ref, err := client.StartRun(context.Background(), "acme~rescue-agent", map[string]any{"orderId": "ORD-1"})
	if err != nil {
		t.Fatalf("start run: %v", err)
	}
	if ref.ID != "run-9" || ref.DatasetID != "ds-9" {
		t.Fatalf("ref = %+v", ref)
	}
	if gotPath != "/v2/acts/acme~rescue-agent/runs" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth = %q", gotAuth)
	}

	var params map[string]any
	if err := json.Unmarshal(gotBody, &params); err != nil {
		t.Fatalf("body: %v", err)
	}
	if params["orderId"] != "ORD-1" {
		t.Fatalf("params = %+v", params)
	}
}

func TestHTTPClientGetRunBareObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "RUNNING"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "")
	client.Client = server.Client()

	state, err := client.GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if state.Status != "RUNNING" {
		t.Fatalf("state = %+v", state)
	}
}

func TestHTTPClientListResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" || r.URL.Query().Get("clean") != "1" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]types.Decision{
			{IncidentID: "INC-1", ToolCall: &types.ToolCall{Name: types.ActionCreateRefund}},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "")
	client.Client = server.Client()

	results, err := client.ListResults(context.Background(), "ds-1", 5)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 1 || results[0].ToolCall.Name != types.ActionCreateRefund {
		t.Fatalf("results = %+v", results)
	}
}

func TestHTTPClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"actor not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "")
	client.Client = server.Client()

	if _, err := client.StartRun(context.Background(), "missing", nil); err == nil {
		t.Fatalf("expected error for 404")
	}
}
