package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPClientCreateRelease(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"version":"incident-INC-1"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "token-1", "acme", "rescue")
	release, err := client.CreateRelease(context.Background(), "incident-INC-1", "notes", time.Now())
	if err != nil {
		t.Fatalf("create release: %v", err)
	}
	if release.Version != "incident-INC-1" {
		t.Fatalf("release = %+v", release)
	}
	if gotPath != "/api/0/organizations/acme/releases/" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer token-1" {
		t.Fatalf("auth = %q", gotAuth)
	}
	projects, _ := gotBody["projects"].([]any)
	if len(projects) != 1 || projects[0] != "rescue" {
		t.Fatalf("body = %+v", gotBody)
	}
}

func TestHTTPClientCreateDeploy(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"d-1","environment":"production"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", "acme", "rescue")
	deploy, err := client.CreateDeploy(context.Background(), "incident-INC-1", "production", "coupon", time.Now(), time.Now())
	if err != nil {
		t.Fatalf("create deploy: %v", err)
	}
	if deploy.Environment != "production" {
		t.Fatalf("deploy = %+v", deploy)
	}
	if gotPath != "/api/0/organizations/acme/releases/incident-INC-1/deploys/" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestHTTPClientListIssues(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`[{"id":"11","title":"shipment delay","permalink":"https://x/11"}]`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "token", "acme", "rescue")
	issues, err := client.ListIssues(context.Background(), "ORD-1", 5)
	if err != nil {
		t.Fatalf("list issues: %v", err)
	}
	if len(issues) != 1 || issues[0].ID != "11" {
		t.Fatalf("issues = %+v", issues)
	}
	if gotQuery != "ORD-1" {
		t.Fatalf("query = %q", gotQuery)
	}
}

func TestHTTPClientErrorStatusIncludesSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"invalid token"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "bad", "acme", "rescue")
	_, err := client.CreateRelease(context.Background(), "v1", "", time.Now())
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "invalid token") {
		t.Fatalf("err = %v", err)
	}
}
