package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/autorescue/autorescue/internal/app"
	"github.com/autorescue/autorescue/internal/config"
	"github.com/autorescue/autorescue/internal/decision"
	"github.com/autorescue/autorescue/internal/ingest"
	"github.com/autorescue/autorescue/internal/policy"
	"github.com/autorescue/autorescue/pkg/types"
)

const defaultAddr = "http://localhost:8080"

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "run":
		return handleRun(args[2:], stdout, stderr)
	case "deployments":
		return handleDeployments(args[2:], stdout, stderr)
	case "outbox":
		return handleOutbox(args[2:], stdout, stderr)
	case "policy":
		return handlePolicy(args[2:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func handleRun(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", envOrDefault("RESCUE_CONFIG_PATH", ""), "path to rescue config file")
	signalsPath := fs.String("signals", "", "path to a JSON file of raw delay-signal items")
	concurrency := fs.Int("concurrency", 4, "number of incidents processed in parallel")
	jsonOut := fs.Bool("json", false, "print full run results as JSON lines")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}
	if *signalsPath == "" {
		fmt.Fprintln(stderr, "run requires -signals <file>")
		fs.Usage()
		return 2
	}
	if *concurrency < 1 {
		*concurrency = 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}

	items, err := loadSignals(*signalsPath)
	if err != nil {
		fmt.Fprintln(stderr, "signals:", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	engine, _, err := app.NewEngine(cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	var incidents []types.Incident
	skipped := 0
	for _, item := range items {
		incident, ok := ingest.FromItem(item, ingest.Options{
			MinDelayHours: cfg.MinDelayHours,
			Source:        "batch",
		})
		if !ok {
			skipped++
			continue
		}
		incidents = append(incidents, incident)
	}

	results := make([]*types.RunResult, len(incidents))
	errs := make([]error, len(incidents))

	group, ctx := errgroup.WithContext(context.Background())
	group.SetLimit(*concurrency)
	for i, incident := range incidents {
		group.Go(func() error {
			result, err := engine.Run(ctx, incident)
			results[i] = result
			errs[i] = err
			// Failures are reported per incident; one bad incident must not
			// cancel the rest of the batch.
			return nil
		})
	}
	_ = group.Wait()

	failed := 0
	enc := json.NewEncoder(stdout)
	for i, incident := range incidents {
		if errs[i] != nil {
			failed++
			fmt.Fprintf(stderr, "incident %s failed: %v\n", incident.IncidentID, errs[i])
			continue
		}
		if *jsonOut {
			_ = enc.Encode(results[i])
			continue
		}
		result := results[i]
		fmt.Fprintf(stdout, "incident=%s order=%s plan=%s allowed=%t event=%s action=%s\n",
			incident.IncidentID, incident.OrderID,
			result.ActionPlan.Type, result.PolicyReview.Allowed,
			result.PublishStatus.Event.State, result.PublishStatus.Action.State)
	}
	fmt.Fprintf(stdout, "processed=%d skipped=%d failed=%d\n", len(incidents)-failed, skipped, failed)

	if failed > 0 {
		return 1
	}
	return 0
}

func handleDeployments(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("deployments", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", envOrDefault("RESCUE_CONFIG_PATH", ""), "path to rescue config file")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}
	if cfg.Decision.BaseURL == "" {
		fmt.Fprintln(stderr, "deployments requires decision.base_url")
		return 1
	}

	client := decision.NewHTTPClient(cfg.Decision.BaseURL, cfg.Decision.Token)
	deployments, err := client.ListDeployments(context.Background())
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	if fs.NArg() == 1 {
		selected, ok := decision.ResolveDeployment(deployments, fs.Arg(0))
		if !ok {
			fmt.Fprintf(stderr, "no deployment matches %q\n", fs.Arg(0))
			return 1
		}
		fmt.Fprintf(stdout, "id=%s name=%s project=%s\n", selected.ID, selected.Name, selected.Project)
		return 0
	}

	for _, deployment := range deployments {
		fmt.Fprintf(stdout, "id=%s name=%s project=%s\n", deployment.ID, deployment.Name, deployment.Project)
	}
	return 0
}

func handleOutbox(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "read" {
		usage(stderr)
		return 2
	}

	fs := flag.NewFlagSet("outbox read", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("RESCUE_ADDR", defaultAddr), "rescue gateway address")
	limit := fs.Int("limit", 20, "maximum records to return")
	token := fs.String("token", envOrDefault("RESCUE_TOKEN", ""), "bearer token")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	if err := fs.Parse(args[1:]); err != nil {
		fs.Usage()
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "outbox read requires <topic>")
		fs.Usage()
		return 2
	}
	topic := fs.Arg(0)

	url := fmt.Sprintf("%s/v1/outbox/%s?limit=%d", *addr, topic, *limit)
	respBody, status, err := httpGet(http.DefaultClient, url, *token)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "outbox read failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	if *jsonOut {
		_, _ = stdout.Write(respBody)
		return 0
	}

	var payload struct {
		Total  int `json:"total"`
		Latest []struct {
			ID         string `json:"id"`
			Timestamp  string `json:"timestamp"`
			ParseError string `json:"parseError"`
		} `json:"latest"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}

	fmt.Fprintf(stdout, "topic=%s total=%d\n", topic, payload.Total)
	for _, record := range payload.Latest {
		if record.ParseError != "" {
			fmt.Fprintf(stdout, "  %s parse_error=%s\n", record.Timestamp, record.ParseError)
			continue
		}
		fmt.Fprintf(stdout, "  %s id=%s\n", record.Timestamp, record.ID)
	}
	return 0
}

func handlePolicy(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "lint":
		fs := flag.NewFlagSet("policy lint", flag.ContinueOnError)
		fs.SetOutput(stderr)
		if err := fs.Parse(args[1:]); err != nil {
			fs.Usage()
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "policy lint requires <policy_path>")
			fs.Usage()
			return 2
		}
		loaded, err := policy.Load(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		fmt.Fprintf(stdout, "ok tenant=%s max_credit_percentage=%.2f max_refund_amount=%.2f max_reshipments_per_month=%d\n",
			loaded.TenantID, loaded.MaxCreditPercentage, loaded.MaxRefundAmount, loaded.MaxReshipmentsPerMonth)
		return 0
	default:
		usage(stderr)
		return 2
	}
}

func loadSignals(path string) ([]map[string]any, error) {
	// #nosec G304 -- path is operator-provided signals file.
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Items != nil {
		return wrapped.Items, nil
	}

	var single map[string]any
	if err := json.Unmarshal(raw, &single); err == nil && len(single) > 0 {
		return []map[string]any{single}, nil
	}
	return nil, fmt.Errorf("signals file must be a JSON object, array, or {\"items\": [...]}")
}

func httpGet(client *http.Client, url string, token string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Rescue runner

Usage:
  rescue-runner run -signals items.json [-config FILE] [-concurrency N] [-json]
  rescue-runner deployments [selector] [-config FILE]
  rescue-runner outbox read <topic> [-addr URL] [-limit N] [-token TOKEN] [-json]
  rescue-runner policy lint <policy_path>
`)
}
