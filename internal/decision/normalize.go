package decision

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NormalizeDeployments converts every deployment-listing shape the service
// is known to return into one canonical slice. All alias resolution lives
// here; callers never sniff response shapes themselves.
//
// Accepted shapes:
//   - a JSON array of deployment objects
//   - an object with an "items" (or "data".."items") array
//   - an object keyed by project name, each value an array or single object
func NormalizeDeployments(raw json.RawMessage) ([]Deployment, error) {
	var asList []map[string]any
	if err := json.Unmarshal(raw, &asList); err == nil {
		return deploymentsFromList(asList, ""), nil
	}

	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, fmt.Errorf("deployments: unrecognized response shape: %w", err)
	}

	if inner, ok := asMap["data"].(map[string]any); ok {
		asMap = inner
	}
	if items, ok := asMap["items"].([]any); ok {
		return deploymentsFromAny(items, ""), nil
	}

	// Keyed-by-project map.
	var out []Deployment
	keys := make([]string, 0, len(asMap))
	for key := range asMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, project := range keys {
		switch value := asMap[project].(type) {
		case []any:
			out = append(out, deploymentsFromAny(value, project)...)
		case map[string]any:
			if d, ok := deploymentFromMap(value, project); ok {
				out = append(out, d)
			}
		}
	}
	if out == nil {
		return nil, fmt.Errorf("deployments: response contained no deployments")
	}
	return out, nil
}

func deploymentsFromList(items []map[string]any, project string) []Deployment {
	out := make([]Deployment, 0, len(items))
	for _, item := range items {
		if d, ok := deploymentFromMap(item, project); ok {
			out = append(out, d)
		}
	}
	return out
}

func deploymentsFromAny(items []any, project string) []Deployment {
	out := make([]Deployment, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if d, ok := deploymentFromMap(m, project); ok {
			out = append(out, d)
		}
	}
	return out
}

func deploymentFromMap(m map[string]any, project string) (Deployment, bool) {
	d := Deployment{
		ID:      stringField(m, "id", "actorId", "deploymentId"),
		Name:    stringField(m, "name", "title"),
		Project: project,
	}
	if d.Project == "" {
		d.Project = stringField(m, "project", "username")
	}
	if d.ID == "" {
		return Deployment{}, false
	}
	return d, true
}

// ResolveDeployment picks a deployment by id or name; an empty selector
// resolves only when exactly one deployment exists.
func ResolveDeployment(deployments []Deployment, selector string) (Deployment, bool) {
	if selector == "" {
		if len(deployments) == 1 {
			return deployments[0], true
		}
		return Deployment{}, false
	}
	for _, d := range deployments {
		if d.ID == selector || d.Name == selector {
			return d, true
		}
	}
	return Deployment{}, false
}
