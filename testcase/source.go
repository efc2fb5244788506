// Package testcase models the natural-language test cases driven by the
// orchestrator and the sources they are loaded from.
package testcase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hairizuan-noorazman/helpdesk-pilot/classifier"
	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

// Source loads test cases.
type Source interface {
	Load(ctx context.Context) ([]*TestCase, error)
}

// SortByKey orders test cases by key ascending, keeping the source order of
// equal keys.
func SortByKey(cases []*TestCase) {
	sort.SliceStable(cases, func(i, j int) bool { return cases[i].Key < cases[j].Key })
}

// record is the wire shape in both file and remote sources. Enabled is a
// pointer so an omitted flag defaults to true.
type record struct {
	ID      json.RawMessage `json:"id"`
	Key     string          `json:"key"`
	Steps   string          `json:"steps"`
	Enabled *bool           `json:"enabled"`
}

type fileRecord struct {
	ID      string `yaml:"id"`
	Key     string `yaml:"key"`
	Steps   string `yaml:"steps"`
	Enabled *bool  `yaml:"enabled"`
}

func build(id, key, steps string, enabled *bool) (*TestCase, error) {
	tc := New(id, key, steps)
	if enabled != nil {
		tc.Enabled = *enabled
	}
	if err := tc.Validate(); err != nil {
		return nil, fmt.Errorf("test case %q: %w", id, err)
	}
	return tc, nil
}

// FileSource reads a YAML or JSON document holding a test_cases list.
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) ([]*TestCase, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test cases: %w", err)
	}

	var doc struct {
		TestCases []fileRecord `yaml:"test_cases"`
	}
	// YAML is a superset of JSON, so one decoder serves both.
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(s.Path), err)
	}

	cases := make([]*TestCase, 0, len(doc.TestCases))
	for i, r := range doc.TestCases {
		if r.ID == "" {
			r.ID = fmt.Sprintf("%d", i+1)
		}
		tc, err := build(r.ID, r.Key, r.Steps, r.Enabled)
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

// Getter is the subset of the gateway client RemoteSource needs.
type Getter interface {
	Get(ctx context.Context, path string) (*gateway.Response, error)
}

// RemoteSource fetches test cases tagged with Tag from a test management
// project.
type RemoteSource struct {
	Client  Getter
	Project string
	Tag     string
	Logger  logger.Logger
}

// Path returns the request path including the tag filter.
func (s RemoteSource) Path() string {
	q := url.Values{}
	q.Set("query_hash[0][condition]", "base_tags.name")
	q.Set("query_hash[0][operator]", "is_in")
	q.Add("query_hash[0][value][]", s.Tag)
	q.Set("per_page", "250")
	q.Set("page", "1")
	q.Set("include", "custom_field,test_case")
	return "/" + strings.Trim(s.Project, "/") + "/test_cases?" + q.Encode()
}

func (s RemoteSource) Load(ctx context.Context) ([]*TestCase, error) {
	resp, err := s.Client.Get(ctx, s.Path())
	res, err := classifier.Classify("fetchTestCases", resp, err)
	if err != nil {
		return nil, err
	}
	if res.Kind != classifier.KindOK {
		return nil, fmt.Errorf("fetchTestCases: unexpected %s (status %d)", res.Kind, res.StatusCode)
	}

	var body struct {
		TestCases []record `json:"test_cases"`
	}
	if err := json.Unmarshal(res.Raw, &body); err != nil {
		return nil, fmt.Errorf("fetchTestCases: %w", err)
	}

	cases := make([]*TestCase, 0, len(body.TestCases))
	for _, r := range body.TestCases {
		tc, err := build(rawID(r.ID), r.Key, r.Steps, r.Enabled)
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	logger.OrNop(s.Logger).Info(ctx, "fetched test cases", map[string]interface{}{
		"project": s.Project,
		"tag":     s.Tag,
		"count":   len(cases),
	})
	return cases, nil
}

// rawID renders a numeric or string id as text.
func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
