package forge

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// fakeProvider records calls and replays canned results.
type fakeProvider struct {
	created   []*Issue
	issues    []*Issue
	files     map[string]string
	failState bool
}

func (f *fakeProvider) CreateIssue(ctx context.Context, repo string, issue *Issue) (*Issue, error) {
	if f.failState {
		return nil, fmt.Errorf("api unavailable")
	}
	out := *issue
	out.Number = len(f.created) + 1
	out.URL = fmt.Sprintf("https://example.test/%s/issues/%d", repo, out.Number)
	f.created = append(f.created, &out)
	return &out, nil
}

func (f *fakeProvider) ListIssues(ctx context.Context, repo string, opts *ListOptions) ([]*Issue, error) {
	if f.failState {
		return nil, fmt.Errorf("api unavailable")
	}
	return f.issues, nil
}

func (f *fakeProvider) FileContent(ctx context.Context, repo, path string) (string, error) {
	content, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("not found")
	}
	return content, nil
}

func findTool(t *testing.T, p Provider, name string) func(context.Context, map[string]any) (string, error) {
	t.Helper()
	for _, tool := range ToolSet(p, "acme/widgets") {
		if tool.Name == name {
			return tool.Handler
		}
	}
	t.Fatalf("tool %q not in ToolSet", name)
	return nil
}

func TestToolOrderFavorsCreateTicket(t *testing.T) {
	set := ToolSet(&fakeProvider{}, "acme/widgets")
	if set[0].Name != "create_ticket" {
		t.Errorf("first tool = %q, want create_ticket", set[0].Name)
	}
}

func TestCreateTicket(t *testing.T) {
	f := &fakeProvider{}
	handler := findTool(t, f, "create_ticket")

	out, err := handler(context.Background(), map[string]any{"summary": "Fix login bug"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(out, "Ticket #1 created") {
		t.Errorf("out = %q", out)
	}
	if len(f.created) != 1 || f.created[0].Title != "Fix login bug" {
		t.Errorf("created = %+v", f.created)
	}
}

func TestCreateTicketMissingSummary(t *testing.T) {
	handler := findTool(t, &fakeProvider{}, "create_ticket")
	if _, err := handler(context.Background(), map[string]any{}); err == nil {
		t.Error("handler accepted empty summary")
	}
}

func TestCreateTicketProviderFailureIsText(t *testing.T) {
	handler := findTool(t, &fakeProvider{failState: true}, "create_ticket")

	out, err := handler(context.Background(), map[string]any{"summary": "x"})
	if err != nil {
		t.Fatalf("handler error = %v, want failure encoded as text", err)
	}
	if !strings.Contains(out, "api unavailable") {
		t.Errorf("out = %q", out)
	}
}

func TestGetIssuesEmpty(t *testing.T) {
	handler := findTool(t, &fakeProvider{}, "get_issues")

	out, err := handler(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if out != "No open Issues." {
		t.Errorf("out = %q, want No open Issues.", out)
	}
}

func TestGetIssuesListing(t *testing.T) {
	f := &fakeProvider{issues: []*Issue{
		{Number: 7, State: "open", Title: "Crash on save", Labels: []string{"bug"}},
		{Number: 8, State: "open", Title: "Add dark mode"},
	}}
	handler := findTool(t, f, "get_issues")

	out, _ := handler(context.Background(), map[string]any{})
	if !strings.Contains(out, "#7 [open] Crash on save (bug)") {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(out, "Found 2 issue(s)") {
		t.Errorf("out = %q", out)
	}
}

func TestGetRepoFileTruncates(t *testing.T) {
	f := &fakeProvider{files: map[string]string{
		"main.go": strings.Repeat("x", maxFileChars+100),
	}}
	handler := findTool(t, f, "get_repo_file")

	out, _ := handler(context.Background(), map[string]any{"path": "main.go"})
	if !strings.Contains(out, "truncated") {
		t.Error("oversized file not truncated")
	}
}

func TestSplitRepo(t *testing.T) {
	if _, _, err := splitRepo("nodash"); err == nil {
		t.Error("splitRepo accepted malformed input")
	}
	owner, name, err := splitRepo("acme/widgets")
	if err != nil || owner != "acme" || name != "widgets" {
		t.Errorf("splitRepo = %q, %q, %v", owner, name, err)
	}
}
