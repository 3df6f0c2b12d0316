package tools

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func stubTool(name string, required ...string) *Tool {
	return &Tool{
		Name:        name,
		Description: "stub " + name,
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   required,
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return name + " ok", nil
		},
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubTool("create_ticket")); err != nil {
		t.Fatalf("first Register() error: %v", err)
	}

	err := r.Register(stubTool("create_ticket"))
	var dup *ErrDuplicateTool
	if !errors.As(err, &dup) {
		t.Fatalf("second Register() error = %v, want ErrDuplicateTool", err)
	}
	if dup.ToolName != "create_ticket" {
		t.Errorf("ToolName = %q", dup.ToolName)
	}
}

func TestExecuteUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Execute(context.Background(), "nope", nil)
	var unknown *ErrUnknownTool
	if !errors.As(err, &unknown) {
		t.Fatalf("Execute() error = %v, want ErrUnknownTool", err)
	}
}

func TestExecuteHandlerErrorBecomesText(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Tool{
		Name:       "flaky",
		Parameters: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "", fmt.Errorf("upstream timeout")
		},
	})

	out, err := r.Execute(context.Background(), "flaky", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v, want handler failure converted to text", err)
	}
	if !strings.Contains(out, "upstream timeout") {
		t.Errorf("result %q does not mention handler error", out)
	}
}

func TestExecuteNilArgs(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Tool{
		Name:       "echo_count",
		Parameters: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			if args == nil {
				return "", fmt.Errorf("args was nil")
			}
			return "ok", nil
		},
	})

	out, err := r.Execute(context.Background(), "echo_count", nil)
	if err != nil || out != "ok" {
		t.Errorf("Execute() = %q, %v; handlers must receive a non-nil map", out, err)
	}
}

func TestSchemaForSubsetAndOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(stubTool("a"), stubTool("b"), stubTool("c"))

	schema := r.SchemaFor([]string{"c", "a"})
	if len(schema) != 2 {
		t.Fatalf("got %d declarations, want 2", len(schema))
	}

	// Registration order wins regardless of request order.
	first := schema[0]["function"].(map[string]any)["name"]
	second := schema[1]["function"].(map[string]any)["name"]
	if first != "a" || second != "c" {
		t.Errorf("schema order = %v, %v; want a, c", first, second)
	}
}

func TestSchemaForIdempotent(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(stubTool("a", "x"), stubTool("b"))

	s1 := r.SchemaFor([]string{"a", "b"})
	s2 := r.SchemaFor([]string{"a", "b"})
	if !reflect.DeepEqual(s1, s2) {
		t.Error("SchemaFor() not idempotent for identical input")
	}
}

func TestSchemaForSkipsUnknown(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(stubTool("a"))

	schema := r.SchemaFor([]string{"a", "ghost"})
	if len(schema) != 1 {
		t.Errorf("got %d declarations, want unknown names skipped", len(schema))
	}
}

func TestRequiredParams(t *testing.T) {
	tool := stubTool("t", "summary", "body")
	if got := tool.RequiredParams(); !reflect.DeepEqual(got, []string{"summary", "body"}) {
		t.Errorf("RequiredParams() = %v", got)
	}

	// Schemas decoded from JSON carry []any.
	tool.Parameters["required"] = []any{"one", "two"}
	if got := tool.RequiredParams(); !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Errorf("RequiredParams() from []any = %v", got)
	}
}

func TestNamesIsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(stubTool("z"), stubTool("a"), stubTool("m"))

	if got := r.Names(); !reflect.DeepEqual(got, []string{"z", "a", "m"}) {
		t.Errorf("Names() = %v, want registration order", got)
	}
}
