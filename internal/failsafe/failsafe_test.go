package failsafe

import (
	"reflect"
	"testing"
)

func testLayer() *Layer {
	return New([]ToolSpec{
		{Name: "create_ticket", Params: []string{"summary"}},
		{Name: "web_search", Params: []string{"query"}},
		{Name: "get_issues"},
	})
}

func TestFingerprintMatch(t *testing.T) {
	l := testLayer()

	act := l.Resolve(`I'll file that for you: create_ticket("Fix login bug")`)
	if act.Kind != ExecuteTool || act.Tool != "create_ticket" {
		t.Fatalf("got %+v, want create_ticket execution", act)
	}
	if got := act.Args["summary"]; got != "Fix login bug" {
		t.Errorf("summary = %v", got)
	}
}

func TestSingleQuotedArguments(t *testing.T) {
	l := testLayer()

	act := l.Resolve(`web_search('golang slog tutorial')`)
	if act.Kind != ExecuteTool || act.Args["query"] != "golang slog tutorial" {
		t.Errorf("got %+v", act)
	}
}

func TestNoArgTool(t *testing.T) {
	l := testLayer()

	act := l.Resolve(`get_issues()`)
	if act.Kind != ExecuteTool || act.Tool != "get_issues" {
		t.Fatalf("got %+v", act)
	}
	if len(act.Args) != 0 {
		t.Errorf("args = %v, want empty", act.Args)
	}
}

func TestPriorityFirstRegisteredWins(t *testing.T) {
	l := testLayer()

	// Both fingerprints present; only create_ticket (registered first)
	// may fire.
	act := l.Resolve(`web_search("x") and also create_ticket("y")`)
	if act.Tool != "create_ticket" {
		t.Errorf("fired %q, want create_ticket (first registered)", act.Tool)
	}
}

func TestExtractionFailureReturnsOriginalText(t *testing.T) {
	l := testLayer()
	in := `create_ticket(no quotes here)`

	act := l.Resolve(in)
	if act.Kind != ReturnText {
		t.Fatalf("got %+v, want verbatim text on failed extraction", act)
	}
	if act.Text != in {
		t.Errorf("Text = %q, want unmodified input", act.Text)
	}
}

func TestExtractionFailureDoesNotTryOtherTools(t *testing.T) {
	l := testLayer()

	// create_ticket matches first but extraction fails; web_search has
	// a valid fingerprint later in the text but must not be attempted.
	act := l.Resolve(`create_ticket(oops) then web_search("q")`)
	if act.Kind != ReturnText {
		t.Errorf("got %+v, want no execution after first-match extraction failure", act)
	}
}

func TestJSONPathPrecedence(t *testing.T) {
	l := testLayer()

	act := l.Resolve(`{"name":"create_ticket","parameters":{"summary":"Fix bug"}}`)
	if act.Kind != ExecuteTool || act.Tool != "create_ticket" {
		t.Fatalf("got %+v", act)
	}
	if act.Args["summary"] != "Fix bug" {
		t.Errorf("Args = %v", act.Args)
	}
}

func TestJSONArgumentsKey(t *testing.T) {
	l := testLayer()

	act := l.Resolve(`{"name":"web_search","arguments":{"query":"weather"}}`)
	if act.Kind != ExecuteTool || act.Args["query"] != "weather" {
		t.Errorf("got %+v", act)
	}
}

func TestJSONWholeObjectBag(t *testing.T) {
	l := testLayer()

	act := l.Resolve(`{"name":"create_ticket","summary":"Inline style"}`)
	if act.Kind != ExecuteTool {
		t.Fatalf("got %+v", act)
	}
	if !reflect.DeepEqual(act.Args, map[string]any{"summary": "Inline style"}) {
		t.Errorf("Args = %v, want name stripped from bag", act.Args)
	}
}

func TestJSONUnknownToolFallsThrough(t *testing.T) {
	l := testLayer()

	// Unknown name in JSON; the text also contains a valid fingerprint,
	// which the pattern path should still find.
	act := l.Resolve(`{"name":"rm_rf"} create_ticket("real")`)
	if act.Kind != ExecuteTool || act.Tool != "create_ticket" {
		t.Errorf("got %+v, want fingerprint fallback", act)
	}
}

func TestMalformedJSONFallsThrough(t *testing.T) {
	l := testLayer()

	act := l.Resolve(`{not json at all`)
	if act.Kind != ReturnText {
		t.Errorf("got %+v, want verbatim", act)
	}
}

func TestPlainTextNoMatch(t *testing.T) {
	l := testLayer()
	in := "The weather looks fine today."

	act := l.Resolve(in)
	if act.Kind != ReturnText || act.Text != in {
		t.Errorf("got %+v", act)
	}
}

func TestEmptyLayerNeverMatches(t *testing.T) {
	l := New(nil)
	act := l.Resolve(`create_ticket("x")`)
	if act.Kind != ReturnText {
		t.Errorf("got %+v, want no match with no registered tools", act)
	}
}
