package chat

import (
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestBuildSystemPromptNilContext(t *testing.T) {
	assembler := NewAssembler(NewStore())

	got := assembler.BuildSystemPrompt(nil)
	if got != basePrompt {
		t.Fatalf("expected only the fixed instructions for a nil context")
	}
	if strings.Contains(got, "User context:") {
		t.Errorf("nil context must not produce a context block")
	}
}

func TestBuildSystemPromptFullContext(t *testing.T) {
	assembler := NewAssembler(NewStore())

	got := assembler.BuildSystemPrompt(&RequestContext{
		MeasurementSystem: MeasurementMetric,
		Latitude:          48.8566,
		Longitude:         2.3522,
		Activities:        []string{"hiking", "street food"},
	})

	if !strings.HasPrefix(got, basePrompt) {
		t.Fatalf("context block must follow the fixed instructions")
	}
	for _, want := range []string{
		"User context:",
		"metric units",
		"hiking, street food",
		"latitude 48.86, longitude 2.35",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected prompt to contain %q\nprompt: %s", want, got)
		}
	}
}

func TestBuildSystemPromptImperialDefault(t *testing.T) {
	assembler := NewAssembler(NewStore())

	got := assembler.BuildSystemPrompt(&RequestContext{
		Activities: []string{"museums"},
	})

	if !strings.Contains(got, "imperial units") {
		t.Errorf("unspecified measurement system should read as imperial")
	}
	if strings.Contains(got, "metric units") {
		t.Errorf("unexpected metric line: %s", got)
	}
}

func TestBuildSystemPromptOmitsAbsentBlocks(t *testing.T) {
	assembler := NewAssembler(NewStore())

	got := assembler.BuildSystemPrompt(&RequestContext{
		MeasurementSystem: MeasurementMetric,
	})

	if strings.Contains(got, "activities") {
		t.Errorf("empty activities must not produce an activities line")
	}
	if strings.Contains(got, "latitude") {
		t.Errorf("zero coordinates must not produce a location line")
	}
}

func TestBuildHistoryOrdering(t *testing.T) {
	store := NewStore()
	assembler := NewAssembler(store)

	store.Append("user-1", RoleUser, "where should I go in May?")
	store.Append("user-1", RoleAssistant, "Portugal is lovely in May.")

	history := assembler.BuildHistory("user-1", nil)
	if len(history) != 3 {
		t.Fatalf("expected system prompt plus 2 turns, got %d messages", len(history))
	}
	if history[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("first message must be the system prompt, got role %q", history[0].Role)
	}
	if history[1].Role != openai.ChatMessageRoleUser || history[1].Content != "where should I go in May?" {
		t.Errorf("unexpected second message: %+v", history[1])
	}
	if history[2].Role != openai.ChatMessageRoleAssistant || history[2].Content != "Portugal is lovely in May." {
		t.Errorf("unexpected third message: %+v", history[2])
	}
}

func TestBuildHistoryEmptyConversation(t *testing.T) {
	assembler := NewAssembler(NewStore())

	history := assembler.BuildHistory("fresh", nil)
	if len(history) != 1 {
		t.Fatalf("expected only the system prompt, got %d messages", len(history))
	}
}
