package openai

import (
	"errors"
	"testing"

	"github.com/alphatic/alphatic/internal/core"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "gpt-4o")
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Fatalf("err = %v, want ErrConfigMissing", err)
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != defaultModel {
		t.Errorf("model = %q, want %q", p.model, defaultModel)
	}
	if p.Name() != "openai" {
		t.Errorf("name = %q, want openai", p.Name())
	}
}
