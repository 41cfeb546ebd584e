package analysis

import (
	"context"
	"testing"
)

type fakeEngine struct {
	name       string
	model      string
	configured bool
	reply      string
	err        error

	calls      int
	lastPrompt string
	lastImage  string
}

func (f *fakeEngine) Name() string     { return f.name }
func (f *fakeEngine) GetModel() string { return f.model }
func (f *fakeEngine) Configured() bool { return f.configured }

func (f *fakeEngine) Complete(ctx context.Context, prompt, image string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastImage = image
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.reply, f.err
}

func TestEngines_GetEngine(t *testing.T) {
	gpt := &fakeEngine{name: "gpt"}
	gem := &fakeEngine{name: "gemini"}
	es := &Engines{OpenAI: gpt, Gemini: gem}

	for _, name := range []string{"gpt", "openai", "GPT", ""} {
		e, err := es.GetEngine(name)
		if err != nil || e != gpt {
			t.Errorf("GetEngine(%q) = %v, %v", name, e, err)
		}
	}
	if e, err := es.GetEngine(" gemini "); err != nil || e != gem {
		t.Errorf("GetEngine(gemini) = %v, %v", e, err)
	}
	if _, err := es.GetEngine("claude"); err == nil {
		t.Error("unknown engine must fail")
	}
	if _, err := (&Engines{OpenAI: gpt}).GetEngine("gemini"); err == nil {
		t.Error("unregistered engine must fail")
	}
	if got := es.Names(); len(got) != 2 || got[0] != "gpt" || got[1] != "gemini" {
		t.Errorf("Names = %v", got)
	}
}

func TestManager(t *testing.T) {
	def := &fakeEngine{name: "gpt"}
	other := &fakeEngine{name: "gemini"}
	m := NewManager(def)

	if m.Get(42) != def {
		t.Fatal("default engine expected")
	}
	m.Set(42, other)
	if m.Get(42) != other || m.Get(7) != def {
		t.Error("per-chat selection leaked or missing")
	}
	m.Reset(42)
	if m.Get(42) != def {
		t.Error("Reset did not restore default")
	}
}
