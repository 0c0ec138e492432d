package genai

import (
	"strings"
	"testing"
)

func TestComposeStyleInstruction(t *testing.T) {
	got := ComposeStyleInstruction("retro bollywood poster", "less grain")

	for _, want := range []string{
		"CRITICAL: keep the facial features exactly as given",
		"STYLE: retro bollywood poster.",
		"FIXES: less grain.",
		"KEEP FACES 100% SAME AS ORIGINAL",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("instruction missing %q:\n%s", want, got)
		}
	}
}

func TestComposeStyleInstructionEmptyRefinement(t *testing.T) {
	got := ComposeStyleInstruction("watercolor", "  ")
	if !strings.Contains(got, "FIXES: None.") {
		t.Fatalf("blank refinement should collapse to None:\n%s", got)
	}
}

func TestComposeMotionPrompt(t *testing.T) {
	got := ComposeMotionPrompt("  gentle smile  ")
	if !strings.Contains(got, "Animate realistically") {
		t.Fatalf("motion prompt missing preamble: %s", got)
	}
	if !strings.Contains(got, "gentle smile.") {
		t.Fatalf("motion prompt should embed the trimmed style text: %s", got)
	}
	if !strings.Contains(got, "smooth motion") {
		t.Fatalf("motion prompt missing quality suffix: %s", got)
	}
}
