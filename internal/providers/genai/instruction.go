package genai

import "strings"

// ComposeStyleInstruction builds the instruction text for a style transform.
// The facial-lock wording keeps the uploaded face intact while the style is
// applied to clothes and background; it is a prompt constraint only, the
// provider is not guaranteed to honor it.
func ComposeStyleInstruction(prompt, refinement string) string {
	facial := strings.TrimSpace(`
CRITICAL: keep the facial features exactly as given in the uploaded photos.
1. Analyze the faces (Man/Woman).
2. Keep the SAME eyes, nose, and mouth shape.
3. Do not change who they are.
4. The faces must be a perfect match to the original people.`)

	fixes := strings.TrimSpace(refinement)
	if fixes == "" {
		fixes = "None"
	}
	style := "STYLE: " + strings.TrimSpace(prompt) + ".\nFIXES: " + fixes + ".\nHigh quality lighting, clear faces, professional look."

	return facial + "\n\n" + style + "\n\nApply style only to clothes and background. KEEP FACES 100% SAME AS ORIGINAL."
}

// ComposeMotionPrompt builds the animation prompt for video generation from
// the user's style text.
func ComposeMotionPrompt(prompt string) string {
	return "Animate realistically. keep the facial features exactly as given in the photos. " +
		strings.TrimSpace(prompt) + ". High resolution, smooth motion."
}
