package answer

import "strings"

// systemPrompt pins tone, length and the uncertainty fallback. Kept as one
// sentence block so the provider cannot be steered into long explanations.
const systemPrompt = "You are helping a child during a class. " +
	"Answer in one short sentence using simple words. " +
	"If the question is unclear or unsafe, say 'I'm not sure.' " +
	"Do not include extra explanations."

func buildUserPrompt(req Request) string {
	var parts []string
	if len(req.Context) > 0 {
		parts = append(parts, "Context: "+strings.Join(req.Context, " | "))
	}
	parts = append(parts, "Question: "+req.Question)
	return strings.Join(parts, "\n")
}
