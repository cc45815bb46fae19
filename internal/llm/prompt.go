package llm

import (
	"encoding/json"
	"fmt"
)

const systemPrompt = `You are an agricultural subsidy advisor for Tamil Nadu, India.
You receive a farmer profile and a list of candidate government subsidy programs.
Each candidate carries its eligibility rules, a rule-based eligibility verdict and a rule-based score.

For every candidate return a fit score between 0 and 100 and up to three short reasons
explaining why the program suits the farmer. Write the reasons in the requested language
("en" for English, "ta" for Tamil). Never invent programs and never skip a candidate.

Return JSON only, in this exact shape:
{"perSubsidy": [{"id": "candidate id", "score": 87.5, "reasons": ["reason"]}], "modelUsed": "model name"}`

// userPrompt embeds the request contract as JSON.
func userPrompt(req ScoreRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode score request: %w", err)
	}
	return fmt.Sprintf("Score these candidates for the farmer:\n\n%s", payload), nil
}
