// Package llm talks to the external scoring models. Every backend speaks
// the same request/response contract and is validated the same way.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
	"github.com/agri-platform/subsidy-matcher/internal/matching"
)

var (
	ErrTransport         = errors.New("ai transport failure")
	ErrBadStatus         = errors.New("ai backend returned non-success status")
	ErrMalformedResponse = errors.New("ai response malformed")
)

// Backend scores candidate subsidies for a profile.
type Backend interface {
	Name() string
	Model() string
	Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error)
}

type Candidate struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Category    string              `json:"category"`
	Amount      float64             `json:"amount"`
	Eligibility catalog.Eligibility `json:"eligibility"`
	Eligible    bool                `json:"eligible"`
	RuleScore   float64             `json:"ruleScore"`
}

type ScoreRequest struct {
	Profile    matching.FarmerProfile `json:"profile"`
	Candidates []Candidate            `json:"candidateSubsidies"`
	Language   string                 `json:"language"`
}

func (r ScoreRequest) ids() map[string]bool {
	ids := make(map[string]bool, len(r.Candidates))
	for _, c := range r.Candidates {
		ids[c.ID] = false
	}
	return ids
}

type SubsidyScore struct {
	ID      string   `json:"id"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

type ScoreResponse struct {
	PerSubsidy []SubsidyScore `json:"perSubsidy"`
	ModelUsed  string         `json:"modelUsed,omitempty"`
}

// ByID indexes the scores by subsidy id.
func (r *ScoreResponse) ByID() map[string]SubsidyScore {
	out := make(map[string]SubsidyScore, len(r.PerSubsidy))
	for _, s := range r.PerSubsidy {
		out[s.ID] = s
	}
	return out
}

const responseSchema = `{
  "type": "object",
  "required": ["perSubsidy"],
  "properties": {
    "perSubsidy": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "score"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "score": {"type": "number", "minimum": 0, "maximum": 100},
          "reasons": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "modelUsed": {"type": "string"}
  }
}`

var responseSchemaLoader = gojsonschema.NewStringLoader(responseSchema)

// ParseResponse validates raw model output against the response schema and
// checks that it scores every candidate of req exactly once.
func ParseResponse(raw []byte, req ScoreRequest) (*ScoreResponse, error) {
	raw = stripFences(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	result, err := gojsonschema.Validate(responseSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(msgs, "; "))
	}

	var resp ScoreResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	seen := req.ids()
	for _, s := range resp.PerSubsidy {
		done, known := seen[s.ID]
		switch {
		case !known:
			return nil, fmt.Errorf("%w: unknown subsidy id %q", ErrMalformedResponse, s.ID)
		case done:
			return nil, fmt.Errorf("%w: duplicate subsidy id %q", ErrMalformedResponse, s.ID)
		}
		seen[s.ID] = true
	}
	for id, done := range seen {
		if !done {
			return nil, fmt.Errorf("%w: missing score for %q", ErrMalformedResponse, id)
		}
	}

	return &resp, nil
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if !bytes.HasPrefix(raw, []byte("```")) {
		return raw
	}
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[i+1:]
	} else {
		raw = raw[3:]
	}
	raw = bytes.TrimSuffix(bytes.TrimSpace(raw), []byte("```"))
	return bytes.TrimSpace(raw)
}
