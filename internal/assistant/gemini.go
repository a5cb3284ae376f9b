package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

const decisionToolName = "process_user_request"

// GeminiEngine produces decisions through Gemini function calling.
// The tool config forces a function call on every turn, so a response
// without one is a contract violation, not a retryable condition.
type GeminiEngine struct {
	cli     *genai.Client
	model   string
	company string
}

func NewGeminiEngine(ctx context.Context, apiKey, model, company string) (*GeminiEngine, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("assistant: gemini api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.0-flash"
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: init gemini client: %w", err)
	}
	return &GeminiEngine{cli: cli, model: model, company: company}, nil
}

func decisionTool() *genai.Tool {
	modificationSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":      {Type: genai.TypeString},
			"text":      {Type: genai.TypeString},
			"image_url": {Type: genai.TypeString},
			"color":     {Type: genai.TypeString},
		},
		Required: []string{"name"},
	}
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        decisionToolName,
			Description: "Processes a user's design request by deciding on a specific action. This is the only tool you can use.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"action": {
						Type:        genai.TypeString,
						Description: "One of: MODIFY, GENERATE, RESET, CONVERSE, FETCH_MLS_DATA.",
					},
					"template_uid": {
						Type:        genai.TypeString,
						Description: "Required for MODIFY and FETCH_MLS_DATA: the uid of the template to use.",
					},
					"mls_listing_id": {
						Type:        genai.TypeString,
						Description: "Required for FETCH_MLS_DATA: the numeric MLS id from the user.",
					},
					"modifications": {
						Type:        genai.TypeArray,
						Description: "Layer modifications to apply for MODIFY.",
						Items:       modificationSchema,
					},
					"response_text": {
						Type:        genai.TypeString,
						Description: "The friendly, user-facing reply for this turn.",
					},
				},
				Required: []string{"action", "response_text"},
			},
		}},
	}
}

// Decide sends the full grounding context and returns the single
// structured decision. No retries and no streaming: a malformed or
// missing tool call surfaces as ErrNoDecision.
func (e *GeminiEngine) Decide(ctx context.Context, g Grounding) (*Decision, error) {
	system := buildGroundingPrompt(e.company, g)

	contents := make([]*genai.Content, 0, len(g.History)+3)
	contents = append(contents,
		&genai.Content{Role: "user", Parts: []*genai.Part{{Text: system}}},
		&genai.Content{Role: "model", Parts: []*genai.Part{{Text: promptAck}}},
	)
	for _, msg := range g.History {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: msg.Content}}})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: g.UserText}}})

	resp, err := e.cli.Models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		Tools: []*genai.Tool{decisionTool()},
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAny,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: gemini call: %w", err)
	}

	call := firstFunctionCall(resp)
	if call == nil || call.Name != decisionToolName {
		return nil, ErrNoDecision
	}
	decision, err := decisionFromArgs(call.Args)
	if err != nil {
		return nil, err
	}
	return decision, nil
}

func firstFunctionCall(resp *genai.GenerateContentResponse) *genai.FunctionCall {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.FunctionCall != nil {
				return part.FunctionCall
			}
		}
	}
	return nil
}

func decisionFromArgs(args map[string]any) (*Decision, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDecision, err)
	}
	var d Decision
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDecision, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDecision, err)
	}
	return &d, nil
}
