package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/toxichat/toxichat/engine/llm"
	"github.com/toxichat/toxichat/pkg/logger"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 30 * time.Second
	listPageSize   = 100
)

// Client talks to the generativelanguage REST API. It deliberately does not
// retry: failure classification, caching and endpoint fallback live in the
// orchestration layer, and a hidden transport retry would fight the pacer.
type Client struct {
	rest *resty.Client
}

// Config for the REST client. APIKey is required.
type Config struct {
	APIKey string
	// BaseURL overrides the production API host, used by tests.
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a Gemini REST client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", cfg.APIKey)
	return &Client{rest: rest}, nil
}

// Generate implements llm.Backend against the :generateContent endpoint.
// Non-2xx responses become errors carrying the status code and response body
// so the orchestration layer can classify them by text.
func (c *Client) Generate(ctx context.Context, endpoint string, turns []llm.Turn, opts llm.GenerateOptions) (*llm.Response, error) {
	req := buildRequest(turns, opts)
	var out generateContentResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/" + endpoint + ":generateContent")
	if err != nil {
		return nil, fmt.Errorf("gemini: calling %s: %w", endpoint, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("gemini: %s returned HTTP %d: %s", endpoint, resp.StatusCode(), resp.String())
	}
	if len(out.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: %s returned no candidates", endpoint)
	}
	return decodeResponse(out), nil
}

// ListModels pages through the models collection and returns every model the
// API advertises. Callers filter for text-generation capability themselves.
func (c *Client) ListModels(ctx context.Context) ([]llm.Endpoint, error) {
	log := logger.FromContext(ctx)
	var endpoints []llm.Endpoint
	pageToken := ""
	for {
		var out listModelsResponse
		resp, err := c.rest.R().
			SetContext(ctx).
			SetQueryParam("pageSize", fmt.Sprintf("%d", listPageSize)).
			SetQueryParam("pageToken", pageToken).
			SetResult(&out).
			Get("/models")
		if err != nil {
			return nil, fmt.Errorf("gemini: listing models: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("gemini: list models returned HTTP %d: %s", resp.StatusCode(), resp.String())
		}
		for _, m := range out.Models {
			if !supportsGenerateContent(m.SupportedGenerationMethods) {
				continue
			}
			endpoints = append(endpoints, llm.Endpoint{Name: m.Name, DisplayName: shortName(m.Name)})
		}
		if out.NextPageToken == "" {
			break
		}
		pageToken = out.NextPageToken
	}
	log.Debug("model discovery complete", "count", len(endpoints))
	return endpoints, nil
}

// shortName derives the short identifier from the full resource name, e.g.
// "models/gemini-2.5-pro" becomes "gemini-2.5-pro". The API's displayName
// field is a marketing label ("Gemini 2.5 Pro") that substring matching in
// the selector cannot use.
func shortName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func supportsGenerateContent(methods []string) bool {
	// An absent list is treated as capable; some API versions omit it.
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}

func buildRequest(turns []llm.Turn, opts llm.GenerateOptions) generateContentRequest {
	req := generateContentRequest{
		Contents:         make([]content, 0, len(turns)),
		GenerationConfig: &generationConfig{Temperature: opts.Temperature},
	}
	if opts.SystemPrompt != "" {
		req.SystemInstruction = &content{Parts: []partWire{{Text: opts.SystemPrompt}}}
	}
	for _, turn := range turns {
		req.Contents = append(req.Contents, content{
			Role:  wireRole(turn.Role),
			Parts: encodeParts(turn.Parts),
		})
	}
	if len(opts.Tools) > 0 {
		decls := make([]functionDeclaration, 0, len(opts.Tools))
		for _, tool := range opts.Tools {
			decls = append(decls, functionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": tool.Parameters,
					"required":   tool.Required,
				},
			})
		}
		req.Tools = []toolsWire{{FunctionDeclarations: decls}}
	}
	return req
}

// wireRole maps conversation roles onto the REST API's vocabulary. Tool
// results travel under the "user" role; the API has no separate tool role.
func wireRole(role llm.Role) string {
	switch role {
	case llm.RoleModel:
		return "model"
	default:
		return "user"
	}
}

func encodeParts(parts []llm.Part) []partWire {
	out := make([]partWire, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.FunctionCall != nil:
			out = append(out, partWire{FunctionCall: &functionCallWire{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			}})
		case p.FunctionResponse != nil:
			out = append(out, partWire{FunctionResponse: &functionResponseWire{
				Name:     p.FunctionResponse.Name,
				Response: p.FunctionResponse.Response,
			}})
		default:
			out = append(out, partWire{Text: p.Text})
		}
	}
	return out
}

// decodeResponse flattens the parts of every candidate, in order. The API is
// asked for a single candidate but is not contractually bound to one.
func decodeResponse(out generateContentResponse) *llm.Response {
	resp := &llm.Response{}
	for _, candidate := range out.Candidates {
		for _, p := range candidate.Content.Parts {
			switch {
			case p.FunctionCall != nil:
				resp.Parts = append(resp.Parts, llm.Part{FunctionCall: &llm.FunctionCall{
					Name: p.FunctionCall.Name,
					Args: p.FunctionCall.Args,
				}})
			case p.Text != "":
				resp.Parts = append(resp.Parts, llm.Part{Text: p.Text})
			}
		}
	}
	return resp
}
