package openrouter

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/tidwall/gjson"
)

// ListModels returns the models served by the gateway. Names and pricing
// are OpenRouter extensions read from the raw listing.
func (c *Client) ListModels(ctx context.Context) ([]model.LLMModel, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	client := openaigo.NewClient(
		option.WithBaseURL(c.baseURL+"/"),
		option.WithAPIKey(c.apiKey),
		option.WithHTTPClient(c.httpClient),
		option.WithHeader("HTTP-Referer", c.siteURL),
		option.WithHeader("X-Title", c.appTitle),
		option.WithMaxRetries(1),
	)

	page, err := client.Models.List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list upstream models")
	}

	models := make([]model.LLMModel, 0, len(page.Data))
	for _, m := range page.Data {
		raw := gjson.Parse(m.RawJSON())
		name := raw.Get("name").String()
		if name == "" {
			name = m.ID
		}

		models = append(models, model.LLMModel{
			ID:          m.ID,
			Name:        name,
			Description: firstLine(raw.Get("description").String()),
			Free:        isFree(m.ID, raw),
		})
	}
	return models, nil
}

func isFree(id string, raw gjson.Result) bool {
	if strings.HasSuffix(id, ":free") {
		return true
	}
	prompt := raw.Get("pricing.prompt")
	completion := raw.Get("pricing.completion")
	return prompt.Exists() && completion.Exists() && prompt.Float() == 0 && completion.Float() == 0
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
