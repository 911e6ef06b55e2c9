package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/service/openrouter"
	"github.com/urfave/cli/v3"
)

// LLM holds configuration for the chat completion gateway and its model
// catalog
type LLM struct {
	apiKey     string
	baseURL    string
	siteURL    string
	modelsFile string
	allModels  bool
}

func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "openrouter-api-key",
			Usage:       "OpenRouter API key. Chat is disabled without it",
			Category:    "LLM",
			Destination: &x.apiKey,
			Sources:     cli.EnvVars("AGENTDESK_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"),
		},
		&cli.StringFlag{
			Name:        "openrouter-base-url",
			Usage:       "OpenRouter API base URL",
			Category:    "LLM",
			Value:       openrouter.DefaultBaseURL,
			Destination: &x.baseURL,
			Sources:     cli.EnvVars("AGENTDESK_OPENROUTER_BASE_URL"),
		},
		&cli.StringFlag{
			Name:        "site-url",
			Usage:       "Site URL sent to OpenRouter as HTTP-Referer",
			Category:    "LLM",
			Value:       openrouter.DefaultSiteURL,
			Destination: &x.siteURL,
			Sources:     cli.EnvVars("AGENTDESK_SITE_URL", "SITE_URL"),
		},
		&cli.StringFlag{
			Name:        "llm-models",
			Usage:       "TOML file listing the selectable models ([[model]] tables with id, name, description, free)",
			Category:    "LLM",
			Destination: &x.modelsFile,
			Sources:     cli.EnvVars("AGENTDESK_LLM_MODELS"),
		},
		&cli.BoolFlag{
			Name:        "llm-models-all",
			Usage:       "Offer every model listed by OpenRouter instead of the configured catalog",
			Category:    "LLM",
			Destination: &x.allModels,
			Sources:     cli.EnvVars("AGENTDESK_LLM_MODELS_ALL"),
		},
	}
}

func (x LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("api-key.len", len(x.apiKey)),
		slog.String("base-url", x.baseURL),
		slog.String("site-url", x.siteURL),
		slog.String("models-file", x.modelsFile),
		slog.Bool("models-all", x.allModels),
	)
}

// Configure creates the OpenRouter client. Returns nil if no API key is set
// (the chat relay then answers "not configured").
func (x *LLM) Configure() *openrouter.Client {
	if x.apiKey == "" {
		return nil
	}

	return openrouter.New(x.apiKey,
		openrouter.WithBaseURL(x.baseURL),
		openrouter.WithSiteURL(x.siteURL),
	)
}

// AllModels reports whether catalog refreshes adopt every upstream model
func (x *LLM) AllModels() bool {
	return x.allModels
}

type modelCatalog struct {
	Models []model.LLMModel `toml:"model"`
}

// Catalog returns the models from the configured TOML file, or the default
// catalog when no file is set
func (x *LLM) Catalog() ([]model.LLMModel, error) {
	if x.modelsFile == "" {
		return model.DefaultLLMModels(), nil
	}
	return LoadModelCatalog(x.modelsFile)
}

// LoadModelCatalog reads and validates a model catalog file
func LoadModelCatalog(path string) ([]model.LLMModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read model catalog", goerr.V(ConfigPathKey, path))
	}

	var catalog modelCatalog
	if err := toml.Unmarshal(raw, &catalog); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse model catalog",
			goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if len(catalog.Models) == 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "model catalog is empty", goerr.V(ConfigPathKey, path))
	}

	seen := make(map[string]struct{}, len(catalog.Models))
	for i, m := range catalog.Models {
		if m.ID == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "model id is required",
				goerr.V(ConfigPathKey, path), goerr.V(ModelIndexKey, i))
		}
		if m.Name == "" {
			return nil, goerr.Wrap(ErrMissingName, "model name is required",
				goerr.V(ConfigPathKey, path), goerr.V(ModelIDKey, m.ID))
		}
		if _, ok := seen[m.ID]; ok {
			return nil, goerr.Wrap(ErrDuplicateModelID, "model id appears twice",
				goerr.V(ConfigPathKey, path), goerr.V(ModelIDKey, m.ID))
		}
		seen[m.ID] = struct{}{}
	}

	return catalog.Models, nil
}
