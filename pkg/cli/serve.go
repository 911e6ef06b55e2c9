package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/cli/config"
	httpctrl "github.com/secmon-lab/agentdesk/pkg/controller/http"
	"github.com/secmon-lab/agentdesk/pkg/controller/rpc"
	"github.com/secmon-lab/agentdesk/pkg/service/worker"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var baseURL string
	var allowedOrigins []string
	var refreshInterval time.Duration
	var repoCfg config.Repository
	var authCfg config.Auth
	var llmCfg config.LLM
	var geminiCfg config.Gemini
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("AGENTDESK_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL for the application (e.g., https://your-domain.com)",
			Sources:     cli.EnvVars("AGENTDESK_BASE_URL"),
			Destination: &baseURL,
		},
		&cli.StringSliceFlag{
			Name:        "allowed-origin",
			Usage:       "Origin allowed by CORS (repeatable)",
			Value:       httpctrl.DefaultAllowedOrigins,
			Sources:     cli.EnvVars("AGENTDESK_ALLOWED_ORIGINS"),
			Destination: &allowedOrigins,
		},
		&cli.DurationFlag{
			Name:        "model-refresh-interval",
			Usage:       "Interval of model catalog refreshes from OpenRouter",
			Category:    "LLM",
			Value:       time.Hour,
			Sources:     cli.EnvVars("AGENTDESK_MODEL_REFRESH_INTERVAL"),
			Destination: &refreshInterval,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Serve configuration",
				"addr", addr,
				"repository", repoCfg,
				"auth", authCfg,
				"llm", llmCfg,
				"gemini", geminiCfg,
				"sentry", sentryCfg,
			)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			authUC, err := authCfg.Configure(ctx, repo, baseURL)
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			if authCfg.IsNoAuthMode() {
				logger.Warn("Running in no-auth mode (development only)")
			}

			catalog, err := llmCfg.Catalog()
			if err != nil {
				return goerr.Wrap(err, "failed to load model catalog")
			}

			ucOpts := []usecase.Option{
				usecase.WithAuth(authUC),
				usecase.WithModelCatalog(catalog),
				usecase.WithAllModels(llmCfg.AllModels()),
			}

			// Options take interfaces: only pass the client when it exists.
			gateway := llmCfg.Configure()
			if gateway != nil {
				ucOpts = append(ucOpts,
					usecase.WithChatCompleter(gateway),
					usecase.WithModelLister(gateway),
				)
			} else {
				logger.Warn("OpenRouter API key not configured, chat is disabled")
			}

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini")
			}
			if llmClient != nil {
				ucOpts = append(ucOpts, usecase.WithLLMClient(llmClient))
			} else {
				logger.Info("Gemini not configured, meeting summaries are disabled")
			}

			uc := usecase.New(repo, ucOpts...)

			httpHandler := httpctrl.New(rpc.New(uc),
				httpctrl.WithAuth(authUC),
				httpctrl.WithChat(uc.Chat),
				httpctrl.WithAllowedOrigins(allowedOrigins),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var modelWorker *worker.ModelRefreshWorker
			if gateway != nil {
				modelWorker = worker.NewModelRefreshWorker(uc.Model, refreshInterval)
				modelWorker.Start(ctx)
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server", goerr.V("addr", addr))
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				logger.Info("Shutting down HTTP server")

				if modelWorker != nil {
					modelWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			})

			return eg.Wait()
		},
	}
}
