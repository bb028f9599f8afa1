// Command agentpilot runs the orchestration engine, either as an HTTP server
// or for one-off invocations from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentpilot/agent"
	"github.com/hupe1980/agentpilot/config"
	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/engine"
	"github.com/hupe1980/agentpilot/logging"
	"github.com/hupe1980/agentpilot/model"
	"github.com/hupe1980/agentpilot/model/anthropic"
	"github.com/hupe1980/agentpilot/model/openai"
	"github.com/hupe1980/agentpilot/prompt"
	"github.com/hupe1980/agentpilot/registry"
	"github.com/hupe1980/agentpilot/server"
	"github.com/hupe1980/agentpilot/session"
	"github.com/hupe1980/agentpilot/tool"
	"github.com/hupe1980/agentpilot/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "agentpilot",
		Short:         "LLM agent orchestration engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")

	cmd.AddCommand(newServeCmd(&cfgPath))
	cmd.AddCommand(newInvokeCmd(&cfgPath))
	cmd.AddCommand(newSessionsCmd(&cfgPath))
	return cmd
}

func newSessionsCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect persisted sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show [session-id]",
		Short: "Print a session record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			store, err := buildStore(cfg)
			if err != nil {
				return err
			}
			sess, err := store.Get(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(sess, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	})
	return cmd
}

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger := buildLogger(cfg)

			eng, err := buildEngine(cfg, logger)
			if err != nil {
				return err
			}

			srv := server.New(eng, func(o *server.Options) {
				o.Addr = cfg.Server.Addr
				o.ReadTimeout = cfg.Server.ReadTimeout.Std()
				o.WriteTimeout = cfg.Server.WriteTimeout.Std()
				o.Logger = logger.WithComponent("server")
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				return srv.Shutdown(context.Background())
			}
		},
	}
}

func newInvokeCmd(cfgPath *string) *cobra.Command {
	var req engine.Request
	var stream bool

	cmd := &cobra.Command{
		Use:   "invoke [prompt]",
		Short: "Run a single request and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger := buildLogger(cfg)

			eng, err := buildEngine(cfg, logger)
			if err != nil {
				return err
			}

			req.Prompt = args[0]

			if stream {
				events, err := eng.Stream(cmd.Context(), req)
				if err != nil {
					return err
				}
				for ev := range events {
					printEvent(cmd, ev)
				}
				return nil
			}

			resp, err := eng.Invoke(cmd.Context(), req)
			if err != nil {
				return err
			}
			cmd.Println(resp.Response)
			cmd.Printf("\n[session %s | agent %s | mode %s]\n", resp.SessionID, resp.SelectedAgent, resp.ExecutionMode)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.SessionID, "session", "s", "", "session id to continue")
	cmd.Flags().StringVarP(&req.AgentID, "agent", "a", "", "route explicitly to this agent")
	cmd.Flags().IntVarP(&req.PlanStepBudget, "budget", "b", 0, "max plan steps to execute this invocation (0 = all)")
	cmd.Flags().BoolVar(&req.TraceTools, "trace", false, "include status events in streamed output")
	cmd.Flags().BoolVar(&req.GenerateUI, "ui", false, "generate a structured UI spec")
	cmd.Flags().StringVar(&req.PromptVersion, "prompt-version", "", "prompt pack version override")
	cmd.Flags().BoolVar(&stream, "stream", false, "print events as they arrive")
	return cmd
}

func printEvent(cmd *cobra.Command, ev core.Event) {
	switch ev.Type {
	case core.EventToken:
		cmd.Print(ev.Text)
	case core.EventDone:
		cmd.Println()
	default:
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		cmd.Printf("\n[%s] %s\n", ev.Type, data)
	}
}

func buildLogger(cfg *config.Config) *logging.PilotLogger {
	var level slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return logging.New(&logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Model.Provider {
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxTokens = cfg.Model.MaxTokens
			o.APIKey = cfg.Model.APIKey
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model.Name != "" {
				o.Model = openaisdk.ChatModel(cfg.Model.Name)
			}
			o.Temperature = cfg.Model.Temperature
			o.MaxTokens = cfg.Model.MaxTokens
			o.APIKey = cfg.Model.APIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

func buildStore(cfg *config.Config) (session.Store, error) {
	limit := session.WithHistoryLimit(cfg.Session.HistoryLimit)
	switch cfg.Session.Backend {
	case config.BackendMemory:
		return session.NewInMemoryStore(limit), nil
	case config.BackendFile:
		return session.NewFileStore(cfg.Session.Dir, limit)
	case config.BackendSQLite:
		return session.NewSQLiteStore(cfg.Session.SQLitePath, limit)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

func buildEngine(cfg *config.Config, logger *logging.PilotLogger) (*engine.Engine, error) {
	llm, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	reg := registry.New(
		registry.DefaultAgents(),
		tool.DefaultTools(),
		registry.DefaultGroups(),
		agent.Factory(llm, func(o *agent.WorkerOptions) { o.Logger = logger.WithComponent("agent") }),
		func(o *registry.Options) { o.Logger = logger.WithComponent("registry") },
	)

	var prompts *prompt.Manager
	if cfg.Prompt.Dir != "" {
		if _, err := os.Stat(cfg.Prompt.Dir); err == nil {
			prompts = prompt.NewManager(cfg.Prompt.Dir)
		}
	}

	uiGen := ui.NewGenerator(llm, func(o *ui.GeneratorOptions) {
		o.CallTimeout = cfg.Engine.CallTimeout.Std()
		o.Logger = logger.WithComponent("ui")
	})

	decisions := model.NewDecisions(llm, func(o *model.DecisionsOptions) {
		o.Logger = logger.WithComponent("model")
	})

	return engine.New(reg, decisions, func(o *engine.Options) {
		o.Store = store
		o.Logger = logger.WithComponent("engine")
		o.Prompts = prompts
		o.UIGenerator = uiGen
		o.DefaultAgent = cfg.Engine.DefaultAgent
		o.CallTimeout = cfg.Engine.CallTimeout.Std()
		o.StepTimeout = cfg.Engine.StepTimeout.Std()
		o.EventBufferSize = cfg.Engine.EventBufferSize
	}), nil
}
