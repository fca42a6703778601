package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/1316151417/agentcore/agent"
	"github.com/1316151417/agentcore/llm"
)

type config struct {
	Provider  string `env:"AGENTCORE_PROVIDER" envDefault:"anthropic"`
	Model     string `env:"AGENTCORE_MODEL" envDefault:"claude-sonnet-4-20250514"`
	APIKey    string `env:"AGENTCORE_API_KEY"`
	WorkDir   string `env:"AGENTCORE_WORKDIR"`
	SkillsDir string `env:"AGENTCORE_SKILLS_DIR"`
	Debug     bool   `env:"AGENTCORE_DEBUG"`
}

func newRootCmd() *cobra.Command {
	var cfg config

	cmd := &cobra.Command{
		Use:   "agentcore [prompt]",
		Short: "Tool-using agent with task tracking, skills, and sub-agents",
		Long: "agentcore runs an agent loop against an LLM provider. With a prompt argument it\n" +
			"runs once and exits; without one it starts an interactive session.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(*cobra.Command, []string) error {
			// Env fills whatever the flags left at their zero values.
			var fromEnv config
			if err := env.Parse(&fromEnv); err != nil {
				return fmt.Errorf("reading environment: %w", err)
			}
			if cfg.Provider == "" {
				cfg.Provider = fromEnv.Provider
			}
			if cfg.Model == "" {
				cfg.Model = fromEnv.Model
			}
			if cfg.WorkDir == "" {
				cfg.WorkDir = fromEnv.WorkDir
			}
			if cfg.SkillsDir == "" {
				cfg.SkillsDir = fromEnv.SkillsDir
			}
			if !cfg.Debug {
				cfg.Debug = fromEnv.Debug
			}
			cfg.APIKey = fromEnv.APIKey
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&cfg.Provider, "provider", "", "LLM provider (anthropic, openai, ...)")
	cmd.Flags().StringVar(&cfg.Model, "model", "", "model name")
	cmd.Flags().StringVarP(&cfg.WorkDir, "workdir", "w", "", "workspace root (default: current directory)")
	cmd.Flags().StringVar(&cfg.SkillsDir, "skills", "", "skills directory (default: <workdir>/skills)")
	cmd.Flags().BoolVar(&cfg.Debug, "debug", false, "verbose logging")

	return cmd
}

func run(ctx context.Context, cfg config, prompt string) error {
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var opts []llm.GollmOption
	if cfg.APIKey != "" {
		opts = append(opts, llm.WithAPIKey(cfg.APIKey))
	}
	client, err := llm.NewGollmClient(cfg.Provider, cfg.Model, opts...)
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}

	session, err := agent.NewSession(agent.SessionConfig{
		Client:    llm.WithRetry(client, llm.DefaultRetryPolicy()),
		Model:     cfg.Model,
		WorkDir:   cfg.WorkDir,
		SkillsDir: cfg.SkillsDir,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go drainEvents(session.Events())

	if prompt != "" {
		out, err := session.Submit(ctx, prompt)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	return repl(ctx, session)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// drainEvents prints a compact progress line per event.
func drainEvents(events <-chan agent.Event) {
	for ev := range events {
		switch ev.Kind {
		case agent.EventCapabilityStart:
			fmt.Printf("  • %v\n", ev.Data["name"])
		case agent.EventSubagentStart:
			fmt.Printf("  ⇒ subagent %v: %v\n", ev.Data["agent_type"], ev.Data["label"])
		case agent.EventSubagentEnd:
			fmt.Printf("  ⇐ subagent %v done (%v invocations, %v)\n",
				ev.Data["agent_type"], ev.Data["invocations"], ev.Data["elapsed"])
		case agent.EventReminder:
			fmt.Println("  ⚑ task list reminder injected")
		}
	}
}

func repl(ctx context.Context, session *agent.Session) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "q" {
			return nil
		}

		out, err := session.Submit(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", out)
	}
}
