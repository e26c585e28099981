// Package main provides the CLI entry point for Conclave, a multi-agent
// deliberation engine: fan a task out to a panel of LLM-backed agents, vote
// or deliberate over their responses, and return a reconciled answer.
//
// # Basic Usage
//
// Run a single-shot panel vote:
//
//	conclave run --config conclave.yaml "Should we ship this release?"
//
// Run a multi-round deliberation:
//
//	conclave deliberate --config conclave.yaml --max-rounds 5 "Design the API"
//
// # Environment Variables
//
//   - CONCLAVE_CONFIG: Path to configuration file (default: conclave.yaml)
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/conclave/internal/clog"
	"github.com/haasonsaas/conclave/internal/deliberation"
	"github.com/haasonsaas/conclave/internal/session"
	"github.com/haasonsaas/conclave/internal/voting"
)

// Build information - populated by ldflags during build.
//
// Example build command:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "conclave",
		Short: "Conclave - multi-agent deliberation engine",
		Long: `Conclave fans a task out to a panel of LLM-backed agents and
reconciles their responses by voting or multi-round deliberation.

Supported providers: Anthropic (Claude), OpenAI (GPT), Google (Gemini)
Voting strategies: majority, weighted, ranked_choice, consensus, aggregation, expert_panel`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildDeliberateCmd(),
		buildAgentsCmd(),
		buildConfigCmd(),
	)

	return rootCmd
}

func resolveConfigPath(path string) string {
	if strings.TrimSpace(path) != "" {
		return path
	}
	if env := strings.TrimSpace(os.Getenv("CONCLAVE_CONFIG")); env != "" {
		return env
	}
	return "conclave.yaml"
}

func loadSessionAndLogger(cmd *cobra.Command, configPath, logLevel string) (*session.Session, *clog.Logger, error) {
	configPath = resolveConfigPath(configPath)
	cfg, err := session.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	sess, err := session.FromConfig(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build session: %w", err)
	}
	logger := clog.New(clog.Config{Level: logLevel, Format: "json"})
	return sess, logger, nil
}

// buildRunCmd creates the "run" command: a single-shot voted workflow.
func buildRunCmd() *cobra.Command {
	var (
		configPath string
		strategy   string
		timeout    string
		logLevel   string
	)
	cmd := &cobra.Command{
		Use:   "run [task]",
		Short: "Run a single-shot panel vote over all configured agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, logger, err := loadSessionAndLogger(cmd, configPath, logLevel)
			if err != nil {
				return err
			}
			vs, ok := voting.Strategies()[strategy]
			if !ok {
				return fmt.Errorf("unknown voting strategy %q", strategy)
			}

			builder := session.NewWorkflowBuilder(sess.Agents()...).WithVoting(vs).WithLogger(logger)
			if timeout != "" {
				d, err := time.ParseDuration(timeout)
				if err != nil {
					return fmt.Errorf("invalid --timeout: %w", err)
				}
				builder = builder.WithTimeout(d)
			}

			result, err := builder.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.Success {
				fmt.Fprintf(out, "Workflow failed: %s\n", result.Error)
				return fmt.Errorf("workflow failed: %s", result.Error)
			}
			fmt.Fprintf(out, "%v\n", result.Value)
			fmt.Fprintf(out, "\n(%d agent responses, elapsed %s)\n", len(result.AgentResponses), result.Elapsed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringVar(&strategy, "strategy", "majority", "Voting strategy (majority, weighted, ranked_choice, consensus, aggregation, expert_panel)")
	cmd.Flags().StringVar(&timeout, "timeout", "", "Overall workflow timeout (e.g. 30s); unset means no timeout")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	return cmd
}

// buildDeliberateCmd creates the "deliberate" command: a multi-round
// deliberation over all configured agents.
func buildDeliberateCmd() *cobra.Command {
	var (
		configPath string
		mode       string
		maxRounds  int
		strategy   string
		logLevel   string
	)
	cmd := &cobra.Command{
		Use:   "deliberate [task]",
		Short: "Run a multi-round deliberation over all configured agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, logger, err := loadSessionAndLogger(cmd, configPath, logLevel)
			if err != nil {
				return err
			}
			vs, ok := voting.Strategies()[strategy]
			if !ok {
				return fmt.Errorf("unknown voting strategy %q", strategy)
			}
			roundMode, err := parseRoundMode(mode)
			if err != nil {
				return err
			}

			builder := session.NewWorkflowBuilder(sess.Agents()...).WithVoting(vs).WithLogger(logger).
				WithDeliberation(func(db *session.DeliberationBuilder) {
					db.WithMode(roundMode).WithMaxRounds(maxRounds)
				})

			result, err := builder.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.Success {
				fmt.Fprintf(out, "Deliberation failed: %s\n", result.Error)
				return fmt.Errorf("deliberation failed: %s", result.Error)
			}
			fmt.Fprintf(out, "%v\n", result.Value)
			fmt.Fprintf(out, "\n(%d rounds, terminated by %s, elapsed %s)\n",
				result.TotalRounds, result.TerminationReason, result.TotalTime)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().StringVar(&mode, "mode", "round_robin", "Round mode (round_robin, debate, moderated, free_form)")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", 10, "Maximum number of rounds")
	cmd.Flags().StringVar(&strategy, "strategy", "majority", "Synthesis voting strategy")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	return cmd
}

func parseRoundMode(s string) (deliberation.RoundMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "round_robin", "roundrobin", "":
		return deliberation.RoundRobin, nil
	case "debate":
		return deliberation.Debate, nil
	case "moderated":
		return deliberation.Moderated, nil
	case "free_form", "freeform":
		return deliberation.FreeForm, nil
	default:
		return 0, fmt.Errorf("unknown round mode %q", s)
	}
}

// buildAgentsCmd creates the "agents" command group.
func buildAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect the agents declared by a configuration file",
	}
	cmd.AddCommand(buildAgentsListCmd())
	return cmd
}

func buildAgentsListCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agents declared by the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			cfg, err := session.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(cfg.Agents) == 0 {
				fmt.Fprintln(out, "No agents configured.")
				return nil
			}
			fmt.Fprintln(out, "Agents:")
			for _, a := range cfg.Agents {
				name := a.Name
				if name == "" {
					name = a.ID
				}
				fmt.Fprintf(out, "  - %s (%s, provider=%s", a.ID, name, a.Provider)
				if a.Personality.Preset != "" {
					fmt.Fprintf(out, ", preset=%s", a.Personality.Preset)
				}
				fmt.Fprintln(out, ")")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}

// buildConfigCmd creates the "config" command group.
func buildConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate and inspect configuration files",
	}
	cmd.AddCommand(buildConfigValidateCmd())
	return cmd
}

func buildConfigValidateCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			cfg, err := session.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if _, err := session.FromConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (%d providers, %d agents)\n", configPath, len(cfg.Providers), len(cfg.Agents))
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	return cmd
}
