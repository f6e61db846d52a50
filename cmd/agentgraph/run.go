package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph/checkpoint"
	"github.com/hupe1980/agentgraph/config"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/model/anthropic"
	"github.com/hupe1980/agentgraph/model/openai"
	"github.com/hupe1980/agentgraph/planner"
)

var (
	runConversation string
	runVerbose      bool
)

var runCmd = &cobra.Command{
	Use:   "run <message>",
	Short: "Run one conversational turn",
	Long: `Run one turn for the given user message and print the assistant reply.

With a checkpoint backend configured, repeated runs with the same
--conversation id continue the same conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		return runTurn(cmd, cfg, strings.Join(args, " "))
	},
}

func init() {
	runCmd.Flags().StringVar(&runConversation, "conversation", "default", "Conversation id for checkpointed history")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Log at debug level")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}

	return config.Load()
}

func runTurn(cmd *cobra.Command, cfg *config.Config, input string) error {
	level := logging.ParseLogLevel(cfg.Logging.Level)
	if runVerbose {
		level = logging.LogLevelDebug
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: "text",
		Output: os.Stderr,
	})

	m, err := buildModel(cfg.Provider)
	if err != nil {
		return err
	}

	gcfg := graph.Config{
		Model:               m,
		MaxModelCalls:       cfg.Turn.MaxModelCalls,
		MaxRetries:          cfg.Turn.MaxRetries,
		InitialDelay:        cfg.Turn.InitialDelay,
		BackoffFactor:       cfg.Turn.BackoffFactor,
		MaxParallelTools:    cfg.Turn.MaxParallelTools,
		DisableTodo:         cfg.Features.DisableTodo,
		DisableTodoFeedback: cfg.Features.DisableTodoFeedback,
		DisablePIIScan:      cfg.Features.DisablePIIScan,
		PlannerStrategy:     planner.Strategy(cfg.Planner.Strategy),
		Logger:              logger,
	}

	if cfg.Planner.Model != "" {
		provider := cfg.Provider
		provider.Model = cfg.Planner.Model

		pm, err := buildModel(provider)
		if err != nil {
			return err
		}

		gcfg.PlannerModel = pm
	}

	saver, closeSaver, err := buildSaver(cfg.Checkpoint)
	if err != nil {
		return err
	}
	defer closeSaver()

	gcfg.Saver = saver

	g, err := graph.New(gcfg)
	if err != nil {
		return err
	}

	state, err := g.Run(cmd.Context(), runConversation, input)
	if err != nil {
		return err
	}

	printResult(state)

	return nil
}

func buildModel(p config.ProviderConfig) (model.Model, error) {
	switch p.Name {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if p.Model != "" {
				o.Model = p.Model
			}

			o.Temperature = p.Temperature
			o.MaxCompletionTokens = p.MaxTokens
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if p.Model != "" {
				o.Model = anthropicsdk.Model(p.Model)
			}

			o.Temperature = p.Temperature
			o.MaxTokens = p.MaxTokens
			o.APIKey = p.APIKey
		}), nil
	case config.ProviderMock:
		return model.NewMockModel("mock"), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p.Name)
	}
}

func buildSaver(c config.CheckpointConfig) (checkpoint.Saver, func(), error) {
	switch c.Backend {
	case config.CheckpointMemory:
		return checkpoint.NewInMemorySaver(), func() {}, nil
	case config.CheckpointSQLite:
		saver, err := checkpoint.OpenSQLite(c.Path)
		if err != nil {
			return nil, nil, err
		}

		return saver, func() { _ = saver.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

func printResult(state *core.AgentState) {
	if msg := state.LastAssistantMessage(); msg != nil {
		fmt.Println(msg.Content)
	}

	fmt.Fprintf(os.Stderr, "\n%s model_calls=%d tool_calls=%d tokens=%d duration=%s\n",
		color.GreenString("✓"),
		state.ModelCalls,
		state.ToolCalls,
		state.Usage.TotalTokens,
		state.Elapsed.Round(time.Millisecond),
	)

	if state.Todos != nil && state.Todos.Len() > 0 {
		summary := state.Todos.Summary()
		fmt.Fprintf(os.Stderr, "%s %d/%d tasks completed (%.0f%%)\n",
			color.CyanString("»"),
			summary.Completed,
			summary.Total,
			summary.CompletionPercentage,
		)
	}
}
