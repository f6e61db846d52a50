package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/planner"
	"github.com/hupe1980/agentgraph/tool"
)

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := Config{Model: model.NewMockModel("test")}.withDefaults()

		assert.Equal(t, DefaultMaxModelCalls, cfg.MaxModelCalls)
		assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
		assert.Equal(t, DefaultInitialDelay, cfg.InitialDelay)
		assert.Equal(t, DefaultBackoff, cfg.BackoffFactor)
		assert.Equal(t, planner.StrategyAuto, cfg.PlannerStrategy)
		assert.NotNil(t, cfg.PromptBuilder)
		assert.NotNil(t, cfg.Logger)
		assert.NoError(t, cfg.validate())
	})

	t.Run("model required", func(t *testing.T) {
		_, err := New(Config{})

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "Model", cfgErr.Field)
	})

	t.Run("negative limits rejected", func(t *testing.T) {
		_, err := New(Config{Model: model.NewMockModel("test"), MaxModelCalls: -1})

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "MaxModelCalls", cfgErr.Field)
	})

	t.Run("unknown planner strategy rejected", func(t *testing.T) {
		_, err := New(Config{Model: model.NewMockModel("test"), PlannerStrategy: "psychic"})

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "PlannerStrategy", cfgErr.Field)
	})

	t.Run("model strategy requires a planner model", func(t *testing.T) {
		_, err := New(Config{Model: model.NewMockModel("test"), PlannerStrategy: planner.StrategyModel})

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "PlannerModel", cfgErr.Field)
	})

	t.Run("duplicate tool names rejected", func(t *testing.T) {
		_, err := New(Config{
			Model: model.NewMockModel("test"),
			Tools: []tool.Tool{echoTool("echo"), echoTool("echo")},
		})

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "Tools", cfgErr.Field)
	})

	t.Run("error message names the field", func(t *testing.T) {
		err := &ConfigError{Field: "MaxRetries", Message: "must be at least 1"}
		assert.Contains(t, err.Error(), "MaxRetries")
	})
}
