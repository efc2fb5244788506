package agent

import (
	"time"
)

// Config holds the execution agent configuration.
type Config struct {
	Region        string
	Model         string
	MaxIterations int
	MaxTokens     int
	SystemPrompt  string
	// TimeLimit bounds one Execute call; zero means no limit.
	TimeLimit time.Duration
}

// DefaultModel is the Bedrock model used when none is configured.
const DefaultModel = "anthropic.claude-3-5-sonnet-20240620-v1:0"

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 25
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	return c
}
