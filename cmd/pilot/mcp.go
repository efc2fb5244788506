package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/helpdesk-pilot/agent"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the helpdesk operations over MCP stdio",
	Long: `mcp exposes the same operations the built-in agent uses to an external MCP
client, so another assistant can drive the helpdesk API interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.ValidateHelpdesk(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		log := newLogger(cfg)
		registry, err := newRegistry(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		return agent.NewMCPBridge("helpdesk-pilot", Version, registry, log).Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
