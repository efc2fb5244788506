package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/helpdesk-pilot/capability"
	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
)

var toolsWithSession bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the operations available to the agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		var session capability.Doer
		if toolsWithSession || cfg.UsesSession() {
			session = offlineClient{}
		}
		log := newLogger(cfg)
		registry, err := capability.NewRegistry(log, capability.HelpdeskProviders(offlineClient{}, session, cfg.Helpdesk.EmailDomain, log)...)
		if err != nil {
			return err
		}
		writeToolsTable(cmd.OutOrStdout(), registry)
		return nil
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsWithSession, "session", false, "include session-only workspace operations")
	rootCmd.AddCommand(toolsCmd)
}

// errOffline is returned by offlineClient for every call.
var errOffline = errors.New("offline: no helpdesk client configured")

// offlineClient lets the registry be built for listing without credentials.
type offlineClient struct{}

func (offlineClient) Get(context.Context, string) (*gateway.Response, error) {
	return nil, errOffline
}

func (offlineClient) Post(context.Context, string, interface{}) (*gateway.Response, error) {
	return nil, errOffline
}

func (offlineClient) Put(context.Context, string, interface{}) (*gateway.Response, error) {
	return nil, errOffline
}

func (offlineClient) Delete(context.Context, string, interface{}) (*gateway.Response, error) {
	return nil, errOffline
}

func writeToolsTable(w io.Writer, registry *capability.Registry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Operation", "Required", "Description"})
	for _, op := range registry.Operations() {
		t.AppendRow(table.Row{
			op.Name(),
			strings.Join(op.Tool.InputSchema.Required, ", "),
			op.Tool.Description,
		})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d operations", registry.Len()), "", ""})
	t.Render()
}
