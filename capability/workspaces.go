package capability

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hairizuan-noorazman/helpdesk-pilot/classifier"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

// Workspace endpoints are private and only reachable with a session client.
const workspacesPath = "/api/_/workspaces"

const nameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Workspaces manages helpdesk workspaces.
type Workspaces struct {
	proxy
}

// NewWorkspaces creates the workspace provider. client should be a session
// mode gateway client.
func NewWorkspaces(client Doer, log logger.Logger) *Workspaces {
	return &Workspaces{proxy: newProxy(client, log, "workspace")}
}

func (p *Workspaces) Operations() []Operation {
	return []Operation{
		{
			Tool:    mcp.NewTool("listWorkspaces", mcp.WithDescription("List all workspaces")),
			Handler: p.list,
		},
		{
			Tool: mcp.NewTool("createWorkspace",
				mcp.WithDescription("Create a workspace from a template"),
				mcp.WithString("template", mcp.Description("template type, default is 'hr'")),
				mcp.WithString("name", mcp.Description("workspace name")),
				mcp.WithString("ticket_type", mcp.Description("ticket type, default is 'Issue'")),
			),
			Handler: p.create,
		},
		{
			Tool:    mcp.NewTool("createOrGenerateOrRandomOrWorkspaceName", mcp.WithDescription("Generate a random workspace name")),
			Handler: p.randomName,
		},
		{
			Tool:    mcp.NewTool("deleteAllNonPrimaryWorkspaces", mcp.WithDescription("Archive every workspace that is not the primary one")),
			Handler: p.archiveNonPrimary,
		},
	}
}

// RandomWorkspaceName returns "workspace_" followed by 8 random alphanumerics.
func RandomWorkspaceName() (string, error) {
	b := make([]byte, 8)
	max := big.NewInt(int64(len(nameAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = nameAlphabet[n.Int64()]
	}
	return "workspace_" + string(b), nil
}

func (p *Workspaces) randomName(_ context.Context, _ Args) (interface{}, error) {
	return RandomWorkspaceName()
}

func (p *Workspaces) list(ctx context.Context, _ Args) (interface{}, error) {
	resp, err := p.client.Get(ctx, workspacesPath)
	return p.result(ctx, "listWorkspaces", resp, err)
}

func (p *Workspaces) create(ctx context.Context, args Args) (interface{}, error) {
	name := args.StringOr("name", "TestWorkspace-"+uuid.NewString()[:5])
	body := map[string]interface{}{
		"workspace": map[string]interface{}{
			"name":          name,
			"description":   "Test Desc",
			"state":         "active",
			"template_type": args.StringOr("template", "hr"),
			"primary":       false,
		},
		"meta": map[string]interface{}{
			"ticket_type": args.StringOr("ticket_type", "Issue"),
		},
	}
	resp, err := p.client.Post(ctx, workspacesPath, body)
	return p.result(ctx, "createWorkspace", resp, err)
}

func (p *Workspaces) archiveNonPrimary(ctx context.Context, _ Args) (interface{}, error) {
	resp, err := p.client.Get(ctx, workspacesPath)
	res, err := classifier.Classify("listWorkspaces", resp, err)
	if err != nil {
		return nil, err
	}
	if res.Kind != classifier.KindOK {
		return res.Value(), nil
	}

	archived := []int64{}
	body, _ := res.Payload.(map[string]interface{})
	items, _ := body["workspaces"].([]interface{})
	for _, item := range items {
		ws, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if primary, _ := ws["primary"].(bool); primary {
			continue
		}
		id, err := toInt64(ws["id"])
		if err != nil {
			continue
		}
		resp, err := p.client.Put(ctx, fmt.Sprintf("%s/%d", workspacesPath, id), map[string]string{"state": "archived"})
		if err != nil || !resp.IsSuccess() {
			fields := map[string]interface{}{"workspace_id": id}
			if err != nil {
				fields["error"] = err.Error()
			} else {
				fields["status"] = resp.StatusCode
			}
			p.logger.Warn(ctx, "failed to archive workspace", fields)
			continue
		}
		archived = append(archived, id)
	}

	return map[string]interface{}{
		"status":                 "success",
		"archived_count":         len(archived),
		"archived_workspace_ids": archived,
	}, nil
}
