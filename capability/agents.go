package capability

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

const agentsPath = "/agents"

// Agents manages helpdesk agents (staff accounts).
type Agents struct {
	proxy
}

// NewAgents creates the agent provider.
func NewAgents(client Doer, log logger.Logger) *Agents {
	return &Agents{proxy: newProxy(client, log, "agent")}
}

func (p *Agents) Operations() []Operation {
	id := mcp.WithNumber("id", mcp.Required(), mcp.Description("agent ID"))
	return []Operation{
		{
			Tool: mcp.NewTool("createAgent",
				mcp.WithDescription("Create a test agent with generated names for the given email"),
				mcp.WithString("email", mcp.Required(), mcp.Description("agent email address")),
			),
			Handler: p.create,
		},
		{
			Tool:    mcp.NewTool("getAgent", mcp.WithDescription("Fetch an agent by ID"), id),
			Handler: p.get,
		},
		{
			Tool: mcp.NewTool("listAgents",
				mcp.WithDescription("List agents, optionally filtered (e.g. {\"email\": \"x@y.com\", \"active\": \"true\"})"),
				mcp.WithObject("filters", mcp.Description("query filters")),
			),
			Handler: p.list,
		},
		{
			Tool: mcp.NewTool("updateAgent",
				mcp.WithDescription("Update fields of an existing agent"),
				id,
				mcp.WithObject("fields", mcp.Required(), mcp.Description("fields to change")),
			),
			Handler: p.update,
		},
		{
			Tool:    mcp.NewTool("deactivateAgent", mcp.WithDescription("Deactivate an agent"), id),
			Handler: p.deactivate,
		},
		{
			Tool:    mcp.NewTool("reactivateAgent", mcp.WithDescription("Reactivate a deactivated agent"), id),
			Handler: p.reactivate,
		},
		{
			Tool:    mcp.NewTool("forgetAgent", mcp.WithDescription("Permanently delete an agent"), id),
			Handler: p.forget,
		},
		{
			Tool:    mcp.NewTool("convertAgentToRequester", mcp.WithDescription("Convert an agent into a requester"), id),
			Handler: p.convertToRequester,
		},
	}
}

func (p *Agents) create(ctx context.Context, args Args) (interface{}, error) {
	email, _ := args.String("email")
	suffix := uuid.NewString()
	body := map[string]interface{}{
		"email":             email,
		"first_name":        "TestAgent" + suffix[:5],
		"last_name":         "User" + suffix[9:13],
		"job_title":         "Test Automation Agent",
		"occasional":        false,
		"work_phone_number": "1111111111",
	}
	resp, err := p.client.Post(ctx, agentsPath, body)
	return p.result(ctx, "createAgent", resp, err)
}

func (p *Agents) get(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Get(ctx, fmt.Sprintf("%s/%d", agentsPath, id))
	return p.result(ctx, "getAgent", resp, err)
}

func (p *Agents) list(ctx context.Context, args Args) (interface{}, error) {
	path := agentsPath
	if filters := args.Object("filters"); len(filters) > 0 {
		keys := make([]string, 0, len(filters))
		for k := range filters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		q := url.Values{}
		for _, k := range keys {
			q.Set(k, fmt.Sprint(filters[k]))
		}
		path += "?" + q.Encode()
	}
	resp, err := p.client.Get(ctx, path)
	return p.result(ctx, "listAgents", resp, err)
}

func (p *Agents) update(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Put(ctx, fmt.Sprintf("%s/%d", agentsPath, id), args.Object("fields"))
	return p.result(ctx, "updateAgent", resp, err)
}

func (p *Agents) deactivate(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Delete(ctx, fmt.Sprintf("%s/%d", agentsPath, id), nil)
	return p.result(ctx, "deactivateAgent", resp, err)
}

func (p *Agents) reactivate(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Put(ctx, fmt.Sprintf("%s/%d/reactivate", agentsPath, id), nil)
	return p.result(ctx, "reactivateAgent", resp, err)
}

func (p *Agents) forget(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Delete(ctx, fmt.Sprintf("%s/%d/forget", agentsPath, id), nil)
	return p.confirm(ctx, "forgetAgent", resp, err, map[string]interface{}{"agent_id": id})
}

func (p *Agents) convertToRequester(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Put(ctx, fmt.Sprintf("%s/%d/convert_to_requester", agentsPath, id), nil)
	return p.result(ctx, "convertAgentToRequester", resp, err)
}
