package capability

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hairizuan-noorazman/helpdesk-pilot/entity"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

const departmentsPath = "/departments"

// Departments manages helpdesk departments.
type Departments struct {
	proxy
}

// NewDepartments creates the department provider.
func NewDepartments(client Doer, log logger.Logger) *Departments {
	return &Departments{proxy: newProxy(client, log, "department")}
}

func (p *Departments) Operations() []Operation {
	return []Operation{
		{
			Tool: mcp.NewTool("createDepartment",
				mcp.WithDescription("Create a department"),
				mcp.WithString("name", mcp.Required(), mcp.Description("department name")),
				mcp.WithString("description", mcp.Description("department description")),
				mcp.WithNumber("head_user_id", mcp.Description("agent heading the department")),
				mcp.WithNumber("prime_user_id", mcp.Description("prime user of the department")),
				mcp.WithArray("domains", mcp.Description("email domains"), mcp.Items(map[string]interface{}{"type": "string"})),
			),
			Handler: p.create,
		},
		{
			Tool: mcp.NewTool("updateDepartment",
				mcp.WithDescription("Rename a department"),
				mcp.WithNumber("id", mcp.Required(), mcp.Description("department ID")),
				mcp.WithString("name", mcp.Required(), mcp.Description("new name")),
			),
			Handler: p.update,
		},
		{
			Tool: mcp.NewTool("getDepartment",
				mcp.WithDescription("Fetch a department by ID"),
				mcp.WithNumber("id", mcp.Required(), mcp.Description("department ID")),
			),
			Handler: p.get,
		},
		{
			Tool: mcp.NewTool("deleteDepartment",
				mcp.WithDescription("Delete a department"),
				mcp.WithNumber("id", mcp.Required(), mcp.Description("department ID")),
			),
			Handler: p.delete,
		},
		{
			Tool:    mcp.NewTool("listDepartments", mcp.WithDescription("List all departments")),
			Handler: p.list,
		},
	}
}

func (p *Departments) create(ctx context.Context, args Args) (interface{}, error) {
	name, _ := args.String("name")
	dept := entity.Department{Name: name, Domains: args.Strings("domains")}
	if s, ok := args.String("description"); ok {
		dept.Description = entity.String(s)
	}
	// Zero IDs mean "unset" to the agent.
	for param, dst := range map[string]**int64{"head_user_id": &dept.HeadUserID, "prime_user_id": &dept.PrimeUserID} {
		n, ok, err := args.Int64(param)
		if err != nil {
			return nil, err
		}
		if ok && n != 0 {
			*dst = entity.Int64(n)
		}
	}

	resp, err := p.client.Post(ctx, departmentsPath, map[string]interface{}{"department": dept})
	return p.result(ctx, "createDepartment", resp, err)
}

func (p *Departments) update(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	name, _ := args.String("name")
	resp, err := p.client.Put(ctx, fmt.Sprintf("%s/%d", departmentsPath, id), map[string]string{"name": name})
	return p.result(ctx, "updateDepartment", resp, err)
}

func (p *Departments) get(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Get(ctx, fmt.Sprintf("%s/%d", departmentsPath, id))
	return p.result(ctx, "getDepartment", resp, err)
}

func (p *Departments) delete(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Delete(ctx, fmt.Sprintf("%s/%d", departmentsPath, id), nil)
	return p.confirm(ctx, "deleteDepartment", resp, err, map[string]interface{}{
		"message":       "Department deleted successfully",
		"department_id": id,
	})
}

func (p *Departments) list(ctx context.Context, _ Args) (interface{}, error) {
	resp, err := p.client.Get(ctx, departmentsPath)
	return p.result(ctx, "listDepartments", resp, err)
}
