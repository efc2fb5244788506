package capability

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hairizuan-noorazman/helpdesk-pilot/classifier"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

// Role endpoints live on the admin surface and need a session client.
const rolesPath = "/api/admin/roles"

// Roles manages agent roles.
type Roles struct {
	proxy
}

// NewRoles creates the role provider. client should be a session mode
// gateway client.
func NewRoles(client Doer, log logger.Logger) *Roles {
	return &Roles{proxy: newProxy(client, log, "role")}
}

func (p *Roles) Operations() []Operation {
	return []Operation{
		{
			Tool:    mcp.NewTool("getAllRoles", mcp.WithDescription("List all agent roles")),
			Handler: p.list,
		},
		{
			Tool: mcp.NewTool("getRoleByName",
				mcp.WithDescription("Find a role by name, case-insensitively"),
				mcp.WithString("name", mcp.Required(), mcp.Description("role name")),
			),
			Handler: p.byName,
		},
		{
			Tool: mcp.NewTool("createRole",
				mcp.WithDescription("Create an agent role"),
				mcp.WithObject("role", mcp.Required(), mcp.Description("role attributes, e.g. {\"name\": \"Auditor\", \"description\": \"read only\"}")),
			),
			Handler: p.create,
		},
		{
			Tool: mcp.NewTool("updateRole",
				mcp.WithDescription("Update attributes of an agent role"),
				mcp.WithNumber("id", mcp.Required(), mcp.Description("role ID")),
				mcp.WithObject("fields", mcp.Required(), mcp.Description("attributes to change")),
			),
			Handler: p.update,
		},
		{
			Tool: mcp.NewTool("deleteRole",
				mcp.WithDescription("Delete a role by numeric ID or by name"),
				mcp.WithString("name_or_id", mcp.Required(), mcp.Description("role ID or role name")),
			),
			Handler: p.delete,
		},
		{
			Tool:    mcp.NewTool("deleteAllRoles", mcp.WithDescription("Delete every role the tenant allows to be deleted")),
			Handler: p.deleteAll,
		},
	}
}

func (p *Roles) list(ctx context.Context, _ Args) (interface{}, error) {
	resp, err := p.client.Get(ctx, rolesPath)
	return p.result(ctx, "getAllRoles", resp, err)
}

func (p *Roles) create(ctx context.Context, args Args) (interface{}, error) {
	role := args.Object("role")
	if role == nil {
		return nil, fmt.Errorf("%w: role must be an object", ErrInvalidParameter)
	}
	resp, err := p.client.Post(ctx, rolesPath, map[string]interface{}{"role": role})
	return p.result(ctx, "createRole", resp, err)
}

func (p *Roles) update(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	fields := args.Object("fields")
	if fields == nil {
		return nil, fmt.Errorf("%w: fields must be an object", ErrInvalidParameter)
	}
	resp, err := p.client.Put(ctx, fmt.Sprintf("%s/%d", rolesPath, id), map[string]interface{}{"role": fields})
	return p.result(ctx, "updateRole", resp, err)
}

// fetchRoles lists roles. A non-nil payload is an HTTP error to hand back
// to the caller unchanged.
func (p *Roles) fetchRoles(ctx context.Context, action string) ([]map[string]interface{}, interface{}, error) {
	resp, err := p.client.Get(ctx, rolesPath)
	res, err := classifier.Classify(action, resp, err)
	if err != nil {
		return nil, nil, err
	}
	if res.Kind != classifier.KindOK {
		return nil, res.Value(), nil
	}

	var items []interface{}
	switch body := res.Payload.(type) {
	case []interface{}:
		items = body
	case map[string]interface{}:
		items, _ = body["roles"].([]interface{})
	}
	roles := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if role, ok := item.(map[string]interface{}); ok {
			roles = append(roles, role)
		}
	}
	return roles, nil, nil
}

func findRole(roles []map[string]interface{}, name string) map[string]interface{} {
	for _, role := range roles {
		if n, ok := role["name"].(string); ok && strings.EqualFold(n, name) {
			return role
		}
	}
	return nil
}

func roleNotFound(name string) map[string]interface{} {
	return map[string]interface{}{
		"error": "role not found",
		"name":  name,
	}
}

func (p *Roles) byName(ctx context.Context, args Args) (interface{}, error) {
	name, ok := args.String("name")
	if !ok {
		return nil, fmt.Errorf("%w: name", ErrMissingParameter)
	}
	roles, payload, err := p.fetchRoles(ctx, "getRoleByName")
	if err != nil || payload != nil {
		return payload, err
	}
	if role := findRole(roles, name); role != nil {
		return role, nil
	}
	p.logger.Warn(ctx, "role not found", map[string]interface{}{"name": name})
	return roleNotFound(name), nil
}

func (p *Roles) delete(ctx context.Context, args Args) (interface{}, error) {
	ref, ok := args.String("name_or_id")
	if !ok {
		return nil, fmt.Errorf("%w: name_or_id", ErrMissingParameter)
	}

	id, parseErr := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if parseErr != nil {
		roles, payload, err := p.fetchRoles(ctx, "deleteRole")
		if err != nil || payload != nil {
			return payload, err
		}
		role := findRole(roles, ref)
		if role == nil {
			p.logger.Warn(ctx, "role not found", map[string]interface{}{"name": ref})
			return roleNotFound(ref), nil
		}
		if id, err = toInt64(role["id"]); err != nil {
			return roleNotFound(ref), nil
		}
	}

	resp, err := p.client.Delete(ctx, fmt.Sprintf("%s/%d", rolesPath, id), nil)
	return p.confirm(ctx, "deleteRole", resp, err, map[string]interface{}{
		"message": "Role deleted successfully",
		"role_id": id,
	})
}

func (p *Roles) deleteAll(ctx context.Context, _ Args) (interface{}, error) {
	roles, payload, err := p.fetchRoles(ctx, "deleteAllRoles")
	if err != nil || payload != nil {
		return payload, err
	}

	deleted := 0
	for _, role := range roles {
		id, err := toInt64(role["id"])
		if err != nil {
			continue
		}
		resp, err := p.client.Delete(ctx, fmt.Sprintf("%s/%d", rolesPath, id), nil)
		if err != nil || !resp.IsSuccess() {
			fields := map[string]interface{}{"role_id": id}
			if err != nil {
				fields["error"] = err.Error()
			} else {
				fields["status"] = resp.StatusCode
			}
			p.logger.Warn(ctx, "failed to delete role", fields)
			continue
		}
		deleted++
	}

	return map[string]interface{}{
		"status":        "success",
		"deleted_count": deleted,
	}, nil
}
