package capability

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hairizuan-noorazman/helpdesk-pilot/entity"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

const (
	requestersPath      = "/requesters"
	requesterFieldsPath = "/requester_fields"
)

// Requesters manages helpdesk requesters (end users).
type Requesters struct {
	proxy
}

// NewRequesters creates the requester provider.
func NewRequesters(client Doer, log logger.Logger) *Requesters {
	return &Requesters{proxy: newProxy(client, log, "requester")}
}

func (p *Requesters) Operations() []Operation {
	idParam := func(desc string) mcp.ToolOption {
		return mcp.WithNumber("id", mcp.Required(), mcp.Description(desc))
	}
	return []Operation{
		{
			Tool:    mcp.NewTool("listRequesters", mcp.WithDescription("List all requesters")),
			Handler: p.list,
		},
		{
			Tool:    mcp.NewTool("getRequester", mcp.WithDescription("Fetch a requester by ID"), idParam("requester ID")),
			Handler: p.get,
		},
		{
			Tool: mcp.NewTool("createRequester",
				mcp.WithDescription("Create a requester (contact). first_name and primary_email are required by the API"),
				mcp.WithString("first_name", mcp.Required(), mcp.Description("first name")),
				mcp.WithString("primary_email", mcp.Required(), mcp.Description("primary email address")),
				mcp.WithString("last_name", mcp.Description("last name")),
				mcp.WithString("job_title", mcp.Description("job title")),
				mcp.WithNumber("work_phone_number", mcp.Description("work phone number")),
				mcp.WithNumber("mobile_phone_number", mcp.Description("mobile phone number")),
				mcp.WithArray("department_ids", mcp.Description("department IDs"), mcp.Items(map[string]interface{}{"type": "number"})),
				mcp.WithString("time_format", mcp.Description("12h or 24h")),
				mcp.WithObject("custom_fields", mcp.Description("custom field values")),
			),
			Handler: p.create,
		},
		{
			Tool: mcp.NewTool("updateRequester",
				mcp.WithDescription("Update fields of an existing requester"),
				idParam("requester ID"),
				mcp.WithObject("fields", mcp.Required(), mcp.Description("fields to change, e.g. {\"job_title\": \"Lead\"}")),
			),
			Handler: p.update,
		},
		{
			Tool:    mcp.NewTool("deleteRequester", mcp.WithDescription("Deactivate (soft delete) a requester"), idParam("requester ID")),
			Handler: p.delete,
		},
		{
			Tool:    mcp.NewTool("forgetRequester", mcp.WithDescription("Permanently delete a requester and their tickets"), idParam("requester ID")),
			Handler: p.forget,
		},
		{
			Tool:    mcp.NewTool("convertRequesterToAgent", mcp.WithDescription("Convert a requester into an occasional agent"), idParam("requester ID")),
			Handler: p.convertToAgent,
		},
		{
			Tool: mcp.NewTool("mergeRequesters",
				mcp.WithDescription("Merge secondary requesters into a primary requester"),
				mcp.WithNumber("primary_id", mcp.Required(), mcp.Description("requester that survives the merge")),
				mcp.WithArray("secondary_ids", mcp.Required(), mcp.Description("requesters merged into the primary"), mcp.Items(map[string]interface{}{"type": "number"})),
			),
			Handler: p.merge,
		},
		{
			Tool:    mcp.NewTool("listRequesterFields", mcp.WithDescription("List requester form fields")),
			Handler: p.listFields,
		},
	}
}

func (p *Requesters) list(ctx context.Context, _ Args) (interface{}, error) {
	resp, err := p.client.Get(ctx, requestersPath)
	return p.result(ctx, "listRequesters", resp, err)
}

func (p *Requesters) get(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Get(ctx, fmt.Sprintf("%s/%d", requestersPath, id))
	return p.result(ctx, "getRequester", resp, err)
}

func (p *Requesters) create(ctx context.Context, args Args) (interface{}, error) {
	first, _ := args.String("first_name")
	email, _ := args.String("primary_email")
	r := entity.NewRequester(first, email)
	if s, ok := args.String("last_name"); ok {
		r.LastName = entity.String(s)
	}
	if s, ok := args.String("job_title"); ok {
		r.JobTitle = entity.String(s)
	}
	if s, ok := args.String("time_format"); ok {
		r.TimeFormat = entity.String(s)
	}
	for name, dst := range map[string]**int64{
		"work_phone_number":   &r.WorkPhoneNumber,
		"mobile_phone_number": &r.MobilePhoneNumber,
	} {
		n, ok, err := args.Int64(name)
		if err != nil {
			return nil, err
		}
		if ok {
			*dst = entity.Int64(n)
		}
	}
	ids, err := args.Int64s("department_ids")
	if err != nil {
		return nil, err
	}
	r.DepartmentIDs = ids
	r.CustomFields = args.Object("custom_fields")
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	resp, err := p.client.Post(ctx, requestersPath, r)
	return p.result(ctx, "createRequester", resp, err)
}

func (p *Requesters) update(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Put(ctx, fmt.Sprintf("%s/%d", requestersPath, id), args.Object("fields"))
	return p.result(ctx, "updateRequester", resp, err)
}

func (p *Requesters) delete(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Delete(ctx, fmt.Sprintf("%s/%d", requestersPath, id), nil)
	return p.confirm(ctx, "deleteRequester", resp, err, map[string]interface{}{"requester_id": id})
}

func (p *Requesters) forget(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Delete(ctx, fmt.Sprintf("%s/%d/forget", requestersPath, id), nil)
	return p.confirm(ctx, "forgetRequester", resp, err, map[string]interface{}{"requester_id": id})
}

func (p *Requesters) convertToAgent(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Put(ctx, fmt.Sprintf("%s/%d/convert_to_agent", requestersPath, id), nil)
	return p.result(ctx, "convertRequesterToAgent", resp, err)
}

func (p *Requesters) merge(ctx context.Context, args Args) (interface{}, error) {
	primary, err := args.RequireInt64("primary_id")
	if err != nil {
		return nil, err
	}
	secondary, err := args.Int64s("secondary_ids")
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{
		"primary_requester":    primary,
		"secondary_requesters": secondary,
	}
	resp, err := p.client.Post(ctx, requestersPath+"/merge", body)
	return p.result(ctx, "mergeRequesters", resp, err)
}

func (p *Requesters) listFields(ctx context.Context, _ Args) (interface{}, error) {
	resp, err := p.client.Get(ctx, requesterFieldsPath)
	return p.result(ctx, "listRequesterFields", resp, err)
}
