package capability

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

const ticketsPath = "/tickets"

// Friendly names accepted by ticket operations, mapped to API codes.
var (
	TicketPriorities = map[string]int{"low": 1, "medium": 2, "high": 3, "urgent": 4}
	TicketStatuses   = map[string]int{"open": 2, "pending": 3, "resolved": 4, "closed": 5}
	TicketSources    = map[string]int{
		"email":           1,
		"portal":          2,
		"phone":           3,
		"chat":            4,
		"feedback widget": 5,
		"yammer":          6,
		"aws cloudwatch":  7,
		"pagerduty":       8,
		"walkup":          9,
		"slack":           10,
	}
)

// codeFor resolves a friendly name; absent or unknown names map to def.
func codeFor(m map[string]int, name, def string) int {
	if code, ok := m[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}
	return m[def]
}

// Tickets manages helpdesk tickets.
type Tickets struct {
	proxy
}

// NewTickets creates the ticket provider.
func NewTickets(client Doer, log logger.Logger) *Tickets {
	return &Tickets{proxy: newProxy(client, log, "ticket")}
}

func (p *Tickets) Operations() []Operation {
	id := mcp.WithNumber("id", mcp.Required(), mcp.Description("ticket ID"))
	return []Operation{
		{
			Tool: mcp.NewTool("createTicket",
				mcp.WithDescription("Raise a ticket on behalf of a requester email"),
				mcp.WithString("email", mcp.Required(), mcp.Description("requester email")),
				mcp.WithString("subject", mcp.Description("ticket subject")),
				mcp.WithString("description", mcp.Description("ticket description (HTML allowed)")),
				mcp.WithString("priority", mcp.Description("low, medium, high or urgent; default low")),
				mcp.WithString("status", mcp.Description("open, pending, resolved or closed; default open")),
			),
			Handler: p.create,
		},
		{
			Tool: mcp.NewTool("viewTicket",
				mcp.WithDescription("Fetch a ticket by ID"),
				id,
				mcp.WithString("include", mcp.Description("related data to embed, e.g. conversations,requester")),
			),
			Handler: p.view,
		},
		{
			Tool: mcp.NewTool("updateTicket",
				mcp.WithDescription("Update an existing ticket"),
				id,
				mcp.WithString("subject", mcp.Description("new subject")),
				mcp.WithString("description", mcp.Description("new description")),
				mcp.WithString("priority", mcp.Description("low, medium, high or urgent")),
				mcp.WithString("status", mcp.Description("open, pending, resolved or closed")),
				mcp.WithString("source", mcp.Description("email, portal, phone, chat, ...; default email")),
				mcp.WithArray("tags", mcp.Description("ticket tags"), mcp.Items(map[string]interface{}{"type": "string"})),
				mcp.WithBoolean("bypass_mandatory", mcp.Description("skip mandatory field validation")),
			),
			Handler: p.update,
		},
		{
			Tool:    mcp.NewTool("deleteTicket", mcp.WithDescription("Move a ticket to trash"), id),
			Handler: p.delete,
		},
		{
			Tool:    mcp.NewTool("listTickets", mcp.WithDescription("List tickets")),
			Handler: p.list,
		},
	}
}

func (p *Tickets) create(ctx context.Context, args Args) (interface{}, error) {
	email, _ := args.String("email")
	priority, _ := args.String("priority")
	status, _ := args.String("status")
	body := map[string]interface{}{
		"email":       email,
		"subject":     args.StringOr("subject", "Test Subject"),
		"description": args.StringOr("description", "Test Description"),
		"priority":    codeFor(TicketPriorities, priority, "low"),
		"status":      codeFor(TicketStatuses, status, "open"),
		"source":      TicketSources["email"],
	}
	resp, err := p.client.Post(ctx, ticketsPath, body)
	return p.result(ctx, "createTicket", resp, err)
}

func (p *Tickets) view(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("%s/%d", ticketsPath, id)
	if include, ok := args.String("include"); ok {
		path += "?include=" + url.QueryEscape(include)
	}
	resp, err := p.client.Get(ctx, path)
	return p.result(ctx, "viewTicket", resp, err)
}

func (p *Tickets) update(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	ticket := map[string]interface{}{}
	if s, ok := args.String("subject"); ok {
		ticket["subject"] = s
	}
	if s, ok := args.String("description"); ok {
		ticket["description"] = s
	}
	if s, ok := args.String("priority"); ok {
		ticket["priority"] = codeFor(TicketPriorities, s, "low")
	}
	if s, ok := args.String("status"); ok {
		ticket["status"] = codeFor(TicketStatuses, s, "open")
	}
	source, _ := args.String("source")
	ticket["source"] = codeFor(TicketSources, source, "email")
	if tags := args.Strings("tags"); tags != nil {
		ticket["tags"] = tags
	}

	path := fmt.Sprintf("%s/%d", ticketsPath, id)
	if bypass, _ := args.Bool("bypass_mandatory"); bypass {
		path += "?bypass_mandatory=true"
	}
	resp, err := p.client.Put(ctx, path, map[string]interface{}{"ticket": ticket})
	return p.result(ctx, "updateTicket", resp, err)
}

func (p *Tickets) delete(ctx context.Context, args Args) (interface{}, error) {
	id, err := args.RequireInt64("id")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Delete(ctx, fmt.Sprintf("%s/%d", ticketsPath, id), nil)
	return p.confirm(ctx, "deleteTicket", resp, err, map[string]interface{}{"ticket_id": id})
}

func (p *Tickets) list(ctx context.Context, _ Args) (interface{}, error) {
	resp, err := p.client.Get(ctx, ticketsPath)
	return p.result(ctx, "listTickets", resp, err)
}
