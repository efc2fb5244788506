package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

// The admin form endpoint takes a form-encoded jsonData field holding the
// list of field changes.
const departmentFieldsPath = "/admin/department_fields"

// DepartmentFields adds custom fields to the department form.
type DepartmentFields struct {
	proxy
}

// NewDepartmentFields creates the department field provider. client should
// be a session mode gateway client.
func NewDepartmentFields(client Doer, log logger.Logger) *DepartmentFields {
	return &DepartmentFields{proxy: newProxy(client, log, "department_field")}
}

func (p *DepartmentFields) Operations() []Operation {
	return []Operation{
		{
			Tool: mcp.NewTool("createDepartmentFields",
				mcp.WithDescription("Add a custom field to the department form"),
				mcp.WithString("label", mcp.Description("field label, default is 'STF'")),
				mcp.WithString("type", mcp.Description("field type, default is 'text'")),
				mcp.WithBoolean("required", mcp.Description("whether the field is mandatory")),
			),
			Handler: p.create,
		},
	}
}

type fieldChange struct {
	Type                         string        `json:"type"`
	Label                        string        `json:"label"`
	FieldType                    string        `json:"field_type"`
	ID                           *int64        `json:"id"`
	FieldOptions                 interface{}   `json:"field_options"`
	Action                       string        `json:"action"`
	CustomFieldChoicesAttributes []interface{} `json:"custom_field_choices_attributes"`
	Required                     bool          `json:"required"`
}

func (p *DepartmentFields) create(ctx context.Context, args Args) (interface{}, error) {
	kind := args.StringOr("type", "text")
	required, _ := args.Bool("required")
	change := fieldChange{
		Type:                         kind,
		Label:                        args.StringOr("label", "STF"),
		FieldType:                    "custom_" + kind,
		Action:                       "create",
		CustomFieldChoicesAttributes: []interface{}{},
		Required:                     required,
	}
	data, err := json.Marshal([]fieldChange{change})
	if err != nil {
		return nil, fmt.Errorf("encode department field: %w", err)
	}

	resp, err := p.client.Post(ctx, departmentFieldsPath, url.Values{"jsonData": {string(data)}})
	return p.result(ctx, "createDepartmentFields", resp, err)
}
