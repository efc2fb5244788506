package capability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/helpdesk-pilot/classifier"
	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
	"github.com/hairizuan-noorazman/helpdesk-pilot/internal/helpdesktest"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

type fixture struct {
	srv *helpdesktest.Server
	reg *Registry
	log *logger.TestLogger
}

func setup(t *testing.T) fixture {
	t.Helper()
	srv := helpdesktest.New(t, helpdesktest.Options{})
	opts := srv.Options()
	log := logger.NewTestLogger()

	api, err := gateway.NewAPIKeyClient(gateway.Config{}, opts.APIKey, log, gateway.WithBaseURL(srv.APIBaseURL()))
	require.NoError(t, err)
	session, err := gateway.NewSessionClient(context.Background(), gateway.Config{}, opts.Email, opts.Password, log,
		gateway.WithBaseURL(srv.APIBaseURL()))
	require.NoError(t, err)

	reg, err := NewRegistry(log, HelpdeskProviders(api, session, "", log)...)
	require.NoError(t, err)
	return fixture{srv: srv, reg: reg, log: log}
}

func (f fixture) invoke(t *testing.T, name string, args Args) interface{} {
	t.Helper()
	out, err := f.reg.Invoke(context.Background(), name, args)
	require.NoError(t, err)
	return out
}

func lastBody(t *testing.T, srv *helpdesktest.Server, method string) map[string]interface{} {
	t.Helper()
	req, ok := srv.LastRequest(method)
	require.True(t, ok)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	return body
}

func requireErrorPayload(t *testing.T, out interface{}, action string, code int) {
	t.Helper()
	payload, ok := out.(*classifier.ErrorPayload)
	require.True(t, ok, "expected error payload, got %T", out)
	assert.Equal(t, action+" failed", payload.Error)
	assert.Equal(t, code, payload.Code)
}

func TestRequesters_Lifecycle(t *testing.T) {
	f := setup(t)

	out := f.invoke(t, "createRequester", Args{
		"first_name":     "Ada",
		"primary_email":  "ada@example.com",
		"job_title":      "Engineer",
		"department_ids": []interface{}{float64(5)},
	})
	created := out.(map[string]interface{})["requester"].(map[string]interface{})
	assert.Equal(t, "Ada", created["first_name"])
	assert.NotContains(t, created, "last_name")
	id := created["id"]

	out = f.invoke(t, "updateRequester", Args{"id": id, "fields": map[string]interface{}{"job_title": "Lead"}})
	updated := out.(map[string]interface{})["requester"].(map[string]interface{})
	assert.Equal(t, "Lead", updated["job_title"])

	out = f.invoke(t, "getRequester", Args{"id": id})
	assert.Contains(t, out.(map[string]interface{}), "requester")

	out = f.invoke(t, "forgetRequester", Args{"id": id})
	assert.Equal(t, "success", out.(map[string]interface{})["status"])
	assert.Equal(t, 0, f.srv.Count("requesters"))
}

func TestRequesters_CreateRejectsBadTimeFormat(t *testing.T) {
	f := setup(t)
	_, err := f.reg.Invoke(context.Background(), "createRequester", Args{
		"first_name":    "Ada",
		"primary_email": "ada@example.com",
		"time_format":   "36h",
	})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, 0, f.srv.Count("requesters"))
}

func TestRequesters_ForgetMissingReturnsPayload(t *testing.T) {
	f := setup(t)

	out := f.invoke(t, "forgetRequester", Args{"id": float64(424242)})
	requireErrorPayload(t, out, "forgetRequester", http.StatusNotFound)
	assert.NotEmpty(t, f.log.EntriesAt("warn"))
}

func TestRequesters_MergeAndConvert(t *testing.T) {
	f := setup(t)
	primary := f.srv.Seed("requesters", map[string]interface{}{"first_name": "P"})
	secondary := f.srv.Seed("requesters", map[string]interface{}{"first_name": "S"})
	other := f.srv.Seed("requesters", map[string]interface{}{"first_name": "O"})

	f.invoke(t, "mergeRequesters", Args{
		"primary_id":    float64(primary),
		"secondary_ids": []interface{}{float64(secondary)},
	})
	body := lastBody(t, f.srv, http.MethodPost)
	assert.Equal(t, float64(primary), body["primary_requester"])
	assert.Equal(t, 2, f.srv.Count("requesters"))

	out := f.invoke(t, "convertRequesterToAgent", Args{"id": float64(other)})
	assert.Contains(t, out.(map[string]interface{}), "agent")
	assert.Equal(t, 1, f.srv.Count("agents"))

	out = f.invoke(t, "listRequesterFields", nil)
	assert.Contains(t, out.(map[string]interface{}), "requester_fields")
}

func TestDepartments_Lifecycle(t *testing.T) {
	f := setup(t)

	out := f.invoke(t, "createDepartment", Args{"name": "Ops", "head_user_id": float64(0)})
	body := lastBody(t, f.srv, http.MethodPost)
	assert.NotContains(t, body["department"], "head_user_id")
	dept := out.(map[string]interface{})["department"].(map[string]interface{})

	out = f.invoke(t, "updateDepartment", Args{"id": dept["id"], "name": "Platform"})
	assert.Equal(t, "Platform", out.(map[string]interface{})["department"].(map[string]interface{})["name"])

	out = f.invoke(t, "deleteDepartment", Args{"id": dept["id"]})
	assert.Equal(t, map[string]interface{}{
		"status":        "success",
		"message":       "Department deleted successfully",
		"department_id": int64(dept["id"].(float64)),
	}, out)

	out = f.invoke(t, "getDepartment", Args{"id": dept["id"]})
	requireErrorPayload(t, out, "getDepartment", http.StatusNotFound)
}

func TestAgents_Lifecycle(t *testing.T) {
	f := setup(t)

	out := f.invoke(t, "createAgent", Args{"email": "agent@example.com"})
	agent := out.(map[string]interface{})["agent"].(map[string]interface{})
	assert.Regexp(t, `^TestAgent`, agent["first_name"])
	id := agent["id"]

	out = f.invoke(t, "deactivateAgent", Args{"id": id})
	assert.Equal(t, map[string]interface{}{"status": "success", "code": http.StatusNoContent}, out)

	out = f.invoke(t, "reactivateAgent", Args{"id": id})
	assert.Equal(t, true, out.(map[string]interface{})["agent"].(map[string]interface{})["active"])

	out = f.invoke(t, "convertAgentToRequester", Args{"id": id})
	assert.Contains(t, out.(map[string]interface{}), "requester")
	assert.Equal(t, 0, f.srv.Count("agents"))
}

func TestAgents_DeactivateMissingReturnsPayload(t *testing.T) {
	f := setup(t)
	out := f.invoke(t, "deactivateAgent", Args{"id": float64(9)})
	requireErrorPayload(t, out, "deactivateAgent", http.StatusNotFound)

	out = f.invoke(t, "forgetAgent", Args{"id": float64(9)})
	requireErrorPayload(t, out, "forgetAgent", http.StatusNotFound)
}

func TestAgents_ListFilters(t *testing.T) {
	f := setup(t)
	f.invoke(t, "listAgents", Args{"filters": map[string]interface{}{"email": "a@b.com", "active": true}})
	reqs := f.srv.Requests()
	assert.Equal(t, "/api/v2/agents", reqs[len(reqs)-1].Path)
}

func TestTickets_CodeMapping(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]int
		in   string
		def  string
		want int
	}{
		{"known priority", TicketPriorities, "Urgent", "low", 4},
		{"absent priority", TicketPriorities, "", "low", 1},
		{"unknown status", TicketStatuses, "frozen", "open", 2},
		{"multi word source", TicketSources, "feedback widget", "email", 5},
		{"slack", TicketSources, "slack", "email", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codeFor(tt.m, tt.in, tt.def))
		})
	}
}

func TestTickets_Lifecycle(t *testing.T) {
	f := setup(t)

	out := f.invoke(t, "createTicket", Args{"email": "ada@example.com", "priority": "high"})
	body := lastBody(t, f.srv, http.MethodPost)
	assert.Equal(t, "Test Subject", body["subject"])
	assert.Equal(t, float64(3), body["priority"])
	assert.Equal(t, float64(2), body["status"])
	ticket := out.(map[string]interface{})["ticket"].(map[string]interface{})

	f.invoke(t, "updateTicket", Args{"id": ticket["id"], "status": "resolved", "tags": []interface{}{"x"}, "bypass_mandatory": true})
	update := lastBody(t, f.srv, http.MethodPut)["ticket"].(map[string]interface{})
	assert.Equal(t, float64(4), update["status"])
	assert.Equal(t, float64(1), update["source"])
	assert.NotContains(t, update, "priority")

	out = f.invoke(t, "viewTicket", Args{"id": ticket["id"], "include": "conversations"})
	assert.Contains(t, out.(map[string]interface{}), "ticket")

	out = f.invoke(t, "deleteTicket", Args{"id": ticket["id"]})
	assert.Equal(t, "success", out.(map[string]interface{})["status"])

	out = f.invoke(t, "listTickets", nil)
	assert.Empty(t, out.(map[string]interface{})["tickets"])
}

func TestWorkspaces_CreateAndArchive(t *testing.T) {
	f := setup(t)

	f.invoke(t, "createWorkspace", Args{"name": "Facilities"})
	body := lastBody(t, f.srv, http.MethodPost)
	assert.Equal(t, "hr", body["workspace"].(map[string]interface{})["template_type"])
	assert.Equal(t, "Issue", body["meta"].(map[string]interface{})["ticket_type"])
	f.invoke(t, "createWorkspace", nil)

	out := f.invoke(t, "deleteAllNonPrimaryWorkspaces", nil)
	result := out.(map[string]interface{})
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, 2, result["archived_count"])

	put, ok := f.srv.LastRequest(http.MethodPut)
	require.True(t, ok)
	assert.NotEmpty(t, put.CSRF)
	assert.JSONEq(t, `{"state":"archived"}`, put.Body)
}

func TestWorkspaces_RandomName(t *testing.T) {
	f := setup(t)
	out := f.invoke(t, "createOrGenerateOrRandomOrWorkspaceName", nil)
	assert.Regexp(t, regexp.MustCompile(`^workspace_[A-Za-z0-9]{8}$`), out)
}

func TestRoles_Lifecycle(t *testing.T) {
	f := setup(t)

	out := f.invoke(t, "createRole", Args{"role": map[string]interface{}{"name": "Auditor", "description": "read only"}})
	role := out.(map[string]interface{})["role"].(map[string]interface{})
	post, ok := f.srv.LastRequest(http.MethodPost)
	require.True(t, ok)
	assert.Equal(t, "/api/admin/roles", post.Path)
	assert.NotEmpty(t, post.CSRF)

	out = f.invoke(t, "getRoleByName", Args{"name": "auditor"})
	assert.Equal(t, role["id"], out.(map[string]interface{})["id"])

	out = f.invoke(t, "updateRole", Args{"id": role["id"], "fields": map[string]interface{}{"description": "audits"}})
	assert.Equal(t, "audits", out.(map[string]interface{})["role"].(map[string]interface{})["description"])

	out = f.invoke(t, "deleteRole", Args{"name_or_id": "AUDITOR"})
	assert.Equal(t, map[string]interface{}{
		"status":  "success",
		"message": "Role deleted successfully",
		"role_id": int64(role["id"].(float64)),
	}, out)
	assert.Zero(t, f.srv.Count("roles"))
}

func TestRoles_MissingRoleReturnsPayload(t *testing.T) {
	f := setup(t)

	out := f.invoke(t, "getRoleByName", Args{"name": "Ghost"})
	assert.Equal(t, map[string]interface{}{"error": "role not found", "name": "Ghost"}, out)

	out = f.invoke(t, "deleteRole", Args{"name_or_id": "Ghost"})
	assert.Equal(t, map[string]interface{}{"error": "role not found", "name": "Ghost"}, out)

	out = f.invoke(t, "deleteRole", Args{"name_or_id": "424242"})
	requireErrorPayload(t, out, "deleteRole", http.StatusNotFound)
}

func TestRoles_DeleteAll(t *testing.T) {
	f := setup(t)
	f.srv.Seed("roles", map[string]interface{}{"name": "Auditor"})
	f.srv.Seed("roles", map[string]interface{}{"name": "Manager"})

	out := f.invoke(t, "deleteAllRoles", nil)
	assert.Equal(t, map[string]interface{}{"status": "success", "deleted_count": 2}, out)
	assert.Zero(t, f.srv.Count("roles"))
}

func TestRoles_CreateRejectsNonObject(t *testing.T) {
	f := setup(t)
	_, err := f.reg.Invoke(context.Background(), "createRole", Args{"role": "Auditor"})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDepartmentFields_CreateSendsForm(t *testing.T) {
	f := setup(t)

	out := f.invoke(t, "createDepartmentFields", Args{"label": "Cost Center", "required": true})
	created := out.(map[string]interface{})["department_fields"].([]interface{})
	require.Len(t, created, 1)
	assert.Equal(t, 1, f.srv.Count("department_fields"))

	post, ok := f.srv.LastRequest(http.MethodPost)
	require.True(t, ok)
	assert.Equal(t, "/admin/department_fields", post.Path)
	assert.Equal(t, "application/x-www-form-urlencoded", post.ContentType)
	assert.NotEmpty(t, post.CSRF)

	form, err := url.ParseQuery(post.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"type": "text",
		"label": "Cost Center",
		"field_type": "custom_text",
		"id": null,
		"field_options": null,
		"action": "create",
		"custom_field_choices_attributes": [],
		"required": true
	}]`, form.Get("jsonData"))
}

func TestEmails_Generate(t *testing.T) {
	p := NewEmails("")
	p.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	assert.Equal(t, "testuser_20240309_140507@yopmail.com", p.Generate())

	custom := NewEmails("mailinator.com")
	assert.Regexp(t, `^testuser_\d{8}_\d{6}@mailinator\.com$`, custom.Generate())
}
