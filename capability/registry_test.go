package capability

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

type stubProvider struct {
	ops []Operation
}

func (s stubProvider) Operations() []Operation { return s.ops }

// stubDoer stands in for a session client when only the operation set matters.
type stubDoer struct{}

func (stubDoer) Get(context.Context, string) (*gateway.Response, error) { return nil, nil }
func (stubDoer) Post(context.Context, string, interface{}) (*gateway.Response, error) {
	return nil, nil
}
func (stubDoer) Put(context.Context, string, interface{}) (*gateway.Response, error) {
	return nil, nil
}
func (stubDoer) Delete(context.Context, string, interface{}) (*gateway.Response, error) {
	return nil, nil
}

func echo(_ context.Context, args Args) (interface{}, error) { return args, nil }

func TestNewRegistry_RegistersAllProviders(t *testing.T) {
	log := logger.NewTestLogger()

	reg, err := NewRegistry(log, HelpdeskProviders(nil, nil, "", log)...)
	require.NoError(t, err)
	assert.Equal(t, 28, reg.Len())
	_, ok := reg.Lookup("listWorkspaces")
	assert.False(t, ok, "workspace operations need a session client")
	_, ok = reg.Lookup("getAllRoles")
	assert.False(t, ok, "role operations need a session client")

	reg, err = NewRegistry(log, HelpdeskProviders(nil, stubDoer{}, "", log)...)
	require.NoError(t, err)
	assert.Equal(t, 39, reg.Len())
	for _, name := range []string{"createRole", "deleteAllRoles", "createDepartmentFields"} {
		_, ok = reg.Lookup(name)
		assert.True(t, ok, name)
	}

	reg, err = NewRegistry(log, HelpdeskProviders(nil, nil, "", log)[0], NewWorkspaces(nil, log))
	require.NoError(t, err)
	_, ok = reg.Lookup("deleteAllNonPrimaryWorkspaces")
	assert.True(t, ok)
}

func TestRegistry_OperationsSorted(t *testing.T) {
	reg, err := NewRegistry(logger.NewTestLogger(), stubProvider{ops: []Operation{
		{Tool: mcp.NewTool("zeta"), Handler: echo},
		{Tool: mcp.NewTool("alpha"), Handler: echo},
		{Tool: mcp.NewTool("mid"), Handler: echo},
	}})
	require.NoError(t, err)

	var names []string
	for _, op := range reg.Operations() {
		names = append(names, op.Name())
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestRegistry_DuplicateOperation(t *testing.T) {
	op := Operation{Tool: mcp.NewTool("same"), Handler: echo}
	_, err := NewRegistry(logger.NewTestLogger(), stubProvider{ops: []Operation{op}}, stubProvider{ops: []Operation{op}})
	assert.ErrorIs(t, err, ErrDuplicateOperation)
}

func TestRegistry_RegisterRejectsIncomplete(t *testing.T) {
	reg, err := NewRegistry(logger.NewTestLogger())
	require.NoError(t, err)
	assert.Error(t, reg.Register(Operation{Tool: mcp.NewTool("nohandler")}))
	assert.Error(t, reg.Register(Operation{Handler: echo}))
}

func TestRegistry_Invoke(t *testing.T) {
	log := logger.NewTestLogger()
	reg, err := NewRegistry(log, stubProvider{ops: []Operation{{
		Tool:    mcp.NewTool("greet", mcp.WithString("name", mcp.Required())),
		Handler: echo,
	}}})
	require.NoError(t, err)

	t.Run("unknown", func(t *testing.T) {
		_, err := reg.Invoke(context.Background(), "missing", nil)
		assert.ErrorIs(t, err, ErrUnknownOperation)
	})

	t.Run("missing required", func(t *testing.T) {
		_, err := reg.Invoke(context.Background(), "greet", nil)
		assert.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("ok", func(t *testing.T) {
		out, err := reg.Invoke(context.Background(), "greet", Args{"name": "ada"})
		require.NoError(t, err)
		assert.Equal(t, Args{"name": "ada"}, out)
		require.NotEmpty(t, log.EntriesAt("info"))
		assert.Equal(t, "greet", log.EntriesAt("info")[0].Fields["operation"])
	})
}

func TestSchema(t *testing.T) {
	tool := mcp.NewTool("getRequester", mcp.WithNumber("id", mcp.Required(), mcp.Description("requester ID")))
	schema := Schema(tool)

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"id"}, schema["required"])
	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "id")

	bare := Schema(mcp.NewTool("listRequesters"))
	assert.NotContains(t, bare, "required")
}
