package classifier

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_StatusRanges(t *testing.T) {
	for status := 100; status < 600; status++ {
		res, err := Classify("probe", &gateway.Response{StatusCode: status, Body: []byte(`{"a":1}`)}, nil)
		require.NoError(t, err)

		if status >= 200 && status < 300 {
			assert.NotEqual(t, KindHTTPError, res.Kind, "status %d", status)
			assert.True(t, res.Kind.IsSuccess())
		} else {
			assert.NotEqual(t, KindOK, res.Kind, "status %d", status)
			assert.Equal(t, KindHTTPError, res.Kind)
		}
	}
}

func TestClassify_OK(t *testing.T) {
	res, err := Classify("getRequester", &gateway.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"requester":{"id":7,"first_name":"Ann"}}`),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindOK, res.Kind)

	payload, ok := res.Payload.(map[string]interface{})
	require.True(t, ok)
	requester := payload["requester"].(map[string]interface{})
	assert.Equal(t, "Ann", requester["first_name"])
}

func TestClassify_NonJSONBody(t *testing.T) {
	res, err := Classify("ping", &gateway.Response{StatusCode: http.StatusOK, Body: []byte("pong")}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindOK, res.Kind)
	assert.Equal(t, "pong", res.Payload)
}

func TestClassify_Empty(t *testing.T) {
	res, err := Classify("deleteRequester", &gateway.Response{StatusCode: http.StatusNoContent}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindEmptyResponse, res.Kind)
	assert.Nil(t, res.Payload)
	assert.Equal(t, map[string]interface{}{"status": "success", "code": http.StatusNoContent}, res.Value())
}

func TestClassify_HTTPError(t *testing.T) {
	res, err := Classify("forgetAgent", &gateway.Response{
		StatusCode: http.StatusForbidden,
		Body:       []byte(`{"code":"access_denied"}`),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindHTTPError, res.Kind)

	payload, ok := res.Payload.(*ErrorPayload)
	require.True(t, ok)
	assert.Equal(t, "forgetAgent failed", payload.Error)
	assert.Equal(t, "forgetAgent", payload.Action)
	assert.Equal(t, http.StatusForbidden, payload.Code)
	assert.Equal(t, map[string]interface{}{"code": "access_denied"}, payload.Details)
}

func TestClassify_TransportError(t *testing.T) {
	cause := fmt.Errorf("%w: dial tcp: refused", gateway.ErrTransport)
	res, err := Classify("listAgents", nil, cause)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrTransport))
	assert.Equal(t, KindTransportError, res.Kind)

	res, err = Classify("listAgents", nil, nil)
	require.Error(t, err)
	assert.Equal(t, KindTransportError, res.Kind)
}
