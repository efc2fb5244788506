// Package classifier normalizes gateway responses into a success payload or
// a structured error payload. HTTP failure statuses never become Go errors;
// only transport failures do.
package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
)

// Kind is the taxonomy tag of a classified response.
type Kind string

const (
	KindOK             Kind = "ok"
	KindHTTPError      Kind = "http_error"
	KindTransportError Kind = "transport_error"
	KindEmptyResponse  Kind = "empty_response"
)

// IsSuccess reports whether the kind represents a 2xx outcome.
func (k Kind) IsSuccess() bool {
	return k == KindOK || k == KindEmptyResponse
}

// ErrorPayload is the structured payload synthesized for non-2xx responses.
type ErrorPayload struct {
	Error   string      `json:"error"`
	Action  string      `json:"action"`
	Code    int         `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// Result is the classified outcome of one call.
type Result struct {
	Kind       Kind
	Action     string
	StatusCode int
	// Payload is the decoded body for KindOK, an *ErrorPayload for
	// KindHTTPError and nil otherwise.
	Payload interface{}
	Raw     []byte
}

// Classify converts a gateway response into a Result. A non-nil err is a
// transport failure: the Result is tagged KindTransportError and the error
// is returned wrapped so the caller treats the call as failed.
func Classify(action string, resp *gateway.Response, err error) (Result, error) {
	if err != nil {
		return Result{Kind: KindTransportError, Action: action}, fmt.Errorf("%s: %w", action, err)
	}
	if resp == nil {
		return Result{Kind: KindTransportError, Action: action}, fmt.Errorf("%s: %w: no response", action, gateway.ErrTransport)
	}

	res := Result{Action: action, StatusCode: resp.StatusCode, Raw: resp.Body}
	body := bytes.TrimSpace(resp.Body)

	if !resp.IsSuccess() {
		res.Kind = KindHTTPError
		payload := &ErrorPayload{
			Error:  action + " failed",
			Action: action,
			Code:   resp.StatusCode,
		}
		if len(body) > 0 {
			payload.Details = decode(body)
		}
		res.Payload = payload
		return res, nil
	}

	if len(body) == 0 {
		res.Kind = KindEmptyResponse
		return res, nil
	}

	res.Kind = KindOK
	res.Payload = decode(body)
	return res, nil
}

// decode parses JSON, falling back to the raw text for non-JSON bodies.
func decode(body []byte) interface{} {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

// Value returns the payload to hand back to the execution agent. Empty
// successes become {"status": "success"} so the agent sees a confirmation.
func (r Result) Value() interface{} {
	switch r.Kind {
	case KindEmptyResponse:
		return map[string]interface{}{"status": "success", "code": r.StatusCode}
	default:
		return r.Payload
	}
}
