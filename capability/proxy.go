package capability

import (
	"context"

	"github.com/hairizuan-noorazman/helpdesk-pilot/classifier"
	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

// Doer is the subset of the gateway client used by providers.
type Doer interface {
	Get(ctx context.Context, path string) (*gateway.Response, error)
	Post(ctx context.Context, path string, body interface{}) (*gateway.Response, error)
	Put(ctx context.Context, path string, body interface{}) (*gateway.Response, error)
	Delete(ctx context.Context, path string, body interface{}) (*gateway.Response, error)
}

// proxy holds the plumbing shared by all providers. HTTP errors come back
// as structured payloads; only transport failures are returned as errors.
type proxy struct {
	client Doer
	logger logger.Logger
}

func newProxy(client Doer, log logger.Logger, resource string) proxy {
	return proxy{client: client, logger: log.WithField("resource", resource)}
}

func (p proxy) result(ctx context.Context, action string, resp *gateway.Response, err error) (interface{}, error) {
	res, err := classifier.Classify(action, resp, err)
	if err != nil {
		p.logger.Error(ctx, "operation transport failure", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
		return nil, err
	}
	if res.Kind == classifier.KindHTTPError {
		p.logger.Warn(ctx, "operation returned http error", map[string]interface{}{
			"action": action,
			"status": res.StatusCode,
		})
	}
	return res.Value(), nil
}

// confirm is used for operations whose success body is empty; it keeps the
// error payload on failure and otherwise returns a confirmation with extras.
func (p proxy) confirm(ctx context.Context, action string, resp *gateway.Response, callErr error, extra map[string]interface{}) (interface{}, error) {
	if callErr != nil || !resp.IsSuccess() {
		return p.result(ctx, action, resp, callErr)
	}
	out := map[string]interface{}{"status": "success"}
	for k, v := range extra {
		out[k] = v
	}
	return out, nil
}
