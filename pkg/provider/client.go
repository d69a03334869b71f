// Package provider adapts normalized generation requests into
// provider-specific network calls. Providers form a closed set; each adapter
// satisfies the Client interface, and new providers are added as new
// adapters, never by runtime type inspection.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

// Client is the common capability interface every provider adapter satisfies.
type Client interface {
	// Name returns the provider identifier ("openai", "anthropic", ...).
	Name() string
	// Send translates the request to the provider's wire format, performs
	// the call, and parses the response into the common result shape.
	Send(ctx context.Context, req models.NormalizedRequest) (*models.ProviderResult, error)
}

// Options control call behavior shared by all adapters.
type Options struct {
	// Timeout bounds each individual call attempt.
	Timeout time.Duration
	// MaxRetries is the retry budget for transient network failures.
	MaxRetries int
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
	backoffBase    = 500 * time.Millisecond
)

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return defaultTimeout
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return http.DefaultClient
}

// postJSON performs a JSON POST with per-attempt timeout and exponential
// backoff on transient network failures. Timeouts are not retried; providers
// already spent the full budget. Non-2xx responses are classified, never
// retried here.
func postJSON(ctx context.Context, name string, opts Options, url string, headers map[string]string, payload any, timeout time.Duration) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if timeout <= 0 {
		timeout = opts.timeout()
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		respBody, err := doOnce(ctx, opts.httpClient(), url, headers, body, timeout)
		if err == nil {
			return respBody, nil
		}

		var pErr *Error
		if errors.As(err, &pErr) && pErr.Kind == KindNetwork {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%s: retries exhausted: %w", name, lastErr)
}

func doOnce(ctx context.Context, hc *http.Client, url string, headers map[string]string, body []byte, timeout time.Duration) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &Error{Kind: KindTimeout, Message: fmt.Sprintf("no response within %s", timeout)}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &Error{Kind: classifyStatus(resp.StatusCode), Message: fmt.Sprintf("status %d: %s", resp.StatusCode, msg)}
	}
	return respBody, nil
}

// tagProvider stamps the provider name onto classified errors so diagnostics
// name the endpoint that failed.
func tagProvider(name string, err error) error {
	var pErr *Error
	if errors.As(err, &pErr) && pErr.Provider == "" {
		pErr.Provider = name
	}
	return err
}
