// Package upstream builds the shared request/response pipeline every
// exchange client (catalog, CLOB, trades, price history) rides on: URL
// construction with sorted query parameters, optional L2 signing, a
// minimal schema check, and apierr classification. Retrying is the
// caller's job — this layer makes exactly one attempt per call.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/predimarket/indexer/internal/apierr"
	"github.com/predimarket/indexer/internal/upstream/auth"
)

// Requester is the shared HTTP entry point for upstream clients.
type Requester struct {
	client  *http.Client
	baseURL string
	signer  *auth.Signer
	timeout time.Duration
}

func NewRequester(client *http.Client, baseURL string, signer *auth.Signer, timeout time.Duration) *Requester {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Requester{client: client, baseURL: baseURL, signer: signer, timeout: timeout}
}

// RequiredFields is a minimal stand-in for JSON-Schema validation: it only
// asserts that the named top-level keys are present in the decoded body.
type RequiredFields []string

// Get issues a signed, timed GET against path with the given query params
// (sorted before signing so the signature is deterministic regardless of
// map iteration order) and decodes the JSON body into out.
func (r *Requester) Get(ctx context.Context, path string, query map[string]string, required RequiredFields, out interface{}) error {
	return r.do(ctx, http.MethodGet, path, query, nil, required, out)
}

func (r *Requester) do(ctx context.Context, method, path string, query map[string]string, body []byte, required RequiredFields, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	full, err := r.buildURL(path, query)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}

	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, full.String(), bodyReader)
	if err != nil {
		return &apierr.NetworkError{Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	r.signer.Sign(req, body)

	resp, err := r.client.Do(req)
	if classified := apierr.Classify(resp, err); classified != nil {
		return classified
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apierr.NetworkError{Cause: err}
	}

	if out == nil {
		return nil
	}

	var asMap map[string]interface{}
	if len(required) > 0 {
		if err := json.Unmarshal(raw, &asMap); err != nil {
			return &apierr.ValidationError{Issues: []string{"body is not a JSON object: " + err.Error()}}
		}
		if issues := missingFields(asMap, required); len(issues) > 0 {
			return &apierr.ValidationError{Issues: issues}
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &apierr.ValidationError{Issues: []string{"decode failed: " + err.Error()}}
	}
	return nil
}

func (r *Requester) buildURL(path string, query map[string]string) (*url.URL, error) {
	full, err := url.Parse(r.baseURL + path)
	if err != nil {
		return nil, err
	}
	if len(query) == 0 {
		return full, nil
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		values.Set(k, query[k])
	}
	full.RawQuery = values.Encode()
	return full, nil
}

func missingFields(m map[string]interface{}, required []string) []string {
	var issues []string
	for _, f := range required {
		if _, ok := m[f]; !ok {
			issues = append(issues, "missing field: "+f)
		}
	}
	return issues
}
