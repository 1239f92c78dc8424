package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds and executes one HTTP call.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string) (*Response, error)

	SetBody(body any) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetResult(result any) Request
}

// Response wraps http.Response with the drained body.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the response body.
func (r *Response) Body() []byte {
	return r.body
}

// String returns the response body as a string.
func (r *Response) String() string {
	return string(r.body)
}

// IsError reports whether the status code is 400 or above.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// IsSuccess reports whether the status code is below 400.
func (r *Response) IsSuccess() bool {
	return r.StatusCode < 400
}

type requestBuilder struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	headers        map[string]string
	query          url.Values
	body           any
	result         any
}

func (r *requestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, path)
}

func (r *requestBuilder) Post(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, path)
}

// SetBody sets the request body. Structs and maps are JSON encoded.
func (r *requestBuilder) SetBody(body any) Request {
	r.body = body
	return r
}

// SetHeader sets one request header.
func (r *requestBuilder) SetHeader(key, value string) Request {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

// SetQueryParam sets one query parameter.
func (r *requestBuilder) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

// SetResult sets the destination for JSON decoding of a success response.
func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) execute(ctx context.Context, method, path string) (*Response, error) {
	ctx, span := r.tracer.Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", path),
			attribute.String("provider", r.providerName),
		),
	)
	defer span.End()

	fullURL, err := r.buildURL(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad url")
		return nil, err
	}

	bodyReader, err := r.encodeBody()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, err
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.count(ctx, false)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		r.count(ctx, false)
		return nil, fmt.Errorf("read response body: %w", err)
	}

	response := &Response{Response: resp, body: body}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	// The result is only decoded for success responses; error bodies stay
	// raw so callers can inspect them. A malformed success body is an error.
	if r.result != nil && response.IsSuccess() && len(body) > 0 {
		if err := json.Unmarshal(body, r.result); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode result")
			r.count(ctx, false)
			return response, fmt.Errorf("decode response body: %w", err)
		}
	}

	r.count(ctx, response.IsSuccess())
	return response, nil
}

func (r *requestBuilder) buildURL(path string) (string, error) {
	full := path
	if r.baseURL != "" && !strings.HasPrefix(path, "http") {
		full = strings.TrimSuffix(r.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", full, err)
	}
	if len(r.query) > 0 {
		q := u.Query()
		for k, vs := range r.query {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (r *requestBuilder) encodeBody() (io.Reader, error) {
	switch b := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		if r.headers == nil {
			r.headers = make(map[string]string)
		}
		if _, ok := r.headers["Content-Type"]; !ok {
			r.headers["Content-Type"] = "application/json"
		}
		return bytes.NewReader(encoded), nil
	}
}

func (r *requestBuilder) count(ctx context.Context, success bool) {
	r.requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", r.providerName),
		attribute.Bool("success", success),
	))
}
