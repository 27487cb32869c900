package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/infrastructure/telemetry"
)

// ErrInvalidResponse is returned when a successful response cannot be decoded
var ErrInvalidResponse = errors.New("erp: invalid response")

// RequestRecorder records the duration and status of ERP calls
type RequestRecorder interface {
	RecordERPRequest(ctx context.Context, operation, docType string, statusCode int, duration time.Duration)
}

// Client is the REST adapter for the ERP.
// A Client carries one tenant's credentials and is never shared across tenants.
type Client struct {
	tenantID        uuid.UUID
	baseURL         string
	authorization   string
	userAgent       string
	maxResponseSize int64
	httpClient      *http.Client
	recorder        RequestRecorder
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRequestRecorder records request metrics
func WithRequestRecorder(r RequestRecorder) ClientOption {
	return func(c *Client) {
		c.recorder = r
	}
}

// NewClient creates a client bound to the tenant's credentials
func NewClient(cfg *erpsync.ERPConfig, clientCfg ClientConfig, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, erpsync.ErrConfigNotFound
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clientCfg = clientCfg.withDefaults()
	if err := clientCfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		tenantID:        cfg.TenantID,
		baseURL:         cfg.NormalizedBaseURL(),
		authorization:   cfg.AuthorizationHeader(),
		userAgent:       clientCfg.UserAgent,
		maxResponseSize: clientCfg.MaxResponseSize,
		httpClient:      &http.Client{Timeout: clientCfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TenantID returns the tenant whose credentials the client carries
func (c *Client) TenantID() uuid.UUID {
	return c.tenantID
}

// ---------------------------------------------------------------------------
// Resource operations
// ---------------------------------------------------------------------------

// Create creates a document and returns its native name
func (c *Client) Create(ctx context.Context, docType string, payload erpsync.Document) (*erpsync.CreateResult, error) {
	body, err := c.do(ctx, "create", docType, http.MethodPost, resourcePath+url.PathEscape(docType), nil, payload)
	if err != nil {
		return nil, err
	}
	doc, err := decodeData(body)
	if err != nil {
		return nil, err
	}
	name := doc.NativeName()
	if name == "" {
		return nil, fmt.Errorf("%w: created %s has no name", ErrInvalidResponse, docType)
	}
	return &erpsync.CreateResult{Name: name, Raw: doc}, nil
}

// Update applies a partial payload to an existing document
func (c *Client) Update(ctx context.Context, docType, name string, payload erpsync.Document) (erpsync.Document, error) {
	body, err := c.do(ctx, "update", docType, http.MethodPut, documentPath(docType, name), nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeData(body)
}

// Get fetches a document by native name
func (c *Client) Get(ctx context.Context, docType, name string) (erpsync.Document, error) {
	body, err := c.do(ctx, "get", docType, http.MethodGet, documentPath(docType, name), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeData(body)
}

// FindByExternalID looks up a document by its external ID field.
// An empty result is not an error: it returns (nil, nil).
func (c *Client) FindByExternalID(ctx context.Context, docType, externalID string) (erpsync.Document, error) {
	filters, err := json.Marshal([][]string{{erpsync.ExternalIDField, externalIDOperator, externalID}})
	if err != nil {
		return nil, fmt.Errorf("erp: failed to marshal filters: %w", err)
	}
	query := url.Values{}
	query.Set("filters", string(filters))
	query.Set("fields", `["*"]`)
	query.Set("limit_page_length", "1")

	body, err := c.do(ctx, "find_by_external_id", docType, http.MethodGet, resourcePath+url.PathEscape(docType), query, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []erpsync.Document `json:"data"`
	}
	if err := unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 {
		return nil, nil
	}
	return envelope.Data[0], nil
}

// ---------------------------------------------------------------------------
// Method operations
// ---------------------------------------------------------------------------

// InvokeAction applies a workflow action to a document
func (c *Client) InvokeAction(ctx context.Context, doc erpsync.Document, action string) (erpsync.Document, error) {
	docType := doc.String(erpsync.DocTypeField)
	payload := map[string]any{
		"doc":    doc,
		"action": action,
	}
	body, err := c.do(ctx, "invoke_action", docType, http.MethodPost, applyWorkflowPath, nil, payload)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Message erpsync.Document `json:"message"`
	}
	if err := unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Message == nil {
		return nil, fmt.Errorf("%w: action %s returned no document", ErrInvalidResponse, action)
	}
	return envelope.Message, nil
}

// Ping verifies the credentials and returns the logged-in user
func (c *Client) Ping(ctx context.Context) (string, error) {
	body, err := c.do(ctx, "ping", "", http.MethodGet, loggedUserPath, nil, nil)
	if err != nil {
		return "", err
	}
	var envelope struct {
		Message string `json:"message"`
	}
	if err := unmarshal(body, &envelope); err != nil {
		return "", err
	}
	return envelope.Message, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// do performs one authenticated request and returns the response body.
// Error statuses and transport failures come back as typed ERP errors.
func (c *Client) do(ctx context.Context, operation, docType, method, path string, query url.Values, payload any) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "erp."+operation,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, c.tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentType, docType),
		telemetry.WithAttribute("http.method", method),
	)
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		if c.recorder != nil {
			c.recorder.RecordERPRequest(ctx, operation, docType, status, time.Since(start))
		}
	}()

	var reader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("erp: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("erp: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := classifyTransportError(err)
		telemetry.RecordError(span, classified)
		return nil, classified
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	telemetry.SetAttribute(span, "http.status_code", status)

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		classified := classifyTransportError(err)
		telemetry.RecordError(span, classified)
		return nil, classified
	}

	if resp.StatusCode >= 400 {
		classified := classifyStatus(resp.StatusCode, body)
		telemetry.RecordError(span, classified)
		return nil, classified
	}
	return body, nil
}

// documentPath builds /api/resource/<DocType>/<name>
func documentPath(docType, name string) string {
	return resourcePath + url.PathEscape(docType) + "/" + url.PathEscape(name)
}

// decodeData unwraps the {"data": {...}} envelope
func decodeData(body []byte) (erpsync.Document, error) {
	var envelope struct {
		Data erpsync.Document `json:"data"`
	}
	if err := unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrInvalidResponse)
	}
	return envelope.Data, nil
}

// unmarshal decodes JSON keeping numbers exact
func unmarshal(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// Interface compliance check
var _ erpsync.Connector = (*Client)(nil)
