package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"docregistry/e2e/steps/account"
	"docregistry/e2e/steps/common"
	"docregistry/e2e/steps/document"
)

// TestContext holds state between test steps.
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	stack          *Stack
	tokens         map[string]string
	lastDocumentID string
}

// NewTestContext starts an in-process stack unless BASE_URL points at a running server.
// Pinning controls and token decoding need the in-process stack.
func NewTestContext() *TestContext {
	tc := &TestContext{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     map[string]string{},
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		tc.BaseURL = strings.TrimRight(baseURL, "/")
		return tc
	}
	tc.stack = NewStack()
	tc.BaseURL = tc.stack.Server.URL
	return tc
}

func (tc *TestContext) Close() {
	if tc.stack != nil {
		tc.stack.Close()
	}
}

func (tc *TestContext) authHeaders(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// POST sends a JSON body.
func (tc *TestContext) POST(path string, body any, token string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return tc.do(http.MethodPost, path, bytes.NewReader(data), "application/json", tc.authHeaders(token))
}

// PATCH sends a JSON body.
func (tc *TestContext) PATCH(path string, body any, token string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return tc.do(http.MethodPatch, path, bytes.NewReader(data), "application/json", tc.authHeaders(token))
}

// POSTMultipart sends form fields and, when filename is non-empty, one "file" part.
func (tc *TestContext) POSTMultipart(path string, fields map[string]string, filename string, content []byte, token string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		if _, err := part.Write(content); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, &buf, w.FormDataContentType(), tc.authHeaders(token))
}

func (tc *TestContext) GET(path string, token string) error {
	return tc.do(http.MethodGet, path, nil, "", tc.authHeaders(token))
}

func (tc *TestContext) do(method, path string, body io.Reader, contentType string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// GetResponseField reads a dotted path such as "user.role" or "0.hash" from the last response.
func (tc *TestContext) GetResponseField(path string) (any, error) {
	var data any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	for _, key := range strings.Split(path, ".") {
		switch node := data.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("field %s not found in response", path)
			}
			data = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %s out of range in response", key)
			}
			data = node[i]
		default:
			return nil, fmt.Errorf("field %s not found in response", path)
		}
	}
	return data, nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

func (tc *TestContext) TokenFor(name string) string {
	return tc.tokens[name]
}

func (tc *TestContext) SetTokenFor(name, token string) {
	tc.tokens[name] = token
}

func (tc *TestContext) LastDocumentID() string {
	return tc.lastDocumentID
}

func (tc *TestContext) SetLastDocumentID(docID string) {
	tc.lastDocumentID = docID
}

func (tc *TestContext) inProcess() (*Stack, error) {
	if tc.stack == nil {
		return nil, fmt.Errorf("step needs the in-process server; unset BASE_URL")
	}
	return tc.stack, nil
}

func (tc *TestContext) SetPinningContentID(cid string) error {
	stack, err := tc.inProcess()
	if err != nil {
		return err
	}
	stack.Pinning.SetContentID(cid)
	return nil
}

func (tc *TestContext) SetPinningFailing(failing bool) error {
	stack, err := tc.inProcess()
	if err != nil {
		return err
	}
	stack.Pinning.SetFailing(failing)
	return nil
}

func (tc *TestContext) PinningUploads() (int, error) {
	stack, err := tc.inProcess()
	if err != nil {
		return 0, err
	}
	return stack.Pinning.Uploads(), nil
}

// DecodeToken validates token with the in-process signing key.
func (tc *TestContext) DecodeToken(token string) (role, name string, err error) {
	stack, err := tc.inProcess()
	if err != nil {
		return "", "", err
	}
	claims, err := stack.Tokens.ValidateToken(token)
	if err != nil {
		return "", "", err
	}
	return claims.Role, claims.Name, nil
}

var (
	_ common.TestContext   = (*TestContext)(nil)
	_ account.TestContext  = (*TestContext)(nil)
	_ document.TestContext = (*TestContext)(nil)
)
