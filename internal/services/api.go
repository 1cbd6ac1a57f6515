// API service for making raw HTTP requests to the Apple Music API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIService performs raw, authenticated HTTP requests against the Apple
// Music API. It backs the `api` debugging command; the typed endpoints live
// on [CatalogService].
type APIService struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
}

// NewAPIService creates a raw API client.
func NewAPIService(baseURL string, tokens TokenProvider, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = appleMusicBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

// Delete performs a DELETE request to the specified path and returns the raw response.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodDelete, path, nil)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := a.authorize(req, path); err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func (a *APIService) authorize(req *http.Request, path string) error {
	if a.tokens == nil {
		return nil
	}

	developerToken, err := a.tokens.DeveloperToken()
	if err != nil {
		return fmt.Errorf("failed to load developer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+developerToken)

	if strings.HasPrefix(path, "/me/") {
		userToken, err := a.tokens.UserToken()
		if err != nil {
			return fmt.Errorf("failed to load user token: %w", err)
		}
		req.Header.Set("Music-User-Token", userToken)
	}

	return nil
}
