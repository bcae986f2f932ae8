package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/api"
)

// apiClient talks to the scene engine HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(cfg *ConsoleConfig) *apiClient {
	return &apiClient{
		baseURL: cfg.APIBaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *apiClient) testConnection() bool {
	resp, err := c.http.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// listProjects returns project titles in display order and the title to
// filename map.
func (c *apiClient) listProjects() ([]string, map[string]string, error) {
	var projectMap map[string]string
	if err := c.call(http.MethodGet, "/v1/projects", nil, http.StatusOK, &projectMap); err != nil {
		return nil, nil, fmt.Errorf("failed to list projects: %w", err)
	}

	names := make([]string, 0, len(projectMap))
	for name := range projectMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, projectMap, nil
}

func (c *apiClient) createSession(projectFile string, strict bool) (*api.SessionResponse, error) {
	req := api.CreateSessionRequest{Project: projectFile, Strict: &strict}
	var created api.SessionResponse
	if err := c.call(http.MethodPost, "/v1/sessions", req, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &created, nil
}

func (c *apiClient) sendCommand(sessionID uuid.UUID, input string) (*api.CommandResponse, error) {
	req := api.CommandRequest{Input: input}
	var resp api.CommandResponse
	path := fmt.Sprintf("/v1/sessions/%s/commands", sessionID)
	if err := c.call(http.MethodPost, path, req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) getSession(sessionID uuid.UUID) (*api.SessionResponse, error) {
	var resp api.SessionResponse
	if err := c.call(http.MethodGet, "/v1/sessions/"+sessionID.String(), nil, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &resp, nil
}

// call sends body as JSON and decodes a response with the wanted status
// into out. Other statuses surface the API's error message.
func (c *apiClient) call(method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
