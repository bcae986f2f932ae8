package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/scene-engine/pkg/api"
)

// StatusError is returned when the API answers a command with an error.
type StatusError struct {
	Status   int
	Response api.ErrorResponse
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned %d (%s): %s", e.Status, e.Response.Kind, e.Response.Error)
}

// CreateSession starts a session for the project file
func CreateSession(ctx context.Context, client *http.Client, baseURL, projectFile string, strict *bool) (*api.SessionResponse, error) {
	var created api.SessionResponse
	req := api.CreateSessionRequest{Project: projectFile, Strict: strict}
	if err := call(ctx, client, http.MethodPost, baseURL+"/v1/sessions", req, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &created, nil
}

// SendCommand posts one line of player input
func SendCommand(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, input string) (*api.CommandResponse, error) {
	var resp api.CommandResponse
	url := fmt.Sprintf("%s/v1/sessions/%s/commands", baseURL, sessionID)
	if err := call(ctx, client, http.MethodPost, url, api.CommandRequest{Input: input}, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSession retrieves the saved session
func GetSession(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) (*api.SessionResponse, error) {
	var resp api.SessionResponse
	if err := call(ctx, client, http.MethodGet, baseURL+"/v1/sessions/"+sessionID.String(), nil, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &resp, nil
}

func call(ctx context.Context, client *http.Client, method, url string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		statusErr := &StatusError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, &statusErr.Response); err != nil {
			statusErr.Response.Error = strings.TrimSpace(string(respBody))
		}
		return statusErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
