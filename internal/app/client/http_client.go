package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"coinkeeper/internal/app/client/config"
	"coinkeeper/internal/domain/sync"
	"coinkeeper/internal/domain/user"
)

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &httpClient{
		client:    client,
		log:       log.With("module", "http_client"),
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "Coinkeeper-Client/1.0",
	}
}

// SetToken attaches the bearer token to every subsequent request.
func (h *httpClient) SetToken(token string) {
	h.token = token
}

// HealthCheck verifies the server is reachable.
func (h *httpClient) HealthCheck(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) Register(ctx context.Context, login, password string) error {
	req := user.BaseRequest{Login: login, Password: password}

	resp, err := h.doRequest(ctx, http.MethodPost, "/user/register", req)
	if err != nil {
		return err
	}

	var registerResp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := h.parseResponse(resp, &registerResp); err != nil {
		return err
	}
	if registerResp.Status != "Ok" {
		return fmt.Errorf("registration failed: %s", registerResp.Error)
	}
	return nil
}

func (h *httpClient) Login(ctx context.Context, login, password string) (string, error) {
	req := user.BaseRequest{Login: login, Password: password}

	resp, err := h.doRequest(ctx, http.MethodPost, "/user/login", req)
	if err != nil {
		return "", err
	}

	var loginResp struct {
		Token  string `json:"token"`
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := h.parseResponse(resp, &loginResp); err != nil {
		return "", err
	}
	if loginResp.Status != "Ok" || loginResp.Token == "" {
		return "", fmt.Errorf("login failed: %s", loginResp.Error)
	}

	h.SetToken(loginResp.Token)
	return loginResp.Token, nil
}

// Sync performs one round trip against the sync endpoint.
func (h *httpClient) Sync(ctx context.Context, req sync.SyncRequest) (*sync.SyncResponse, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/sync", req)
	if err != nil {
		return nil, err
	}

	var syncResp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
		sync.SyncResponse
	}
	if err := h.parseResponse(resp, &syncResp); err != nil {
		return nil, err
	}
	if syncResp.Status != "Ok" {
		return nil, fmt.Errorf("sync rejected: %s", syncResp.Error)
	}

	return &syncResp.SyncResponse, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("sending request", "method", method, "url", req.URL.String())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	h.log.Debug("received response", "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	return nil
}
