package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/docsync/internal/codec"
	"github.com/iudanet/docsync/internal/models"
	"github.com/iudanet/docsync/pkg/api"
)

// DefaultCompressionThreshold тела запросов больше этого размера сжимаются zstd
const DefaultCompressionThreshold = 1024

var (
	// ErrSessionExpired сервер не признал сессию (401)
	ErrSessionExpired = errors.New("session expired")
	// ErrForbidden сессия выдана для другого workspace (403)
	ErrForbidden = errors.New("workspace mismatch")
)

// ClientAPI операции протокола синхронизации, которые использует клиент
type ClientAPI interface {
	Handshake(ctx context.Context, req api.HandshakeRequest) (*api.HandshakeResponse, error)
	Pull(ctx context.Context, token string, req api.PullRequest) (*api.PullResponse, error)
	Push(ctx context.Context, token string, req api.PushRequest) (*api.PushResponse, error)
	SaveSnapshot(ctx context.Context, token string, req api.SnapshotRequest) (*api.SnapshotResponse, error)
	Logout(ctx context.Context, token string) error
}

//go:generate moq -out client_mock.go . ClientAPI

var _ ClientAPI = (*Client)(nil)

// StatusError ответ сервера с кодом вне 2xx
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrSessionExpired)
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrSessionExpired
	case http.StatusForbidden:
		return ErrForbidden
	}
	return nil
}

// Client представляет HTTP клиент для взаимодействия с сервером синхронизации
type Client struct {
	httpClient           *http.Client
	baseURL              string
	compressionThreshold int
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient подменяет http.Client (например, клиент httptest сервера)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCompressionThreshold задает порог сжатия тела запроса; 0 отключает сжатие
func WithCompressionThreshold(n int) Option {
	return func(c *Client) {
		c.compressionThreshold = n
	}
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:              strings.TrimRight(baseURL, "/"),
		compressionThreshold: DefaultCompressionThreshold,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL возвращает адрес сервера
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Handshake открывает сессию устройства в workspace
func (c *Client) Handshake(ctx context.Context, req api.HandshakeRequest) (*api.HandshakeResponse, error) {
	var resp api.HandshakeResponse
	if err := c.doRequest(ctx, "/v1/sync/handshake", "", req, &resp); err != nil {
		return nil, fmt.Errorf("handshake request failed: %w", err)
	}
	return &resp, nil
}

// Pull получает изменения scope после req.SinceEpoch
func (c *Client) Pull(ctx context.Context, token string, req api.PullRequest) (*api.PullResponse, error) {
	var resp api.PullResponse
	if err := c.doRequest(ctx, "/v1/sync/pull", token, req, &resp); err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}
	if resp.Changes == nil {
		resp.Changes = []*models.ChangeRecord{}
	}
	return &resp, nil
}

// Push отправляет пакет изменений и возвращает диапазон присвоенных эпох
func (c *Client) Push(ctx context.Context, token string, req api.PushRequest) (*api.PushResponse, error) {
	var resp api.PushResponse
	if err := c.doRequest(ctx, "/v1/sync/push", token, req, &resp); err != nil {
		return nil, fmt.Errorf("push request failed: %w", err)
	}
	return &resp, nil
}

// SaveSnapshot загружает сжатый образ реплики
func (c *Client) SaveSnapshot(ctx context.Context, token string, req api.SnapshotRequest) (*api.SnapshotResponse, error) {
	var resp api.SnapshotResponse
	if err := c.doRequest(ctx, "/v1/sync/snapshot", token, req, &resp); err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	return &resp, nil
}

// Logout отзывает сессию на сервере
func (c *Client) Logout(ctx context.Context, token string) error {
	if err := c.doRequest(ctx, "/v1/sync/logout", token, api.LogoutRequest{}, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// Health возвращает состояние сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	var resp api.HealthResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет POST запрос с JSON телом. Токен сессии передается
// в заголовке Authorization, большие тела сжимаются zstd.
func (c *Client) doRequest(ctx context.Context, path, token string, body, result any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	compressed := c.compressionThreshold > 0 && len(jsonData) > c.compressionThreshold
	if compressed {
		if jsonData, err = codec.Compress(jsonData); err != nil {
			return fmt.Errorf("failed to compress request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if compressed {
		req.Header.Set("Content-Encoding", "zstd")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	// явный Accept-Encoding отключает прозрачный gzip транспорта, ответ разжимаем сами
	req.Header.Set("Accept-Encoding", "zstd")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.Header.Get("Content-Encoding") == "zstd" && len(respBody) > 0 {
		if respBody, err = codec.Decompress(respBody); err != nil {
			return fmt.Errorf("failed to decompress response: %w", err)
		}
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Message}
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
