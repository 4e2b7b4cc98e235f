package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/pkg/api"
)

// ErrUnauthorized сервер отклонил токен
var ErrUnauthorized = errors.New("unauthorized")

// Error ответ сервера с кодом ошибки
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap дает ErrUnauthorized для 401
func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
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
}

// WithToken возвращает копию клиента с access token
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// BaseURL адрес сервера
func (c *Client) BaseURL() string { return c.baseURL }

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// ListBoards доски текущего пользователя
func (c *Client) ListBoards(ctx context.Context) ([]*models.Board, error) {
	var boards []*models.Board
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/boards", nil, &boards); err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

// CreateBoard создает доску
func (c *Client) CreateBoard(ctx context.Context, title string) (*models.Board, error) {
	var board models.Board
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/boards", api.CreateBoardRequest{Title: title}, &board); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	return &board, nil
}

// GetBoard доска со списками и карточками
func (c *Client) GetBoard(ctx context.Context, boardID string) (*api.BoardResponse, error) {
	var resp api.BoardResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/boards/"+url.PathEscape(boardID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return &resp, nil
}

// CreateList добавляет список в конец доски
func (c *Client) CreateList(ctx context.Context, boardID, title string) (*models.List, error) {
	var list models.List
	path := "/api/v1/boards/" + url.PathEscape(boardID) + "/lists"
	if err := c.doRequest(ctx, http.MethodPost, path, api.CreateListRequest{Title: title}, &list); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	return &list, nil
}

// CreateCard добавляет карточку в конец списка
func (c *Client) CreateCard(ctx context.Context, listID string, req api.CreateCardRequest) (*models.Card, error) {
	var card models.Card
	path := "/api/v1/lists/" + url.PathEscape(listID) + "/cards"
	if err := c.doRequest(ctx, http.MethodPost, path, req, &card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	return &card, nil
}

// MoveCard перемещает карточку
func (c *Client) MoveCard(ctx context.Context, cardID string, req api.MoveCardRequest) (*models.Card, error) {
	var card models.Card
	path := "/api/v1/cards/" + url.PathEscape(cardID) + "/move"
	if err := c.doRequest(ctx, http.MethodPost, path, req, &card); err != nil {
		return nil, fmt.Errorf("move card: %w", err)
	}
	return &card, nil
}

// AddMember приглашает пользователя на доску
func (c *Client) AddMember(ctx context.Context, boardID string, req api.AddMemberRequest) (*models.Member, error) {
	var member models.Member
	path := "/api/v1/boards/" + url.PathEscape(boardID) + "/members"
	if err := c.doRequest(ctx, http.MethodPost, path, req, &member); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return &member, nil
}

// Notifications входящие уведомления, новые первыми
func (c *Client) Notifications(ctx context.Context, limit int) ([]*models.Notification, error) {
	path := "/api/v1/notifications"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var notes []*models.Notification
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &notes); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notes, nil
}

// MarkRead отмечает уведомление прочитанным
func (c *Client) MarkRead(ctx context.Context, notificationID string) error {
	path := "/api/v1/notifications/" + url.PathEscape(notificationID) + "/read"
	if err := c.doRequest(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(respBody))}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			apiErr.Message = errResp.Message
			if apiErr.Message == "" {
				apiErr.Message = errResp.Error
			}
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
