package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/territorybattle/internal/api/request"
	"github.com/mcoot/territorybattle/internal/api/response"
)

// Client is an HTTP client for the leaderboard API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a well-formed error answer from the server.
// Any other error returned by the client means the server was not reached
// or did not answer properly.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// IsRejected reports whether the server refused the request for good.
// 429 and 5xx answers are not rejections; the same request may succeed later.
func IsRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests
}

// Do performs an HTTP request
func (c *Client) Do(method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err == nil && apiErr.Message != "" {
			return apiErr
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *Client) Get(path string, result any) error {
	return c.Do(http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(path string, body, result any) error {
	return c.Do(http.MethodPost, path, body, result)
}

// Health checks the server
func (c *Client) Health() (*response.HealthResponse, error) {
	var result response.HealthResponse
	if err := c.Get("/api/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register claims a pseudo
func (c *Client) Register(pseudo string) (*response.Player, error) {
	var result response.PlayerResponse
	if err := c.Post("/api/register", request.RegisterRequest{Pseudo: pseudo}, &result); err != nil {
		return nil, err
	}
	return &result.Player, nil
}

// SubmitGame records a finished game
func (c *Client) SubmitGame(game request.SubmitGameRequest) (*response.SubmitGameResponse, error) {
	var result response.SubmitGameResponse
	if err := c.Post("/api/game", game, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Player fetches a player's stats, rank and latest games
func (c *Client) Player(pseudo string) (*response.PlayerDetail, error) {
	var result response.PlayerDetailResponse
	if err := c.Get("/api/player/"+url.PathEscape(pseudo), &result); err != nil {
		return nil, err
	}
	return &result.Player, nil
}

// Leaderboard fetches one page of the ranked leaderboard.
// Zero values leave the server defaults in place.
func (c *Client) Leaderboard(limit, offset int) (*response.LeaderboardResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}

	path := "/api/leaderboard"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result response.LeaderboardResponse
	if err := c.Get(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TopWins fetches the most-wins board
func (c *Client) TopWins() ([]response.WinsEntry, error) {
	var result response.TopWinsResponse
	if err := c.Get("/api/leaderboard/wins", &result); err != nil {
		return nil, err
	}
	return result.Leaderboard, nil
}

// TopScores fetches the best-score board
func (c *Client) TopScores() ([]response.ScoreEntry, error) {
	var result response.TopScoresResponse
	if err := c.Get("/api/leaderboard/scores", &result); err != nil {
		return nil, err
	}
	return result.Leaderboard, nil
}

// RecentGames fetches the newest games across all players
func (c *Client) RecentGames(limit int) ([]response.RecentGame, error) {
	path := "/api/games/recent"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var result response.RecentGamesResponse
	if err := c.Get(path, &result); err != nil {
		return nil, err
	}
	return result.Games, nil
}

// Stats fetches the global totals
func (c *Client) Stats() (*response.Stats, error) {
	var result response.StatsResponse
	if err := c.Get("/api/stats", &result); err != nil {
		return nil, err
	}
	return &result.Stats, nil
}
