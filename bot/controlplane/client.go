// Package controlplane talks to the hosting agent that manages the bot process.
package controlplane

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/studiobot/core/logger"
	"github.com/m3rciful/studiobot/core/netutil"
)

const (
	// RestartPath is appended to the agent base URL.
	RestartPath = "/api/bots/self/restart"
	// BotIDHeader carries the bot instance id.
	BotIDHeader = "X-Bot-ID"
	// Timeout bounds the whole restart call. There is no retry.
	Timeout = 10 * time.Second

	maxBody = 64 << 10
)

// ErrRequest wraps transport failures, timeouts and undecodable answers.
var ErrRequest = errors.New("control plane request failed")

// Result is the agent's structured answer.
type Result struct {
	OK      bool
	Message string
}

type restartResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

// Client calls the agent API.
type Client struct {
	baseURL string
	botID   string
	http    *http.Client
}

// New builds a Client for the agent at baseURL acting as botID.
// A nil httpClient gets a non-retrying client bounded by Timeout.
func New(baseURL, botID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = netutil.NewClient(netutil.ClientOptions{Timeout: Timeout, ResponseHeader: Timeout})
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		botID:   botID,
		http:    httpClient,
	}
}

// Restart asks the agent to restart this bot. A well-formed answer is returned
// as is, ok or not; anything else is an ErrRequest.
func (c *Client) Restart(ctx context.Context) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	start := time.Now()
	res, err := c.restart(ctx)
	attrs := []slog.Attr{
		slog.String("endpoint", RestartPath),
		logger.TookAttr(start),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("status", "error"),
			slog.String("error_kind", string(netutil.Classify(err))),
			logger.ErrAttr(err),
		)
		logger.LogEvent(ctx, logger.Ctl, slog.LevelWarn, "ctl.restart", attrs...)
		return Result{}, err
	}
	attrs = append(attrs, slog.String("status", "ok"), slog.Bool("agent_ok", res.OK))
	logger.LogEvent(ctx, logger.Ctl, slog.LevelInfo, "ctl.restart", attrs...)
	return res, nil
}

func (c *Client) restart(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RestartPath, http.NoBody)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set(BotIDHeader, c.botID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if netutil.Classify(err) == netutil.KindTimeout {
			return Result{}, fmt.Errorf("%w: timed out after %s", ErrRequest, Timeout)
		}
		return Result{}, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read body: %v", ErrRequest, err)
	}
	var payload restartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrRequest, resp.StatusCode, logger.SanitizeLimit(string(body), 120))
	}

	msg := payload.Message
	if msg == "" {
		msg = payload.Msg
	}
	return Result{OK: payload.OK, Message: msg}, nil
}
