// Package telegram is a hand-rolled client for the slice of the Telegram
// Bot API this bot needs: long-poll updates, webhook registration, and
// sending text replies with optional reply keyboards.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.telegram.org"

type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func New(httpClient *http.Client, baseURL, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Token returns the bot credential; the webhook endpoint path is derived
// from it.
func (c *Client) Token() string { return c.token }

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getMe"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("telegram http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out getMeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram getMe: ok=false")
	}
	return &out.Result, nil
}

// GetUpdates long-polls for new updates and returns the next offset to ask
// for.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	url := fmt.Sprintf("%s?timeout=%d", c.methodURL("getUpdates"), secs)
	if offset > 0 {
		url += fmt.Sprintf("&offset=%d", offset)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, offset, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, offset, err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, offset, fmt.Errorf("telegram http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out getUpdatesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, offset, err
	}
	if !out.OK {
		return nil, offset, fmt.Errorf("telegram getUpdates: ok=false")
	}

	next := offset
	for _, u := range out.Result {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return out.Result, next, nil
}

// SendOptions shapes one outgoing message.
type SendOptions struct {
	// Keyboard pins a reply keyboard of choice labels, one row per slice.
	Keyboard [][]string
	// RemoveKeyboard clears a previously pinned keyboard.
	RemoveKeyboard bool
}

func (o SendOptions) replyMarkup() any {
	if len(o.Keyboard) > 0 {
		markup := replyKeyboardMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
		for _, row := range o.Keyboard {
			buttons := make([]keyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, keyboardButton{Text: label})
			}
			markup.Keyboard = append(markup.Keyboard, buttons)
		}
		return markup
	}
	if o.RemoveKeyboard {
		return replyKeyboardRemove{RemoveKeyboard: true}
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) error {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "(empty)"
	}
	reqBody := sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		DisableWebPagePreview: true,
		ReplyMarkup:           opts.replyMarkup(),
	}
	b, _ := json.Marshal(reqBody)
	return c.postOK(ctx, "sendMessage", b)
}

// SendChunked splits text at the Bot API message limit and sends the pieces
// in order. Only the final piece carries the keyboard options.
func (c *Client) SendChunked(ctx context.Context, chatID int64, text string, opts SendOptions) error {
	chunks := SplitText(text, MaxMessageLen)
	if len(chunks) == 0 {
		return c.SendMessage(ctx, chatID, "(empty)", opts)
	}
	for i, chunk := range chunks {
		chunkOpts := SendOptions{}
		if i == len(chunks)-1 {
			chunkOpts = opts
		}
		if err := c.SendMessage(ctx, chatID, chunk, chunkOpts); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "typing"
	}
	b, _ := json.Marshal(sendChatActionRequest{ChatID: chatID, Action: action})
	return c.postOK(ctx, "sendChatAction", b)
}

// SetWebhook registers publicURL as the push delivery endpoint.
func (c *Client) SetWebhook(ctx context.Context, publicURL string) error {
	b, _ := json.Marshal(setWebhookRequest{URL: publicURL})
	return c.postOK(ctx, "setWebhook", b)
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.postOK(ctx, "deleteWebhook", []byte("{}"))
}

func (c *Client) postOK(ctx context.Context, method string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var ok okResponse
	_ = json.Unmarshal(raw, &ok)
	if !ok.OK {
		return fmt.Errorf("telegram %s: ok=false", method)
	}
	return nil
}
