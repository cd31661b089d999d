// Package telegram is a minimal Telegram Bot API client covering what the
// community feed needs: posting text or media to one channel and resolving
// file ids to download URLs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Media types accepted by SendMedia.
const (
	MediaPhoto    = "photo"
	MediaVideo    = "video"
	MediaDocument = "document"
)

// ErrFileNotFound is returned by FileURL when Telegram does not know the id.
var ErrFileNotFound = errors.New("telegram: file not found")

// APIError is a non-ok Bot API response.
type APIError struct {
	StatusCode  int    `json:"-"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %d %s", e.ErrorCode, e.Description)
}

// IsAPIError reports whether err is an APIError with the given code.
// A code of 0 matches any APIError.
func IsAPIError(err error, code int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return code == 0 || apiErr.ErrorCode == code
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	BotToken   string
	ChannelID  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to one bot and posts to one channel.
type Client struct {
	baseURL    string
	token      string
	channelID  string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}
	if cfg.ChannelID == "" {
		return nil, fmt.Errorf("telegram: channel id is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("telegram: invalid base url %q: %w", base, err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		token:      cfg.BotToken,
		channelID:  cfg.ChannelID,
		httpClient: hc,
		log:        logger,
	}, nil
}

// Chat is the chat part of a Message.
type Chat struct {
	ID int64 `json:"id"`
}

// File identifies an uploaded file.
type File struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path,omitempty"`
}

// Message is the subset of a Bot API message the feed keeps.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Photo     []File `json:"photo,omitempty"`
	Video     *File  `json:"video,omitempty"`
	Document  *File  `json:"document,omitempty"`
}

// FileID returns the id of the message's media, choosing the largest photo
// size when there are several.
func (m Message) FileID() string {
	switch {
	case len(m.Photo) > 0:
		return m.Photo[len(m.Photo)-1].FileID
	case m.Video != nil:
		return m.Video.FileID
	case m.Document != nil:
		return m.Document.FileID
	}
	return ""
}

type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// SendMessage posts text to the channel.
func (c *Client) SendMessage(ctx context.Context, text string) (Message, error) {
	var msg Message
	err := c.call(ctx, "sendMessage", map[string]any{
		"chat_id": c.channelID,
		"text":    text,
	}, &msg)
	return msg, err
}

// SendMedia uploads media with an optional caption. mediaType is one of
// MediaPhoto, MediaVideo or MediaDocument.
func (c *Client) SendMedia(ctx context.Context, mediaType, filename string, content io.Reader, caption string) (Message, error) {
	var method string
	switch mediaType {
	case MediaPhoto:
		method = "sendPhoto"
	case MediaVideo:
		method = "sendVideo"
	case MediaDocument:
		method = "sendDocument"
	default:
		return Message{}, fmt.Errorf("telegram: unsupported media type %q", mediaType)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("chat_id", c.channelID)
	if caption != "" {
		_ = mw.WriteField("caption", caption)
	}
	part, err := mw.CreateFormFile(mediaType, filename)
	if err != nil {
		return Message{}, fmt.Errorf("telegram: build upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return Message{}, fmt.Errorf("telegram: read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Message{}, fmt.Errorf("telegram: build upload: %w", err)
	}

	var msg Message
	err = c.do(ctx, method, mw.FormDataContentType(), &body, &msg)
	return msg, err
}

// FileURL resolves a file id to a download URL.
func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", ErrFileNotFound
	}
	var f File
	if err := c.call(ctx, "getFile", map[string]any{"file_id": fileID}, &f); err != nil {
		if IsAPIError(err, http.StatusBadRequest) || IsAPIError(err, http.StatusNotFound) {
			return "", ErrFileNotFound
		}
		return "", err
	}
	if f.FilePath == "" {
		return "", ErrFileNotFound
	}
	return c.baseURL + "/file/bot" + c.token + "/" + f.FilePath, nil
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("telegram: encode %s: %w", method, err)
	}
	return c.do(ctx, method, "application/json", bytes.NewReader(encoded), out)
}

func (c *Client) do(ctx context.Context, method, contentType string, body io.Reader, out any) error {
	endpoint := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("telegram: create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL embeds the bot token; report the method only.
		return fmt.Errorf("telegram: %s request failed: %w", method, redact(err, c.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("telegram: unexpected %d response to %s", resp.StatusCode, method)
	}
	if !env.OK {
		apiErr := &APIError{StatusCode: resp.StatusCode, ErrorCode: env.ErrorCode, Description: env.Description}
		if apiErr.ErrorCode == 0 {
			apiErr.ErrorCode = resp.StatusCode
		}
		c.log.Debug("telegram api error",
			zap.String("method", method),
			zap.Int("code", apiErr.ErrorCode),
			zap.String("description", apiErr.Description))
		return apiErr
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}

type redactedError struct{ msg string }

func (e redactedError) Error() string { return e.msg }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>")}
}
