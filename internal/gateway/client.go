package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
	"github.com/learitecnico/learion-glass-sub000/internal/logger"
)

const (
	assistantsBetaHeader = "assistants=v2"
	visionModel          = "gpt-4o-mini"
	transcriptionModel   = "whisper-1"
	speechModel          = "tts-1"
)

// Client implements domain.ConversationGateway against an assistants-style
// HTTP API. It holds no conversation state of its own.
type Client struct {
	baseURL     string
	http        *RetryableHTTPClient
	credentials domain.CredentialStore
}

// Compile-time assertion that Client implements the gateway interface
var _ domain.ConversationGateway = (*Client)(nil)

// NewClient creates a gateway client from configuration
func NewClient(cfg config.GatewayConfig, credentials domain.CredentialStore) *Client {
	retry := RetryConfig{
		Enabled:        cfg.Retry.Enabled,
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: time.Duration(cfg.Retry.InitialBackoffSec) * time.Second,
		MaxBackoff:     time.Duration(cfg.Retry.MaxBackoffSec) * time.Second,
	}

	return &Client{
		baseURL:     cfg.URL,
		http:        NewRetryableHTTPClient(time.Duration(cfg.Timeout)*time.Second, retry),
		credentials: credentials,
	}
}

type threadResponse struct {
	ID string `json:"id"`
}

type runResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type messageListResponse struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateThread creates a new remote thread. Executed without transport
// retries: a retried create could spawn a duplicate thread.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var out threadResponse
	if err := c.postJSON(ctx, "/threads", map[string]any{}, &out, false); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	logger.Debug("Created remote thread", "thread_id", out.ID)
	return out.ID, nil
}

// PostMessage appends a user message to the thread
func (c *Client) PostMessage(ctx context.Context, threadID, text string) error {
	body := map[string]any{
		"role":    "user",
		"content": text,
	}

	if err := c.postJSON(ctx, "/threads/"+threadID+"/messages", body, nil, true); err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	return nil
}

// CreateRun submits the thread for execution. Executed without transport
// retries for the same reason as CreateThread.
func (c *Client) CreateRun(ctx context.Context, threadID, agentID string) (string, error) {
	body := map[string]any{
		"assistant_id": agentID,
	}

	var out runResponse
	if err := c.postJSON(ctx, "/threads/"+threadID+"/runs", body, &out, false); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	logger.Debug("Created run", "run_id", out.ID, "thread_id", threadID)
	return out.ID, nil
}

// GetRunStatus fetches the current status of a run
func (c *Client) GetRunStatus(ctx context.Context, threadID, runID string) (domain.Run, error) {
	var out runResponse
	if err := c.getJSON(ctx, "/threads/"+threadID+"/runs/"+runID, &out); err != nil {
		return domain.Run{}, fmt.Errorf("get run status: %w", err)
	}

	run := domain.Run{
		RunID:    out.ID,
		ThreadID: threadID,
		Status:   domain.RunStatus(out.Status),
	}
	if out.LastError != nil {
		run.LastError = out.LastError.Message
	}

	return run, nil
}

// GetLatestAssistantMessage returns the most recent assistant-authored
// message text on the thread
func (c *Client) GetLatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	var out messageListResponse
	if err := c.getJSON(ctx, "/threads/"+threadID+"/messages?order=desc&limit=10", &out); err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	for _, msg := range out.Data {
		if msg.Role != "assistant" {
			continue
		}
		for _, part := range msg.Content {
			if part.Type == "text" && part.Text.Value != "" {
				return part.Text.Value, nil
			}
		}
	}

	return "", domain.ErrNoResponse
}

// Transcribe converts captured audio to text
func (c *Client) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "recording.wav")
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	_ = writer.WriteField("model", transcriptionModel)
	if language != "" {
		_ = writer.WriteField("language", language)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/audio/transcriptions", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	data, err := c.execute(req, true)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	var out transcriptionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("transcribe: decode response: %w", err)
	}

	return out.Text, nil
}

// SynthesizeSpeech converts text to playable audio bytes
func (c *Client) SynthesizeSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	body := map[string]any{
		"model": speechModel,
		"input": text,
		"voice": voice,
		"speed": speed,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.execute(req, true)
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}

	return data, nil
}

// AnalyzeImage describes an image, optionally steered by a prompt
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	if prompt == "" {
		prompt = "Describe what you see in this image."
	}

	body := map[string]any{
		"model": visionModel,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{
						"type": "image_url",
						"image_url": map[string]any{
							"url": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
						},
					},
				},
			},
		},
	}

	var out chatCompletionResponse
	if err := c.postJSON(ctx, "/chat/completions", body, &out, true); err != nil {
		return "", fmt.Errorf("analyze image: %w", err)
	}

	if len(out.Choices) == 0 {
		return "", domain.ErrNoResponse
	}

	return out.Choices[0].Message.Content, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	credential, ok := c.credentials.GetCredential()
	if !ok {
		return nil, domain.ErrNoCredential
	}

	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("OpenAI-Beta", assistantsBetaHeader)

	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any, retryable bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.execute(req, retryable)
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	data, err := c.execute(req, true)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

// execute runs the request and maps failures onto the error taxonomy:
// exhausted transport retries wrap ErrTransport, 4xx responses wrap ErrRemote
// with the server-reported message when one is present.
func (c *Client) execute(req *http.Request, retryable bool) ([]byte, error) {
	var resp *http.Response
	var err error

	if retryable {
		resp, err = c.http.Do(req)
	} else {
		resp, err = c.http.DoOnce(req)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: server returned %d", domain.ErrTransport, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		msg := remoteErrorMessage(data)
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrRemote, msg)
	}

	return data, nil
}

func remoteErrorMessage(data []byte) string {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(data, &apiErr); err != nil {
		return ""
	}
	return apiErr.Error.Message
}
