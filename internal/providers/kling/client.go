package kling

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
)

const (
	// Statuses reported by the vendor's task API.
	StatusSucceed = "succeed"
	StatusFailed  = "failed"

	defaultPrompt         = "cinematic masterpiece animation"
	defaultNegativePrompt = "blurry, low quality, distorted"
)

// Options configures the Kling video client.
type Options struct {
	AccessKey  string
	SecretKey  string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
	Now        func() time.Time
}

// Client performs HTTP calls to the Kling image-to-video API, signing each
// request with a freshly minted bearer token.
type Client struct {
	accessKey  string
	secretKey  string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
	now        func() time.Time
}

// SubmitRequest captures the inputs for one video submission.
type SubmitRequest struct {
	StartImage     []byte
	EndImage       []byte
	Prompt         string
	NegativePrompt string
	Duration       string
	AspectRatio    string
	Mode           string
	RequestID      string
}

// TaskPoll is one status observation of an in-flight task.
type TaskPoll struct {
	Status   string
	VideoURL string
	Message  string
}

type submitPayload struct {
	Model          string  `json:"model"`
	Image          string  `json:"image"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	CfgScale       float64 `json:"cfg_scale"`
	Duration       string  `json:"duration"`
	AspectRatio    string  `json:"aspect_ratio"`
	Mode           string  `json:"mode"`
	LastImage      string  `json:"last_image,omitempty"`
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type submitData struct {
	TaskID string `json:"task_id"`
}

// pollData tolerates the several response shapes the vendor has shipped the
// video URL under.
type pollData struct {
	TaskStatus    string `json:"task_status"`
	TaskStatusMsg string `json:"task_status_msg"`
	VideoResource struct {
		URL string `json:"url"`
	} `json:"video_resource"`
	TaskResult struct {
		VideoURL string `json:"video_url"`
		Videos   []struct {
			URL string `json:"url"`
		} `json:"videos"`
	} `json:"task_result"`
}

// NewClient constructs a Kling client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.AccessKey) == "" || strings.TrimSpace(opts.SecretKey) == "" {
		return nil, domain.ErrNoCredential
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.klingai.com"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "kling-v1"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		accessKey:  strings.TrimSpace(opts.AccessKey),
		secretKey:  strings.TrimSpace(opts.SecretKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
		now:        now,
	}, nil
}

// Submit sends one image-to-video request. A non-zero vendor code fails with
// the vendor message; an accepted request without a task id fails with
// domain.ErrNoTaskID.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = defaultPrompt
	}
	negative := strings.TrimSpace(req.NegativePrompt)
	if negative == "" {
		negative = defaultNegativePrompt
	}
	mode := req.Mode
	if mode == "" {
		mode = "std"
	}
	cfgScale := 0.5
	if mode == "pro" {
		cfgScale = 0.7
	}
	payload := submitPayload{
		Model:          c.model,
		Image:          base64.StdEncoding.EncodeToString(req.StartImage),
		Prompt:         prompt,
		NegativePrompt: negative,
		CfgScale:       cfgScale,
		Duration:       req.Duration,
		AspectRatio:    req.AspectRatio,
		Mode:           mode,
	}
	if len(req.EndImage) > 0 {
		payload.LastImage = base64.StdEncoding.EncodeToString(req.EndImage)
	}

	var envelope apiEnvelope
	if err := c.invoke(ctx, http.MethodPost, "/v1/videos/image2video", payload, &envelope); err != nil {
		return "", err
	}
	if envelope.Code != 0 {
		return "", fmt.Errorf("kling: api error (%d): %s", envelope.Code, orUnknown(envelope.Message))
	}

	var data submitData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return "", fmt.Errorf("kling: decode submit data: %w", err)
		}
	}
	if strings.TrimSpace(data.TaskID) == "" {
		return "", domain.ErrNoTaskID
	}

	c.logger.Info().
		Str("request_id", req.RequestID).
		Str("task_id", data.TaskID).
		Msg("kling: task created")

	return data.TaskID, nil
}

// Poll fetches the current state of a submitted task.
func (c *Client) Poll(ctx context.Context, taskID string) (TaskPoll, error) {
	var envelope apiEnvelope
	if err := c.invoke(ctx, http.MethodGet, "/v1/videos/image2video/"+taskID, nil, &envelope); err != nil {
		return TaskPoll{}, err
	}
	if envelope.Code != 0 {
		return TaskPoll{}, fmt.Errorf("kling: api error (%d): %s", envelope.Code, orUnknown(envelope.Message))
	}

	var data pollData
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return TaskPoll{}, fmt.Errorf("kling: decode poll data: %w", err)
		}
	}

	poll := TaskPoll{Status: data.TaskStatus, Message: data.TaskStatusMsg}
	switch {
	case data.VideoResource.URL != "":
		poll.VideoURL = data.VideoResource.URL
	case data.TaskResult.VideoURL != "":
		poll.VideoURL = data.TaskResult.VideoURL
	case len(data.TaskResult.Videos) > 0:
		poll.VideoURL = data.TaskResult.Videos[0].URL
	}
	return poll, nil
}

// Download fetches the rendered video bytes from the URL the poll reported.
func (c *Client) Download(ctx context.Context, videoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("kling: create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kling: download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("kling: download video status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	token, err := signToken(c.accessKey, c.secretKey, c.now())
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		raw, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return fmt.Errorf("kling: marshal request: %w", marshalErr)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("kling: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kling: invoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		var envelope apiEnvelope
		if json.Unmarshal(data, &envelope) == nil && envelope.Message != "" {
			return fmt.Errorf("kling: status %d (%d): %s", resp.StatusCode, envelope.Code, envelope.Message)
		}
		return fmt.Errorf("kling: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("kling: decode response: %w", err)
	}
	return nil
}

func orUnknown(message string) string {
	if strings.TrimSpace(message) == "" {
		return "unknown error"
	}
	return message
}
