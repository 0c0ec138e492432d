package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
)

// KeySource supplies an API credential for each outbound request. The
// resolver is consulted per call so rotation takes effect without restarting.
type KeySource interface {
	Resolve(ctx context.Context) (domain.CredentialRecord, func(ctx context.Context, requestErr error), error)
}

// StaticKey is a KeySource backed by one fixed credential.
type StaticKey string

func (k StaticKey) Resolve(context.Context) (domain.CredentialRecord, func(context.Context, error), error) {
	if strings.TrimSpace(string(k)) == "" {
		return domain.CredentialRecord{}, nil, domain.ErrNoCredential
	}
	cred := domain.CredentialRecord{Secret: string(k), Label: "static", Status: domain.CredentialActive}
	return cred, func(context.Context, error) {}, nil
}

// Options controls how the Gemini client is configured.
type Options struct {
	Keys       KeySource
	BaseURL    string
	ImageModel string
	VideoModel string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client talks to the first-party generative API: a synchronous image style
// call and an asynchronous video operation (submit, poll, download).
type Client struct {
	keys       KeySource
	baseURL    string
	imageModel string
	videoModel string
	httpClient *http.Client
	logger     *infra.Logger
}

// StyleRequest carries the inputs for a synchronous style transform.
type StyleRequest struct {
	Image      []byte
	MIMEType   string
	Prompt     string
	Refinement string
	RequestID  string
}

// VideoRequest carries the inputs for an asynchronous video generation.
type VideoRequest struct {
	StartImage  []byte
	EndImage    []byte
	Prompt      string
	AspectRatio string
	RequestID   string
}

// VideoOperation is the handle returned by a video submission.
type VideoOperation struct {
	Name string
}

// VideoPoll is one status observation of an in-flight operation.
type VideoPoll struct {
	Done     bool
	VideoURI string
	Failure  string
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

type videoSubmitRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParams     `json:"parameters"`
}

type videoInstance struct {
	Prompt    string      `json:"prompt"`
	Image     *inlineData `json:"image,omitempty"`
	LastFrame *inlineData `json:"lastFrame,omitempty"`
}

type videoParams struct {
	AspectRatio    string `json:"aspectRatio,omitempty"`
	NumberOfVideos int    `json:"numberOfVideos,omitempty"`
}

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Status  string `json:"status,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if opts.Keys == nil {
		return nil, fmt.Errorf("genai: key source is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	videoModel := strings.TrimSpace(opts.VideoModel)
	if videoModel == "" {
		videoModel = "veo-3.1-generate-preview"
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
		keys:       opts.Keys,
		baseURL:    baseURL,
		imageModel: imageModel,
		videoModel: videoModel,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GenerateStyle runs the synchronous style transform: one source image plus
// the composed instruction text, returning the styled image bytes. Face
// preservation is expressed purely through prompt text and is best-effort;
// nothing verifies the provider honored it.
func (c *Client) GenerateStyle(ctx context.Context, req StyleRequest) ([]byte, error) {
	mime := req.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	payload := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(req.Image)}},
				{Text: ComposeStyleInstruction(req.Prompt, req.Refinement)},
			},
		}},
	}

	cred, report, err := c.keys.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	var response generateContentResponse
	err = c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.imageModel)), cred.Secret, payload, &response)
	report(ctx, err)
	if err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, decodeErr := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if decodeErr != nil {
				return nil, fmt.Errorf("genai: decode styled image: %w", decodeErr)
			}
			return data, nil
		}
	}
	return nil, domain.ErrNoResult
}

// SubmitVideo starts an asynchronous video generation and returns the
// operation handle. An accepted request without an operation name fails with
// domain.ErrNoTaskID rather than silently proceeding.
func (c *Client) SubmitVideo(ctx context.Context, req VideoRequest) (VideoOperation, error) {
	instance := videoInstance{
		Prompt: req.Prompt,
		Image:  &inlineData{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString(req.StartImage)},
	}
	if len(req.EndImage) > 0 {
		instance.LastFrame = &inlineData{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString(req.EndImage)}
	}
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = "9:16"
	}
	payload := videoSubmitRequest{
		Instances:  []videoInstance{instance},
		Parameters: videoParams{AspectRatio: aspect, NumberOfVideos: 1},
	}

	cred, report, err := c.keys.Resolve(ctx)
	if err != nil {
		return VideoOperation{}, err
	}

	var response operationResponse
	err = c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel)), cred.Secret, payload, &response)
	report(ctx, err)
	if err != nil {
		return VideoOperation{}, err
	}
	if strings.TrimSpace(response.Name) == "" {
		return VideoOperation{}, domain.ErrNoTaskID
	}

	c.logger.Info().
		Str("request_id", req.RequestID).
		Str("operation", response.Name).
		Msg("genai: video operation submitted")

	return VideoOperation{Name: response.Name}, nil
}

// PollVideo fetches the current state of an in-flight video operation.
func (c *Client) PollVideo(ctx context.Context, op VideoOperation) (VideoPoll, error) {
	cred, report, err := c.keys.Resolve(ctx)
	if err != nil {
		return VideoPoll{}, err
	}

	var response operationResponse
	err = c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(op.Name, "/"), cred.Secret, nil, &response)
	report(ctx, err)
	if err != nil {
		return VideoPoll{}, err
	}

	poll := VideoPoll{Done: response.Done}
	if response.Error != nil {
		poll.Failure = response.Error.Message
		return poll, nil
	}
	samples := response.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) > 0 {
		poll.VideoURI = samples[0].Video.URI
	}
	return poll, nil
}

// DownloadVideo fetches the rendered bytes. The result URI must be retrieved
// with the resolved credential appended as a query parameter.
func (c *Client) DownloadVideo(ctx context.Context, uri string) ([]byte, error) {
	cred, report, err := c.keys.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("genai: create download request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", cred.Secret)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	report(ctx, err)
	if err != nil {
		return nil, fmt.Errorf("genai: download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("genai: download video status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) invoke(ctx context.Context, method, path, apiKey string, payload any, out any) error {
	endpoint := c.baseURL + path
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("genai: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("genai: create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: invoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("genai: status %d %s: %s", resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("genai: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("genai: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}
