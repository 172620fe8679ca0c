package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrMissingAPIKey indicates the Gemini API key is not configured.
	// Configuration errors are fatal and never retried.
	ErrMissingAPIKey = errors.New("gemini api key is not configured")

	// ErrGenerationFailed indicates the generation endpoint rejected the request
	ErrGenerationFailed = errors.New("gemini generation request failed")

	// ErrUploadFailed indicates the file upload was rejected
	ErrUploadFailed = errors.New("gemini file upload failed")
)

// Uploaded file states reported by the files endpoint
const (
	FileStateProcessing = "PROCESSING"
	FileStateActive     = "ACTIVE"
	FileStateFailed     = "FAILED"
	FileStateDeleted    = "DELETED"
)

// GeminiConfig holds configuration for the Gemini client
type GeminiConfig struct {
	APIKey            string
	BaseURL           string // Default: https://generativelanguage.googleapis.com/v1beta
	UploadURL         string // Default: https://generativelanguage.googleapis.com/upload/v1beta/files
	Model             string // Default: gemini-2.5-flash
	Timeout           time.Duration
	RequestsPerMinute int
}

// GeminiClient talks to the Generative Language REST API
type GeminiClient struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	config      GeminiConfig
}

// NewGeminiClient creates a new Gemini API client. Returns an error when the
// API key is missing; that is a configuration problem, not a runtime one.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = "https://generativelanguage.googleapis.com/upload/v1beta/files"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}

	return &GeminiClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)),
			1,
		),
		config: cfg,
	}, nil
}

// UploadedFile describes a file asset held by the service
type UploadedFile struct {
	Name  string `json:"name"`
	URI   string `json:"uri"`
	State string `json:"state"`
}

// request/response shapes for the REST API

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"response_mime_type,omitempty"`
	ResponseSchema   json.RawMessage `json:"response_schema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateText sends a plain text prompt and returns the model's raw text
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	return c.generate(ctx, req)
}

// GenerateFromFile sends a prompt referencing an uploaded file, constrained
// to the given JSON response schema when one is provided.
func (c *GeminiClient) GenerateFromFile(ctx context.Context, file UploadedFile, mimeType, prompt string, schema json.RawMessage) (string, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{
			{FileData: &fileData{MimeType: mimeType, FileURI: file.URI}},
			{Text: prompt},
		}}},
	}
	if schema != nil {
		req.GenerationConfig = &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		}
	}
	return c.generate(ctx, req)
}

func (c *GeminiClient) generate(ctx context.Context, reqBody generateRequest) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling generation request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.config.BaseURL, c.config.Model, c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrGenerationFailed, resp.StatusCode, string(snippet))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding generation response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// UploadFile uploads a local file and returns the created asset handle. The
// asset usually starts in PROCESSING; callers poll GetFile until it settles.
func (c *GeminiClient) UploadFile(ctx context.Context, path string) (UploadedFile, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return UploadedFile{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("opening upload file: %w", err)
	}
	defer file.Close()

	url := fmt.Sprintf("%s?key=%s", c.config.UploadURL, c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, file)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", MimeTypeFor(path))
	req.Header.Set("X-Goog-Upload-Protocol", "raw")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("uploading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return UploadedFile{}, fmt.Errorf("%w: HTTP %d: %s", ErrUploadFailed, resp.StatusCode, string(snippet))
	}

	var parsed struct {
		File UploadedFile `json:"file"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return UploadedFile{}, fmt.Errorf("decoding upload response: %w", err)
	}
	return parsed.File, nil
}

// GetFile fetches the current state of an uploaded asset
func (c *GeminiClient) GetFile(ctx context.Context, name string) (UploadedFile, error) {
	url := fmt.Sprintf("%s/%s?key=%s", c.config.BaseURL, name, c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("creating file status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("fetching file status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UploadedFile{}, fmt.Errorf("%w: file status HTTP %d", ErrUploadFailed, resp.StatusCode)
	}

	var parsed UploadedFile
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return UploadedFile{}, fmt.Errorf("decoding file status: %w", err)
	}
	return parsed, nil
}

// MimeTypeFor guesses a video MIME type from the file extension
func MimeTypeFor(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "video/mp4"
}
