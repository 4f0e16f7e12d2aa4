package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrOCRService is returned when the OCR call fails or its reply cannot be decoded.
var ErrOCRService = errors.New("ocr service error")

const (
	ocrVersion    = "V2"
	ocrImageName  = "receipt"
	defaultFormat = "png"
	secretHeader  = "X-OCR-SECRET"
	maxReplyBytes = 8 << 20
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type ocrImage struct {
	Format string `json:"format"`
	Name   string `json:"name"`
	Data   string `json:"data"`
}

type ocrRequest struct {
	Version   string     `json:"version"`
	RequestID string     `json:"requestId"`
	Timestamp int64      `json:"timestamp"`
	Lang      string     `json:"lang"`
	Images    []ocrImage `json:"images"`
}

type ocrResponse struct {
	Images []struct {
		InferResult string `json:"inferResult"`
		Fields      []struct {
			InferText string `json:"inferText"`
		} `json:"fields"`
	} `json:"images"`
}

// OCRClient calls a Clova-style general OCR endpoint.
type OCRClient struct {
	url    string
	secret string
	lang   string
	client HTTPDoer
	now    func() time.Time
}

// NewOCRClient builds client. The timeout of client bounds each call.
func NewOCRClient(url, secret, lang string, client HTTPDoer) *OCRClient {
	if lang == "" {
		lang = "ko"
	}
	return &OCRClient{url: url, secret: secret, lang: lang, client: client, now: time.Now}
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Recognize returns the text fragments of the first image joined with single spaces.
func (c *OCRClient) Recognize(ctx context.Context, image []byte, format string) (string, error) {
	body, err := json.Marshal(ocrRequest{
		Version:   ocrVersion,
		RequestID: uuid.NewString(),
		Timestamp: c.now().UnixMilli(),
		Lang:      c.lang,
		Images: []ocrImage{{
			Format: format,
			Name:   ocrImageName,
			Data:   base64.StdEncoding.EncodeToString(image),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrOCRService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrOCRService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretHeader, c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOCRService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read reply: %v", ErrOCRService, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrOCRService, resp.StatusCode)
	}

	var decoded ocrResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode reply: %v", ErrOCRService, err)
	}
	if len(decoded.Images) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(decoded.Images[0].Fields))
	for _, f := range decoded.Images[0].Fields {
		parts = append(parts, f.InferText)
	}
	return strings.Join(parts, " "), nil
}

// FormatFor derives the OCR image format from a file name, then a content type.
func FormatFor(filename, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		return ext
	}
	if _, sub, ok := strings.Cut(strings.ToLower(contentType), "/"); ok && sub != "" {
		if sub == "jpeg" {
			return "jpg"
		}
		return sub
	}
	return defaultFormat
}
