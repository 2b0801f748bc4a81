package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"go.uber.org/zap"

	"shipcheck/internal/domain"
	"shipcheck/internal/upload"
)

// DefaultURL is the production check-item endpoint.
const DefaultURL = "https://3en-sho7nah-production.up.railway.app/check-item"

const (
	fieldImage    = "image"
	fieldLanguage = "language"

	// maxResponseBody caps how much of a reply is read.
	maxResponseBody = 1 << 20
)

type Client struct {
	url  string
	http *http.Client
	log  *zap.Logger
}

// NewClient returns a client for the service at url. A zero timeout leaves
// requests unbounded.
func NewClient(url string, timeout time.Duration, log *zap.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

type successBody struct {
	Result *struct {
		CanShip *bool   `json:"canShip"`
		Message *string `json:"message"`
	} `json:"result"`
}

type errorBody struct {
	Error string `json:"error"`
}

var _ upload.Classifier = (*Client)(nil)

// Classify posts the image and language as multipart form data and decodes
// the verdict.
func (c *Client) Classify(ctx context.Context, req upload.Request) (domain.Verdict, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return domain.Verdict{}, requestFailed("", fmt.Errorf("encode form: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return domain.Verdict{}, requestFailed("", fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Error("Classification request failed", zap.String("url", c.url), zap.Error(err))
		return domain.Verdict{}, requestFailed("", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domain.Verdict{}, requestFailed("", fmt.Errorf("read response: %w", err))
	}

	c.log.Info("Classification response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(raw)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return domain.Verdict{}, requestFailed(eb.Error, fmt.Errorf("status %d", resp.StatusCode))
	}

	return decodeVerdict(raw)
}

func decodeVerdict(raw []byte) (domain.Verdict, error) {
	var sb successBody
	if err := json.Unmarshal(raw, &sb); err != nil {
		return domain.Verdict{}, malformed(fmt.Errorf("decode response: %w", err))
	}
	if sb.Result == nil || sb.Result.CanShip == nil || sb.Result.Message == nil {
		return domain.Verdict{}, malformed(errors.New("response has no complete result"))
	}
	return domain.Verdict{CanShip: *sb.Result.CanShip, Message: *sb.Result.Message}, nil
}

func encodeForm(req upload.Request) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", multipart.FileContentDisposition(fieldImage, req.Image.Name))
	h.Set("Content-Type", req.Image.MediaType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Image.Content); err != nil {
		return nil, "", err
	}
	if err := w.WriteField(fieldLanguage, string(req.Language)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func requestFailed(serverMsg string, cause error) error {
	msg := serverMsg
	if msg == "" {
		msg = domain.MsgAnalyzeFailed
	}
	return &domain.Error{Kind: domain.KindRequestFailed, Message: msg, Cause: cause}
}

func malformed(cause error) error {
	return &domain.Error{Kind: domain.KindMalformedResponse, Message: domain.MsgAnalyzeFailed, Cause: cause}
}
