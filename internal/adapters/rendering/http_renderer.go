// Package rendering adapts an HTML-to-PDF conversion service to the document renderer port.
package rendering

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/securities_registry/internal/apperrors"
	"github.com/SscSPs/securities_registry/internal/core/ports"
	"golang.org/x/sync/semaphore"
)

// ConvertPath is the Chromium HTML conversion route of a Gotenberg-compatible service.
const ConvertPath = "/forms/chromium/convert/html"

// paperSizes maps format names to width and height in inches.
var paperSizes = map[string][2]float64{
	"A3":     {11.7, 16.54},
	"A4":     {8.27, 11.7},
	"A5":     {5.83, 8.27},
	"LETTER": {8.5, 11},
	"LEGAL":  {8.5, 14},
}

// ErrUnknownPaperFormat is returned for a format missing from the paper size table.
var ErrUnknownPaperFormat = errors.New("unknown paper format")

// HTTPRenderer posts markup to a conversion service and returns the PDF it produces.
// At most maxSessions conversions run at once; each is bounded by timeout, including
// the time spent waiting for a session.
type HTTPRenderer struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	sessions *semaphore.Weighted
}

var _ ports.DocumentRenderer = (*HTTPRenderer)(nil)

// NewHTTPRenderer creates a renderer for the service at baseURL. A nil client uses http.DefaultClient.
func NewHTTPRenderer(baseURL string, timeout time.Duration, maxSessions int64, client *http.Client) *HTTPRenderer {
	if client == nil {
		client = http.DefaultClient
	}
	if maxSessions < 1 {
		maxSessions = 1
	}
	return &HTTPRenderer{
		client:   client,
		endpoint: strings.TrimRight(baseURL, "/") + ConvertPath,
		timeout:  timeout,
		sessions: semaphore.NewWeighted(maxSessions),
	}
}

func (r *HTTPRenderer) Render(ctx context.Context, html string, opts ports.PageOptions) ([]byte, error) {
	body, contentType, err := buildForm(html, opts)
	if err != nil {
		return nil, &apperrors.RenderingError{Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.sessions.Acquire(ctx, 1); err != nil {
		return nil, r.failure(ctx, fmt.Errorf("waiting for a rendering session: %w", err))
	}
	defer r.sessions.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return nil, &apperrors.RenderingError{Cause: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, r.failure(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &apperrors.RenderingError{
			Retryable: resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests,
			Cause:     fmt.Errorf("renderer responded %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, r.failure(ctx, fmt.Errorf("reading rendered document: %w", err))
	}
	return doc, nil
}

// failure classifies a transport error. Timeouts and connection problems may succeed on retry.
func (r *HTTPRenderer) failure(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("rendering exceeded %s: %w", r.timeout, err)
	}
	return &apperrors.RenderingError{Retryable: true, Cause: err}
}

func buildForm(html string, opts ports.PageOptions) (io.Reader, string, error) {
	format := strings.ToUpper(opts.Format)
	if format == "" {
		format = "A4"
	}
	size, ok := paperSizes[format]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownPaperFormat, opts.Format)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"paperWidth", inches(size[0])},
		{"paperHeight", inches(size[1])},
		{"marginTop", inches(opts.MarginTop)},
		{"marginRight", inches(opts.MarginRight)},
		{"marginBottom", inches(opts.MarginBottom)},
		{"marginLeft", inches(opts.MarginLeft)},
		{"printBackground", strconv.FormatBool(opts.PrintBackground)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func inches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
