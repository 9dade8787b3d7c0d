package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/arko-chat/hybrid/internal/bridge"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/saintfish/chardet"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	DefaultTimeout   = 30 * time.Second
)

// StatusError is returned for responses with a status of 400 or above.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("load %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

type Options struct {
	UserAgent string
	Timeout   time.Duration
}

// Loader fetches surface content over HTTP.
type Loader struct {
	client *resty.Client
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Loader {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeaders(map[string]string{
			"User-Agent":                opts.UserAgent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"Upgrade-Insecure-Requests": "1",
		})

	return &Loader{client: client, logger: logger}
}

// Load fetches rawURL. A cancelled ctx yields an error matching
// context.Canceled.
func (l *Loader) Load(ctx context.Context, rawURL string) (bridge.Page, error) {
	resp, err := l.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return bridge.Page{}, fmt.Errorf("load %s: %w", rawURL, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return bridge.Page{}, &StatusError{URL: rawURL, Code: resp.StatusCode()}
	}

	page := bridge.Page{
		URL:  rawURL,
		Body: resp.Body(),
	}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		page.URL = raw.Request.URL.String()
	}

	page.MIMEType, page.Charset = mediaType(resp.Header().Get("Content-Type"))
	if page.MIMEType == "" {
		page.MIMEType, page.Charset = sniff(page.Body)
	}
	if page.Charset == "" && strings.HasPrefix(page.MIMEType, "text/") {
		page.Charset = detectCharset(page.Body)
	}
	if page.MIMEType == "text/html" {
		title, err := PageTitle(page.Body)
		if err != nil {
			l.logger.Debug("title lookup failed", "url", page.URL, "err", err)
		}
		page.Title = title
	}

	l.logger.Debug("loaded", "url", page.URL, "status", resp.StatusCode(), "mime", page.MIMEType, "bytes", len(page.Body))
	return page, nil
}

func mediaType(header string) (string, string) {
	if header == "" {
		return "", ""
	}
	mt, params, err := mime.ParseMediaType(header)
	if err != nil {
		mt, _, _ = strings.Cut(header, ";")
		return strings.ToLower(strings.TrimSpace(mt)), ""
	}
	return mt, strings.ToLower(params["charset"])
}

// sniff guesses the media type of a response that did not declare one.
// An empty body is treated as an empty HTML page.
func sniff(body []byte) (string, string) {
	if len(body) == 0 {
		return "text/html", ""
	}
	return mediaType(mimetype.Detect(body).String())
}

// detectCharset guesses the encoding of undeclared text. It returns "" when
// nothing is confident enough.
func detectCharset(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	res, err := chardet.NewTextDetector().DetectBest(body)
	if err != nil || res.Confidence < 50 {
		return ""
	}
	return strings.ToLower(res.Charset)
}

// PageTitle returns the text of the document's <title>, or "" when it has
// none.
func PageTitle(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Find("head > title").First().Text()), nil
}
