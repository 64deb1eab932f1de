package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/seogap/internal/models"
	"github.com/xhad/seogap/pkg/processor"
	"go.uber.org/zap"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 (compatible; seogap/1.0)"
	DefaultMaxBodyBytes = 5 << 20
)

// noiseSelector lists elements whose text is never visible to a reader.
const noiseSelector = "script, style, noscript, template, svg"

type ScraperConfig struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// Scraper fetches single pages. It never follows links.
type Scraper struct {
	config ScraperConfig
	client *http.Client
	log    *zap.Logger
}

// Error describes why a page could not be extracted.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("extract %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewWithConfig(config ScraperConfig) *Scraper {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		log: log,
	}
}

// Extract downloads urlStr and returns its visible text. Any failure yields an *Error
// together with an empty Document carrying only the URL.
func (s *Scraper) Extract(ctx context.Context, urlStr string) (models.Document, error) {
	doc := models.Document{URL: urlStr}

	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return doc, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return doc, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return doc, &Error{URL: urlStr, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return doc, &Error{URL: urlStr, Message: fmt.Sprintf("received status code %d", resp.StatusCode)}
	}

	page, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, s.config.MaxBodyBytes))
	if err != nil {
		return doc, &Error{URL: urlStr, Message: "failed to parse HTML", Cause: err}
	}

	doc.Title = processor.CleanText(page.Find("title").First().Text())
	doc.Text = visibleText(page)

	if doc.Empty() {
		s.log.Warn("page has no visible text", zap.String("url", urlStr))
		return doc, nil
	}

	s.log.Debug("page extracted",
		zap.String("url", urlStr),
		zap.Int("chars", len(doc.Text)),
	)

	return doc, nil
}

// visibleText drops non-rendered elements and joins the remaining text nodes with spaces.
func visibleText(page *goquery.Document) string {
	page.Find(noiseSelector).Remove()
	page.Find("head").Remove()

	root := page.Find("body")
	if root.Length() == 0 {
		root = page.Selection
	}

	var parts []string
	root.Contents().Each(func(_ int, sel *goquery.Selection) {
		parts = collectText(sel, parts)
	})

	return processor.CleanText(strings.Join(parts, " "))
}

// collectText walks the tree so adjacent blocks like <h1>a</h1><p>b</p> become "a b", not "ab".
func collectText(sel *goquery.Selection, parts []string) []string {
	if goquery.NodeName(sel) == "#text" {
		return append(parts, sel.Text())
	}
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		parts = collectText(child, parts)
	})
	return parts
}
