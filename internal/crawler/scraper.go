package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"gdpetl/internal/models"
	"gdpetl/pkg/utils"
)

// ErrUnexpectedStatusCode indicates an HTTP response with a non-2xx status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// ErrBodyTooLarge indicates a response body longer than the configured buffer.
var ErrBodyTooLarge = errors.New("response body exceeds buffer size")

// NetworkError reports a failed fetch: unreachable host, timeout or non-2xx status.
type NetworkError struct {
	Cause      error
	URL        string
	Message    string
	StatusCode int
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("network error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}

	return fmt.Sprintf("network error for %s: %s", e.URL, e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Options configures the scraper.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	BufferSizeKb int
}

// DefaultOptions mirrors the timeout the job has always used.
func DefaultOptions() Options {
	return Options{
		UserAgent:    "Mozilla/5.0 (compatible; gdpetl/1.0)",
		Timeout:      30 * time.Second,
		BufferSizeKb: 8192,
	}
}

// Scraper performs the single outbound read of a run. It never retries.
type Scraper struct {
	client       *resty.Client
	bufferSizeKb int
}

// NewScraper creates a new scraper instance with default options.
func NewScraper() *Scraper {
	return NewScraperWithOptions(DefaultOptions())
}

// NewScraperWithOptions creates a scraper with the given options.
func NewScraperWithOptions(opts Options) *Scraper {
	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeaders(utils.NewHTTPHelper().BuildHeaders(opts.UserAgent, nil))

	return &Scraper{
		client:       client,
		bufferSizeKb: opts.BufferSizeKb,
	}
}

// Fetch retrieves url and returns its body as a RawDocument.
func (s *Scraper) Fetch(ctx context.Context, url string) (*models.RawDocument, error) {
	startTime := time.Now()

	res, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		if res != nil && res.RawBody() != nil {
			_ = res.RawBody().Close()
		}

		return nil, &NetworkError{URL: url, Message: "request failed", Cause: err}
	}

	body := res.RawBody()
	defer func() { _ = body.Close() }()

	if res.StatusCode() < http.StatusOK || res.StatusCode() >= http.StatusMultipleChoices {
		return nil, &NetworkError{
			URL:        url,
			Message:    res.Status(),
			StatusCode: res.StatusCode(),
			Cause:      fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, res.StatusCode()),
		}
	}

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(s.bufferSizeKb) * 1024

	content, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, &NetworkError{URL: url, Message: "failed to read response body", StatusCode: res.StatusCode(), Cause: err}
	}

	if int64(len(content)) > limit {
		return nil, &NetworkError{
			URL:        url,
			Message:    "response body too large",
			StatusCode: res.StatusCode(),
			Cause:      fmt.Errorf("%w: limit %d KB", ErrBodyTooLarge, s.bufferSizeKb),
		}
	}

	return &models.RawDocument{
		URL:         url,
		Body:        content,
		StatusCode:  res.StatusCode(),
		ContentType: res.Header().Get("Content-Type"),
		FetchedIn:   time.Since(startTime),
	}, nil
}

// ReadLocalFile reads a saved HTML snapshot from disk.
func (s *Scraper) ReadLocalFile(filePath string) (*models.RawDocument, error) {
	startTime := time.Now()

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}

	return &models.RawDocument{
		URL:         filePath,
		Body:        content,
		ContentType: "text/html",
		FetchedIn:   time.Since(startTime),
	}, nil
}
