package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Category is a failure taxonomy entry
type Category string

// Failure categories
const (
	CategoryServerError  Category = "server_error"
	CategoryNotFound     Category = "not_found"
	CategoryBadRequest   Category = "bad_request"
	CategoryRateLimited  Category = "rate_limited"
	CategoryNetworkError Category = "network_error"
	CategoryUnknown      Category = "unknown"
)

// Default base delays
const (
	DefaultServerErrorDelay  = 30 * time.Second
	DefaultRateLimitDelay    = 60 * time.Second
	DefaultNetworkErrorDelay = 5 * time.Second
)

// ErrCircuitOpen is returned when the breaker rejects a request
var ErrCircuitOpen = errors.New("upstream circuit breaker is open")

// StatusError is a non-200 openFDA response
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("openfda returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("openfda returned HTTP %d", e.StatusCode)
}

// Classification describes how a failure should be handled
type Classification struct {
	Category    Category
	Retryable   bool
	BaseDelay   time.Duration
	Suggestions []string
}

// Classifier maps failures to classifications. The zero value uses default delays.
type Classifier struct {
	ServerErrorDelay  time.Duration
	RateLimitDelay    time.Duration
	NetworkErrorDelay time.Duration
}

// ClassifyStatus classifies an HTTP status code
func (c Classifier) ClassifyStatus(status int) Classification {
	switch {
	case status >= 500:
		return Classification{
			Category:  CategoryServerError,
			Retryable: true,
			BaseDelay: orDefault(c.ServerErrorDelay, DefaultServerErrorDelay),
			Suggestions: []string{
				"The openFDA service is having problems; try again in a few minutes",
				"Check https://open.fda.gov/apis/status/ for ongoing incidents",
			},
		}
	case status == http.StatusNotFound:
		return Classification{
			Category: CategoryNotFound,
			Suggestions: []string{
				"Check the spelling of the drug name",
				"Try the generic name instead of the brand name, or the reverse",
				"Remove salt or dosage-form suffixes such as 'hydrochloride' or 'tablets'",
			},
		}
	case status == http.StatusBadRequest:
		return Classification{
			Category: CategoryBadRequest,
			Suggestions: []string{
				"Use plain drug names without quotes or special characters",
				"Shorten the search term to the active ingredient",
			},
		}
	case status == http.StatusTooManyRequests:
		return Classification{
			Category:  CategoryRateLimited,
			Retryable: true,
			BaseDelay: orDefault(c.RateLimitDelay, DefaultRateLimitDelay),
			Suggestions: []string{
				"The openFDA rate limit was reached; wait a minute before retrying",
				"Configure an openFDA API key to raise the rate limit",
				"Reduce the number of drugs in batch requests",
			},
		}
	default:
		return unknownClassification()
	}
}

// Classify classifies an error returned by an upstream call
func (c Classifier) Classify(err error) Classification {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return c.ClassifyStatus(statusErr.StatusCode)
	}
	if errors.Is(err, ErrCircuitOpen) {
		return Classification{
			Category: CategoryServerError,
			Suggestions: []string{
				"openFDA failed repeatedly and requests are paused; try again shortly",
				"Check https://open.fda.gov/apis/status/ for ongoing incidents",
			},
		}
	}
	if isNetworkError(err) {
		return Classification{
			Category:  CategoryNetworkError,
			Retryable: true,
			BaseDelay: orDefault(c.NetworkErrorDelay, DefaultNetworkErrorDelay),
			Suggestions: []string{
				"Check network connectivity to api.fda.gov",
				"The request timed out or the connection dropped; try again",
			},
		}
	}
	return unknownClassification()
}

// Classify classifies err with default delays
func Classify(err error) Classification {
	return Classifier{}.Classify(err)
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func unknownClassification() Classification {
	return Classification{
		Category: CategoryUnknown,
		Suggestions: []string{
			"An unexpected error occurred while querying openFDA",
			"Try again with a simpler drug name",
		},
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
