/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "time"

// RetryOptions configures how backends retry transient failures
type RetryOptions struct {
	MaxRetries   int           // Retry attempts for transient errors (default: 3)
	RetryBackoff time.Duration // Base backoff, multiplied by the attempt number (default: 100ms)
	PageSize     int32         // Items per page for paginated reads (default: 100)
}

// RetryOption is a functional option for configuring retries
type RetryOption func(*RetryOptions)

// DefaultRetryOptions returns default retry options
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PageSize:     100,
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) RetryOption {
	return func(opts *RetryOptions) {
		if retries >= 0 {
			opts.MaxRetries = retries
		}
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) RetryOption {
	return func(opts *RetryOptions) {
		opts.RetryBackoff = backoff
	}
}

// WithPageSize sets the page size for paginated reads
func WithPageSize(size int32) RetryOption {
	return func(opts *RetryOptions) {
		if size > 0 {
			opts.PageSize = size
		}
	}
}
