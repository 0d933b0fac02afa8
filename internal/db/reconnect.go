package db

import (
	"log"
	"strings"
	"time"

	"github.com/unklstewy/uatfeed/pkg/config"
)

// ConnectWithRetry connects to the archive database with exponential
// backoff, so the feeder survives a database that comes up after it.
// maxRetries of 0 retries forever.
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration) (*DB, error) {
	delay := initialDelay
	attempt := 0

	for {
		attempt++

		database, err := Connect(cfg)
		if err == nil {
			return database, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			log.Printf("Failed to connect to archive database after %d attempts", attempt)
			return nil, err
		}

		log.Printf("Archive database connection failed: %v (retry in %v)", err, delay)
		time.Sleep(delay)

		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// connErrorPatterns are substrings of errors worth retrying; anything
// else (constraint violations, bad SQL) fails immediately.
var connErrorPatterns = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"EOF",
	"timeout",
}

func isConnError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrorPatterns {
		if strings.Contains(msg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// retryBaseDelay scales the linear backoff in WithRetry; tests shrink it.
var retryBaseDelay = time.Second

// WithRetry executes a database operation, retrying transient connection
// failures with a linear backoff.
func WithRetry(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isConnError(err) {
			return err
		}

		if attempt < maxRetries {
			waitTime := time.Duration(attempt+1) * retryBaseDelay
			log.Printf("Archive operation failed (attempt %d/%d): %v (retry in %v)",
				attempt+1, maxRetries+1, err, waitTime)
			time.Sleep(waitTime)
		}
	}

	return lastErr
}
