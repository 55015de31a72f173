package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected is returned when the scanner flags an upload.
var ErrInfected = errors.New("malicious file detected")

// Scanner inspects upload bytes before they are stored.
type Scanner interface {
	Scan(ctx context.Context, data []byte) error
}

// ClamdScanner streams uploads to a clamd daemon.
type ClamdScanner struct {
	client *clamd.Clamd
}

// NewClamdScanner returns a scanner for addr, e.g. "tcp://clamav:3310".
func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{client: clamd.NewClamd(addr)}
}

func (s *ClamdScanner) Scan(ctx context.Context, data []byte) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(bytes.NewReader(data), abort)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-results:
			if !ok {
				return nil
			}
			switch result.Status {
			case clamd.RES_OK:
			case clamd.RES_FOUND:
				return fmt.Errorf("%w: %s", ErrInfected, result.Description)
			default:
				return fmt.Errorf("scan result %s: %s", result.Status, result.Description)
			}
		}
	}
}

// NopScanner accepts everything. It is used when no clamd address is configured.
type NopScanner struct{}

func (NopScanner) Scan(context.Context, []byte) error { return nil }
