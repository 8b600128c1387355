package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	// ErrTransport matches every failure to obtain a completion.
	ErrTransport = errors.New("llm transport failure")
	// ErrTimeout matches transport failures caused by the call deadline.
	ErrTimeout = errors.New("llm request timed out")
)

// TransportError is returned for unreachable backends, non-2xx responses and
// backend-declared error payloads. It matches ErrTransport, and ErrTimeout
// as well when Timeout is set.
type TransportError struct {
	Provider   string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: request timed out: %v", e.Provider, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() []error {
	errs := []error{ErrTransport}
	if e.Timeout {
		errs = append(errs, ErrTimeout)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsTimeout reports whether err was caused by a call deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// classify turns any generator error into a *TransportError, marking it as a
// timeout when ctx ran out or the network layer said so.
func classify(ctx context.Context, provider string, err error) error {
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timedOut = true
	}

	var te *TransportError
	if errors.As(err, &te) {
		if timedOut && !te.Timeout {
			c := *te
			c.Timeout = true
			return &c
		}
		return err
	}
	return &TransportError{Provider: provider, Timeout: timedOut, Err: err}
}

// Generate runs one text completion under its own deadline. A zero timeout
// leaves ctx as is. Failures are never retried.
func Generate(ctx context.Context, gen TextGenerator, prompt string, timeout time.Duration) (ContentResponse, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	resp, err := gen.GenerateContent(ctx, prompt)
	if err != nil {
		return ContentResponse{}, classify(ctx, providerName(gen), err)
	}
	return resp, nil
}

// GenerateFromImage is Generate for vision requests.
func GenerateFromImage(ctx context.Context, gen VisionGenerator, prompt string, img Image, timeout time.Duration) (ContentResponse, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	resp, err := gen.GenerateFromImage(ctx, prompt, img)
	if err != nil {
		return ContentResponse{}, classify(ctx, providerName(gen), err)
	}
	return resp, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

type named interface {
	Provider() string
}

func providerName(v any) string {
	if n, ok := v.(named); ok {
		return n.Provider()
	}
	return "llm"
}
