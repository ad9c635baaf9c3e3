package delivery

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/Sternrassler/banner-delivery/pkg/banner"
)

func TestDeliveryError(t *testing.T) {
	tests := []struct {
		name     string
		err      *DeliveryError
		wantText string
	}{
		{
			name: "with cause",
			err: &DeliveryError{
				Status:  http.StatusBadRequest,
				Class:   ErrorClassClient,
				Message: "missing or malformed banner id",
				Err:     ErrInvalidID,
			},
			wantText: "delivery client error (status 400): missing or malformed banner id: invalid banner id",
		},
		{
			name: "without cause",
			err: &DeliveryError{
				Status:  http.StatusInternalServerError,
				Class:   ErrorClassInternal,
				Message: "banner temporarily unavailable",
			},
			wantText: "delivery internal error (status 500): banner temporarily unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantText {
				t.Errorf("Error() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestDeliveryError_Unwrap(t *testing.T) {
	err := fmt.Errorf("serve: %w", &DeliveryError{
		Status: http.StatusTooManyRequests,
		Class:  ErrorClassRateLimit,
		Err:    ErrRateLimited,
	})

	if !errors.Is(err, ErrRateLimited) {
		t.Error("errors.Is(err, ErrRateLimited) = false, want true")
	}

	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatal("errors.As() = false, want true")
	}
	if derr.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", derr.Status)
	}
}

func TestConsoleLevel(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  string
	}{
		{ErrorClassClient, banner.LevelWarn},
		{ErrorClassRateLimit, banner.LevelWarn},
		{ErrorClassNotFound, banner.LevelWarn},
		{ErrorClassUpstream, banner.LevelError},
		{ErrorClassGeneration, banner.LevelError},
		{ErrorClassInternal, banner.LevelError},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			err := &DeliveryError{Class: tt.class}
			if got := err.consoleLevel(); got != tt.want {
				t.Errorf("consoleLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyStoreError(t *testing.T) {
	notFound := classifyStoreError("fetch metadata", fmt.Errorf("%w: x", banner.ErrNotFound))
	if notFound.Status != http.StatusNotFound || notFound.Class != ErrorClassNotFound {
		t.Errorf("not found classified as %d/%s", notFound.Status, notFound.Class)
	}

	cause := errors.New("dial tcp: connection refused")
	upstream := classifyStoreError("fetch config", cause)
	if upstream.Status != http.StatusInternalServerError || upstream.Class != ErrorClassUpstream {
		t.Errorf("store failure classified as %d/%s", upstream.Status, upstream.Class)
	}
	if !errors.Is(upstream, cause) {
		t.Error("upstream error does not wrap its cause")
	}
	if !strings.HasPrefix(upstream.Err.Error(), "fetch config: ") {
		t.Errorf("Err = %q, want operation prefix", upstream.Err)
	}
}
