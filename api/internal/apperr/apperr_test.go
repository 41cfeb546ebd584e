package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
)

func TestFrom(t *testing.T) {
	own := New(ImageTooLarge, "too big")

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"app error passes through", own, ImageTooLarge},
		{"wrapped app error", fmt.Errorf("upload: %w", own), ImageTooLarge},
		{"deadline", context.DeadlineExceeded, NetworkError},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, NetworkError},
		{"network in message", errors.New("network unreachable"), NetworkError},
		{"anything else", errors.New("boom"), Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			if got.Code != tt.want {
				t.Errorf("From(%v).Code = %s, want %s", tt.err, got.Code, tt.want)
			}
		})
	}

	if From(nil) != nil {
		t.Error("From(nil) should be nil")
	}
}

func TestError_StatusAndRetry(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{ImageTooLarge, http.StatusRequestEntityTooLarge, false},
		{ImageInvalidFormat, http.StatusUnsupportedMediaType, false},
		{ImageProcessingFailed, http.StatusUnprocessableEntity, true},
		{APIRateLimit, http.StatusTooManyRequests, true},
		{DataNotFound, http.StatusNotFound, false},
		{Unknown, http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		e := New(tt.code, "x")
		if e.HTTPStatus() != tt.status {
			t.Errorf("%s: status %d, want %d", tt.code, e.HTTPStatus(), tt.status)
		}
		if e.Retryable() != tt.retryable {
			t.Errorf("%s: retryable %v, want %v", tt.code, e.Retryable(), tt.retryable)
		}
	}
}

func TestError_View(t *testing.T) {
	cause := errors.New("decode failed")
	e := Wrap(ImageProcessingFailed, cause).WithDetail("file", "a.png")

	if !errors.Is(e, cause) {
		t.Error("Wrap should keep the cause reachable via errors.Is")
	}

	v := e.View()
	if v.Message != "decode failed" {
		t.Errorf("Message = %q", v.Message)
	}
	if v.UserMessage != UserMessage(ImageProcessingFailed) {
		t.Errorf("UserMessage = %q", v.UserMessage)
	}
	if !v.CanRetry {
		t.Error("processing failures are retryable")
	}
	if v.Details["file"] != "a.png" {
		t.Errorf("Details = %v", v.Details)
	}
	if v.Timestamp == "" {
		t.Error("Timestamp is empty")
	}
}

func TestWithUserMessage(t *testing.T) {
	e := New(ImageTooLarge, "x").WithUserMessage("  ")
	if e.UserMessage != UserMessage(ImageTooLarge) {
		t.Error("blank override must keep the default text")
	}
	e.WithUserMessage("custom")
	if e.UserMessage != "custom" {
		t.Errorf("UserMessage = %q, want custom", e.UserMessage)
	}
}
