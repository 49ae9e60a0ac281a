package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeConfig, "test error")
	expected := "CONFIG_ERROR: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("connection refused")
	err := NewTransientError("stats", originalErr)

	if err.Cause != originalErr {
		t.Errorf("Cause = %v, want %v", err.Cause, originalErr)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() should contain cause, got: %v", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("errors.Is should see the cause through Unwrap")
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("thresholds.bitrate", "must be > 0")
	if err.Code != ErrCodeConfig {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeConfig)
	}
	if err.Context["field"] != "thresholds.bitrate" {
		t.Errorf("Context[field] = %v, want thresholds.bitrate", err.Context["field"])
	}
	if err.Message != "thresholds.bitrate must be > 0" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewElementNotFoundError(t *testing.T) {
	err := NewElementNotFoundError("Warning", "Live")
	if err.Code != ErrCodeElementNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeElementNotFound)
	}
	if err.Context["scene"] != "Live" {
		t.Errorf("Context[scene] = %v, want Live", err.Context["scene"])
	}
}

func TestClassification_ThroughWrapping(t *testing.T) {
	base := NewTransientError("obs", errors.New("dial tcp: timeout"))
	wrapped := fmt.Errorf("ensure connected: %w", base)

	if !IsTransient(wrapped) {
		t.Error("expected wrapped transient error to be classified as transient")
	}
	if IsConfigError(wrapped) || IsElementNotFound(wrapped) {
		t.Error("transient error must not match other codes")
	}
	if GetAppError(wrapped) != base {
		t.Error("GetAppError should return the wrapped AppError")
	}
	if GetAppError(errors.New("plain")) != nil {
		t.Error("GetAppError should return nil for plain errors")
	}
	if GetAppError(nil) != nil {
		t.Error("GetAppError should return nil for nil")
	}
}

func TestNewUnexpectedError(t *testing.T) {
	err := NewUnexpectedError(errors.New("boom"))
	if !HasCode(err, ErrCodeUnexpected) {
		t.Errorf("expected unexpected fault code, got %v", err.Code)
	}
}
