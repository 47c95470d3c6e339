package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeOK},
		{"not an image", ErrNotAnImage, OutcomeNotApplicable},
		{"wrapped not an image", fmt.Errorf("x.txt: %w", ErrNotAnImage), OutcomeNotApplicable},
		{"decode error", &DecodeError{MimeType: "image/jpeg", Err: errors.New("bad")}, OutcomeFailed},
		{"encode error", fmt.Errorf("%w: boom", ErrEncode), OutcomeFailed},
		{"missing file", os.ErrNotExist, OutcomeFailed},
		{"timeout", context.DeadlineExceeded, OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerationStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{&DecodeError{Err: errors.New("bad")}, "error_decode"},
		{fmt.Errorf("%w: boom", ErrEncode), "error_encode"},
		{fmt.Errorf("wait: %w", context.DeadlineExceeded), "error_timeout"},
		{os.ErrPermission, "error"},
	}
	for _, tt := range tests {
		if got := generationStatus(tt.err); got != tt.want {
			t.Errorf("generationStatus(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	inner := errors.New("invalid JPEG format")
	err := &DecodeError{Path: "/g/a.jpg", MimeType: "image/jpeg", Detected: "image/png", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("DecodeError should unwrap to its cause")
	}
	msg := err.Error()
	for _, want := range []string{"/g/a.jpg", "image/jpeg", "image/png", "invalid JPEG format"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}

	same := &DecodeError{MimeType: "image/gif", Detected: "image/gif", Err: inner}
	if strings.Contains(same.Error(), "looks like") {
		t.Errorf("Error() = %q, should not mention detection when types agree", same.Error())
	}
}

func TestOutcomeString(t *testing.T) {
	if OutcomeNotApplicable.String() != "not_applicable" {
		t.Errorf("String() = %q", OutcomeNotApplicable.String())
	}
	if Outcome(9).String() != "outcome(9)" {
		t.Errorf("String() = %q", Outcome(9).String())
	}
}
