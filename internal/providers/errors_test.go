package providers

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want FailoverReason
	}{
		{"rate limit", errors.New("429 too many requests"), FailoverRateLimit},
		{"auth", errors.New("401 unauthorized"), FailoverAuth},
		{"billing", errors.New("insufficient quota"), FailoverBilling},
		{"server", errors.New("502 bad gateway"), FailoverServerError},
		{"timeout", errors.New("context deadline exceeded"), FailoverTimeout},
		{"unknown", errors.New("something odd"), FailoverUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyError(tc.err); got != tc.want {
				t.Errorf("ClassifyError(%q) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestProviderErrorWithStatus(t *testing.T) {
	err := NewProviderError("anthropic", "claude-sonnet-4-20250514", errors.New("boom")).WithStatus(429)
	if err.Reason != FailoverRateLimit {
		t.Fatalf("expected rate_limit reason, got %s", err.Reason)
	}
	if !IsRetryable(err) {
		t.Fatal("expected rate-limited error to be retryable")
	}
	if ShouldFailover(err) {
		t.Fatal("rate limit alone should not trigger failover")
	}
}

func TestIsProviderErrorRoundTrip(t *testing.T) {
	wrapped := NewProviderError("openai", "gpt-4o", errors.New("down"))
	if !IsProviderError(wrapped) {
		t.Fatal("expected IsProviderError to recognize wrapped error")
	}
	extracted, ok := GetProviderError(wrapped)
	if !ok || extracted.Provider != "openai" {
		t.Fatalf("expected to extract provider error, got %+v ok=%v", extracted, ok)
	}
}
