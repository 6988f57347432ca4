package validation

import (
	"testing"
	"time"
)

type sample struct {
	BaseURL     string        `json:"base_url" validate:"required"`
	Timeout     time.Duration `json:"timeout" validate:"gt=0"`
	MaxAttempts int           `json:"max_attempts" validate:"gte=0"`
}

func TestStructValid(t *testing.T) {
	errs := Struct(sample{BaseURL: "https://example.com", Timeout: time.Second})
	if errs != nil {
		t.Fatalf("unexpected violations: %v", errs)
	}
}

func TestStructViolations(t *testing.T) {
	errs := Struct(sample{Timeout: -1, MaxAttempts: -2})
	if len(errs) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(errs), errs)
	}

	byField := map[string]string{}
	for _, e := range errs {
		byField[e.Field] = e.Message
	}
	if byField["base_url"] != "is required" {
		t.Errorf("base_url message = %q", byField["base_url"])
	}
	if byField["timeout"] != "must be greater than 0" {
		t.Errorf("timeout message = %q", byField["timeout"])
	}
	if byField["max_attempts"] != "must be at least 0" {
		t.Errorf("max_attempts message = %q", byField["max_attempts"])
	}
}

func TestSnakeCaseFallback(t *testing.T) {
	type noTags struct {
		RetryDelay int `validate:"gt=0"`
	}
	errs := Struct(noTags{})
	if len(errs) != 1 || errs[0].Field != "retry_delay" {
		t.Fatalf("unexpected violations: %v", errs)
	}
}
