package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "user@example.com", false},
		{"plus addressing", "user+precog@example.com", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"missing at", "userexample.com", true},
		{"display name", "User <user@example.com>", true},
		{"too long", strings.Repeat("a", 310) + "@example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateHost(t *testing.T) {
	tests := []struct {
		host    string
		wantErr bool
	}{
		{"api.precog.io", false},
		{"localhost", false},
		{"127.0.0.1", false},
		{"::1", false},
		{"[::1]", false},
		{"", true},
		{"https://api.precog.io", true},
		{"api.precog.io/v1", true},
		{"api.precog.io:443", true},
		{"bad host", true},
		{"-bad.example", true},
		{"a..b", true},
		{"under_score.example", true},
		{strings.Repeat("a", 64) + ".example", true},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			err := ValidateHost(tt.host)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHost(%q) error = %v, wantErr %v", tt.host, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	for _, p := range []int{1, 80, 443, 65535} {
		if err := ValidatePort(p); err != nil {
			t.Errorf("ValidatePort(%d) unexpected error: %v", p, err)
		}
	}
	for _, p := range []int{-1, 0, 65536} {
		if err := ValidatePort(p); err == nil {
			t.Errorf("ValidatePort(%d) expected error", p)
		}
	}
}

func TestValidatePath(t *testing.T) {
	valid := []string{"", "/", "foo", "/foo/bar/", "0000000001/test"}
	for _, p := range valid {
		if err := ValidatePath(p); err != nil {
			t.Errorf("ValidatePath(%q) unexpected error: %v", p, err)
		}
	}
	invalid := []string{"../x", "/a/./b", "a?b", "a#b", strings.Repeat("a", MaxPathLength+1)}
	for _, p := range invalid {
		if err := ValidatePath(p); err == nil {
			t.Errorf("ValidatePath(%q) expected error", p)
		}
	}
}

func TestValidateQuery(t *testing.T) {
	if err := ValidateQuery("count(//test)"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateQuery(" \n"); err == nil {
		t.Error("expected error for blank query")
	}
	if err := ValidateQuery(strings.Repeat("x", MaxQueryLength+1)); err == nil {
		t.Error("expected error for oversized query")
	}
}

func TestParsePositiveInt(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"4", 4, false},
		{" 16 ", 16, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePositiveInt(tt.input, "concurrency")
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePositiveInt(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePositiveInt(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
