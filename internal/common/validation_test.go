package common

import (
	"strings"
	"testing"

	"hybridhunter/internal/errors"
	"hybridhunter/internal/ranking"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}
	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectError      bool
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: supported},
		{name: "text", format: "text", supportedFormats: supported},
		{name: "markdown", format: "markdown", supportedFormats: supported},
		{
			name:             "unsupported xlsx",
			format:           "xlsx",
			supportedFormats: supported,
			expectError:      true,
			expectedError:    "unsupported output format 'xlsx'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive",
			format:           "JSON",
			supportedFormats: supported,
			expectError:      true,
			expectedError:    "unsupported output format 'JSON'",
		},
		{name: "no restrictions", format: "anything", supportedFormats: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if !tt.expectError {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.IsType(err, errors.ErrorTypeValidation) {
				t.Errorf("expected a validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.expectedError) {
				t.Errorf("expected error containing %q, got %q", tt.expectedError, err.Error())
			}
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	formats := []string{"json", "text"}
	got := GetSupportedFormats(formats)
	if len(got) != 2 || got[0] != "json" || got[1] != "text" {
		t.Errorf("unexpected formats %v", got)
	}
	if GetSupportedFormats(nil) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestValidateCriteria(t *testing.T) {
	tests := []struct {
		name     string
		criteria *ranking.Criteria
		wantErr  bool
	}{
		{name: "nil uses config", criteria: nil},
		{name: "zero threshold", criteria: &ranking.Criteria{MinScore: 0, MaxCount: 25}},
		{name: "full threshold", criteria: &ranking.Criteria{MinScore: 100}},
		{name: "negative threshold", criteria: &ranking.Criteria{MinScore: -1}, wantErr: true},
		{name: "threshold above 100", criteria: &ranking.Criteria{MinScore: 101}, wantErr: true},
		{name: "negative count", criteria: &ranking.Criteria{MinScore: 50, MaxCount: -3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCriteria(tt.criteria)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCriteria() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDestination(t *testing.T) {
	tests := []struct {
		address string
		wantErr bool
	}{
		{address: ""},
		{address: "me@example.com"},
		{address: "Job Seeker <me@example.com>"},
		{address: "not-an-address", wantErr: true},
		{address: "@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := ValidateDestination(tt.address)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDestination(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
		})
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supported := []string{"json", "text", "markdown"}
	for b.Loop() {
		_ = ValidateOutputFormat("markdown", supported)
	}
}
