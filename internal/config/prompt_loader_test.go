package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()

	systemPromptContent := "You plan job searches."
	userPromptContent := "Intent: %s Resume: %s"

	systemPromptFile := filepath.Join(tempDir, "system.planner.md")
	userPromptFile := filepath.Join(tempDir, "user.planner.md")

	if err := os.WriteFile(systemPromptFile, []byte(systemPromptContent+"\n"), 0600); err != nil {
		t.Fatalf("Failed to create test system prompt file: %v", err)
	}
	if err := os.WriteFile(userPromptFile, []byte(userPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test user prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			Planner: OperationAIConfig{
				Prompts: PromptConfig{
					SystemFile: systemPromptFile,
					UserFile:   userPromptFile,
				},
			},
			Scorer: OperationAIConfig{
				Prompts: PromptConfig{
					User:     "inline wins",
					UserFile: userPromptFile,
				},
			},
		},
	}

	if err := config.loadPrompts(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	if config.AI.Planner.Prompts.System != systemPromptContent {
		t.Errorf("Expected system prompt '%s', got '%s'", systemPromptContent, config.AI.Planner.Prompts.System)
	}
	if config.AI.Planner.Prompts.User != userPromptContent {
		t.Errorf("Expected user prompt '%s', got '%s'", userPromptContent, config.AI.Planner.Prompts.User)
	}
	if config.AI.Scorer.Prompts.User != "inline wins" {
		t.Errorf("Expected inline scorer prompt to be kept, got '%s'", config.AI.Scorer.Prompts.User)
	}
	if config.AI.Planner.Prompts.SystemFile != systemPromptFile {
		t.Error("Expected system prompt file path to be preserved")
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()

	validFile := filepath.Join(tempDir, "valid.md")
	if err := os.WriteFile(validFile, []byte("Valid content"), 0600); err != nil {
		t.Fatalf("Failed to create valid test file: %v", err)
	}

	tests := []struct {
		name        string
		config      *Config
		expectError bool
	}{
		{
			name:   "no prompt files",
			config: &Config{},
		},
		{
			name: "existing prompt file",
			config: &Config{AI: AIConfig{Scorer: OperationAIConfig{
				Prompts: PromptConfig{SystemFile: validFile},
			}}},
		},
		{
			name: "missing prompt file",
			config: &Config{AI: AIConfig{Planner: OperationAIConfig{
				Prompts: PromptConfig{UserFile: filepath.Join(tempDir, "missing.md")},
			}}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validatePromptFiles()
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestLoadPromptFromEmptyFile(t *testing.T) {
	emptyFile := filepath.Join(t.TempDir(), "empty.md")
	if err := os.WriteFile(emptyFile, []byte("   \n"), 0600); err != nil {
		t.Fatalf("Failed to create empty file: %v", err)
	}

	_, err := loadPromptFromFile(emptyFile, "user", "scorer")
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Errorf("Expected empty file error, got %v", err)
	}
}
