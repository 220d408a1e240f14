package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPrompts resolves prompt files for every operation. File content is
// stored in the inline field so callers only ever read PromptConfig.System
// and PromptConfig.User.
func (c *Config) loadPrompts() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	if err := c.validatePromptFiles(); err != nil {
		return err
	}

	operations := []struct {
		name    string
		prompts *PromptConfig
	}{
		{"planner", &c.AI.Planner.Prompts},
		{"scorer", &c.AI.Scorer.Prompts},
	}

	loaded := 0
	for _, op := range operations {
		n, err := loadOperationPrompts(op.name, op.prompts)
		if err != nil {
			return err
		}
		loaded += n
	}

	if loaded == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", loaded)
	}
	return nil
}

func loadOperationPrompts(operation string, prompts *PromptConfig) (int, error) {
	loaded := 0

	if prompts.System == "" && prompts.SystemFile != "" {
		content, err := loadPromptFromFile(prompts.SystemFile, "system", operation)
		if err != nil {
			return loaded, err
		}
		prompts.System = content
		loaded++
	}

	if prompts.User == "" && prompts.UserFile != "" {
		content, err := loadPromptFromFile(prompts.UserFile, "user", operation)
		if err != nil {
			return loaded, err
		}
		prompts.User = content
		loaded++
	}

	return loaded, nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles checks every configured prompt file exists before any is read
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	validateFile(c.AI.Planner.Prompts.SystemFile, "system", "planner")
	validateFile(c.AI.Planner.Prompts.UserFile, "user", "planner")
	validateFile(c.AI.Scorer.Prompts.SystemFile, "system", "scorer")
	validateFile(c.AI.Scorer.Prompts.UserFile, "user", "scorer")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}
