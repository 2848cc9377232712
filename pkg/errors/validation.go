package errors

import (
	"strings"
	"unicode"
)

// MaxPromptLength bounds the size of a natural-language prompt.
const MaxPromptLength = 4000

// ValidatePrompt validates a diagram description before it is sent to the
// completion service.
//
// A blank prompt (empty or whitespace only) is reported as EMPTY_INPUT so that
// callers can surface the "Empty Prompt" notification. Oversized prompts and
// prompts carrying null bytes are INVALID_INPUT.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return New(ErrCodeEmptyInput, "Please enter a description for your diagram")
	}

	if len(prompt) > MaxPromptLength {
		return New(ErrCodeInvalidInput, "prompt too long (max %d characters)", MaxPromptLength)
	}

	if strings.ContainsRune(prompt, '\x00') {
		return New(ErrCodeInvalidInput, "prompt contains invalid characters")
	}

	return nil
}

// ValidateFileName validates an export file name.
// It must be a simple basename without path components or control characters.
func ValidateFileName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "file name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "file name cannot contain path separators")
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidInput, "file name cannot be %q", name)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "file name contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
