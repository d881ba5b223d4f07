package scripting

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input validation limits applied before the repositories are touched.
const (
	MaxNicknameLen  = 30
	MaxTitleLen     = 128
	MaxBodyLen      = 8192 // 8KB message body
	MaxSignatureLen = 512
	MaxFieldLen     = 128
)

// ValidateInput performs common input validation checks for the
// script-facing API.
type ValidateInput struct{}

// ValidateString checks string length and basic content validation.
func (v *ValidateInput) ValidateString(value, fieldName string, maxLen int) error {
	if !utf8.ValidString(value) {
		return fmt.Errorf("%s contains invalid UTF-8", fieldName)
	}

	length := utf8.RuneCountInString(value)
	if length > maxLen {
		return fmt.Errorf("%s too long (max %d characters)", fieldName, maxLen)
	}

	return nil
}

// ValidateNickname checks nickname requirements.
func (v *ValidateInput) ValidateNickname(nickname string) error {
	if err := v.ValidateString(nickname, "nickname", MaxNicknameLen); err != nil {
		return err
	}

	if len(nickname) < 2 {
		return fmt.Errorf("nickname too short (minimum 2 characters)")
	}

	for _, r := range nickname {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-') {
			return fmt.Errorf("nickname contains invalid characters (use letters, numbers, _ or -)")
		}
	}

	return nil
}

// ValidateTitle checks a message title.
func (v *ValidateInput) ValidateTitle(title string) error {
	if err := v.ValidateString(title, "title", MaxTitleLen); err != nil {
		return err
	}

	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title cannot be empty")
	}

	return nil
}

// ValidateBody checks message content.
func (v *ValidateInput) ValidateBody(body string) error {
	if err := v.ValidateString(body, "message body", MaxBodyLen); err != nil {
		return err
	}

	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("message body cannot be empty")
	}

	return nil
}

// ValidateSourceIP checks a dotted-quad source address. Empty is fine;
// the repository substitutes its default.
func (v *ValidateInput) ValidateSourceIP(ip string) error {
	if ip == "" {
		return nil
	}

	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return fmt.Errorf("source address must be a dotted quad")
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return fmt.Errorf("source address octet %q out of range", part)
		}
	}

	return nil
}

// ValidateEmail checks basic email format.
func (v *ValidateInput) ValidateEmail(email string) error {
	if email == "" {
		return nil // Email is optional
	}

	if err := v.ValidateString(email, "email", MaxFieldLen); err != nil {
		return err
	}

	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return fmt.Errorf("invalid email format")
	}

	return nil
}
