package server

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength     = 20
	maxPasswordLength = 32
	minPasswordLength = 3
	maxAnswerLength   = 100
	maxRoomNameLength = 40
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			_, err := validateName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("roomname", func(fl validator.FieldLevel) bool {
			_, err := validateRoomName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			_, err := validatePassword(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("answer", func(fl validator.FieldLevel) bool {
			_, err := validateAnswer(fl.Field().String())
			return err == nil
		})
	})
}

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateRoomName(name string) (string, error) {
	return validateText("room name", name, maxRoomNameLength)
}

func validateAnswer(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("answer is required")
	}
	if utf8.RuneCountInString(trimmed) > maxAnswerLength {
		return "", fmt.Errorf("answer must be %d characters or fewer", maxAnswerLength)
	}
	if !isSafeText(trimmed, true) {
		return "", fmt.Errorf("answer contains unsupported characters")
	}
	return trimmed, nil
}

func validatePassword(password string) (string, error) {
	trimmed := strings.TrimSpace(password)
	count := utf8.RuneCountInString(trimmed)
	if count < minPasswordLength || count > maxPasswordLength {
		return "", fmt.Errorf("password must be %d to %d characters", minPasswordLength, maxPasswordLength)
	}
	if !isSafeText(trimmed, false) {
		return "", fmt.Errorf("password contains unsupported characters")
	}
	return trimmed, nil
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed, false) {
		return "", fmt.Errorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

// isSafeText rejects control and format characters. Newlines pass only when allowed.
func isSafeText(text string, allowNewlines bool) bool {
	for _, r := range text {
		if r == utf8.RuneError {
			return false
		}
		if r == '\n' && allowNewlines {
			continue
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return false
		}
	}
	return true
}
