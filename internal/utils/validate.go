package utils

import (
	"net/http"
	"regexp"
	"strings"
)

// FieldError mirrors the wire shape of a single validation failure.
type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

// FieldErrors accumulates validation failures for one request.
type FieldErrors []FieldError

func (e *FieldErrors) Add(param, msg string) {
	*e = append(*e, FieldError{Param: param, Msg: msg})
}

func (e FieldErrors) Any() bool {
	return len(e) > 0
}

// Send writes the collected failures as a 422 response.
func (e FieldErrors) Send(w http.ResponseWriter) {
	JSON(w, http.StatusUnprocessableEntity, e)
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// NormalizeEmail lowercases and trims, matching what signup applies before
// the uniqueness check.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
