package validation

import (
	"errors"
	"strings"
	"unicode"
)

// MaxTemplateLength bounds a route template in runes.
const MaxTemplateLength = 2048

// ErrTemplateEmpty is returned when a template is empty or whitespace-only after trim.
var ErrTemplateEmpty = errors.New("template is required")

// ErrTemplateNotAbsolute is returned when a template does not start with "/".
var ErrTemplateNotAbsolute = errors.New("template must start with /")

// ErrTemplateTooLong is returned when a template exceeds MaxTemplateLength.
var ErrTemplateTooLong = errors.New("template too long")

// ErrTemplateInvalidChars is returned when a template contains whitespace or control characters.
var ErrTemplateInvalidChars = errors.New("template contains invalid characters")

// ErrTemplateUnbalanced is returned when optional-segment parentheses do not pair up.
var ErrTemplateUnbalanced = errors.New("template has unbalanced parentheses")

// ErrHostInvalid is returned when a host constraint is not a dotted sequence of DNS labels.
var ErrHostInvalid = errors.New("host constraint is not a valid subdomain")

// ValidateTemplate trims the input and checks that it is an absolute route template:
// leading "/", bounded length, no whitespace or control characters, and balanced
// parentheses around optional segments. Returns the trimmed template.
func ValidateTemplate(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrTemplateEmpty
	}
	if r[0] != '/' {
		return "", ErrTemplateNotAbsolute
	}
	if len(r) > MaxTemplateLength {
		return "", ErrTemplateTooLong
	}
	depth := 0
	for _, c := range r {
		if unicode.IsSpace(c) || unicode.IsControl(c) {
			return "", ErrTemplateInvalidChars
		}
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return "", ErrTemplateUnbalanced
			}
		}
	}
	if depth != 0 {
		return "", ErrTemplateUnbalanced
	}
	return s, nil
}

// ValidateHost checks a subdomain constraint such as "admin" or "eu.tenant":
// labels of ASCII letters, digits and hyphens, none empty or hyphen-edged. A label
// may instead be a :name placeholder.
func ValidateHost(host string) error {
	if host == "" {
		return ErrHostInvalid
	}
	for _, label := range strings.Split(host, ".") {
		if isPlaceholder(label) {
			continue
		}
		if label == "" || label[0] == '-' || label[len(label)-1] == '-' {
			return ErrHostInvalid
		}
		for _, c := range label {
			if !isAllowedHostRune(c) {
				return ErrHostInvalid
			}
		}
	}
	return nil
}

func isAllowedHostRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-'
}

func isPlaceholder(label string) bool {
	if len(label) < 2 || label[0] != ':' {
		return false
	}
	for _, c := range label[1:] {
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && c != '_' {
			return false
		}
	}
	return true
}
