// Package validator holds the pure input-sanitation functions sitting in
// front of every trust boundary. No state, no I/O.
package validator

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"securevault/internal/errs"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MaxEmailLength    = 100
	MaxDescriptionLen = 100
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var reservedUsernames = map[string]struct{}{
	"admin":     {},
	"root":      {},
	"system":    {},
	"null":      {},
	"undefined": {},
}

var commonPasswords = map[string]struct{}{
	"password": {}, "123456": {}, "123456789": {}, "qwerty": {},
	"abc123": {}, "password123": {}, "admin": {}, "letmein": {},
	"welcome": {}, "monkey": {}, "1234567890": {}, "password1": {},
	"123123": {}, "admin123": {},
}

// Conservative denylist of SQL metacharacter sequences. Defense in depth on
// top of parameterized queries, not the primary injection defense.
var sqlInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|EXEC|UNION|SCRIPT)\b`),
	regexp.MustCompile(`--|#|/\*|\*/`),
	regexp.MustCompile(`(?i)'\s*(OR|AND)\s+.+=`),
	regexp.MustCompile(`[;|&]`),
	regexp.MustCompile(`(?i)\bxp_cmdshell\b`),
	regexp.MustCompile(`(?i)\bsp_executesql\b`),
}

var markupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?is)<iframe[^>]*>`),
	regexp.MustCompile(`(?is)<object[^>]*>`),
	regexp.MustCompile(`(?is)<embed[^>]*>`),
	regexp.MustCompile(`(?is)<link[^>]*>`),
	regexp.MustCompile(`(?is)<meta[^>]*>`),
}

func ValidateUsername(username string) error {
	if username == "" {
		return errs.Validation("username", "username is required")
	}
	length := utf8.RuneCountInString(username)
	if length < MinUsernameLength {
		return errs.Validation("username", fmt.Sprintf("must be at least %d characters", MinUsernameLength))
	}
	if length > MaxUsernameLength {
		return errs.Validation("username", fmt.Sprintf("must not exceed %d characters", MaxUsernameLength))
	}
	if !usernameRegex.MatchString(username) {
		return errs.Validation("username", "only letters, numbers, and underscores are allowed")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return errs.Validation("username", "username is not available")
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return errs.Validation("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return errs.Validation("email", fmt.Sprintf("must not exceed %d characters", MaxEmailLength))
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return errs.Validation("email", "must not contain whitespace")
	}
	if strings.Count(email, "@") != 1 {
		return errs.Validation("email", "must contain exactly one @")
	}
	at := strings.Index(email, "@")
	local, domain := email[:at], email[at+1:]
	if local == "" {
		return errs.Validation("email", "missing local part")
	}
	if !strings.Contains(domain, ".") {
		return errs.Validation("email", "domain must contain a dot")
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return errs.Validation("email", "invalid dot placement")
	}
	if strings.Contains(email, "..") {
		return errs.Validation("email", "invalid dot placement")
	}
	return nil
}

// PasswordStrength tiers.
type Strength string

const (
	Weak   Strength = "weak"
	Medium Strength = "medium"
	Strong Strength = "strong"
)

// ValidatePassword enforces the registration password policy.
func ValidatePassword(password string, minLength int) error {
	if password == "" {
		return errs.Validation("password", "password is required")
	}
	if utf8.RuneCountInString(password) < minLength {
		return errs.Validation("password", fmt.Sprintf("must be at least %d characters long", minLength))
	}
	var missing []string
	if !containsClass(password, unicode.IsUpper) {
		missing = append(missing, "an uppercase letter")
	}
	if !containsClass(password, unicode.IsLower) {
		missing = append(missing, "a lowercase letter")
	}
	if !containsClass(password, unicode.IsDigit) {
		missing = append(missing, "a digit")
	}
	if !strings.ContainsAny(password, "@#$%&*!") {
		missing = append(missing, "a special character (@#$%&*!)")
	}
	if len(missing) > 0 {
		return errs.Validation("password", "must contain "+strings.Join(missing, ", "))
	}
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return errs.Validation("password", "password is too common")
	}
	return nil
}

// PasswordStrength scores a candidate password and lists unmet requirements.
func PasswordStrength(password string) (Strength, int, []string) {
	score := 0
	var suggestions []string
	if utf8.RuneCountInString(password) >= 8 {
		score += 20
	} else {
		suggestions = append(suggestions, "use at least 8 characters")
	}
	if utf8.RuneCountInString(password) >= 12 {
		score += 10
	}
	checks := []struct {
		ok         bool
		points     int
		suggestion string
	}{
		{containsClass(password, unicode.IsLower), 15, "add lowercase letters"},
		{containsClass(password, unicode.IsUpper), 15, "add uppercase letters"},
		{containsClass(password, unicode.IsDigit), 15, "add numbers"},
		{strings.ContainsAny(password, "@#$%&*!"), 15, "add special characters (@#$%&*!)"},
	}
	for _, check := range checks {
		if check.ok {
			score += check.points
		} else {
			suggestions = append(suggestions, check.suggestion)
		}
	}
	unique := map[rune]struct{}{}
	for _, r := range password {
		unique[r] = struct{}{}
	}
	if len(unique) >= 8 {
		score += 10
	}
	lower := strings.ToLower(password)
	for _, pattern := range []string{"123", "abc", "qwe", "password"} {
		if strings.Contains(lower, pattern) {
			score -= 20
			suggestions = append(suggestions, "avoid common patterns")
			break
		}
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	tier := Weak
	switch {
	case score >= 80:
		tier = Strong
	case score >= 50:
		tier = Medium
	}
	return tier, score, suggestions
}

// SanitizeText validates free-form text and returns it with markup-significant
// characters entity-escaped. Length is counted in runes so multi-byte input is
// never split mid-sequence.
func SanitizeText(input string, maxLength int) (string, error) {
	if utf8.RuneCountInString(input) > maxLength {
		return "", errs.Validation("text", fmt.Sprintf("must not exceed %d characters", maxLength))
	}
	for _, r := range input {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return "", errs.Validation("text", "control characters are not allowed")
		}
	}
	stripped := input
	for _, pattern := range markupPatterns {
		stripped = pattern.ReplaceAllString(stripped, "")
	}
	return strings.TrimSpace(html.EscapeString(stripped)), nil
}

// DetectInjection flags classic SQL-metacharacter sequences.
func DetectInjection(input string) bool {
	for _, pattern := range sqlInjectionPatterns {
		if pattern.MatchString(input) {
			return true
		}
	}
	return false
}

func containsClass(s string, class func(rune) bool) bool {
	for _, r := range s {
		if class(r) {
			return true
		}
	}
	return false
}
