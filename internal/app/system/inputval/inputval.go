// internal/app/system/inputval/inputval.go
package inputval

import (
	"net/mail"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Input size limits enforced before anything reaches the database.
const (
	MinPasswordLength    = 8
	MaxPasswordLength    = 72 // bcrypt ignores bytes past 72
	MaxDisplayNameLen    = 80
	MaxPostTitleLength   = 200
	MaxPostBodyLength    = 20000
	MaxCommentBodyLength = 5000
)

// IsValidEmail reports whether s is a plausible bare email address.
// Display-name forms ("Name <a@b>") and addresses with leading, trailing,
// or consecutive dots are rejected.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidPassword reports whether the password length is inside the
// accepted range. No character-class rules.
func IsValidPassword(s string) bool {
	return len(s) >= MinPasswordLength && len(s) <= MaxPasswordLength
}

// IsValidDisplayName reports whether the name is non-blank and within
// the length cap.
func IsValidDisplayName(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && len(s) <= MaxDisplayNameLen
}

// IsValidObjectID reports whether s (trimmed) is a 24-char hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}
