package session

import (
	"fmt"
	"regexp"
)

// Session names become directory names under ~/.boosthub/sessions, so the
// character set stays filesystem-safe.
var nameRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName checks a session name: lowercase letters, digits, hyphen and
// underscore, at most 64 characters.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid session name %q: use lowercase letters, digits, '-' or '_' (max 64)", name)
	}
	return nil
}
