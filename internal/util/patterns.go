package util

import "fmt"

func isAlphaNumSlugRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

// AlphanumSlugIsValid reports whether s is 1..maxLen characters of
// alphanumerics, '-', or '_'.
func AlphanumSlugIsValid(s string, maxLen int) error {
	if len(s) < 1 || len(s) > maxLen {
		return fmt.Errorf("must be between 1 and %d characters long", maxLen)
	}
	for _, c := range s {
		if !isAlphaNumSlugRune(c) {
			return fmt.Errorf("must only contain alphanumeric characters and - or _")
		}
	}
	return nil
}

// AlphanumSlugIsValidAndStartsAlpha additionally requires s to start with an
// alphabetic character.
func AlphanumSlugIsValidAndStartsAlpha(s string, maxLen int) error {
	if err := AlphanumSlugIsValid(s, maxLen); err != nil {
		return err
	}
	c := rune(s[0])
	if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return fmt.Errorf("must start with an alphabetic character")
	}
	return nil
}

func isAlphaNumSlugDotsColonRune(c rune) bool {
	return isAlphaNumSlugRune(c) || c == '+' || c == '.' || c == ':'
}

// AlphanumSlugDotsColonIsValid reports whether s is 1..maxLen characters
// of alphanumerics, '-', '_', '+', '.', or ':'. Used for identifiers like
// reboot reasons that embed version-like or namespaced strings.
func AlphanumSlugDotsColonIsValid(s string, maxLen int) error {
	if len(s) < 1 || len(s) > maxLen {
		return fmt.Errorf("must be between 1 and %d characters long", maxLen)
	}
	for _, c := range s {
		if !isAlphaNumSlugDotsColonRune(c) {
			return fmt.Errorf("must only contain alphanumeric characters, -, _, +, ., and :")
		}
	}
	return nil
}
