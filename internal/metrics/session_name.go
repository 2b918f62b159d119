package metrics

import (
	"fmt"

	"github.com/memfault/memfaultd/internal/util"
)

// SessionName identifies a metric session: an alphanumeric slug, up to 64
// characters, starting with a letter.
type SessionName struct {
	inner string
}

// ParseSessionName validates s and returns a SessionName.
func ParseSessionName(s string) (SessionName, error) {
	if err := util.AlphanumSlugIsValidAndStartsAlpha(s, 64); err != nil {
		return SessionName{}, fmt.Errorf("invalid session name %q: %w", s, err)
	}
	return SessionName{inner: s}, nil
}

func (n SessionName) String() string { return n.inner }

// MarshalText implements encoding.TextMarshaler.
func (n SessionName) MarshalText() ([]byte, error) {
	return []byte(n.inner), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *SessionName) UnmarshalText(text []byte) error {
	parsed, err := ParseSessionName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
