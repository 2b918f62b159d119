package reboot

import (
	"strconv"
	"strings"

	"github.com/memfault/memfaultd/internal/util"
)

const customReasonMaxLen = 64

// Reason is either a well-known ReasonCode or a free-form Custom string
// supplied by an application or a lower-level bootloader. Exactly one of
// the two is populated.
type Reason struct {
	Code   ReasonCode
	Custom *CustomReason
}

// CustomReason is an application-supplied reboot cause. Unexpected marks a
// reason the application did not intend (flagged with a leading '!' in the
// wire form), distinguishing e.g. a watchdog-triggered restart from a
// deliberate one.
type CustomReason struct {
	Unexpected bool
	Name       string
}

func FromCode(code ReasonCode) Reason {
	return Reason{Code: code}
}

// ParseReason parses the reboot reason reported by firmware or a prior
// boot's shutdown hook. A numeric string is treated as a ReasonCode,
// falling back to Unknown if the value isn't one of the named causes. Any
// other string is a custom reason: an optional leading '!' marks it
// unexpected, and the remainder must be a dots-and-colons slug of at most
// 64 characters.
func ParseReason(s string) (Reason, error) {
	if code, err := strconv.ParseUint(s, 10, 32); err == nil {
		rc := ReasonCode(code)
		if !knownReasonCode(rc) {
			rc = Unknown
		}
		return Reason{Code: rc}, nil
	}

	unexpected := false
	name := s
	if strings.HasPrefix(name, "!") {
		unexpected = true
		name = name[1:]
	}
	if err := util.AlphanumSlugDotsColonIsValid(name, customReasonMaxLen); err != nil {
		return Reason{}, err
	}
	return Reason{Custom: &CustomReason{Unexpected: unexpected, Name: name}}, nil
}

func (r Reason) String() string {
	if r.Custom != nil {
		if r.Custom.Unexpected {
			return "!" + r.Custom.Name
		}
		return r.Custom.Name
	}
	return r.Code.String()
}
