package restorer

import (
	"github.com/vandry/get-longhorn-backup/internal/errors"
)

// GapPolicy selects what happens when a block does not start at the end of
// the previous block.
type GapPolicy int

const (
	// GapError stops the restore with a *SkippedData error.
	GapError GapPolicy = iota
	// GapWarn reports the discontinuity and continues.
	GapWarn
	// GapIgnore continues silently.
	GapIgnore
)

var gapPolicyNames = map[GapPolicy]string{
	GapError:  "error",
	GapWarn:   "warn",
	GapIgnore: "ignore",
}

func (p GapPolicy) String() string {
	if s, ok := gapPolicyNames[p]; ok {
		return s
	}
	return "unknown"
}

// Set implements pflag.Value.
func (p *GapPolicy) Set(s string) error {
	for policy, name := range gapPolicyNames {
		if name == s {
			*p = policy
			return nil
		}
	}
	return errors.Errorf(`invalid gap policy %q, must be one of "error", "warn" or "ignore"`, s)
}

// Type implements pflag.Value.
func (p *GapPolicy) Type() string {
	return "policy"
}
