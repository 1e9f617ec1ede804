package auth

import (
	"fmt"

	"github.com/nbutton23/zxcvbn-go"
)

// MinRecommendedScore is the zxcvbn score below which a capsule password
// draws a warning.
const MinRecommendedScore = 3

// Assessment summarises a capsule password's estimated strength.
type Assessment struct {
	Score     int
	CrackTime string
	Warnings  []string
}

// Weak reports whether the password falls below the recommended score.
func (a Assessment) Weak() bool {
	return a.Score < MinRecommendedScore
}

// AssessCapsulePassword rates a capsule password. The result is advisory:
// the capsule format accepts any password, the empty one included. context
// lists words (user name, drive label) that should not count towards
// strength.
func AssessCapsulePassword(pw string, context ...string) Assessment {
	if pw == "" {
		return Assessment{Warnings: []string{"password is empty"}}
	}

	res := zxcvbn.PasswordStrength(pw, context)
	a := Assessment{Score: res.Score, CrackTime: res.CrackTimeDisplay}

	if len(pw) < 12 {
		a.Warnings = append(a.Warnings, "password is shorter than 12 characters")
	}
	if a.Weak() {
		a.Warnings = append(a.Warnings, fmt.Sprintf("estimated strength %d/4 (crack time: %s)", a.Score, a.CrackTime))
	}
	return a
}
