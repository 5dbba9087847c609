// Package growth holds the arithmetic behind the group/plant lifecycle:
// frequency clamping, join codes, vote majorities, grow-state derivation and
// decay progress. Everything here is pure so the invariants can be tested
// without a database.
package growth

import (
	"crypto/rand"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"growe/models"
)

const (
	// DecayWindowDays is how long a plant survives without being retired
	// before it counts as fully decayed.
	DecayWindowDays = 7

	// decayRatePerDay is the linear decay accrual in percent.
	decayRatePerDay = 15.0

	// MaxGrowState is the final growth stage (fruiting).
	MaxGrowState = 5

	joinCodeLen     = 6
	joinCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// StageNames lists the growth stages in order. The last stage's image is the
// one shown when the candidate was offered.
var StageNames = []string{"sprouting", "seedling", "vegetating", "budding", "flowering", "fruiting"}

// ClampFrequency restricts a weekly check-in commitment to [1,7].
func ClampFrequency(f int) int {
	if f < 1 {
		return 1
	}
	if f > 7 {
		return 7
	}
	return f
}

// JoinCode returns a random 6-character uppercase alphanumeric group code.
func JoinCode() (string, error) {
	b := make([]byte, joinCodeLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = joinCodeCharset[int(b[i])%len(joinCodeCharset)]
	}
	return string(b), nil
}

// RequiredMajority is the approve-vote threshold for a group of the given
// size: floor(members/2).
func RequiredMajority(totalMembers int) int {
	return totalMembers / 2
}

// MeetsMajority reports whether a log with the given approve-vote count has
// reached the group's approval threshold.
func MeetsMajority(approves, totalMembers int) bool {
	return approves >= RequiredMajority(totalMembers)
}

// GrowState derives a plant's growth stage from the group's approved check-in
// count. The full bar is frequency*members approved logs spread evenly over
// the six stages; the result is capped at MaxGrowState.
func GrowState(approved, frequency, members int) int {
	target := frequency * members
	if target <= 0 {
		return 0
	}
	stage := approved * (MaxGrowState + 1) / target
	if stage > MaxGrowState {
		return MaxGrowState
	}
	return stage
}

// DecayDate renders the date a plant planted at the given time fully decays,
// 7 days out.
func DecayDate(planted time.Time) string {
	return planted.AddDate(0, 0, DecayWindowDays).Format("Jan 2, 2006")
}

// DecayProgress returns the decay percentage at now for a plant planted at
// the given time, formatted with two decimals. Progress accrues linearly at
// 15% per day, capped at 100, and reads "0.00" both at planting time and
// once the 7-day window has elapsed (fully decayed, treated as reset).
func DecayProgress(planted, now time.Time) string {
	days := now.Sub(planted).Hours() / 24
	if days <= 0 || days >= DecayWindowDays {
		return "0.00"
	}
	pct := days * decayRatePerDay
	if pct > 100 {
		pct = 100
	}
	return fmt.Sprintf("%.2f", pct)
}

// IsMember reports whether id appears in the member list.
func IsMember(members []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, m := range members {
		if m == id {
			return true
		}
	}
	return false
}

// ShouldApprove reports whether the current tally flips a log to approved:
// the majority is met and the log has not been approved before. The false on
// an already-approved log is what keeps the transition one-time.
func ShouldApprove(l *models.Log, totalMembers int) bool {
	return !l.Approved && MeetsMajority(len(l.VoteApprove), totalMembers)
}

// IsPendingFor reports whether a log still awaits the given member's vote,
// i.e. the member appears in none of the three vote arrays.
func IsPendingFor(l *models.Log, member primitive.ObjectID) bool {
	for _, arrs := range [][]primitive.ObjectID{l.VoteApprove, l.VoteDeny, l.VoteUnsure} {
		for _, id := range arrs {
			if id == member {
				return false
			}
		}
	}
	return true
}
