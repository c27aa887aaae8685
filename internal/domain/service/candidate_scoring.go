package service

import (
	"sort"

	"matchmate/internal/domain/entity"
)

// Candidate is one member of the waiting pool as seen by the scorer.
// Age is zero when the profile does not state one.
type Candidate struct {
	UserID    string
	Interests []string
	Age       int
}

// ScoredCandidate is a candidate with at least one interest in common.
type ScoredCandidate struct {
	UserID          string   `json:"user_id"`
	SharedInterests []string `json:"shared_interests"`
	Score           int      `json:"score"`
	// AgeGap is -1 when either age is unknown.
	AgeGap int `json:"-"`
}

// ScoreCandidates ranks pool against mine. Candidates sharing nothing are
// dropped. Order: more shared interests first, then smaller age gap (unknown
// ages last), then uid ascending.
func ScoreCandidates(mine []string, myAge int, pool []Candidate) []ScoredCandidate {
	mine = entity.NormalizeInterests(mine)

	scored := make([]ScoredCandidate, 0, len(pool))
	for _, c := range pool {
		shared := entity.SharedInterests(mine, c.Interests)
		if len(shared) == 0 {
			continue
		}
		scored = append(scored, ScoredCandidate{
			UserID:          c.UserID,
			SharedInterests: shared,
			Score:           len(shared),
			AgeGap:          ageGap(myAge, c.Age),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.AgeGap != b.AgeGap {
			if a.AgeGap < 0 {
				return false
			}
			if b.AgeGap < 0 {
				return true
			}
			return a.AgeGap < b.AgeGap
		}
		return a.UserID < b.UserID
	})
	return scored
}

func ageGap(a, b int) int {
	if a <= 0 || b <= 0 {
		return -1
	}
	if a > b {
		return a - b
	}
	return b - a
}
