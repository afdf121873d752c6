// Package reputation holds the credit-score rules of the marketplace: how a
// score moves, which membership tier a score maps to, and how transaction
// outcomes update the running statistics of an identity.
//
// Everything here is pure and storage-agnostic. Callers load a Standing,
// apply one of the operations below, and persist the result.
package reputation

import "fmt"

// Credit score bounds and defaults.
const (
	MinCredit     = 0
	MaxCredit     = 150
	InitialCredit = 80

	// InitialSuccessRate is the success rate (percent) of a fresh identity.
	InitialSuccessRate = 100.0
)

// Review scoring.
const (
	MinReviewScore = 1
	MaxReviewScore = 5

	// NeutralReviewScore leaves the seller's credit unchanged.
	NeutralReviewScore = 3

	// BuyerCompletionBonus is granted to the buyer on every completed transaction.
	BuyerCompletionBonus = 1
)

// Tier is the membership tier derived from a credit score. It is never stored.
type Tier string

const (
	TierElite        Tier = "elite"
	TierStandard     Tier = "standard"
	TierProbationary Tier = "probationary"
	TierRestricted   Tier = "restricted"
)

// TierFor maps a credit score to its tier. Thresholds are checked top-down
// and the first match wins.
func TierFor(score int) Tier {
	switch {
	case score >= 100:
		return TierElite
	case score >= 80:
		return TierStandard
	case score >= 60:
		return TierProbationary
	default:
		return TierRestricted
	}
}

// Clamp bounds a score to [MinCredit, MaxCredit].
func Clamp(score int) int {
	if score < MinCredit {
		return MinCredit
	}
	if score > MaxCredit {
		return MaxCredit
	}
	return score
}

// Standing is the reputation state shared by every identity kind.
type Standing struct {
	CreditScore      int     `json:"credit_score"      gorm:"not null"`
	TransactionCount int     `json:"transaction_count" gorm:"not null"`
	ReturnCount      int     `json:"return_count"      gorm:"not null"`
	SuccessRate      float64 `json:"success_rate"      gorm:"not null"`
}

// NewStanding returns the default standing of a freshly registered identity.
func NewStanding() Standing {
	return Standing{
		CreditScore: InitialCredit,
		SuccessRate: InitialSuccessRate,
	}
}

// Tier returns the membership tier for the current credit score.
func (s Standing) Tier() Tier { return TierFor(s.CreditScore) }

// AdjustCredit applies delta and clamps the result. Going out of bounds is
// silently normalized, never an error. The delta saturates at the width of
// the credit range, so extreme values cannot wrap.
func (s *Standing) AdjustCredit(delta int) {
	const span = MaxCredit - MinCredit
	delta = min(max(delta, -span), span)
	s.CreditScore = Clamp(Clamp(s.CreditScore) + delta)
}

// Outcome describes how a single transaction ended for one participant.
type Outcome struct {
	Succeeded bool
	Return    bool
}

// Completed is the outcome recorded for both parties of a completed sale.
var Completed = Outcome{Succeeded: true}

// RecordOutcome counts a transaction and updates the derived statistics.
//
// The success rate only moves on failure: it becomes (n-1)/n*100 where n is
// the new transaction count, and a success never raises it again.
//
// TODO: nothing records failed or returned outcomes yet; wire them from the
// return/dispute flow once it exists.
func (s *Standing) RecordOutcome(o Outcome) {
	s.TransactionCount++
	if !o.Succeeded {
		s.SuccessRate = decayedSuccessRate(s.TransactionCount)
	}
	if o.Return {
		s.ReturnCount++
	}
}

func decayedSuccessRate(count int) float64 {
	if count <= 0 {
		return InitialSuccessRate
	}
	return float64(count-1) * 100.0 / float64(count)
}

// ValidReviewScore reports whether score is an acceptable review score.
func ValidReviewScore(score int) bool {
	return score >= MinReviewScore && score <= MaxReviewScore
}

// CompletionDeltas returns the credit changes applied to the buyer and the
// seller when a transaction completes with the given review score.
func CompletionDeltas(score int) (buyer, seller int, err error) {
	if !ValidReviewScore(score) {
		return 0, 0, fmt.Errorf("review score %d outside [%d,%d]", score, MinReviewScore, MaxReviewScore)
	}
	return BuyerCompletionBonus, score - NeutralReviewScore, nil
}

// Performance is a read-only projection of an identity's transaction record.
type Performance struct {
	TransactionCount int     `json:"transaction_count"`
	ReturnCount      int     `json:"return_count"`
	SuccessRate      float64 `json:"success_rate"`
}

// Performance derives the live performance summary.
func (s Standing) Performance() Performance {
	return Performance{
		TransactionCount: s.TransactionCount,
		ReturnCount:      s.ReturnCount,
		SuccessRate:      s.SuccessRate,
	}
}
