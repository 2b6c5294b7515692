package services

import (
	"sort"

	"critical-approve/internal/models"
)

// Outcome – result of aggregating the votes of a request
type Outcome struct {
	Status models.RequestStatus
	Tally  models.Tally

	// DecidingSeq and DecidingUser – the vote that crossed the threshold; zero while pending
	DecidingSeq  int64
	DecidingUser string

	// QuorumUnreachable – still pending, but the remaining undecided slots cannot reach the quorum.
	// Such a request is only resolved by escalation or expiry.
	QuorumUnreachable bool
}

func (o Outcome) Resolved() bool {
	return o.Status != models.StatusPending
}

// Quorum – approvals needed to approve under the action type strategy
func Quorum(at *models.ActionType) int {
	if at.Strategy == models.StrategySimple {
		return 1
	}
	return at.MinApprovers/2 + 1
}

// Evaluate – pure aggregation of slot votes. Only active, non-late slots count, and votes are replayed
// in the commit order the store assigned (DecisionSeq) so the first threshold crossed wins.
func Evaluate(at *models.ActionType, slots []models.Approver) Outcome {
	needed := Quorum(at)
	rejectAt := 1
	if at.Strategy == models.StrategyMajority {
		rejectAt = at.MinApprovers - needed + 1
	}

	var votes []models.Approver
	undecided := 0
	for _, s := range slots {
		if !s.Active || s.Late {
			continue
		}
		if !s.Decided() {
			undecided++
			continue
		}
		votes = append(votes, s)
	}
	sort.SliceStable(votes, func(i, j int) bool {
		if votes[i].DecisionSeq != votes[j].DecisionSeq {
			return votes[i].DecisionSeq < votes[j].DecisionSeq
		}
		return votes[i].ID < votes[j].ID
	})

	out := Outcome{
		Status: models.StatusPending,
		Tally: models.Tally{
			Strategy:  at.Strategy,
			Quorum:    needed,
			Undecided: undecided,
		},
	}
	for _, v := range votes {
		switch v.Decision {
		case models.DecisionApproved:
			out.Tally.Approvals++
		case models.DecisionRejected:
			out.Tally.Rejections++
		}

		switch {
		case out.Tally.Approvals >= needed:
			out.Status = models.StatusApproved
		case out.Tally.Rejections >= rejectAt:
			out.Status = models.StatusRejected
		}
		if out.Resolved() {
			// votes committed after the resolving one are not counted
			out.DecidingSeq, out.DecidingUser = v.DecisionSeq, v.UserID
			return out
		}
	}

	out.QuorumUnreachable = out.Tally.Approvals+undecided < needed
	return out
}
