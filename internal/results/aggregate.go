// Package results turns a poll snapshot into display-ready totals,
// percentages, and winners. Aggregation is a pure function of the
// snapshot: no I/O, no mutation of the input, and identical input always
// produces identical output.
package results

import "github.com/winnerx0/jille-client/internal/model"

// OptionResult is the aggregated view of a single option.
type OptionResult struct {
	ID         string
	Name       string
	Votes      int
	Percentage int
	Winner     bool
}

// Result is the aggregated view of a whole poll snapshot.
type Result struct {
	TotalVotes int
	Options    []OptionResult
	// WinnerIDs lists every option at the maximum vote count, in the
	// poll's option order. Empty when the poll has no votes. Ties are
	// preserved, never collapsed to a single winner.
	WinnerIDs []string
}

// Aggregate computes totals, per-option percentages, and the winner set
// for a poll snapshot.
//
// Percentages are rounded half-up to the nearest integer, so across
// options they may not sum to exactly 100. That is accepted display
// behavior, not an error.
func Aggregate(poll *model.Poll) Result {
	res := Result{Options: make([]OptionResult, 0, len(poll.Options))}

	maxVotes := 0
	for _, opt := range poll.Options {
		n := len(opt.Votes)
		res.TotalVotes += n
		if n > maxVotes {
			maxVotes = n
		}
	}

	for _, opt := range poll.Options {
		n := len(opt.Votes)
		or := OptionResult{
			ID:    opt.ID,
			Name:  opt.Name,
			Votes: n,
		}
		if res.TotalVotes > 0 {
			or.Percentage = roundHalfUp(n*100, res.TotalVotes)
		}
		// A zero-vote poll has no winner.
		if maxVotes > 0 && n == maxVotes {
			or.Winner = true
			res.WinnerIDs = append(res.WinnerIDs, opt.ID)
		}
		res.Options = append(res.Options, or)
	}

	return res
}

// roundHalfUp divides num by den and rounds half-up to the nearest
// integer, in integer arithmetic so results are exact.
func roundHalfUp(num, den int) int {
	return (num*2 + den) / (den * 2)
}
