package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winnerx0/jille-client/internal/model"
)

func pollWithCounts(counts ...int) *model.Poll {
	p := &model.Poll{ID: "poll-1", Title: "test"}
	for i, n := range counts {
		opt := model.Option{
			ID:   "opt-" + string(rune('a'+i)),
			Name: "Option " + string(rune('A'+i)),
		}
		for v := 0; v < n; v++ {
			opt.Votes = append(opt.Votes, model.Vote{
				ID:     "vote",
				PollID: p.ID,
			})
		}
		p.Options = append(p.Options, opt)
	}
	return p
}

func TestAggregate_RoundHalfUpAndTie(t *testing.T) {
	// Counts [3,3,2], total 8: 37.5% rounds up to 38, 25% stays 25.
	// The two leading options tie and both must be reported as winners.
	res := Aggregate(pollWithCounts(3, 3, 2))

	assert.Equal(t, 8, res.TotalVotes)

	require.Len(t, res.Options, 3)
	assert.Equal(t, 38, res.Options[0].Percentage)
	assert.Equal(t, 38, res.Options[1].Percentage)
	assert.Equal(t, 25, res.Options[2].Percentage)

	assert.Equal(t, []string{"opt-a", "opt-b"}, res.WinnerIDs)
	assert.True(t, res.Options[0].Winner)
	assert.True(t, res.Options[1].Winner)
	assert.False(t, res.Options[2].Winner)

	// 38+38+25 = 101: percentages are not forced to sum to 100.
	sum := 0
	for _, o := range res.Options {
		sum += o.Percentage
	}
	assert.Equal(t, 101, sum)
}

func TestAggregate_ZeroVotes(t *testing.T) {
	res := Aggregate(pollWithCounts(0, 0, 0))

	assert.Equal(t, 0, res.TotalVotes)
	assert.Empty(t, res.WinnerIDs)
	for _, o := range res.Options {
		assert.Equal(t, 0, o.Percentage)
		assert.False(t, o.Winner)
	}
}

func TestAggregate_SingleWinner(t *testing.T) {
	res := Aggregate(pollWithCounts(1, 4))

	assert.Equal(t, 5, res.TotalVotes)
	assert.Equal(t, []string{"opt-b"}, res.WinnerIDs)
	assert.Equal(t, 20, res.Options[0].Percentage)
	assert.Equal(t, 80, res.Options[1].Percentage)
}

func TestAggregate_AllOptionsTied(t *testing.T) {
	res := Aggregate(pollWithCounts(2, 2, 2))

	assert.Equal(t, []string{"opt-a", "opt-b", "opt-c"}, res.WinnerIDs)
	for _, o := range res.Options {
		// 2/6 = 33.33 rounds down.
		assert.Equal(t, 33, o.Percentage)
	}
}

func TestAggregate_ExactHalfRoundsUp(t *testing.T) {
	// 1/8 = 12.5% must round to 13, not 12.
	res := Aggregate(pollWithCounts(1, 7))
	assert.Equal(t, 13, res.Options[0].Percentage)
	assert.Equal(t, 88, res.Options[1].Percentage)
}

func TestAggregate_Idempotent(t *testing.T) {
	poll := pollWithCounts(3, 3, 2)

	first := Aggregate(poll)
	second := Aggregate(poll)

	assert.Equal(t, first, second, "aggregating an unchanged snapshot twice must be identical")
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	poll := pollWithCounts(2, 1)
	before := len(poll.Options[0].Votes)

	_ = Aggregate(poll)

	assert.Equal(t, before, len(poll.Options[0].Votes))
}

func TestAggregate_NoOptions(t *testing.T) {
	res := Aggregate(&model.Poll{ID: "empty"})

	assert.Equal(t, 0, res.TotalVotes)
	assert.Empty(t, res.Options)
	assert.Empty(t, res.WinnerIDs)
}
