// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ranking implements the aggregation algorithms behind workshop voting.

Everything here is pure: callers load rows from the store and pass them in,
so every function is read-then-compute and returns the same output for the
same input.

# Stack Ranking

CalculateBordaScores awards N-r+1 points per ranking row, where N is the
current note count. Stale ranks are clamped into [1,N]:

	scores := ranking.CalculateBordaScores(noteIDs, rows)

ValidateRanking rejects any submission that is not a permutation of 1..N over
exactly the workspace's notes. CalculateRankingProgress recomputes completion
from raw rows on every call, so adding a note makes finished participants
incomplete again.

# Pairwise

CandidatePairs schedules every note pair with the circle method, per category
group when the scope is within_categories. NextPair returns the first pair the
participant has not voted on, in either order, plus progress.

# Combined Scores

CombineScores takes one ModuleScores value per module and averages the
normalized values of the active ones:

	out := ranking.CombineScores(notes, enabled, []ranking.ModuleScores{
		{Kind: ranking.ModulePairwise, Values: wins, DataPoints: len(votes)},
		{Kind: ranking.ModuleSurvey, Values: means, Denominator: 5, DataPoints: len(responses)},
	})

A module is active when it is enabled and has data. Each normalized value is
clamped to [0,1]; a zero denominator contributes 0.
*/
package ranking
