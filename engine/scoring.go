package engine

import (
	"fmt"
	"sort"
)

// PlayerResult is one player's line in the results report.
type PlayerResult struct {
	PlayerID PlayerID `json:"playerId"`
	Rank     int      `json:"rank"`
	Score    int      `json:"score"`
	Win      bool     `json:"win"`
	// Accuracy is a whole percentage, present only in single-player rounds;
	// in multiplayer, turn rotation obscures individual accuracy.
	Accuracy   *int `json:"accuracy,omitempty"`
	BestStreak int  `json:"bestStreak"`
}

// StatEntry is one labeled line in the report's stat list.
type StatEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ResultsReport is the flat, serializable outcome of a finished round,
// intended for direct rendering or storage as a historical record.
type ResultsReport struct {
	Variant     string         `json:"variant"`
	Headline    string         `json:"headline"`
	Subheadline string         `json:"subheadline,omitempty"`
	Theme       string         `json:"theme"`
	Players     []PlayerResult `json:"players"`
	Stats       []StatEntry    `json:"stats"`
}

// Summarize derives the results report from a terminal state. Variants that
// implement Summarizer replace the built-in report wholesale.
//
// Call this at most once per terminal state: consumers may record the report
// externally, and a second call would double-record.
func Summarize(v Variant, st *GameState, cfg Config) *ResultsReport {
	if s, ok := v.(Summarizer); ok {
		return s.Summarize(st, cfg)
	}
	return DefaultSummarize(st, cfg)
}

// DefaultSummarize is the engine's standard report: rank by score descending
// with ties broken by stable seat order, single-player accuracy, and a
// qualitative headline from accuracy thresholds.
func DefaultSummarize(st *GameState, cfg Config) *ResultsReport {
	solo := len(st.Players) == 1

	results := make([]PlayerResult, len(st.Players))
	for i, p := range st.Players {
		results[i] = PlayerResult{
			PlayerID:   p,
			Score:      st.Scores[p],
			BestStreak: st.BestStreaks[p],
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
		if i > 0 && results[i].Score == results[i-1].Score {
			results[i].Rank = results[i-1].Rank
		}
		// Rank 1 wins; in single-player mode every completion is a win.
		results[i].Win = results[i].Rank == 1
	}

	accuracy := 0
	if st.Moves > 0 {
		accuracy = (st.MatchedPairs*100 + st.Moves/2) / st.Moves
	}
	if solo {
		a := accuracy
		results[0].Accuracy = &a
	}

	report := &ResultsReport{
		Variant: st.Variant,
		Players: results,
	}

	if solo {
		switch {
		case accuracy >= 100:
			report.Headline = "Perfect round!"
			report.Subheadline = "Every flip found a pair."
			report.Theme = "perfect"
		case accuracy >= 80:
			report.Headline = "Great matching!"
			report.Subheadline = "Nearly every guess landed."
			report.Theme = "great"
		default:
			report.Headline = "Keep practicing!"
			report.Subheadline = "Pairs get easier with every round."
			report.Theme = "practice"
		}
	} else {
		winners := 0
		for _, r := range results {
			if r.Win {
				winners++
			}
		}
		if winners > 1 {
			report.Headline = "It's a tie!"
			report.Theme = "tie"
		} else {
			report.Headline = fmt.Sprintf("%s wins!", results[0].PlayerID)
			report.Theme = "winner"
		}
	}

	report.Stats = buildStats(st, solo, accuracy)
	return report
}

// buildStats packages the 3-5 display stats for a finished round.
func buildStats(st *GameState, solo bool, accuracy int) []StatEntry {
	stats := []StatEntry{
		{Label: "Pairs found", Value: fmt.Sprintf("%d", st.MatchedPairs)},
		{Label: "Moves", Value: fmt.Sprintf("%d", st.Moves)},
		{Label: "Time", Value: formatElapsed(st.GameEndAt - st.GameStartAt)},
	}
	if solo {
		stats = append(stats, StatEntry{Label: "Accuracy", Value: fmt.Sprintf("%d%%", accuracy)})
	}
	best := 0
	for _, s := range st.BestStreaks {
		if s > best {
			best = s
		}
	}
	if best >= 3 {
		stats = append(stats, StatEntry{Label: "Best streak", Value: fmt.Sprintf("%d in a row", best)})
	}
	return stats
}

// formatElapsed renders a millisecond span as "1m 23s" / "42s".
func formatElapsed(ms int64) string {
	if ms <= 0 {
		return "0s"
	}
	secs := ms / 1000
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
