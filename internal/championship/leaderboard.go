package championship

import (
	"sort"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/models"
)

// Leaderboard derives standings from sealed match records only.
// In-flight matches contribute nothing until their sealing write lands,
// so replaying the store reconstructs identical standings.
func Leaderboard(teams []models.Team, matches []*models.MatchRecord) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(teams))
	index := make(map[string]int, len(teams))
	for i, t := range teams {
		index[t.ID] = i
		entries = append(entries, models.LeaderboardEntry{TeamID: t.ID, TeamName: t.Name})
	}

	for _, m := range matches {
		if !m.Sealed() {
			continue
		}
		a, okA := index[m.TeamAID]
		b, okB := index[m.TeamBID]
		if !okA || !okB {
			continue
		}

		entries[a].Points += m.PointsA
		entries[b].Points += m.PointsB
		for _, g := range m.Games {
			entries[a].TimeUsedMs += g.DurationMsA
			entries[b].TimeUsedMs += g.DurationMsB
		}

		switch {
		case m.Status == models.MatchAborted:
			// Neither side showed up for the match; both take a loss.
			entries[a].Losses++
			entries[b].Losses++
		case m.PointsA > m.PointsB:
			entries[a].Wins++
			entries[b].Losses++
		case m.PointsB > m.PointsA:
			entries[b].Wins++
			entries[a].Losses++
		default:
			entries[a].Draws++
			entries[b].Draws++
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		if entries[i].TimeUsedMs != entries[j].TimeUsedMs {
			return entries[i].TimeUsedMs < entries[j].TimeUsedMs
		}
		return entries[i].TeamName < entries[j].TeamName
	})
	return entries
}
