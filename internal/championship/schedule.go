package championship

import (
	"github.com/google/uuid"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/models"
)

// byeMarker stands in for the phantom team when the roster is odd. The
// team paired against it sits the round out: no game, no points, no
// time consumed.
const byeMarker = ""

// buildSchedule generates a circle-method round robin over the ordered
// roster and the scheduled match records that go with it. Team 0 stays
// fixed while the rest rotate, so the output is deterministic for a
// given registration order.
func buildSchedule(teams []models.Team, bank int64) (*models.Schedule, []*models.MatchRecord) {
	byID := make(map[string]models.Team, len(teams))
	ids := make([]string, 0, len(teams)+1)
	for _, t := range teams {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}
	if len(ids)%2 == 1 {
		ids = append(ids, byeMarker)
	}

	n := len(ids)
	schedule := &models.Schedule{}
	var matches []*models.MatchRecord

	for round := 1; round < n; round++ {
		r := models.Round{Index: round}
		for i := 0; i < n/2; i++ {
			a, b := ids[i], ids[n-1-i]
			if a == byeMarker || b == byeMarker {
				if a == byeMarker {
					r.ByeTeamID = b
				} else {
					r.ByeTeamID = a
				}
				continue
			}
			m := &models.MatchRecord{
				ID:         uuid.New().String(),
				RoundIndex: round,
				TeamAID:    a,
				TeamBID:    b,
				TeamAName:  byID[a].Name,
				TeamBName:  byID[b].Name,
				Status:     models.MatchScheduled,
				BankMsA:    bank,
				BankMsB:    bank,
			}
			r.MatchIDs = append(r.MatchIDs, m.ID)
			matches = append(matches, m)
		}
		schedule.Rounds = append(schedule.Rounds, r)

		// Rotate everything but ids[0] one step clockwise.
		last := ids[n-1]
		copy(ids[2:], ids[1:n-1])
		ids[1] = last
	}

	return schedule, matches
}

// gameRotation maps game index (1-based) to first mover and disc
// colors. First move and colors swap across the four games so neither
// team keeps an opening advantage.
var gameRotation = [4]struct {
	FirstMover models.Seat
	TeamAColor string
}{
	{models.SeatA, models.ColorRed},
	{models.SeatB, models.ColorYellow},
	{models.SeatA, models.ColorYellow},
	{models.SeatB, models.ColorRed},
}

func otherColor(color string) string {
	if color == models.ColorRed {
		return models.ColorYellow
	}
	return models.ColorRed
}

func otherSeat(seat models.Seat) models.Seat {
	if seat == models.SeatA {
		return models.SeatB
	}
	return models.SeatA
}
