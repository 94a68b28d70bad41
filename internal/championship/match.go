package championship

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/agent"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/events"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/game"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/models"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/store"
)

// matchRunner owns one MatchRecord from dispatch to seal. Exactly one
// runner writes a given record, so store writes need no cross-runner
// coordination.
type matchRunner struct {
	cfg         Config
	mover       agent.Mover
	store       store.Store
	broadcaster *events.Broadcaster

	match     *models.MatchRecord
	endpoints map[models.Seat]string
	teams     map[models.Seat]string // seat -> team id
}

func newMatchRunner(cfg Config, mover agent.Mover, st store.Store, b *events.Broadcaster,
	match *models.MatchRecord, teamA, teamB models.Team) *matchRunner {
	return &matchRunner{
		cfg:         cfg,
		mover:       mover,
		store:       st,
		broadcaster: b,
		match:       match,
		endpoints: map[models.Seat]string{
			models.SeatA: teamA.Endpoint,
			models.SeatB: teamB.Endpoint,
		},
		teams: map[models.Seat]string{
			models.SeatA: teamA.ID,
			models.SeatB: teamB.ID,
		},
	}
}

func (r *matchRunner) endpoint(seat models.Seat) string { return r.endpoints[seat] }
func (r *matchRunner) teamID(seat models.Seat) string   { return r.teams[seat] }

func (r *matchRunner) bankMs(seat models.Seat) int64 {
	if seat == models.SeatA {
		return r.match.BankMsA
	}
	return r.match.BankMsB
}

// deduct charges elapsed wall-clock against a seat's bank, capped at
// the remaining balance, and books it onto the game record.
func (r *matchRunner) deduct(rec *models.GameRecord, seat models.Seat, elapsed time.Duration) {
	ms := elapsed.Milliseconds()
	if ms < 1 {
		ms = 1 // every call costs something; sub-millisecond rounds up
	}
	if seat == models.SeatA {
		if ms > r.match.BankMsA {
			ms = r.match.BankMsA
		}
		r.match.BankMsA -= ms
		rec.DurationMsA += ms
	} else {
		if ms > r.match.BankMsB {
			ms = r.match.BankMsB
		}
		r.match.BankMsB -= ms
		rec.DurationMsB += ms
	}
}

// run executes the four-game match. Matches restart from game 1, so any
// partial state from an earlier attempt is discarded up front.
func (r *matchRunner) run(ctx context.Context) {
	m := r.match
	log.Printf("[MATCH] %s starting: %s vs %s (round %d)", m.ID, m.TeamAName, m.TeamBName, m.RoundIndex)

	m.Status = models.MatchInProgress
	m.Games = nil
	m.PointsA, m.PointsB = 0, 0
	m.WinnerTeamID = ""
	m.BankMsA = r.cfg.MatchBank.Milliseconds()
	m.BankMsB = r.cfg.MatchBank.Milliseconds()
	r.save()
	r.publishMatchInfo()
	r.publishMatchUpdate()

	if !r.anyTeamReachable(ctx) {
		if ctx.Err() != nil {
			// Cancelled, not absent: leave the record in_progress so a
			// restart or resume reverts it to scheduled.
			return
		}
		log.Printf("[MATCH] %s aborted: neither endpoint reachable within setup window", m.ID)
		r.abort()
		return
	}

	for idx := 1; idx <= 4; idx++ {
		if ctx.Err() != nil {
			return
		}

		rot := gameRotation[idx-1]
		rec := &models.GameRecord{
			Index:      idx,
			FirstMover: rot.FirstMover,
			TeamAColor: rot.TeamAColor,
			TeamBColor: otherColor(rot.TeamAColor),
		}
		m.Games = append(m.Games, rec)

		r.broadcaster.Publish(events.MatchTopic(m.ID), events.Event{Type: events.KindGameInfo, Payload: events.GameInfo{
			MatchID:    m.ID,
			GameIndex:  idx,
			FirstMover: r.teamID(rot.FirstMover),
			TeamAColor: rec.TeamAColor,
			TeamBColor: rec.TeamBColor,
		}})

		// A team that enters a game with an empty bank concedes it
		// outright; the start/complete events still go out so
		// spectators see all four games.
		switch {
		case m.BankMsA <= 0 && m.BankMsB <= 0:
			r.concedeGame(rec, nil)
		case m.BankMsA <= 0:
			r.concedeGame(rec, seatPtr(models.SeatA))
		case m.BankMsB <= 0:
			r.concedeGame(rec, seatPtr(models.SeatB))
		default:
			r.playGame(ctx, rec)
		}

		if ctx.Err() != nil {
			return
		}

		m.PointsA += rec.PointsA
		m.PointsB += rec.PointsB
		r.save()
		r.publishMatchUpdate()
	}

	m.Status = models.MatchFinished
	switch {
	case m.PointsA > m.PointsB:
		m.WinnerTeamID = r.teamID(models.SeatA)
	case m.PointsB > m.PointsA:
		m.WinnerTeamID = r.teamID(models.SeatB)
	}
	r.save()
	log.Printf("[MATCH] %s finished %.1f-%.1f", m.ID, m.PointsA, m.PointsB)
	r.publishMatchUpdate()
	r.publishLeaderboard()
}

// concedeGame seals a game without play. A nil offender means both
// banks are empty and the game is scored as a draw.
func (r *matchRunner) concedeGame(rec *models.GameRecord, offender *models.Seat) {
	topic := events.MatchTopic(r.match.ID)
	r.broadcaster.Publish(topic, events.Event{Type: events.KindGameStart, Payload: events.GameStart{
		MatchID:   r.match.ID,
		GameIndex: rec.Index,
	}})
	if offender == nil {
		r.sealDraw(rec)
		rec.Reason = models.ReasonNoTimeLeft
	} else {
		r.sealForfeit(rec, *offender, models.ReasonNoTimeLeft)
	}
	r.broadcaster.Publish(topic, events.Event{Type: events.KindGameComplete, Payload: events.GameComplete{
		MatchID:      r.match.ID,
		GameIndex:    rec.Index,
		Outcome:      rec.Outcome,
		Reason:       rec.Reason,
		WinnerTeamID: rec.WinnerTeamID,
		PointsA:      rec.PointsA,
		PointsB:      rec.PointsB,
	}})
}

// anyTeamReachable probes both endpoints concurrently inside the setup
// window. A reply of any kind proves reachability; only silence
// (timeout) or transport failure counts against a team. Probe calls
// never touch the match banks.
func (r *matchRunner) anyTeamReachable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, r.cfg.SetupWindow)
	defer cancel()

	results := make(chan bool, 2)
	var wg sync.WaitGroup
	for _, seat := range []models.Seat{models.SeatA, models.SeatB} {
		wg.Add(1)
		go func(seat models.Seat) {
			defer wg.Done()
			var board game.Board
			_, err := r.mover.RequestMove(probeCtx, r.endpoint(seat), &board, game.Player1, board.ValidMoves())
			if err == nil {
				results <- true
				return
			}
			switch agent.KindOf(err) {
			case agent.FailureTimeout, agent.FailureTransport:
				results <- false
			default:
				// Malformed or illegal replies still prove the agent
				// is listening.
				results <- true
			}
		}(seat)
	}
	wg.Wait()
	close(results)

	for reachable := range results {
		if reachable {
			return true
		}
	}
	return false
}

// abort seals the match with zero points for both sides.
func (r *matchRunner) abort() {
	m := r.match
	if m.Sealed() {
		return
	}
	m.Status = models.MatchAborted
	m.PointsA, m.PointsB = 0, 0
	m.WinnerTeamID = ""
	r.save()
	r.publishMatchUpdate()
	r.publishLeaderboard()
}

func (r *matchRunner) save() {
	if err := r.store.SaveMatch(r.match); err != nil {
		log.Printf("[MATCH] %s: store write failed: %v", r.match.ID, err)
	}
}

func (r *matchRunner) publishMatchInfo() {
	r.broadcaster.Publish(events.MatchTopic(r.match.ID), events.Event{
		Type:    events.KindMatchInfo,
		Payload: events.MatchInfo{Match: r.match.Clone()},
	})
}

func (r *matchRunner) publishMatchUpdate() {
	r.broadcaster.Publish(events.TopicDashboard, events.Event{
		Type:    events.KindMatchUpdate,
		Payload: events.MatchInfo{Match: r.match.Clone()},
	})
}

// publishLeaderboard recomputes standings from the store and emits
// them. Called only after a sealing write, never before, so spectators
// cannot observe standings ahead of durable state.
func (r *matchRunner) publishLeaderboard() {
	teams, err := r.store.Teams()
	if err != nil {
		log.Printf("[MATCH] leaderboard read failed: %v", err)
		return
	}
	matches, err := r.store.Matches()
	if err != nil {
		log.Printf("[MATCH] leaderboard read failed: %v", err)
		return
	}
	r.broadcaster.Publish(events.TopicDashboard, events.Event{
		Type:    events.KindLeaderboardUpdate,
		Payload: events.LeaderboardUpdate{Entries: Leaderboard(teams, matches)},
	})
}

func seatPtr(s models.Seat) *models.Seat { return &s }
