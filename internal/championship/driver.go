package championship

import (
	"context"
	"log"
	"time"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/agent"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/events"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/game"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/models"
)

// playGame drives one game of the runner's match to a terminal outcome.
// Agent failures and time exhaustion never escape: every path seals the
// record with a forfeit, win, or draw. The context is only consulted at
// suspension points; a cancelled context leaves the record unsealed so
// a later restart or resume can replay the match.
func (r *matchRunner) playGame(ctx context.Context, rec *models.GameRecord) {
	topic := events.MatchTopic(r.match.ID)
	r.broadcaster.Publish(topic, events.Event{Type: events.KindGameStart, Payload: events.GameStart{
		MatchID:   r.match.ID,
		GameIndex: rec.Index,
	}})

	// The first mover always plays as player 1 on the board; seats are
	// resolved back to team identities on every emitted event.
	seatOf := func(p int8) models.Seat {
		if p == game.Player1 {
			return rec.FirstMover
		}
		return otherSeat(rec.FirstMover)
	}

	var board game.Board
	current := game.Player1
	for {
		if ctx.Err() != nil {
			return
		}
		seat := seatOf(current)

		bank := r.bankMs(seat)
		if bank <= 0 {
			// Out of time before the turn starts: forfeit without an
			// agent call.
			r.sealForfeit(rec, seat, models.ReasonNoTimeLeft)
			break
		}

		deadline := r.cfg.TurnCap
		if bankDur := time.Duration(bank) * time.Millisecond; bankDur < deadline {
			deadline = bankDur
		}

		validMoves := board.ValidMoves()
		callCtx, cancel := context.WithTimeout(ctx, deadline)
		started := time.Now()
		column, err := r.mover.RequestMove(callCtx, r.endpoint(seat), &board, current, validMoves)
		cancel()
		// Wall-clock spent on the call is deducted whatever the outcome.
		r.deduct(rec, seat, time.Since(started))

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			r.sealForfeit(rec, seat, forfeitReason(agent.KindOf(err)))
			break
		}
		if !board.IsValidMove(column) {
			r.sealForfeit(rec, seat, models.ReasonIllegalMove)
			break
		}

		if _, err := board.Drop(column, current); err != nil {
			r.sealForfeit(rec, seat, models.ReasonIllegalMove)
			break
		}
		rec.Moves = append(rec.Moves, models.Move{Player: current, Column: column})

		r.broadcaster.Publish(topic, events.Event{Type: events.KindMoveMade, Payload: events.MoveMade{
			MatchID:    r.match.ID,
			GameIndex:  rec.Index,
			MoveIndex:  len(rec.Moves),
			Player:     current,
			TeamID:     r.teamID(seat),
			Column:     column,
			BoardAfter: board.Grid(),
		}})

		terminal := board.Terminal()
		r.broadcaster.Publish(topic, events.Event{Type: events.KindGameUpdate, Payload: events.GameUpdate{
			MatchID:       r.match.ID,
			GameIndex:     rec.Index,
			Board:         board.Grid(),
			CurrentPlayer: game.Opponent(current),
			GameOver:      terminal != game.Ongoing,
		}})

		switch terminal {
		case game.Win1:
			r.sealWin(rec, seatOf(game.Player1))
		case game.Win2:
			r.sealWin(rec, seatOf(game.Player2))
		case game.Draw:
			r.sealDraw(rec)
		default:
			current = game.Opponent(current)
			continue
		}
		break
	}

	log.Printf("[MATCH] %s game %d: %s (%s)", r.match.ID, rec.Index, rec.Outcome, rec.Reason)
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

// forfeitReason maps an agent failure kind onto the recorded reason.
func forfeitReason(kind agent.FailureKind) string {
	switch kind {
	case agent.FailureTimeout:
		return models.ReasonTimeout
	case agent.FailureMalformed:
		return models.ReasonMalformed
	case agent.FailureIllegal:
		return models.ReasonIllegalMove
	default:
		return models.ReasonTransport
	}
}

func (r *matchRunner) sealWin(rec *models.GameRecord, winner models.Seat) {
	if winner == models.SeatA {
		rec.Outcome = models.OutcomeWinA
		rec.PointsA = 1
	} else {
		rec.Outcome = models.OutcomeWinB
		rec.PointsB = 1
	}
	rec.Reason = models.ReasonConnect
	rec.WinnerTeamID = r.teamID(winner)
}

func (r *matchRunner) sealDraw(rec *models.GameRecord) {
	rec.Outcome = models.OutcomeDraw
	rec.Reason = models.ReasonBoardFull
	rec.PointsA = 0.5
	rec.PointsB = 0.5
}

func (r *matchRunner) sealForfeit(rec *models.GameRecord, offender models.Seat, reason string) {
	winner := otherSeat(offender)
	if offender == models.SeatA {
		rec.Outcome = models.OutcomeForfeitA
		rec.PointsB = 1
	} else {
		rec.Outcome = models.OutcomeForfeitB
		rec.PointsA = 1
	}
	rec.Reason = reason
	rec.WinnerTeamID = r.teamID(winner)
}
