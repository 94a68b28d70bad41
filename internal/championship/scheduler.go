package championship

import (
	"context"
	"log"
	"sync"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/events"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/models"
)

// runSchedule drives rounds strictly sequentially from fromRound.
// Within a round, matches go to a bounded worker pool; the next round
// opens only once every non-bye match of the current one is sealed.
// done is the channel whoever launched the scheduler waits on; closing
// it here, not via the controller, keeps stop paths from racing a
// scheduler goroutine that has not run yet.
func (c *Controller) runSchedule(ctx context.Context, done chan struct{}, schedule *models.Schedule, fromRound int) {
	defer close(done)

	for _, round := range schedule.Rounds {
		if round.Index < fromRound {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		c.setCurrentRound(round.Index)
		log.Printf("[SCHEDULER] round %d starting (%d matches)", round.Index, len(round.MatchIDs))
		c.broadcaster.Publish(events.TopicDashboard, events.Event{
			Type:    events.KindRoundStart,
			Payload: events.RoundMarker{Round: round.Index},
		})
		c.publishStatus()

		sem := make(chan struct{}, c.cfg.MaxParallel)
		var wg sync.WaitGroup
		for _, matchID := range round.MatchIDs {
			match, err := c.store.Match(matchID)
			if err != nil {
				log.Printf("[SCHEDULER] match %s missing from store: %v", matchID, err)
				continue
			}
			if match.Sealed() {
				// Already decided on a previous run; resuming skips it.
				continue
			}
			teamA, okA := c.teamByID(match.TeamAID)
			teamB, okB := c.teamByID(match.TeamBID)
			if !okA || !okB {
				log.Printf("[SCHEDULER] match %s references unknown team", matchID)
				continue
			}

			runner := newMatchRunner(c.cfg, c.mover, c.store, c.broadcaster, match, teamA, teamB)
			wg.Add(1)
			go func() {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-sem }()
				runner.run(ctx)
			}()
		}
		wg.Wait()

		if ctx.Err() != nil {
			return
		}
		log.Printf("[SCHEDULER] round %d complete", round.Index)
		c.broadcaster.Publish(events.TopicDashboard, events.Event{
			Type:    events.KindRoundComplete,
			Payload: events.RoundMarker{Round: round.Index},
		})
	}

	c.finishTournament()
}
