package championship

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/agent"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/events"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/models"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/store"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/validation"
)

// Controller is the championship façade: it owns the store, the
// broadcaster wiring, and the scheduler lifecycle. Handlers and tests
// talk to a Controller value; there is no package-level state.
type Controller struct {
	cfg         Config
	store       store.Store
	broadcaster *events.Broadcaster
	mover       agent.Mover

	mu           sync.Mutex
	status       string
	currentRound int
	teams        []models.Team
	schedule     *models.Schedule
	cancel       context.CancelFunc
	done         chan struct{}
}

// New builds a Controller and installs its snapshot provider on the
// broadcaster. Call Resume to reload persisted state after a restart.
func New(cfg Config, st store.Store, b *events.Broadcaster, mover agent.Mover) *Controller {
	c := &Controller{
		cfg:         cfg.normalized(),
		store:       st,
		broadcaster: b,
		mover:       mover,
		status:      models.StatusWaiting,
	}
	// Snapshots are computed from the store only: the snapshot provider
	// runs under the broadcaster lock and must not touch c.mu.
	b.SetSnapshotFunc(c.snapshotEvents)
	return c
}

// Register adds a team while the championship is waiting. Names are
// unique; endpoints may be shared.
func (c *Controller) Register(name, endpoint string) (models.Team, error) {
	name, err := validation.ValidateTeamName(name)
	if err != nil {
		return models.Team{}, err
	}
	endpoint, err = validation.ValidateEndpoint(endpoint)
	if err != nil {
		return models.Team{}, err
	}

	c.mu.Lock()
	if c.status != models.StatusWaiting {
		c.mu.Unlock()
		return models.Team{}, ErrRegistrationClosed
	}
	if len(c.teams) >= c.cfg.MaxTeams {
		c.mu.Unlock()
		return models.Team{}, ErrChampionshipFull
	}
	for _, t := range c.teams {
		if strings.EqualFold(t.Name, name) {
			c.mu.Unlock()
			return models.Team{}, ErrDuplicateTeamName
		}
	}

	team := models.Team{
		ID:           uuid.New().String(),
		Name:         name,
		Endpoint:     endpoint,
		RegisteredAt: time.Now().UTC(),
	}
	if err := c.store.SaveTeam(team); err != nil {
		c.mu.Unlock()
		return models.Team{}, err
	}
	c.teams = append(c.teams, team)
	c.mu.Unlock()

	log.Printf("[CHAMPIONSHIP] team registered: %s -> %s", team.Name, team.Endpoint)
	c.publishStatus()
	return team, nil
}

// Start builds the schedule (unless one survives from a restart) and
// launches the round scheduler.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.status != models.StatusWaiting {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(c.teams) < c.cfg.MinTeams {
		c.mu.Unlock()
		return ErrNotEnoughTeams
	}

	if c.schedule == nil {
		schedule, matches := buildSchedule(c.teams, c.cfg.MatchBank.Milliseconds())
		if err := c.store.SaveSchedule(schedule); err != nil {
			c.mu.Unlock()
			return err
		}
		for _, m := range matches {
			if err := c.store.SaveMatch(m); err != nil {
				c.mu.Unlock()
				return err
			}
		}
		c.schedule = schedule
	}

	c.status = models.StatusInProgress
	c.currentRound = 0
	c.persistStateLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	schedule := c.schedule
	c.mu.Unlock()

	log.Printf("[CHAMPIONSHIP] started with %d teams, %d rounds", c.TeamCount(), schedule.TotalRounds())
	c.publishStatus()
	go c.runSchedule(ctx, done, schedule, 1)
	return nil
}

// Restart stops in-flight matches, reverts them to scheduled, and
// returns the championship to waiting without losing teams, schedule,
// or sealed results. A subsequent Start replays the unsealed matches
// from game 1.
func (c *Controller) Restart() error {
	restarted := c.stopRunners()
	for _, matchID := range restarted {
		c.broadcaster.Publish(events.MatchTopic(matchID), events.Event{
			Type:    events.KindMatchRestart,
			Payload: events.MatchRestart{MatchID: matchID},
		})
	}

	c.mu.Lock()
	c.status = models.StatusWaiting
	c.persistStateLocked()
	c.mu.Unlock()

	log.Printf("[CHAMPIONSHIP] restarted; %d matches reverted to scheduled", len(restarted))
	c.publishStatus()
	return nil
}

// Reset cancels all runners and clears every record: teams, schedule,
// matches, standings. Spectators of in-flight matches get a restart
// marker so they reload.
func (c *Controller) Reset() error {
	restarted := c.stopRunners()
	for _, matchID := range restarted {
		c.broadcaster.Publish(events.MatchTopic(matchID), events.Event{
			Type:    events.KindMatchRestart,
			Payload: events.MatchRestart{MatchID: matchID},
		})
	}

	if err := c.store.Reset(); err != nil {
		return err
	}

	c.mu.Lock()
	c.status = models.StatusWaiting
	c.currentRound = 0
	c.teams = nil
	c.schedule = nil
	c.persistStateLocked()
	c.mu.Unlock()

	log.Printf("[CHAMPIONSHIP] reset to waiting state")
	c.publishStatus()
	return nil
}

// stopRunners cancels the scheduler, waits for every runner to release
// its slot, and reverts unsealed matches to scheduled. It returns the
// ids of the matches that were in progress.
func (c *Controller) stopRunners() []string {
	// Snapshot which matches are mid-flight before cancelling. Only
	// those revert to scheduled; matches already sealed, including
	// genuine setup aborts, keep their results.
	var restarted []string
	if matches, err := c.store.Matches(); err == nil {
		for _, m := range matches {
			if m.Status == models.MatchInProgress {
				restarted = append(restarted, m.ID)
			}
		}
	} else {
		log.Printf("[CHAMPIONSHIP] could not list matches during stop: %v", err)
	}

	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	for _, id := range restarted {
		m, err := c.store.Match(id)
		if err != nil {
			continue
		}
		m.Status = models.MatchScheduled
		m.Games = nil
		m.PointsA, m.PointsB = 0, 0
		m.WinnerTeamID = ""
		m.BankMsA = c.cfg.MatchBank.Milliseconds()
		m.BankMsB = c.cfg.MatchBank.Milliseconds()
		if err := c.store.SaveMatch(m); err != nil {
			log.Printf("[CHAMPIONSHIP] could not revert match %s: %v", m.ID, err)
		}
	}
	return restarted
}

// Resume reloads persisted state after a process restart. Matches that
// were in progress at shutdown revert to scheduled, and an in-progress
// championship picks scheduling back up at its current round.
func (c *Controller) Resume() error {
	state, err := c.store.State()
	if err != nil {
		return err
	}
	teams, err := c.store.Teams()
	if err != nil {
		return err
	}
	schedule, err := c.store.Schedule()
	if err != nil {
		return err
	}
	matches, err := c.store.Matches()
	if err != nil {
		return err
	}

	for _, m := range matches {
		if m.Status != models.MatchInProgress {
			continue
		}
		m.Status = models.MatchScheduled
		m.Games = nil
		m.PointsA, m.PointsB = 0, 0
		m.WinnerTeamID = ""
		m.BankMsA = c.cfg.MatchBank.Milliseconds()
		m.BankMsB = c.cfg.MatchBank.Milliseconds()
		if err := c.store.SaveMatch(m); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.status = state.Status
	c.currentRound = state.CurrentRound
	c.teams = teams
	c.schedule = schedule

	if c.status == models.StatusInProgress && schedule != nil {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		c.cancel = cancel
		c.done = done
		fromRound := state.CurrentRound
		if fromRound < 1 {
			fromRound = 1
		}
		c.mu.Unlock()
		log.Printf("[CHAMPIONSHIP] resuming from round %d", fromRound)
		go c.runSchedule(ctx, done, schedule, fromRound)
		return nil
	}
	c.mu.Unlock()
	return nil
}

// Close stops the scheduler without touching persisted state.
func (c *Controller) Close() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// Status reports the championship phase and round progress.
func (c *Controller) Status() events.StatusUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return events.StatusUpdate{
		Status:       c.status,
		TeamCount:    len(c.teams),
		CurrentRound: c.currentRound,
		TotalRounds:  c.schedule.TotalRounds(),
	}
}

// TeamCount returns the number of registered teams.
func (c *Controller) TeamCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.teams)
}

// Teams returns the roster in registration order.
func (c *Controller) Teams() []models.Team {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Team(nil), c.teams...)
}

// MatchView is the schedule row shape served by the admin API.
type MatchView struct {
	MatchID     string  `json:"match_id"`
	TeamA       string  `json:"team_a"`
	TeamB       string  `json:"team_b"`
	Status      string  `json:"status"`
	Winner      string  `json:"winner,omitempty"`
	TeamAPoints float64 `json:"team_a_points"`
	TeamBPoints float64 `json:"team_b_points"`
}

// RoundView groups a round's matches.
type RoundView struct {
	Round   int         `json:"round"`
	Bye     string      `json:"bye,omitempty"`
	Matches []MatchView `json:"matches"`
}

// ScheduleView materializes the schedule with current match results.
func (c *Controller) ScheduleView() ([]RoundView, error) {
	c.mu.Lock()
	schedule := c.schedule
	teams := append([]models.Team(nil), c.teams...)
	c.mu.Unlock()

	if schedule == nil {
		return []RoundView{}, nil
	}
	matches, err := c.store.Matches()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.MatchRecord, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	views := make([]RoundView, 0, len(schedule.Rounds))
	for _, round := range schedule.Rounds {
		rv := RoundView{Round: round.Index, Bye: names[round.ByeTeamID]}
		for _, id := range round.MatchIDs {
			m, ok := byID[id]
			if !ok {
				continue
			}
			rv.Matches = append(rv.Matches, MatchView{
				MatchID:     m.ID,
				TeamA:       m.TeamAName,
				TeamB:       m.TeamBName,
				Status:      m.Status,
				Winner:      names[m.WinnerTeamID],
				TeamAPoints: m.PointsA,
				TeamBPoints: m.PointsB,
			})
		}
		views = append(views, rv)
	}
	return views, nil
}

// LeaderboardView derives current standings from sealed matches.
func (c *Controller) LeaderboardView() ([]models.LeaderboardEntry, error) {
	teams, err := c.store.Teams()
	if err != nil {
		return nil, err
	}
	matches, err := c.store.Matches()
	if err != nil {
		return nil, err
	}
	return Leaderboard(teams, matches), nil
}

// Snapshot builds the dashboard initial payload from the store.
func (c *Controller) Snapshot() (*models.Snapshot, error) {
	state, err := c.store.State()
	if err != nil {
		return nil, err
	}
	teams, err := c.store.Teams()
	if err != nil {
		return nil, err
	}
	schedule, err := c.store.Schedule()
	if err != nil {
		return nil, err
	}
	matches, err := c.store.Matches()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.MatchRecord, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	return &models.Snapshot{
		Status:       state.Status,
		CurrentRound: state.CurrentRound,
		Teams:        teams,
		Schedule:     schedule,
		Matches:      byID,
		Leaderboard:  Leaderboard(teams, matches),
	}, nil
}

// Match returns the persisted record for one match.
func (c *Controller) Match(id string) (*models.MatchRecord, error) {
	m, err := c.store.Match(id)
	if err != nil {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// NotifySpectators publishes the current subscriber count on a match
// topic. The websocket layer calls it on attach and detach.
func (c *Controller) NotifySpectators(matchID string) {
	topic := events.MatchTopic(matchID)
	c.broadcaster.Publish(topic, events.Event{
		Type: events.KindSpectatorCount,
		Payload: events.SpectatorCount{
			MatchID: matchID,
			Count:   c.broadcaster.SubscriberCount(topic),
		},
	})
}

// snapshotEvents seeds a new subscriber's queue. It runs under the
// broadcaster lock: store reads only, no c.mu, no publishing.
func (c *Controller) snapshotEvents(topic string) []events.Event {
	if topic == events.TopicDashboard {
		snap, err := c.Snapshot()
		if err != nil {
			log.Printf("[CHAMPIONSHIP] dashboard snapshot failed: %v", err)
			return nil
		}
		return []events.Event{{Type: events.KindInitialState, Payload: snap}}
	}

	matchID, ok := strings.CutPrefix(topic, "match:")
	if !ok {
		return nil
	}
	m, err := c.store.Match(matchID)
	if err != nil {
		return nil
	}
	evs := []events.Event{{Type: events.KindMatchInfo, Payload: events.MatchInfo{Match: m}}}
	if n := len(m.Games); n > 0 {
		g := m.Games[n-1]
		teamID := m.TeamAID
		if g.FirstMover == models.SeatB {
			teamID = m.TeamBID
		}
		evs = append(evs, events.Event{Type: events.KindGameInfo, Payload: events.GameInfo{
			MatchID:    m.ID,
			GameIndex:  g.Index,
			FirstMover: teamID,
			TeamAColor: g.TeamAColor,
			TeamBColor: g.TeamBColor,
		}})
	}
	return evs
}

func (c *Controller) teamByID(id string) (models.Team, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.teams {
		if t.ID == id {
			return t, true
		}
	}
	return models.Team{}, false
}

func (c *Controller) setCurrentRound(round int) {
	c.mu.Lock()
	c.currentRound = round
	c.persistStateLocked()
	c.mu.Unlock()
}

func (c *Controller) finishTournament() {
	c.mu.Lock()
	c.status = models.StatusFinished
	c.persistStateLocked()
	c.mu.Unlock()

	log.Printf("[CHAMPIONSHIP] all rounds complete")
	c.publishStatus()
	if entries, err := c.LeaderboardView(); err == nil {
		c.broadcaster.Publish(events.TopicDashboard, events.Event{
			Type:    events.KindLeaderboardUpdate,
			Payload: events.LeaderboardUpdate{Entries: entries},
		})
	}
}

func (c *Controller) persistStateLocked() {
	state := models.ChampionshipState{Status: c.status, CurrentRound: c.currentRound}
	if err := c.store.SaveState(state); err != nil {
		log.Printf("[CHAMPIONSHIP] state write failed: %v", err)
	}
}

func (c *Controller) publishStatus() {
	c.broadcaster.Publish(events.TopicDashboard, events.Event{
		Type:    events.KindStatusUpdate,
		Payload: c.Status(),
	})
}
