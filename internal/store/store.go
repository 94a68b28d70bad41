package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/models"
)

// Logical key layout. Values are JSON blobs so writes are idempotent
// and replays reconstruct identical state.
const (
	keyState       = "state"
	keySchedule    = "schedule"
	keyTeamPrefix  = "teams/"
	keyMatchPrefix = "matches/"
)

var ErrNotFound = errors.New("record not found")

// Store is the only shared mutable resource of the coordinator. A match
// record has exactly one writing runner at a time, so SaveMatch is
// last-writer-wins within a match.
type Store interface {
	SaveState(models.ChampionshipState) error
	State() (models.ChampionshipState, error)

	SaveTeam(models.Team) error
	Teams() ([]models.Team, error)

	SaveSchedule(*models.Schedule) error
	Schedule() (*models.Schedule, error)

	SaveMatch(*models.MatchRecord) error
	Match(id string) (*models.MatchRecord, error)
	Matches() ([]*models.MatchRecord, error)

	// Reset drops every record and returns the store to its initial
	// empty state.
	Reset() error
}

// kv is the raw keyed-blob surface both implementations provide; the
// typed Store methods are derived from it by the codec below.
type kv interface {
	put(key string, value []byte) error
	get(key string) ([]byte, error)
	list(prefix string) ([][]byte, error)
	clear() error
}

type codec struct{ kv }

func (c codec) SaveState(s models.ChampionshipState) error { return putJSON(c.kv, keyState, s) }

func (c codec) State() (models.ChampionshipState, error) {
	var s models.ChampionshipState
	err := getJSON(c.kv, keyState, &s)
	if errors.Is(err, ErrNotFound) {
		return models.ChampionshipState{Status: models.StatusWaiting}, nil
	}
	return s, err
}

func (c codec) SaveTeam(t models.Team) error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	return putJSON(c.kv, keyTeamPrefix+t.ID, t)
}

func (c codec) Teams() ([]models.Team, error) {
	blobs, err := c.list(keyTeamPrefix)
	if err != nil {
		return nil, err
	}
	teams := make([]models.Team, 0, len(blobs))
	for _, blob := range blobs {
		var t models.Team
		if err := json.Unmarshal(blob, &t); err != nil {
			return nil, fmt.Errorf("corrupt team record: %w", err)
		}
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool {
		if !teams[i].RegisteredAt.Equal(teams[j].RegisteredAt) {
			return teams[i].RegisteredAt.Before(teams[j].RegisteredAt)
		}
		return teams[i].ID < teams[j].ID
	})
	return teams, nil
}

func (c codec) SaveSchedule(s *models.Schedule) error { return putJSON(c.kv, keySchedule, s) }

func (c codec) Schedule() (*models.Schedule, error) {
	var s models.Schedule
	if err := getJSON(c.kv, keySchedule, &s); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (c codec) SaveMatch(m *models.MatchRecord) error {
	if m.ID == "" {
		return fmt.Errorf("match id is required")
	}
	return putJSON(c.kv, keyMatchPrefix+m.ID, m)
}

func (c codec) Match(id string) (*models.MatchRecord, error) {
	var m models.MatchRecord
	if err := getJSON(c.kv, keyMatchPrefix+id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c codec) Matches() ([]*models.MatchRecord, error) {
	blobs, err := c.list(keyMatchPrefix)
	if err != nil {
		return nil, err
	}
	matches := make([]*models.MatchRecord, 0, len(blobs))
	for _, blob := range blobs {
		var m models.MatchRecord
		if err := json.Unmarshal(blob, &m); err != nil {
			return nil, fmt.Errorf("corrupt match record: %w", err)
		}
		matches = append(matches, &m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].RoundIndex != matches[j].RoundIndex {
			return matches[i].RoundIndex < matches[j].RoundIndex
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (c codec) Reset() error { return c.clear() }

func putJSON(s kv, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.put(key, data)
}

func getJSON(s kv, key string, v any) error {
	data, err := s.get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// memoryKV backs tests and ephemeral deployments.
type memoryKV struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemory returns a non-persistent Store.
func NewMemory() Store {
	return codec{&memoryKV{records: make(map[string][]byte)}}
}

func (m *memoryKV) put(key string, value []byte) error {
	m.mu.Lock()
	m.records[key] = value
	m.mu.Unlock()
	return nil
}

func (m *memoryKV) get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

func (m *memoryKV) list(prefix string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0)
	for key := range m.records {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	out := make([][]byte, 0, len(keys))
	for _, key := range keys {
		out = append(out, m.records[key])
	}
	return out, nil
}

func (m *memoryKV) clear() error {
	m.mu.Lock()
	m.records = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}
