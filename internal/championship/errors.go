package championship

import (
	"errors"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/validation"
)

// Operator errors surface as 4xx on the admin API and never mutate
// coordinator state.
var (
	ErrInvalidTeamName    = validation.ErrInvalidTeamName
	ErrDuplicateTeamName  = errors.New("team name already registered")
	ErrInvalidEndpoint    = validation.ErrInvalidEndpoint
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrChampionshipFull   = errors.New("championship is full")
	ErrNotEnoughTeams     = errors.New("at least two teams are required to start")
	ErrAlreadyStarted     = errors.New("championship has already started")
	ErrMatchNotFound      = errors.New("match not found")
)
