package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/game"
)

// FailureKind classifies a failed move request. The order of the
// constants is the classification precedence: a call that both times
// out and would have been malformed is a timeout.
type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureTransport FailureKind = "transport"
	FailureMalformed FailureKind = "malformed"
	FailureIllegal   FailureKind = "illegal"
)

// Error is the typed failure returned by RequestMove. A remote call is
// an adversarial action: one failure of any kind decides the turn, so
// there are no retries.
type Error struct {
	Kind   FailureKind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("agent %s: %s", e.Kind, e.Detail)
}

// KindOf extracts the failure kind from an error returned by
// RequestMove, defaulting to transport for unexpected errors.
func KindOf(err error) FailureKind {
	var agentErr *Error
	if errors.As(err, &agentErr) {
		return agentErr.Kind
	}
	return FailureTransport
}

// MoveRequest is the wire format POSTed to agent endpoints.
type MoveRequest struct {
	Board         [][]int `json:"board"`
	CurrentPlayer int8    `json:"current_player"`
	ValidMoves    []int   `json:"valid_moves"`
}

// MoveResponse is the expected reply.
type MoveResponse struct {
	Move *int `json:"move"`
}

// maxResponseBytes bounds what we read from an agent reply.
const maxResponseBytes = 1 << 16

// Mover abstracts the remote call so drivers can be tested with
// scripted in-process movers.
type Mover interface {
	RequestMove(ctx context.Context, endpoint string, board *game.Board, player int8, validMoves []int) (int, error)
}

// Client calls remote agents over HTTP. Deadlines come in on the
// context; the embedded http.Client carries no timeout of its own.
type Client struct {
	http *http.Client
}

// NewClient returns a Client suitable for tournament use.
func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost:   4,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ExpectContinueTimeout: time.Second,
			},
		},
	}
}

// RequestMove sends the board snapshot to endpoint and returns the
// chosen column. Failures are classified timeout, transport, malformed,
// then illegal; the first matching kind wins.
func (c *Client) RequestMove(ctx context.Context, endpoint string, board *game.Board, player int8, validMoves []int) (int, error) {
	body, err := json.Marshal(MoveRequest{
		Board:         board.Grid(),
		CurrentPlayer: player,
		ValidMoves:    validMoves,
	})
	if err != nil {
		return -1, &Error{Kind: FailureTransport, Detail: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return -1, &Error{Kind: FailureTransport, Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if deadlineExceeded(ctx, err) {
			return -1, &Error{Kind: FailureTimeout, Detail: "no response within deadline"}
		}
		return -1, &Error{Kind: FailureTransport, Detail: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if deadlineExceeded(ctx, err) {
			return -1, &Error{Kind: FailureTimeout, Detail: "response body not received within deadline"}
		}
		return -1, &Error{Kind: FailureTransport, Detail: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return -1, &Error{Kind: FailureTransport, Detail: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var moveResp MoveResponse
	if err := json.Unmarshal(data, &moveResp); err != nil || moveResp.Move == nil {
		return -1, &Error{Kind: FailureMalformed, Detail: fmt.Sprintf("unparseable move response: %.120s", data)}
	}

	move := *moveResp.Move
	if move < 0 || move >= game.Columns || !contains(validMoves, move) {
		return -1, &Error{Kind: FailureIllegal, Detail: fmt.Sprintf("column %d not in valid moves %v", move, validMoves)}
	}
	return move, nil
}

func deadlineExceeded(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded
}

func contains(moves []int, col int) bool {
	for _, m := range moves {
		if m == col {
			return true
		}
	}
	return false
}
