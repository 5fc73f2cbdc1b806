package app

import (
	"context"
	"errors"
	"io"
	"time"

	"desathor/internal/desadv"
)

var (
	// ErrSessionNotFound means the session expired, was closed, or never existed.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRunNotFound means the run is not in the session's history.
	ErrRunNotFound = errors.New("run not found")
	// ErrForbidden means the user lacks the right for the operation.
	ErrForbidden = errors.New("operation not allowed for this user")
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// AuthenticateUser checks credentials and opens a session.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// StartLocalSession opens a session for the trusted local operator (CLI, REPL).
	StartLocalSession(ctx context.Context) (*UserSession, error)

	// Session returns the identity behind a live session.
	Session(ctx context.Context, sessionID string) (*UserSession, error)

	// EndSession discards the session and everything it holds.
	EndSession(ctx context.Context, sessionID string) error

	// RunComparison reconciles the uploaded documents and appends the run to the history.
	// It returns core.ErrMissingInput when either side has no document.
	RunComparison(ctx context.Context, sessionID string, req CompareRequest) (*RunResult, error)

	// History lists the session's runs, oldest first, plus the last DESADV check.
	History(ctx context.Context, sessionID string) (*HistoryResult, error)

	// LatestRun returns the most recent run, or ErrRunNotFound.
	LatestRun(ctx context.Context, sessionID string) (*RunResult, error)

	// GetRun returns one run by ID.
	GetRun(ctx context.Context, sessionID, runID string) (*RunResult, error)

	// ClearHistory drops all runs of the session.
	ClearHistory(ctx context.Context, sessionID string) error

	// ResetSession starts over: runs and DESADV results are cleared.
	ResetSession(ctx context.Context, sessionID string) error

	// ExportRun writes the run's xlsx report to w and returns its file name.
	ExportRun(ctx context.Context, sessionID, runID string, w io.Writer) (string, error)

	// CheckDESADV queries the portals for orders delivering on day (tomorrow when zero).
	// Only users with web access may run it.
	CheckDESADV(ctx context.Context, sessionID string, day time.Time) (*desadv.Report, error)

	// ClearDESADV forgets the last DESADV check.
	ClearDESADV(ctx context.Context, sessionID string) error
}
