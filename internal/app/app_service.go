package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"desathor/internal/core"
	"desathor/internal/desadv"
	"desathor/internal/report"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LocalUser is the identity behind sessions opened by the CLI and REPL.
const LocalUser = "local"

type appService struct {
	users      core.UserService
	comparator *core.Comparator
	checker    *desadv.Checker
	sessions   *SessionStore
	logger     *logrus.Logger
	now        func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
// checker may be nil, in which case CheckDESADV always fails.
func NewAppService(
	users core.UserService,
	comparator *core.Comparator,
	checker *desadv.Checker,
	sessions *SessionStore,
	logger *logrus.Logger,
) ApplicationService {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &appService{
		users:      users,
		comparator: comparator,
		checker:    checker,
		sessions:   sessions,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *appService) state(sessionID string) (*AppState, error) {
	st, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return st, nil
}

func toUserSession(id string, st *AppState) *UserSession {
	u := st.user
	return &UserSession{SessionID: id, Username: u.Username, Role: u.Role, WebAccess: u.WebAccess, StartedAt: st.createdAt}
}

// AuthenticateUser checks credentials and opens a session.
func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		s.logger.WithField("username", username).Warn("login rejected")
		return nil, err
	}
	id, st := s.sessions.Create(*user)
	s.logger.WithFields(logrus.Fields{"username": user.Username, "role": user.Role}).Info("session opened")
	return toUserSession(id, st), nil
}

func (s *appService) StartLocalSession(ctx context.Context) (*UserSession, error) {
	u := core.User{Username: LocalUser, Role: core.RoleAdmin, WebAccess: true}
	id, st := s.sessions.Create(u)
	return toUserSession(id, st), nil
}

func (s *appService) Session(ctx context.Context, sessionID string) (*UserSession, error) {
	st, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}
	return toUserSession(sessionID, st), nil
}

func (s *appService) EndSession(ctx context.Context, sessionID string) error {
	if _, err := s.state(sessionID); err != nil {
		return err
	}
	s.sessions.Delete(sessionID)
	return nil
}

// RunComparison reconciles the uploaded documents and stores the run.
func (s *appService) RunComparison(ctx context.Context, sessionID string, req CompareRequest) (*RunResult, error) {
	st, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}

	res, err := s.comparator.Run(ctx, req.Orders, req.Deliveries)
	if err != nil {
		if errors.Is(err, core.ErrMissingInput) {
			return nil, err
		}
		return nil, fmt.Errorf("comparison: %w", err)
	}

	for _, w := range res.Warnings {
		s.logger.WithFields(logrus.Fields{
			"file":     w.File,
			"kind":     w.Kind,
			"doc_kind": w.DocKind,
		}).Warn(w.Message)
	}

	run := &Run{
		ID:            uuid.NewString(),
		CreatedAt:     s.now(),
		HideUnmatched: req.HideUnmatched,
		OrderFiles:    documentNames(req.Orders),
		DeliveryFiles: documentNames(req.Deliveries),
		Result:        res,
	}
	st.appendRun(run)

	s.logger.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"username":   st.user.Username,
		"orders":     len(res.Summaries),
		"warnings":   len(res.Warnings),
		"unmatched":  len(res.Unmatched),
		"order_docs": len(req.Orders),
		"bl_docs":    len(req.Deliveries),
	}).Info("comparison completed")

	return buildRunResult(run), nil
}

func (s *appService) History(ctx context.Context, sessionID string) (*HistoryResult, error) {
	st, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}
	runs := st.history()
	out := &HistoryResult{Runs: make([]RunSummary, 0, len(runs)), DESADV: st.lastDESADV()}
	for _, r := range runs {
		total := core.GrandTotal(r.Result.Summaries)
		out.Runs = append(out.Runs, RunSummary{
			ID:            r.ID,
			CreatedAt:     r.CreatedAt,
			OrderFiles:    r.OrderFiles,
			DeliveryFiles: r.DeliveryFiles,
			Orders:        len(r.Result.Summaries),
			ServiceRate:   total.ServiceRate,
			Warnings:      len(r.Result.Warnings),
		})
	}
	return out, nil
}

func (s *appService) LatestRun(ctx context.Context, sessionID string) (*RunResult, error) {
	st, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}
	r := st.latest()
	if r == nil {
		return nil, ErrRunNotFound
	}
	return buildRunResult(r), nil
}

func (s *appService) GetRun(ctx context.Context, sessionID, runID string) (*RunResult, error) {
	st, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}
	r := st.run(runID)
	if r == nil {
		return nil, ErrRunNotFound
	}
	return buildRunResult(r), nil
}

func (s *appService) ClearHistory(ctx context.Context, sessionID string) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	st.clearRuns()
	return nil
}

func (s *appService) ResetSession(ctx context.Context, sessionID string) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	st.Reset()
	s.logger.WithField("username", st.user.Username).Info("session reset")
	return nil
}

// ExportRun writes the xlsx report of a run. Use runID "" for the latest run.
func (s *appService) ExportRun(ctx context.Context, sessionID, runID string, w io.Writer) (string, error) {
	st, err := s.state(sessionID)
	if err != nil {
		return "", err
	}
	var r *Run
	if runID == "" {
		r = st.latest()
	} else {
		r = st.run(runID)
	}
	if r == nil {
		return "", ErrRunNotFound
	}
	if err := report.Write(w, r.Result, report.Options{HideUnmatched: r.HideUnmatched}); err != nil {
		return "", fmt.Errorf("export run %s: %w", r.ID, err)
	}
	return report.FileName(r.CreatedAt), nil
}

func (s *appService) CheckDESADV(ctx context.Context, sessionID string, day time.Time) (*desadv.Report, error) {
	st, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}
	if !st.user.WebAccess {
		return nil, ErrForbidden
	}
	if s.checker == nil {
		return nil, errors.New("desadv checker not configured")
	}
	rep := s.checker.Check(ctx, day)
	st.setDESADV(rep)
	return rep, nil
}

func (s *appService) ClearDESADV(ctx context.Context, sessionID string) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	st.setDESADV(nil)
	return nil
}

func documentNames(docs []core.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}

func buildRunResult(r *Run) *RunResult {
	res := r.Result
	visible := core.VisibleOrders(res.Summaries, r.HideUnmatched)
	shown := make(map[string]bool, len(visible))
	out := &RunResult{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		HideUnmatched: r.HideUnmatched,
		OrderFiles:    r.OrderFiles,
		DeliveryFiles: r.DeliveryFiles,
		Orders:        make([]OrderView, 0, len(visible)),
		HiddenOrders:  []string{},
		Unmatched:     res.Unmatched,
		Warnings:      res.Warnings,
		Files:         res.Files,
	}
	var summaries []core.OrderSummary
	for _, num := range visible {
		shown[num] = true
		sum, _ := res.Summary(num)
		summaries = append(summaries, sum)
		out.Orders = append(out.Orders, OrderView{Summary: sum, Rows: res.Reconciled[num]})
	}
	for _, sum := range res.Summaries {
		if !shown[sum.OrderNumber] {
			out.HiddenOrders = append(out.HiddenOrders, sum.OrderNumber)
		}
	}
	out.Total = core.GrandTotal(summaries)
	return out
}
