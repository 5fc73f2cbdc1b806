package app

import (
	"fmt"

	"desathor/internal/config"
	"desathor/internal/core"
	"desathor/internal/desadv"
	"desathor/internal/pdftext"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// NewFromConfig wires the PDF reader, extractor, credential table and DESADV
// checker described by cfg into an ApplicationService. The returned store is
// the one the service keeps sessions in, so callers can start its purge loop.
func NewFromConfig(cfg *config.Config, logger *logrus.Logger) (ApplicationService, *SessionStore, error) {
	var (
		users []core.User
		err   error
	)
	if cfg.Auth.UsersFile != "" {
		users, err = core.LoadUsers(cfg.Auth.UsersFile)
	} else {
		logger.Warn("USERS_FILE not set, using demo credentials")
		users, err = core.DemoUsers()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("credential table: %w", err)
	}
	userService, err := core.NewUserService(users)
	if err != nil {
		return nil, nil, fmt.Errorf("credential table: %w", err)
	}

	registry, err := desadv.NewDefaultRegistry(desadv.Config{
		Mode:      desadv.Mode(cfg.DESADV.Mode),
		Username:  cfg.DESADV.Username,
		Password:  cfg.DESADV.Password,
		Timeout:   cfg.DESADV.Timeout,
		AuchanURL: cfg.DESADV.AuchanURL,
		Edi1URL:   cfg.DESADV.Edi1URL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("desadv portals: %w", err)
	}
	checker := desadv.NewChecker(registry, decimal.NewFromFloat(cfg.DESADV.Threshold), logger)

	extractor := core.NewExtractor(cfg.Extract.BareOrderNumbers, cfg.Extract.ForbiddenPrefixes...)
	comparator := core.NewComparator(pdftext.NewReader(logger), extractor)

	sessions := NewSessionStore(cfg.Server.SessionTTL)
	return NewAppService(userService, comparator, checker, sessions, logger), sessions, nil
}
