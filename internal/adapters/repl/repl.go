package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"desathor/internal/app"
	"desathor/internal/core"
	"desathor/internal/desadv"
)

var errExit = errors.New("exit")

// session is the REPL's local view: staged file paths plus the service session.
type session struct {
	svc        app.ApplicationService
	id         string
	orders     []string
	deliveries []string
	out        io.Writer
}

// Run starts the interactive REPL loop. It reads commands from reader until
// /exit or end of input.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) error {
	us, err := svc.StartLocalSession(ctx)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	s := &session{svc: svc, id: us.SessionID, out: out}
	defer func() { _ = svc.EndSession(context.Background(), s.id) }()

	fmt.Fprintln(out, "DESATHOR - commandes / bons de livraison")
	fmt.Fprintln(out, "Stage files with /orders and /deliveries, then /run. Type /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			if !strings.HasPrefix(input, "/") {
				fmt.Fprintln(out, "Commands start with / (type /help).")
			} else if err := s.dispatch(ctx, input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return nil
				}
				fmt.Fprintf(out, "Error: %v\n", err)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}

func (s *session) dispatch(ctx context.Context, input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "orders", "o":
		if len(args) == 0 {
			fmt.Fprintln(s.out, "Usage: /orders <file.pdf> [...]")
			return nil
		}
		s.orders = append(s.orders, args...)
		fmt.Fprintf(s.out, "%d purchase order file(s) staged.\n", len(s.orders))

	case "deliveries", "bl", "d":
		if len(args) == 0 {
			fmt.Fprintln(s.out, "Usage: /deliveries <file.pdf> [...]")
			return nil
		}
		s.deliveries = append(s.deliveries, args...)
		fmt.Fprintf(s.out, "%d delivery note file(s) staged.\n", len(s.deliveries))

	case "run", "r":
		orders, err := ReadDocuments(s.orders)
		if err != nil {
			return err
		}
		deliveries, err := ReadDocuments(s.deliveries)
		if err != nil {
			return err
		}
		hide := !(len(args) > 0 && strings.EqualFold(args[0], "all"))
		run, err := s.svc.RunComparison(ctx, s.id, app.CompareRequest{
			Orders:        orders,
			Deliveries:    deliveries,
			HideUnmatched: hide,
		})
		if err != nil {
			if errors.Is(err, core.ErrMissingInput) {
				return fmt.Errorf("stage at least one file with /orders and one with /deliveries")
			}
			return err
		}
		PrintRun(s.out, run)

	case "history":
		h, err := s.svc.History(ctx, s.id)
		if err != nil {
			return err
		}
		PrintHistory(s.out, h)

	case "show":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /show <order>")
			return nil
		}
		run, err := s.svc.LatestRun(ctx, s.id)
		if err != nil {
			return err
		}
		for _, o := range run.Orders {
			if o.Summary.OrderNumber == args[0] {
				PrintOrder(s.out, o)
				return nil
			}
		}
		fmt.Fprintf(s.out, "Order %s is not in the latest run.\n", args[0])

	case "export":
		if len(args) < 1 {
			fmt.Fprintln(s.out, "Usage: /export <path.xlsx>")
			return nil
		}
		path, err := ExportLatest(ctx, s.svc, s.id, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Report written to %s\n", path)

	case "desadv":
		var day time.Time
		if len(args) > 0 {
			d, err := desadv.ParseDay(args[0])
			if err != nil {
				return err
			}
			day = d
		}
		rep, err := s.svc.CheckDESADV(ctx, s.id, day)
		if err != nil {
			return err
		}
		PrintDESADV(s.out, rep)

	case "reset":
		if err := s.svc.ResetSession(ctx, s.id); err != nil {
			return err
		}
		s.orders, s.deliveries = nil, nil
		fmt.Fprintln(s.out, "Session reset.")

	case "help", "h":
		printHelp(s.out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(s.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// ReadDocuments loads files from disk as documents named by their base name.
func ReadDocuments(paths []string) ([]core.Document, error) {
	docs := make([]core.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, core.Document{Name: filepath.Base(p), Data: data})
	}
	return docs, nil
}

// ExportLatest writes the latest run's workbook. When path is a directory the
// report's default file name is used inside it. It returns the written path.
func ExportLatest(ctx context.Context, svc app.ApplicationService, sessionID, path string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".desathor-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	name, err := svc.ExportRun(ctx, sessionID, "", tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}

	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		path = filepath.Join(path, name)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}
