package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"desathor/internal/app"
	"desathor/internal/core"
	"desathor/internal/desadv"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakePages map[string][]string

func (f fakePages) Pages(_ context.Context, data []byte) ([]string, error) {
	return f[string(data)], nil
}

var pages = fakePages{
	"po": {`Commande n° 123456
Réf. frn Code EAN Désignation Qté
1 12345 3001234567892 YAOURT 10
2 23456 4006381333931 CREME 10
Récapitulatif
Commande n° 654321
Réf. frn Code EAN Désignation Qté
1 34567 7612345678900 BEURRE 5
Récapitulatif`},
	"bl": {`Bon de Livraison Nr. 123456
3001234567892 10 YAOURT
4006381333931 6 CREME`},
}

func newService(t *testing.T) app.ApplicationService {
	t.Helper()
	users, err := core.DemoUsers()
	require.NoError(t, err)
	us, err := core.NewUserService(users)
	require.NoError(t, err)
	reg, err := desadv.NewDefaultRegistry(desadv.Config{Mode: desadv.ModeSimulated})
	require.NoError(t, err)
	return app.NewAppService(us,
		core.NewComparator(pages, core.NewExtractor(false)),
		desadv.NewChecker(reg, decimal.Zero, nil),
		app.NewSessionStore(time.Hour), nil)
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand(newService(t), strings.NewReader(stdin))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func fixtures(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	po := filepath.Join(dir, "cde.pdf")
	bl := filepath.Join(dir, "bl.pdf")
	require.NoError(t, os.WriteFile(po, []byte("po"), 0o600))
	require.NoError(t, os.WriteFile(bl, []byte("bl"), 0o600))
	return dir, po, bl
}

func TestCompare_Text(t *testing.T) {
	_, po, bl := fixtures(t)

	out, _, err := execute(t, "", "compare", "--orders", po, "--deliveries", bl)

	require.NoError(t, err)
	assert.Contains(t, out, "123456")
	assert.Contains(t, out, "Hidden (nothing delivered): 654321")
	assert.Contains(t, out, "QTY_DIFF")
}

func TestCompare_JSONAndExport(t *testing.T) {
	dir, po, bl := fixtures(t)
	xlsx := filepath.Join(dir, "report.xlsx")

	out, errOut, err := execute(t, "", "compare", "-o", po, "-d", bl, "--show-unmatched", "--json", "--xlsx", xlsx)

	require.NoError(t, err)
	var run app.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Len(t, run.Orders, 2)
	assert.False(t, run.HideUnmatched)
	assert.Contains(t, errOut, "Report written to "+xlsx)
	_, statErr := os.Stat(xlsx)
	assert.NoError(t, statErr)
}

func TestCompare_MissingInput(t *testing.T) {
	_, po, _ := fixtures(t)

	_, _, err := execute(t, "", "compare", "--orders", po)
	assert.ErrorIs(t, err, core.ErrMissingInput)

	_, _, err = execute(t, "", "compare", "--orders", po, "--deliveries", "/nope.pdf")
	assert.Error(t, err)
}

func TestDESADV(t *testing.T) {
	out, _, err := execute(t, "", "desadv", "--date", "15/03/2024", "--json")
	require.NoError(t, err)

	var rep desadv.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Len(t, rep.Portals, 2)

	_, _, err = execute(t, "", "desadv", "--date", "tomorrow")
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	out, _, err := execute(t, "", "hash-password", "s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("s3cret")))

	_, _, err = execute(t, "", "hash-password")
	assert.Error(t, err)
}

func TestREPLSubcommand(t *testing.T) {
	out, _, err := execute(t, "/help\n/exit\n", "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "Goodbye!")
}
