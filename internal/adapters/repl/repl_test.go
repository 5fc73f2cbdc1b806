package repl

import (
	"bufio"
	"bytes"
	"context"
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
	"github.com/xuri/excelize/v2"
)

// fakePages treats the file content as a key into canned page texts.
type fakePages map[string][]string

func (f fakePages) Pages(_ context.Context, data []byte) ([]string, error) {
	return f[string(data)], nil
}

var pages = fakePages{
	"po": {`Commande n° 123456
Réf. frn Code EAN Désignation Qté
1 12345 3001234567892 YAOURT 10
2 23456 4006381333931 CREME 10
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

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func runScript(t *testing.T, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, Run(context.Background(), newService(t), in, &out))
	return out.String()
}

func TestRun_CompareShowExport(t *testing.T) {
	dir := t.TempDir()
	po := writeFile(t, dir, "cde.pdf", "po")
	bl := writeFile(t, dir, "bl.pdf", "bl")
	xlsx := filepath.Join(dir, "out.xlsx")

	out := runScript(t,
		"/orders "+po,
		"/deliveries "+bl,
		"/run",
		"/show 123456",
		"/export "+xlsx,
		"/history",
		"/exit",
	)

	assert.Contains(t, out, "1 purchase order file(s) staged.")
	assert.Contains(t, out, "cde.pdf")
	assert.Contains(t, out, "80.00%")
	assert.Contains(t, out, "QTY_DIFF")
	assert.Contains(t, out, "Report written to "+xlsx)
	assert.Contains(t, out, "Goodbye!")

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "C_123456")
}

func TestRun_ExportIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	po := writeFile(t, dir, "cde.pdf", "po")
	bl := writeFile(t, dir, "bl.pdf", "bl")
	outDir := filepath.Join(dir, "reports")
	require.NoError(t, os.Mkdir(outDir, 0o700))

	runScript(t, "/orders "+po, "/deliveries "+bl, "/run", "/export "+outDir)

	matches, err := filepath.Glob(filepath.Join(outDir, "Comparaison_*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRun_Errors(t *testing.T) {
	out := runScript(t,
		"/run",
		"/orders /does/not/exist.pdf",
		"/deliveries /does/not/exist.pdf",
		"/run",
		"/show 1",
		"/desadv 2024-01-01",
		"/bogus",
		"hello",
	)

	assert.Contains(t, out, "stage at least one file")
	assert.Contains(t, out, "read /does/not/exist.pdf")
	assert.Contains(t, out, "Error: run not found")
	assert.Contains(t, out, "must be dd/mm/yyyy")
	assert.Contains(t, out, "Unknown command: /bogus")
	assert.Contains(t, out, "Commands start with /")
}

func TestRun_DESADVAndReset(t *testing.T) {
	out := runScript(t, "/desadv 15/03/2024", "/reset", "/history", "/help", "/q")

	assert.Contains(t, out, "DESADV pour le 15/03/2024")
	assert.Contains(t, out, "Session reset.")
	assert.Contains(t, out, "No run yet.")
	assert.Contains(t, out, "/export <path.xlsx>")
}
