package desadv_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"desathor/internal/desadv"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func simulatedRegistry(t *testing.T) *desadv.Registry {
	t.Helper()
	reg, err := desadv.NewDefaultRegistry(desadv.Config{Mode: desadv.ModeSimulated})
	require.NoError(t, err)
	return reg
}

func TestChecker_Simulated(t *testing.T) {
	c := desadv.NewChecker(simulatedRegistry(t), decimal.Zero, nil)

	rep := c.Check(context.Background(), day)

	require.Len(t, rep.Portals, 2)
	assert.Equal(t, "850", rep.Threshold.String())

	auchan := rep.Portals[0]
	assert.Equal(t, "auchan", auchan.Code)
	assert.Equal(t, desadv.OutcomeDue, auchan.Outcome)
	require.Len(t, auchan.Groups, 3)
	assert.Equal(t, "PFI VENDENHEIM", auchan.Groups[0].Warehouse)
	assert.Equal(t, "5432.7", auchan.Groups[0].Total.String())
	assert.Equal(t, "APPRO PFI IDF CHILLY", auchan.Groups[2].Warehouse)

	edi1 := rep.Portals[1]
	assert.Equal(t, "edi1", edi1.Code)
	require.Len(t, edi1.Groups, 3)
	assert.Equal(t, "ENTREPOT CSD produits frais", edi1.Groups[0].Warehouse)
	assert.Equal(t, "1200", edi1.Groups[0].Total.String())
	assert.Equal(t, []string{"100001", "100002"}, edi1.Groups[0].Orders)
	assert.Equal(t, "860", edi1.Groups[2].Total.String())
}

func TestChecker_Threshold(t *testing.T) {
	c := desadv.NewChecker(simulatedRegistry(t), decimal.NewFromInt(1000), nil)
	rep := c.Check(context.Background(), day)
	assert.Len(t, rep.Portals[0].Groups, 2)
	assert.Len(t, rep.Portals[1].Groups, 1)

	c = desadv.NewChecker(simulatedRegistry(t), decimal.NewFromInt(100000), nil)
	rep = c.Check(context.Background(), day)
	for _, p := range rep.Portals {
		assert.Equal(t, desadv.OutcomeNothingDue, p.Outcome)
		assert.Empty(t, p.Groups)
	}
}

func TestGroupByWarehouse_FiltersDay(t *testing.T) {
	orders := []desadv.PortalOrder{
		{Number: "1", Warehouse: "A", DeliveryDate: day, Amount: decimal.NewFromInt(500)},
		{Number: "2", Warehouse: "A", DeliveryDate: day.Add(3 * time.Hour), Amount: decimal.NewFromInt(400)},
		{Number: "3", Warehouse: "A", DeliveryDate: day.AddDate(0, 0, 1), Amount: decimal.NewFromInt(5000)},
		{Number: "4", Warehouse: "B", DeliveryDate: day, Amount: decimal.NewFromInt(849)},
	}

	groups := desadv.GroupByWarehouse(orders, day, desadv.DefaultThreshold)

	require.Len(t, groups, 1)
	assert.Equal(t, "A", groups[0].Warehouse)
	assert.Equal(t, "900", groups[0].Total.String())
	assert.Equal(t, []string{"1", "2"}, groups[0].Orders)
}

const orderListHTML = `<html><body>
<table>
<tr><th>N°</th><th>Date</th><th>Entrepôt</th><th>Statut</th><th>Livraison</th><th>Lignes</th><th>Montant</th></tr>
<tr><td>03385063</td><td>14/03/2024</td><td>PFI VENDENHEIM</td><td>Nouveau</td><td>15/03/2024</td><td>12</td><td>5 432,70</td></tr>
<tr><td>03311038</td><td>14/03/2024</td><td>APPRO PFI LE COUDRAY</td><td>Nouveau</td><td>16/03/2024</td><td>3</td><td>3 406,81</td></tr>
<tr><td>03201385</td><td>14/03/2024</td><td>APPRO PFI IDF CHILLY</td><td>Nouveau</td><td>15/03/2024</td><td>2</td><td>-12,00</td></tr>
<tr><td>03200000</td><td>incomplete</td></tr>
<tr><td>03200001</td><td>14/03/2024</td><td>PFI VENDENHEIM</td><td>Nouveau</td><td>15/03/2024</td><td>2</td><td>n/a</td></tr>
</table>
<table><tr><td>ignored</td></tr></table>
</body></html>`

func portalServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gui.php" {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodPost:
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if r.PostForm.Get("action") != "login" || r.PostForm.Get("username") != "demo" || r.PostForm.Get("password") != "secret" {
				fmt.Fprint(w, "<html>Identifiants incorrects</html>")
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc", Path: "/"})
			fmt.Fprint(w, "<html>Liste des commandes</html>")
		case http.MethodGet:
			if c, err := r.Cookie("PHPSESSID"); err != nil || c.Value != "abc" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			assert.Equal(t, "documents_commandes_liste", r.URL.Query().Get("page"))
			fmt.Fprint(w, orderListHTML)
		}
	}))
}

func TestLiveFetcher_FetchOrders(t *testing.T) {
	srv := portalServer(t)
	defer srv.Close()

	f, err := desadv.NewLiveFetcher(desadv.AuchanPortal(srv.URL), "demo", "secret", time.Second)
	require.NoError(t, err)

	orders, err := f.FetchOrders(context.Background(), day)

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "03385063", orders[0].Number)
	assert.Equal(t, "PFI VENDENHEIM", orders[0].Warehouse)
	assert.Equal(t, "5432.7", orders[0].Amount.String())
	assert.True(t, desadv.SameDay(day, orders[0].DeliveryDate))
	assert.Equal(t, "03311038", orders[1].Number)
}

func TestLiveFetcher_Edi1KeepsAllowedClientsOnly(t *testing.T) {
	srv := portalServer(t)
	defer srv.Close()

	f, err := desadv.NewLiveFetcher(desadv.Edi1Portal(srv.URL), "demo", "secret", time.Second)
	require.NoError(t, err)

	orders, err := f.FetchOrders(context.Background(), day)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestChecker_LiveFailureIsReported(t *testing.T) {
	srv := portalServer(t)
	defer srv.Close()

	bad, err := desadv.NewLiveFetcher(desadv.AuchanPortal(srv.URL), "demo", "wrong", time.Second)
	require.NoError(t, err)
	reg := desadv.NewRegistry()
	require.NoError(t, reg.Register(bad))
	require.NoError(t, reg.Register(desadv.NewSimulatedFetcher(desadv.Edi1Portal(""))))

	rep := desadv.NewChecker(reg, decimal.Zero, nil).Check(context.Background(), day)

	require.Len(t, rep.Portals, 2)
	assert.Equal(t, desadv.OutcomeFetchFailed, rep.Portals[0].Outcome)
	assert.Contains(t, rep.Portals[0].Error, desadv.ErrLoginRejected.Error())
	assert.Empty(t, rep.Portals[0].Groups)
	assert.Equal(t, desadv.OutcomeDue, rep.Portals[1].Outcome)
}

func TestLiveFetcher_ServerDown(t *testing.T) {
	srv := portalServer(t)
	url := srv.URL
	srv.Close()

	f, err := desadv.NewLiveFetcher(desadv.AuchanPortal(url), "demo", "secret", time.Second)
	require.NoError(t, err)

	_, err = f.FetchOrders(context.Background(), day)
	assert.Error(t, err)
}

func TestNewDefaultRegistry(t *testing.T) {
	_, err := desadv.NewDefaultRegistry(desadv.Config{Mode: desadv.ModeLive, AuchanURL: "https://a", Edi1URL: "https://b"})
	assert.Error(t, err)

	_, err = desadv.NewDefaultRegistry(desadv.Config{Mode: "carrier-pigeon"})
	assert.Error(t, err)

	reg, err := desadv.NewDefaultRegistry(desadv.Config{
		Mode: desadv.ModeLive, Username: "u", Password: "p", AuchanURL: "https://a", Edi1URL: "https://b",
	})
	require.NoError(t, err)
	assert.Len(t, reg.List(), 2)
	_, err = reg.Get("edi1")
	assert.NoError(t, err)
	_, err = reg.Get("carrefour")
	assert.Error(t, err)
	assert.Error(t, reg.Register(desadv.NewSimulatedFetcher(desadv.AuchanPortal(""))))
}

func TestParseAmount(t *testing.T) {
	for in, want := range map[string]string{"5 432,70": "5432.7", "893.07": "893.07", "1 200,00": "1200"} {
		got, err := desadv.ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String())
	}
	_, err := desadv.ParseAmount("n/a")
	assert.Error(t, err)
}

func TestTomorrow(t *testing.T) {
	now := time.Date(2024, 12, 31, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), desadv.Tomorrow(now))
}

func TestParseDay(t *testing.T) {
	d, err := desadv.ParseDay(" 15/03/2024 ")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 15, d.Day())
	assert.Equal(t, 0, d.Hour())

	for _, bad := range []string{"", "2024-03-15", "31/02/2024"} {
		_, err := desadv.ParseDay(bad)
		assert.Error(t, err, bad)
	}
}
