package desadv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

// ErrLoginRejected means the portal answered the login form without a logged-in page.
var ErrLoginRejected = errors.New("portal login rejected")

const (
	guiPath       = "/gui.php"
	orderListPage = "documents_commandes_liste"
	maxPageBytes  = 8 << 20
)

// LiveFetcher logs into a portal and scrapes its order list.
type LiveFetcher struct {
	portal   Portal
	username string
	password string
	timeout  time.Duration
}

// NewLiveFetcher builds a fetcher for portal. Credentials are required.
func NewLiveFetcher(portal Portal, username, password string, timeout time.Duration) (*LiveFetcher, error) {
	if portal.BaseURL == "" {
		return nil, fmt.Errorf("%s: base URL is required", portal.Code)
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("%s: username and password are required in live mode", portal.Code)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LiveFetcher{portal: portal, username: username, password: password, timeout: timeout}, nil
}

func (f *LiveFetcher) Code() string { return f.portal.Code }
func (f *LiveFetcher) Name() string { return f.portal.Name }

// FetchOrders logs in with a fresh cookie jar and parses the order list table.
func (f *LiveFetcher) FetchOrders(ctx context.Context, day time.Time) ([]PortalOrder, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	client := &http.Client{Jar: jar, Timeout: f.timeout}
	base := strings.TrimRight(f.portal.BaseURL, "/") + guiPath

	form := url.Values{"username": {f.username}, "password": {f.password}, "action": {"login"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s login request: %w", f.portal.Code, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	body, err := readBody(client, req)
	if err != nil {
		return nil, fmt.Errorf("%s login: %w", f.portal.Code, err)
	}
	if !strings.Contains(body, "Liste des commandes") && !strings.Contains(body, "Documents") {
		return nil, fmt.Errorf("%s: %w", f.portal.Code, ErrLoginRejected)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+url.Values{"page": {orderListPage}}.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s list request: %w", f.portal.Code, err)
	}
	body, err = readBody(client, req)
	if err != nil {
		return nil, fmt.Errorf("%s order list: %w", f.portal.Code, err)
	}

	orders, err := ParseOrderTable(strings.NewReader(body), day.Location())
	if err != nil {
		return nil, fmt.Errorf("%s order list: %w", f.portal.Code, err)
	}
	out := orders[:0]
	for _, o := range orders {
		if f.portal.accepts(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

func readBody(client *http.Client, req *http.Request) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}

// ParseOrderTable reads the first <table> of a portal page. The header row is skipped,
// rows with fewer than 7 cells are ignored, and so are rows whose date or amount do not parse.
// Columns: 0 number, 2 warehouse, 4 delivery date (dd/mm/yyyy), 6 amount.
func ParseOrderTable(r io.Reader, loc *time.Location) ([]PortalOrder, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := findFirst(doc, "table")
	if table == nil {
		return nil, nil
	}

	var orders []PortalOrder
	for i, tr := range findAll(table, "tr") {
		if i == 0 {
			continue
		}
		var cells []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "td" {
				cells = append(cells, strings.TrimSpace(textOf(c)))
			}
		}
		if len(cells) < 7 {
			continue
		}
		date, err := time.ParseInLocation(DateLayout, cells[4], loc)
		if err != nil {
			continue
		}
		amount, err := ParseAmount(cells[6])
		if err != nil {
			continue
		}
		orders = append(orders, PortalOrder{
			Number:       cells[0],
			Warehouse:    cells[2],
			DeliveryDate: date,
			Amount:       amount,
		})
	}
	return orders, nil
}

// ParseAmount reads a French-formatted amount such as "5 432,70".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ",", ".").Replace(s)
	return decimal.NewFromString(s)
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}
