package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/brogergvhs/pocketbot/internal/config"
	"github.com/brogergvhs/pocketbot/internal/util"
)

// The site only serves the episode page markup this scraper understands to a
// mobile browser making an AJAX request.
const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Mobile/15E148 Safari/604.1"

const pagesPath = "readableProduct/pageStructure/pages"

// Chapter is one successfully scraped chapter. Pages is non-empty and keeps
// the site's page order.
type Chapter struct {
	Title string
	Label string
	Pages []string
}

// Fetcher is what the delivery pipeline depends on.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*Chapter, error)
}

// Scraper fetches chapters from pocket.shonenmagazine.com. Each Fetch opens
// its own cookie session, logs in when credentials are present and discards
// the session afterwards.
type Scraper struct {
	base      string
	creds     config.Credentials
	ua        string
	timeout   time.Duration
	transport http.RoundTripper
	log       *zap.SugaredLogger
}

type Config struct {
	BaseURL     string
	Credentials config.Credentials
	// UserAgent overrides the default mobile browser identity.
	UserAgent string
	Timeout   time.Duration
	Transport http.RoundTripper
}

func New(cfg Config, log *zap.SugaredLogger) *Scraper {
	ua := cfg.UserAgent
	if ua == "" {
		ua = mobileUserAgent
	}

	return &Scraper{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		creds:     cfg.Credentials,
		ua:        ua,
		timeout:   cfg.Timeout,
		transport: cfg.Transport,
		log:       log,
	}
}

func (s *Scraper) Fetch(ctx context.Context, id string) (*Chapter, error) {
	client, err := s.session()
	if err != nil {
		return nil, err
	}

	if s.creds.Present() {
		if err := s.login(ctx, client); err != nil {
			return nil, err
		}
	}

	resp, err := s.get(ctx, client, "/episode/"+id)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	return parseChapter(resp)
}

// session builds a fresh cookie-jarred client so nothing leaks between
// fetches; re-authentication happens on every call by design of the
// credentials model.
func (s *Scraper) session() (*http.Client, error) {
	var dbg interface{ Debugf(string, ...any) }
	if s.log != nil {
		dbg = s.log
	}

	return util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:   s.timeout,
		UserAgent: s.ua,
		Headers: map[string]string{
			"X-Requested-With": "XMLHttpRequest",
		},
		BypassCloudflare: s.transport == nil,
		Transport:        s.transport,
		DebugLogger:      dbg,
	})
}

func (s *Scraper) login(ctx context.Context, client *http.Client) error {
	form := url.Values{
		"email_address": {s.creds.EmailAddress},
		"password":      {s.creds.Password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.base+"/user_account/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return authErr()
	}

	return nil
}

func (s *Scraper) get(ctx context.Context, client *http.Client, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+path, nil)
	if err != nil {
		return nil, err
	}

	return client.Do(req)
}

func parseChapter(resp *http.Response) (*Chapter, error) {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	title, err := selectText(doc, ".series-header-title", "[class*='series-title']", "Chapter title not found")
	if err != nil {
		return nil, err
	}

	label, err := selectText(doc, ".episode-header-title", "[class*='episode-title']", "Chapter number not found")
	if err != nil {
		return nil, err
	}

	raw, ok := doc.Find("script#episode-json").Attr("data-value")
	if !ok || raw == "" {
		return nil, parseErr("Chapter data not found")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, badDataErr(err)
	}

	pd, err := dig(payload, pagesPath, nil)
	if err != nil {
		return nil, err
	}

	pages := mainPages(pd)
	if len(pages) == 0 {
		return nil, parseErr("No pages found in chapter")
	}

	return &Chapter{Title: title, Label: label, Pages: pages}, nil
}

// selectText tries the primary selector, then the attribute-contains
// fallback the site switched to at some point, and sanitizes the result.
func selectText(doc *goquery.Document, primary, fallback, missing string) (string, error) {
	sel := doc.Find(primary).First()
	if sel.Length() == 0 {
		sel = doc.Find(fallback).First()
	}
	if sel.Length() == 0 {
		return "", parseErr(missing)
	}

	return util.Sanitize(sel.Text()), nil
}

// mainPages projects page entries of type "main" to their src, preserving
// order. Non-page entries (ads, link cards) are interleaved in the same list.
func mainPages(pd any) []string {
	list, ok := pd.([]any)
	if !ok {
		return nil
	}

	var out []string
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := entry["type"].(string); t != "main" {
			continue
		}
		if src, _ := entry["src"].(string); src != "" {
			out = append(out, src)
		}
	}

	return out
}
