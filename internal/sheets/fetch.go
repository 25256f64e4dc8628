// Package sheets retrieves published-spreadsheet data over HTTP.
//
// The host serves a published sheet's tab as CSV at
//
//	https://docs.google.com/spreadsheets/<d/ or d/e/><id>/pub?gid=<gid>&single=true&output=csv
//
// with the path segment depending on the reference's publish style. A wrong
// style does not 404 cleanly, it serves an HTML error page, so the fetcher
// treats any non-CSV-looking body the same as a transport failure: zero rows.
//
// Failure policy: transport errors, non-2xx statuses, and unparsable bodies
// all resolve to zero rows. Downstream stages have no error path for fetch
// failures because they never see one; "ingestion found no data" is the
// uniform degraded state. Retry/backoff, if wanted, belongs to the caller.
package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"sheetfeed/internal/parser/csv"
	"sheetfeed/internal/sheetref"
)

const defaultBaseURL = "https://docs.google.com/spreadsheets/"

// maxBodyBytes bounds how much of a response is read. Published dashboards
// run to a few thousand rows; 32 MiB is far past any legitimate sheet.
const maxBodyBytes = 32 << 20

// Options configure a Client. The zero value is production-ready.
type Options struct {
	// HTTP is the client used for fetches. Defaults to a 30s-timeout client.
	HTTP *http.Client

	// BaseURL overrides the spreadsheet host. Tests point this at a local
	// server; production leaves it empty.
	BaseURL string

	// newToken mints the per-fetch cache-busting token. Unexported test seam;
	// defaults to uuid.NewString.
	newToken func() string
}

// Client fetches published sheet tabs. Safe for concurrent use.
type Client struct {
	http     *http.Client
	baseURL  string
	newToken func() string
}

// New constructs a Client from opts.
func New(opts Options) *Client {
	c := &Client{
		http:     opts.HTTP,
		baseURL:  opts.BaseURL,
		newToken: opts.newToken,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.newToken == nil {
		c.newToken = uuid.NewString
	}
	return c
}

// csvURL builds the CSV fetch URL for ref with a fresh cache-busting token.
// Intermediate caches between polls must never serve a stale body, hence a
// new token on every call.
func (c *Client) csvURL(ref sheetref.Ref) string {
	return fmt.Sprintf("%s%s%s/pub?gid=%s&single=true&output=csv&t=%s",
		c.baseURL, ref.PathSegment(), url.PathEscape(ref.CanonicalID),
		url.QueryEscape(ref.GID), url.QueryEscape(c.newToken()))
}

// FetchCSV downloads one tab of ref as raw rows.
//
// Any failure (transport, non-2xx, HTML body from a misclassified publish
// style) yields zero rows, never an error. Context cancellation abandons
// the in-flight request without side effects.
func (c *Client) FetchCSV(ctx context.Context, ref sheetref.Ref) [][]string {
	body := c.get(ctx, c.csvURL(ref))
	if body == nil {
		return nil
	}
	if looksLikeHTML(body) {
		return nil
	}
	return csv.RawRows(body)
}

// Tab is one discovered sub-sheet of a published spreadsheet.
type Tab struct {
	Name string
	GID  string
}

// get fetches a URL and returns its body, or nil on any failure.
func (c *Client) get(ctx context.Context, u string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil
	}
	return body
}

// looksLikeHTML reports whether a body is an HTML document rather than CSV.
// The host answers misrouted publish styles with an HTML error page and a
// 200 status, so the content itself is the only reliable signal.
func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 256)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
