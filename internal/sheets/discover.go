package sheets

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sheetfeed/internal/sheetref"
)

// DiscoverTabs lists the tabs of a published spreadsheet by parsing its
// pubhtml page. The page carries a sheet menu ("#sheet-menu li a") whose
// entries link each tab's gid.
//
// Discovery is a scaffolding aid for administrators configuring tab views;
// ingestion itself never depends on it. Like the CSV fetch, failures resolve
// to an empty list.
func (c *Client) DiscoverTabs(ctx context.Context, ref sheetref.Ref) []Tab {
	u := fmt.Sprintf("%s%s%s/pubhtml", c.baseURL, ref.PathSegment(), url.PathEscape(ref.CanonicalID))
	body := c.get(ctx, u)
	if body == nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var tabs []Tab
	doc.Find("#sheet-menu li a").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		href, _ := sel.Attr("href")
		gid := gidFromHref(href)
		if name == "" && gid == "" {
			return
		}
		tabs = append(tabs, Tab{Name: name, GID: gid})
	})

	// Single-tab publications render without a sheet menu; represent that as
	// one default tab so callers still get a usable skeleton.
	if len(tabs) == 0 && looksLikeHTML(body) {
		tabs = []Tab{{Name: "Sheet1", GID: "0"}}
	}
	return tabs
}

func gidFromHref(href string) string {
	const marker = "gid="
	i := strings.Index(href, marker)
	if i < 0 {
		return ""
	}
	rest := href[i+len(marker):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	return rest[:end]
}
