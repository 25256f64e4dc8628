// Package sheetref normalizes user-supplied spreadsheet references.
//
// Tenant administrators paste whatever they have at hand: a bare spreadsheet
// ID, a full edit URL, or a "publish to the web" URL (the 2PACX token form).
// All of these must resolve to the same canonical fetch coordinates, because
// downstream code builds one URL shape per publish style and a wrong style
// yields an empty CSV body from the host, not an HTTP error.
//
// Resolution is pure and never fails: a reference we cannot recognize is
// passed through as-is and simply produces zero rows downstream. The one
// place a reference is rejected (empty input) lives in the ingest service,
// where it is an administrator-facing configuration error.
package sheetref

import (
	"regexp"
	"strings"
)

// PublishStyle selects the URL path segment used to fetch published CSV.
type PublishStyle string

const (
	// StyleStandard is the normal share/edit form ("/spreadsheets/d/<id>/").
	StyleStandard PublishStyle = "standard"
	// StylePublishedToken is the "publish to the web" form
	// ("/spreadsheets/d/e/<token>/"); tokens start with "2PACX".
	StylePublishedToken PublishStyle = "publishedToken"
)

// Ref is a resolved spreadsheet reference.
//
// CanonicalID carries no protocol or query-string noise. GID identifies the
// sub-sheet (tab) and defaults to "0".
type Ref struct {
	RawInput     string
	CanonicalID  string
	PublishStyle PublishStyle
	GID          string
}

// PathSegment returns the URL path segment for the reference's publish style.
func (r Ref) PathSegment() string {
	if r.PublishStyle == StylePublishedToken {
		return "d/e/"
	}
	return "d/"
}

var (
	rePublishedID = regexp.MustCompile(`/d/e/([a-zA-Z0-9-_]+)`)
	reStandardID  = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)
	reGID         = regexp.MustCompile(`gid=([0-9]+)`)
)

// publishedTokenPrefix marks publish-to-web tokens even when the reference
// arrives without any URL wrapper.
const publishedTokenPrefix = "2PACX"

// Resolve normalizes input into a Ref.
//
// Extraction order:
//  1. "/d/e/<token>" wins and forces the published-token style.
//  2. "/d/<id>" extracts the standard ID.
//  3. Otherwise the trimmed input is treated as already canonical, and the
//     2PACX prefix alone decides the publish style.
//
// GID precedence: the explicit gid argument, then an embedded "gid=<n>"
// query value in input, then "0".
//
// Resolve never fails; malformed input degrades to a standard-style Ref whose
// CanonicalID is the trimmed input.
func Resolve(input, gid string) Ref {
	raw := input
	input = strings.TrimSpace(input)

	ref := Ref{
		RawInput:     raw,
		CanonicalID:  input,
		PublishStyle: StyleStandard,
		GID:          "0",
	}

	switch {
	case strings.Contains(input, "/d/e/"):
		if m := rePublishedID.FindStringSubmatch(input); m != nil {
			ref.CanonicalID = m[1]
			ref.PublishStyle = StylePublishedToken
		}
	case strings.Contains(input, "/d/"):
		if m := reStandardID.FindStringSubmatch(input); m != nil {
			ref.CanonicalID = m[1]
		}
	}

	// A bare 2PACX token has no URL markers but still needs the published
	// path segment, otherwise the host serves an empty document.
	if strings.HasPrefix(ref.CanonicalID, publishedTokenPrefix) {
		ref.PublishStyle = StylePublishedToken
	}

	switch {
	case strings.TrimSpace(gid) != "":
		ref.GID = strings.TrimSpace(gid)
	default:
		if m := reGID.FindStringSubmatch(input); m != nil {
			ref.GID = m[1]
		}
	}

	return ref
}
