package discovery

import (
	"bufio"
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// FTPListDiscoverer parses FTP LIST-style directory listings (UniProt,
// GenBank/RefSeq release directories) into Candidates. The actual FTP
// transport is an out-of-scope collaborator per spec.md §1 ("FTP/HTTP
// client plumbing... is a Non-goal"); this type takes the raw listing text
// so the parsing logic is exercised without a network dependency.
type FTPListDiscoverer struct {
	// Listing is the raw `LIST` output, one entry per line.
	Listing io.Reader
	// EntryPattern extracts the external version from one listing line; its
	// first capture group is used as ExternalVersion. A line is marked
	// current when it contains CurrentMarker (an empty marker marks none).
	// A version matched on several lines yields one Candidate, current if
	// any of those lines is.
	EntryPattern  *regexp.Regexp
	CurrentMarker string
}

func (d FTPListDiscoverer) DiscoverAll(ctx context.Context) ([]Candidate, error) {
	scanner := bufio.NewScanner(d.Listing)
	var out []Candidate
	seen := make(map[string]int)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		line := scanner.Text()
		m := d.EntryPattern.FindStringSubmatch(line)
		if m == nil || len(m) < 2 {
			continue
		}
		current := d.CurrentMarker != "" && strings.Contains(line, d.CurrentMarker)
		if i, dup := seen[m[1]]; dup {
			out[i].IsCurrent = out[i].IsCurrent || current
			continue
		}
		seen[m[1]] = len(out)
		out = append(out, Candidate{
			ExternalVersion: m[1],
			IsCurrent:       current,
		})
	}
	if err := scanner.Err(); err != nil {
		return out, bdperr.Wrap(bdperr.KindNetworkError, err, "read FTP listing")
	}
	return out, nil
}

// HTMLAnchorDiscoverer extracts candidate release links from an index page
// (OBO/GO release archives publish plain <a href="..."> listings). Like
// FTPListDiscoverer, the HTTP fetch itself is out of scope; this takes
// already-fetched HTML.
type HTMLAnchorDiscoverer struct {
	HTML          io.Reader
	HrefPattern   *regexp.Regexp
	CurrentMarker string
}

var anchorPattern = regexp.MustCompile(`(?i)href="([^"]+)"`)

func (d HTMLAnchorDiscoverer) DiscoverAll(ctx context.Context) ([]Candidate, error) {
	data, err := io.ReadAll(d.HTML)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindNetworkError, err, "read HTML index")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Candidate
	for _, href := range anchorPattern.FindAllStringSubmatch(string(data), -1) {
		m := d.HrefPattern.FindStringSubmatch(href[1])
		if m == nil || len(m) < 2 {
			continue
		}
		out = append(out, Candidate{
			ExternalVersion: m[1],
			IsCurrent:       d.CurrentMarker != "" && strings.Contains(href[1], d.CurrentMarker),
		})
	}
	return out, nil
}

// FixedEndpointDiscoverer covers sources with exactly one machine-readable
// current-release endpoint and no historical archive browsing (InterPro's
// release notes expose only the current MAJOR.MINOR).
type FixedEndpointDiscoverer struct {
	CurrentVersion string
}

func (d FixedEndpointDiscoverer) DiscoverAll(ctx context.Context) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.CurrentVersion == "" {
		return nil, bdperr.New(bdperr.KindNotFound, "no current version known for fixed endpoint")
	}
	return []Candidate{{ExternalVersion: d.CurrentVersion, IsCurrent: true}}, nil
}
