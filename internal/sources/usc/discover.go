package usc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
)

// DiscoveredTitle is one entry scraped from the USC download page: a
// title number and the URL of its current release-point XML.
type DiscoveredTitle struct {
	TitleNum string
	URL      string
}

var (
	xmlLinkRe       = regexp.MustCompile(`href="([^"]+/xml_usc(\d+)[^"]*\.zip)"`)
	releasePointRe  = regexp.MustCompile(`@(\d+)(?:-(\d+))?`)
)

// Discover scrapes the USC download page for the current release-point
// XML link per title. This is a best-effort illustration of source
// discovery, not a specified contract: callers that already know their
// unit URLs (e.g. from a stored catalog) do not need it, and its HTML
// scraping is expected to need updating whenever the download page's
// markup changes.
func Discover(ctx context.Context, client *http.Client, downloadPageURL string) ([]DiscoveredTitle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadPageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usc discover: unexpected status %d from %s", resp.StatusCode, downloadPageURL)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	latest := map[string]DiscoveredTitle{}
	latestPoint := map[string]int{}
	for _, m := range xmlLinkRe.FindAllStringSubmatch(string(body), -1) {
		url, titleNum := m[1], m[2]
		point := 0
		if rp := releasePointRe.FindStringSubmatch(url); rp != nil {
			var major, minor int
			fmt.Sscanf(rp[1], "%d", &major)
			if rp[2] != "" {
				fmt.Sscanf(rp[2], "%d", &minor)
			}
			point = major*100000 + minor
		}
		if point >= latestPoint[titleNum] {
			latestPoint[titleNum] = point
			latest[titleNum] = DiscoveredTitle{TitleNum: titleNum, URL: url}
		}
	}

	out := make([]DiscoveredTitle, 0, len(latest))
	for _, v := range latest {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TitleNum < out[j].TitleNum })
	return out, nil
}
