package usc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phulin/statute-ingest/internal/sources/usc"
)

func TestDiscoverKeepsOnlyLatestReleasePointPerTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`
			<a href="/download/xml_usc01@118-50.zip">Title 1</a>
			<a href="/download/xml_usc01@118-52.zip">Title 1 (newer)</a>
			<a href="/download/xml_usc42@118-50.zip">Title 42</a>
		`))
	}))
	defer srv.Close()

	out, err := usc.Discover(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	require.Len(t, out, 2)

	byTitle := map[string]usc.DiscoveredTitle{}
	for _, d := range out {
		byTitle[d.TitleNum] = d
	}
	assert.Contains(t, byTitle["01"].URL, "@118-52")
	assert.Contains(t, byTitle["42"].URL, "@118-50")
}

func TestDiscoverReturnsErrorOnNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := usc.Discover(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
}
