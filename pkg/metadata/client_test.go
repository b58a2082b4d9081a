package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<!DOCTYPE html>
<html>
<head><title>store</title></head>
<body>
	<h1 itemprop="name"> Magical Quest </h1>
	<span class="maker_name"><a href="/maker">Circle Nimbus</a></span>
	<div id="category_type">
		<a href="#"><span title="Game"></span></a>
		<a href="#"><span title="Voiced"></span></a>
	</div>
	<div class="main_genre">
		<a href="/g/1">Fantasy</a>
		<a href="/g/2">RPG</a>
	</div>
	<div class="product-slider-data">
		<div data-src="//img.example.com/main.jpg"></div>
		<div data-src="//img.example.com/sample1.jpg"></div>
	</div>
</body>
</html>`

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(5 * time.Second)
	c.backends = map[string]backend{
		"RJ": {
			PageURL: srv.URL + "/work/%s.html",
			InfoURL: srv.URL + "/info?product_id=%s",
		},
	}
	return c
}

func TestClientFetch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/work/RJ123456.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(productPage))
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"RJ123456":{"rate_average_2dp":4.35}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(srv)

	md, err := c.Fetch(context.Background(), "RJ123456")
	require.NoError(t, err)

	assert.Equal(t, "RJ123456", md.Identifier)
	assert.Equal(t, "Magical Quest", md.Title)
	assert.Equal(t, "Circle Nimbus", md.Publisher)
	assert.Equal(t, []string{"Game", "Voiced"}, md.Categories)
	assert.Equal(t, []string{"Fantasy", "RPG"}, md.Genres)
	assert.Equal(t, []string{"//img.example.com/main.jpg", "//img.example.com/sample1.jpg"}, md.ImageURLs)
	assert.InDelta(t, 4.35, md.Rating, 0.001)
}

func TestClientFetchRatingDegrades(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/work/RJ123456.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(productPage))
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(srv)

	md, err := c.Fetch(context.Background(), "RJ123456")
	require.NoError(t, err)
	assert.Zero(t, md.Rating)
}

func TestClientFetchMissingTitle(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/work/RJ123456.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>not a product page</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(srv)

	_, err := c.Fetch(context.Background(), "RJ123456")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "title", perr.Field)
}

func TestClientFetchNetworkError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/work/RJ123456.html", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(srv)

	_, err := c.Fetch(context.Background(), "RJ123456")
	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
}

func TestClientFetchUnsupportedPrefix(t *testing.T) {
	t.Parallel()

	c := NewClient(5 * time.Second)

	_, err := c.Fetch(context.Background(), "XX999999")
	require.ErrorIs(t, err, ErrUnsupportedIdentifier)
}

func TestClientFetchPublisherDefaults(t *testing.T) {
	t.Parallel()

	page := `<html><body><h1 itemprop="name">Solo Work</h1></body></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/work/RJ777777.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(srv)

	md, err := c.Fetch(context.Background(), "RJ777777")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", md.Publisher)
	assert.Empty(t, md.Categories)
	assert.Empty(t, md.Genres)
	assert.Empty(t, md.ImageURLs)
	assert.Zero(t, md.Rating)
}
