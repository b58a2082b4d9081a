package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dlshelf/dlshelf/pkg/identifier"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

// backend holds the URL templates for one identifier family. PageURL serves
// the HTML product page; InfoURL serves the JSON rating payload.
type backend struct {
	PageURL string
	InfoURL string
}

var backends = map[string]backend{
	"RJ": {
		PageURL: "https://www.dlsite.com/maniax/work/=/product_id/%s.html",
		InfoURL: "https://www.dlsite.com/maniax/product/info/ajax?product_id=%s",
	},
	"VJ": {
		PageURL: "https://www.dlsite.com/pro/work/=/product_id/%s.html",
		InfoURL: "https://www.dlsite.com/pro/product/info/ajax?product_id=%s",
	},
}

// Client is an HTTP-backed Source.
type Client struct {
	httpClient *http.Client
	backends   map[string]backend
	log        logger.Logger
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		backends:   backends,
		log:        logger.New(),
	}
}

// Fetch retrieves and parses the product page for code, then fetches its
// rating. Rating failures degrade to 0 rather than failing the whole fetch.
func (c *Client) Fetch(ctx context.Context, code string) (*Metadata, error) {
	b, ok := c.backends[identifier.Prefix(code)]
	if !ok {
		return nil, ErrUnsupportedIdentifier
	}

	pageURL := fmt.Sprintf(b.PageURL, code)
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	md, err := parseProductPage(body, pageURL)
	if err != nil {
		return nil, err
	}
	md.Identifier = code
	md.Rating = c.fetchRating(ctx, b, code)

	return md, nil
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	// The store serves localized pages and blocks obvious bots, so present
	// ordinary browser headers and pin the locale.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Referer", "https://www.dlsite.com/")
	req.AddCookie(&http.Cookie{Name: "locale", Value: "ja-jp"})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	return resp.Body, nil
}

// fetchRating returns the average rating for code, or 0 when the info
// endpoint can't be reached or parsed. The rating is decoration, not a
// requirement.
func (c *Client) fetchRating(ctx context.Context, b backend, code string) float64 {
	infoURL := fmt.Sprintf(b.InfoURL, code)
	body, err := c.get(ctx, infoURL)
	if err != nil {
		c.log.Err(err).Warn("rating fetch failed", logger.Data{"identifier": code})
		return 0
	}
	defer body.Close()

	var payload map[string]struct {
		RateAverage2DP float64 `json:"rate_average_2dp"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		c.log.Err(err).Warn("rating parse failed", logger.Data{"identifier": code})
		return 0
	}

	return payload[code].RateAverage2DP
}
