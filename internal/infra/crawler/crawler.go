package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Crawler fetches a page over HTTP and extracts text for classification.
// It implements the analysis.Fetcher port.
type Crawler struct {
	client *http.Client
}

func New(timeout time.Duration) *Crawler {
	return &Crawler{client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves the URL and returns extracted page text with title and
// meta tags prepended, since those often carry the clearest category signal.
func (c *Crawler) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return extractText(string(body)), nil
}

// extractText reduces HTML to a text blob. If the markup is beyond parsing,
// the raw content is returned as-is and left to the model.
func extractText(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	description, _ := doc.Find("meta[name='description']").Attr("content")
	keywords, _ := doc.Find("meta[name='keywords']").Attr("content")

	doc.Find("script, style, noscript, iframe").Remove()

	re := strings.NewReplacer("\n", " ", "\t", " ", "\r", " ")
	text := strings.Join(strings.Fields(re.Replace(doc.Find("body").Text())), " ")

	return fmt.Sprintf("Title: %s\nDescription: %s\nKeywords: %s\n\nContent:\n%s",
		title, strings.TrimSpace(description), strings.TrimSpace(keywords), text)
}
