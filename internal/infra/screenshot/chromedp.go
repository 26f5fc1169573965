package screenshot

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Capturer takes full-page screenshots with headless Chrome. Each capture
// spins up its own browser context; the allocator is shared.
type Capturer struct {
	Timeout time.Duration
	Quality int
}

func New(timeout time.Duration) *Capturer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Capturer{Timeout: timeout, Quality: 80}
}

// Capture navigates to the URL and returns the rendered page as a PNG
// (quality 100) or JPEG (lower qualities) byte slice.
func (c *Capturer) Capture(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(1280, 720),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.FullScreenshot(&buf, c.Quality),
	)
	if err != nil {
		return nil, fmt.Errorf("screenshot of %s: %w", url, err)
	}
	return buf, nil
}
