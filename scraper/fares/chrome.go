package fares

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"airfare-insights/config"
	"airfare-insights/models"
	"airfare-insights/utils"
)

// maxChromeDays caps how many departure dates are searched per route.
const maxChromeDays = 14

// ChromeSource renders fare search pages in a headless browser and reads the
// fare table of each page.
type ChromeSource struct {
	cfg         *config.Config
	logger      *utils.Logger
	rateLimiter *utils.RateLimiter
	seen        *utils.KeyTracker
}

// NewChromeSource creates a ChromeSource. cfg.FareSearchURL is a fmt template
// receiving origin, destination and departure date (2006-01-02).
func NewChromeSource(cfg *config.Config, logger *utils.Logger) *ChromeSource {
	return &ChromeSource{
		cfg:         cfg,
		logger:      logger,
		rateLimiter: utils.NewRateLimiter(cfg.RateLimitDelay),
		seen:        utils.NewKeyTracker(),
	}
}

func (s *ChromeSource) Name() string { return SourceChrome }

// newContext creates a fresh chromedp context (one browser, one tab at a time)
func (s *ChromeSource) newContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

// Fetch visits one search page per route and departure date, sequentially.
// A failing page is logged and skipped.
func (s *ChromeSource) Fetch(ctx context.Context, req FetchRequest) ([]models.RawFare, error) {
	req = req.withDefaults()
	s.logger.Info("Starting fare scraper for %d routes...", len(req.Routes))

	ctx, cancel := s.newContext(ctx)
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, 25*time.Minute)
	defer cancelTimeout()

	days := min(req.DaysAhead, maxChromeDays)
	today := time.Now().UTC()

	var all []models.RawFare
	for _, route := range req.Routes {
		origin, dest, err := splitRoute(route)
		if err != nil {
			s.logger.Warn("Skipping route: %v", err)
			continue
		}
		routeID := origin + "-" + dest

		before := len(all)
		for i := 0; i < days; i++ {
			if err := s.rateLimiter.Wait(ctx); err != nil {
				return all, fmt.Errorf("fare scraping interrupted: %w", err)
			}
			date := today.AddDate(0, 0, i).Format("2006-01-02")
			pageURL := fmt.Sprintf(s.cfg.FareSearchURL, origin, dest, date)

			fares, err := s.scrapePage(ctx, pageURL, routeID)
			if err != nil {
				s.logger.Error("Route '%s' on %s failed: %v", routeID, date, err)
				continue
			}
			all = append(all, fares...)
		}
		s.logger.Info("Route '%s': collected %d fares (total so far: %d)", routeID, len(all)-before, len(all))
	}

	s.logger.Info("Scraping complete. Total raw fares: %d", len(all))
	return all, nil
}

// scrapePage navigates to a search results page and extracts its fare rows
func (s *ChromeSource) scrapePage(ctx context.Context, pageURL, routeID string) ([]models.RawFare, error) {
	var fares []models.RawFare

	err := utils.RetryWithBackoff(ctx, s.cfg.MaxRetries, func() error {
		err := chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(4*time.Second), // wait for JS render
		)
		if err != nil {
			return fmt.Errorf("navigate failed: %w", err)
		}

		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		waitErr := chromedp.Run(waitCtx, chromedp.WaitVisible(`[data-testid="fare-row"], table.fares`, chromedp.ByQuery))
		cancel()
		if waitErr != nil {
			s.logger.Debug("  No fare table visible yet on %s", pageURL)
		}

		var html string
		if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
			return fmt.Errorf("reading page HTML failed: %w", err)
		}

		parsed, err := ParseFareTable(html, routeID, time.Now(), s.seen)
		if err != nil {
			return err
		}
		fares = parsed
		return nil
	}, s.logger)

	if err == nil && len(fares) == 0 {
		s.logger.Warn("  No fares found on %s", pageURL)
	}
	return fares, err
}
