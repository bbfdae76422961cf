package browser

import (
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// AddWebsiteSource registers websiteURL as a scraped knowledge source named
// after the company. The scrape itself runs on the platform side after the
// dialog is submitted.
func (s *Session) AddWebsiteSource(handle, company, websiteURL string) error {
	base := dashboardBase(handle)
	if err := s.login(base); err != nil {
		return err
	}

	s.log.Info("adding website knowledge source", "handle", handle, "url", websiteURL)
	if err := chromedp.Run(s.ctx,
		chromedp.Navigate(base+"/content/knowledge"),
		chromedp.Sleep(3*time.Second),
		chromedp.Click(`//button[contains(., "Add source")]`, chromedp.BySearch),
		chromedp.Sleep(2*time.Second),
		// The source picker renders "Website" more than once; the last match
		// is the selectable option.
		chromedp.Click(`(//*[text()="Website"])[last()]`, chromedp.BySearch),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return fmt.Errorf("open website source dialog: %w", err)
	}

	// The first textbox on the page is the knowledge search box; the dialog
	// owns the second (source name) and third (URL).
	if err := chromedp.Run(s.ctx,
		chromedp.SendKeys(`(//input[@type="text" or @role="textbox" or not(@type)])[2]`, company+" Website", chromedp.BySearch),
		chromedp.Sleep(time.Second),
		chromedp.SendKeys(`(//input[@type="text" or @role="textbox" or not(@type)])[3]`, websiteURL, chromedp.BySearch),
		chromedp.Sleep(time.Second),
		chromedp.Click(`//button[contains(., "Add")]`, chromedp.BySearch),
		chromedp.Sleep(3*time.Second),
	); err != nil {
		return fmt.Errorf("submit website source: %w", err)
	}

	s.log.Info("website source submitted", "handle", handle, "url", websiteURL)
	return nil
}
