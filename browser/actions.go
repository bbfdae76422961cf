package browser

import (
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/scteam/adaprov/content"
)

// ImportActions imports each action through the dashboard's import dialog
// and activates it. The first failed import aborts: the remaining actions
// would hit the same broken dialog.
func (s *Session) ImportActions(handle string, actions []content.Action) error {
	if len(actions) == 0 {
		return nil
	}

	base := dashboardBase(handle)
	if err := s.login(base); err != nil {
		return err
	}

	for i, action := range actions {
		s.log.Info("importing action", "handle", handle, "action", action.Name, "index", i+1, "total", len(actions))
		if err := s.importAction(base, action); err != nil {
			return fmt.Errorf("import action %q (%d of %d): %w", action.Name, i+1, len(actions), err)
		}
	}

	s.log.Info("actions imported", "handle", handle, "count", len(actions))
	return nil
}

func (s *Session) importAction(base string, action content.Action) error {
	if err := chromedp.Run(s.ctx,
		chromedp.Navigate(base+"/content/actions/new"),
		chromedp.Sleep(3*time.Second),
		chromedp.Click(`//button[contains(., "Import Action")]`, chromedp.BySearch),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return fmt.Errorf("open import dialog: %w", err)
	}

	// SetValue instead of SendKeys: the payload is a JSON document and
	// keystroke simulation mangles braces in some dialog states.
	if err := chromedp.Run(s.ctx,
		chromedp.SetValue(`textarea`, action.JSON, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		// The dialog renders an "Import Action" trigger and an "Import"
		// submit; the last match is the submit.
		chromedp.Click(`(//button[contains(., "Import")])[last()]`, chromedp.BySearch),
		chromedp.Sleep(3*time.Second),
	); err != nil {
		return fmt.Errorf("submit action json: %w", err)
	}

	if err := chromedp.Run(s.ctx,
		chromedp.Click(`//button[contains(., "Save and make active")]`, chromedp.BySearch),
		chromedp.Sleep(3*time.Second),
	); err != nil {
		return fmt.Errorf("activate action: %w", err)
	}
	return nil
}
