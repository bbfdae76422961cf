package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrKeyNotFound is returned when every extraction strategy came up empty.
// The debug screenshot usually shows why.
var ErrKeyNotFound = errors.New("browser: api key not found on page")

// elementScanJS collects text from the places the key confirmation dialog
// is known to render it.
const elementScanJS = `
(() => {
	const selectors = ['input[readonly]', 'code', 'textarea[readonly]', '[class*="key"]', '[class*="token"]'];
	const texts = [];
	for (const sel of selectors) {
		for (const el of document.querySelectorAll(sel)) {
			texts.push(el.value || el.textContent || '');
		}
	}
	return texts.join('\n');
})()`

// deepScanJS walks every element and returns the first text node that is
// exactly a hex key, a last resort when the dialog markup changed.
const deepScanJS = `
(() => {
	const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_TEXT);
	while (walker.nextNode()) {
		const text = walker.currentNode.textContent.trim();
		if (/^[a-f0-9]{32,40}$/i.test(text)) {
			return text;
		}
	}
	return '';
})()`

// RetrieveAPIKey creates a new API key named "automation-key" through the
// dashboard and extracts it from the one-time confirmation dialog.
func (s *Session) RetrieveAPIKey(handle string) (string, error) {
	base := dashboardBase(handle)
	if err := s.login(base); err != nil {
		return "", err
	}

	s.log.Info("retrieving api key", "handle", handle)
	if err := chromedp.Run(s.ctx,
		chromedp.Navigate(base+"/platform/apis"),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return "", fmt.Errorf("open apis page: %w", err)
	}

	// An onboarding dialog sometimes covers the page. Dismissing it is best
	// effort.
	dismiss, cancel := context.WithTimeout(s.ctx, 3*time.Second)
	_ = chromedp.Run(dismiss,
		chromedp.Click(`//button[contains(., "close") or contains(., "Close")]`, chromedp.BySearch),
		chromedp.Sleep(time.Second),
	)
	cancel()

	// First key on a fresh bot goes through "Get started"; subsequent keys
	// through "New API Key".
	create, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	err := chromedp.Run(create, chromedp.Click(`//button[contains(., "Get started")]`, chromedp.BySearch))
	cancel()
	if err != nil {
		if err := chromedp.Run(s.ctx, chromedp.Click(`//button[contains(., "New API Key")]`, chromedp.BySearch)); err != nil {
			return "", fmt.Errorf("open key creation dialog: %w", err)
		}
	}

	if err := chromedp.Run(s.ctx,
		chromedp.Sleep(time.Second),
		chromedp.SendKeys(`input[type="text"]`, "automation-key", chromedp.ByQuery),
		chromedp.Click(`//button[contains(., "Generate key")]`, chromedp.BySearch),
	); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}

	// Generation takes 5-15 seconds. The confirmation text not appearing is
	// tolerated; extraction below decides success.
	confirm, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	if err := chromedp.Run(confirm,
		chromedp.WaitVisible(`//*[contains(text(), "This key will only be shown once")]`, chromedp.BySearch),
		chromedp.Sleep(time.Second),
	); err != nil {
		s.log.Warn("key confirmation dialog not detected, attempting extraction anyway", "handle", handle)
	}
	cancel()

	s.screenshot(handle)

	if key, ok := s.extractKey(); ok {
		s.log.Info("api key retrieved", "handle", handle, "length", len(key))
		return key, nil
	}
	return "", ErrKeyNotFound
}

// extractKey tries three strategies in order of specificity.
func (s *Session) extractKey() (string, bool) {
	var bodyText string
	if err := chromedp.Run(s.ctx, chromedp.Text("body", &bodyText, chromedp.ByQuery)); err == nil {
		if key, ok := findHexKey(bodyText); ok {
			return key, true
		}
	}

	var elementText string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(elementScanJS, &elementText)); err == nil {
		if key, ok := findHexKey(elementText); ok {
			return key, true
		}
	}

	var deep string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(deepScanJS, &deep)); err == nil && deep != "" {
		return strings.ToLower(deep), true
	}
	return "", false
}

// screenshot saves the current page for post-mortem when extraction fails.
func (s *Session) screenshot(handle string) {
	var shot []byte
	if err := chromedp.Run(s.ctx, chromedp.CaptureScreenshot(&shot)); err != nil {
		s.log.Debug("screenshot failed", "error", err)
		return
	}
	path := filepath.Join(os.TempDir(), "ada_api_key_"+handle+".png")
	if err := os.WriteFile(path, shot, 0o644); err != nil {
		s.log.Debug("screenshot write failed", "path", path, "error", err)
		return
	}
	s.log.Debug("debug screenshot saved", "path", path)
}

func isHexByte(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}

// findHexKey scans text for a maximal hex run of key length. Runs longer
// than 40 characters are digests or ids, not keys, and are skipped whole.
func findHexKey(text string) (string, bool) {
	start := -1
	for i := 0; i <= len(text); i++ {
		if i < len(text) && isHexByte(text[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if n := i - start; n >= 32 && n <= 40 {
				return strings.ToLower(text[start:i]), true
			}
			start = -1
		}
	}
	return "", false
}
