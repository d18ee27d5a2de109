package browser

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/pricepivot/collector"
	"github.com/use-agent/pricepivot/extract"
	"github.com/use-agent/pricepivot/models"
	"github.com/use-agent/pricepivot/rules"
)

// showMoreSelectors are tried after each scroll to trigger lazy catalogs
// that hide further content behind a button.
var showMoreSelectors = []string{
	"button[class*='show-more']",
	"button[class*='load-more']",
	".j-show-more",
	".show-more__btn",
}

// popupSelectors match cookie banners, geo prompts and promo modals that
// cover the catalog on first load.
var popupSelectors = []string{
	".cookie-notification__button",
	".cookies__button",
	"button[data-grab-id*='cookie']",
	"[data-auto*='cookie']",
	"button[aria-label*='Закрыть']",
	"button[aria-label*='закрыть']",
	".popup__close",
}

// Sampler reads candidate items off one live catalog page. It implements
// collector.PageSampler.
type Sampler struct {
	page  *rod.Page
	rules *rules.CategoryRules
}

// Open creates a page, navigates it to the catalog URL and dismisses
// blocking popups. The returned Sampler owns the page until Close.
//
// Lifecycle:
//
//	1. Create page           – fresh tab on the shared browser
//	2. Stealth injection     – mask navigator.webdriver etc. (before navigation!)
//	3. Referer header        – organic-looking search-engine referrer
//	4. Navigate + wait       – DOM stable, not network idle
//	5. Popup dismissal       – cookie banners, geo prompts, promo modals
func (b *Browser) Open(ctx context.Context, pageURL string, r *rules.CategoryRules) (*Sampler, error) {
	// ── 1. Create page ──────────────────────────────────────────────
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewCollectError(
			models.ErrCodeBrowserCrash,
			"failed to create page",
			err,
		)
	}

	// ── 2. Stealth injection ────────────────────────────────────────
	if b.cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 3. Referer header ───────────────────────────────────────────
	if u, parseErr := url.Parse(pageURL); parseErr == nil {
		referer := "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Referer": referer}),
		}.Call(page)
	}

	// ── 4. Navigate + wait ──────────────────────────────────────────
	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigationTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(pageURL); err != nil {
		_ = page.Close()
		return nil, categorizeError(err, "navigation to catalog URL failed")
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}

	// ── 5. Popup dismissal ──────────────────────────────────────────
	dismissPopups(p)

	slog.Info("catalog page opened", "url", pageURL)
	return &Sampler{page: page, rules: r}, nil
}

// Sample re-reads the page's scrollable extent and the full set of visible
// candidate items. Selector lists are tried in priority order; the first
// selector matching anything supplies the whole batch.
func (s *Sampler) Sample(ctx context.Context) (*collector.Sample, error) {
	p := s.page.Context(ctx)

	res, err := p.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return nil, categorizeError(err, "failed to read scroll extent")
	}
	extent := res.Value.Int()

	var candidates []extract.Candidate
	for _, sel := range s.rules.CandidateSelectors {
		els, err := p.Elements(sel)
		if err != nil || len(els) == 0 {
			continue
		}
		for _, el := range els {
			cand, ok := candidateFromElement(el)
			if ok {
				candidates = append(candidates, cand)
			}
		}
		break
	}

	return &collector.Sample{
		ScrollExtent: extent,
		Candidates:   candidates,
	}, nil
}

// ApplyStimulus scrolls one viewport down and best-effort clicks a
// "show more" button when one is visible.
func (s *Sampler) ApplyStimulus(ctx context.Context) error {
	p := s.page.Context(ctx)

	res, err := p.Eval(`() => window.innerHeight`)
	if err != nil {
		return categorizeError(err, "failed to read viewport height")
	}
	if err := p.Mouse.Scroll(0, float64(res.Value.Int()), 0); err != nil {
		return categorizeError(err, "scroll failed")
	}

	// Let lazy-loaded content trigger before probing for a button.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}

	clickShowMore(p)
	return nil
}

// Close releases the page.
func (s *Sampler) Close() {
	_ = s.page.Close()
}

// candidateFromElement captures one DOM item as an immutable candidate.
// Items whose HTML or text cannot be read are skipped; the page may have
// replaced them mid-sample.
func candidateFromElement(el *rod.Element) (extract.Candidate, bool) {
	html, err := el.HTML()
	if err != nil {
		return extract.Candidate{}, false
	}
	text, err := el.Text()
	if err != nil {
		return extract.Candidate{}, false
	}

	cand := extract.Candidate{HTML: html, Text: text}
	if link, err := el.Element("a[href]"); err == nil {
		if href, err := link.Attribute("href"); err == nil && href != nil {
			cand.URL = *href
		}
	}
	return cand, true
}

// clickShowMore probes the known load-more button selectors and clicks the
// first visible one. Absence of a button is the normal case.
func clickShowMore(p *rod.Page) {
	for _, sel := range showMoreSelectors {
		el, err := p.Element(sel)
		if err != nil {
			continue
		}
		if visible, err := el.Visible(); err != nil || !visible {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			slog.Debug("show-more button clicked", "selector", sel)
		}
		return
	}
}

// dismissPopups clicks known popup close buttons and strips fixed overlays
// that survive them.
func dismissPopups(p *rod.Page) {
	for _, sel := range popupSelectors {
		el, err := p.Element(sel)
		if err != nil {
			continue
		}
		if visible, err := el.Visible(); err != nil || !visible {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			slog.Debug("popup dismissed", "selector", sel)
		}
	}

	const js = `() => {
		const els = document.querySelectorAll('*');
		for (const el of els) {
			const style = window.getComputedStyle(el);
			const pos = style.position;
			if (pos === 'fixed' || pos === 'sticky') {
				const z = parseInt(style.zIndex, 10);
				if (z >= 900) {
					el.remove();
				}
			}
		}
		document.documentElement.style.overflow = '';
		document.body.style.overflow = '';
	}`
	_, _ = p.Eval(js)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed CollectErrors.
func categorizeError(err error, msg string) *models.CollectError {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewCollectError(models.ErrCodeNavigation, msg, err)
	default:
		return models.NewCollectError(models.ErrCodeSampler, msg, err)
	}
}
