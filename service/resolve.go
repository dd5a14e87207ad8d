package service

import (
	"context"
	"fmt"

	"github.com/hazyhaar/anchorage/browser"
	"github.com/hazyhaar/anchorage/dom"
	"github.com/hazyhaar/anchorage/dom/htmldoc"
	"github.com/hazyhaar/anchorage/eventloop"
	"github.com/hazyhaar/anchorage/geom"
	"github.com/hazyhaar/anchorage/locate"
	"github.com/hazyhaar/anchorage/position"
	"github.com/hazyhaar/anchorage/resolve"
	"github.com/hazyhaar/anchorage/shield"
	"github.com/hazyhaar/anchorage/store"
	"github.com/hazyhaar/anchorage/target"
	"github.com/hazyhaar/anchorage/viewport"
)

// Resolution states reported in a Result.
const (
	StateResolved  = "resolved"
	StateExhausted = "exhausted"
)

// ResolveRequest asks for the live anchor of an annotation. HTML is a
// snapshot; URL is a live page opened in the configured browser. Image and
// PDF regions need neither.
type ResolveRequest struct {
	AnnotationID string      `json:"annotationId"`
	HTML         string      `json:"html,omitempty"`
	URL          string      `json:"url,omitempty"`
	Scroll       *geom.Point `json:"scroll,omitempty"`
	Viewport     *geom.Size  `json:"viewport,omitempty"`
	ResolveOptions
}

// ResolveOptions tune what happens after resolution.
type ResolveOptions struct {
	// Mapper is the image or PDF viewer state used to place normalized
	// regions on screen.
	Mapper *viewport.State `json:"mapper,omitempty"`
	// NoRepair disables storing a re-described locator.
	NoRepair bool `json:"noRepair,omitempty"`
}

// Result is the outcome of one resolution.
type Result struct {
	AnnotationID string `json:"annotationId"`
	Revision     int    `json:"revision"`
	State        string `json:"state"`
	Strategy     string `json:"strategy,omitempty"`
	Attempts     int    `json:"attempts"`
	// Rect is the client rectangle, or the normalized box when Normalized.
	Rect       *geom.Rect       `json:"rect,omitempty"`
	Normalized bool             `json:"normalized,omitempty"`
	PageIndex  int              `json:"pageIndex,omitempty"`
	Position   *position.Update `json:"position,omitempty"`
	Excerpt    string           `json:"excerpt,omitempty"`
	// Fallback is the stored box to draw when the anchor is exhausted.
	Fallback         *target.Box `json:"fallback,omitempty"`
	RepairedRevision int         `json:"repairedRevision,omitempty"`
}

// Resolve dispatches to ResolveURL or ResolveHTML.
func (s *Service) Resolve(ctx context.Context, req ResolveRequest) (*Result, error) {
	if req.URL != "" {
		return s.ResolveURL(ctx, req.AnnotationID, req.URL, req.ResolveOptions)
	}
	return s.ResolveHTML(ctx, req)
}

func (s *Service) latestSpatial(ctx context.Context, annotationID string) (*store.Revision, error) {
	rev, err := s.cfg.Store.LatestTarget(ctx, annotationID)
	if err != nil {
		return nil, fmt.Errorf("service: resolve: %w", err)
	}
	if rev == nil {
		return nil, ErrNotFound
	}
	if !resolve.Spatial(rev.Target) {
		return nil, ErrNotSpatial
	}
	return rev, nil
}

// ResolveHTML resolves against a snapshot. A parsed snapshot is complete, so
// a single attempt decides: there is nothing to wait for.
func (s *Service) ResolveHTML(ctx context.Context, req ResolveRequest) (*Result, error) {
	rev, err := s.latestSpatial(ctx, req.AnnotationID)
	if err != nil {
		return nil, err
	}

	var doc dom.Document
	if req.HTML != "" {
		d, err := htmldoc.ParseString(req.HTML)
		if err != nil {
			return nil, fmt.Errorf("service: parse snapshot: %w", err)
		}
		if req.Viewport != nil {
			d.SetViewport(*req.Viewport)
		}
		if req.Scroll != nil {
			d.SetScroll(*req.Scroll)
		}
		doc = d
	}

	var a *resolve.Anchor
	if doc != nil || rev.Target.Mode == target.ModeRegion {
		a = s.cfg.Resolver.Resolve(rev.Target, doc)
	}
	return s.finish(ctx, rev, doc, a, 1, req.ResolveOptions)
}

// ResolveLive resolves against a document that may still be loading. The
// poller runs on its own event loop until the anchor resolves or the retry
// budget is exhausted.
func (s *Service) ResolveLive(ctx context.Context, annotationID string, doc dom.Document, opts ResolveOptions) (*Result, error) {
	rev, err := s.latestSpatial(ctx, annotationID)
	if err != nil {
		return nil, err
	}

	loop := eventloop.New(eventloop.Config{FrameInterval: s.cfg.FrameInterval, Logger: s.cfg.Logger})
	loopCtx, stopLoop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		loop.Run(loopCtx)
		close(done)
	}()
	defer func() {
		stopLoop()
		<-done
	}()

	type outcome struct {
		anchor   *resolve.Anchor
		attempts int
	}
	out := make(chan outcome, 1)
	var p *resolve.Poller
	p = resolve.NewPoller(rev.Target, doc, resolve.PollerConfig{
		Scheduler:   loop,
		Schedule:    s.cfg.Schedule,
		Resolver:    s.cfg.Resolver,
		Logger:      s.cfg.Logger,
		OnResolved:  func(a *resolve.Anchor) { out <- outcome{a, p.Attempts()} },
		OnExhausted: func() { out <- outcome{nil, p.Attempts()} },
	})
	loop.Post(p.Start)

	select {
	case o := <-out:
		stopLoop()
		<-done
		return s.finish(ctx, rev, doc, o.anchor, o.attempts, opts)
	case <-ctx.Done():
		loop.Post(p.Stop)
		return nil, ctx.Err()
	}
}

// ResolveURL opens pageURL in the configured browser and resolves live.
func (s *Service) ResolveURL(ctx context.Context, annotationID, pageURL string, opts ResolveOptions) (*Result, error) {
	mgr := s.cfg.Browser
	if mgr == nil {
		return nil, ErrNoBrowser
	}
	if err := shield.ValidatePageURL(pageURL, s.cfg.AllowPrivateURLs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if _, err := s.latestSpatial(ctx, annotationID); err != nil {
		return nil, err
	}
	if _, err := mgr.Start(ctx); err != nil {
		return nil, fmt.Errorf("service: browser: %w", err)
	}
	tab, err := browser.OpenTab(ctx, mgr, pageURL)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	defer tab.Close()
	return s.ResolveLive(ctx, annotationID, tab.Document(), opts)
}

// finish records the outcome, repairs weak element matches and builds the
// result.
func (s *Service) finish(ctx context.Context, rev *store.Revision, doc dom.Document, a *resolve.Anchor, attempts int, opts ResolveOptions) (*Result, error) {
	t := rev.Target
	res := &Result{AnnotationID: rev.AnnotationID, Revision: rev.Revision, Attempts: attempts}

	if a == nil {
		res.State = StateExhausted
		res.Fallback = fallbackBox(t)
		s.cfg.Logger.Warn("service: annotation broken",
			"annotation_id", rev.AnnotationID, "revision", rev.Revision, "mode", t.Mode, "attempts", attempts)
		err := s.cfg.Store.RecordResolution(ctx, &store.Event{
			AnnotationID: rev.AnnotationID,
			Revision:     rev.Revision,
			State:        store.StateBroken,
			Attempts:     attempts,
		})
		if err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
		return res, nil
	}

	res.State = StateResolved
	res.Strategy = a.Strategy
	res.Normalized = a.Normalized
	res.PageIndex = a.PageIndex
	// Snapshot elements without a captured rectangle have no position.
	if rect := a.ClientRect(doc); a.Normalized || !rect.Empty() {
		res.Rect = &rect
		res.Position = s.place(t, a, doc, opts.Mapper)
	}

	md, err := s.cfg.Excerpt.Markdown(a)
	if err != nil {
		s.cfg.Logger.Debug("service: excerpt failed", "annotation_id", rev.AnnotationID, "error", err)
	}
	res.Excerpt = md

	if !opts.NoRepair && needsRepair(a) {
		repaired, err := s.repair(ctx, rev, doc, a)
		if err != nil {
			return nil, err
		}
		res.RepairedRevision = repaired.Revision
	}

	err = s.cfg.Store.RecordResolution(ctx, &store.Event{
		AnnotationID: rev.AnnotationID,
		Revision:     rev.Revision,
		State:        store.StateResolved,
		Strategy:     a.Strategy,
		Attempts:     attempts,
	})
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return res, nil
}

// needsRepair reports whether an element was found by xpath or attributes
// only. Point and tag matches are guesses and never replace the stored
// locator.
func needsRepair(a *resolve.Anchor) bool {
	if a.Kind != resolve.KindElement {
		return false
	}
	switch a.Strategy {
	case resolve.StrategyXPath, resolve.StrategyAttributes:
		return true
	}
	return false
}

// repair re-describes the live element and stores it as a new revision.
// The interaction data (click position, relative point, fallback box) is
// carried over from the stored locator.
func (s *Service) repair(ctx context.Context, rev *store.Revision, doc dom.Document, a *resolve.Anchor) (*store.Revision, error) {
	old := rev.Target.Element
	loc := locate.Describe(doc, a.Element, nil)
	loc.Position = old.Position
	loc.Relative = old.Relative
	loc.Box = old.Box

	repaired, err := s.cfg.Store.SaveRepair(ctx, rev.AnnotationID, rev.Target.WithLocator(loc), a.Strategy)
	if err != nil {
		return nil, fmt.Errorf("service: repair: %w", err)
	}
	s.cfg.Logger.Info("service: locator repaired",
		"annotation_id", rev.AnnotationID, "strategy", a.Strategy, "revision", repaired.Revision)
	return repaired, nil
}

// place computes the marker and callout position, nil when the anchor cannot
// be put on screen.
func (s *Service) place(t *target.Target, a *resolve.Anchor, doc dom.Document, mapper *viewport.State) *position.Update {
	cfg := position.Config{
		Relative:  markerFraction(t),
		Callout:   s.cfg.Callout,
		Layout:    s.cfg.Layout,
		Threshold: s.cfg.Threshold,
		Logger:    s.cfg.Logger,
	}
	switch {
	case a.Normalized:
		if mapper == nil || mapper.Validate() != nil {
			return nil
		}
		m := viewport.New(*mapper)
		cfg.Anchor = position.RegionSource(m, a.Rect)
		cfg.Viewport = position.MapperViewport(m)
	case doc != nil:
		cfg.Anchor = position.AnchorSource(a, doc)
		cfg.Viewport = position.DocumentViewport(doc)
	default:
		return nil
	}

	p := position.New(cfg)
	if !p.Recompute() {
		return nil
	}
	u, ok := p.Last()
	if !ok {
		return nil
	}
	return &u
}

// markerFraction is where the marker sits inside the anchor rectangle.
func markerFraction(t *target.Target) geom.Point {
	if t.Mode == target.ModeElement && t.Element.Relative != nil {
		return *t.Element.Relative
	}
	if t.Mode == target.ModeRegion {
		return geom.Point{}
	}
	return geom.Point{X: 0.5, Y: 0.5}
}

func fallbackBox(t *target.Target) *target.Box {
	switch t.Mode {
	case target.ModeElement:
		return t.Element.Box
	case target.ModeRegion:
		b := t.Region.Box
		return &b
	default:
		return nil
	}
}
