// Package service is the anchorage application layer: it creates targets
// from viewer interactions, stores them, and resolves them against snapshots
// or live pages, repairing locators that only survived through a weak
// strategy.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/anchorage/browser"
	"github.com/hazyhaar/anchorage/excerpt"
	"github.com/hazyhaar/anchorage/geom"
	"github.com/hazyhaar/anchorage/idgen"
	"github.com/hazyhaar/anchorage/position"
	"github.com/hazyhaar/anchorage/resolve"
	"github.com/hazyhaar/anchorage/store"
	"github.com/hazyhaar/anchorage/target"
	"github.com/hazyhaar/anchorage/viewport"
)

var (
	// ErrNoTarget is returned when an interaction does not produce a target.
	ErrNoTarget = errors.New("service: interaction yields no target")
	// ErrNotFound is returned for unknown annotations.
	ErrNotFound = errors.New("service: annotation not found")
	// ErrNotSpatial is returned when resolving a timestamp target.
	ErrNotSpatial = errors.New("service: target has no spatial anchor")
	// ErrNoBrowser is returned when a live page is requested without a
	// browser configured.
	ErrNoBrowser = errors.New("service: no browser configured")
	// ErrInvalidURL wraps a page URL rejected before navigation.
	ErrInvalidURL = errors.New("service: invalid page URL")
)

// Config configures a Service.
type Config struct {
	Store *store.Store
	// Resolver defaults to resolve.New with the service logger.
	Resolver *resolve.Resolver
	Schedule resolve.Schedule
	// FrameInterval drives live resolution. Default: 1/60 s.
	FrameInterval time.Duration
	Layout        position.Layout
	// Callout is the readout box size used for placement. Default: 280x120.
	Callout   geom.Size
	Threshold float64
	Excerpt   *excerpt.Renderer
	// Browser enables live resolution by URL.
	Browser *browser.Manager
	// AllowPrivateURLs lets ResolveURL open loopback and private addresses.
	AllowPrivateURLs bool
	NewID            idgen.Generator
	Logger           *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Resolver == nil {
		c.Resolver = resolve.New(resolve.WithLogger(c.Logger))
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = time.Second / 60
	}
	if !c.Callout.Positive() {
		c.Callout = geom.Size{Width: 280, Height: 120}
	}
	if c.Excerpt == nil {
		c.Excerpt = excerpt.New()
	}
	if c.NewID == nil {
		c.NewID = idgen.Annotation
	}
}

// Service implements the anchorage operations.
type Service struct {
	cfg Config
}

// New creates a Service. cfg.Store is required.
func New(cfg Config) *Service {
	cfg.defaults()
	return &Service{cfg: cfg}
}

// CreateRequest carries one viewer interaction.
type CreateRequest struct {
	ContentType target.ContentType `json:"contentType"`
	Kind        target.Kind        `json:"kind"`
	Interaction target.Interaction `json:"interaction"`
	FileID      string             `json:"fileId"`
	// Viewport is the image or PDF viewer state at interaction time.
	Viewport    *viewport.State `json:"viewport,omitempty"`
	ViewportTag string          `json:"viewportTag,omitempty"`
}

// Annotation is the stored state of one annotation.
type Annotation struct {
	ID             string         `json:"id"`
	Revision       int            `json:"revision"`
	Target         *target.Target `json:"target"`
	Strategy       string         `json:"strategy,omitempty"`
	CreatedAt      int64          `json:"createdAt"`
	LastResolution *store.Event   `json:"lastResolution,omitempty"`
}

func annotationOf(rev *store.Revision) *Annotation {
	return &Annotation{
		ID:        rev.AnnotationID,
		Revision:  rev.Revision,
		Target:    rev.Target,
		Strategy:  rev.Strategy,
		CreatedAt: rev.CreatedAt,
	}
}

// CreateTarget builds a target from the interaction and stores it as a new
// annotation.
func (s *Service) CreateTarget(ctx context.Context, req CreateRequest) (*Annotation, error) {
	var m *viewport.Mapper
	if req.Viewport != nil {
		m = viewport.New(*req.Viewport)
	}
	t := target.FromInteraction(req.ContentType, req.Kind, req.Interaction, req.FileID, m, req.ViewportTag)
	if t == nil {
		return nil, ErrNoTarget
	}

	id := s.cfg.NewID()
	rev, err := s.cfg.Store.SaveTarget(ctx, id, t)
	if err != nil {
		return nil, fmt.Errorf("service: create target: %w", err)
	}
	s.cfg.Logger.Info("service: annotation created",
		"annotation_id", id, "space", t.Space, "mode", t.Mode, "file_id", t.FileID)
	return annotationOf(rev), nil
}

// Get returns the latest revision of an annotation and its last resolution.
func (s *Service) Get(ctx context.Context, annotationID string) (*Annotation, error) {
	rev, err := s.cfg.Store.LatestTarget(ctx, annotationID)
	if err != nil {
		return nil, fmt.Errorf("service: get: %w", err)
	}
	if rev == nil {
		return nil, ErrNotFound
	}
	a := annotationOf(rev)
	a.LastResolution, err = s.cfg.Store.LastResolution(ctx, annotationID)
	if err != nil {
		return nil, fmt.Errorf("service: get: %w", err)
	}
	return a, nil
}

// ListByFile returns the annotations of a file at their latest revision.
func (s *Service) ListByFile(ctx context.Context, fileID string) ([]*Annotation, error) {
	revs, err := s.cfg.Store.ListByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("service: list: %w", err)
	}
	out := make([]*Annotation, len(revs))
	for i, r := range revs {
		out[i] = annotationOf(r)
	}
	return out, nil
}
