package service

import (
	"context"

	"github.com/hazyhaar/anchorage/kit"
)

type idRequest struct {
	AnnotationID string `json:"annotationId"`
}

type fileRequest struct {
	FileID string `json:"fileId"`
}

// endpoint wraps an endpoint with request logging.
func (s *Service) endpoint(name string, e kit.Endpoint) kit.Endpoint {
	return kit.Logging(s.cfg.Logger, name)(e)
}

func (s *Service) createEndpoint(ctx context.Context, req any) (any, error) {
	return s.CreateTarget(ctx, *req.(*CreateRequest))
}

func (s *Service) getEndpoint(ctx context.Context, req any) (any, error) {
	return s.Get(ctx, req.(*idRequest).AnnotationID)
}

func (s *Service) resolveEndpoint(ctx context.Context, req any) (any, error) {
	return s.Resolve(ctx, *req.(*ResolveRequest))
}

func (s *Service) listEndpoint(ctx context.Context, req any) (any, error) {
	list, err := s.ListByFile(ctx, req.(*fileRequest).FileID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"annotations": list}, nil
}
