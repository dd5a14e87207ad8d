package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/anchorage/kit"
	"github.com/hazyhaar/anchorage/shield"
	"github.com/hazyhaar/anchorage/target"
)

// maxBody bounds request bodies; snapshots can be large.
const maxBody = 32 << 20

// Router returns a chi router with the service routes and the usual
// middleware.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.MaxBody(maxBody))
	s.RegisterHTTP(r)
	return r
}

// RegisterHTTP mounts the service routes on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		kit.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/targets", kit.HTTPHandler(s.endpoint("create_target", s.createEndpoint), decodeBody[CreateRequest], statusOf))
	r.Get("/api/annotations/{id}", kit.HTTPHandler(s.endpoint("get", s.getEndpoint), decodeID, statusOf))
	r.Post("/api/annotations/{id}/resolve", kit.HTTPHandler(s.endpoint("resolve", s.resolveEndpoint), decodeResolve, statusOf))
	r.Get("/api/files/{fileID}/annotations", kit.HTTPHandler(s.endpoint("list", s.listEndpoint), decodeFileID, statusOf))
}

func readJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func decodeBody[T any](r *http.Request) (any, error) {
	var req T
	if err := readJSON(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func decodeID(r *http.Request) (any, error) {
	return &idRequest{AnnotationID: chi.URLParam(r, "id")}, nil
}

func decodeFileID(r *http.Request) (any, error) {
	return &fileRequest{FileID: chi.URLParam(r, "fileID")}, nil
}

func decodeResolve(r *http.Request) (any, error) {
	var req ResolveRequest
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil {
			return nil, err
		}
	}
	req.AnnotationID = chi.URLParam(r, "id")
	return &req, nil
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoTarget), errors.Is(err, ErrNotSpatial):
		return http.StatusUnprocessableEntity
	case errors.Is(err, target.ErrInvalidTarget), errors.Is(err, ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoBrowser):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
