// internal/catalog/handler.go
package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"moviecatalog/internal/util"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service Service
	limiter *rate.Limiter
}

// NewHandler wires the service to HTTP. A nil limiter disables write throttling.
func NewHandler(service Service, limiter *rate.Limiter) *Handler {
	return &Handler{service: service, limiter: limiter}
}

// Routes returns the movie routes, meant to be mounted under /movies.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleListMovies)
	r.With(h.limitWrites).Post("/", h.handleCreateMovie)
	r.Get("/genre/{genre}", h.handleMoviesByGenre)
	r.Get("/director/{director}", h.handleMoviesByDirector)
	r.Get("/year/{year}", h.handleMoviesByReleaseYear)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGetMovie)
		r.With(h.limitWrites).Put("/", h.handleUpdateMovie)
		r.With(h.limitWrites).Delete("/", h.handleDeleteMovie)
	})
	return r
}

func (h *Handler) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// movieRequest is the body accepted by create and update.
type movieRequest struct {
	Title       string   `json:"title"`
	Genre       string   `json:"genre"`
	Director    string   `json:"director"`
	ReleaseYear int      `json:"release_year"`
	Rating      *float64 `json:"rating"`
}

func (req movieRequest) movie() Movie {
	return Movie{
		Title:       req.Title,
		Genre:       req.Genre,
		Director:    req.Director,
		ReleaseYear: req.ReleaseYear,
		Rating:      req.Rating,
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.ListMovies(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMovieRequest(w, r)
	if !ok {
		return
	}

	movie, err := h.service.CreateMovie(r.Context(), req.movie())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/movies/"+movie.ID.String())
	writeJSON(w, http.StatusCreated, movie)
}

func (h *Handler) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	movie, err := h.service.GetMovie(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(w, r)
	if !ok {
		return
	}
	req, ok := decodeMovieRequest(w, r)
	if !ok {
		return
	}

	movie, err := h.service.UpdateMovie(r.Context(), id, req.movie())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteMovie(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMoviesByGenre(w http.ResponseWriter, r *http.Request) {
	genre, ok := pathValue(w, r, "genre")
	if !ok {
		return
	}
	movies, err := h.service.MoviesByGenre(r.Context(), genre)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) handleMoviesByDirector(w http.ResponseWriter, r *http.Request) {
	director, ok := pathValue(w, r, "director")
	if !ok {
		return
	}
	movies, err := h.service.MoviesByDirector(r.Context(), director)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) handleMoviesByReleaseYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid release year"})
		return
	}

	movies, err := h.service.MoviesByReleaseYear(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// pathValue returns a decoded URL parameter. chi matches on URL.RawPath when
// the request carries escapes such as %2F, leaving the param encoded.
func pathValue(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, true
	}
	v, err := url.PathUnescape(v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + key})
		return "", false
	}
	return v, true
}

func parseMovieID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid movie ID"})
		return uuid.Nil, false
	}
	return id, true
}

func decodeMovieRequest(w http.ResponseWriter, r *http.Request) (movieRequest, bool) {
	var req movieRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return movieRequest{}, false
	}
	return req, true
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ErrInvalidMovie.Error(), Fields: validation.Fields})
	case errors.Is(err, ErrMovieNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrMovieAlreadyExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, ErrConcurrentModification):
		writeJSON(w, http.StatusConflict, errorResponse{Error: ErrConcurrentModification.Error()})
	default:
		util.LoggerFromContext(r.Context()).ErrorContext(r.Context(), "request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
