package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"moviecatalog/internal/catalog"
)

// CatalogClient talks to the catalog service over HTTP and satisfies catalog.Service.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ catalog.Service = (*CatalogClient)(nil)

func NewCatalogClient(baseURL string, httpClient *http.Client) *CatalogClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CatalogClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type movieBody struct {
	Title       string   `json:"title"`
	Genre       string   `json:"genre,omitempty"`
	Director    string   `json:"director,omitempty"`
	ReleaseYear int      `json:"release_year"`
	Rating      *float64 `json:"rating,omitempty"`
}

func bodyFor(m catalog.Movie) movieBody {
	return movieBody{
		Title:       m.Title,
		Genre:       m.Genre,
		Director:    m.Director,
		ReleaseYear: m.ReleaseYear,
		Rating:      m.Rating,
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (c *CatalogClient) ListMovies(ctx context.Context) ([]catalog.Movie, error) {
	var movies []catalog.Movie
	err := c.do(ctx, http.MethodGet, "/movies", nil, http.StatusOK, &movies)
	return movies, err
}

func (c *CatalogClient) GetMovie(ctx context.Context, id uuid.UUID) (*catalog.Movie, error) {
	var movie catalog.Movie
	if err := c.do(ctx, http.MethodGet, "/movies/"+id.String(), nil, http.StatusOK, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *CatalogClient) CreateMovie(ctx context.Context, candidate catalog.Movie) (*catalog.Movie, error) {
	var movie catalog.Movie
	if err := c.do(ctx, http.MethodPost, "/movies", bodyFor(candidate), http.StatusCreated, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *CatalogClient) UpdateMovie(ctx context.Context, id uuid.UUID, candidate catalog.Movie) (*catalog.Movie, error) {
	var movie catalog.Movie
	if err := c.do(ctx, http.MethodPut, "/movies/"+id.String(), bodyFor(candidate), http.StatusOK, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (c *CatalogClient) DeleteMovie(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/movies/"+id.String(), nil, http.StatusNoContent, nil)
}

func (c *CatalogClient) MoviesByGenre(ctx context.Context, genre string) ([]catalog.Movie, error) {
	var movies []catalog.Movie
	err := c.do(ctx, http.MethodGet, "/movies/genre/"+url.PathEscape(genre), nil, http.StatusOK, &movies)
	return movies, err
}

func (c *CatalogClient) MoviesByDirector(ctx context.Context, director string) ([]catalog.Movie, error) {
	var movies []catalog.Movie
	err := c.do(ctx, http.MethodGet, "/movies/director/"+url.PathEscape(director), nil, http.StatusOK, &movies)
	return movies, err
}

func (c *CatalogClient) MoviesByReleaseYear(ctx context.Context, year int) ([]catalog.Movie, error) {
	var movies []catalog.Movie
	err := c.do(ctx, http.MethodGet, "/movies/year/"+strconv.Itoa(year), nil, http.StatusOK, &movies)
	return movies, err
}

func (c *CatalogClient) do(ctx context.Context, method, path string, in any, wantStatus int, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// remoteError keeps the server's message while matching the catalog sentinel.
type remoteError struct {
	msg  string
	kind error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }

// decodeError turns an error response back into the catalog error it came from.
func decodeError(resp *http.Response) error {
	var eb errorBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	msg := eb.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &remoteError{msg: msg, kind: catalog.ErrMovieNotFound}
	case http.StatusUnprocessableEntity:
		return &catalog.ValidationError{Fields: eb.Fields}
	case http.StatusConflict:
		if msg == catalog.ErrConcurrentModification.Error() {
			return &remoteError{msg: msg, kind: catalog.ErrConcurrentModification}
		}
		return &remoteError{msg: msg, kind: catalog.ErrMovieAlreadyExists}
	default:
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, msg)
	}
}
