// internal/catalog/domain.go
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMovieNotFound          = errors.New("movie not found")
	ErrMovieAlreadyExists     = errors.New("movie already exists")
	ErrInvalidMovie           = errors.New("invalid movie")
	ErrConcurrentModification = errors.New("concurrent modification: transaction aborted")
)

const (
	earliestReleaseYear = 1888
	maxRating           = 10.0
)

// Movie is a catalog record. ID is assigned by the store on insert.
type Movie struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Genre       string    `json:"genre,omitempty"`
	Director    string    `json:"director,omitempty"`
	ReleaseYear int       `json:"release_year"`
	Rating      *float64  `json:"rating,omitempty"`
}

// ValidationError lists the fields of a candidate movie that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid movie: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidMovie }

// Validate checks required fields and value ranges.
func (m Movie) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(m.Title) == "" {
		fields["title"] = "must be provided"
	}
	maxYear := time.Now().Year() + 10
	switch {
	case m.ReleaseYear == 0:
		fields["release_year"] = "must be provided"
	case m.ReleaseYear < earliestReleaseYear || m.ReleaseYear > maxYear:
		fields["release_year"] = fmt.Sprintf("must be between %d and %d", earliestReleaseYear, maxYear)
	}
	if m.Rating != nil && (*m.Rating < 0 || *m.Rating > maxRating) {
		fields["rating"] = "must be between 0 and 10"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// SameIdentity reports whether two movies share the (title, release year) pair.
func (m Movie) SameIdentity(other Movie) bool {
	return m.Title == other.Title && m.ReleaseYear == other.ReleaseYear
}

func notFoundError(id uuid.UUID) error {
	return fmt.Errorf("%w with id: %s", ErrMovieNotFound, id)
}

func alreadyExistsError(title string, year int) error {
	return fmt.Errorf("%w with title: %s and release year: %d", ErrMovieAlreadyExists, title, year)
}
