package models

import (
	"time"

	"github.com/google/uuid"
)

type Passengers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

func (p Passengers) Total() int {
	return p.Adults + p.Children + p.Infants
}

// SearchCriteria is immutable once a search has started.
type SearchCriteria struct {
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DepartureDate string     `json:"departure_date"`
	ReturnDate    *string    `json:"return_date,omitempty"`
	Passengers    Passengers `json:"passengers"`
	CabinClass    string     `json:"cabin_class"`
	FlexibleDates bool       `json:"flexible_dates,omitempty"`
}

func (c *SearchCriteria) Validate() error {
	if c.Origin == "" {
		return ErrMissingOrigin
	}
	if c.Destination == "" {
		return ErrMissingDestination
	}
	if c.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	if _, err := time.Parse("2006-01-02", c.DepartureDate); err != nil {
		return ErrInvalidDepartureDate
	}
	if c.ReturnDate != nil && *c.ReturnDate != "" {
		if _, err := time.Parse("2006-01-02", *c.ReturnDate); err != nil {
			return ErrInvalidReturnDate
		}
	}
	if c.Passengers.Total() <= 0 {
		c.Passengers.Adults = 1
	}
	if c.CabinClass == "" {
		c.CabinClass = "economy"
	}
	return nil
}

// SearchRequest wraps criteria with identity. One request may fan out to many sources.
type SearchRequest struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Criteria  SearchCriteria `json:"criteria"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewSearchRequest(criteria SearchCriteria, userID string) SearchRequest {
	return SearchRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		Criteria:  criteria,
		CreatedAt: time.Now().UTC(),
	}
}

// ResultFilters narrows a completed search's stored results. Never re-queries sources.
type ResultFilters struct {
	PriceMax         *float64 `json:"price_max,omitempty"`
	MaxStops         *int     `json:"max_stops,omitempty"`
	Airlines         []string `json:"airlines,omitempty"`
	CabinClass       *string  `json:"cabin_class,omitempty"`
	DepartureTimeMin *string  `json:"departure_time_min,omitempty"`
	DepartureTimeMax *string  `json:"departure_time_max,omitempty"`
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin        ValidationError = "origin is required"
	ErrMissingDestination   ValidationError = "destination is required"
	ErrMissingDepartureDate ValidationError = "departure_date is required"
	ErrInvalidDepartureDate ValidationError = "departure_date must be YYYY-MM-DD"
	ErrInvalidReturnDate    ValidationError = "return_date must be YYYY-MM-DD"
)
