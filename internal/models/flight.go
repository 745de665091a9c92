package models

import "time"

type Airline struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Segment is one leg of an itinerary. Times carry the airport's local offset.
type Segment struct {
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	Departure       time.Time `json:"departure"`
	Arrival         time.Time `json:"arrival"`
	DurationMinutes int       `json:"duration_minutes"`
	Aircraft        *string   `json:"aircraft,omitempty"`
}

type PointsOption struct {
	Program        string  `json:"program"`
	PointsRequired int     `json:"points_required"`
	CashComponent  float64 `json:"cash_component,omitempty"`
}

type Pricing struct {
	Cash          float64        `json:"cash"`
	Currency      string         `json:"currency"`
	Taxes         float64        `json:"taxes"`
	Fees          float64        `json:"fees"`
	Total         float64        `json:"total"`
	Formatted     string         `json:"formatted"`
	PointsOptions []PointsOption `json:"points_options,omitempty"`
}

type Availability struct {
	SeatsRemaining int      `json:"seats_remaining"`
	BookingClass   string   `json:"booking_class"`
	FareBasis      string   `json:"fare_basis"`
	Restrictions   []string `json:"restrictions,omitempty"`
}

// FlightResult is the normalized shape every source adapter produces.
type FlightResult struct {
	ID              string       `json:"id"`
	Source          string       `json:"source"`
	Airline         Airline      `json:"airline"`
	FlightNumber    string       `json:"flight_number"`
	Segments        []Segment    `json:"segments"`
	DurationMinutes int          `json:"duration_minutes"`
	Layovers        int          `json:"layovers"`
	Pricing         Pricing      `json:"pricing"`
	Availability    Availability `json:"availability"`
	CabinClass      string       `json:"cabin_class"`
	// Score is a derived desirability in [0,100], higher is better.
	Score float64 `json:"score"`
}

// Departure returns the departure time of the first segment.
func (f *FlightResult) Departure() time.Time {
	if len(f.Segments) == 0 {
		return time.Time{}
	}
	return f.Segments[0].Departure
}

// Arrival returns the arrival time of the last segment.
func (f *FlightResult) Arrival() time.Time {
	if len(f.Segments) == 0 {
		return time.Time{}
	}
	return f.Segments[len(f.Segments)-1].Arrival
}
