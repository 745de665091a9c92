package adapters

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"time"

	"github.com/abndnt/paris-night-sub001/internal/adapters/data"
	"github.com/abndnt/paris-night-sub001/internal/models"
	"github.com/abndnt/paris-night-sub001/internal/timezone"
	"github.com/abndnt/paris-night-sub001/pkg/currency"
)

type pacificaResponse struct {
	Flights []pacificaFlight `json:"flights"`
}

// Pacifica's API is flat and prices everything in integer cents.
type pacificaFlight struct {
	ID              string           `json:"id"`
	AirlineCode     string           `json:"airline_code"`
	AirlineName     string           `json:"airline_name"`
	Number          string           `json:"number"`
	Origin          string           `json:"origin"`
	Destination     string           `json:"destination"`
	DepartAt        string           `json:"depart_at"`
	ArriveAt        string           `json:"arrive_at"`
	DurationMinutes int              `json:"duration_minutes"`
	Stops           int              `json:"stops"`
	PriceCents      int64            `json:"price_cents"`
	TaxCents        int64            `json:"tax_cents"`
	FeeCents        int64            `json:"fee_cents"`
	Currency        string           `json:"currency"`
	Seats           int              `json:"seats"`
	ClassOfService  string           `json:"class_of_service"`
	FareBasis       string           `json:"fare_basis"`
	Aircraft        string           `json:"aircraft"`
	Cabin           string           `json:"cabin"`
	Restrictions    []string         `json:"restrictions,omitempty"`
	Redeem          []pacificaRedeem `json:"redeem,omitempty"`
}

type pacificaRedeem struct {
	Program   string `json:"program"`
	Points    int    `json:"points"`
	CashCents int64  `json:"cash_cents"`
}

type PacificaAdapter struct {
	flights []pacificaFlight
}

func NewPacificaAdapter() (*PacificaAdapter, error) {
	var resp pacificaResponse
	if err := json.Unmarshal(data.PacificaData, &resp); err != nil {
		return nil, err
	}
	return &PacificaAdapter{flights: resp.Flights}, nil
}

func (a *PacificaAdapter) Name() string {
	return "pacifica"
}

func (a *PacificaAdapter) Search(ctx context.Context, req models.SearchRequest) ([]models.FlightResult, error) {
	delay := time.Duration(20+rand.Intn(40)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var results []models.FlightResult
	for _, f := range a.flights {
		if !strings.EqualFold(f.Origin, req.Criteria.Origin) ||
			!strings.EqualFold(f.Destination, req.Criteria.Destination) {
			continue
		}
		if !strings.EqualFold(f.Cabin, req.Criteria.CabinClass) {
			continue
		}

		depTime, err := timezone.ParseTime(f.DepartAt)
		if err != nil {
			continue
		}
		if depTime.Format("2006-01-02") != req.Criteria.DepartureDate {
			continue
		}

		flight, err := a.normalize(f)
		if err != nil {
			continue
		}
		results = append(results, flight)
	}

	return results, nil
}

func (a *PacificaAdapter) normalize(f pacificaFlight) (models.FlightResult, error) {
	dep, err := timezone.ParseTime(f.DepartAt)
	if err != nil {
		return models.FlightResult{}, err
	}
	arr, err := timezone.ParseTime(f.ArriveAt)
	if err != nil {
		return models.FlightResult{}, err
	}

	var aircraft *string
	if f.Aircraft != "" {
		ac := f.Aircraft
		aircraft = &ac
	}

	cash := float64(f.PriceCents) / 100
	taxes := float64(f.TaxCents) / 100
	fees := float64(f.FeeCents) / 100

	points := make([]models.PointsOption, 0, len(f.Redeem))
	for _, r := range f.Redeem {
		points = append(points, models.PointsOption{
			Program:        r.Program,
			PointsRequired: r.Points,
			CashComponent:  float64(r.CashCents) / 100,
		})
	}

	return models.FlightResult{
		ID:     f.ID,
		Source: a.Name(),
		Airline: models.Airline{
			Code: f.AirlineCode,
			Name: f.AirlineName,
		},
		FlightNumber: f.Number,
		Segments: []models.Segment{{
			Origin:          f.Origin,
			Destination:     f.Destination,
			Departure:       timezone.ConvertToTimezone(dep, f.Origin),
			Arrival:         timezone.ConvertToTimezone(arr, f.Destination),
			DurationMinutes: f.DurationMinutes,
			Aircraft:        aircraft,
		}},
		DurationMinutes: f.DurationMinutes,
		Layovers:        f.Stops,
		Pricing: models.Pricing{
			Cash:          cash,
			Currency:      f.Currency,
			Taxes:         taxes,
			Fees:          fees,
			Total:         cash + taxes + fees,
			Formatted:     currency.Format(cash+taxes+fees, f.Currency),
			PointsOptions: points,
		},
		Availability: models.Availability{
			SeatsRemaining: f.Seats,
			BookingClass:   f.ClassOfService,
			FareBasis:      f.FareBasis,
			Restrictions:   f.Restrictions,
		},
		CabinClass: f.Cabin,
	}, nil
}
