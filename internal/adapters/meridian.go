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

type meridianResponse struct {
	Itineraries []meridianItinerary `json:"itineraries"`
}

type meridianItinerary struct {
	ItineraryID  string          `json:"itinerary_id"`
	Carrier      meridianCarrier `json:"carrier"`
	FlightNo     string          `json:"flight_no"`
	Legs         []meridianLeg   `json:"legs"`
	Fare         meridianFare    `json:"fare"`
	SeatsLeft    int             `json:"seats_left"`
	BookingClass string          `json:"booking_class"`
	FareBasis    string          `json:"fare_basis"`
	Cabin        string          `json:"cabin"`
}

type meridianCarrier struct {
	IATA string `json:"iata"`
	Name string `json:"name"`
}

type meridianLeg struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Dep         string `json:"dep"`
	Arr         string `json:"arr"`
	DurationMin int    `json:"duration_min"`
	Equipment   string `json:"equipment"`
}

type meridianFare struct {
	Base     float64 `json:"base"`
	Taxes    float64 `json:"taxes"`
	Fees     float64 `json:"fees"`
	Currency string  `json:"currency"`
}

// MeridianAdapter simulates a GDS-style source returning multi-leg
// itineraries with a nested fare breakdown.
type MeridianAdapter struct {
	itineraries []meridianItinerary
}

func NewMeridianAdapter() (*MeridianAdapter, error) {
	var resp meridianResponse
	if err := json.Unmarshal(data.MeridianData, &resp); err != nil {
		return nil, err
	}
	return &MeridianAdapter{itineraries: resp.Itineraries}, nil
}

func (a *MeridianAdapter) Name() string {
	return "meridian"
}

func (a *MeridianAdapter) Search(ctx context.Context, req models.SearchRequest) ([]models.FlightResult, error) {
	delay := time.Duration(20+rand.Intn(40)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var results []models.FlightResult
	for _, it := range a.itineraries {
		if len(it.Legs) == 0 {
			continue
		}
		first := it.Legs[0]
		last := it.Legs[len(it.Legs)-1]

		if !strings.EqualFold(first.From, req.Criteria.Origin) ||
			!strings.EqualFold(last.To, req.Criteria.Destination) {
			continue
		}
		if !strings.EqualFold(it.Cabin, req.Criteria.CabinClass) {
			continue
		}

		depTime, err := timezone.ParseTime(first.Dep)
		if err != nil {
			continue
		}
		if depTime.Format("2006-01-02") != req.Criteria.DepartureDate {
			continue
		}

		flight, err := a.normalize(it)
		if err != nil {
			continue
		}
		results = append(results, flight)
	}

	return results, nil
}

func (a *MeridianAdapter) normalize(it meridianItinerary) (models.FlightResult, error) {
	segments := make([]models.Segment, 0, len(it.Legs))
	for _, leg := range it.Legs {
		dep, err := timezone.ParseTime(leg.Dep)
		if err != nil {
			return models.FlightResult{}, err
		}
		arr, err := timezone.ParseTime(leg.Arr)
		if err != nil {
			return models.FlightResult{}, err
		}

		var aircraft *string
		if leg.Equipment != "" {
			e := leg.Equipment
			aircraft = &e
		}

		segments = append(segments, models.Segment{
			Origin:          leg.From,
			Destination:     leg.To,
			Departure:       timezone.ConvertToTimezone(dep, leg.From),
			Arrival:         timezone.ConvertToTimezone(arr, leg.To),
			DurationMinutes: leg.DurationMin,
			Aircraft:        aircraft,
		})
	}

	// Total duration includes ground time between legs.
	total := int(segments[len(segments)-1].Arrival.Sub(segments[0].Departure).Minutes())

	return models.FlightResult{
		ID:     it.ItineraryID,
		Source: a.Name(),
		Airline: models.Airline{
			Code: it.Carrier.IATA,
			Name: it.Carrier.Name,
		},
		FlightNumber:    it.FlightNo,
		Segments:        segments,
		DurationMinutes: total,
		Layovers:        len(segments) - 1,
		Pricing: models.Pricing{
			Cash:      it.Fare.Base,
			Currency:  it.Fare.Currency,
			Taxes:     it.Fare.Taxes,
			Fees:      it.Fare.Fees,
			Total:     it.Fare.Base + it.Fare.Taxes + it.Fare.Fees,
			Formatted: currency.Format(it.Fare.Base+it.Fare.Taxes+it.Fare.Fees, it.Fare.Currency),
		},
		Availability: models.Availability{
			SeatsRemaining: it.SeatsLeft,
			BookingClass:   it.BookingClass,
			FareBasis:      it.FareBasis,
		},
		CabinClass: it.Cabin,
	}, nil
}
