package stage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sort"

	"go.uber.org/zap"

	"tripplanner/config"
	"tripplanner/models"
	"tripplanner/utils"
)

const defaultPlacesBaseURL = "https://maps.googleapis.com/maps/api/place"

// Nightly base rates per Google price level (1 budget .. 4 very expensive).
var nightlyRates = map[int]float64{1: 50, 2: 100, 3: 200, 4: 400}

// HotelProvider searches lodging through the Google Places API,
// falling back to synthetic hotels when the live search is unavailable.
type HotelProvider struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewHotelProvider builds a provider from the loaded configuration.
func NewHotelProvider() *HotelProvider {
	return &HotelProvider{
		APIKey:  config.AppConfig.GoogleAPIKey,
		BaseURL: defaultPlacesBaseURL,
		Client:  newHTTPClient(),
	}
}

func (p *HotelProvider) Name() string { return models.StageHotels }

func (p *HotelProvider) Run(ctx context.Context, in Input) (map[string]any, error) {
	var missing []string
	if in.Spec.Destination == "" {
		missing = append(missing, "destination")
	}
	if in.Spec.StartDate == "" {
		missing = append(missing, "check_in")
	}
	if in.Spec.EndDate == "" {
		missing = append(missing, "check_out")
	}
	if len(missing) > 0 {
		return nil, NewContractError(p.Name(), missing...)
	}

	result, err := p.searchLive(ctx, in.Spec)
	if err != nil {
		utils.GetLogger().Warn("hotel search degraded to synthetic data",
			zap.String("destination", in.Spec.Destination), zap.Error(err))
		return p.syntheticHotels(in.Spec), nil
	}
	return result, nil
}

// placesSearchResponse is the slice of the Places text-search payload
// this provider reads.
type placesSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID          string  `json:"place_id"`
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
		PriceLevel       int     `json:"price_level"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (p *HotelProvider) searchLive(ctx context.Context, spec models.TripSpec) (map[string]any, error) {
	if p.APIKey == "" {
		return nil, errors.New("google api key not configured")
	}

	q := url.Values{}
	q.Set("query", "hotels in "+spec.Destination)
	q.Set("type", "lodging")
	q.Set("key", p.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL()+"/textsearch/json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body placesSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("places status %s", body.Status)
	}

	var hotels []map[string]any
	for _, place := range body.Results {
		priceLevel := place.PriceLevel
		if priceLevel == 0 {
			priceLevel = 2
		}
		nightly := nightlyRate(priceLevel)
		// Keep hotels whose nightly rate fits roughly a tenth of the budget.
		if nightly > spec.Budget*0.1 {
			continue
		}
		hotels = append(hotels, map[string]any{
			"id":              place.PlaceID,
			"name":            place.Name,
			"address":         place.FormattedAddress,
			"rating":          place.Rating,
			"price_level":     priceLevel,
			"price_per_night": nightly,
			"estimated_price": nightly * float64(spec.Duration) * float64(maxTravelers(spec)),
			"location": map[string]any{
				"lat": place.Geometry.Location.Lat,
				"lng": place.Geometry.Location.Lng,
			},
			"score": hotelScore(place.Rating, priceLevel, spec.Preferences.AccommodationStyle),
		})
	}
	if len(hotels) == 0 {
		return nil, errors.New("no lodging results within budget")
	}

	sortHotelsByScore(hotels)
	if len(hotels) > 10 {
		hotels = hotels[:10]
	}

	return map[string]any{
		"search_criteria": hotelCriteria(spec),
		"hotel_options":   hotels,
		"total_options":   len(hotels),
	}, nil
}

// hotelScore ranks a hotel by rating and by how well its price level
// matches the requested accommodation style.
func hotelScore(rating float64, priceLevel int, style string) float64 {
	score := rating * 10
	switch {
	case style == "budget" && priceLevel <= 2:
		score += 20
	case style == "luxury" && priceLevel >= 3:
		score += 20
	case style == "moderate" && priceLevel == 2:
		score += 20
	}
	return score
}

// syntheticHotels generates plausible hotels matching the live payload
// shape, kept within forty percent of the trip budget.
func (p *HotelProvider) syntheticHotels(spec models.TripSpec) map[string]any {
	destination := spec.Destination
	travelers := maxTravelers(spec)

	names := []string{
		"Grand " + destination + " Hotel",
		destination + " Plaza Hotel",
		"Comfort Inn " + destination,
		destination + " Boutique Hotel",
		"Travelodge " + destination,
		destination + " Resort & Spa",
		"Best Western " + destination,
		destination + " City Hotel",
	}

	var hotels []map[string]any
	for i, name := range names {
		priceLevel := 1 + rand.Intn(4)
		nightly := nightlyRate(priceLevel)
		total := nightly * float64(spec.Duration) * float64(travelers)
		if total > spec.Budget*0.4 {
			continue
		}
		hotels = append(hotels, map[string]any{
			"id":              fmt.Sprintf("hotel_%d", i),
			"name":            name,
			"address":         fmt.Sprintf("%d Main St, %s", 100+rand.Intn(900), destination),
			"rating":          roundTo(3.5+rand.Float64()*1.5, 1),
			"price_level":     priceLevel,
			"price_per_night": nightly,
			"estimated_price": total,
			"amenities":       randomAmenities(),
			"location": map[string]any{
				"lat": 40 + rand.Float64()*5,
				"lng": -75 + rand.Float64()*5,
			},
			"score": 70 + rand.Float64()*25,
		})
	}

	sortHotelsByScore(hotels)

	return map[string]any{
		"search_criteria": hotelCriteria(spec),
		"hotel_options":   hotels,
		"total_options":   len(hotels),
	}
}

var amenityPool = []string{"WiFi", "Pool", "Gym", "Restaurant", "Spa", "Parking"}

func randomAmenities() []string {
	count := 2 + rand.Intn(3)
	picks := rand.Perm(len(amenityPool))[:count]
	sort.Ints(picks)
	amenities := make([]string, 0, count)
	for _, i := range picks {
		amenities = append(amenities, amenityPool[i])
	}
	return amenities
}

func sortHotelsByScore(hotels []map[string]any) {
	sort.Slice(hotels, func(i, j int) bool {
		return number(hotels[i]["score"]) > number(hotels[j]["score"])
	})
}

func hotelCriteria(spec models.TripSpec) map[string]any {
	return map[string]any{
		"destination": spec.Destination,
		"check_in":    spec.StartDate,
		"check_out":   spec.EndDate,
		"duration":    spec.Duration,
		"budget":      spec.Budget,
		"travelers":   spec.Travelers,
	}
}

func nightlyRate(priceLevel int) float64 {
	if rate, ok := nightlyRates[priceLevel]; ok {
		return rate
	}
	return 100
}

func maxTravelers(spec models.TripSpec) int {
	if spec.Travelers < 1 {
		return 1
	}
	return spec.Travelers
}

func roundTo(v float64, decimals int) float64 {
	factor := 1.0
	for i := 0; i < decimals; i++ {
		factor *= 10
	}
	return float64(int(v*factor+0.5)) / factor
}

func (p *HotelProvider) baseURL() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return defaultPlacesBaseURL
}

func (p *HotelProvider) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}
