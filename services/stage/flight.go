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
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tripplanner/config"
	"tripplanner/models"
	"tripplanner/utils"
)

const defaultAmadeusBaseURL = "https://test.api.amadeus.com/v1"

var airlineCodes = []string{"AA", "UA", "DL", "BA", "LH", "AF"}

// FlightProvider searches round-trip flight options through the
// Amadeus API, falling back to synthetic options when the live search
// is unavailable.
type FlightProvider struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Client       *http.Client
}

// NewFlightProvider builds a provider from the loaded configuration.
func NewFlightProvider() *FlightProvider {
	return &FlightProvider{
		ClientID:     config.AppConfig.AmadeusClientID,
		ClientSecret: config.AppConfig.AmadeusClientSecret,
		BaseURL:      defaultAmadeusBaseURL,
		Client:       newHTTPClient(),
	}
}

func (p *FlightProvider) Name() string { return models.StageFlights }

func (p *FlightProvider) Run(ctx context.Context, in Input) (map[string]any, error) {
	var missing []string
	if in.Spec.Destination == "" {
		missing = append(missing, "destination")
	}
	if in.Spec.StartDate == "" {
		missing = append(missing, "start_date")
	}
	if in.Spec.EndDate == "" {
		missing = append(missing, "end_date")
	}
	if len(missing) > 0 {
		return nil, NewContractError(p.Name(), missing...)
	}

	result, err := p.searchLive(ctx, in.Spec)
	if err != nil {
		utils.GetLogger().Warn("flight search degraded to synthetic data",
			zap.String("destination", in.Spec.Destination), zap.Error(err))
		return p.syntheticFlights(in.Spec), nil
	}
	return result, nil
}

type amadeusOffer struct {
	ID    string `json:"id"`
	Price struct {
		Total string `json:"total"`
	} `json:"price"`
	ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
	Itineraries            []struct {
		Duration string `json:"duration"`
		Segments []struct {
			Departure struct {
				IataCode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				IataCode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"arrival"`
		} `json:"segments"`
	} `json:"itineraries"`
}

func (p *FlightProvider) searchLive(ctx context.Context, spec models.TripSpec) (map[string]any, error) {
	if p.ClientID == "" || p.ClientSecret == "" {
		return nil, errors.New("amadeus credentials not configured")
	}

	token, err := p.fetchToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("amadeus token: %w", err)
	}

	origin := spec.Origin
	if origin == "" {
		origin = "NYC"
	}

	outbound, err := p.searchOffers(ctx, token, origin, spec.Destination, spec.StartDate)
	if err != nil {
		return nil, fmt.Errorf("outbound search: %w", err)
	}
	returning, err := p.searchOffers(ctx, token, spec.Destination, origin, spec.EndDate)
	if err != nil {
		return nil, fmt.Errorf("return search: %w", err)
	}

	options := combineOffers(outbound, returning, spec.Budget, spec.Travelers)
	if len(options) == 0 {
		return nil, errors.New("no bookable flight offers within budget")
	}

	return map[string]any{
		"search_criteria": flightCriteria(origin, spec),
		"flight_options":  options,
		"total_options":   len(options),
	}, nil
}

func (p *FlightProvider) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.ClientID)
	form.Set("client_secret", p.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL()+"/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", errors.New("empty access token")
	}
	return body.AccessToken, nil
}

func (p *FlightProvider) searchOffers(ctx context.Context, token, origin, destination, date string) ([]amadeusOffer, error) {
	q := url.Values{}
	q.Set("originLocationCode", origin)
	q.Set("destinationLocationCode", destination)
	q.Set("departureDate", date)
	q.Set("adults", "1")
	q.Set("max", "10")
	q.Set("currencyCode", "USD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL()+"/shopping/flight-offers?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Data []amadeusOffer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// combineOffers pairs outbound and return offers into complete options,
// keeps those within budget and returns the ten cheapest.
func combineOffers(outbound, returning []amadeusOffer, budget float64, travelers int) []map[string]any {
	if travelers < 1 {
		travelers = 1
	}
	if len(outbound) > 5 {
		outbound = outbound[:5]
	}
	if len(returning) > 5 {
		returning = returning[:5]
	}

	var options []map[string]any
	for _, out := range outbound {
		for _, ret := range returning {
			total := (offerPrice(out) + offerPrice(ret)) * float64(travelers)
			if total > budget {
				continue
			}
			options = append(options, map[string]any{
				"id":               out.ID + "_" + ret.ID,
				"outbound":         formatOffer(out),
				"return":           formatOffer(ret),
				"total_price":      total,
				"price_per_person": total / float64(travelers),
				"airlines":         offerAirlines(out, ret),
			})
		}
	}

	sort.Slice(options, func(i, j int) bool {
		return number(options[i]["total_price"]) < number(options[j]["total_price"])
	})
	if len(options) > 10 {
		options = options[:10]
	}
	return options
}

func offerPrice(o amadeusOffer) float64 {
	f, _ := strconv.ParseFloat(o.Price.Total, 64)
	return f
}

func offerAirlines(offers ...amadeusOffer) []string {
	seen := make(map[string]bool)
	var airlines []string
	for _, o := range offers {
		if len(o.ValidatingAirlineCodes) == 0 {
			continue
		}
		code := o.ValidatingAirlineCodes[0]
		if !seen[code] {
			seen[code] = true
			airlines = append(airlines, code)
		}
	}
	return airlines
}

func formatOffer(o amadeusOffer) map[string]any {
	formatted := map[string]any{
		"id":    o.ID,
		"price": offerPrice(o),
	}
	if len(o.ValidatingAirlineCodes) > 0 {
		formatted["airline"] = o.ValidatingAirlineCodes[0]
	}
	if len(o.Itineraries) > 0 {
		it := o.Itineraries[0]
		formatted["duration"] = it.Duration
		formatted["stops"] = len(it.Segments) - 1
		if len(it.Segments) > 0 {
			first := it.Segments[0]
			last := it.Segments[len(it.Segments)-1]
			formatted["departure"] = map[string]any{
				"airport": first.Departure.IataCode,
				"time":    first.Departure.At,
			}
			formatted["arrival"] = map[string]any{
				"airport": last.Arrival.IataCode,
				"time":    last.Arrival.At,
			}
		}
	}
	return formatted
}

// syntheticFlights generates plausible round-trip options matching the
// live payload shape. Values vary between runs; the shape does not.
func (p *FlightProvider) syntheticFlights(spec models.TripSpec) map[string]any {
	travelers := spec.Travelers
	if travelers < 1 {
		travelers = 1
	}
	origin := spec.Origin
	if origin == "" {
		origin = "JFK"
	}

	var options []map[string]any
	for i := 0; i < 5; i++ {
		outboundPrice := 200 + rand.Float64()*200
		returnPrice := 200 + rand.Float64()*200
		total := (outboundPrice + returnPrice) * float64(travelers)
		if total > spec.Budget {
			continue
		}
		options = append(options, map[string]any{
			"id": fmt.Sprintf("synthetic_flight_%d", i),
			"outbound": syntheticLeg(fmt.Sprintf("outbound_%d", i),
				origin, spec.Destination, spec.StartDate+"T08:00:00", spec.StartDate+"T10:30:00", outboundPrice),
			"return": syntheticLeg(fmt.Sprintf("return_%d", i),
				spec.Destination, origin, spec.EndDate+"T18:00:00", spec.EndDate+"T20:30:00", returnPrice),
			"total_price":      total,
			"price_per_person": total / float64(travelers),
			"airlines":         []string{randomAirline(), randomAirline()},
		})
	}

	return map[string]any{
		"search_criteria": flightCriteria(origin, spec),
		"flight_options":  options,
		"total_options":   len(options),
	}
}

func syntheticLeg(id, from, to, departAt, arriveAt string, price float64) map[string]any {
	return map[string]any{
		"id":      id,
		"airline": randomAirline(),
		"departure": map[string]any{
			"airport": from,
			"time":    departAt,
		},
		"arrival": map[string]any{
			"airport": to,
			"time":    arriveAt,
		},
		"duration": "PT2H30M",
		"stops":    rand.Intn(2),
		"price":    price,
	}
}

func randomAirline() string {
	return airlineCodes[rand.Intn(len(airlineCodes))]
}

func flightCriteria(origin string, spec models.TripSpec) map[string]any {
	return map[string]any{
		"origin":      origin,
		"destination": spec.Destination,
		"start_date":  spec.StartDate,
		"end_date":    spec.EndDate,
		"budget":      spec.Budget,
		"travelers":   spec.Travelers,
	}
}

func (p *FlightProvider) baseURL() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return defaultAmadeusBaseURL
}

func (p *FlightProvider) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}
