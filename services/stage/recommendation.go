package stage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"tripplanner/config"
	"tripplanner/models"
	"tripplanner/utils"
)

// RecommendationProvider generates per-activity recommendations. When
// a Places API key is configured it enriches the suggestions with live
// attraction names; otherwise, or on any upstream failure, it uses the
// built-in templates.
type RecommendationProvider struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewRecommendationProvider builds a provider from the loaded configuration.
func NewRecommendationProvider() *RecommendationProvider {
	return &RecommendationProvider{
		APIKey:  config.AppConfig.GoogleAPIKey,
		BaseURL: defaultPlacesBaseURL,
		Client:  newHTTPClient(),
	}
}

func (p *RecommendationProvider) Name() string { return models.StageRecommendations }

func (p *RecommendationProvider) Run(ctx context.Context, in Input) (map[string]any, error) {
	if in.Spec.Destination == "" {
		return nil, NewContractError(p.Name(), "destination")
	}

	destination := in.Spec.Destination
	prefs := in.Spec.Preferences
	budget := in.Spec.Budget

	liveNames, err := p.fetchAttractions(ctx, destination)
	if err != nil {
		utils.GetLogger().Warn("attraction lookup degraded to template recommendations",
			zap.String("destination", destination), zap.Error(err))
	}

	byActivity := make(map[string]any, len(prefs.Activities))
	total := 0
	for _, activity := range prefs.Activities {
		recs := categoryRecommendations(destination, activity, prefs.DiningPreference, liveNames)
		recs = filterByBudget(recs, budget)
		if len(recs) > 5 {
			recs = recs[:5]
		}
		byActivity[activity] = recs
		total += len(recs)
	}

	return map[string]any{
		"destination":              destination,
		"activity_recommendations": byActivity,
		"general_recommendations":  generalRecommendations(destination),
		"seasonal_recommendations": seasonalRecommendations(destination),
		"budget_considerations":    budgetConsiderations(budget),
		"total_recommendations":    total,
	}, nil
}

// fetchAttractions pulls top attraction names for the destination to
// seed culture and nature suggestions.
func (p *RecommendationProvider) fetchAttractions(ctx context.Context, destination string) ([]string, error) {
	if p.APIKey == "" {
		return nil, errors.New("google api key not configured")
	}

	q := url.Values{}
	q.Set("query", "top attractions in "+destination)
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

	var body struct {
		Status  string `json:"status"`
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("places status %s", body.Status)
	}

	names := make([]string, 0, len(body.Results))
	for _, r := range body.Results {
		names = append(names, r.Name)
	}
	return names, nil
}

var activityTemplates = map[string][]string{
	"culture": {
		"Visit the %s Museum of Art",
		"Explore the %s Historical District",
		"Tour the %s Cathedral",
		"Visit the %s Cultural Center",
		"Explore the %s Archaeological Museum",
		"Attend a performance at %s Opera House",
		"Visit the %s National Gallery",
		"Explore the %s Palace",
	},
	"adventure": {
		"Go hiking in %s National Park",
		"Try rock climbing at %s Cliffs",
		"Go kayaking on %s River",
		"Take a zip-lining tour in %s",
		"Go mountain biking in %s",
		"Try paragliding over %s",
		"Go scuba diving near %s",
		"Take a white-water rafting trip near %s",
	},
	"relaxation": {
		"Visit %s Botanical Gardens",
		"Relax at %s Spa Resort",
		"Walk along %s Beach",
		"Meditate at %s Zen Garden",
		"Take a yoga class in %s",
		"Visit %s Hot Springs",
		"Enjoy a sunset cruise from %s",
		"Take a peaceful walk in %s Park",
	},
	"food": {
		"Take a food tour of %s",
		"Visit %s Food Market",
		"Try traditional %s cuisine",
		"Take a cooking class in %s",
		"Go wine tasting in %s",
		"Visit %s Brewery",
		"Try street food in %s",
		"Have dinner at a rooftop restaurant in %s",
	},
	"shopping": {
		"Visit %s Central Market",
		"Explore %s Shopping District",
		"Shop at %s Craft Market",
		"Visit %s Mall",
		"Explore %s Boutique District",
		"Shop for souvenirs in %s",
		"Visit %s Artisan Market",
		"Explore %s Fashion District",
	},
	"nature": {
		"Visit %s National Park",
		"Explore %s Wildlife Reserve",
		"Take a nature walk in %s",
		"Visit %s Botanical Gardens",
		"Go bird watching in %s",
		"Take a scenic drive around %s",
		"Visit %s Nature Center",
		"Explore %s Forest",
	},
}

var activityCostRanges = map[string][2]float64{
	"culture":    {10, 30},
	"adventure":  {50, 150},
	"relaxation": {20, 100},
	"food":       {30, 80},
	"shopping":   {20, 100},
	"nature":     {10, 40},
}

var activityDescriptions = map[string]string{
	"culture":    "Immerse yourself in the rich cultural heritage of %s",
	"adventure":  "Experience the thrill of adventure in %s",
	"relaxation": "Find peace and tranquility in %s",
	"food":       "Experience the culinary delights of %s",
	"shopping":   "Discover unique shopping experiences in %s",
	"nature":     "Connect with nature in %s",
}

var activityTips = map[string]string{
	"culture":    "Best visited in the morning to avoid crowds",
	"adventure":  "Book in advance and check weather conditions",
	"relaxation": "Best enjoyed during quieter hours",
	"food":       "Reservations recommended for popular restaurants",
	"shopping":   "Bargaining is common in local markets",
	"nature":     "Best visited early morning or late afternoon",
}

func categoryRecommendations(destination, activity, dining string, liveNames []string) []map[string]any {
	templates, ok := activityTemplates[activity]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		names = append(names, fmt.Sprintf(tmpl, destination))
	}
	// Live attraction names slot into the sightseeing-flavored categories.
	if activity == "culture" || activity == "nature" {
		for _, name := range liveNames {
			names = append(names, "Visit "+name)
		}
	}

	costRange := activityCostRanges[activity]
	recs := make([]map[string]any, 0, len(names))
	for _, name := range names {
		cost := costRange[0] + rand.Float64()*(costRange[1]-costRange[0])
		if activity == "food" {
			switch dining {
			case "fine_dining":
				cost *= 1.5
			case "street_food":
				cost *= 0.7
			}
		}
		recs = append(recs, map[string]any{
			"name":           name,
			"type":           activity,
			"estimated_cost": cost,
			"duration":       fmt.Sprintf("%dh", 1+rand.Intn(3)),
			"rating":         roundTo(4+rand.Float64(), 1),
			"description":    fmt.Sprintf(activityDescriptions[activity], destination),
			"tips":           activityTips[activity],
		})
	}
	return recs
}

// filterByBudget keeps activities costing at most a tenth of the trip
// budget each.
func filterByBudget(recs []map[string]any, budget float64) []map[string]any {
	filtered := recs[:0:0]
	for _, rec := range recs {
		if number(rec["estimated_cost"]) <= budget*0.1 {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func generalRecommendations(destination string) []map[string]any {
	return []map[string]any{
		{
			"name":        "Best time to visit " + destination,
			"description": "Spring and fall offer the best weather and fewer crowds",
			"type":        "general",
		},
		{
			"name":        "Getting around " + destination,
			"description": "Public transportation is efficient and affordable",
			"type":        "general",
		},
		{
			"name":        "Local customs in " + destination,
			"description": "Learn a few basic phrases in the local language",
			"type":        "general",
		},
	}
}

func seasonalRecommendations(destination string) []map[string]any {
	return []map[string]any{
		{
			"name":        "Seasonal activities",
			"description": "Check local events and festivals during your visit to " + destination,
			"type":        "seasonal",
		},
	}
}

func budgetConsiderations(budget float64) []map[string]any {
	return []map[string]any{
		{
			"name":        "Budget tips",
			"description": fmt.Sprintf("With a budget of $%.0f, consider mixing free and paid activities", budget),
			"type":        "budget",
		},
	}
}

func (p *RecommendationProvider) baseURL() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return defaultPlacesBaseURL
}

func (p *RecommendationProvider) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}
