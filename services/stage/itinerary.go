package stage

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"tripplanner/models"
)

// ItineraryProvider builds day-by-day plans from the trip spec and the
// recommendation, flight and hotel payloads. It performs no external
// calls; its only hard failure is a violated dependency contract.
type ItineraryProvider struct{}

// NewItineraryProvider builds the itinerary provider.
func NewItineraryProvider() *ItineraryProvider { return &ItineraryProvider{} }

func (p *ItineraryProvider) Name() string { return models.StageItinerary }

func (p *ItineraryProvider) Run(ctx context.Context, in Input) (map[string]any, error) {
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
	if in.Recommendations == nil {
		missing = append(missing, "recommendations")
	}
	if in.Flights == nil {
		missing = append(missing, "flights")
	}
	if in.Hotels == nil {
		missing = append(missing, "hotels")
	}
	if len(missing) > 0 {
		return nil, NewContractError(p.Name(), missing...)
	}

	start, err := time.Parse("2006-01-02", in.Spec.StartDate)
	if err != nil {
		return nil, NewContractError(p.Name(), "start_date")
	}

	prefs := in.Spec.Preferences
	duration := in.Spec.Duration
	byActivity := getMap(in.Recommendations, "activity_recommendations")

	dailyPlans := make([]map[string]any, 0, duration)
	for day := 0; day < duration; day++ {
		date := start.AddDate(0, 0, day)
		dailyPlans = append(dailyPlans, dailyPlan(in.Spec.Destination, date, day+1, prefs, byActivity))
	}

	return map[string]any{
		"destination":      in.Spec.Destination,
		"start_date":       in.Spec.StartDate,
		"end_date":         in.Spec.EndDate,
		"duration":         duration,
		"daily_plans":      dailyPlans,
		"transportation":   tripTransportation(in.Flights),
		"budget_breakdown": budgetBreakdown(dailyPlans),
		"created_at":       time.Now().Format(time.RFC3339),
	}, nil
}

func dailyPlan(destination string, date time.Time, dayNumber int, prefs models.Preferences, byActivity map[string]any) map[string]any {
	numActivities := activitiesPerDay(prefs.Pace)
	names := selectDailyActivities(prefs.Activities, byActivity, numActivities, dayNumber)
	slots := timeSlots(names, prefs.Pace)
	meals := planMeals(prefs.DiningPreference)
	transportCost := 5 + rand.Float64()*15

	activityCost := 0.0
	for _, slot := range slots {
		activityCost += number(slot["estimated_cost"])
	}
	mealCost := 0.0
	for _, meal := range meals {
		if m, ok := meal.(map[string]any); ok {
			mealCost += number(m["estimated_cost"])
		}
	}

	return map[string]any{
		"day":        dayNumber,
		"date":       date.Format("2006-01-02"),
		"activities": slots,
		"meals":      meals,
		"transportation": map[string]any{
			"primary_mode":   "Walking and public transport",
			"estimated_cost": transportCost,
			"notes":          "Most attractions are within walking distance or accessible by public transport",
		},
		"estimated_cost": map[string]any{
			"activities":     activityCost,
			"meals":          mealCost,
			"transportation": transportCost,
			"total":          activityCost + mealCost + transportCost,
		},
	}
}

func activitiesPerDay(pace string) int {
	switch pace {
	case "relaxed":
		return 2
	case "fast":
		return 4
	default:
		return 3
	}
}

// selectDailyActivities rotates through recommended activities by day
// for variety, padding with generic templates when recommendations run
// short.
func selectDailyActivities(activities []string, byActivity map[string]any, count, dayNumber int) []string {
	var selected []string
	for _, activityType := range activities {
		recs := getSlice(byActivity, activityType)
		if len(recs) == 0 {
			continue
		}
		if rec, ok := recs[(dayNumber-1)%len(recs)].(map[string]any); ok {
			if name, ok := rec["name"].(string); ok {
				selected = append(selected, name)
			}
		}
	}

	for len(selected) < count {
		generic := genericActivity(activities, dayNumber+len(selected))
		if !contains(selected, generic) {
			selected = append(selected, generic)
		} else {
			break
		}
	}

	if len(selected) > count {
		selected = selected[:count]
	}
	return selected
}

var genericTemplates = map[string][]string{
	"culture":    {"Visit local museum", "Explore historical district", "Tour art gallery", "Visit cultural center"},
	"adventure":  {"Go hiking in nature", "Try water sports", "Explore outdoor trails", "Visit adventure park"},
	"relaxation": {"Visit local park", "Relax at spa", "Walk along beach", "Visit botanical gardens"},
	"food":       {"Try local restaurant", "Visit food market", "Take cooking class", "Go wine tasting"},
	"shopping":   {"Visit local market", "Explore shopping district", "Visit craft stores", "Go souvenir shopping"},
	"nature":     {"Visit national park", "Explore wildlife reserve", "Walk in botanical gardens", "Visit nature center"},
}

func genericActivity(activities []string, seed int) string {
	if len(activities) == 0 {
		return "Explore the area"
	}
	activityType := activities[seed%len(activities)]
	templates, ok := genericTemplates[activityType]
	if !ok {
		return "Explore the area"
	}
	return templates[seed%len(templates)]
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func timeSlots(activities []string, pace string) []map[string]any {
	startHour := 9
	slotDuration := 1.5
	switch pace {
	case "relaxed":
		startHour, slotDuration = 10, 2
	case "fast":
		startHour, slotDuration = 8, 1
	}

	slots := make([]map[string]any, 0, len(activities))
	for i, activity := range activities {
		slots = append(slots, map[string]any{
			"time":           fmt.Sprintf("%02d:00", startHour+i*2),
			"duration":       fmt.Sprintf("%.1fh", slotDuration),
			"activity":       activity,
			"type":           categorizeActivity(activity),
			"estimated_cost": estimateActivityCost(activity),
		})
	}
	return slots
}

func categorizeActivity(activity string) string {
	lower := strings.ToLower(activity)
	switch {
	case containsAny(lower, "museum", "gallery", "historical", "cultural"):
		return "culture"
	case containsAny(lower, "hiking", "adventure", "sports"):
		return "adventure"
	case containsAny(lower, "spa", "beach", "relax", "park"):
		return "relaxation"
	case containsAny(lower, "restaurant", "food", "cooking", "wine"):
		return "food"
	case containsAny(lower, "market", "shopping", "store", "boutique"):
		return "shopping"
	default:
		return "exploration"
	}
}

func estimateActivityCost(activity string) float64 {
	lower := strings.ToLower(activity)
	switch {
	case containsAny(lower, "museum", "gallery", "park"):
		return 10 + rand.Float64()*15
	case containsAny(lower, "restaurant", "food", "cooking"):
		return 30 + rand.Float64()*50
	case containsAny(lower, "spa", "adventure"):
		return 50 + rand.Float64()*100
	case containsAny(lower, "shopping", "market"):
		return 20 + rand.Float64()*80
	default:
		return 15 + rand.Float64()*35
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var mealSuggestions = map[string]map[string]string{
	"breakfast": {
		"fine_dining":   "Upscale breakfast at hotel restaurant",
		"casual":        "Local café or breakfast spot",
		"street_food":   "Street food breakfast market",
		"local_cuisine": "Traditional local breakfast",
		"mixed":         "Hotel breakfast or local café",
	},
	"lunch": {
		"fine_dining":   "Upscale restaurant lunch",
		"casual":        "Casual dining restaurant",
		"street_food":   "Street food lunch",
		"local_cuisine": "Traditional local restaurant",
		"mixed":         "Mix of casual and local dining",
	},
	"dinner": {
		"fine_dining":   "Fine dining restaurant",
		"casual":        "Casual dinner restaurant",
		"street_food":   "Evening street food",
		"local_cuisine": "Traditional local dinner",
		"mixed":         "Mix of dining experiences",
	},
}

func planMeals(dining string) map[string]any {
	meal := func(mealType, at string, low, high float64) map[string]any {
		suggestion, ok := mealSuggestions[mealType][dining]
		if !ok {
			suggestion = "Local dining option"
		}
		return map[string]any{
			"time":           at,
			"type":           mealType,
			"suggestion":     suggestion,
			"estimated_cost": low + rand.Float64()*(high-low),
		}
	}
	return map[string]any{
		"breakfast": meal("breakfast", "08:00", 15, 30),
		"lunch":     meal("lunch", "13:00", 20, 50),
		"dinner":    meal("dinner", "19:00", 30, 80),
	}
}

func tripTransportation(flights map[string]any) map[string]any {
	best := firstMap(getSlice(flights, "flight_options"))
	if best == nil {
		best = map[string]any{}
	}
	return map[string]any{
		"arrival": map[string]any{
			"type":    "flight",
			"details": best,
		},
		"departure": map[string]any{
			"type":    "flight",
			"details": best,
		},
		"local_transportation": "Mix of public transport and walking",
		"estimated_daily_cost": 10 + rand.Float64()*20,
	}
}

func budgetBreakdown(dailyPlans []map[string]any) map[string]any {
	var activities, meals, transportation float64
	for _, day := range dailyPlans {
		cost := getMap(day, "estimated_cost")
		activities += number(cost["activities"])
		meals += number(cost["meals"])
		transportation += number(cost["transportation"])
	}
	return map[string]any{
		"activities":     activities,
		"meals":          meals,
		"transportation": transportation,
		"total":          activities + meals + transportation,
	}
}
