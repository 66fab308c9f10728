package services

import (
	"math/rand"
	"sync"
	"time"
)

// RecommendationRequest is the context of a recommendation query. It does not
// influence the result yet.
type RecommendationRequest struct {
	Day     string `json:"day"`
	Session string `json:"session"`
	Weather string `json:"weather"`
	Waiter  string `json:"waiter"`
}

// Recommendation is a suggested sales quantity for one menu category.
type Recommendation struct {
	Category          string `json:"category"`
	PredictedQuantity int    `json:"predicted_quantity"`
	TargetQuantity    int    `json:"target_quantity"`
}

// quantityRange is a half-open interval [Min, Min+Span).
type quantityRange struct {
	Min  int
	Span int
}

type categoryRanges struct {
	Category  string
	Predicted quantityRange
	Target    quantityRange
}

var recommendationCategories = []categoryRanges{
	{Category: "Pizza", Predicted: quantityRange{10, 20}, Target: quantityRange{15, 15}},
	{Category: "Pasta", Predicted: quantityRange{8, 15}, Target: quantityRange{10, 12}},
	{Category: "Salad", Predicted: quantityRange{5, 10}, Target: quantityRange{7, 8}},
}

// RecommendationService returns placeholder category recommendations. There is
// no model behind it; quantities are random within fixed ranges.
type RecommendationService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRecommendationService creates a stub seeded from the clock when seed is 0.
func NewRecommendationService(seed int64) *RecommendationService {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RecommendationService{rng: rand.New(rand.NewSource(seed))}
}

// Recommend returns one recommendation per known category.
func (s *RecommendationService) Recommend(_ RecommendationRequest) []Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Recommendation, 0, len(recommendationCategories))
	for _, c := range recommendationCategories {
		out = append(out, Recommendation{
			Category:          c.Category,
			PredictedQuantity: c.Predicted.Min + s.rng.Intn(c.Predicted.Span),
			TargetQuantity:    c.Target.Min + s.rng.Intn(c.Target.Span),
		})
	}
	return out
}
