package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrFoodNotFound terminates the current food sub-flow back to idle.
var ErrFoodNotFound = errors.New("food not found")

// FoodCandidate is one product match from the food database.
type FoodCandidate struct {
	Name            string  `json:"name"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ServingWeightG  float64 `json:"serving_weight_g"`
}

// PortionCalories scales the candidate's reference calories to the given
// portion weight in grams.
func (f FoodCandidate) PortionCalories(weightG float64) float64 {
	ref := f.ServingWeightG
	if ref <= 0 {
		ref = 100
	}
	return f.CaloriesPer100g * weightG / ref
}

// FoodGateway is the lookup contract the conversation engine depends on.
type FoodGateway interface {
	SearchByName(ctx context.Context, query string) (*FoodCandidate, error)
	LookupByBarcode(ctx context.Context, code string) (*FoodCandidate, error)
}

// FoodService queries the Open Food Facts database.
type FoodService struct {
	searchURL  string
	barcodeURL string
	client     *http.Client
}

func NewFoodService() *FoodService {
	return &FoodService{
		searchURL:  "https://world.openfoodfacts.org/cgi/search.pl",
		barcodeURL: "https://world.openfoodfacts.org/api/v0/product",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type offProduct struct {
	ProductName string `json:"product_name"`
	Nutriments  struct {
		EnergyKcal100g float64 `json:"energy-kcal_100g"`
	} `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}

type offBarcodeResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

func (s *FoodService) SearchByName(ctx context.Context, query string) (*FoodCandidate, error) {
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", "5")

	body, err := s.get(ctx, s.searchURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var sr offSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse food search JSON: %w", err)
	}

	for _, p := range sr.Products {
		if p.ProductName == "" {
			continue
		}
		return candidateFrom(p), nil
	}
	return nil, ErrFoodNotFound
}

func (s *FoodService) LookupByBarcode(ctx context.Context, code string) (*FoodCandidate, error) {
	body, err := s.get(ctx, fmt.Sprintf("%s/%s.json", s.barcodeURL, url.PathEscape(code)))
	if err != nil {
		return nil, err
	}

	var br offBarcodeResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return nil, fmt.Errorf("failed to parse barcode JSON: %w", err)
	}
	if br.Status != 1 || br.Product.ProductName == "" {
		return nil, ErrFoodNotFound
	}
	return candidateFrom(br.Product), nil
}

func (s *FoodService) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create food request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call food API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read food response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("food API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func candidateFrom(p offProduct) *FoodCandidate {
	return &FoodCandidate{
		Name:            p.ProductName,
		CaloriesPer100g: p.Nutriments.EnergyKcal100g,
		ServingWeightG:  100,
	}
}
