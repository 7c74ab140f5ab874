package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortionCalories(t *testing.T) {
	c := FoodCandidate{CaloriesPer100g: 52, ServingWeightG: 100}
	assert.InDelta(t, 78.0, c.PortionCalories(150), 1e-9)
	assert.InDelta(t, 52.0, c.PortionCalories(100), 1e-9)

	// zero serving weight falls back to the per-100g reference
	zero := FoodCandidate{CaloriesPer100g: 52}
	assert.InDelta(t, 26.0, zero.PortionCalories(50), 1e-9)
}

func TestSearchByNameSkipsUnnamedProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "apple", r.URL.Query().Get("search_terms"))
		w.Write([]byte(`{"products":[
			{"product_name":"","nutriments":{"energy-kcal_100g":0}},
			{"product_name":"Apple","nutriments":{"energy-kcal_100g":52}}
		]}`))
	}))
	defer srv.Close()

	s := NewFoodService()
	s.searchURL = srv.URL

	c, err := s.SearchByName(context.Background(), "apple")

	require.NoError(t, err)
	assert.Equal(t, "Apple", c.Name)
	assert.InDelta(t, 52.0, c.CaloriesPer100g, 1e-9)
}

func TestSearchByNameNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	s := NewFoodService()
	s.searchURL = srv.URL

	_, err := s.SearchByName(context.Background(), "unobtainium")

	assert.ErrorIs(t, err, ErrFoodNotFound)
}

func TestLookupByBarcode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/4600682000129.json", r.URL.Path)
		w.Write([]byte(`{"status":1,"product":{"product_name":"Cereal","nutriments":{"energy-kcal_100g":380}}}`))
	}))
	defer srv.Close()

	s := NewFoodService()
	s.barcodeURL = srv.URL

	c, err := s.LookupByBarcode(context.Background(), "4600682000129")

	require.NoError(t, err)
	assert.Equal(t, "Cereal", c.Name)
	assert.InDelta(t, 380.0, c.CaloriesPer100g, 1e-9)
}

func TestLookupByBarcodeStatusZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":0}`))
	}))
	defer srv.Close()

	s := NewFoodService()
	s.barcodeURL = srv.URL

	_, err := s.LookupByBarcode(context.Background(), "0000000000000")

	assert.ErrorIs(t, err, ErrFoodNotFound)
}
