package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const placesSearchURL = "https://places.googleapis.com/v1/places:searchNearby"

// Cultural place types surfaced to users. Everything else Google knows
// about in the radius is filtered out server-side.
var culturalPlaceTypes = []string{
	"art_gallery",
	"museum",
	"performing_arts_theater",
	"cultural_center",
	"library",
}

// PlacesService looks up cultural locations near a coordinate via the
// Google Places API (New). When no API key is configured, lookups fail
// with ErrPlacesDisabled so the handler can 503 instead of guessing.
type PlacesService struct {
	client *resty.Client
	apiKey string
}

var ErrPlacesDisabled = fmt.Errorf("places lookup is not configured")

func NewPlacesService(apiKey string) *PlacesService {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &PlacesService{client: client, apiKey: apiKey}
}

type placesResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string `json:"formattedAddress"`
		PrimaryType      string `json:"primaryType"`
		Location         struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		Rating float64 `json:"rating"`
	} `json:"places"`
}

type NearbyResult struct {
	PlaceID   string
	Name      string
	Address   string
	Category  string
	Latitude  float64
	Longitude float64
	Rating    *float64
}

func (s *PlacesService) SearchNearby(ctx context.Context, lat, lng float64, radiusMeters int, category string) ([]NearbyResult, error) {
	if s.apiKey == "" {
		return nil, ErrPlacesDisabled
	}

	if radiusMeters < 100 {
		radiusMeters = 100
	}
	if radiusMeters > 50000 {
		radiusMeters = 50000
	}

	types := culturalPlaceTypes
	if category != "" {
		types = []string{category}
	}

	body := map[string]interface{}{
		"includedTypes":  types,
		"maxResultCount": 20,
		"locationRestriction": map[string]interface{}{
			"circle": map[string]interface{}{
				"center": map[string]float64{
					"latitude":  lat,
					"longitude": lng,
				},
				"radius": float64(radiusMeters),
			},
		},
	}

	var out placesResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("X-Goog-Api-Key", s.apiKey).
		SetHeader("X-Goog-FieldMask", "places.id,places.displayName,places.formattedAddress,places.primaryType,places.location,places.rating").
		SetBody(body).
		SetResult(&out).
		Post(placesSearchURL)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("places API returned status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	results := make([]NearbyResult, 0, len(out.Places))
	for _, p := range out.Places {
		r := NearbyResult{
			PlaceID:   p.ID,
			Name:      p.DisplayName.Text,
			Address:   p.FormattedAddress,
			Category:  p.PrimaryType,
			Latitude:  p.Location.Latitude,
			Longitude: p.Location.Longitude,
		}
		if p.Rating > 0 {
			rating := p.Rating
			r.Rating = &rating
		}
		results = append(results, r)
	}

	return results, nil
}

// ValidCategory reports whether category is one of the supported
// cultural place types.
func ValidCategory(category string) bool {
	for _, t := range culturalPlaceTypes {
		if t == category {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
