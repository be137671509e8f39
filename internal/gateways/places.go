package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/logger"
)

const placesFieldMask = "places.id,places.displayName,places.formattedAddress,places.nationalPhoneNumber,places.websiteUri,places.rating,places.userRatingCount"

type PlacesConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// PlacesClient searches businesses with the Google Places API (v1).
type PlacesClient struct {
	httpClient *resty.Client
	apiKey     string
}

type placesSearchRequest struct {
	TextQuery      string `json:"textQuery"`
	MaxResultCount int    `json:"maxResultCount,omitempty"`
	RegionCode     string `json:"regionCode,omitempty"`
}

type placesSearchResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress    string  `json:"formattedAddress"`
		NationalPhoneNumber string  `json:"nationalPhoneNumber"`
		WebsiteURI          string  `json:"websiteUri"`
		Rating              float64 `json:"rating"`
		UserRatingCount     int     `json:"userRatingCount"`
	} `json:"places"`
}

type placesError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewPlacesClient(cfg PlacesConfig) *PlacesClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(1).
		SetHeader("Content-Type", "application/json")
	return &PlacesClient{httpClient: client, apiKey: cfg.APIKey}
}

func (c *PlacesClient) Search(ctx context.Context, query string) ([]model.Place, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	var result placesSearchResponse
	var failure placesError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Goog-Api-Key", c.apiKey).
		SetHeader("X-Goog-FieldMask", placesFieldMask).
		SetBody(placesSearchRequest{TextQuery: query, MaxResultCount: 10, RegionCode: "GB"}).
		SetResult(&result).
		SetError(&failure).
		Post("/v1/places:searchText")
	if err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}
	if resp.IsError() {
		logger.Error("places search failed", "status", resp.StatusCode(), "message", failure.Error.Message)
		return nil, fmt.Errorf("places search returned status %d: %w", resp.StatusCode(), ErrUnavailable)
	}

	places := make([]model.Place, 0, len(result.Places))
	for _, p := range result.Places {
		places = append(places, model.Place{
			PlaceID:         p.ID,
			Name:            p.DisplayName.Text,
			Address:         p.FormattedAddress,
			Phone:           p.NationalPhoneNumber,
			Website:         p.WebsiteURI,
			Rating:          p.Rating,
			UserRatingCount: p.UserRatingCount,
		})
	}
	return places, nil
}
