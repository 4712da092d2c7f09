package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

const defaultCountriesAPIBase = "https://restcountries.com/v3.1"

// Country holds the subset of restcountries data the briefing uses.
type Country struct {
	Name      string
	Capital   string
	Region    string
	Subregion string
	Lat       float64
}

// LocationDescription is the static fallback used when no LLM
// enhancement is available.
func (c Country) LocationDescription() string {
	parts := []string{fmt.Sprintf("%s is the capital city of %s", c.Capital, c.Name)}

	if c.Subregion != "" {
		parts = append(parts, "located in "+c.Subregion)
	} else if c.Region != "" {
		parts = append(parts, "located in "+c.Region)
	}

	hemisphere := "Southern Hemisphere"
	if c.Lat > 0 {
		hemisphere = "Northern Hemisphere"
	}
	parts = append(parts, "in the "+hemisphere)

	return strings.Join(parts, ", ") + "."
}

// CountrySource picks a random country from the restcountries API.
type CountrySource struct {
	apiBase   string
	client    *http.Client
	generator TextGenerator
	rng       *rand.Rand
}

// NewCountrySource creates the country source. rng may be nil.
func NewCountrySource(generator TextGenerator, rng *rand.Rand) *CountrySource {
	return &CountrySource{
		apiBase:   defaultCountriesAPIBase,
		client:    &http.Client{Timeout: 30 * time.Second},
		generator: generator,
		rng:       rng,
	}
}

func (s *CountrySource) ID() string { return "country" }

func (s *CountrySource) Fields() []string {
	return []string{
		"COUNTRY_OF_THE_DAY", "COUNTRY_CAPITAL_OF_THE_DAY",
		"CAPITAL_LOCATION_BREAKDOWN",
	}
}

func (s *CountrySource) Fetch(ctx context.Context) (Fields, error) {
	countries, err := s.fetchAllCountries(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching countries: %w", err)
	}
	if len(countries) == 0 {
		return nil, fmt.Errorf("no countries with capitals in API response")
	}

	var country Country
	if s.rng != nil {
		country = countries[s.rng.Intn(len(countries))]
	} else {
		country = countries[rand.Intn(len(countries))]
	}
	log.Printf("Selected country of the day: %s", country.Name)

	location := country.LocationDescription()
	if s.generator != nil {
		enhanced, err := s.generator.Summarize(ctx, country.Capital+", "+country.Name, "location", 100)
		if err != nil {
			debugLog("location enhancement failed, using static description: %v", err)
		} else {
			location = enhanced
		}
	}

	return Fields{
		"COUNTRY_OF_THE_DAY":         country.Name,
		"COUNTRY_CAPITAL_OF_THE_DAY": country.Capital,
		"CAPITAL_LOCATION_BREAKDOWN": location,
	}, nil
}

func (s *CountrySource) fetchAllCountries(ctx context.Context) ([]Country, error) {
	url := s.apiBase + "/all?fields=name,capital,region,subregion,latlng"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	var raw []struct {
		Name struct {
			Common string `json:"common"`
		} `json:"name"`
		Capital   []string  `json:"capital"`
		Region    string    `json:"region"`
		Subregion string    `json:"subregion"`
		LatLng    []float64 `json:"latlng"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding countries response: %w", err)
	}

	countries := make([]Country, 0, len(raw))
	for _, entry := range raw {
		if entry.Name.Common == "" || len(entry.Capital) == 0 {
			continue
		}
		country := Country{
			Name:      entry.Name.Common,
			Capital:   entry.Capital[0],
			Region:    entry.Region,
			Subregion: entry.Subregion,
		}
		if len(entry.LatLng) > 0 {
			country.Lat = entry.LatLng[0]
		}
		countries = append(countries, country)
	}

	debugLog("fetched %d countries", len(countries))
	return countries, nil
}
