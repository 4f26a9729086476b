package weather

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rahul/kestrel/internal/parse"
)

// cityAliases maps well-known non-Latin city tokens to names the
// geocoding API resolves reliably. Tried only after the literal name.
var cityAliases = map[string]string{
	"北京": "Beijing",
}

type geocodeResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Daily struct {
		Time          []string  `json:"time"`
		WeatherCode   []int     `json:"weather_code"`
		TempMax       []float64 `json:"temperature_2m_max"`
		TempMin       []float64 `json:"temperature_2m_min"`
		PrecipProbMax []int     `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// geocode resolves a city name to coordinates, falling back to a known
// alias when the literal name yields nothing.
func (p *Pipeline) geocode(ctx context.Context, city string) (lat, lon float64, err error) {
	names := []string{city}
	if alias, ok := cityAliases[city]; ok {
		names = append(names, alias)
	}
	for _, name := range names {
		u := fmt.Sprintf("%s?name=%s&count=1", p.geocodeURL, url.QueryEscape(name))
		body, ferr := p.fetch.Fetch(ctx, u)
		if ferr != nil {
			err = ferr
			continue
		}
		var resp geocodeResponse
		if perr := parse.Into(string(body), &resp); perr != nil {
			err = perr
			continue
		}
		if len(resp.Results) == 0 {
			err = fmt.Errorf("no geocoding result for %q", name)
			continue
		}
		return resp.Results[0].Latitude, resp.Results[0].Longitude, nil
	}
	return 0, 0, err
}

// secondary fetches tomorrow's forecast from the coordinate-keyed
// provider. The entry is picked by locating tomorrow's date in the daily
// series, defaulting to index 1 of a series with at least two entries.
func (p *Pipeline) secondary(ctx context.Context, city string) (*Forecast, error) {
	lat, lon, err := p.geocode(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", city, err)
	}

	u := fmt.Sprintf(
		"%s?latitude=%.4f&longitude=%.4f&daily=weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max&timezone=auto&forecast_days=3",
		p.forecastURL, lat, lon,
	)
	body, err := p.fetch.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	var resp forecastResponse
	if err := parse.Into(string(body), &resp); err != nil {
		return nil, err
	}

	daily := resp.Daily
	idx := -1
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	for i, day := range daily.Time {
		if day == tomorrow {
			idx = i
			break
		}
	}
	if idx < 0 {
		if len(daily.Time) < 2 {
			return nil, ErrNoForecast
		}
		idx = 1
	}

	f := &Forecast{Source: "open-meteo.com"}
	if idx < len(daily.TempMax) {
		f.MaxTemp = strconv.FormatFloat(daily.TempMax[idx], 'f', -1, 64)
	}
	if idx < len(daily.TempMin) {
		f.MinTemp = strconv.FormatFloat(daily.TempMin[idx], 'f', -1, 64)
	}
	if idx < len(daily.WeatherCode) {
		code := daily.WeatherCode[idx]
		f.Code = &code
	}
	if idx < len(daily.PrecipProbMax) {
		f.RainChance = strconv.Itoa(daily.PrecipProbMax[idx])
	}
	if f.MaxTemp == "" && f.MinTemp == "" && f.Code == nil {
		return nil, ErrNoForecast
	}
	return f, nil
}
