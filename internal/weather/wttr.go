package weather

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rahul/kestrel/internal/parse"
)

// ErrNoForecast marks a payload that carries no usable forecast entries.
var ErrNoForecast = errors.New("payload contains no forecast entries")

// Forecast is the normalized payload a winning strategy hands to the
// renderer. Empty fields are simply absent from the summary. Exactly one
// of Condition / Code is set depending on the source.
type Forecast struct {
	MaxTemp    string
	MinTemp    string
	Condition  string
	Code       *int
	RainChance string
	Source     string
}

type wttrReport struct {
	Weather []wttrDay `json:"weather"`
}

type wttrDay struct {
	MaxTempC string     `json:"maxtempC"`
	MaxTempF string     `json:"maxtempF"`
	MinTempC string     `json:"mintempC"`
	MinTempF string     `json:"mintempF"`
	Hourly   []wttrHour `json:"hourly"`
}

type wttrHour struct {
	WeatherDesc []struct {
		Value string `json:"value"`
	} `json:"weatherDesc"`
	ChanceOfRain string `json:"chanceofrain"`
}

// wttrURL builds the JSON endpoint for one city.
func wttrURL(base, city string) string {
	return fmt.Sprintf("%s/%s?format=j1", strings.TrimRight(base, "/"), url.QueryEscape(city))
}

// parseWttr tolerantly decodes a wttr.in j1 body and extracts tomorrow's
// entry: index 1 of the multi-day series, or index 0 when the series is a
// singleton.
func parseWttr(body []byte) (*Forecast, error) {
	var report wttrReport
	if err := parse.Into(string(body), &report); err != nil {
		return nil, err
	}
	if len(report.Weather) == 0 {
		return nil, ErrNoForecast
	}

	day := report.Weather[0]
	if len(report.Weather) > 1 {
		day = report.Weather[1]
	}

	f := &Forecast{Source: "wttr.in"}
	f.MaxTemp = day.MaxTempC
	if f.MaxTemp == "" {
		f.MaxTemp = day.MaxTempF
	}
	f.MinTemp = day.MinTempC
	if f.MinTemp == "" {
		f.MinTemp = day.MinTempF
	}
	if len(day.Hourly) > 0 {
		first := day.Hourly[0]
		if len(first.WeatherDesc) > 0 {
			f.Condition = strings.TrimSpace(first.WeatherDesc[0].Value)
		}
		f.RainChance = first.ChanceOfRain
	}
	return f, nil
}
