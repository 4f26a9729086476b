package weather

import (
	"strings"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	if DetectLocale("what's the weather in Paris") != LocaleEN {
		t.Error("English text detected as zh")
	}
	if DetectLocale("北京明天天气怎么样") != LocaleZH {
		t.Error("Chinese forecast text detected as en")
	}
}

func TestRender_AllFields(t *testing.T) {
	f := &Forecast{
		MaxTemp:    "21",
		MinTemp:    "12",
		Condition:  "Partly cloudy",
		RainChance: "30",
		Source:     "wttr.in",
	}
	out := Render(f, "Paris", LocaleEN)

	for _, want := range []string{"Paris", "Partly cloudy", "High 21°C", "Low 12°C", "Chance of rain 30%", "wttr.in"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q: %s", want, out)
		}
	}
}

func TestRender_OmitsMissingFields(t *testing.T) {
	f := &Forecast{Condition: "Overcast", Source: "wttr.in"}
	out := Render(f, "Paris", LocaleEN)

	if !strings.Contains(out, "Overcast") {
		t.Errorf("condition missing: %s", out)
	}
	if strings.Contains(out, "High") || strings.Contains(out, "rain") {
		t.Errorf("summary mentions absent fields: %s", out)
	}
}

func TestRender_NoDetails(t *testing.T) {
	out := Render(&Forecast{Source: "wttr.in"}, "Paris", LocaleEN)
	if !strings.Contains(out, "Forecast available") {
		t.Errorf("expected placeholder detail text: %s", out)
	}
}

func TestConditionText_CodeTable(t *testing.T) {
	code := 3
	f := &Forecast{Code: &code}
	if got := conditionText(f, LocaleEN); got != "Overcast" {
		t.Errorf("code 3 en = %q", got)
	}
	if got := conditionText(f, LocaleZH); got != "阴" {
		t.Errorf("code 3 zh = %q", got)
	}

	unknown := 42
	f = &Forecast{Code: &unknown}
	if got := conditionText(f, LocaleEN); got != "code 42" {
		t.Errorf("unknown code en = %q", got)
	}
	if got := conditionText(f, LocaleZH); got != "代码42" {
		t.Errorf("unknown code zh = %q", got)
	}
}

func TestRender_ChineseSummary(t *testing.T) {
	f := &Forecast{MaxTemp: "10", MinTemp: "2", Condition: "小雨", RainChance: "40", Source: "wttr.in"}
	out := Render(f, "北京", LocaleZH)

	for _, want := range []string{"北京明天", "天气：小雨", "最高10°C", "最低2°C", "降水概率40%", "来源：wttr.in"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q: %s", want, out)
		}
	}
}
