package agent

import "testing"

func TestClassify_Generic(t *testing.T) {
	c := Classify("Summarize the quarterly report", "please summarize my report")
	if c.Kind != ClassGeneric {
		t.Errorf("expected generic, got %v", c)
	}
}

func TestClassify_EnglishCity(t *testing.T) {
	c := Classify("Find the forecast", "what is the weather in New York")
	if c.Kind != ClassForecastWithCity {
		t.Fatalf("expected forecast with city, got %v", c.Kind)
	}
	if c.City != "New York" {
		t.Errorf("city = %q, want New York", c.City)
	}
}

func TestClassify_CJKCity(t *testing.T) {
	c := Classify("", "上海明天的天气怎么样")
	if c.Kind != ClassForecastWithCity {
		t.Fatalf("expected forecast with city, got %v", c.Kind)
	}
	if c.City != "上海" {
		t.Errorf("city = %q, want 上海", c.City)
	}
}

func TestClassify_LiteralBeatsPattern(t *testing.T) {
	// Both the literal token and the English pattern match; the literal
	// must win.
	c := Classify("", "北京 or the weather in London, whichever")
	if c.Kind != ClassForecastWithCity || c.City != "北京" {
		t.Errorf("literal token did not take precedence: %+v", c)
	}
}

func TestClassify_IntentFromDescriptionOnly(t *testing.T) {
	// The step description alone can mark the forecast intent even when
	// the message text cannot yield a city.
	c := Classify("Check tomorrow's weather with the browser", "go ahead")
	if c.Kind != ClassForecastNoCity {
		t.Errorf("expected forecast without city, got %v", c.Kind)
	}
}

func TestExtractCity_NoiseTokens(t *testing.T) {
	if city := ExtractCity("深圳明天晚上的天气"); city != "深圳" {
		t.Errorf("city = %q, want 深圳", city)
	}
}

func TestExtractCity_NoMatch(t *testing.T) {
	if city := ExtractCity("how warm will it be"); city != "" {
		t.Errorf("city = %q, want empty", city)
	}
}
