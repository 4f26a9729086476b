package agent

import (
	"regexp"
	"strings"
)

// StepClass tags the outcome of step classification.
type StepClass int

const (
	// ClassGeneric means the step goes through the normal tool loop.
	ClassGeneric StepClass = iota
	// ClassForecastWithCity means the step is a forecast request with an
	// extractable city and is handled by the retrieval pipeline directly.
	ClassForecastWithCity
	// ClassForecastNoCity means the step is a forecast request but no
	// city could be extracted; the tool loop runs with a rewritten
	// instruction and a restricted tool set.
	ClassForecastNoCity
)

// Classification is the result of classifying one step.
type Classification struct {
	Kind StepClass
	City string
}

var (
	englishCityRe = regexp.MustCompile(`(?i)weather\s+in\s+([A-Za-z\s]+)`)
	cjkCityRe     = regexp.MustCompile(`([\x{4e00}-\x{9fff}]{2,8})[^\x{4e00}-\x{9fff}]*天气`)
)

// cjkNoise are time-of-day and particle tokens stripped from an
// extracted CJK city name.
var cjkNoise = []string{"明天", "今天", "后天", "的", "晚上", "白天", "夜间"}

// Classify inspects the inbound text and the step description for a
// forecast intent. It is a pure function of text content so the
// executor's control flow stays free of string matching.
func Classify(stepDescription, inbound string) Classification {
	if !isForecastQuery(inbound) && !isForecastQuery(stepDescription) {
		return Classification{Kind: ClassGeneric}
	}
	if city := ExtractCity(inbound); city != "" {
		return Classification{Kind: ClassForecastWithCity, City: city}
	}
	return Classification{Kind: ClassForecastNoCity}
}

func isForecastQuery(text string) bool {
	return strings.Contains(text, "天气") || strings.Contains(strings.ToLower(text), "weather")
}

// ExtractCity pulls a city name out of free text. The literal 北京 token
// wins over both pattern extractions; among the patterns the English one
// has priority.
func ExtractCity(text string) string {
	if strings.Contains(text, "北京") {
		return "北京"
	}
	if m := englishCityRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := cjkCityRe.FindStringSubmatch(text); m != nil {
		city := m[1]
		for _, tok := range cjkNoise {
			city = strings.ReplaceAll(city, tok, "")
		}
		if city = strings.TrimSpace(city); city != "" {
			return city
		}
	}
	return ""
}
