package weather

import (
	"fmt"
	"strings"
)

// Locale is the binary language choice for rendered summaries.
type Locale int

const (
	LocaleEN Locale = iota
	LocaleZH
)

// DetectLocale picks the response language from the inbound text.
func DetectLocale(text string) Locale {
	if strings.Contains(text, "天气") {
		return LocaleZH
	}
	return LocaleEN
}

// phrasebook holds every format string for one locale so rendering stays
// table-driven.
type phrasebook struct {
	condition   string
	tempRange   string
	rainChance  string
	summary     string
	noDetails   string
	failure     string
	unknownCode string
	announce    string
	sep         string
}

var phrasebooks = map[Locale]phrasebook{
	LocaleEN: {
		condition:   "Conditions: %s",
		tempRange:   "High %s°C, Low %s°C",
		rainChance:  "Chance of rain %s%%",
		summary:     "Tomorrow in %s: %s (source: %s)",
		noDetails:   "Forecast available",
		failure:     "I could not retrieve a weather forecast right now.",
		unknownCode: "code %d",
		announce:    "I will open %s in the browser and extract tomorrow's forecast.",
		sep:         ", ",
	},
	LocaleZH: {
		condition:   "天气：%s",
		tempRange:   "最高%s°C，最低%s°C",
		rainChance:  "降水概率%s%%",
		summary:     "%s明天%s（来源：%s）",
		noDetails:   "已获取天气预报",
		failure:     "暂时无法获取天气预报。",
		unknownCode: "代码%d",
		announce:    "我将使用浏览器工具打开 %s 并提取明天的天气预报。",
		sep:         "，",
	},
}

// conditionText resolves the human-readable phrase for a forecast. Text
// from the primary source wins; numeric codes go through the WMO table.
func conditionText(f *Forecast, loc Locale) string {
	if f.Condition != "" {
		return f.Condition
	}
	if f.Code == nil {
		return ""
	}
	entry, ok := wmoCodes[*f.Code]
	if !ok {
		return fmt.Sprintf(phrasebooks[loc].unknownCode, *f.Code)
	}
	if loc == LocaleZH {
		return entry.zh
	}
	return entry.en
}

// Render builds the summary sentence for tomorrow's forecast. Fields
// missing from the payload are simply left out.
func Render(f *Forecast, city string, loc Locale) string {
	pb := phrasebooks[loc]

	var details []string
	if cond := conditionText(f, loc); cond != "" {
		details = append(details, fmt.Sprintf(pb.condition, cond))
	}
	if f.MaxTemp != "" && f.MinTemp != "" {
		details = append(details, fmt.Sprintf(pb.tempRange, f.MaxTemp, f.MinTemp))
	}
	if f.RainChance != "" {
		details = append(details, fmt.Sprintf(pb.rainChance, f.RainChance))
	}

	detail := pb.noDetails
	if len(details) > 0 {
		detail = strings.Join(details, pb.sep)
	}
	return fmt.Sprintf(pb.summary, city, detail, f.Source)
}

// FailureMessage is the single aggregate failure sentence for a locale.
func FailureMessage(loc Locale) string {
	return phrasebooks[loc].failure
}
