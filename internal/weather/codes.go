package weather

// WMO 4677 weather interpretation codes as served by Open-Meteo. New codes
// or languages are added here, not in branching logic.
var wmoCodes = map[int]struct{ en, zh string }{
	0:  {"Clear sky", "晴"},
	1:  {"Mainly clear", "大部晴朗"},
	2:  {"Partly cloudy", "多云"},
	3:  {"Overcast", "阴"},
	45: {"Fog", "雾"},
	48: {"Depositing rime fog", "雾凇"},
	51: {"Light drizzle", "小毛毛雨"},
	53: {"Moderate drizzle", "毛毛雨"},
	55: {"Dense drizzle", "浓毛毛雨"},
	56: {"Light freezing drizzle", "轻冻毛毛雨"},
	57: {"Dense freezing drizzle", "冻毛毛雨"},
	61: {"Slight rain", "小雨"},
	63: {"Moderate rain", "中雨"},
	65: {"Heavy rain", "大雨"},
	66: {"Light freezing rain", "小冻雨"},
	67: {"Heavy freezing rain", "冻雨"},
	71: {"Slight snowfall", "小雪"},
	73: {"Moderate snowfall", "中雪"},
	75: {"Heavy snowfall", "大雪"},
	77: {"Snow grains", "米雪"},
	80: {"Slight rain showers", "小阵雨"},
	81: {"Moderate rain showers", "阵雨"},
	82: {"Violent rain showers", "强阵雨"},
	85: {"Slight snow showers", "小阵雪"},
	86: {"Heavy snow showers", "阵雪"},
	95: {"Thunderstorm", "雷暴"},
	96: {"Thunderstorm with slight hail", "雷暴伴小冰雹"},
	99: {"Thunderstorm with heavy hail", "雷暴伴冰雹"},
}
