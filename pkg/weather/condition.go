package weather

// wmoCondition maps WMO weather interpretation codes to the condition
// labels the order plan displays.
// https://open-meteo.com/en/docs#weathervariables
var wmoCondition = map[int64]string{
	0: "Clear", 1: "Clear",
	2: "Clouds", 3: "Clouds",
	45: "Fog", 48: "Fog",
	51: "Rain", 53: "Rain", 55: "Rain",
	56: "Rain", 57: "Rain",
	61: "Rain", 63: "Rain", 65: "Rain",
	66: "Rain", 67: "Rain",
	71: "Snow", 73: "Snow", 75: "Snow",
	77: "Snow",
	80: "Rain", 81: "Rain", 82: "Rain",
	85: "Snow", 86: "Snow",
	95: "Thunderstorm", 96: "Thunderstorm", 99: "Thunderstorm",
}

// Condition converts a WMO weather code to a readable label. Unknown codes
// fall back to "Clouds".
func Condition(code int64) string {
	if c, ok := wmoCondition[code]; ok {
		return c
	}
	return "Clouds"
}
