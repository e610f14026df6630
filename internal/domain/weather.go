package domain

import "time"

// CurrentWeather holds current conditions in the configured units.
type CurrentWeather struct {
	Temperature   float64 `json:"temperature"`
	WeatherCode   int     `json:"weathercode"`
	WindSpeed     float64 `json:"windspeed"`
	Humidity      int     `json:"humidity"`
	FeelsLike     float64 `json:"feels_like"`
	WindDirection int     `json:"wind_direction"`
	WindGusts     float64 `json:"wind_gusts"`
	UVIndex       float64 `json:"uv_index"`
	Visibility    float64 `json:"visibility"`
	Pressure      float64 `json:"pressure"`
	CloudCover    int     `json:"cloud_cover"`
}

// HourlyForecast is one hour of the short-range forecast.
type HourlyForecast struct {
	Time                     string  `json:"time"`
	Temperature              float64 `json:"temperature"`
	WeatherCode              int     `json:"weathercode"`
	PrecipitationProbability int     `json:"precipitation_probability"`
}

// DailyForecast is one day of the week-long forecast.
type DailyForecast struct {
	Date        string  `json:"date"`
	TempMax     float64 `json:"temp_max"`
	TempMin     float64 `json:"temp_min"`
	WeatherCode int     `json:"weathercode"`
	Sunrise     string  `json:"sunrise"`
	Sunset      string  `json:"sunset"`
}

// WeatherData is a complete weather snapshot for one coordinate.
type WeatherData struct {
	Current  CurrentWeather   `json:"current"`
	Hourly   []HourlyForecast `json:"hourly"`
	Forecast []DailyForecast  `json:"forecast"`
}

// AQIStandard selects which air quality index scale a reading uses.
type AQIStandard string

const (
	AQIStandardUS       AQIStandard = "us"
	AQIStandardEuropean AQIStandard = "european"
)

// Label returns the user-facing name of the standard.
func (s AQIStandard) Label() string {
	if s == AQIStandardEuropean {
		return "EU AQI"
	}
	return "US AQI"
}

// AirQualityData holds a current air quality reading.
type AirQualityData struct {
	AQI             int         `json:"aqi"`
	Standard        AQIStandard `json:"standard"`
	PM25            float64     `json:"pm2_5"`
	PM10            float64     `json:"pm10"`
	Ozone           float64     `json:"ozone"`
	NitrogenDioxide float64     `json:"nitrogen_dioxide"`
	CarbonMonoxide  float64     `json:"carbon_monoxide"`
}

// AQIStandardFor returns the AQI scale conventionally used at a coordinate:
// the European EAQI inside the Europe bounding box, the US EPA scale
// elsewhere.
func AQIStandardFor(lat, lon float64) AQIStandard {
	if isEurope(lat, lon) {
		return AQIStandardEuropean
	}
	return AQIStandardUS
}

// AQIDescription returns the band description for an AQI value on the given
// standard.
func AQIDescription(aqi int, standard AQIStandard) string {
	if standard == AQIStandardEuropean {
		switch {
		case aqi <= 20:
			return "Good"
		case aqi <= 40:
			return "Fair"
		case aqi <= 60:
			return "Moderate"
		case aqi <= 80:
			return "Poor"
		case aqi <= 100:
			return "Very Poor"
		default:
			return "Extremely Poor"
		}
	}
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// LocationResult is a geocoding search hit, produced by city search and
// consumed by user selection.
type LocationResult struct {
	Coordinate  Coordinate `json:"coordinate"`
	DisplayName string     `json:"display_name"`
	Country     string     `json:"country"`
}

// WeatherCodeDescription returns a human-readable description for a WMO
// weather code.
func WeatherCodeDescription(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code == 1:
		return "Mainly clear"
	case code == 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Foggy"
	case code == 51 || code == 53 || code == 55:
		return "Drizzle"
	case code == 61 || code == 63 || code == 65:
		return "Rain"
	case code == 71 || code == 73 || code == 75 || code == 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code == 95:
		return "Thunderstorm"
	case code == 96 || code == 99:
		return "Thunderstorm with hail"
	default:
		return "Unknown"
	}
}

// WeatherCodeIcon maps a WMO weather code to a freedesktop icon name.
// https://specifications.freedesktop.org/icon-naming-spec/latest/
func WeatherCodeIcon(code int, night bool) string {
	switch {
	case code == 0:
		if night {
			return "weather-clear-night"
		}
		return "weather-clear"
	case code == 1 || code == 2:
		if night {
			return "weather-few-clouds-night"
		}
		return "weather-few-clouds"
	case code == 3:
		return "weather-overcast"
	case code == 45 || code == 48:
		return "weather-fog"
	case code == 51 || code == 53 || code == 55:
		return "weather-showers-scattered"
	case code == 61 || code == 63 || code == 65, code >= 80 && code <= 82:
		return "weather-showers"
	case code == 71 || code == 73 || code == 75 || code == 77, code == 85 || code == 86:
		return "weather-snow"
	case code == 95 || code == 96 || code == 99:
		return "weather-storm"
	default:
		return "weather-severe-alert"
	}
}

// WindCompass converts wind direction in degrees to an eight-point compass
// direction.
func WindCompass(degrees int) string {
	d := ((degrees % 360) + 360) % 360
	switch {
	case d <= 22 || d >= 338:
		return "N"
	case d <= 67:
		return "NE"
	case d <= 112:
		return "E"
	case d <= 157:
		return "SE"
	case d <= 202:
		return "S"
	case d <= 247:
		return "SW"
	case d <= 292:
		return "W"
	default:
		return "NW"
	}
}

// IsNight reports whether now falls before sunrise or after sunset. Sunrise
// and sunset are local timestamps in the "2006-01-02T15:04" form returned by
// the forecast API (seconds optional). If either fails to parse, a fixed
// 6pm–6am night window is assumed.
func IsNight(now time.Time, sunrise, sunset string) bool {
	parse := func(s string) (time.Time, error) {
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, now.Location()); err == nil {
			return t, nil
		}
		return time.ParseInLocation("2006-01-02T15:04", s, now.Location())
	}

	rise, err1 := parse(sunrise)
	set, err2 := parse(sunset)
	if err1 != nil || err2 != nil {
		h := now.Hour()
		return h < 6 || h >= 18
	}
	return now.Before(rise) || now.After(set)
}
