// Package openmeteo fetches weather forecasts and air quality readings from
// the Open-Meteo APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/tempestwx/tempestd/internal/domain"
)

const providerName = "openmeteo"

// hourlyHorizon caps the short-range forecast the snapshot carries.
const hourlyHorizon = 12

// Client queries the Open-Meteo forecast and air quality endpoints.
type Client struct {
	httpClient  *http.Client
	forecastURL string
	airURL      string
	tempUnit    string
	windUnit    string
	logger      *slog.Logger
}

// NewClient creates an Open-Meteo client requesting the given temperature
// unit ("fahrenheit" or "celsius") and wind speed unit ("mph", "kmh", "ms"
// or "kn").
func NewClient(tempUnit, windUnit string, timeout time.Duration, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	return &Client{
		httpClient:  rc.StandardClient(),
		forecastURL: "https://api.open-meteo.com/v1/forecast",
		airURL:      "https://air-quality-api.open-meteo.com/v1/air-quality",
		tempUnit:    tempUnit,
		windUnit:    windUnit,
		logger:      logger,
	}
}

type forecastResponse struct {
	Current struct {
		Temperature         float64 `json:"temperature_2m"`
		WeatherCode         int     `json:"weathercode"`
		WindSpeed           float64 `json:"windspeed_10m"`
		RelativeHumidity    int     `json:"relative_humidity_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		WindDirection       int     `json:"wind_direction_10m"`
		WindGusts           float64 `json:"wind_gusts_10m"`
		UVIndex             float64 `json:"uv_index"`
		Visibility          float64 `json:"visibility"`
		SurfacePressure     float64 `json:"surface_pressure"`
		CloudCover          int     `json:"cloud_cover"`
	} `json:"current"`
	Hourly struct {
		Time                     []string  `json:"time"`
		Temperature              []float64 `json:"temperature_2m"`
		WeatherCode              []int     `json:"weathercode"`
		PrecipitationProbability []int     `json:"precipitation_probability"`
	} `json:"hourly"`
	Daily struct {
		Time           []string  `json:"time"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		WeatherCode    []int     `json:"weathercode"`
		Sunrise        []string  `json:"sunrise"`
		Sunset         []string  `json:"sunset"`
	} `json:"daily"`
}

// FetchWeather returns current conditions, a 12 hour forecast, and a 7 day
// outlook for the coordinate.
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64) (*domain.WeatherData, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(lat))
	q.Set("longitude", formatCoord(lon))
	q.Set("current", "temperature_2m,weathercode,windspeed_10m,relative_humidity_2m,apparent_temperature,wind_direction_10m,wind_gusts_10m,uv_index,visibility,surface_pressure,cloud_cover")
	q.Set("hourly", "temperature_2m,weathercode,precipitation_probability")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,weathercode,sunrise,sunset")
	q.Set("temperature_unit", c.tempUnit)
	q.Set("windspeed_unit", c.windUnit)
	q.Set("timezone", "auto")
	q.Set("forecast_days", "7")
	q.Set("forecast_hours", "24")

	var data forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"?"+q.Encode(), &data); err != nil {
		return nil, err
	}

	hourly := make([]domain.HourlyForecast, 0, hourlyHorizon)
	for i := range data.Hourly.Time {
		if i == hourlyHorizon ||
			i >= len(data.Hourly.Temperature) ||
			i >= len(data.Hourly.WeatherCode) ||
			i >= len(data.Hourly.PrecipitationProbability) {
			break
		}
		hourly = append(hourly, domain.HourlyForecast{
			Time:                     data.Hourly.Time[i],
			Temperature:              data.Hourly.Temperature[i],
			WeatherCode:              data.Hourly.WeatherCode[i],
			PrecipitationProbability: data.Hourly.PrecipitationProbability[i],
		})
	}

	forecast := make([]domain.DailyForecast, 0, len(data.Daily.Time))
	for i := range data.Daily.Time {
		if i >= len(data.Daily.TemperatureMax) ||
			i >= len(data.Daily.TemperatureMin) ||
			i >= len(data.Daily.WeatherCode) ||
			i >= len(data.Daily.Sunrise) ||
			i >= len(data.Daily.Sunset) {
			break
		}
		forecast = append(forecast, domain.DailyForecast{
			Date:        data.Daily.Time[i],
			TempMax:     data.Daily.TemperatureMax[i],
			TempMin:     data.Daily.TemperatureMin[i],
			WeatherCode: data.Daily.WeatherCode[i],
			Sunrise:     data.Daily.Sunrise[i],
			Sunset:      data.Daily.Sunset[i],
		})
	}

	c.logger.Debug("weather fetched", "hours", len(hourly), "days", len(forecast))

	return &domain.WeatherData{
		Current: domain.CurrentWeather{
			Temperature:   data.Current.Temperature,
			WeatherCode:   data.Current.WeatherCode,
			WindSpeed:     data.Current.WindSpeed,
			Humidity:      data.Current.RelativeHumidity,
			FeelsLike:     data.Current.ApparentTemperature,
			WindDirection: data.Current.WindDirection,
			WindGusts:     data.Current.WindGusts,
			UVIndex:       data.Current.UVIndex,
			Visibility:    data.Current.Visibility,
			Pressure:      data.Current.SurfacePressure,
			CloudCover:    data.Current.CloudCover,
		},
		Hourly:   hourly,
		Forecast: forecast,
	}, nil
}

type airQualityResponse struct {
	Current struct {
		USAQI           *int    `json:"us_aqi"`
		EuropeanAQI     *int    `json:"european_aqi"`
		PM25            float64 `json:"pm2_5"`
		PM10            float64 `json:"pm10"`
		Ozone           float64 `json:"ozone"`
		NitrogenDioxide float64 `json:"nitrogen_dioxide"`
		CarbonMonoxide  float64 `json:"carbon_monoxide"`
	} `json:"current"`
}

// FetchAirQuality returns the current air quality at the coordinate, on the
// AQI scale conventionally used there.
func (c *Client) FetchAirQuality(ctx context.Context, lat, lon float64) (*domain.AirQualityData, error) {
	q := url.Values{}
	q.Set("latitude", formatCoord(lat))
	q.Set("longitude", formatCoord(lon))
	q.Set("current", "us_aqi,european_aqi,pm2_5,pm10,ozone,nitrogen_dioxide,carbon_monoxide")
	q.Set("timezone", "auto")

	var data airQualityResponse
	if err := c.getJSON(ctx, c.airURL+"?"+q.Encode(), &data); err != nil {
		return nil, err
	}

	standard := domain.AQIStandardFor(lat, lon)
	var aqi int
	if standard == domain.AQIStandardEuropean {
		if data.Current.EuropeanAQI != nil {
			aqi = *data.Current.EuropeanAQI
		}
	} else if data.Current.USAQI != nil {
		aqi = *data.Current.USAQI
	}

	return &domain.AirQualityData{
		AQI:             aqi,
		Standard:        standard,
		PM25:            data.Current.PM25,
		PM10:            data.Current.PM10,
		Ozone:           data.Current.Ozone,
		NitrogenDioxide: data.Current.NitrogenDioxide,
		CarbonMonoxide:  data.Current.CarbonMonoxide,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.NewProviderError(providerName, domain.ErrorNetwork, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewProviderError(providerName, domain.ErrorNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.NewProviderError(providerName, domain.ErrorProtocol,
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewProviderError(providerName, domain.ErrorParse, err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
