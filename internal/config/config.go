package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Plate    PlateConfig    `yaml:"plate"`
	Assets   AssetsConfig   `yaml:"assets"`
	EventBus EventBusConfig `yaml:"eventbus"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// PlateConfig описывает параметры базовой плиты и границы UI-формы
type PlateConfig struct {
	DefaultWidth  float64 `yaml:"default_width"`
	DefaultLength float64 `yaml:"default_length"`
	TileSize      float64 `yaml:"tile_size"`
	PlateHeight   float64 `yaml:"plate_height"`
	MinDimension  float64 `yaml:"min_dimension"`
	MaxDimension  float64 `yaml:"max_dimension"`
	TileMode      string  `yaml:"tile_mode"` // "box" или "asset"
	Seed          int64   `yaml:"seed"`
}

type AssetsConfig struct {
	ModelPath string `yaml:"model_path"`
}

type EventBusConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "BASEPLATE_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "BASEPLATE_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// GetDefaultWidth возвращает ширину плиты по умолчанию
func (p *PlateConfig) GetDefaultWidth() float64 {
	if p.DefaultWidth > 0 {
		return p.DefaultWidth
	}
	return 100
}

// GetDefaultLength возвращает длину плиты по умолчанию
func (p *PlateConfig) GetDefaultLength() float64 {
	if p.DefaultLength > 0 {
		return p.DefaultLength
	}
	return 100
}

// GetTileSize возвращает размер тайла (по умолчанию 4 мировых единицы)
func (p *PlateConfig) GetTileSize() float64 {
	if p.TileSize > 0 {
		return p.TileSize
	}
	return 4
}

// GetPlateHeight возвращает фиксированную высоту размещения тайлов
func (p *PlateConfig) GetPlateHeight() float64 {
	return p.PlateHeight
}

// GetMinDimension возвращает нижнюю границу размеров из UI-формы
func (p *PlateConfig) GetMinDimension() float64 {
	if p.MinDimension > 0 {
		return p.MinDimension
	}
	return 20
}

// GetMaxDimension возвращает верхнюю границу размеров из UI-формы
func (p *PlateConfig) GetMaxDimension() float64 {
	if p.MaxDimension > 0 {
		return p.MaxDimension
	}
	return 500
}

// GetTileMode возвращает режим тайлов: "box" (генерируемые) или "asset" (загружаемые)
func (p *PlateConfig) GetTileMode() string {
	if p.TileMode == "asset" {
		return "asset"
	}
	return "box"
}

// GetBufferSize возвращает размер буфера шины событий
func (e *EventBusConfig) GetBufferSize() int {
	if e.BufferSize > 0 {
		return e.BufferSize
	}
	return 1024
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV BASEPLATE_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BASEPLATE_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
