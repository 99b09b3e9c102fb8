package util

import (
	"github.com/aquilax/go-perlin"
)

// ElevationNoise генерирует детерминированный рельефный шум для подкраски тайлов
type ElevationNoise struct {
	noise *perlin.Perlin
	scale float64
}

// NewElevationNoise создаёт генератор шума Перлина с указанным сидом
func NewElevationNoise(seed int64) *ElevationNoise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &ElevationNoise{
		noise: perlin.NewPerlin(alpha, beta, n, seed),
		scale: 0.05, // Настройка сглаженности рельефа
	}
}

// At возвращает значение шума для мировых координат тайла (от 0 до 1)
func (e *ElevationNoise) At(x, z float64) float64 {
	// Получаем значение шума (от -1 до 1)
	noise := e.noise.Noise2D(x*e.scale, z*e.scale)

	// Преобразуем в диапазон от 0 до 1
	return (noise + 1.0) / 2.0
}
