package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/baseplate/internal/vec"
)

// ErrInvalidDimensions возвращается при нарушении контракта входных данных
// (неположительные ширина/длина/размер тайла). Калькулятор не подставляет
// дефолты и не клампит — валидация границ UI лежит на вызывающей стороне.
var ErrInvalidDimensions = errors.New("layout: размеры должны быть положительными")

// Placement описывает одну ячейку сетки и мировую позицию центра её тайла
type Placement struct {
	Cell     vec.Vec2 `json:"cell"`     // колонка (X) и ряд (Y) ячейки
	Position vec.Vec3 `json:"position"` // центр тайла в мировых координатах
}

// Grid содержит вычисленную раскладку плиты
type Grid struct {
	Columns    int         `json:"columns"`
	Rows       int         `json:"rows"`
	TileSize   float64     `json:"tile_size"`
	Placements []Placement `json:"placements"`
}

// ComputePlacements вычисляет сетку тайлов, центрированную относительно начала
// координат. Количество колонок/рядов округляется вверх, поэтому итоговая
// плита покрывает не меньше чем width×length; все тайлы лежат на высоте
// plateHeight. Функция чистая: одинаковый вход даёт одинаковый результат.
func ComputePlacements(width, length, tileSize, plateHeight float64) (*Grid, error) {
	if width <= 0 || length <= 0 || tileSize <= 0 {
		return nil, fmt.Errorf("%w: width=%v length=%v tileSize=%v", ErrInvalidDimensions, width, length, tileSize)
	}

	columns := int(math.Ceil(width / tileSize))
	rows := int(math.Ceil(length / tileSize))

	// Смещение, центрирующее сетку: первый тайл встаёт на -offset
	offsetX := float64(columns)*tileSize/2 - tileSize/2
	offsetZ := float64(rows)*tileSize/2 - tileSize/2

	placements := make([]Placement, 0, columns*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < columns; col++ {
			placements = append(placements, Placement{
				Cell: vec.Vec2{X: col, Y: row},
				Position: vec.Vec3{
					X: float64(col)*tileSize - offsetX,
					Y: plateHeight,
					Z: float64(row)*tileSize - offsetZ,
				},
			})
		}
	}

	return &Grid{
		Columns:    columns,
		Rows:       rows,
		TileSize:   tileSize,
		Placements: placements,
	}, nil
}
