package scene

import (
	"github.com/annel0/baseplate/internal/vec"
)

// TileKind определяет способ получения визуала тайла
type TileKind string

const (
	TileBox   TileKind = "box"   // генерируемый примитив
	TileAsset TileKind = "asset" // загружаемая внешняя модель
)

// Tile представляет одну ячейку базовой плиты.
// Тайлы принимают тени, но сами их не отбрасывают.
type Tile struct {
	Cell          vec.Vec2 `json:"cell"`
	Position      vec.Vec3 `json:"position"`
	Kind          TileKind `json:"kind"`
	Size          float64  `json:"size"`
	Elevation     float64  `json:"elevation"` // рельефная подкраска, от 0 до 1
	Model         string   `json:"model,omitempty"`
	CastShadow    bool     `json:"cast_shadow"`
	ReceiveShadow bool     `json:"receive_shadow"`
}
