package scene

import (
	"github.com/annel0/baseplate/internal/vec"
)

// Camera описывает орбитальную камеру, нацеленную на центр плиты
type Camera struct {
	Target   vec.Vec3 `json:"target"`
	Distance float64  `json:"distance"`
	Yaw      float64  `json:"yaw"`   // азимут, градусы
	Pitch    float64  `json:"pitch"` // наклон, градусы
}

// LightKind тип источника света
type LightKind string

const (
	LightAmbient     LightKind = "ambient"
	LightDirectional LightKind = "directional"
)

// Light описывает источник света сцены
type Light struct {
	Kind       LightKind `json:"kind"`
	Intensity  float64   `json:"intensity"`
	Direction  vec.Vec3  `json:"direction,omitempty"`
	CastShadow bool      `json:"cast_shadow"`
}

// Scene — собранный граф сцены одной генерации плиты.
// Значение строится целиком и после публикации не мутируется;
// новая генерация создаёт новую сцену (никаких частичных обновлений).
type Scene struct {
	Camera   Camera  `json:"camera"`
	Lights   []Light `json:"lights"`
	Tiles    []Tile  `json:"tiles"`
	Columns  int     `json:"columns"`
	Rows     int     `json:"rows"`
	TileSize float64 `json:"tile_size"`

	// FailedTiles — ячейки, чей ассет не загрузился; тайл просто отсутствует
	FailedTiles int `json:"failed_tiles"`
}
