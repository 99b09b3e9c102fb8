package scene

import (
	"context"
	"sort"
	"sync"

	"github.com/annel0/baseplate/internal/assets"
	"github.com/annel0/baseplate/internal/layout"
	"github.com/annel0/baseplate/internal/logging"
	"github.com/annel0/baseplate/internal/util"
	"github.com/annel0/baseplate/internal/vec"
)

// Количество воркеров для параллельной загрузки ассетов тайлов
const assetWorkers = 8

// Assembler собирает сцену из раскладки тайлов.
// В режиме TileAsset каждый тайл получает собственную задачу загрузки,
// привязанную к контексту генерации: отменённая генерация не доносит
// результаты устаревших загрузок до новой сцены.
type Assembler struct {
	mode   TileKind
	loader *assets.ModelLoader // используется только в режиме TileAsset
	noise  *util.ElevationNoise
	logger *logging.Logger
}

// NewAssembler создаёт сборщик сцены для указанного режима тайлов
func NewAssembler(mode TileKind, loader *assets.ModelLoader, seed int64) *Assembler {
	return &Assembler{
		mode:   mode,
		loader: loader,
		noise:  util.NewElevationNoise(seed),
		logger: logging.GetSceneLogger(),
	}
}

// Assemble строит сцену по вычисленной раскладке. Ошибка загрузки ассета не
// прерывает сборку: такой тайл просто отсутствует, остальные размещаются.
// Отмена контекста прерывает сборку целиком.
func (a *Assembler) Assemble(ctx context.Context, grid *layout.Grid) (*Scene, error) {
	scene := &Scene{
		Camera:   a.cameraFor(grid),
		Lights:   defaultLights(),
		Columns:  grid.Columns,
		Rows:     grid.Rows,
		TileSize: grid.TileSize,
	}

	var err error
	switch a.mode {
	case TileAsset:
		scene.Tiles, scene.FailedTiles, err = a.assembleAssetTiles(ctx, grid)
	default:
		scene.Tiles, err = a.assembleBoxTiles(ctx, grid)
	}
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Сцена собрана: %dx%d, тайлов=%d, пропущено=%d",
		scene.Columns, scene.Rows, len(scene.Tiles), scene.FailedTiles)
	return scene, nil
}

// assembleBoxTiles строит генерируемые примитивы синхронно
func (a *Assembler) assembleBoxTiles(ctx context.Context, grid *layout.Grid) ([]Tile, error) {
	tiles := make([]Tile, 0, len(grid.Placements))
	for i, p := range grid.Placements {
		// Проверяем отмену раз в ряд, не на каждом тайле
		if i%grid.Columns == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tiles = append(tiles, a.buildTile(p, grid.TileSize, TileBox, ""))
	}
	return tiles, nil
}

// assembleAssetTiles загружает модель для каждого тайла пулом воркеров.
// Порядок завершения загрузок произволен; итоговый список сортируется
// по индексу ячейки для детерминированного результата.
func (a *Assembler) assembleAssetTiles(ctx context.Context, grid *layout.Grid) ([]Tile, int, error) {
	jobs := make(chan layout.Placement)
	results := make(chan Tile, len(grid.Placements))

	var failed int
	var failedMu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < assetWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				model, err := a.loader.Load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return // генерация отменена — результат никому не нужен
					}
					a.logger.Warn("Ассет тайла (%d,%d) не загружен: %v", p.Cell.X, p.Cell.Y, err)
					failedMu.Lock()
					failed++
					failedMu.Unlock()
					continue
				}
				results <- a.buildTile(p, grid.TileSize, TileAsset, model.Name)
			}
		}()
	}

	// Раздаём задачи; при отмене контекста прекращаем
	feedErr := func() error {
		defer close(jobs)
		for _, p := range grid.Placements {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}()

	wg.Wait()
	close(results)

	if feedErr != nil {
		return nil, 0, feedErr
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	tiles := make([]Tile, 0, len(grid.Placements))
	for tile := range results {
		tiles = append(tiles, tile)
	}
	sort.Slice(tiles, func(i, j int) bool {
		return tiles[i].Cell.Index(grid.Columns) < tiles[j].Cell.Index(grid.Columns)
	})

	return tiles, failed, nil
}

// buildTile создаёт тайл на вычисленной позиции.
// Тайлы принимают тени, но не отбрасывают их.
func (a *Assembler) buildTile(p layout.Placement, size float64, kind TileKind, model string) Tile {
	return Tile{
		Cell:          p.Cell,
		Position:      p.Position,
		Kind:          kind,
		Size:          size,
		Elevation:     a.noise.At(p.Position.X, p.Position.Z),
		Model:         model,
		CastShadow:    false,
		ReceiveShadow: true,
	}
}

// cameraFor строит орбитальную камеру, охватывающую всю плиту
func (a *Assembler) cameraFor(grid *layout.Grid) Camera {
	footprintX := float64(grid.Columns) * grid.TileSize
	footprintZ := float64(grid.Rows) * grid.TileSize

	largest := footprintX
	if footprintZ > largest {
		largest = footprintZ
	}

	target := vec.Vec3{}
	if len(grid.Placements) > 0 {
		target.Y = grid.Placements[0].Position.Y
	}

	return Camera{
		Target:   target,
		Distance: largest * 1.5,
		Yaw:      45,
		Pitch:    60,
	}
}

// defaultLights возвращает стандартное освещение: рассеянный свет и
// направленный источник, отбрасывающий тени на плиту
func defaultLights() []Light {
	return []Light{
		{Kind: LightAmbient, Intensity: 0.4},
		{
			Kind:       LightDirectional,
			Intensity:  0.8,
			Direction:  vec.Vec3{X: -1, Y: -2, Z: -1},
			CastShadow: true,
		},
	}
}
