package scene

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/baseplate/internal/assets"
	"github.com/annel0/baseplate/internal/layout"
)

const testOBJ = `v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
f 1 2 3 4
`

func mustGrid(t *testing.T, width, length float64) *layout.Grid {
	t.Helper()
	grid, err := layout.ComputePlacements(width, length, 4, 0)
	if err != nil {
		t.Fatalf("Не удалось вычислить раскладку: %v", err)
	}
	return grid
}

func TestAssembleBoxTiles(t *testing.T) {
	asm := NewAssembler(TileBox, nil, 42)
	grid := mustGrid(t, 20, 20)

	sc, err := asm.Assemble(context.Background(), grid)
	if err != nil {
		t.Fatalf("Неожиданная ошибка сборки: %v", err)
	}

	if len(sc.Tiles) != 25 {
		t.Errorf("Ожидалось 25 тайлов, получено %d", len(sc.Tiles))
	}
	if sc.FailedTiles != 0 {
		t.Errorf("В режиме box не должно быть пропущенных тайлов, получено %d", sc.FailedTiles)
	}

	for i, tile := range sc.Tiles {
		if tile.Kind != TileBox {
			t.Fatalf("Тайл %d имеет тип %s, ожидался box", i, tile.Kind)
		}
		if tile.Size != 4 {
			t.Fatalf("Тайл %d имеет размер %v, ожидалось 4", i, tile.Size)
		}
		// Тайлы принимают тени, но не отбрасывают их
		if tile.CastShadow || !tile.ReceiveShadow {
			t.Fatalf("Тайл %d: cast=%v receive=%v", i, tile.CastShadow, tile.ReceiveShadow)
		}
		if tile.Elevation < 0 || tile.Elevation > 1 {
			t.Fatalf("Тайл %d: рельеф %v вне диапазона [0,1]", i, tile.Elevation)
		}
	}
}

func TestAssembleDeterministicElevation(t *testing.T) {
	grid := mustGrid(t, 40, 40)

	first, err := NewAssembler(TileBox, nil, 7).Assemble(context.Background(), grid)
	if err != nil {
		t.Fatalf("Неожиданная ошибка сборки: %v", err)
	}
	second, err := NewAssembler(TileBox, nil, 7).Assemble(context.Background(), grid)
	if err != nil {
		t.Fatalf("Неожиданная ошибка сборки: %v", err)
	}

	for i := range first.Tiles {
		if first.Tiles[i].Elevation != second.Tiles[i].Elevation {
			t.Fatalf("Одинаковый сид дал разный рельеф для тайла %d", i)
		}
	}
}

func TestAssembleAssetTiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tile.obj")
	if err := os.WriteFile(path, []byte(testOBJ), 0644); err != nil {
		t.Fatalf("Не удалось записать модель: %v", err)
	}

	asm := NewAssembler(TileAsset, assets.NewModelLoader(path), 42)
	grid := mustGrid(t, 20, 20)

	sc, err := asm.Assemble(context.Background(), grid)
	if err != nil {
		t.Fatalf("Неожиданная ошибка сборки: %v", err)
	}

	if len(sc.Tiles) != 25 {
		t.Errorf("Ожидалось 25 тайлов, получено %d", len(sc.Tiles))
	}

	// Порядок детерминированный несмотря на произвольный порядок загрузок
	for i, tile := range sc.Tiles {
		if tile.Cell.Index(sc.Columns) != i {
			t.Fatalf("Тайл %d стоит не на своём месте: %v", i, tile.Cell)
		}
		if tile.Kind != TileAsset || tile.Model != "tile" {
			t.Fatalf("Тайл %d: kind=%s model=%q", i, tile.Kind, tile.Model)
		}
	}
}

func TestAssembleAssetFailureSkipsTiles(t *testing.T) {
	// Отсутствующая модель: тайлы пропускаются, сборка не прерывается
	asm := NewAssembler(TileAsset, assets.NewModelLoader(filepath.Join(t.TempDir(), "missing.obj")), 42)
	grid := mustGrid(t, 20, 20)

	sc, err := asm.Assemble(context.Background(), grid)
	if err != nil {
		t.Fatalf("Ошибка ассета не должна прерывать сборку: %v", err)
	}

	if len(sc.Tiles) != 0 {
		t.Errorf("Ожидалось 0 тайлов, получено %d", len(sc.Tiles))
	}
	if sc.FailedTiles != 25 {
		t.Errorf("Ожидалось 25 пропущенных тайлов, получено %d", sc.FailedTiles)
	}
}

func TestAssembleCancelled(t *testing.T) {
	asm := NewAssembler(TileBox, nil, 42)
	grid := mustGrid(t, 100, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := asm.Assemble(ctx, grid); err != context.Canceled {
		t.Errorf("Ожидалась context.Canceled, получено %v", err)
	}
}

func TestCameraCoversPlate(t *testing.T) {
	asm := NewAssembler(TileBox, nil, 42)
	grid := mustGrid(t, 100, 48)

	sc, err := asm.Assemble(context.Background(), grid)
	if err != nil {
		t.Fatalf("Неожиданная ошибка сборки: %v", err)
	}

	// Камера нацелена на центр и отодвинута на полтора следа плиты
	if sc.Camera.Target.X != 0 || sc.Camera.Target.Z != 0 {
		t.Errorf("Камера нацелена на %v, ожидался центр плиты", sc.Camera.Target)
	}
	if sc.Camera.Distance != 150 {
		t.Errorf("Ожидалась дистанция 150, получено %v", sc.Camera.Distance)
	}
}
