package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const cubeOBJ = `# простой куб
v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
v -1 2 -1
v 1 2 -1
v 1 2 1
v -1 2 1
f 1 2 3 4
f 5 6 7 8
f 1 2 6 5
f 2 3 7 6
f 3 4 8 7
f 4 1 5 8
`

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tile.obj")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Не удалось записать тестовую модель: %v", err)
	}
	return path
}

func TestLoadParsesGeometry(t *testing.T) {
	loader := NewModelLoader(writeModel(t, cubeOBJ))

	model, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Неожиданная ошибка загрузки: %v", err)
	}

	if model.Name != "tile" {
		t.Errorf("Ожидалось имя tile, получено %q", model.Name)
	}
	if len(model.Vertices) != 8 {
		t.Errorf("Ожидалось 8 вершин, получено %d", len(model.Vertices))
	}
	if model.FaceCount != 6 {
		t.Errorf("Ожидалось 6 граней, получено %d", model.FaceCount)
	}
	if model.Min.Y != 0 || model.Max.Y != 2 {
		t.Errorf("Неверные габариты по Y: [%v, %v]", model.Min.Y, model.Max.Y)
	}
}

func TestLoadCachesModel(t *testing.T) {
	loader := NewModelLoader(writeModel(t, cubeOBJ))

	first, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Неожиданная ошибка загрузки: %v", err)
	}
	second, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Неожиданная ошибка повторной загрузки: %v", err)
	}

	if first != second {
		t.Error("Повторная загрузка должна отдавать модель из кеша")
	}
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewModelLoader(filepath.Join(t.TempDir(), "missing.obj"))

	if _, err := loader.Load(context.Background()); err == nil {
		t.Error("Ожидалась ошибка для отсутствующего файла")
	}
}

func TestLoadCancelledContext(t *testing.T) {
	loader := NewModelLoader(writeModel(t, cubeOBJ))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := loader.Load(ctx); err != context.Canceled {
		t.Errorf("Ожидалась context.Canceled, получено %v", err)
	}
}

func TestLoadRejectsEmptyModel(t *testing.T) {
	loader := NewModelLoader(writeModel(t, "# пустой файл\n"))

	if _, err := loader.Load(context.Background()); err == nil {
		t.Error("Ожидалась ошибка для модели без вершин")
	}
}
