package assets

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/annel0/baseplate/internal/vec"
)

// Model представляет разобранную геометрию внешнего ассета тайла
type Model struct {
	Name      string
	Vertices  []vec.Vec3
	FaceCount int
	Min       vec.Vec3 // Габариты модели (bounding box)
	Max       vec.Vec3
}

// ModelLoader загружает и кеширует единственный файл модели (Wavefront OBJ).
// Формат файла принадлежит внешнему рендереру; здесь разбирается только
// геометрия, достаточная для размещения тайла. Загрузчик безопасен для
// конкурентных вызовов: модель разбирается один раз, дальше отдаётся из кеша.
type ModelLoader struct {
	path   string
	mu     sync.Mutex
	cached *Model
}

// NewModelLoader создаёт загрузчик для указанного пути модели
func NewModelLoader(path string) *ModelLoader {
	return &ModelLoader{path: path}
}

// Load возвращает модель, разбирая файл при первом обращении.
// Контекст проверяется до начала работы: отменённая генерация не трогает диск.
func (ml *ModelLoader) Load(ctx context.Context) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.cached != nil {
		return ml.cached, nil
	}

	model, err := parseOBJ(ml.path)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить модель %s: %w", ml.path, err)
	}

	ml.cached = model
	return model, nil
}

// parseOBJ читает вершины и грани из OBJ-файла
func parseOBJ(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	model := &Model{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("строка %d: вершина требует 3 координаты", lineNo)
			}
			v, err := parseVertex(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("строка %d: %w", lineNo, err)
			}
			if len(model.Vertices) == 0 {
				model.Min, model.Max = v, v
			} else {
				model.Min = minVec(model.Min, v)
				model.Max = maxVec(model.Max, v)
			}
			model.Vertices = append(model.Vertices, v)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("строка %d: грань требует минимум 3 вершины", lineNo)
			}
			model.FaceCount++
		}
		// Остальные директивы (vn, vt, o, usemtl…) для размещения не нужны
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(model.Vertices) == 0 {
		return nil, fmt.Errorf("модель не содержит вершин")
	}

	return model, nil
}

func parseVertex(fields []string) (vec.Vec3, error) {
	var coords [3]float64
	for i, f := range fields {
		val, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("неверная координата %q", f)
		}
		coords[i] = val
	}
	return vec.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func minVec(a, b vec.Vec3) vec.Vec3 {
	if b.X < a.X {
		a.X = b.X
	}
	if b.Y < a.Y {
		a.Y = b.Y
	}
	if b.Z < a.Z {
		a.Z = b.Z
	}
	return a
}

func maxVec(a, b vec.Vec3) vec.Vec3 {
	if b.X > a.X {
		a.X = b.X
	}
	if b.Y > a.Y {
		a.Y = b.Y
	}
	if b.Z > a.Z {
		a.Z = b.Z
	}
	return a
}
