package plate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/baseplate/internal/config"
	"github.com/annel0/baseplate/internal/eventbus"
	"github.com/annel0/baseplate/internal/layout"
	"github.com/annel0/baseplate/internal/logging"
	"github.com/annel0/baseplate/internal/scene"
	"github.com/google/uuid"
)

// ErrOutOfBounds возвращается, когда запрошенные размеры выходят за границы формы
var ErrOutOfBounds = errors.New("plate: размеры вне допустимых границ")

// Params фиксирует входные параметры одной генерации
type Params struct {
	Width       float64        `json:"width"`
	Length      float64        `json:"length"`
	TileSize    float64        `json:"tile_size"`
	PlateHeight float64        `json:"plate_height"`
	TileMode    scene.TileKind `json:"tile_mode"`
}

// World — единственное значение, владеющее состоянием одной генерации:
// идентификатор, параметры, раскладка и собранная сцена. При регенерации
// мир заменяется целиком, а его контекст отменяется, чтобы незавершённые
// загрузки ассетов не дотянулись до уже снесённого состояния.
type World struct {
	ID        string       `json:"id"`
	Params    Params       `json:"params"`
	Scene     *scene.Scene `json:"scene"`
	CreatedAt time.Time    `json:"created_at"`

	cancel context.CancelFunc
}

// Manager владеет текущим миром и выполняет регенерацию
type Manager struct {
	mu        sync.RWMutex
	cfg       config.PlateConfig
	assembler *scene.Assembler
	bus       eventbus.EventBus
	logger    *logging.Logger
	current   *World
}

// NewManager создаёт менеджер плиты.
// bus может быть nil — события тогда не публикуются.
func NewManager(cfg config.PlateConfig, assembler *scene.Assembler, bus eventbus.EventBus) *Manager {
	return &Manager{
		cfg:       cfg,
		assembler: assembler,
		bus:       bus,
		logger:    logging.GetPlateLogger(),
	}
}

// Current возвращает активный мир (nil до первой генерации)
func (m *Manager) Current() *World {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Regenerate валидирует размеры, собирает новый мир и заменяет им текущий.
// Предыдущий мир отменяется после замены: его незавершённые задачи
// обнаруживают отмену и выбрасывают свои результаты.
func (m *Manager) Regenerate(ctx context.Context, width, length float64) (*World, error) {
	if err := m.validate(width, length); err != nil {
		m.publish(ctx, eventbus.EventPlateRejected, "", map[string]interface{}{
			"width":  width,
			"length": length,
			"reason": err.Error(),
		})
		return nil, err
	}

	params := Params{
		Width:       width,
		Length:      length,
		TileSize:    m.cfg.GetTileSize(),
		PlateHeight: m.cfg.GetPlateHeight(),
		TileMode:    scene.TileKind(m.cfg.GetTileMode()),
	}

	grid, err := layout.ComputePlacements(params.Width, params.Length, params.TileSize, params.PlateHeight)
	if err != nil {
		return nil, fmt.Errorf("вычисление раскладки: %w", err)
	}

	// Контекст мира живёт до следующей регенерации, а не до конца запроса
	worldCtx, cancel := context.WithCancel(context.Background())

	start := time.Now()
	sc, err := m.assembler.Assemble(worldCtx, grid)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("сборка сцены: %w", err)
	}

	world := &World{
		ID:        uuid.NewString(),
		Params:    params,
		Scene:     sc,
		CreatedAt: time.Now(),
		cancel:    cancel,
	}

	// Полная замена: старый мир отменяется, новый публикуется атомарно
	m.mu.Lock()
	previous := m.current
	m.current = world
	m.mu.Unlock()

	if previous != nil {
		previous.cancel()
	}

	m.logger.Info("🟩 Плита %s собрана: %.0fx%.0f, сетка %dx%d, тайлов=%d, за %s",
		world.ID, width, length, sc.Columns, sc.Rows, len(sc.Tiles), time.Since(start))

	m.publish(ctx, eventbus.EventPlateGenerated, world.ID, map[string]interface{}{
		"width":   width,
		"length":  length,
		"columns": sc.Columns,
		"rows":    sc.Rows,
		"tiles":   len(sc.Tiles),
		"failed":  sc.FailedTiles,
	})

	return world, nil
}

// Close отменяет текущий мир при остановке сервиса
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.cancel()
		m.current = nil
	}
}

// validate проверяет размеры против границ UI-формы.
// Калькулятор раскладки сюда не допускает невалидные значения.
func (m *Manager) validate(width, length float64) error {
	min := m.cfg.GetMinDimension()
	max := m.cfg.GetMaxDimension()

	if width < min || width > max {
		return fmt.Errorf("%w: ширина %v (допустимо %v–%v)", ErrOutOfBounds, width, min, max)
	}
	if length < min || length > max {
		return fmt.Errorf("%w: длина %v (допустимо %v–%v)", ErrOutOfBounds, length, min, max)
	}
	return nil
}

// publish отправляет событие жизненного цикла плиты в шину
func (m *Manager) publish(ctx context.Context, eventType, correlationID string, payload map[string]interface{}) {
	if m.bus == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		m.logger.Warn("Не удалось сериализовать событие %s: %v", eventType, err)
		return
	}

	ev := &eventbus.Envelope{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Source:        "plate_manager",
		EventType:     eventType,
		Version:       1,
		CorrelationID: correlationID,
		Priority:      5,
		Payload:       data,
	}

	if err := m.bus.Publish(ctx, ev); err != nil {
		m.logger.Warn("Не удалось опубликовать событие %s: %v", eventType, err)
	}
}
