package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/baseplate/internal/api"
	"github.com/annel0/baseplate/internal/assets"
	"github.com/annel0/baseplate/internal/config"
	"github.com/annel0/baseplate/internal/eventbus"
	"github.com/annel0/baseplate/internal/logging"
	"github.com/annel0/baseplate/internal/observability"
	"github.com/annel0/baseplate/internal/plate"
	"github.com/annel0/baseplate/internal/scene"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV BASEPLATE_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🟩 Запуск Baseplate Server...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{} // конфиг не задан — работаем на дефолтах
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	metricsPort := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	logging.Info("📡 Конфигурация сервера: REST API=%s, Metrics=%s, режим тайлов=%s",
		restPort, metricsPort, cfg.Plate.GetTileMode())

	// === OBSERVABILITY ===
	shutdownTelemetry, err := observability.InitTelemetry(context.Background(), "baseplate")
	if err != nil {
		// Телеметрия не критична для генерации плиты
		logging.Warn("OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === ШИНА СОБЫТИЙ ===
	bus := eventbus.NewMemoryBus(cfg.EventBus.GetBufferSize())
	eventbus.Init(bus)
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Error("❌ Ошибка подписки лог-листенера: %v", err)
	}

	busMetrics := eventbus.NewMetricsExporter(bus)
	busMetrics.StartHTTP(metricsPort)

	// === ИНИЦИАЛИЗАЦИЯ КОМПОНЕНТОВ ===
	tileMode := scene.TileKind(cfg.Plate.GetTileMode())

	var loader *assets.ModelLoader
	if tileMode == scene.TileAsset {
		loader = assets.NewModelLoader(cfg.Assets.ModelPath)
		logging.Info("📦 Режим ассетов: модель %s", cfg.Assets.ModelPath)
	}

	assembler := scene.NewAssembler(tileMode, loader, cfg.Plate.Seed)
	manager := plate.NewManager(cfg.Plate, assembler, bus)

	// Собираем стартовую плиту с дефолтными размерами
	if _, err := manager.Regenerate(context.Background(),
		cfg.Plate.GetDefaultWidth(), cfg.Plate.GetDefaultLength()); err != nil {
		logging.Error("❌ Ошибка стартовой генерации: %v", err)
		log.Fatalf("❌ Ошибка стартовой генерации: %v", err)
	}

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port:     restPort,
		Manager:  manager,
		PlateCfg: cfg.Plate,
	})

	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ Ошибка REST сервера: %v", err)
			log.Fatalf("❌ Ошибка REST сервера: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 Форма генерации: http://localhost%s/", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", metricsPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)
	logging.Info("💡 Примеры использования REST API:")
	logging.Info("   curl http://localhost%s/api/plate", restPort)
	logging.Info("   curl -X POST http://localhost%s/api/plate/generate -H 'Content-Type: application/json' -d '{\"width\":100,\"length\":100}'", restPort)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Ждем сигнала для завершения
	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	manager.Close()
	busMetrics.Stop()
	if err := shutdownTelemetry(context.Background()); err != nil {
		logging.Error("❌ Ошибка остановки телеметрии: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}
