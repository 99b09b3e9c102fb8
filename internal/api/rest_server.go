package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/baseplate/internal/config"
	"github.com/annel0/baseplate/internal/middleware"
	"github.com/annel0/baseplate/internal/plate"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API сервер и HTML-форму генерации плиты
type RestServer struct {
	router   *gin.Engine
	manager  *plate.Manager
	plateCfg config.PlateConfig
	port     string
	metrics  *ServerMetrics
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string         // порт для запуска сервера
	Manager  *plate.Manager // менеджер плиты
	PlateCfg config.PlateConfig
}

// NewRestServer создает новый REST API сервер
func NewRestServer(cfg Config) *RestServer {
	if cfg.Port == "" {
		cfg.Port = ":8088"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	otelRouter := otelgin.Middleware("baseplate_api")
	router.Use(otelRouter)

	promMw := middleware.NewPrometheusMiddleware("baseplate_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:   router,
		manager:  cfg.Manager,
		plateCfg: cfg.PlateCfg,
		port:     cfg.Port,
		metrics:  NewServerMetrics(),
	}

	// Настраиваем маршруты
	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// HTML-форма генерации
	rs.router.GET("/", rs.handleIndex)

	// Группа API
	api := rs.router.Group("/api")
	{
		api.POST("/plate/generate", rs.handleGenerate)
		api.GET("/plate", rs.handlePlate)
		api.GET("/plate/tiles", rs.handleTiles)
		api.GET("/plate/export", rs.handleExport)
		api.GET("/stats", rs.handleStats)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// GenerateRequest представляет запрос на регенерацию плиты
type GenerateRequest struct {
	Width  float64 `json:"width" binding:"required"`
	Length float64 `json:"length" binding:"required"`
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// indexHTML — минимальная форма: два числовых поля и кнопка генерации
const indexHTML = `<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<title>Baseplate</title>
</head>
<body>
<h1>Baseplate</h1>
<form id="plate-form">
  <label>Ширина: <input type="number" name="width" min="%.0f" max="%.0f" value="%.0f" required></label>
  <label>Длина: <input type="number" name="length" min="%.0f" max="%.0f" value="%.0f" required></label>
  <button type="submit">Сгенерировать</button>
</form>
<pre id="result"></pre>
<script>
document.getElementById('plate-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const form = new FormData(e.target);
  const resp = await fetch('/api/plate/generate', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({width: Number(form.get('width')), length: Number(form.get('length'))})
  });
  const body = await resp.json();
  document.getElementById('result').textContent = JSON.stringify(body, null, 2);
});
</script>
</body>
</html>
`

// handleIndex отдаёт HTML-форму с границами из конфигурации
func (rs *RestServer) handleIndex(c *gin.Context) {
	page := fmt.Sprintf(indexHTML,
		rs.plateCfg.GetMinDimension(), rs.plateCfg.GetMaxDimension(), rs.plateCfg.GetDefaultWidth(),
		rs.plateCfg.GetMinDimension(), rs.plateCfg.GetMaxDimension(), rs.plateCfg.GetDefaultLength(),
	)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// handleGenerate обрабатывает запрос на регенерацию плиты
func (rs *RestServer) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: требуются числовые width и length",
		})
		return
	}

	world, err := rs.manager.Regenerate(c.Request.Context(), req.Width, req.Length)
	if errors.Is(err, plate.ErrOutOfBounds) {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка сборки сцены",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Плита сгенерирована",
		Data:    worldSummary(world),
	})
}

// handlePlate возвращает сводку текущего мира
func (rs *RestServer) handlePlate(c *gin.Context) {
	world := rs.manager.Current()
	if world == nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Плита ещё не сгенерирована",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Текущая плита",
		Data:    worldSummary(world),
	})
}

// handleTiles возвращает полный список тайлов текущего мира
func (rs *RestServer) handleTiles(c *gin.Context) {
	world := rs.manager.Current()
	if world == nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Плита ещё не сгенерирована",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Тайлы текущей плиты",
		Data: map[string]interface{}{
			"generation_id": world.ID,
			"tiles":         world.Scene.Tiles,
			"total":         len(world.Scene.Tiles),
		},
	})
}

// handleExport отдаёт gzip-слепок текущего мира
func (rs *RestServer) handleExport(c *gin.Context) {
	world := rs.manager.Current()
	if world == nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Плита ещё не сгенерирована",
		})
		return
	}

	data, err := plate.ExportGzip(world)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка экспорта слепка",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=baseplate_%s.json.gz", world.ID))
	c.Data(http.StatusOK, "application/gzip", data)
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	// Текущая плита (если есть)
	if world := rs.manager.Current(); world != nil {
		stats["plate"] = worldSummary(world)
	}

	// Метрики сервера
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	stats["server"] = map[string]interface{}{
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.2f", memoryMB),
		"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
		"server_time": time.Now().Unix(),
	}

	// Детальная статистика памяти
	stats["memory_details"] = rs.metrics.GetDetailedMemoryStats()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// worldSummary собирает сводку мира для ответов API
func worldSummary(world *plate.World) map[string]interface{} {
	return map[string]interface{}{
		"generation_id": world.ID,
		"created_at":    world.CreatedAt.Unix(),
		"width":         world.Params.Width,
		"length":        world.Params.Length,
		"tile_size":     world.Params.TileSize,
		"plate_height":  world.Params.PlateHeight,
		"tile_mode":     world.Params.TileMode,
		"columns":       world.Scene.Columns,
		"rows":          world.Scene.Rows,
		"tiles":         len(world.Scene.Tiles),
		"failed_tiles":  world.Scene.FailedTiles,
	}
}

// Start запускает REST сервер
func (rs *RestServer) Start() error {
	return rs.router.Run(rs.port)
}

// Router возвращает gin-роутер (используется в тестах)
func (rs *RestServer) Router() *gin.Engine {
	return rs.router
}
