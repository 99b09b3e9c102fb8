package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/annel0/baseplate/internal/api"
	"github.com/annel0/baseplate/internal/config"
	"github.com/annel0/baseplate/internal/eventbus"
	"github.com/annel0/baseplate/internal/plate"
	"github.com/annel0/baseplate/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	setupOnce  sync.Once
	testServer *api.RestServer
	testBus    eventbus.EventBus
	testMgr    *plate.Manager
)

// setup создаёт один общий стек (Prometheus-метрики регистрируются
// в глобальном регистре и не переживают повторное создание сервера)
func setup(t *testing.T) {
	t.Helper()
	setupOnce.Do(func() {
		cfg := config.PlateConfig{Seed: 42}
		testBus = eventbus.NewMemoryBus(64)
		asm := scene.NewAssembler(scene.TileBox, nil, cfg.Seed)
		testMgr = plate.NewManager(cfg, asm, testBus)
		testServer = api.NewRestServer(api.Config{
			Port:     ":0",
			Manager:  testMgr,
			PlateCfg: cfg,
		})
	})
}

func doJSON(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	testServer.Router().ServeHTTP(rec, req)
	return rec
}

func TestGenerateEndpoint(t *testing.T) {
	setup(t)

	rec := doJSON(t, http.MethodPost, "/api/plate/generate", map[string]float64{
		"width": 100, "length": 100,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.EqualValues(t, 25, resp.Data["columns"])
	assert.EqualValues(t, 25, resp.Data["rows"])
	assert.EqualValues(t, 625, resp.Data["tiles"])
	assert.NotEmpty(t, resp.Data["generation_id"])
}

func TestGenerateValidation(t *testing.T) {
	setup(t)

	// Размеры вне границ формы — понятное сообщение, без генерации
	rec := doJSON(t, http.MethodPost, "/api/plate/generate", map[string]float64{
		"width": 5, "length": 100,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "границ")

	// Нечисловой ввод отклоняется до калькулятора раскладки
	req := httptest.NewRequest(http.MethodPost, "/api/plate/generate",
		bytes.NewReader([]byte(`{"width":"wide","length":100}`)))
	req.Header.Set("Content-Type", "application/json")
	rec2 := httptest.NewRecorder()
	testServer.Router().ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestPlateAndTilesEndpoints(t *testing.T) {
	setup(t)

	// Гарантируем наличие плиты
	rec := doJSON(t, http.MethodPost, "/api/plate/generate", map[string]float64{
		"width": 20, "length": 20,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, http.MethodGet, "/api/plate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var plateResp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plateResp))
	assert.EqualValues(t, 5, plateResp.Data["columns"])

	rec = doJSON(t, http.MethodGet, "/api/plate/tiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tilesResp struct {
		Data struct {
			Tiles []scene.Tile `json:"tiles"`
			Total int          `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tilesResp))
	assert.Equal(t, 25, tilesResp.Data.Total)
	require.Len(t, tilesResp.Data.Tiles, 25)

	// Тайлы принимают тени, но не отбрасывают их
	for _, tile := range tilesResp.Data.Tiles {
		assert.True(t, tile.ReceiveShadow)
		assert.False(t, tile.CastShadow)
	}
}

func TestExportEndpoint(t *testing.T) {
	setup(t)

	rec := doJSON(t, http.MethodPost, "/api/plate/generate", map[string]float64{
		"width": 40, "length": 40,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, http.MethodGet, "/api/plate/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))

	snap, err := plate.ImportGzip(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 10, snap.World.Scene.Columns)
	assert.Len(t, snap.World.Scene.Tiles, 100)
}

func TestHealthEndpoint(t *testing.T) {
	setup(t)

	rec := doJSON(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestIndexForm(t *testing.T) {
	setup(t)

	rec := doJSON(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	// Форма содержит границы из конфигурации и оба числовых поля
	assert.Contains(t, body, `name="width"`)
	assert.Contains(t, body, `name="length"`)
	assert.Contains(t, body, `min="20"`)
	assert.Contains(t, body, `max="500"`)
}
