package tests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/annel0/baseplate/internal/config"
	"github.com/annel0/baseplate/internal/eventbus"
	"github.com/annel0/baseplate/internal/plate"
	"github.com/annel0/baseplate/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegenerationPublishesEvent(t *testing.T) {
	bus := eventbus.NewMemoryBus(16)
	cfg := config.PlateConfig{Seed: 7}
	mgr := plate.NewManager(cfg, scene.NewAssembler(scene.TileBox, nil, cfg.Seed), bus)
	defer mgr.Close()

	received := make(chan *eventbus.Envelope, 1)
	sub, err := bus.Subscribe(context.Background(),
		eventbus.Filter{Types: []string{eventbus.EventPlateGenerated}},
		func(ctx context.Context, ev *eventbus.Envelope) {
			received <- ev
		})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	world, err := mgr.Regenerate(context.Background(), 20, 20)
	require.NoError(t, err)

	select {
	case ev := <-received:
		assert.Equal(t, eventbus.EventPlateGenerated, ev.EventType)
		assert.Equal(t, world.ID, ev.CorrelationID)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.EqualValues(t, 5, payload["columns"])
		assert.EqualValues(t, 25, payload["tiles"])
	case <-time.After(2 * time.Second):
		t.Fatal("событие plate.generated не получено")
	}
}

func TestRejectedRequestPublishesEvent(t *testing.T) {
	bus := eventbus.NewMemoryBus(16)
	cfg := config.PlateConfig{Seed: 7}
	mgr := plate.NewManager(cfg, scene.NewAssembler(scene.TileBox, nil, cfg.Seed), bus)
	defer mgr.Close()

	received := make(chan *eventbus.Envelope, 1)
	sub, err := bus.Subscribe(context.Background(),
		eventbus.Filter{Types: []string{eventbus.EventPlateRejected}},
		func(ctx context.Context, ev *eventbus.Envelope) {
			received <- ev
		})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	_, err = mgr.Regenerate(context.Background(), 9000, 20)
	require.ErrorIs(t, err, plate.ErrOutOfBounds)

	select {
	case ev := <-received:
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.EqualValues(t, 9000, payload["width"])
		assert.NotEmpty(t, payload["reason"])
	case <-time.After(2 * time.Second):
		t.Fatal("событие plate.rejected не получено")
	}
}
