package metadata

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registryContract runs the behaviour every backend must share
func registryContract(t *testing.T, newRegistry func(autoRegister bool) Registry) {
	ctx := context.Background()

	t.Run("register_get_list", func(t *testing.T) {
		r := newRegistry(false)
		defer func() { _ = r.Close() }()

		require.NoError(t, r.Register(ctx, &Device{ID: "kitchen", Name: "Kitchen"}))
		require.NoError(t, r.Register(ctx, &Device{ID: "attic"}))

		err := r.Register(ctx, &Device{ID: "kitchen"})
		assert.True(t, errors.Is(err, ErrDeviceExists), "got %v", err)

		dev, err := r.Get(ctx, "kitchen")
		require.NoError(t, err)
		assert.Equal(t, "Kitchen", dev.Name)
		assert.False(t, dev.CreatedAt.IsZero())
		assert.Nil(t, dev.LastSeen)

		devices, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, devices, 2)
		assert.Equal(t, "attic", devices[0].ID)
		assert.Equal(t, "kitchen", devices[1].ID)
	})

	t.Run("invalid_id", func(t *testing.T) {
		r := newRegistry(true)
		defer func() { _ = r.Close() }()

		assert.ErrorIs(t, r.Register(ctx, &Device{ID: "a/b"}), ErrInvalidDeviceID)
		assert.ErrorIs(t, r.Track(ctx, "", 1, time.Now()), ErrInvalidDeviceID)
	})

	t.Run("get_missing", func(t *testing.T) {
		r := newRegistry(false)
		defer func() { _ = r.Close() }()

		_, err := r.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrDeviceNotFound)
		assert.ErrorIs(t, r.Delete(ctx, "nope"), ErrDeviceNotFound)
		assert.ErrorIs(t, r.Update(ctx, &Device{ID: "nope"}), ErrDeviceNotFound)
	})

	t.Run("update_keeps_counters", func(t *testing.T) {
		r := newRegistry(true)
		defer func() { _ = r.Close() }()

		seen := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, r.Track(ctx, "lab", 5, seen))
		require.NoError(t, r.Update(ctx, &Device{
			ID:     "lab",
			Name:   "Lab",
			Labels: map[string]string{"floor": "2"},
		}))

		dev, err := r.Get(ctx, "lab")
		require.NoError(t, err)
		assert.Equal(t, "Lab", dev.Name)
		assert.Equal(t, "2", dev.Labels["floor"])
		assert.Equal(t, int64(5), dev.ReadingCount)
		require.NotNil(t, dev.LastSeen)
		assert.True(t, dev.LastSeen.Equal(seen))
	})

	t.Run("track_auto_register", func(t *testing.T) {
		r := newRegistry(true)
		defer func() { _ = r.Close() }()

		older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := older.Add(time.Hour)
		require.NoError(t, r.Track(ctx, "greenhouse", 3, newer))
		require.NoError(t, r.Track(ctx, "greenhouse", 2, older))

		dev, err := r.Get(ctx, "greenhouse")
		require.NoError(t, err)
		assert.Equal(t, int64(5), dev.ReadingCount)
		require.NotNil(t, dev.LastSeen)
		assert.True(t, dev.LastSeen.Equal(newer), "last_seen must not move backwards")
	})

	t.Run("track_without_auto_register", func(t *testing.T) {
		r := newRegistry(false)
		defer func() { _ = r.Close() }()

		assert.ErrorIs(t, r.Track(ctx, "ghost", 1, time.Now()), ErrDeviceNotFound)
	})

	t.Run("settings", func(t *testing.T) {
		r := newRegistry(false)
		defer func() { _ = r.Close() }()

		require.NoError(t, r.Register(ctx, &Device{ID: "cellar"}))
		dev, err := r.Get(ctx, "cellar")
		require.NoError(t, err)
		assert.Nil(t, dev.Settings)
		assert.Equal(t, DefaultSettings(), dev.EffectiveSettings())

		want := Settings{TargetTemp: 12.5, TargetHum: 70, LogInterval: 60}
		require.NoError(t, r.UpdateSettings(ctx, "cellar", want))
		require.NoError(t, r.Track(ctx, "cellar", 4, time.Now()))

		dev, err = r.Get(ctx, "cellar")
		require.NoError(t, err)
		require.NotNil(t, dev.Settings)
		assert.Equal(t, want, *dev.Settings)
		assert.Equal(t, int64(4), dev.ReadingCount)

		assert.ErrorIs(t, r.UpdateSettings(ctx, "ghost", want), ErrDeviceNotFound)
		assert.ErrorIs(t, r.UpdateSettings(ctx, "cellar", Settings{TargetHum: 120, LogInterval: 5}), ErrInvalidSettings)
	})

	t.Run("settings_auto_register", func(t *testing.T) {
		r := newRegistry(true)
		defer func() { _ = r.Close() }()

		require.NoError(t, r.UpdateSettings(ctx, "shed", DefaultSettings()))
		dev, err := r.Get(ctx, "shed")
		require.NoError(t, err)
		assert.Equal(t, DefaultSettings(), dev.EffectiveSettings())
	})

	t.Run("ping", func(t *testing.T) {
		r := newRegistry(false)
		defer func() { _ = r.Close() }()

		assert.NoError(t, r.Ping(ctx))
	})

	t.Run("delete", func(t *testing.T) {
		r := newRegistry(false)
		defer func() { _ = r.Close() }()

		require.NoError(t, r.Register(ctx, &Device{ID: "d1"}))
		require.NoError(t, r.Delete(ctx, "d1"))
		_, err := r.Get(ctx, "d1")
		assert.ErrorIs(t, err, ErrDeviceNotFound)
	})
}

func TestMemoryRegistry(t *testing.T) {
	registryContract(t, func(autoRegister bool) Registry {
		return NewMemoryRegistry(autoRegister)
	})
}

func TestMemoryRegistry_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(false)
	require.NoError(t, r.Register(ctx, &Device{ID: "a", Labels: map[string]string{"k": "v"}}))

	dev, err := r.Get(ctx, "a")
	require.NoError(t, err)
	dev.Labels["k"] = "changed"
	dev.Name = "changed"

	again, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v", again.Labels["k"])
	assert.Empty(t, again.Name)
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
	assert.ErrorIs(t, Settings{TargetTemp: math.NaN(), TargetHum: 50, LogInterval: 30}.Validate(), ErrInvalidSettings)
	assert.ErrorIs(t, Settings{TargetHum: -1, LogInterval: 30}.Validate(), ErrInvalidSettings)
	assert.ErrorIs(t, Settings{TargetHum: 50}.Validate(), ErrInvalidSettings)
}

func TestMemoryRegistry_PingCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewMemoryRegistry(false).Ping(ctx), context.Canceled)
}

func TestValidateDeviceID(t *testing.T) {
	valid := []string{"a", "sensor-01", "room_2.north", "ABC"}
	for _, id := range valid {
		assert.NoError(t, ValidateDeviceID(id), id)
	}

	invalid := []string{"", "a b", "x/y", "über", string(make([]byte, 65))}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidateDeviceID(id), ErrInvalidDeviceID, id)
	}
}
