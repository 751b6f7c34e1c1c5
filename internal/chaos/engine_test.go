package chaos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/schema"
	"papertrade/internal/store"
)

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{FailRate: 1.5}.Validate())
	assert.Error(t, Config{MaxDelay: -time.Second}.Validate())
	assert.NoError(t, Config{FailRate: 0.5, MaxDelay: time.Millisecond}.Validate())
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{FailRate: 0.1}.Enabled())
}

func TestEngineFailRateExtremes(t *testing.T) {
	always, err := NewEngine(Config{Seed: 3, FailRate: 1})
	require.NoError(t, err)
	never, err := NewEngine(Config{Seed: 3})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.ErrorIs(t, always.Inject(t.Context(), "op"), ErrInjected)
		assert.NoError(t, never.Inject(t.Context(), "op"))
	}
	var nilEngine *Engine
	assert.NoError(t, nilEngine.Inject(t.Context(), "op"))
}

func TestEngineDelayHonorsContext(t *testing.T) {
	e, err := NewEngine(Config{Seed: 1, MaxDelay: time.Hour})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Inject(ctx, "op"), context.DeadlineExceeded)
}

func TestStoreFailsCommitsOnly(t *testing.T) {
	e, err := NewEngine(Config{Seed: 1, FailRate: 1})
	require.NoError(t, err)
	mem := store.NewMemory()
	s := Wrap(mem, e)

	acc := schema.Account{ID: "acc"}
	require.NoError(t, s.CreateAccount(t.Context(), acc))
	_, err = s.LoadAccount(t.Context(), "acc")
	require.NoError(t, err)

	assert.ErrorIs(t, s.CommitTrade(t.Context(), store.TradeCommit{Account: acc}), ErrInjected)
	assert.ErrorIs(t, s.CommitTransfer(t.Context(), store.TransferCommit{Account: acc}), ErrInjected)
	assert.ErrorIs(t, s.UpdateAccount(t.Context(), acc), ErrInjected)

	loaded, err := mem.LoadAccount(t.Context(), "acc")
	require.NoError(t, err)
	assert.Equal(t, int64(0), loaded.Version)
}
