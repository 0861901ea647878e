package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RacingGame/vehiclectl/pkg/core"
)

func TestContext_Defaults(t *testing.T) {
	ctx := NewContext()

	assert.Equal(t, "No session loaded", ctx.GetSession().SessionName)
	assert.Equal(t, "No track loaded", ctx.GetTrack().Name)
	assert.False(t, ctx.Active())
	assert.Nil(t, ctx.LogAttrs())
}

func TestContext_StartEnd(t *testing.T) {
	ctx := NewContext()
	ctx.Observe(40)

	ctx.Start(&core.Session{SessionName: "race", TrackName: "oval"}, nil)
	assert.True(t, ctx.Active())
	assert.Zero(t, ctx.Tick(), "start rewinds the tick")
	assert.Equal(t, "oval", ctx.GetTrack().Name)

	attrs := ctx.LogAttrs()
	if assert.Len(t, attrs, 2) {
		assert.Equal(t, "session", attrs[0].Key)
		assert.Equal(t, "race", attrs[0].Value.String())
		assert.Equal(t, "oval", attrs[1].Value.String())
	}

	ctx.End()
	assert.False(t, ctx.Active())
	assert.Equal(t, "race", ctx.GetSession().SessionName)
}

func TestContext_ObserveIsMonotonic(t *testing.T) {
	ctx := NewContext()
	var wg sync.WaitGroup
	for i := uint(1); i <= 100; i++ {
		wg.Add(1)
		go func(n uint) {
			defer wg.Done()
			ctx.Observe(n)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, uint(100), ctx.Tick())

	ctx.Observe(3)
	assert.Equal(t, uint(100), ctx.Tick())
}
