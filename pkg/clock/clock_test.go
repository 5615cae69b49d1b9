package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_Advance(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Fires Crossed Deadline", func(t *testing.T) {
		c := NewFake(start)
		tk := c.NewTicker(time.Minute)

		c.Advance(30 * time.Second)
		select {
		case <-tk.C():
			t.Fatal("ticker fired before its deadline")
		default:
		}

		c.Advance(30 * time.Second)
		select {
		case got := <-tk.C():
			assert.Equal(t, start.Add(time.Minute), got)
		default:
			t.Fatal("expected a tick after one interval")
		}
		assert.Equal(t, start.Add(time.Minute), c.Now())
	})

	t.Run("Drops Ticks For Slow Receivers", func(t *testing.T) {
		c := NewFake(start)
		tk := c.NewTicker(time.Minute)

		c.Advance(5 * time.Minute)

		got := <-tk.C()
		assert.Equal(t, start.Add(time.Minute), got)
		select {
		case <-tk.C():
			t.Fatal("expected dropped ticks, got a second buffered tick")
		default:
		}
	})

	t.Run("Stop Unregisters", func(t *testing.T) {
		c := NewFake(start)
		tk := c.NewTicker(time.Minute)
		require.Equal(t, 1, c.Tickers())

		tk.Stop()
		assert.Equal(t, 0, c.Tickers())

		c.Advance(time.Hour)
		select {
		case <-tk.C():
			t.Fatal("stopped ticker fired")
		default:
		}
	})
}

func TestFake_Set(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewFake(start)
	tk := c.NewTicker(time.Minute)

	later := start.Add(24 * time.Hour)
	c.Set(later)
	assert.Equal(t, later, c.Now())

	select {
	case <-tk.C():
		t.Fatal("Set must not fire tickers")
	default:
	}
}

func TestReal(t *testing.T) {
	c := Real()
	before := time.Now()
	assert.False(t, c.Now().Before(before))

	tk := c.NewTicker(5 * time.Millisecond)
	defer tk.Stop()

	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never fired")
	}
}
