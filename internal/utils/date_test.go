package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDateScan(t *testing.T) {
	want := NewLocalDate(2026, time.September, 30)

	t.Run("Time", func(t *testing.T) {
		var ld LocalDate
		require.NoError(t, ld.Scan(time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC)))
		assert.True(t, ld.Equal(want))
	})

	t.Run("String", func(t *testing.T) {
		var ld LocalDate
		require.NoError(t, ld.Scan("2026-09-30T00:00:00Z"))
		assert.True(t, ld.Equal(want))
	})

	t.Run("Bytes", func(t *testing.T) {
		var ld LocalDate
		require.NoError(t, ld.Scan([]byte("2026-09-30")))
		assert.True(t, ld.Equal(want))
	})

	t.Run("ShortBytes", func(t *testing.T) {
		var ld LocalDate
		assert.Error(t, ld.Scan([]byte("2026")))
	})

	t.Run("ShortString", func(t *testing.T) {
		var ld LocalDate
		assert.Error(t, ld.Scan("2026"))
	})

	t.Run("Nil", func(t *testing.T) {
		var ld LocalDate
		require.NoError(t, ld.Scan(nil))
		assert.True(t, ld.IsZero())
	})
}

func TestLocalDateJSON(t *testing.T) {
	ld := NewLocalDate(2026, time.September, 30)

	b, err := ld.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2026-09-30"`, string(b))

	var parsed LocalDate
	require.NoError(t, parsed.UnmarshalJSON(b))
	assert.True(t, parsed.Equal(ld))

	var zero LocalDate
	b, err = zero.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `null`, string(b))
}
