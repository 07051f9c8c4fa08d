package expiry

import (
	"testing"
	"time"

	"depremkit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		exp       time.Time
		threshold int
		want      Verdict
	}{
		{"two days ago", time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), 7, Verdict{StatusExpired, -2}},
		{"yesterday", time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC), 7, Verdict{StatusExpired, -1}},
		{"today midnight", time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), 7, Verdict{StatusExpiring, 0}},
		{"23 hours ahead", now.Add(23 * time.Hour), 7, Verdict{StatusExpiring, 1}},
		{"at threshold", time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC), 7, Verdict{StatusExpiring, 7}},
		{"past threshold", time.Date(2026, 10, 22, 0, 0, 0, 0, time.UTC), 7, Verdict{StatusGood, 8}},
		{"thirty days", time.Date(2026, 11, 13, 0, 0, 0, 0, time.UTC), 30, Verdict{StatusExpiring, 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.exp, now, tt.threshold))
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	exp := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	first := Classify(exp, now, 7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(exp, now, 7))
	}
}

func TestClassifyDate(t *testing.T) {
	v, err := ClassifyDate("2026-10-12", now, 7)
	require.NoError(t, err)
	assert.Equal(t, Verdict{StatusExpired, -2}, v)

	v, err = ClassifyDate("2026-10-14", now, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusExpiring, v.Status)
	assert.Equal(t, 0, v.DaysDelta)

	_, err = ClassifyDate("", now, 7)
	assert.ErrorIs(t, err, ErrNoExpiration)

	_, err = ClassifyDate("14.10.2026", now, 7)
	assert.Error(t, err)
}

func TestClassifyDateUsesNowLocation(t *testing.T) {
	istanbul := time.FixedZone("TRT", 3*60*60)
	local := time.Date(2026, 10, 14, 1, 0, 0, 0, istanbul)

	v, err := ClassifyDate("2026-10-14", local, 7)
	require.NoError(t, err)
	assert.Equal(t, StatusExpiring, v.Status)
	assert.Equal(t, 0, v.DaysDelta)
}

func TestClassifyItem(t *testing.T) {
	_, err := ClassifyItem(models.Item{Name: "El Feneri"}, now, 7)
	assert.ErrorIs(t, err, ErrNoExpiration)

	v, err := ClassifyItem(models.Item{ExpirationDate: "2026-12-01"}, now, 30)
	require.NoError(t, err)
	assert.Equal(t, StatusGood, v.Status)
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsExpired("2026-10-13", now))
	assert.False(t, IsExpired("2026-10-14", now))
	assert.False(t, IsExpired("", now))

	assert.True(t, IsExpiringSoon("2026-10-14", now, 7))
	assert.True(t, IsExpiringSoon("2026-10-21", now, 7))
	assert.False(t, IsExpiringSoon("2026-10-22", now, 7))
	assert.False(t, IsExpiringSoon("2026-10-13", now, 7))

	assert.Equal(t, "2026-10-14", DateString(now))
	assert.Equal(t, "2026-11-13", AddDays(now, 30))
	assert.Equal(t, "2026-10-12", AddDays(now, -2))
}
