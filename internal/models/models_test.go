package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupCategory(t *testing.T) {
	t.Run("Known", func(t *testing.T) {
		c, ok := LookupCategory(CategoryMedical)
		assert.True(t, ok)
		assert.Equal(t, "Tıbbi Malzemeler", c.Name)
		assert.Equal(t, "#E57373", c.Color)
	})

	t.Run("Unknown", func(t *testing.T) {
		c, ok := LookupCategory("Su ve İçecek")
		assert.False(t, ok)
		assert.Equal(t, "Su ve İçecek", c.ID)
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Icon)
		assert.NotEmpty(t, c.Color)
	})

	t.Run("FixedSet", func(t *testing.T) {
		all := Categories()
		assert.Len(t, all, 9)
		for _, c := range all {
			assert.True(t, IsKnownCategory(c.ID), c.ID)
		}
		all[0].Name = "mutated"
		assert.Equal(t, "Su ve İçecekler", Categories()[0].Name)
	})
}

func TestTranslateUnit(t *testing.T) {
	tests := map[string]string{
		"pcs":    "adet",
		"box":    "kutu",
		"bottle": "şişe",
		"L":      "L",
		"bidon":  "bidon",
		"":       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, TranslateUnit(in), in)
	}
}

func TestItemPatchIsEmpty(t *testing.T) {
	assert.True(t, ItemPatch{}.IsEmpty())

	checked := true
	assert.False(t, ItemPatch{IsChecked: &checked}.IsEmpty())

	empty := ""
	assert.False(t, ItemPatch{ExpirationDate: &empty}.IsEmpty())
}

func TestItemHasExpiration(t *testing.T) {
	assert.False(t, Item{}.HasExpiration())
	assert.True(t, Item{ExpirationDate: "2026-01-01"}.HasExpiration())
}
