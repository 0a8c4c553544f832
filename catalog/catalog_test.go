package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Name
	}
	return out
}

func sample() *Catalog {
	return Load([]Card{
		{Name: "Dragon", Series: "Myths", Element: "Fire", Role: "Tank"},
		{Name: "Dragon", Series: "Myths", Element: "Water", Role: "Healer"},
		{Name: "Dragonfly", Series: "Bugs", Element: "Fire", Role: "DPS", Iconic: true},
		{Name: "Rem", Series: "Re:Zero", Element: "Water", Role: "Support", ID: 77},
		{Name: "", Series: "ghost"},
	})
}

func TestLoadAssignsIDs(t *testing.T) {
	c := sample()
	require.Equal(t, 4, c.Len())

	card, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Dragon", card.Name)
	assert.Equal(t, "Fire", card.Element)

	card, ok = c.Get(77)
	require.True(t, ok)
	assert.Equal(t, "Rem", card.Name)

	_, ok = c.Get(5)
	assert.False(t, ok, "nameless records are skipped")
}

func TestLoadKeepsIDsUnique(t *testing.T) {
	c := Load([]Card{
		{Name: "Alpha"},
		{ID: 1, Name: "Beta"},
		{Name: "Gamma"},
		{ID: 1, Name: "Delta"},
		{ID: 3, Name: "Epsilon"},
	})
	require.Equal(t, 5, c.Len())

	seen := map[int]string{}
	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"} {
		found := c.Search(name)
		require.Len(t, found, 1, name)
		prev, dup := seen[found[0].ID]
		require.False(t, dup, "duplicate id %d: %q and %q", found[0].ID, prev, name)
		seen[found[0].ID] = name

		card, ok := c.Get(found[0].ID)
		require.True(t, ok)
		assert.Equal(t, name, card.Name)
	}

	beta, _ := c.Get(1)
	assert.Equal(t, "Beta", beta.Name, "explicit ids win over generated ones")
	epsilon, _ := c.Get(3)
	assert.Equal(t, "Epsilon", epsilon.Name)
	alpha, _ := c.Get(2)
	assert.Equal(t, "Alpha", alpha.Name)
}

func TestSearchIsCaseInsensitiveAndAcrossTerms(t *testing.T) {
	c := sample()

	hits := c.Search("drag fire")
	assert.Equal(t, []string{"Dragon", "Dragonfly"}, names(hits))
	assert.Equal(t, "Fire", hits[0].Element)

	assert.Equal(t, []string{"Dragon"}, names(c.Search("DRAGON water")))
	assert.Equal(t, []string{"Rem"}, names(c.Search("re:zero")))
	assert.Empty(t, c.Search("dragon earth"))
}

func TestSearchEmpty(t *testing.T) {
	assert.Empty(t, sample().Search("   "))
	assert.Empty(t, Load(nil).Search("dragon"))

	var nilCatalog *Catalog
	assert.Empty(t, nilCatalog.Search("dragon"))
}

func TestSearchMany(t *testing.T) {
	c := sample()
	require.True(t, IsMultiQuery("dragon, rem"))
	require.False(t, IsMultiQuery("dragon rem"))

	res := c.SearchMany("dragon water, nobody ,, rem")
	require.Len(t, res, 3)

	assert.True(t, res[0].Found)
	assert.Equal(t, "dragon water", res[0].Query)
	assert.Equal(t, "Healer", res[0].Card.Role)

	assert.False(t, res[1].Found)
	assert.Equal(t, "nobody", res[1].Query)

	assert.True(t, res[2].Found)
	assert.Equal(t, "Rem", res[2].Card.Name)
}

func TestDisplay(t *testing.T) {
	c := sample()
	fly := c.Search("dragonfly")[0]
	assert.Equal(t, "✨ Dragonfly", fly.DisplayName())
	assert.Equal(t, "Bugs | Fire DPS", fly.Summary())

	rem, _ := c.Get(77)
	assert.Equal(t, "Rem", rem.DisplayName())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	data := `[
		{"name": "Rem", "series": "Re:Zero", "element": "Water", "role": "Support", "image_url": "https://img/rem.png", "is_iconic": true},
		{"name": "Ram", "series": "Re:Zero", "element": "Wind", "role": "DPS", "id": 9}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	rem, ok := c.Get(1)
	require.True(t, ok)
	assert.True(t, rem.Iconic)
	assert.Equal(t, "https://img/rem.png", rem.ImageURL)

	_, ok = c.Get(9)
	assert.True(t, ok)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
