package staticdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dining-data-service/internal/domain"
)

func TestDefault(t *testing.T) {
	tables, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"Bear-Necessities", "Jansens-Market", "Marthas-Express"}, tables.MenuSlugs())
	assert.Equal(t, []string{"Grill", "Pizza", "Grab and Go"}, tables.HardcodedMenu("Bear-Necessities").Categories())
	assert.Nil(t, tables.HardcodedMenu("Okenshields"))

	external := tables.ExternalRecords()
	require.Len(t, external, 2)

	rec, err := domain.DecodeRecord(external[0])
	require.NoError(t, err)
	assert.Equal(t, int64(9001), rec.ID)
	assert.Equal(t, "Louies-Lunch", rec.Slug)
	assert.Equal(t, "North", rec.CampusArea)
	assert.Equal(t, "Cart", rec.EateryType)
	assert.Equal(t, "607-272-5000", rec.Phone)
	assert.Equal(t, []string{"Cash", "Major Credit Cards"}, rec.PayMethods)
	assert.Equal(t, []domain.MenuItem{{Name: "Fat Sandwich"}, {Name: "Grilled Cheese"}}, rec.DiningItems)
}

func TestDefault_ExternalBuildsEateries(t *testing.T) {
	tables, err := Default()
	require.NoError(t, err)

	rec, err := domain.DecodeRecord(tables.ExternalRecords()[1])
	require.NoError(t, err)
	e := domain.NewEatery(rec, tables.HardcodedMenu(rec.Slug), nil)

	assert.Equal(t, domain.TypeCafe, e.Type)
	assert.Equal(t, domain.AreaCentral, e.Area)
	assert.Equal(t, []domain.PaymentMethod{domain.PaymentBRB, domain.PaymentCornellCard, domain.PaymentCreditCard}, e.PaymentMethods)
	assert.False(t, e.HasDiningItems())
}

func TestParse_HealthyFlag(t *testing.T) {
	tables, err := Parse([]byte(`
menus:
  Cart:
    - category: Fruit
      items:
        - name: Apple
          healthy: true
        - name: Candy
`))
	require.NoError(t, err)

	assert.Equal(t, domain.Menu{{Name: "Fruit", Items: []domain.MenuItem{
		{Name: "Apple", Healthy: true},
		{Name: "Candy"},
	}}}, tables.HardcodedMenu("Cart"))
	assert.Empty(t, tables.ExternalRecords())
}

func TestParse_ExternalRequiresSlug(t *testing.T) {
	_, err := Parse([]byte(`
external:
  - name: Nameless
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slug is required")
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("menus: [unclosed"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "static.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
external:
  - slug: Pop-Up
    name: Pop-Up Kitchen
`), 0o600))

	tables, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tables.ExternalRecords(), 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	tables, err = Load("")
	require.NoError(t, err)
	assert.Len(t, tables.ExternalRecords(), 2)
}

func TestExternalRecords_ReturnsCopy(t *testing.T) {
	tables, err := Default()
	require.NoError(t, err)

	records := tables.ExternalRecords()
	records[0] = nil

	assert.NotNil(t, tables.ExternalRecords()[0])
}
