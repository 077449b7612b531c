package vademecum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaguide/backend/internal/domain/integration"
)

func TestParseProductCard_Shapes(t *testing.T) {
	t.Run("nulls everywhere", func(t *testing.T) {
		card, err := parseProductCard([]byte(`{
			"product": {"id": 5, "name": "Bare"},
			"card": {"drugType": null, "licenseeCompany": null, "indication": null,
			         "ingredients": null, "image": null, "price": null}
		}`), "5")
		require.NoError(t, err)
		require.NotNil(t, card.Card)

		assert.Nil(t, card.Card.DrugType)
		assert.Nil(t, card.Card.LicenseeCompany)
		assert.Nil(t, card.Card.Indication)
		assert.Empty(t, card.Card.Ingredients)
		assert.Empty(t, card.Card.Images)
		assert.Nil(t, card.Card.Price)
	})

	t.Run("missing card block", func(t *testing.T) {
		card, err := parseProductCard([]byte(`{"product": {"id": 5, "name": "Bare"}}`), "5")
		require.NoError(t, err)
		assert.Nil(t, card.Card)
		assert.Equal(t, "Bare", card.Product.Name)
	})

	t.Run("arrays where objects are expected", func(t *testing.T) {
		card, err := parseProductCard([]byte(`{
			"product": [{"id": 6, "name": "Listed"}],
			"card": [{
				"drugType": [{"name": "Kapsül"}],
				"licenseeCompany": [{"name": "Beta", "officialname": ""}],
				"price": [{"retailPrice": "45,50"}]
			}]
		}`), "6")
		require.NoError(t, err)
		require.NotNil(t, card.Card)

		assert.Equal(t, int64(6), card.Product.ID)
		assert.Equal(t, "Kapsül", card.Card.DrugType.Name)
		assert.Equal(t, "Beta", card.Card.LicenseeCompany.Name)
		assert.Empty(t, card.Card.LicenseeCompany.OfficialName)
		assert.Equal(t, "45.5", card.Card.Price.RetailPrice.String())
		assert.Nil(t, card.Card.Price.Tax)
	})

	t.Run("single objects where arrays are expected", func(t *testing.T) {
		card, err := parseProductCard([]byte(`{
			"product": {"id": 7, "name": "Solo"},
			"card": {
				"ingredients": {"name": "Çinko", "amount": 15, "unit": "mg"},
				"image": {"url": "https://img.example/7.png"}
			}
		}`), "7")
		require.NoError(t, err)

		require.Len(t, card.Card.Ingredients, 1)
		assert.Equal(t, "Çinko", card.Card.Ingredients[0].Name)
		assert.Equal(t, "15", card.Card.Ingredients[0].Amount)
		assert.Equal(t, "mg", *card.Card.Ingredients[0].Unit)
		require.Len(t, card.Card.Images, 1)
		assert.Equal(t, "https://img.example/7.png", card.Card.Images[0].URL)
	})

	t.Run("ingredient without unit", func(t *testing.T) {
		card, err := parseProductCard([]byte(`{
			"product": {"id": 8, "name": "X"},
			"card": {"ingredients": [{"name": "Probiyotik", "amount": "1"}, {"name": "Inulin", "unit": null}]}
		}`), "8")
		require.NoError(t, err)

		require.Len(t, card.Card.Ingredients, 2)
		assert.Nil(t, card.Card.Ingredients[0].Unit)
		assert.Nil(t, card.Card.Ingredients[1].Unit)
	})

	t.Run("drug type as plain string", func(t *testing.T) {
		card, err := parseProductCard([]byte(`{"product": {"id": 9}, "card": {"drugType": "Şurup"}}`), "9")
		require.NoError(t, err)
		assert.Equal(t, "Şurup", card.Card.DrugType.Name)
	})

	t.Run("blank indication is absent", func(t *testing.T) {
		card, err := parseProductCard([]byte(`{"product": {"id": 9}, "card": {"indication": "   "}}`), "9")
		require.NoError(t, err)
		assert.Nil(t, card.Card.Indication)
	})

	t.Run("product id falls back to the requested id", func(t *testing.T) {
		card, err := parseProductCard([]byte(`{"product": {"name": "No id"}}`), "77")
		require.NoError(t, err)
		assert.Equal(t, int64(77), card.Product.ID)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := parseProductCard([]byte(`{"product":`), "1")
		assert.ErrorIs(t, err, integration.ErrVendorInvalidResponse)
	})

	t.Run("unparseable price is absent", func(t *testing.T) {
		card, err := parseProductCard([]byte(`{
			"product": {"id": 3},
			"card": {"price": {"retailPrice": "n/a", "currency": "EUR", "effectiveDate": "yesterday"}}
		}`), "3")
		require.NoError(t, err)
		require.NotNil(t, card.Card.Price)
		assert.Nil(t, card.Card.Price.RetailPrice)
		assert.Nil(t, card.Card.Price.EffectiveDate)
		assert.Equal(t, "EUR", card.Card.Price.Currency)
	})
}

func TestParseProductPage(t *testing.T) {
	t.Run("skips rows without id", func(t *testing.T) {
		products, err := parseProductPage([]byte(`{"product":[{"id":1,"name":" A "},{"name":"B"},{"id":"x"}]}`))
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "A", products[0].Name)
		assert.Equal(t, "1", products[0].SourceID())
	})

	t.Run("object instead of array is malformed", func(t *testing.T) {
		_, err := parseProductPage([]byte(`{"product":{"id":1}}`))
		assert.ErrorIs(t, err, integration.ErrVendorInvalidResponse)
	})

	t.Run("null product is malformed", func(t *testing.T) {
		_, err := parseProductPage([]byte(`{"product":null}`))
		assert.ErrorIs(t, err, integration.ErrVendorInvalidResponse)
	})
}

func TestDecimalValue_Separators(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`12.5`, "12.5"},
		{`"12.5"`, "12.5"},
		{`"12,50"`, "12.5"},
		{`"1.234,50"`, "1234.5"},
		{`"1,234.50"`, "1234.5"},
		{`"1.234.567,89"`, "1234567.89"},
		{`"1,234,567"`, "1234567"},
		{`"1 234,50"`, "1234.5"},
		{`" 99 "`, "99"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			card, err := parseProductCard([]byte(`{"product": {"id": 1, "name": "P"}, "card": {"price": {"retailPrice": `+tt.raw+`}}}`), "1")
			require.NoError(t, err)
			require.NotNil(t, card.Card.Price)
			require.NotNil(t, card.Card.Price.RetailPrice, tt.raw)
			assert.Equal(t, tt.want, card.Card.Price.RetailPrice.String())
		})
	}
}
