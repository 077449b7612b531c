package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/vitaguide/backend/internal/domain/catalog"
	"github.com/vitaguide/backend/internal/domain/integration"
	"github.com/vitaguide/backend/internal/domain/shared"
)

// ErrInvalidCard is returned when a card has no usable product identity
var ErrInvalidCard = errors.New("catalog: vendor card has no product identity")

type formRule struct {
	form     catalog.Form
	keywords []string
}

// Rules are evaluated in order; the first hit wins.
var formRules = []formRule{
	{catalog.FormTablet, foldAll([]string{"tablet", "draje"})},
	{catalog.FormCapsule, foldAll([]string{"kapsül", "capsule"})},
	{catalog.FormGummy, foldAll([]string{"gummy", "jelibon", "sakız"})},
	{catalog.FormLiquid, foldAll([]string{"şurup", "şurub", "süspansiyon", "solüsyon", "damla", "sıvı", "liquid"})},
	{catalog.FormPowder, foldAll([]string{"toz", "granül", "saşe", "powder"})},
	{catalog.FormCream, foldAll([]string{"krem", "jel", "merhem", "losyon"})},
}

type categoryRule struct {
	tag      string
	keywords []string
}

var categoryRules = []categoryRule{
	{"vitamin", foldAll([]string{"vitamin"})},
	{"mineral", foldAll([]string{"mineral", "magnezyum", "kalsiyum", "çinko", "demir"})},
	{"enerji", foldAll([]string{"enerji", "yorgunluk"})},
	{"bağışıklık", foldAll([]string{"bağışıklık"})},
	{"kemik-eklem", foldAll([]string{"kemik", "eklem"})},
	{"uyku", foldAll([]string{"uyku"})},
	{"sindirim", foldAll([]string{"sindirim", "probiyotik"})},
	{"stres", foldAll([]string{"stres"})},
	{"cilt-saç", foldAll([]string{"cilt", "saç"})},
	{"kalp", foldAll([]string{"kalp", "omega"})},
}

// MapProductCardToSupplement converts a vendor detail card into an unsaved Supplement.
// Missing nested blocks never fail the mapping; they fall back to defaults.
func MapProductCardToSupplement(card *integration.VendorProductCard, syncedAt time.Time) (*catalog.Supplement, error) {
	if card == nil || card.Product.ID == 0 || strings.TrimSpace(card.Product.Name) == "" {
		return nil, ErrInvalidCard
	}

	data := card.Card
	if data == nil {
		data = &integration.VendorCard{}
	}

	s := &catalog.Supplement{
		BaseEntity:   shared.NewBaseEntity(),
		SourceID:     card.Product.SourceID(),
		SourceType:   integration.SourceVademecum,
		Name:         strings.TrimSpace(card.Product.Name),
		Description:  stringValue(data.Indication),
		Brand:        brandOf(data.LicenseeCompany),
		Manufacturer: manufacturerOf(data.LicenseeCompany),
		Form:         classifyForm(data.DrugType),
		Ingredients:  mapIngredients(data.Ingredients),
		Category:     categorize(data.Indication),
		Currency:     catalog.DefaultCurrency,
		ImageURL:     firstImage(data.Images),
		IsActive:     true,
		LastSynced:   syncedAt,
	}

	if data.Price != nil {
		if data.Price.RetailPrice != nil {
			price := *data.Price.RetailPrice
			s.Price = &price
		}
		s.Currency = normalizeCurrency(data.Price.Currency)
	}

	return s, nil
}

// currencyAliases maps local spellings onto ISO 4217 codes
var currencyAliases = map[string]string{
	"TL":  catalog.DefaultCurrency,
	"YTL": catalog.DefaultCurrency,
	"₺":   catalog.DefaultCurrency,
	"€":   "EUR",
	"$":   "USD",
}

// normalizeCurrency returns an ISO 4217 code, falling back to the default
// for blanks and anything that is not a three letter code.
func normalizeCurrency(raw string) string {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if iso, ok := currencyAliases[c]; ok {
		return iso
	}
	if len(c) != 3 {
		return catalog.DefaultCurrency
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return catalog.DefaultCurrency
		}
	}
	return c
}

func brandOf(company *integration.VendorCompany) string {
	if company != nil && meaningful(company.Name) {
		return strings.TrimSpace(company.Name)
	}
	return catalog.UnknownValue
}

func manufacturerOf(company *integration.VendorCompany) string {
	if company == nil {
		return catalog.UnknownValue
	}
	if meaningful(company.OfficialName) {
		return strings.TrimSpace(company.OfficialName)
	}
	if meaningful(company.Name) {
		return strings.TrimSpace(company.Name)
	}
	return catalog.UnknownValue
}

func classifyForm(drugType *integration.VendorNamed) catalog.Form {
	if drugType == nil {
		return catalog.FormOther
	}
	name := foldText(drugType.Name)
	for _, rule := range formRules {
		if containsAny(name, rule.keywords) {
			return rule.form
		}
	}
	return catalog.FormOther
}

func categorize(indication *string) []string {
	tags := make([]string, 0)
	text := foldText(stringValue(indication))
	if text == "" {
		return tags
	}
	for _, rule := range categoryRules {
		if containsAny(text, rule.keywords) {
			tags = append(tags, rule.tag)
		}
	}
	return tags
}

func mapIngredients(in []integration.VendorIngredient) []catalog.Ingredient {
	out := make([]catalog.Ingredient, 0, len(in))
	for _, ing := range in {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		out = append(out, catalog.Ingredient{
			Name:   name,
			Amount: strings.TrimSpace(ing.Amount),
			Unit:   strings.TrimSpace(stringValue(ing.Unit)),
		})
	}
	return out
}

func firstImage(images []integration.VendorImage) *string {
	for _, img := range images {
		if url := strings.TrimSpace(img.URL); url != "" {
			return &url
		}
	}
	return nil
}

// meaningful rejects blanks and the placeholders the vendor uses for "no value"
func meaningful(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "-", "null", "undefined":
		return false
	}
	return true
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
