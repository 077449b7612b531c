package vademecum

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/vitaguide/backend/internal/domain/integration"
)

// Vendor payloads are loosely typed: a nested block may arrive as an object,
// an array of objects, a bare string or null. The helpers below reduce every
// shape to an optional value so callers never see the raw variance.

// parseProductPage decodes one listing page. A body without a product array
// is malformed, an empty array is a valid last page.
func parseProductPage(body []byte) ([]integration.VendorProduct, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: listing is not valid JSON", integration.ErrVendorInvalidResponse)
	}
	list := gjson.GetBytes(body, "product")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: listing has no product array", integration.ErrVendorInvalidResponse)
	}

	items := list.Array()
	products := make([]integration.VendorProduct, 0, len(items))
	for _, item := range items {
		id := intValue(item.Get("id"))
		if id == 0 {
			continue
		}
		products = append(products, integration.VendorProduct{
			ID:   id,
			Name: strings.TrimSpace(item.Get("name").String()),
		})
	}
	return products, nil
}

// parsePageLength reports how many entries a listing page carried before
// id filtering, so a page of id-less rows does not end pagination early.
func parsePageLength(body []byte) int {
	return int(gjson.GetBytes(body, "product.#").Int())
}

// parseProductCard decodes a detail record. requestedID is used when the
// payload omits the product id.
func parseProductCard(body []byte, requestedID string) (*integration.VendorProductCard, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: card is not valid JSON", integration.ErrVendorInvalidResponse)
	}
	root := gjson.ParseBytes(body)
	product := objectOf(root.Get("product"))
	if !product.Exists() {
		return nil, fmt.Errorf("%w: card has no product block", integration.ErrVendorInvalidResponse)
	}

	id := intValue(product.Get("id"))
	if id == 0 {
		id, _ = strconv.ParseInt(requestedID, 10, 64)
	}

	result := &integration.VendorProductCard{
		Product: integration.VendorProduct{
			ID:   id,
			Name: strings.TrimSpace(product.Get("name").String()),
		},
	}

	card := objectOf(root.Get("card"))
	if !card.Exists() {
		return result, nil
	}

	result.Card = &integration.VendorCard{
		DrugType:        parseNamed(card.Get("drugType")),
		LicenseeCompany: parseCompany(card.Get("licenseeCompany")),
		Indication:      optionalString(card.Get("indication")),
		Ingredients:     parseIngredients(card.Get("ingredients")),
		Images:          parseImages(card.Get("image")),
		Price:           parsePrice(card.Get("price")),
	}
	return result, nil
}

func parseNamed(r gjson.Result) *integration.VendorNamed {
	if r.Type == gjson.String {
		if s := strings.TrimSpace(r.String()); s != "" {
			return &integration.VendorNamed{Name: s}
		}
		return nil
	}
	obj := objectOf(r)
	if !obj.Exists() {
		return nil
	}
	return &integration.VendorNamed{Name: strings.TrimSpace(obj.Get("name").String())}
}

func parseCompany(r gjson.Result) *integration.VendorCompany {
	obj := objectOf(r)
	if !obj.Exists() {
		return nil
	}
	return &integration.VendorCompany{
		Name:         strings.TrimSpace(obj.Get("name").String()),
		OfficialName: strings.TrimSpace(obj.Get("officialname").String()),
	}
}

func parseIngredients(r gjson.Result) []integration.VendorIngredient {
	items := listOf(r)
	if len(items) == 0 {
		return nil
	}
	ingredients := make([]integration.VendorIngredient, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		ingredients = append(ingredients, integration.VendorIngredient{
			Name:   strings.TrimSpace(item.Get("name").String()),
			Amount: strings.TrimSpace(item.Get("amount").String()),
			Unit:   unitOf(item.Get("unit")),
		})
	}
	return ingredients
}

// unitOf accepts either "mg" or {"name": "mg"}
func unitOf(r gjson.Result) *string {
	if r.IsObject() {
		return optionalString(r.Get("name"))
	}
	return optionalString(r)
}

func parseImages(r gjson.Result) []integration.VendorImage {
	var images []integration.VendorImage
	for _, item := range listOf(r) {
		var u string
		switch {
		case item.IsObject():
			u = item.Get("url").String()
		case item.Type == gjson.String:
			u = item.String()
		}
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, integration.VendorImage{URL: u})
		}
	}
	return images
}

func parsePrice(r gjson.Result) *integration.VendorPrice {
	obj := objectOf(r)
	if !obj.Exists() {
		return nil
	}
	price := &integration.VendorPrice{
		RetailPrice:   decimalValue(obj.Get("retailPrice")),
		Currency:      strings.TrimSpace(obj.Get("currency").String()),
		EffectiveDate: timeValue(obj.Get("effectiveDate")),
		Tax:           decimalValue(obj.Get("tax")),
	}
	for _, f := range listOf(obj.Get("flags")) {
		if s := strings.TrimSpace(f.String()); s != "" {
			price.Flags = append(price.Flags, s)
		}
	}
	return price
}

// ---------------------------------------------------------------------------
// Shape helpers
// ---------------------------------------------------------------------------

// objectOf returns r when it is an object, the first object of an array,
// or an empty result otherwise.
func objectOf(r gjson.Result) gjson.Result {
	switch {
	case r.IsObject():
		return r
	case r.IsArray():
		for _, item := range r.Array() {
			if item.IsObject() {
				return item
			}
		}
	}
	return gjson.Result{}
}

// listOf normalizes an array, a single value or null into a slice
func listOf(r gjson.Result) []gjson.Result {
	switch {
	case !r.Exists(), r.Type == gjson.Null:
		return nil
	case r.IsArray():
		return r.Array()
	default:
		return []gjson.Result{r}
	}
}

func optionalString(r gjson.Result) *string {
	if !r.Exists() || r.Type == gjson.Null || r.IsObject() || r.IsArray() {
		return nil
	}
	s := strings.TrimSpace(r.String())
	if s == "" {
		return nil
	}
	return &s
}

func intValue(r gjson.Result) int64 {
	switch r.Type {
	case gjson.Number:
		return r.Int()
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(r.String()), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// decimalValue reads 12.5, "12.5", "12,50", "1.234,50" or "1,234.50"
func decimalValue(r gjson.Result) *decimal.Decimal {
	var raw string
	switch r.Type {
	case gjson.Number:
		raw = r.Raw
	case gjson.String:
		raw = normalizeDecimalString(r.String())
	default:
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

// normalizeDecimalString drops grouping separators and turns the decimal mark into a dot.
// With both marks present the last one is the decimal mark; a repeated mark is grouping.
func normalizeDecimalString(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func timeValue(r gjson.Result) *time.Time {
	if r.Type != gjson.String {
		return nil
	}
	s := strings.TrimSpace(r.String())
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
