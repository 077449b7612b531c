package integration

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Vendor Errors
// ---------------------------------------------------------------------------

var (
	// ErrFetchProducts is returned when the product listing could not be retrieved
	ErrFetchProducts = errors.New("integration: failed to fetch products")

	ErrVendorNotConfigured   = errors.New("integration: vendor not configured")
	ErrVendorUnavailable     = errors.New("integration: vendor temporarily unavailable")
	ErrVendorRequestFailed   = errors.New("integration: vendor request failed")
	ErrVendorInvalidResponse = errors.New("integration: invalid vendor response")
	ErrVendorRateLimited     = errors.New("integration: vendor rate limited")
	ErrVendorNotFound        = errors.New("integration: vendor resource not found")
)

// SourceVademecum identifies records imported from the Vademecum catalog
const SourceVademecum = "vademecum"

// ---------------------------------------------------------------------------
// Listing types
// ---------------------------------------------------------------------------

// VendorProduct is one entry of the vendor listing endpoint
type VendorProduct struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SourceID returns the vendor id in its stored string form
func (p VendorProduct) SourceID() string {
	return strconv.FormatInt(p.ID, 10)
}

// ---------------------------------------------------------------------------
// Detail card types
// ---------------------------------------------------------------------------

// VendorNamed is a vendor block that only carries a display name
type VendorNamed struct {
	Name string `json:"name"`
}

// VendorCompany is the licensee company of a product
type VendorCompany struct {
	Name         string `json:"name"`
	OfficialName string `json:"officialname"`
}

// VendorIngredient is one active ingredient entry
type VendorIngredient struct {
	Name   string  `json:"name"`
	Amount string  `json:"amount"`
	Unit   *string `json:"unit,omitempty"` // nil when the vendor omits the unit
}

// VendorImage is a product image reference
type VendorImage struct {
	URL string `json:"url"`
}

// VendorPrice is the price block of a card
type VendorPrice struct {
	RetailPrice   *decimal.Decimal `json:"retailPrice,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	EffectiveDate *time.Time       `json:"effectiveDate,omitempty"`
	Tax           *decimal.Decimal `json:"tax,omitempty"`
	Flags         []string         `json:"flags,omitempty"`
}

// VendorCard is the nested card data of a detail record.
// Any field may be nil or empty.
type VendorCard struct {
	DrugType        *VendorNamed       `json:"drugType,omitempty"`
	LicenseeCompany *VendorCompany     `json:"licenseeCompany,omitempty"`
	Indication      *string            `json:"indication,omitempty"`
	Ingredients     []VendorIngredient `json:"ingredients,omitempty"`
	Images          []VendorImage      `json:"images,omitempty"`
	Price           *VendorPrice       `json:"price,omitempty"`
}

// VendorProductCard is the detail record returned for one vendor product
type VendorProductCard struct {
	Product VendorProduct `json:"product"`
	Card    *VendorCard   `json:"card,omitempty"`
}

// ---------------------------------------------------------------------------
// Client contract
// ---------------------------------------------------------------------------

// CatalogClient reads the vendor catalog.
type CatalogClient interface {
	// FetchAllProducts pages through the listing until an empty page is returned.
	// Any transport or decoding failure is reported as ErrFetchProducts.
	FetchAllProducts(ctx context.Context) ([]VendorProduct, error)

	// FetchProductCard returns the detail card or nil when it is missing or unreadable.
	FetchProductCard(ctx context.Context, vendorID string) *VendorProductCard
}
