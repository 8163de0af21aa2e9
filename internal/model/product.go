package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category slugs that carry a category-specific attribute set.
const (
	CategoryKeyboardKits = "keyboard-kits"
	CategorySwitches     = "switches"
	CategoryKeycaps      = "keycaps"
	CategoryAccessories  = "accessories"
)

// Category groups products in the catalogue.
type Category struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Slug         string `json:"slug" db:"slug"`
	Description  string `json:"description,omitempty" db:"description"`
	ProductCount int    `json:"products_count" db:"-"`
}

// Product represents an item in the keyboard catalogue.
type Product struct {
	ID            int64           `json:"id" db:"id"`
	CategoryID    int64           `json:"category_id" db:"category_id"`
	Category      Category        `json:"category"`
	Name          string          `json:"name" db:"name"`
	Slug          string          `json:"slug" db:"slug"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Image         string          `json:"image" db:"image"`
	Description   string          `json:"description" db:"description"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	InStock       bool            `json:"in_stock" db:"in_stock"`
	Details       ProductDetails  `json:"details"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductDetails is the category-specific attribute set of a product.
// Exactly one of KeyboardKit, SwitchSpec, Keycap or Accessory, or nil.
type ProductDetails interface {
	// SnapshotKey names the variant inside an order item's details snapshot.
	SnapshotKey() string
	isProductDetails()
}

// KeyboardKit describes a keyboard kit (case, PCB, plate).
type KeyboardKit struct {
	Size             string  `json:"size"`
	CaseMaterial     *string `json:"case_material"`
	MountType        *string `json:"mount_type"`
	PCBType          string  `json:"pcb_type"`
	HasRotaryEncoder bool    `json:"has_rotary_encoder"`
	Layout           *string `json:"layout"`
}

// SwitchSpec describes a pack of switches.
type SwitchSpec struct {
	SwitchType      string  `json:"switch_type"`
	ActuationForce  *string `json:"actuation_force"`
	TravelDistance  *string `json:"travel_distance"`
	QuantityPerPack int     `json:"quantity_per_pack"`
	IsFactoryLubed  bool    `json:"is_factory_lubed"`
	HousingMaterial *string `json:"housing_material"`
	StemMaterial    *string `json:"stem_material"`
}

// Keycap describes a keycap set.
type Keycap struct {
	Profile        string  `json:"profile"`
	Material       string  `json:"material"`
	PrintingMethod string  `json:"printing_method"`
	KeyCount       int     `json:"key_count"`
	ColorScheme    *string `json:"color_scheme"`
}

// Accessory describes lubes, stabilizers, cables and the like.
type Accessory struct {
	AccessoryType     string  `json:"accessory_type"`
	Quantity          *string `json:"quantity"`
	SizeCompatibility *string `json:"size_compatibility"`
	Variant           *string `json:"variant"`
}

func (*KeyboardKit) SnapshotKey() string { return "keyboard_kit" }
func (*SwitchSpec) SnapshotKey() string  { return "switch" }
func (*Keycap) SnapshotKey() string      { return "keycap" }
func (*Accessory) SnapshotKey() string   { return "accessory" }

func (*KeyboardKit) isProductDetails() {}
func (*SwitchSpec) isProductDetails()  {}
func (*Keycap) isProductDetails()      {}
func (*Accessory) isProductDetails()   {}

// DetailsCandidates holds every attribute set found for a product, as loaded
// from the side tables. Only one of them is meaningful for a given category.
type DetailsCandidates struct {
	KeyboardKit *KeyboardKit
	Switch      *SwitchSpec
	Keycap      *Keycap
	Accessory   *Accessory
}

// SelectDetails picks the attribute set matching the category slug.
// Unknown slugs, or a matching slug without a populated set, yield nil.
func SelectDetails(categorySlug string, c DetailsCandidates) ProductDetails {
	switch categorySlug {
	case CategoryKeyboardKits:
		if c.KeyboardKit != nil {
			return c.KeyboardKit
		}
	case CategorySwitches:
		if c.Switch != nil {
			return c.Switch
		}
	case CategoryKeycaps:
		if c.Keycap != nil {
			return c.Keycap
		}
	case CategoryAccessories:
		if c.Accessory != nil {
			return c.Accessory
		}
	}
	return nil
}

// Sortable catalogue columns.
const (
	SortByName          = "name"
	SortByPrice         = "price"
	SortByCreatedAt     = "created_at"
	SortByStockQuantity = "stock_quantity"
)

// ProductFilter narrows catalogue listings. Empty fields do not filter.
type ProductFilter struct {
	CategorySlug string
	InStockOnly  bool

	// Attribute filters match the category's side table exactly.
	Size          string
	SwitchType    string
	Profile       string
	Material      string
	AccessoryType string

	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal

	// Search matches name, description or category name, case-insensitively.
	Search string

	SortBy   string
	SortDesc bool

	Limit  int
	Offset int
}

// ProductQuery is the public catalogue listing request.
type ProductQuery struct {
	Category      string           `json:"category" validate:"max=100"`
	InStock       bool             `json:"in_stock"`
	Size          string           `json:"size" validate:"max=50"`
	SwitchType    string           `json:"switch_type" validate:"max=50"`
	Profile       string           `json:"profile" validate:"max=50"`
	Material      string           `json:"material" validate:"max=50"`
	AccessoryType string           `json:"accessory_type" validate:"max=50"`
	MinPrice      *decimal.Decimal `json:"min_price"`
	MaxPrice      *decimal.Decimal `json:"max_price"`
	Search        string           `json:"search" validate:"max=255"`
	SortBy        string           `json:"sort_by" validate:"omitempty,oneof=name price created_at stock_quantity"`
	SortOrder     string           `json:"sort_order" validate:"omitempty,oneof=asc desc"`
	Page          int              `json:"page" validate:"min=0"`
	PerPage       int              `json:"per_page" validate:"min=0,max=100"`
}

// FilterOptions lists the attribute values present in the catalogue, for
// building filter menus. Lists outside the requested category stay empty.
type FilterOptions struct {
	Sizes          []string `json:"sizes"`
	MountTypes     []string `json:"mount_types"`
	SwitchTypes    []string `json:"switch_types"`
	Profiles       []string `json:"profiles"`
	Materials      []string `json:"materials"`
	AccessoryTypes []string `json:"accessory_types"`
}

// NewFilterOptions returns options with every list empty but non-nil.
func NewFilterOptions() *FilterOptions {
	return &FilterOptions{
		Sizes:          []string{},
		MountTypes:     []string{},
		SwitchTypes:    []string{},
		Profiles:       []string{},
		Materials:      []string{},
		AccessoryTypes: []string{},
	}
}

// ProductPage is one page of a catalogue listing.
type ProductPage struct {
	Products    []Product `json:"data"`
	CurrentPage int       `json:"current_page"`
	PerPage     int       `json:"per_page"`
	Total       int       `json:"total"`
	LastPage    int       `json:"last_page"`
}

// NewProductPage assembles page metadata around a slice of products.
func NewProductPage(products []Product, page, perPage, total int) *ProductPage {
	if products == nil {
		products = []Product{}
	}
	return &ProductPage{
		Products:    products,
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage(total, perPage),
	}
}
