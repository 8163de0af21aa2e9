package database

import (
	"context"
	"fmt"

	"keebstore/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Beginner starts transactions; satisfied by *pgxpool.Pool and *pgx.Conn.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SeedProduct is a catalogue entry together with its category-specific attributes.
type SeedProduct struct {
	CategorySlug  string
	Name          string
	Slug          string
	Price         decimal.Decimal
	Image         string
	Description   string
	StockQuantity int
	Details       model.ProductDetails
}

// SeedCategories is the sample category list.
var SeedCategories = []model.Category{
	{Name: "Keyboard Kits", Slug: model.CategoryKeyboardKits, Description: "Custom keyboard DIY kits"},
	{Name: "Switches", Slug: model.CategorySwitches, Description: "Mechanical keyboard switches"},
	{Name: "Keycaps", Slug: model.CategoryKeycaps, Description: "Custom keycap sets"},
	{Name: "Accessories", Slug: model.CategoryAccessories, Description: "Keyboard accessories and mods"},
}

func str(s string) *string { return &s }

// SeedProducts is the sample catalogue.
var SeedProducts = []SeedProduct{
	{
		CategorySlug:  model.CategoryKeyboardKits,
		Name:          "TOFU65 Acrylic",
		Slug:          "tofu65-acrylic",
		Price:         decimal.NewFromInt(1250000),
		Image:         "https://images.unsplash.com/photo-1595225476474-87563907a212?w=500&q=80",
		Description:   "65% keyboard kit with an acrylic case that shows off RGB lighting",
		StockQuantity: 15,
		Details: &model.KeyboardKit{
			Size: "65%", CaseMaterial: str("Acrylic"), MountType: str("Tray Mount"),
			PCBType: "Hot-swap", Layout: str("ANSI"),
		},
	},
	{
		CategorySlug:  model.CategoryKeyboardKits,
		Name:          "KBD67 Lite R4",
		Slug:          "kbd67-lite-r4",
		Price:         decimal.NewFromInt(950000),
		Image:         "https://images.unsplash.com/photo-1587829741301-dc798b83add3?w=500&q=80",
		Description:   "Gasket mount 65% keyboard kit",
		StockQuantity: 25,
		Details: &model.KeyboardKit{
			Size: "65%", CaseMaterial: str("Polycarbonate"), MountType: str("Gasket Mount"),
			PCBType: "Hot-swap", Layout: str("ANSI"),
		},
	},
	{
		CategorySlug:  model.CategoryKeyboardKits,
		Name:          "GMMK Pro",
		Slug:          "gmmk-pro",
		Price:         decimal.NewFromInt(1850000),
		Image:         "https://images.unsplash.com/photo-1618384887929-16ec33fab9ef?w=500&q=80",
		Description:   "75% aluminium gasket mount keyboard with rotary encoder",
		StockQuantity: 10,
		Details: &model.KeyboardKit{
			Size: "75%", CaseMaterial: str("Aluminum"), MountType: str("Gasket Mount"),
			PCBType: "Hot-swap", HasRotaryEncoder: true, Layout: str("ANSI"),
		},
	},
	{
		CategorySlug:  model.CategorySwitches,
		Name:          "Gateron Yellow (70pcs)",
		Slug:          "gateron-yellow-70pcs",
		Price:         decimal.NewFromInt(120000),
		Image:         "https://images.unsplash.com/photo-1541807084-5c52b6b3adef?w=500&q=80",
		Description:   "Smooth budget linear switches",
		StockQuantity: 100,
		Details: &model.SwitchSpec{
			SwitchType: "Linear", ActuationForce: str("50g"), TravelDistance: str("4mm"),
			QuantityPerPack: 70, HousingMaterial: str("Nylon"), StemMaterial: str("POM"),
		},
	},
	{
		CategorySlug:  model.CategorySwitches,
		Name:          "Boba U4T (70pcs)",
		Slug:          "boba-u4t-70pcs",
		Price:         decimal.NewFromInt(420000),
		Image:         "https://images.unsplash.com/photo-1541807084-5c52b6b3adef?w=500&q=80",
		Description:   "Tactile switches with a strong bump",
		StockQuantity: 50,
		Details: &model.SwitchSpec{
			SwitchType: "Tactile", ActuationForce: str("62g"), TravelDistance: str("4mm"),
			QuantityPerPack: 70, HousingMaterial: str("Proprietary"), StemMaterial: str("POM"),
		},
	},
	{
		CategorySlug:  model.CategorySwitches,
		Name:          "Cherry MX Red (110pcs)",
		Slug:          "cherry-mx-red-110pcs",
		Price:         decimal.NewFromInt(550000),
		Image:         "https://images.unsplash.com/photo-1587829741301-dc798b83add3?w=500&q=80",
		Description:   "Classic linear switches",
		StockQuantity: 80,
		Details: &model.SwitchSpec{
			SwitchType: "Linear", ActuationForce: str("45g"), TravelDistance: str("4mm"),
			QuantityPerPack: 110, HousingMaterial: str("Nylon"), StemMaterial: str("POM"),
		},
	},
	{
		CategorySlug:  model.CategoryKeycaps,
		Name:          "GMK White on Black",
		Slug:          "gmk-white-on-black",
		Price:         decimal.NewFromInt(1850000),
		Image:         "https://images.unsplash.com/photo-1595225476474-87563907a212?w=500&q=80",
		Description:   "ABS double-shot keycaps in a white on black colourway",
		StockQuantity: 0,
		Details: &model.Keycap{
			Profile: "Cherry", Material: "ABS", PrintingMethod: "Double-shot",
			KeyCount: 139, ColorScheme: str("White on Black"),
		},
	},
	{
		CategorySlug:  model.CategoryKeycaps,
		Name:          "Akko ASA Profile Neon",
		Slug:          "akko-asa-neon",
		Price:         decimal.NewFromInt(450000),
		Image:         "https://images.unsplash.com/photo-1587829741301-dc798b83add3?w=500&q=80",
		Description:   "ASA profile PBT keycaps in neon colours",
		StockQuantity: 40,
		Details: &model.Keycap{
			Profile: "ASA", Material: "PBT", PrintingMethod: "Dye-sub",
			KeyCount: 158, ColorScheme: str("Neon Multi-color"),
		},
	},
	{
		CategorySlug:  model.CategoryAccessories,
		Name:          "Krytox 205g0 (5ml)",
		Slug:          "krytox-205g0-5ml",
		Price:         decimal.NewFromInt(180000),
		Image:         "https://images.unsplash.com/photo-1618384887929-16ec33fab9ef?w=500&q=80",
		Description:   "PFPE lubricant for linear switches",
		StockQuantity: 60,
		Details: &model.Accessory{
			AccessoryType: "Lube", Quantity: str("5ml"), SizeCompatibility: str("Universal"), Variant: str("Grade 0"),
		},
	},
	{
		CategorySlug:  model.CategoryAccessories,
		Name:          "Durock V2 Stabilizers",
		Slug:          "durock-v2-stabilizers",
		Price:         decimal.NewFromInt(150000),
		Image:         "https://images.unsplash.com/photo-1595225476474-87563907a212?w=500&q=80",
		Description:   "Screw-in stabilizers",
		StockQuantity: 45,
		Details: &model.Accessory{
			AccessoryType: "Stabilizer", Quantity: str("1 set (4x 2u + 1x 6.25u)"),
			SizeCompatibility: str("Universal"), Variant: str("Smokey"),
		},
	},
	{
		CategorySlug:  model.CategoryAccessories,
		Name:          "TX Switch Films (110pcs)",
		Slug:          "tx-switch-films-110pcs",
		Price:         decimal.NewFromInt(85000),
		Image:         "https://images.unsplash.com/photo-1587829741301-dc798b83add3?w=500&q=80",
		Description:   "0.15mm switch films",
		StockQuantity: 120,
		Details: &model.Accessory{
			AccessoryType: "Film", Quantity: str("110pcs"), SizeCompatibility: str("Universal"), Variant: str("0.15mm"),
		},
	},
}

// Seed inserts the sample catalogue in a single transaction. Rows whose slug
// already exists are left untouched.
func Seed(ctx context.Context, db Beginner, logger zerolog.Logger) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error().Err(rbErr).Msg("failed to rollback seed transaction")
			}
		}
	}()

	categoryIDs := make(map[string]int64, len(SeedCategories))
	for _, c := range SeedCategories {
		var id int64
		err = tx.QueryRow(ctx, `
			INSERT INTO categories (name, slug, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, c.Name, c.Slug, c.Description).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.Slug, err)
		}
		categoryIDs[c.Slug] = id
	}

	inserted := 0
	for _, p := range SeedProducts {
		var productID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO products (category_id, name, slug, price, image, description, in_stock, stock_quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (slug) DO NOTHING
			RETURNING id
		`, categoryIDs[p.CategorySlug], p.Name, p.Slug, p.Price, p.Image, p.Description,
			p.StockQuantity > 0, p.StockQuantity).Scan(&productID)
		if err == pgx.ErrNoRows {
			err = nil
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Slug, err)
		}

		if err = insertDetails(ctx, tx, productID, p.Details); err != nil {
			return fmt.Errorf("failed to seed details for %s: %w", p.Slug, err)
		}
		inserted++
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	logger.Info().
		Int("categories", len(SeedCategories)).
		Int("products_inserted", inserted).
		Msg("catalogue seeded")

	return nil
}

func insertDetails(ctx context.Context, tx pgx.Tx, productID int64, details model.ProductDetails) error {
	var err error
	switch d := details.(type) {
	case *model.KeyboardKit:
		_, err = tx.Exec(ctx, `
			INSERT INTO keyboard_kits (product_id, size, case_material, mount_type, pcb_type, has_rotary_encoder, layout)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, productID, d.Size, d.CaseMaterial, d.MountType, d.PCBType, d.HasRotaryEncoder, d.Layout)
	case *model.SwitchSpec:
		_, err = tx.Exec(ctx, `
			INSERT INTO switches (product_id, switch_type, actuation_force, travel_distance, quantity_per_pack,
				is_factory_lubed, housing_material, stem_material)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, productID, d.SwitchType, d.ActuationForce, d.TravelDistance, d.QuantityPerPack,
			d.IsFactoryLubed, d.HousingMaterial, d.StemMaterial)
	case *model.Keycap:
		_, err = tx.Exec(ctx, `
			INSERT INTO keycaps (product_id, profile, material, printing_method, key_count, color_scheme)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, productID, d.Profile, d.Material, d.PrintingMethod, d.KeyCount, d.ColorScheme)
	case *model.Accessory:
		_, err = tx.Exec(ctx, `
			INSERT INTO accessories (product_id, accessory_type, quantity, size_compatibility, variant)
			VALUES ($1, $2, $3, $4, $5)
		`, productID, d.AccessoryType, d.Quantity, d.SizeCompatibility, d.Variant)
	}
	return err
}
