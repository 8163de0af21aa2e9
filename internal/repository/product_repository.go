package repository

import (
	"context"
	"fmt"
	"strings"

	"keebstore/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productSelect loads a product, its category and every candidate attribute
// row. At most one of the side tables matches a given product.
const productSelect = `
	SELECT
		p.id, p.category_id, p.name, p.slug, p.price, p.image, p.description,
		p.stock_quantity, p.in_stock, p.created_at, p.updated_at,
		c.id, c.name, c.slug, c.description,
		kk.size, kk.case_material, kk.mount_type, kk.pcb_type, kk.has_rotary_encoder, kk.layout,
		sw.switch_type, sw.actuation_force, sw.travel_distance, sw.quantity_per_pack,
		sw.is_factory_lubed, sw.housing_material, sw.stem_material,
		kc.profile, kc.material, kc.printing_method, kc.key_count, kc.color_scheme,
		ac.accessory_type, ac.quantity, ac.size_compatibility, ac.variant
	FROM products p
	JOIN categories c ON c.id = p.category_id
	LEFT JOIN keyboard_kits kk ON kk.product_id = p.id
	LEFT JOIN switches sw ON sw.product_id = p.id
	LEFT JOIN keycaps kc ON kc.product_id = p.id
	LEFT JOIN accessories ac ON ac.product_id = p.id
`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// sortColumns whitelists the ORDER BY columns a filter may name.
var sortColumns = map[string]string{
	model.SortByName:          "p.name",
	model.SortByPrice:         "p.price",
	model.SortByCreatedAt:     "p.created_at",
	model.SortByStockQuantity: "p.stock_quantity",
}

// GetAll retrieves products matching the filter, ordered by name unless the
// filter names another sort column.
func (r *productRepository) GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	where, args := productWhere(filter)
	query := productSelect + where + productOrder(filter)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).
			Str("category", filter.CategorySlug).
			Str("search", filter.Search).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Count returns the number of products matching the filter.
func (r *productRepository) Count(ctx context.Context, filter model.ProductFilter) (int, error) {
	where, args := productWhere(filter)
	query := `
		SELECT COUNT(*)
		FROM products p
		JOIN categories c ON c.id = p.category_id
	` + where

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return count, nil
}

// GetBySlug retrieves a single product by its slug.
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, productSelect+" WHERE p.slug = $1", slug))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("slug", slug).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("slug", slug).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// GetWithDetails retrieves a single product by its ID.
func (r *productRepository) GetWithDetails(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, productSelect+" WHERE p.id = $1", id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// LockWithDetails row-locks the products in ascending ID order, so that
// concurrent placements over overlapping products cannot deadlock.
func (r *productRepository) LockWithDetails(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]*model.Product, error) {
	products := make(map[int64]*model.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	query := productSelect + `
		WHERE p.id = ANY($1)
		ORDER BY p.id
		FOR UPDATE OF p
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// DecrementStock removes qty units only when enough stock remains. in_stock is
// recomputed in the same statement.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) (bool, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2,
			in_stock = (stock_quantity - $2) > 0,
			updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
	`

	tag, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Int("quantity", qty).Msg("failed to decrement stock")
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().Int64("product_id", id).Int("quantity", qty).Msg("stock decrement rejected")
		return false, nil
	}

	return true, nil
}

// IncrementStock returns qty units to stock.
func (r *productRepository) IncrementStock(ctx context.Context, tx pgx.Tx, id int64, qty int) (bool, error) {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $2,
			in_stock = (stock_quantity + $2) > 0,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Int("quantity", qty).Msg("failed to increment stock")
		return false, fmt.Errorf("failed to increment stock: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListCategories retrieves every category with its product count, ordered by name.
func (r *productRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	query := `
		SELECT c.id, c.name, c.slug, c.description, COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id, c.name, c.slug, c.description
		ORDER BY c.name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ProductCount); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan category row")
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating category rows")
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// FilterOptions lists the distinct attribute values of the products in
// categorySlug, or of every category when categorySlug is empty.
func (r *productRepository) FilterOptions(ctx context.Context, categorySlug string) (*model.FilterOptions, error) {
	query := `
		SELECT DISTINCT o.kind, o.value
		FROM (
			SELECT 'size' AS kind, kk.size AS value, c.slug
			FROM keyboard_kits kk JOIN products p ON p.id = kk.product_id JOIN categories c ON c.id = p.category_id
			UNION ALL
			SELECT 'mount_type', kk.mount_type, c.slug
			FROM keyboard_kits kk JOIN products p ON p.id = kk.product_id JOIN categories c ON c.id = p.category_id
			UNION ALL
			SELECT 'switch_type', sw.switch_type, c.slug
			FROM switches sw JOIN products p ON p.id = sw.product_id JOIN categories c ON c.id = p.category_id
			UNION ALL
			SELECT 'profile', kc.profile, c.slug
			FROM keycaps kc JOIN products p ON p.id = kc.product_id JOIN categories c ON c.id = p.category_id
			UNION ALL
			SELECT 'material', kc.material, c.slug
			FROM keycaps kc JOIN products p ON p.id = kc.product_id JOIN categories c ON c.id = p.category_id
			UNION ALL
			SELECT 'accessory_type', ac.accessory_type, c.slug
			FROM accessories ac JOIN products p ON p.id = ac.product_id JOIN categories c ON c.id = p.category_id
		) o
		WHERE o.value IS NOT NULL AND o.value <> ''
			AND ($1 = '' OR o.slug = $1)
		ORDER BY o.kind, o.value
	`

	rows, err := r.pool.Query(ctx, query, categorySlug)
	if err != nil {
		r.logger.Error().Err(err).Str("category", categorySlug).Msg("failed to query filter options")
		return nil, fmt.Errorf("failed to query filter options: %w", err)
	}
	defer rows.Close()

	opts := model.NewFilterOptions()
	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan filter option row")
			return nil, fmt.Errorf("failed to scan filter option: %w", err)
		}
		switch kind {
		case "size":
			opts.Sizes = append(opts.Sizes, value)
		case "mount_type":
			opts.MountTypes = append(opts.MountTypes, value)
		case "switch_type":
			opts.SwitchTypes = append(opts.SwitchTypes, value)
		case "profile":
			opts.Profiles = append(opts.Profiles, value)
		case "material":
			opts.Materials = append(opts.Materials, value)
		case "accessory_type":
			opts.AccessoryTypes = append(opts.AccessoryTypes, value)
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating filter option rows")
		return nil, fmt.Errorf("error iterating filter options: %w", err)
	}

	return opts, nil
}

// attributeConds maps each attribute filter to the side table holding it.
var attributeConds = []struct {
	table, column string
	value         func(model.ProductFilter) string
}{
	{"keyboard_kits", "size", func(f model.ProductFilter) string { return f.Size }},
	{"switches", "switch_type", func(f model.ProductFilter) string { return f.SwitchType }},
	{"keycaps", "profile", func(f model.ProductFilter) string { return f.Profile }},
	{"keycaps", "material", func(f model.ProductFilter) string { return f.Material }},
	{"accessories", "accessory_type", func(f model.ProductFilter) string { return f.AccessoryType }},
}

// productWhere builds the WHERE clause shared by GetAll and Count. Both
// queries alias products as p and categories as c.
func productWhere(filter model.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		conds = append(conds, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if filter.InStockOnly {
		conds = append(conds, "p.in_stock")
	}
	for _, a := range attributeConds {
		v := a.value(filter)
		if v == "" {
			continue
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s x WHERE x.product_id = p.id AND x.%s = $%d)", a.table, a.column, len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		conds = append(conds, fmt.Sprintf("p.price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conds = append(conds, fmt.Sprintf("p.price <= $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(p.name ILIKE $%d OR p.description ILIKE $%d OR c.name ILIKE $%d)", n, n, n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// productOrder builds the ORDER BY clause. p.id breaks ties so pages are stable.
func productOrder(filter model.ProductFilter) string {
	col, ok := sortColumns[filter.SortBy]
	if !ok {
		col = "p.name"
	}
	dir := " ASC"
	if filter.SortDesc {
		dir = " DESC"
	}
	return " ORDER BY " + col + dir + ", p.id" + dir
}

// attributeRow holds the nullable side-table columns of productSelect.
type attributeRow struct {
	kkSize, kkCaseMaterial, kkMountType, kkPCBType, kkLayout *string
	kkRotary                                                 *bool

	swType, swActuation, swTravel, swHousing, swStem *string
	swPerPack                                        *int
	swLubed                                          *bool

	kcProfile, kcMaterial, kcPrinting, kcColor *string
	kcKeyCount                                 *int

	acType, acQuantity, acCompat, acVariant *string
}

func (a *attributeRow) candidates() model.DetailsCandidates {
	var c model.DetailsCandidates
	if a.kkSize != nil {
		c.KeyboardKit = &model.KeyboardKit{
			Size:             *a.kkSize,
			CaseMaterial:     a.kkCaseMaterial,
			MountType:        a.kkMountType,
			PCBType:          deref(a.kkPCBType),
			HasRotaryEncoder: a.kkRotary != nil && *a.kkRotary,
			Layout:           a.kkLayout,
		}
	}
	if a.swType != nil {
		c.Switch = &model.SwitchSpec{
			SwitchType:      *a.swType,
			ActuationForce:  a.swActuation,
			TravelDistance:  a.swTravel,
			QuantityPerPack: derefInt(a.swPerPack),
			IsFactoryLubed:  a.swLubed != nil && *a.swLubed,
			HousingMaterial: a.swHousing,
			StemMaterial:    a.swStem,
		}
	}
	if a.kcProfile != nil {
		c.Keycap = &model.Keycap{
			Profile:        *a.kcProfile,
			Material:       deref(a.kcMaterial),
			PrintingMethod: deref(a.kcPrinting),
			KeyCount:       derefInt(a.kcKeyCount),
			ColorScheme:    a.kcColor,
		}
	}
	if a.acType != nil {
		c.Accessory = &model.Accessory{
			AccessoryType:     *a.acType,
			Quantity:          a.acQuantity,
			SizeCompatibility: a.acCompat,
			Variant:           a.acVariant,
		}
	}
	return c
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p model.Product
		a attributeRow
	)
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Price, &p.Image, &p.Description,
		&p.StockQuantity, &p.InStock, &p.CreatedAt, &p.UpdatedAt,
		&p.Category.ID, &p.Category.Name, &p.Category.Slug, &p.Category.Description,
		&a.kkSize, &a.kkCaseMaterial, &a.kkMountType, &a.kkPCBType, &a.kkRotary, &a.kkLayout,
		&a.swType, &a.swActuation, &a.swTravel, &a.swPerPack, &a.swLubed, &a.swHousing, &a.swStem,
		&a.kcProfile, &a.kcMaterial, &a.kcPrinting, &a.kcKeyCount, &a.kcColor,
		&a.acType, &a.acQuantity, &a.acCompat, &a.acVariant,
	)
	if err != nil {
		return nil, err
	}

	p.Details = model.SelectDetails(p.Category.Slug, a.candidates())
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
