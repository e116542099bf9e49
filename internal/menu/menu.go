package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrItemNotFound = errors.New("menu item not found")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) InsertItem(ctx context.Context, ni NewItem) (Item, error) {
	inStock := true
	if ni.InStock != nil {
		inStock = *ni.InStock
	}
	item := Item{
		ID:          uuid.NewString(),
		Name:        ni.Name,
		Description: ni.Description,
		Price:       ni.Price,
		Category:    ni.Category,
		FoodImage:   ni.FoodImage,
		InStock:     inStock,
	}

	query := `
		INSERT INTO menu_items (id, name, description, price, category, food_image, in_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, query, item.ID, item.Name, item.Description,
		item.Price, item.Category, item.FoodImage, item.InStock).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Item{}, fmt.Errorf("inserting menu item: %w", err)
	}
	return item, nil
}

func (c *Conf) GetItemByID(ctx context.Context, id string) (Item, error) {
	query := `
		SELECT id, name, description, price, category, food_image, in_stock, created_at, updated_at
		FROM menu_items WHERE id = $1
	`
	var item Item
	err := c.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Name, &item.Description,
		&item.Price, &item.Category, &item.FoodImage, &item.InStock, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("querying menu item: %w", err)
	}
	return item, nil
}

func (c *Conf) ListItems(ctx context.Context) ([]Item, error) {
	query := `
		SELECT id, name, description, price, category, food_image, in_stock, created_at, updated_at
		FROM menu_items ORDER BY name
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price,
			&item.Category, &item.FoodImage, &item.InStock, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning menu item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menu items: %w", err)
	}
	return items, nil
}

func (c *Conf) UpdateItem(ctx context.Context, id string, ni NewItem) (Item, error) {
	current, err := c.GetItemByID(ctx, id)
	if err != nil {
		return Item{}, err
	}

	inStock := current.InStock
	if ni.InStock != nil {
		inStock = *ni.InStock
	}
	foodImage := current.FoodImage
	if ni.FoodImage != "" {
		foodImage = ni.FoodImage
	}

	query := `
		UPDATE menu_items
		SET name = $1, description = $2, price = $3, category = $4, food_image = $5, in_stock = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING created_at, updated_at
	`
	item := Item{
		ID:          id,
		Name:        ni.Name,
		Description: ni.Description,
		Price:       ni.Price,
		Category:    ni.Category,
		FoodImage:   foodImage,
		InStock:     inStock,
	}
	err = c.db.QueryRowContext(ctx, query, item.Name, item.Description, item.Price,
		item.Category, item.FoodImage, item.InStock, id).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Item{}, fmt.Errorf("updating menu item: %w", err)
	}
	return item, nil
}

func (c *Conf) DeleteItem(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting menu item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}
