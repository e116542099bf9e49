package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("cart item not found")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// AddItems merges the given lines into the user's cart, creating the cart row
// on first use. Quantities for an item already present are summed.
func (c *Conf) AddItems(ctx context.Context, userID string, lines []NewLine) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := activeCartForUpdate(ctx, tx, userID, true)
		if err != nil {
			return err
		}

		for _, line := range lines {
			var cartItemID string
			var existingQuantity int
			err := tx.QueryRowContext(ctx, `
				SELECT id, quantity FROM cart_items
				WHERE cart_id = $1 AND menu_item_id = $2
			`, cartID, line.MenuItemID).Scan(&cartItemID, &existingQuantity)

			if err != nil {
				if !errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("querying cart item: %w", err)
				}
				_, err = tx.ExecContext(ctx, `
					INSERT INTO cart_items (id, cart_id, menu_item_id, quantity, created_at, updated_at)
					VALUES ($1, $2, $3, $4, NOW(), NOW())
				`, uuid.NewString(), cartID, line.MenuItemID, line.Quantity)
				if err != nil {
					return fmt.Errorf("adding cart item: %w", err)
				}
				continue
			}

			_, err = tx.ExecContext(ctx, `
				UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2
			`, existingQuantity+line.Quantity, cartItemID)
			if err != nil {
				return fmt.Errorf("updating cart item quantity: %w", err)
			}
		}
		return nil
	})
}

// Get returns the raw cart lines for a user. A user without a cart has an
// empty cart, not an error.
func (c *Conf) Get(ctx context.Context, userID string) ([]Line, error) {
	query := `
		SELECT ci.id, ci.menu_item_id, ci.quantity
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE c.user_id = $1
		ORDER BY ci.created_at
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying cart lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.CartItemID, &line.MenuItemID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scanning cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cart lines: %w", err)
	}
	return lines, nil
}

// GetResolved returns cart lines with menu display fields attached.
func (c *Conf) GetResolved(ctx context.Context, userID string) ([]DisplayLine, error) {
	query := `
		SELECT ci.id, ci.menu_item_id, m.name, m.price, m.food_image, m.in_stock, ci.quantity
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN menu_items m ON m.id = ci.menu_item_id
		WHERE c.user_id = $1
		ORDER BY ci.created_at
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying resolved cart: %w", err)
	}
	defer rows.Close()

	lines := []DisplayLine{}
	for rows.Next() {
		var line DisplayLine
		if err := rows.Scan(&line.CartItemID, &line.MenuItemID, &line.Name,
			&line.Price, &line.FoodImage, &line.InStock, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scanning resolved cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resolved cart: %w", err)
	}
	return lines, nil
}

// UpdateItemQuantity sets the quantity of one cart line owned by the user.
func (c *Conf) UpdateItemQuantity(ctx context.Context, userID, cartItemID string, quantity int) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE cart_items ci
		SET quantity = $1, updated_at = NOW()
		FROM carts c
		WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $3
	`, quantity, cartItemID, userID)
	if err != nil {
		return fmt.Errorf("updating cart item: %w", err)
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

// RemoveItem deletes one cart line owned by the user.
func (c *Conf) RemoveItem(ctx context.Context, userID, cartItemID string) error {
	res, err := c.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id = $1 AND ci.cart_id = c.id AND c.user_id = $2
	`, cartItemID, userID)
	if err != nil {
		return fmt.Errorf("removing cart item: %w", err)
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

// Clear empties the user's cart but keeps the cart row.
func (c *Conf) Clear(ctx context.Context, userID string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// Delete removes the user's cart record entirely. Deleting an absent cart is
// a no-op.
func (c *Conf) Delete(ctx context.Context, userID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting cart: %w", err)
	}
	return nil
}

func activeCartForUpdate(ctx context.Context, tx *sql.Tx, userID string, create bool) (int, error) {
	var cartID int
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM carts WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&cartID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("querying cart: %w", err)
	}
	if !create {
		return 0, ErrCartNotFound
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO carts (user_id, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id
	`, userID).Scan(&cartID)
	if err != nil {
		return 0, fmt.Errorf("creating cart: %w", err)
	}
	return cartID, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return fmt.Errorf("failed to execute withTx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
