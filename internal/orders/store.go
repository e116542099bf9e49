package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore implements Store over the orders/order_items tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateOrder(ctx context.Context, order Order) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, user_id, total_price, status, payment_status,
				estimated_time_remaining, razorpay_order_id, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		`, order.ID, order.UserID, order.TotalPrice, order.Status, order.PaymentStatus,
			order.EstimatedTimeRemaining, order.RazorpayOrderID, order.Notes)
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		for _, item := range order.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, menu_item_id, quantity, price_at_purchase)
				VALUES ($1, $2, $3, $4)
			`, order.ID, item.MenuItemID, item.Quantity, item.PriceAtPurchase)
			if err != nil {
				return fmt.Errorf("inserting order item: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) GetOrder(ctx context.Context, orderID string) (Order, error) {
	return s.getOrderWhere(ctx, `id = $1`, orderID)
}

func (s *PostgresStore) GetOrderByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (Order, error) {
	return s.getOrderWhere(ctx, `razorpay_order_id = $1`, razorpayOrderID)
}

func (s *PostgresStore) getOrderWhere(ctx context.Context, where string, arg string) (Order, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, total_price, status, payment_status, estimated_time_remaining,
			razorpay_order_id, razorpay_payment_id, razorpay_signature, notes, created_at, updated_at
		FROM orders WHERE %s
	`, where)

	var o Order
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&o.ID, &o.UserID, &o.TotalPrice,
		&o.Status, &o.PaymentStatus, &o.EstimatedTimeRemaining, &o.RazorpayOrderID,
		&o.RazorpayPaymentID, &o.RazorpaySignature, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("querying order: %w", err)
	}

	items, err := s.orderItems(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

func (s *PostgresStore) orderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT menu_item_id, quantity, price_at_purchase
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.MenuItemID, &item.Quantity, &item.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]UserOrder, error) {
	query := `
		SELECT o.id, o.total_price, o.status, o.payment_status, o.estimated_time_remaining,
			o.created_at, oi.menu_item_id, m.name, oi.price_at_purchase, m.food_image, oi.quantity
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, oi.id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user orders: %w", err)
	}
	defer rows.Close()

	result := []UserOrder{}
	index := map[string]int{}
	for rows.Next() {
		var (
			o    UserOrder
			item DisplayItem
		)
		if err := rows.Scan(&o.ID, &o.TotalPrice, &o.Status, &o.PaymentStatus,
			&o.EstimatedTimeRemaining, &o.CreatedAt,
			&item.MenuItemID, &item.Name, &item.Price, &item.FoodImage, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scanning user order: %w", err)
		}
		i, ok := index[o.ID]
		if !ok {
			index[o.ID] = len(result)
			o.Items = []DisplayItem{item}
			result = append(result, o)
			continue
		}
		result[i].Items = append(result[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user orders: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]AdminOrder, error) {
	query := `
		SELECT o.id, o.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''),
			o.total_price, o.status, o.payment_status,
			o.estimated_time_remaining, o.created_at,
			oi.menu_item_id, m.name, oi.price_at_purchase, m.food_image, oi.quantity
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		JOIN order_items oi ON oi.order_id = o.id
		JOIN menu_items m ON m.id = oi.menu_item_id
		ORDER BY o.created_at DESC, oi.id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying all orders: %w", err)
	}
	defer rows.Close()

	result := []AdminOrder{}
	index := map[string]int{}
	for rows.Next() {
		var (
			o    AdminOrder
			item DisplayItem
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserName, &o.UserEmail, &o.TotalPrice,
			&o.Status, &o.PaymentStatus, &o.EstimatedTimeRemaining, &o.CreatedAt,
			&item.MenuItemID, &item.Name, &item.Price, &item.FoodImage, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scanning admin order: %w", err)
		}
		i, ok := index[o.ID]
		if !ok {
			index[o.ID] = len(result)
			o.Items = []DisplayItem{item}
			result = append(result, o)
			continue
		}
		result[i].Items = append(result[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating admin orders: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, orderID, status string, estimatedMs int64) (Order, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, estimated_time_remaining = $2, updated_at = NOW()
		WHERE id = $3
	`, status, estimatedMs, orderID)
	if err != nil {
		return Order{}, fmt.Errorf("updating order status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return Order{}, ErrOrderNotFound
	}
	return s.GetOrder(ctx, orderID)
}

func (s *PostgresStore) MarkPaid(ctx context.Context, orderID, paymentID, signature string) (Order, error) {
	// Compare-and-swap on payment_status so duplicate confirmations (client
	// callback racing the webhook) leave the first write in place.
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, razorpay_payment_id = $2, razorpay_signature = $3, updated_at = NOW()
		WHERE id = $4 AND payment_status = $5
	`, PaymentPaid, paymentID, signature, orderID, PaymentPending)
	if err != nil {
		return Order{}, fmt.Errorf("marking order paid: %w", err)
	}
	return s.GetOrder(ctx, orderID)
}

func (s *PostgresStore) SetRemaining(ctx context.Context, orderID string, remainingMs int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET estimated_time_remaining = $1, updated_at = NOW() WHERE id = $2
	`, remainingMs, orderID)
	if err != nil {
		return fmt.Errorf("updating remaining time: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *PostgresStore) ListProcessing(ctx context.Context) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, total_price, status, payment_status, estimated_time_remaining,
			razorpay_order_id, razorpay_payment_id, razorpay_signature, notes, created_at, updated_at
		FROM orders WHERE status = $1
	`, StatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("querying processing orders: %w", err)
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.Status, &o.PaymentStatus,
			&o.EstimatedTimeRemaining, &o.RazorpayOrderID, &o.RazorpayPaymentID,
			&o.RazorpaySignature, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning processing order: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating processing orders: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
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
