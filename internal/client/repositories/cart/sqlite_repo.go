package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/stockkeeper/internal/client/models"
	"github.com/dmitrijs2005/stockkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context) ([]models.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT quantity, product FROM cart_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to select cart items: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var (
			item     models.CartItem
			snapshot []byte
		)
		if err := rows.Scan(&item.Quantity, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		if err := json.Unmarshal(snapshot, &item.Product); err != nil {
			return nil, fmt.Errorf("failed to decode product snapshot: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}

	return items, nil
}

func (r *SQLiteRepository) Owner(ctx context.Context) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT owner FROM cart_items ORDER BY position LIMIT 1`).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to select cart owner: %w", err)
	}
	return owner, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, owner string, items []models.CartItem) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := clearItems(ctx, tx); err != nil {
			return err
		}
		for pos, item := range items {
			snapshot, err := json.Marshal(item.Product)
			if err != nil {
				return fmt.Errorf("failed to encode product snapshot: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO cart_items (position, product_id, quantity, product, owner) VALUES (?, ?, ?, ?, ?)`,
				pos, item.Product.ID, item.Quantity, snapshot, owner)
			if err != nil {
				return fmt.Errorf("failed to insert cart item %d: %w", item.Product.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	return clearItems(ctx, r.db)
}

func clearItems(ctx context.Context, db dbx.DBTX) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM cart_items`); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
