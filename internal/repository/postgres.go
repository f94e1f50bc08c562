package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/errors"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/logging"
	"github.com/tm-acme-shop/acme-shop-order-pricing/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const orderColumns = `
		id, customer_id, customer_email, customer_phone, gst_state_code, status,
		items, applied_coupons, notes, created_at, updated_at, shipped_at, delivered_at`

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logging.LoggerV2
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sql.DB, logger *logging.LoggerV2) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		logger: logger,
	}
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(db *sql.DB) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// GetByID retrieves an order by its unique identifier.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.logger.Debug("Fetching order by ID", logging.Fields{"order_id": id})

	query := `SELECT` + orderColumns + `
		FROM orders
		WHERE id = $1 AND deleted_at IS NULL`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to fetch order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	return order, nil
}

// Create inserts an order as handed over by checkout.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == "" {
		order.ID = generateOrderID()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusOrdered
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}
	couponsJSON, err := json.Marshal(order.AppliedCoupons)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.CustomerID,
		order.CustomerEmail,
		order.CustomerPhone,
		order.GSTStateCode,
		order.Status,
		itemsJSON,
		couponsJSON,
		nullString(order.Notes),
		order.CreatedAt,
		order.UpdatedAt,
		order.ShippedAt,
		order.DeliveredAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("create order: %w", err)
	}

	r.logger.Info("Order created", logging.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"item_count":  len(order.Items),
	})
	return order, nil
}

// UpdateStatus updates the status of an order and stamps shipped/delivered times.
// The row is only written while its status is still from.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, from models.OrderStatus, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	r.logger.Debug("Updating order status", logging.Fields{
		"order_id":   id,
		"new_status": req.Status,
	})

	now := time.Now().UTC()

	var shippedAt, deliveredAt *time.Time
	switch req.Status {
	case models.OrderStatusShipped:
		shippedAt = &now
	case models.OrderStatusDelivered:
		deliveredAt = &now
	}

	query := `
		UPDATE orders
		SET status = $2, notes = COALESCE($3, notes), updated_at = $4,
		    shipped_at = COALESCE($5, shipped_at),
		    delivered_at = COALESCE($6, delivered_at)
		WHERE id = $1 AND status = $7 AND deleted_at IS NULL
		RETURNING id`

	var returnedID string
	err := r.db.QueryRowContext(ctx, query, id, req.Status, nullString(req.Notes), now, shippedAt, deliveredAt, from).Scan(&returnedID)
	if stderrors.Is(err, sql.ErrNoRows) {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &errors.TransitionError{From: string(current.Status), To: string(req.Status)}
	}
	if err != nil {
		r.logger.Error("Failed to update order status", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("update order %s status: %w", id, err)
	}

	r.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"new_status": req.Status,
	})

	return r.GetByID(ctx, id)
}

// List retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	r.logger.Debug("Listing orders", logging.Fields{
		"customer_id": filter.CustomerID,
		"status":      filter.Status,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})

	where, args := buildListWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := "SELECT" + orderColumns + " FROM orders" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	r.logger.Debug("Orders listed", logging.Fields{
		"count": len(orders),
		"total": total,
	})

	return orders, total, nil
}

func buildListWhere(filter *models.OrderListFilter) (string, []interface{}) {
	clauses := []string{"deleted_at IS NULL"}
	args := make([]interface{}, 0, 4)

	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.CustomerID != "" {
		add("customer_id = $%d", filter.CustomerID)
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	if filter.StartDate != nil {
		add("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("created_at <= $%d", *filter.EndDate)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var itemsJSON, couponsJSON []byte
	var notes sql.NullString
	var shippedAt, deliveredAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&order.GSTStateCode,
		&order.Status,
		&itemsJSON,
		&couponsJSON,
		&notes,
		&order.CreatedAt,
		&order.UpdatedAt,
		&shippedAt,
		&deliveredAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(couponsJSON, &order.AppliedCoupons); err != nil {
		return nil, fmt.Errorf("decode applied coupons: %w", err)
	}

	if notes.Valid {
		order.Notes = notes.String
	}
	if shippedAt.Valid {
		order.ShippedAt = &shippedAt.Time
	}
	if deliveredAt.Valid {
		order.DeliveredAt = &deliveredAt.Time
	}

	return &order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func generateOrderID() string {
	return "ord_" + uuid.NewString()
}
