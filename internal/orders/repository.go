package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/huulo/storefront/internal/domain"
)

var (
	_ Gateway      = (*Repository)(nil)
	_ OutboxSource = (*Repository)(nil)
)

const eventTypeOrderCompleted = "order.completed"

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Repository is the Postgres-backed order store. Besides the order and
// order_items tables it records an order.completed outbox event in the same
// transaction as the items, for the fulfillment consumer.
type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

// newRepositoryWithDB exists for tests that inject a mocked *sql.DB.
func newRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) (string, error) {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	query := `INSERT INTO orders (id, user_id, total_amount, status, payment_reference,
	                              full_name, phone_number, shipping_address, city, state, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.TotalAmount,
		order.Status,
		order.PaymentReference,
		order.FullName,
		order.PhoneNumber,
		order.ShippingAddress,
		order.City,
		order.State,
		order.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return "", ErrDuplicateReference
		}
		return "", fmt.Errorf("insert order: %w", err)
	}
	return order.ID, nil
}

// itemMetadata is the per-item metadata column. Field names match what the
// order history and admin screens read.
type itemMetadata struct {
	SelectedGames []domain.BundleSelection `json:"selectedGames,omitempty"`
}

func (r *Repository) CreateOrderItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO order_items (order_id, product_id, product_name, quantity, price, image, metadata)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, item := range items {
		metadata, err := json.Marshal(itemMetadata{SelectedGames: item.SelectedGames})
		if err != nil {
			return fmt.Errorf("marshal item metadata: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query,
			orderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.Price,
			item.Image,
			metadata,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := r.recordOutboxEvent(ctx, tx, orderID, items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order items: %w", err)
	}
	return nil
}

func (r *Repository) recordOutboxEvent(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem) error {
	payload, err := json.Marshal(map[string]interface{}{
		"order_id":     orderID,
		"items":        items,
		"completed_at": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_outbox (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		orderID, eventTypeOrderCompleted, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) UnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload
	          FROM order_outbox
	          WHERE processed_at IS NULL
	          ORDER BY id
	          LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		ev := &OutboxEvent{}
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE order_outbox SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

// GetOrdersByUser returns a user's order history, newest first.
func (r *Repository) GetOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT id, user_id, total_amount, status, payment_reference,
	                 full_name, phone_number, shipping_address, city, state, created_at
	          FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user: %w", err)
	}
	defer rows.Close()

	var list []*domain.Order
	for rows.Next() {
		o := &domain.Order{}
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentReference,
			&o.FullName, &o.PhoneNumber, &o.ShippingAddress, &o.City, &o.State, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return list, nil
}
