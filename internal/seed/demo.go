// Package seed sets up the demo schema and sample data the example window
// definitions run against.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DemoSeeder creates the sales order demo tables and fills them with a
// handful of documents.
type DemoSeeder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDemoSeeder(pool *pgxpool.Pool, logger *slog.Logger) *DemoSeeder {
	return &DemoSeeder{pool: pool, logger: logger}
}

// SetupSchema creates the demo tables when they do not exist yet.
func (s *DemoSeeder) SetupSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS c_order (
			C_Order_ID serial PRIMARY KEY,
			DocumentNo text NOT NULL,
			C_BPartner_ID integer,
			DateOrdered date NOT NULL DEFAULT CURRENT_DATE,
			GrandTotal numeric(14,2) NOT NULL DEFAULT 0,
			Processed boolean NOT NULL DEFAULT false,
			IsActive char(1) NOT NULL DEFAULT 'Y',
			Updated timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS c_orderline (
			C_OrderLine_ID serial PRIMARY KEY,
			C_Order_ID integer NOT NULL REFERENCES c_order(C_Order_ID) ON DELETE CASCADE,
			Line integer NOT NULL,
			Description text,
			QtyOrdered numeric(14,2) NOT NULL DEFAULT 0,
			PriceActual numeric(14,2) NOT NULL DEFAULT 0,
			Updated timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS c_bpartner (
			C_BPartner_ID serial PRIMARY KEY,
			Name text NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orderline_order ON c_orderline (C_Order_ID, Line)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("setting up demo schema: %w", err)
		}
	}
	s.logger.Info("demo schema ready")
	return nil
}

// ClearData empties the demo tables, keeping the schema.
func (s *DemoSeeder) ClearData(ctx context.Context) error {
	for _, table := range []string{"c_orderline", "c_order", "c_bpartner"} {
		if _, err := s.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	s.logger.Info("demo data cleared")
	return nil
}

// DropTables removes the demo tables entirely.
func (s *DemoSeeder) DropTables(ctx context.Context) error {
	for _, table := range []string{"c_orderline", "c_order", "c_bpartner"} {
		if _, err := s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("dropping %s: %w", table, err)
		}
	}
	s.logger.Info("demo tables dropped")
	return nil
}

// SeedData inserts a few business partners and sales orders with lines.
// Idempotent: existing rows are left alone.
func (s *DemoSeeder) SeedData(ctx context.Context) error {
	partners := []struct {
		id   int
		name string
	}{
		{1000, "Mountain Outfitters"},
		{1001, "Harbor Supplies"},
	}
	for _, p := range partners {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO c_bpartner (C_BPartner_ID, Name) VALUES ($1, $2)
			 ON CONFLICT (C_BPartner_ID) DO NOTHING`, p.id, p.name)
		if err != nil {
			return fmt.Errorf("seeding business partner %d: %w", p.id, err)
		}
	}

	now := time.Now()
	orders := []struct {
		id         int
		documentNo string
		partnerID  int
		grandTotal float64
		processed  bool
	}{
		{2000, "SO-1001", 1000, 350.00, false},
		{2001, "SO-1002", 1001, 1280.50, false},
		{2002, "SO-1003", 1000, 99.90, true},
	}
	for _, o := range orders {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO c_order (C_Order_ID, DocumentNo, C_BPartner_ID, DateOrdered, GrandTotal, Processed, Updated)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (C_Order_ID) DO NOTHING`,
			o.id, o.documentNo, o.partnerID, now, o.grandTotal, o.processed, now)
		if err != nil {
			return fmt.Errorf("seeding order %s: %w", o.documentNo, err)
		}
	}

	lines := []struct {
		id          int
		orderID     int
		line        int
		description string
		qty         float64
		price       float64
	}{
		{3000, 2000, 10, "Trekking poles", 2, 45.00},
		{3001, 2000, 20, "Sleeping bag", 1, 260.00},
		{3002, 2001, 10, "Mooring rope 50m", 4, 320.00},
		{3003, 2002, 10, "Head lamp", 1, 99.90},
	}
	for _, l := range lines {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO c_orderline (C_OrderLine_ID, C_Order_ID, Line, Description, QtyOrdered, PriceActual, Updated)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (C_OrderLine_ID) DO NOTHING`,
			l.id, l.orderID, l.line, l.description, l.qty, l.price, now)
		if err != nil {
			return fmt.Errorf("seeding order line %d: %w", l.id, err)
		}
	}

	// Fix the sequences past the fixed demo ids so the engine's inserts work.
	for _, fix := range []string{
		`SELECT setval(pg_get_serial_sequence('c_order', 'c_order_id'), GREATEST(2100, (SELECT max(C_Order_ID) FROM c_order)))`,
		`SELECT setval(pg_get_serial_sequence('c_orderline', 'c_orderline_id'), GREATEST(3100, (SELECT max(C_OrderLine_ID) FROM c_orderline)))`,
		`SELECT setval(pg_get_serial_sequence('c_bpartner', 'c_bpartner_id'), GREATEST(1100, (SELECT max(C_BPartner_ID) FROM c_bpartner)))`,
	} {
		if _, err := s.pool.Exec(ctx, fix); err != nil {
			return fmt.Errorf("adjusting sequences: %w", err)
		}
	}

	s.logger.Info("demo data seeded", "orders", len(orders), "lines", len(lines))
	return nil
}
