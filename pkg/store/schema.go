package store

// Schema DDL executed once on Open. Referential integrity lives in the
// engine (foreign_keys=on); the price_at_order freeze is additionally
// guarded by a trigger so that history stays append-only even for callers
// that reach the database without going through the evaluator.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT    NOT NULL,
		author      TEXT    NOT NULL,
		price       INTEGER NOT NULL,
		cost_price  INTEGER NOT NULL,
		stock       INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT    NOT NULL,
		email       TEXT    NOT NULL,
		phone       TEXT    NOT NULL DEFAULT '',
		credit_card TEXT    NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		order_date  TEXT    NOT NULL,
		status      TEXT    NOT NULL DEFAULT 'Pending'
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id       INTEGER NOT NULL REFERENCES orders(id),
		book_id        INTEGER NOT NULL REFERENCES books(id),
		quantity       INTEGER NOT NULL,
		price_at_order INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
	`CREATE TRIGGER IF NOT EXISTS order_items_price_frozen
		BEFORE UPDATE OF price_at_order ON order_items
		WHEN NEW.price_at_order <> OLD.price_at_order
	BEGIN
		SELECT RAISE(ABORT, 'price_at_order is immutable');
	END`,
}

// Seed data for tests and the demo server. Prices are integer cents.
var seedStatements = []string{
	`INSERT INTO books (title, author, price, cost_price, stock) VALUES
		('The Go Programming Language', 'Donovan & Kernighan', 3999, 2100, 12),
		('Designing Data-Intensive Applications', 'Martin Kleppmann', 4599, 2450, 7),
		('The Pragmatic Programmer', 'Hunt & Thomas', 4199, 2300, 0)`,
	`INSERT INTO customers (name, email, phone, credit_card) VALUES
		('Ada Reyes', 'ada@example.com', '+1-555-0100', 'tok_4242'),
		('Sam Okafor', 'sam@example.com', '+1-555-0101', 'tok_4243')`,
	`INSERT INTO orders (customer_id, order_date, status) VALUES
		(1, '2026-08-12', 'Completed'),
		(1, '2026-08-27', 'Processing'),
		(2, '2026-08-29', 'Pending')`,
	`INSERT INTO order_items (order_id, book_id, quantity, price_at_order) VALUES
		(1, 1, 1, 3899),
		(1, 2, 1, 4599),
		(2, 3, 2, 4199),
		(3, 1, 1, 3999)`,
}
