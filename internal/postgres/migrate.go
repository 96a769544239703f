package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         BIGSERIAL PRIMARY KEY,
	uid        UUID NOT NULL,
	phone      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	name       TEXT,
	is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
	brightday  DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS categories (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	icon       TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id          BIGSERIAL PRIMARY KEY,
	category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
	name        TEXT NOT NULL,
	description TEXT,
	price       NUMERIC(12,2) NOT NULL DEFAULT 0,
	stock_qty   INT NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
	status      TEXT NOT NULL DEFAULT 'active',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS product_images (
	id         BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	url        TEXT NOT NULL,
	sort_order INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS addresses (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	label      TEXT,
	region     TEXT,
	city       TEXT,
	street     TEXT,
	zip_code   TEXT,
	is_default BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id              BIGSERIAL PRIMARY KEY,
	user_id         BIGINT NOT NULL REFERENCES users(id),
	address_id      BIGINT REFERENCES addresses(id),
	total_amount    NUMERIC(12,2) NOT NULL DEFAULT 0,
	payment_status  TEXT NOT NULL DEFAULT 'pending',
	status          TEXT NOT NULL DEFAULT 'created',
	idempotency_key TEXT UNIQUE,
	notes           TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_items (
	id         BIGSERIAL PRIMARY KEY,
	order_id   BIGINT NOT NULL REFERENCES orders(id),
	product_id BIGINT NOT NULL REFERENCES products(id),
	qty        INT NOT NULL CHECK (qty >= 1),
	unit_price NUMERIC(12,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS stock_ledger (
	id         BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL REFERENCES products(id),
	delta      INT NOT NULL,
	reason     TEXT NOT NULL,
	order_id   BIGINT REFERENCES orders(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payments (
	id           BIGSERIAL PRIMARY KEY,
	order_id     BIGINT NOT NULL REFERENCES orders(id),
	provider     TEXT NOT NULL,
	amount       NUMERIC(12,2) NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	provider_ref TEXT,
	payload      JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_images_product      ON product_images(product_id, sort_order);
CREATE INDEX IF NOT EXISTS idx_addresses_user      ON addresses(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_user         ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_order_items_order   ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_ledger_product      ON stock_ledger(product_id);
CREATE INDEX IF NOT EXISTS idx_ledger_order        ON stock_ledger(order_id);
CREATE INDEX IF NOT EXISTS idx_payments_order      ON payments(order_id);
`

// Migrate applies the schema. Statements are idempotent, safe to run on boot.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
