package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrDuplicate = errors.New("duplicate row")
	ErrReference = errors.New("referenced row does not exist")
	ErrCheck     = errors.New("value out of range")
)

// OpenDB connects to sqlite (default) or postgres and applies the schema.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "sqlite"
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: serialized writers, and ":memory:" stays a single database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates missing tables and indexes. Safe to run on every start.
func Migrate(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == "postgres" {
		schema = postgresSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InTx runs fn inside one transaction; it commits only if fn returns nil.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// translate maps driver constraint errors onto ErrDuplicate, ErrReference
// and ErrCheck.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", ErrReference, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return fmt.Errorf("%w: %v", ErrCheck, err)
		}
		msg := se.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed"):
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case strings.Contains(msg, "FOREIGN KEY constraint failed"):
			return fmt.Errorf("%w: %v", ErrReference, err)
		case strings.Contains(msg, "CHECK constraint failed"):
			return fmt.Errorf("%w: %v", ErrCheck, err)
		}
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		switch pe.Code {
		case "23505":
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case "23503":
			return fmt.Errorf("%w: %v", ErrReference, err)
		case "23514":
			return fmt.Errorf("%w: %v", ErrCheck, err)
		}
	}
	return err
}

const sqliteSchema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  position TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'buyer' CHECK (role IN ('buyer','seller')),
  active INTEGER NOT NULL DEFAULT 0,
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS confirm_tokens(
  user_id INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  token TEXT NOT NULL UNIQUE,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  city TEXT NOT NULL,
  street TEXT NOT NULL,
  house TEXT NOT NULL,
  structure TEXT NOT NULL DEFAULT '',
  building TEXT NOT NULL DEFAULT '',
  apartment TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id);

CREATE TABLE IF NOT EXISTS shops(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  url TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  state INTEGER NOT NULL DEFAULT 1,
  user_id INTEGER NULL UNIQUE REFERENCES users(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS categories(
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS shop_categories(
  category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  shop_id INTEGER NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
  PRIMARY KEY (category_id, shop_id)
);

CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  UNIQUE (name, category_id)
);

CREATE TABLE IF NOT EXISTS product_infos(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  shop_id INTEGER NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
  model TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  quantity INTEGER NOT NULL CHECK (quantity >= 0),
  price INTEGER NOT NULL CHECK (price >= 0),
  price_rrc INTEGER NOT NULL CHECK (price_rrc >= 0),
  active INTEGER NOT NULL DEFAULT 1
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_product_infos_active ON product_infos(product_id, shop_id) WHERE active = 1;
CREATE INDEX IF NOT EXISTS idx_product_infos_shop ON product_infos(shop_id);

CREATE TABLE IF NOT EXISTS parameters(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS product_parameters(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_info_id INTEGER NOT NULL REFERENCES product_infos(id) ON DELETE CASCADE,
  parameter_id INTEGER NOT NULL REFERENCES parameters(id) ON DELETE CASCADE,
  value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_product_parameters_info ON product_parameters(product_info_id);

CREATE TABLE IF NOT EXISTS orders(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  contact_id INTEGER NULL REFERENCES contacts(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL,
  status TEXT NOT NULL CHECK (status IN ('basket','new','confirmed','assembled','sent','delivered','canceled'))
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_one_basket ON orders(user_id) WHERE status = 'basket';
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

CREATE TABLE IF NOT EXISTS order_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_info_id INTEGER NOT NULL REFERENCES product_infos(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL CHECK (quantity > 0 AND quantity <= 1000000),
  UNIQUE (order_id, product_info_id)
);
CREATE INDEX IF NOT EXISTS idx_order_items_info ON order_items(product_info_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users(
  id BIGSERIAL PRIMARY KEY,
  email TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  position TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'buyer' CHECK (role IN ('buyer','seller')),
  active BOOLEAN NOT NULL DEFAULT FALSE,
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS confirm_tokens(
  user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  token TEXT NOT NULL UNIQUE,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts(
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  city TEXT NOT NULL,
  street TEXT NOT NULL,
  house TEXT NOT NULL,
  structure TEXT NOT NULL DEFAULT '',
  building TEXT NOT NULL DEFAULT '',
  apartment TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id);

CREATE TABLE IF NOT EXISTS shops(
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  url TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  state BOOLEAN NOT NULL DEFAULT TRUE,
  user_id BIGINT NULL UNIQUE REFERENCES users(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS categories(
  id BIGINT PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS shop_categories(
  category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  shop_id BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
  PRIMARY KEY (category_id, shop_id)
);

CREATE TABLE IF NOT EXISTS products(
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  UNIQUE (name, category_id)
);

CREATE TABLE IF NOT EXISTS product_infos(
  id BIGSERIAL PRIMARY KEY,
  product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  shop_id BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
  model TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  quantity BIGINT NOT NULL CHECK (quantity >= 0),
  price BIGINT NOT NULL CHECK (price >= 0),
  price_rrc BIGINT NOT NULL CHECK (price_rrc >= 0),
  active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_product_infos_active ON product_infos(product_id, shop_id) WHERE active;
CREATE INDEX IF NOT EXISTS idx_product_infos_shop ON product_infos(shop_id);

CREATE TABLE IF NOT EXISTS parameters(
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS product_parameters(
  id BIGSERIAL PRIMARY KEY,
  product_info_id BIGINT NOT NULL REFERENCES product_infos(id) ON DELETE CASCADE,
  parameter_id BIGINT NOT NULL REFERENCES parameters(id) ON DELETE CASCADE,
  value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_product_parameters_info ON product_parameters(product_info_id);

CREATE TABLE IF NOT EXISTS orders(
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  contact_id BIGINT NULL REFERENCES contacts(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL,
  status TEXT NOT NULL CHECK (status IN ('basket','new','confirmed','assembled','sent','delivered','canceled'))
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_one_basket ON orders(user_id) WHERE status = 'basket';
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

CREATE TABLE IF NOT EXISTS order_items(
  id BIGSERIAL PRIMARY KEY,
  order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_info_id BIGINT NOT NULL REFERENCES product_infos(id) ON DELETE CASCADE,
  quantity BIGINT NOT NULL CHECK (quantity > 0 AND quantity <= 1000000),
  UNIQUE (order_id, product_info_id)
);
CREATE INDEX IF NOT EXISTS idx_order_items_info ON order_items(product_info_id);
`

func get(ctx context.Context, e sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, e, dest, e.Rebind(query), args...)
}

func sel(ctx context.Context, e sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, e, dest, e.Rebind(query), args...)
}

// exec returns the affected row count.
func exec(ctx context.Context, e sqlx.ExtContext, query string, args ...any) (int64, error) {
	res, err := e.ExecContext(ctx, e.Rebind(query), args...)
	if err != nil {
		return 0, translate(err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// insert runs an INSERT ... RETURNING id statement.
func insert(ctx context.Context, e sqlx.ExtContext, query string, args ...any) (int64, error) {
	var id int64
	if err := sqlx.GetContext(ctx, e, &id, e.Rebind(query), args...); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

