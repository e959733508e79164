package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createMerchantsTable,
		createUsersTable,
		createConversionsTable,
		createWalletsTable,
		createCreditGrantsTable,
		createCreditTransactionsTable,
		createPurchasePackagesTable,
		createPackagePurchasesTable,
		createEventsTable,
		createAgeGroupsTable,
		createEventSlotsTable,
		createSlotPricesTable,
		createBookingsTable,
		createBookingItemsTable,
		createRedemptionsTable,
		createPayoutsTable,
		createSettingsTable,
		createGrantExpiryIndex,
		createSlotEndIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createMerchantsTable = `
CREATE TABLE IF NOT EXISTS merchants (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'CUSTOMER',
    merchant_id INTEGER REFERENCES merchants(id),
    referrer_id INTEGER REFERENCES users(user_id),
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,

    CHECK (role IN ('CUSTOMER', 'MERCHANT', 'ADMIN'))
);`

const createConversionsTable = `
CREATE TABLE IF NOT EXISTS conversions (
    id SERIAL PRIMARY KEY,
    rm_unit NUMERIC(10,2) NOT NULL DEFAULT 1,
    credits_per_rm NUMERIC(10,4) NOT NULL,
    paid_credit_percentage NUMERIC(5,2) NOT NULL,
    free_credit_percentage NUMERIC(5,2) NOT NULL,
    paid_to_free_ratio INTEGER NOT NULL DEFAULT 1,
    effective_from TIMESTAMP NOT NULL,
    valid_until TIMESTAMP,
    status VARCHAR(20) NOT NULL DEFAULT 'SCHEDULED',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('ACTIVE', 'SCHEDULED', 'INACTIVE')),
    CHECK (paid_to_free_ratio >= 1),
    CHECK (paid_credit_percentage + free_credit_percentage = 100)
);
CREATE UNIQUE INDEX IF NOT EXISTS conversions_single_active_idx
ON conversions (status) WHERE status = 'ACTIVE';`

const createWalletsTable = `
CREATE TABLE IF NOT EXISTS wallets (
    id SERIAL PRIMARY KEY,
    customer_id INTEGER UNIQUE NOT NULL REFERENCES users(user_id),
    cached_free_credits BIGINT NOT NULL DEFAULT 0,
    cached_paid_credits BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (cached_free_credits >= 0),
    CHECK (cached_paid_credits >= 0)
);`

const createCreditGrantsTable = `
CREATE TABLE IF NOT EXISTS credit_grants (
    id SERIAL PRIMARY KEY,
    wallet_id INTEGER NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
    grant_type VARCHAR(20) NOT NULL,
    free_credits_granted BIGINT NOT NULL DEFAULT 0,
    paid_credits_granted BIGINT NOT NULL DEFAULT 0,
    free_credits_remaining BIGINT NOT NULL DEFAULT 0,
    paid_credits_remaining BIGINT NOT NULL DEFAULT 0,
    expires_at TIMESTAMP,
    purchase_package_id INTEGER,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (grant_type IN ('REGISTRATION', 'REFERRAL', 'PURCHASE')),
    CHECK (free_credits_remaining >= 0 AND free_credits_remaining <= free_credits_granted),
    CHECK (paid_credits_remaining >= 0 AND paid_credits_remaining <= paid_credits_granted)
);`

const createCreditTransactionsTable = `
CREATE TABLE IF NOT EXISTS credit_transactions (
    id SERIAL PRIMARY KEY,
    wallet_id INTEGER NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
    type VARCHAR(20) NOT NULL,
    delta_free BIGINT NOT NULL,
    delta_paid BIGINT NOT NULL,
    before_free BIGINT NOT NULL,
    before_paid BIGINT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    purchase_package_id INTEGER,
    booking_id INTEGER,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (type IN ('PURCHASE', 'BOOKING', 'REFUND', 'BONUS', 'EXPIRY'))
);
CREATE INDEX IF NOT EXISTS credit_transactions_wallet_idx
ON credit_transactions (wallet_id, created_at);`

const createPurchasePackagesTable = `
CREATE TABLE IF NOT EXISTS purchase_packages (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    price_cents BIGINT NOT NULL,
    paid_credits BIGINT NOT NULL,
    free_credits BIGINT NOT NULL DEFAULT 0,
    validity_days INTEGER,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createPackagePurchasesTable = `
CREATE TABLE IF NOT EXISTS package_purchases (
    id SERIAL PRIMARY KEY,
    wallet_id INTEGER NOT NULL REFERENCES wallets(id),
    package_id INTEGER NOT NULL REFERENCES purchase_packages(id),
    order_id VARCHAR(64) UNIQUE NOT NULL,
    payment_id VARCHAR(255),
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    amount_cents BIGINT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PENDING', 'INITIATED', 'COMPLETED', 'FAILED'))
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id SERIAL PRIMARY KEY,
    merchant_id INTEGER NOT NULL REFERENCES merchants(id),
    title VARCHAR(500) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'DRAFT',
    all_ages BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createAgeGroupsTable = `
CREATE TABLE IF NOT EXISTS age_groups (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    label VARCHAR(100) NOT NULL,

    UNIQUE(event_id, label)
);`

const createEventSlotsTable = `
CREATE TABLE IF NOT EXISTS event_slots (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    capacity INTEGER,
    booked_quantity INTEGER NOT NULL DEFAULT 0,
    starts_at TIMESTAMP NOT NULL,
    ends_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (booked_quantity >= 0),
    CHECK (capacity IS NULL OR booked_quantity <= capacity)
);`

const createSlotPricesTable = `
CREATE TABLE IF NOT EXISTS slot_prices (
    id SERIAL PRIMARY KEY,
    slot_id INTEGER NOT NULL REFERENCES event_slots(id) ON DELETE CASCADE,
    age_group_id INTEGER REFERENCES age_groups(id),
    price_cents BIGINT NOT NULL,
    paid_credits BIGINT NOT NULL,
    free_credits BIGINT NOT NULL,

    UNIQUE(slot_id, age_group_id)
);
CREATE UNIQUE INDEX IF NOT EXISTS slot_prices_general_idx
ON slot_prices (slot_id) WHERE age_group_id IS NULL;`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    slot_id INTEGER NOT NULL REFERENCES event_slots(id),
    customer_id INTEGER NOT NULL REFERENCES users(user_id),
    status VARCHAR(20) NOT NULL DEFAULT 'CONFIRMED',
    quantity INTEGER NOT NULL,
    booked_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PENDING_PAYMENT', 'CONFIRMED', 'CANCELLED', 'REFUNDED'))
);`

const createBookingItemsTable = `
CREATE TABLE IF NOT EXISTS booking_items (
    id SERIAL PRIMARY KEY,
    booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    age_group_id INTEGER REFERENCES age_groups(id),
    quantity INTEGER NOT NULL,
    price_cents BIGINT NOT NULL,
    free_credits BIGINT NOT NULL,
    paid_credits BIGINT NOT NULL
);`

const createRedemptionsTable = `
CREATE TABLE IF NOT EXISTS redemptions (
    id SERIAL PRIMARY KEY,
    booking_item_id INTEGER NOT NULL REFERENCES booking_items(id) ON DELETE CASCADE,
    purpose VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    quantity INTEGER NOT NULL,
    quantity_redeemed INTEGER NOT NULL DEFAULT 0,
    redeemed_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (purpose IN ('CLAIM', 'ATTENDANCE')),
    CHECK (status IN ('PENDING', 'REDEEMED', 'ABSENT', 'EXPIRED')),
    CHECK (quantity_redeemed >= 0 AND quantity_redeemed <= quantity),
    UNIQUE(booking_item_id, purpose)
);`

const createPayoutsTable = `
CREATE TABLE IF NOT EXISTS merchant_slot_payouts (
    id SERIAL PRIMARY KEY,
    merchant_id INTEGER NOT NULL REFERENCES merchants(id),
    slot_id INTEGER NOT NULL REFERENCES event_slots(id),
    gross_amount_cents BIGINT NOT NULL,
    commission_cents BIGINT NOT NULL,
    net_amount_cents BIGINT NOT NULL,
    breakdown JSONB NOT NULL DEFAULT '[]',
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    available_at TIMESTAMP NOT NULL,
    calculated_at TIMESTAMP NOT NULL DEFAULT NOW(),
    paid_at TIMESTAMP,

    CHECK (status IN ('PENDING', 'REQUESTED', 'PAID')),
    UNIQUE(merchant_id, slot_id)
);`

const createSettingsTable = `
CREATE TABLE IF NOT EXISTS settings (
    key VARCHAR(100) PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createGrantExpiryIndex = `
CREATE INDEX IF NOT EXISTS credit_grants_expiry_idx
ON credit_grants (expires_at)
WHERE free_credits_remaining > 0 OR paid_credits_remaining > 0;`

const createSlotEndIndex = `
CREATE INDEX IF NOT EXISTS event_slots_ends_at_idx
ON event_slots (ends_at);`
