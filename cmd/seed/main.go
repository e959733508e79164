package main

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"tiketku/internal/config"
	"tiketku/internal/database"
	"tiketku/internal/settings"
)

var (
	clearExisting = flag.Bool("clear", false, "Clear existing demo data before seeding")
	dryRun        = flag.Bool("dry-run", false, "Show what would be seeded without making changes")
	customers     = flag.Int("customers", 20, "Number of demo customer accounts to create")
	events        = flag.Int("events", 5, "Number of demo events per merchant")
)

type Seeder struct {
	db *database.DB
}

func main() {
	flag.Parse()

	slog.Info("Starting demo data seeder...")

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	seeder := &Seeder{db: db}

	if err := seeder.Seed(); err != nil {
		slog.Error("Failed to seed demo data", "error", err)
		os.Exit(1)
	}

	slog.Info("Seeding completed successfully!")
}

func (s *Seeder) Seed() error {
	if *dryRun {
		slog.Info("[DRY RUN] Would seed demo data",
			"merchants", 2,
			"customers", *customers,
			"events_per_merchant", *events,
			"packages", 3)
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if *clearExisting {
		if err := s.clearDemoData(tx); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	if err := s.seedSettings(tx); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	if err := s.seedConversion(tx); err != nil {
		return fmt.Errorf("failed to seed conversion: %w", err)
	}

	if err := s.seedPackages(tx); err != nil {
		return fmt.Errorf("failed to seed packages: %w", err)
	}

	merchantIDs, err := s.seedMerchants(tx)
	if err != nil {
		return fmt.Errorf("failed to seed merchants: %w", err)
	}

	if err := s.seedUsers(tx, merchantIDs); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	for _, merchantID := range merchantIDs {
		if err := s.seedEvents(tx, merchantID); err != nil {
			return fmt.Errorf("failed to seed events for merchant %d: %w", merchantID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *Seeder) clearDemoData(tx *sql.Tx) error {
	tables := []string{
		"merchant_slot_payouts",
		"redemptions",
		"booking_items",
		"bookings",
		"slot_prices",
		"event_slots",
		"age_groups",
		"events",
		"package_purchases",
		"credit_transactions",
		"credit_grants",
		"wallets",
		"users",
		"merchants",
		"purchase_packages",
		"conversions",
	}

	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	slog.Info("Cleared existing demo data")
	return nil
}

func (s *Seeder) seedSettings(tx *sql.Tx) error {
	values := map[string]string{
		settings.KeyCancellationPolicyHours: "24",
		settings.KeyCommissionPct:           "10",
		settings.KeyPayoutHoldHours:         "72",
		settings.KeyRegistrationBonusFree:   "50",
		settings.KeyReferralBonusFree:       "100",
		settings.KeyReferralThreshold:       "3",
		settings.KeyBonusValidityDays:       "90",
	}

	for key, value := range values {
		_, err := tx.Exec(`
			INSERT INTO settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING`, key, value)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Seeder) seedConversion(tx *sql.Tx) error {
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM conversions WHERE status = 'ACTIVE'").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		slog.Info("Active conversion already exists, skipping")
		return nil
	}

	_, err := tx.Exec(`
		INSERT INTO conversions (rm_unit, credits_per_rm, paid_credit_percentage, free_credit_percentage, paid_to_free_ratio, effective_from, status)
		VALUES (1, 10, 70, 30, 3, NOW(), 'ACTIVE')`)
	if err != nil {
		return err
	}

	slog.Info("Seeded active conversion", "credits_per_rm", 10, "split", "70/30", "ratio", 3)
	return nil
}

func (s *Seeder) seedPackages(tx *sql.Tx) error {
	packages := []struct {
		name         string
		priceCents   int64
		paidCredits  int64
		freeCredits  int64
		validityDays *int
	}{
		{"Starter Pack", 5000, 350, 150, nil},
		{"Value Pack", 20000, 1400, 700, nil},
		{"Promo Pack", 10000, 700, 500, intPtr(60)},
	}

	for _, p := range packages {
		_, err := tx.Exec(`
			INSERT INTO purchase_packages (name, price_cents, paid_credits, free_credits, validity_days, is_active)
			VALUES ($1, $2, $3, $4, $5, TRUE)`,
			p.name, p.priceCents, p.paidCredits, p.freeCredits, p.validityDays)
		if err != nil {
			return err
		}
	}

	slog.Info("Seeded purchase packages", "count", len(packages))
	return nil
}

func (s *Seeder) seedMerchants(tx *sql.Tx) ([]int64, error) {
	names := []string{"Wondergarden Playland", "KidZone Adventures"}

	var ids []int64
	for _, name := range names {
		var id int64
		err := tx.QueryRow("INSERT INTO merchants (name) VALUES ($1) RETURNING id", name).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	slog.Info("Seeded merchants", "count", len(ids))
	return ids, nil
}

func (s *Seeder) seedUsers(tx *sql.Tx, merchantIDs []int64) error {
	insert := func(email, password, role string, merchantID *int64, referrerID *int64) (int64, error) {
		var id int64
		err := tx.QueryRow(`
			INSERT INTO users (email, password_hash, role, merchant_id, referrer_id)
			VALUES ($1, $2, $3, $4, $5) RETURNING user_id`,
			email, hashPassword(password), role, merchantID, referrerID).Scan(&id)
		return id, err
	}

	if _, err := insert("admin@tiketku.my", "admin123", "ADMIN", nil, nil); err != nil {
		return err
	}

	for i, merchantID := range merchantIDs {
		email := fmt.Sprintf("merchant%d@tiketku.my", i+1)
		mid := merchantID
		if _, err := insert(email, "merchant123", "MERCHANT", &mid, nil); err != nil {
			return err
		}
	}

	var firstCustomerID int64
	for i := 1; i <= *customers; i++ {
		email := fmt.Sprintf("customer%d@tiketku.my", i)

		var referrerID *int64
		if firstCustomerID > 0 && i%4 == 0 {
			referrerID = &firstCustomerID
		}

		id, err := insert(email, "customer123", "CUSTOMER", nil, referrerID)
		if err != nil {
			return err
		}
		if firstCustomerID == 0 {
			firstCustomerID = id
		}
	}

	slog.Info("Seeded users", "admins", 1, "merchants", len(merchantIDs), "customers", *customers)
	return nil
}

func (s *Seeder) seedEvents(tx *sql.Tx, merchantID int64) error {
	titles := []string{
		"Indoor Playground Session",
		"Weekend Craft Workshop",
		"Junior Science Lab",
		"Trampoline Park Pass",
		"Storytime & Puppet Show",
	}

	for i := 0; i < *events; i++ {
		title := titles[i%len(titles)]
		allAges := i%2 == 0

		var eventID int64
		err := tx.QueryRow(`
			INSERT INTO events (merchant_id, title, status, all_ages)
			VALUES ($1, $2, 'PUBLISHED', $3) RETURNING id`,
			merchantID, title, allAges).Scan(&eventID)
		if err != nil {
			return err
		}

		ageGroupIDs, err := s.seedAgeGroups(tx, eventID, allAges)
		if err != nil {
			return err
		}

		if err := s.seedSlots(tx, eventID, ageGroupIDs); err != nil {
			return err
		}
	}

	slog.Info("Seeded events", "merchant_id", merchantID, "count", *events)
	return nil
}

func (s *Seeder) seedAgeGroups(tx *sql.Tx, eventID int64, allAges bool) ([]int64, error) {
	if allAges {
		return nil, nil
	}

	labels := []string{"Toddler (1-3)", "Kids (4-8)", "Junior (9-12)"}

	var ids []int64
	for _, label := range labels {
		var id int64
		err := tx.QueryRow(`
			INSERT INTO age_groups (event_id, label) VALUES ($1, $2) RETURNING id`,
			eventID, label).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (s *Seeder) seedSlots(tx *sql.Tx, eventID int64, ageGroupIDs []int64) error {
	now := time.Now()

	for day := 1; day <= 7; day++ {
		startsAt := now.AddDate(0, 0, day).Truncate(time.Hour)
		endsAt := startsAt.Add(2 * time.Hour)
		capacity := rand.Intn(41) + 10

		var slotID int64
		err := tx.QueryRow(`
			INSERT INTO event_slots (event_id, capacity, starts_at, ends_at)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			eventID, capacity, startsAt, endsAt).Scan(&slotID)
		if err != nil {
			return err
		}

		if err := s.seedSlotPrices(tx, slotID, ageGroupIDs); err != nil {
			return err
		}
	}

	return nil
}

func (s *Seeder) seedSlotPrices(tx *sql.Tx, slotID int64, ageGroupIDs []int64) error {
	// Priced to line up with the seeded conversion: RM 1 = 10 credits,
	// 70% paid / 30% free.
	insert := func(ageGroupID *int64, priceCents int64) error {
		totalCredits := priceCents / 10
		paid := totalCredits * 70 / 100
		free := totalCredits - paid

		_, err := tx.Exec(`
			INSERT INTO slot_prices (slot_id, age_group_id, price_cents, paid_credits, free_credits)
			VALUES ($1, $2, $3, $4, $5)`,
			slotID, ageGroupID, priceCents, paid, free)
		return err
	}

	if len(ageGroupIDs) == 0 {
		return insert(nil, 3000+int64(rand.Intn(3))*1000)
	}

	for i, id := range ageGroupIDs {
		gid := id
		priceCents := 2000 + int64(i)*1000
		if err := insert(&gid, priceCents); err != nil {
			return err
		}
	}

	return nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func intPtr(v int) *int {
	return &v
}
