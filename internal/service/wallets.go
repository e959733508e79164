package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tiketku/internal/apperrors"
	"tiketku/internal/external"
	"tiketku/internal/logger"
	"tiketku/internal/messaging"
	"tiketku/internal/metrics"
	"tiketku/internal/models"
	"tiketku/internal/repository"
	"tiketku/internal/settings"
)

type WalletService struct {
	walletRepo    *repository.WalletRepository
	grantRepo     *repository.GrantRepository
	packageRepo   *repository.PackageRepository
	userRepo      *repository.UserRepository
	paymentClient *external.PaymentClient
	natsClient    *messaging.NATSClient
	settings      *settings.Store
}

func NewWalletService(
	walletRepo *repository.WalletRepository,
	grantRepo *repository.GrantRepository,
	packageRepo *repository.PackageRepository,
	userRepo *repository.UserRepository,
	paymentClient *external.PaymentClient,
	natsClient *messaging.NATSClient,
	store *settings.Store,
) *WalletService {
	return &WalletService{
		walletRepo:    walletRepo,
		grantRepo:     grantRepo,
		packageRepo:   packageRepo,
		userRepo:      userRepo,
		paymentClient: paymentClient,
		natsClient:    natsClient,
		settings:      store,
	}
}

// GetOrCreate returns the customer's wallet, creating it on first
// touch. Creation seeds the registration bonus and, when the customer
// was referred, checks whether the referrer just earned theirs.
func (s *WalletService) GetOrCreate(ctx context.Context, customerID int64) (*models.Wallet, error) {
	wallet, err := s.walletRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet, err = s.walletRepo.Create(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if err := s.grantSignupBonuses(ctx, customerID, wallet.ID); err != nil {
		logger.WithContext(ctx).Error("Failed to grant signup bonuses",
			"error", err,
			"customer_id", customerID)
	}

	// Re-read so the caller sees the bonus balance
	funded, err := s.walletRepo.GetByID(ctx, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload wallet: %w", err)
	}
	if funded != nil {
		wallet = funded
	}
	return wallet, nil
}

func (s *WalletService) grantSignupBonuses(ctx context.Context, customerID, walletID int64) error {
	if bonus := s.settings.RegistrationBonusFree(ctx); bonus > 0 {
		if err := s.grantBonus(ctx, walletID, bonus, models.GrantRegistration, "Registration bonus"); err != nil {
			return err
		}
	}

	user, err := s.userRepo.GetByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil && user.ReferrerID != nil {
		return s.MaybeGrantReferralBonus(ctx, *user.ReferrerID)
	}
	return nil
}

func (s *WalletService) Get(ctx context.Context, customerID int64) (*models.WalletResponse, error) {
	wallet, err := s.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return &models.WalletResponse{
		WalletID:    wallet.ID,
		FreeCredits: wallet.FreeCredits,
		PaidCredits: wallet.PaidCredits,
	}, nil
}

func (s *WalletService) Transactions(ctx context.Context, customerID int64, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	wallet, err := s.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	txs, err := s.walletRepo.ListTransactions(ctx, wallet.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Grants lists the customer's credit grants with remaining balances and
// expiry dates, so upcoming forfeits are visible before they happen.
func (s *WalletService) Grants(ctx context.Context, customerID int64) ([]models.CreditGrant, error) {
	wallet, err := s.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	grants, err := s.grantRepo.ListByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	return grants, nil
}

func (s *WalletService) ListPackages(ctx context.Context) ([]models.PurchasePackage, error) {
	packages, err := s.packageRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return packages, nil
}

// PurchasePackage opens a gateway payment for a credit package. The
// wallet is credited only when the completion notification arrives.
func (s *WalletService) PurchasePackage(ctx context.Context, customerID int64, req *models.PurchasePackageRequest) (*models.PurchasePackageResponse, error) {
	pkg, err := s.packageRepo.GetByID(ctx, req.PackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if pkg == nil || !pkg.IsActive {
		return nil, &apperrors.NotFoundError{Entity: "package", ID: req.PackageID}
	}

	wallet, err := s.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New().String()
	purchase := &models.PackagePurchase{
		WalletID:    wallet.ID,
		PackageID:   pkg.ID,
		OrderID:     orderID,
		Status:      models.PurchasePending,
		AmountCents: pkg.PriceCents,
	}
	if err := s.packageRepo.CreatePurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	paymentResp, err := s.paymentClient.InitPayment(pkg.PriceCents, orderID, fmt.Sprintf("Credit package: %s", pkg.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}

	if err := s.packageRepo.MarkInitiated(ctx, orderID, paymentResp.PaymentID); err != nil {
		return nil, fmt.Errorf("failed to mark purchase initiated: %w", err)
	}

	return &models.PurchasePackageResponse{
		OrderID:    orderID,
		PaymentURL: paymentResp.PaymentURL,
	}, nil
}

// HandlePaymentNotification settles a gateway webhook. Completion is
// status-guarded in the purchase row, so a replayed notification credits
// the wallet exactly once.
func (s *WalletService) HandlePaymentNotification(ctx context.Context, notification *models.PaymentNotificationPayload) error {
	logger.WithContext(ctx).Info("Received payment notification",
		"payment_id", notification.PaymentID,
		"order_id", notification.OrderID,
		"status", notification.Status)

	purchase, err := s.packageRepo.GetPurchaseByOrderID(ctx, notification.OrderID)
	if err != nil {
		return fmt.Errorf("failed to get purchase: %w", err)
	}
	if purchase == nil {
		return apperrors.NewValidation("unknown order %s", notification.OrderID)
	}

	switch notification.Status {
	case "completed", "CONFIRMED":
		return s.completePurchase(ctx, purchase)
	case "failed", "REJECTED", "CANCELLED":
		if err := s.packageRepo.MarkFailed(ctx, notification.OrderID); err != nil {
			return fmt.Errorf("failed to mark purchase failed: %w", err)
		}
	}

	return nil
}

func (s *WalletService) completePurchase(ctx context.Context, purchase *models.PackagePurchase) error {
	first, err := s.packageRepo.CompletePurchase(ctx, purchase.OrderID)
	if err != nil {
		return fmt.Errorf("failed to complete purchase: %w", err)
	}
	if !first {
		return nil
	}

	pkg, err := s.packageRepo.GetByID(ctx, purchase.PackageID)
	if err != nil {
		return fmt.Errorf("failed to get package: %w", err)
	}
	if pkg == nil {
		return apperrors.NewInvariant("purchase %d references missing package %d", purchase.ID, purchase.PackageID)
	}

	var expiresAt *time.Time
	if pkg.ValidityDays != nil {
		t := time.Now().AddDate(0, 0, *pkg.ValidityDays)
		expiresAt = &t
	}

	grant := &repository.GrantSpec{
		GrantType: models.GrantPurchase,
		Free:      pkg.FreeCredits,
		Paid:      pkg.PaidCredits,
		ExpiresAt: expiresAt,
		PackageID: &pkg.ID,
	}

	description := fmt.Sprintf("Purchased package: %s", pkg.Name)
	_, err = s.walletRepo.Credit(ctx, purchase.WalletID, pkg.FreeCredits, pkg.PaidCredits,
		models.TxPurchase, description, &pkg.ID, nil, grant)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	metrics.CreditsCredited.WithLabelValues(models.TxPurchase).Add(float64(pkg.FreeCredits + pkg.PaidCredits))

	event := models.WalletCreditedEvent{
		WalletID:  purchase.WalletID,
		Type:      models.TxPurchase,
		DeltaFree: pkg.FreeCredits,
		DeltaPaid: pkg.PaidCredits,
		Timestamp: time.Now(),
	}
	if err := s.natsClient.Publish(models.EventWalletCredited, event); err != nil {
		// Log error but don't fail the operation
		logger.WithContext(ctx).Error("Failed to publish wallet credited event",
			"error", err,
			"wallet_id", purchase.WalletID,
			"event_type", models.EventWalletCredited)
	}

	return nil
}

// MaybeGrantReferralBonus pays the referrer once their referral count
// reaches the threshold exactly, so the bonus is granted a single time.
func (s *WalletService) MaybeGrantReferralBonus(ctx context.Context, referrerID int64) error {
	threshold := s.settings.ReferralThreshold(ctx)
	bonus := s.settings.ReferralBonusFree(ctx)
	if threshold <= 0 || bonus <= 0 {
		return nil
	}

	count, err := s.userRepo.CountReferrals(ctx, referrerID)
	if err != nil {
		return fmt.Errorf("failed to count referrals: %w", err)
	}
	if count != threshold {
		return nil
	}

	wallet, err := s.GetOrCreate(ctx, referrerID)
	if err != nil {
		return err
	}

	return s.grantBonus(ctx, wallet.ID, bonus, models.GrantReferral, fmt.Sprintf("Referral bonus (%d referrals)", count))
}

func (s *WalletService) grantBonus(ctx context.Context, walletID, free int64, grantType, description string) error {
	var expiresAt *time.Time
	if days := s.settings.BonusValidityDays(ctx); days > 0 {
		t := time.Now().AddDate(0, 0, days)
		expiresAt = &t
	}

	grant := &repository.GrantSpec{
		GrantType: grantType,
		Free:      free,
		ExpiresAt: expiresAt,
	}

	_, err := s.walletRepo.Credit(ctx, walletID, free, 0, models.TxBonus, description, nil, nil, grant)
	if err != nil {
		return fmt.Errorf("failed to credit bonus: %w", err)
	}

	metrics.CreditsCredited.WithLabelValues(models.TxBonus).Add(float64(free))

	event := models.WalletCreditedEvent{
		WalletID:  walletID,
		Type:      models.TxBonus,
		DeltaFree: free,
		Timestamp: time.Now(),
	}
	if err := s.natsClient.Publish(models.EventWalletCredited, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish wallet credited event",
			"error", err,
			"wallet_id", walletID,
			"event_type", models.EventWalletCredited)
	}

	return nil
}

// Reconcile re-sums every wallet's ledger against its cached balances.
// Mismatches are reported, not repaired.
func (s *WalletService) Reconcile(ctx context.Context) ([]models.ReconcileResponse, error) {
	ids, err := s.walletRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	var results []models.ReconcileResponse
	for _, id := range ids {
		wallet, err := s.walletRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get wallet %d: %w", id, err)
		}
		if wallet == nil {
			continue
		}

		ledgerFree, ledgerPaid, err := s.walletRepo.SumLedger(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to sum ledger for wallet %d: %w", id, err)
		}

		consistent := wallet.FreeCredits == ledgerFree && wallet.PaidCredits == ledgerPaid
		if !consistent {
			logger.WithContext(ctx).Error("Wallet cache disagrees with ledger",
				"wallet_id", id,
				"cached_free", wallet.FreeCredits,
				"cached_paid", wallet.PaidCredits,
				"ledger_free", ledgerFree,
				"ledger_paid", ledgerPaid)
		}

		results = append(results, models.ReconcileResponse{
			WalletID:   id,
			CachedFree: wallet.FreeCredits,
			CachedPaid: wallet.PaidCredits,
			LedgerFree: ledgerFree,
			LedgerPaid: ledgerPaid,
			Consistent: consistent,
		})
	}

	return results, nil
}

// ReconcilePendingPurchases re-checks purchases stuck before completion
// against the gateway and settles them.
func (s *WalletService) ReconcilePendingPurchases(ctx context.Context, maxAge time.Duration) (int, error) {
	stale, err := s.packageRepo.ListStalePending(ctx, maxAge)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale purchases: %w", err)
	}

	settled := 0
	for i := range stale {
		purchase := &stale[i]
		check, err := s.paymentClient.CheckPayment(purchase.OrderID)
		if err != nil {
			logger.WithContext(ctx).Error("Failed to check payment",
				"error", err,
				"order_id", purchase.OrderID)
			continue
		}
		if len(check.Payments) == 0 {
			continue
		}

		switch check.Payments[0].Status {
		case "completed", "CONFIRMED":
			if err := s.completePurchase(ctx, purchase); err != nil {
				logger.WithContext(ctx).Error("Failed to settle stale purchase",
					"error", err,
					"order_id", purchase.OrderID)
				continue
			}
			settled++
		case "failed", "REJECTED", "CANCELLED", "EXPIRED":
			if err := s.packageRepo.MarkFailed(ctx, purchase.OrderID); err != nil {
				logger.WithContext(ctx).Error("Failed to mark stale purchase failed",
					"error", err,
					"order_id", purchase.OrderID)
			}
		}
	}

	return settled, nil
}
