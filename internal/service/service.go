package service

import (
	"tiketku/internal/cache"
	"tiketku/internal/external"
	"tiketku/internal/messaging"
	"tiketku/internal/repository"
	"tiketku/internal/settings"
)

type Services struct {
	Conversions *ConversionService
	Wallets     *WalletService
	Bookings    *BookingService
	Payouts     *PayoutService
	Users       *UserService
	Settings    *SettingsService
}

func NewServices(
	repos *repository.Repositories,
	natsClient *messaging.NATSClient,
	valkey *cache.ValkeyClient,
	paymentClient *external.PaymentClient,
	notifier *external.NotifierClient,
	store *settings.Store,
) *Services {
	conversionService := NewConversionService(repos.Conversions, valkey, natsClient)
	walletService := NewWalletService(repos.Wallets, repos.Grants, repos.Packages, repos.Users, paymentClient, natsClient, store)
	bookingService := NewBookingService(repos.Bookings, repos.Slots, walletService, repos.Users, conversionService, natsClient, notifier, store)
	payoutService := NewPayoutService(repos.Payouts, repos.Slots, natsClient, store)
	userService := NewUserService(repos.Users, walletService)
	settingsService := NewSettingsService(repos.Settings)

	return &Services{
		Conversions: conversionService,
		Wallets:     walletService,
		Bookings:    bookingService,
		Payouts:     payoutService,
		Users:       userService,
		Settings:    settingsService,
	}
}
