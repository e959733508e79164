package repository

import (
	"tiketku/internal/database"
)

type Repositories struct {
	Conversions *ConversionRepository
	Wallets     *WalletRepository
	Grants      *GrantRepository
	Bookings    *BookingRepository
	Slots       *SlotRepository
	Payouts     *PayoutRepository
	Packages    *PackageRepository
	Users       *UserRepository
	Settings    *SettingRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Conversions: NewConversionRepository(db),
		Wallets:     NewWalletRepository(db),
		Grants:      NewGrantRepository(db),
		Bookings:    NewBookingRepository(db),
		Slots:       NewSlotRepository(db),
		Payouts:     NewPayoutRepository(db),
		Packages:    NewPackageRepository(db),
		Users:       NewUserRepository(db),
		Settings:    NewSettingRepository(db),
	}
}
