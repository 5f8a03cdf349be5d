package accounts

import (
	"errors"
	"fmt"
	"testing"

	"github.com/haulbridge/freightex-api/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

var testDBSeq int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:accounts_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&types.FinancialAccount{}, &types.CarrierFinancialAccount{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func prepayAccount(balance string) *types.FinancialAccount {
	return &types.FinancialAccount{
		AccountID:     "ACC_PRE",
		ShipperID:     "SHIPPER_1",
		PaymentMode:   types.PaymentModePrepay,
		CreditBalance: d(balance),
		Verified:      true,
		Active:        true,
	}
}

func postpayAccount(outstanding, limit string) *types.FinancialAccount {
	return &types.FinancialAccount{
		AccountID:          "ACC_POST",
		ShipperID:          "SHIPPER_2",
		PaymentMode:        types.PaymentModePostpay,
		OutstandingBalance: d(outstanding),
		SpendingLimit:      d(limit),
		Verified:           true,
		Active:             true,
	}
}

func TestReserve_PrepayDebits(t *testing.T) {
	db := newTestDB(t)
	guard := NewGuard(db)

	account := prepayAccount("500.00")
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	if err := guard.Reserve(account, d("120.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.CreditBalance.Equal(d("380.00")) {
		t.Errorf("expected balance 380.00, got %s", account.CreditBalance)
	}

	var stored types.FinancialAccount
	if err := db.Where("account_id = ?", account.AccountID).First(&stored).Error; err != nil {
		t.Fatalf("failed to reload account: %v", err)
	}
	if !stored.CreditBalance.Equal(d("380.00")) {
		t.Errorf("persisted balance %s, expected 380.00", stored.CreditBalance)
	}
}

func TestReserve_PrepayInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	guard := NewGuard(db)

	account := prepayAccount("100.00")
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	err := guard.Reserve(account, d("100.01"))
	if !errors.Is(err, types.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	var stored types.FinancialAccount
	db.Where("account_id = ?", account.AccountID).First(&stored)
	if !stored.CreditBalance.Equal(d("100.00")) {
		t.Errorf("balance must be untouched on failure, got %s", stored.CreditBalance)
	}
}

func TestReserve_PostpayWithinLimit(t *testing.T) {
	db := newTestDB(t)
	guard := NewGuard(db)

	account := postpayAccount("900.00", "1000.00")
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	if err := guard.Reserve(account, d("100.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.OutstandingBalance.Equal(d("1000.00")) {
		t.Errorf("expected outstanding 1000.00, got %s", account.OutstandingBalance)
	}
}

func TestReserve_PostpayLimitExceeded(t *testing.T) {
	db := newTestDB(t)
	guard := NewGuard(db)

	account := postpayAccount("900.00", "1000.00")
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	err := guard.Reserve(account, d("100.01"))
	if !errors.Is(err, types.ErrLimitExceeded) {
		t.Errorf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestReserve_IneligibleAccount(t *testing.T) {
	db := newTestDB(t)
	guard := NewGuard(db)

	unverified := prepayAccount("500.00")
	unverified.Verified = false
	if err := guard.Reserve(unverified, d("10.00")); !errors.Is(err, types.ErrIneligibleAccount) {
		t.Errorf("unverified: expected ErrIneligibleAccount, got %v", err)
	}

	inactive := prepayAccount("500.00")
	inactive.Active = false
	if err := guard.Reserve(inactive, d("10.00")); !errors.Is(err, types.ErrIneligibleAccount) {
		t.Errorf("inactive: expected ErrIneligibleAccount, got %v", err)
	}
}

func TestCreditCarrier_IncreasesHoldingBalance(t *testing.T) {
	db := newTestDB(t)
	guard := NewGuard(db)

	account := &types.CarrierFinancialAccount{
		AccountID:      "ACC_CAR",
		CarrierID:      "CARRIER_1",
		HoldingBalance: d("50.00"),
		Verified:       true,
		Active:         true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	if err := guard.CreditCarrier(account, d("1000.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.HoldingBalance.Equal(d("1050.00")) {
		t.Errorf("expected holding balance 1050.00, got %s", account.HoldingBalance)
	}
}

func TestCreditCarrier_IneligibleAccount(t *testing.T) {
	db := newTestDB(t)
	guard := NewGuard(db)

	account := &types.CarrierFinancialAccount{
		AccountID: "ACC_CAR2",
		CarrierID: "CARRIER_2",
		Verified:  false,
		Active:    true,
	}
	if err := guard.CreditCarrier(account, d("10.00")); !errors.Is(err, types.ErrIneligibleAccount) {
		t.Errorf("expected ErrIneligibleAccount, got %v", err)
	}
}
