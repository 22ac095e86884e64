package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupTransactionServiceTest(t *testing.T) (*TransactionService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:transaction_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Stamp{},
		&models.BalanceAdjustment{},
		&models.Transaction{},
		&models.Location{},
		&models.Voucher{},
		&models.AutoGiftRule{},
		&models.AutoGiftHistory{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	customerRepo := repository.NewCustomerRepository(db)
	ledger := NewLedgerService(
		customerRepo,
		repository.NewStampRepository(db),
		repository.NewBalanceAdjustmentRepository(db),
	)
	settingSvc := NewSettingService(repository.NewSettingRepository(db))
	autoGift := NewAutoGiftService(
		repository.NewAutoGiftRepository(db),
		customerRepo,
		repository.NewVoucherRepository(db),
		ledger,
		settingSvc,
	)
	return NewTransactionService(
		repository.NewTransactionRepository(db),
		customerRepo,
		repository.NewLocationRepository(db),
		ledger,
		settingSvc,
		autoGift,
	), db
}

func createTestLocation(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	location := models.Location{
		ID:       id,
		Name:     fmt.Sprintf("门店%d", id),
		Code:     fmt.Sprintf("L%03d", id),
		IsActive: true,
	}
	if err := db.Create(&location).Error; err != nil {
		t.Fatalf("create location failed: %v", err)
	}
}

func TestRecordTransaction(t *testing.T) {
	svc, db := setupTransactionServiceTest(t)
	createTestCustomer(t, db, 31, 0)
	createTestLocation(t, db, 1)

	cashierID := uint(5)
	txn, err := svc.RecordTransaction(RecordTransactionInput{
		CustomerID:  31,
		CashierID:   &cashierID,
		LocationID:  1,
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(20000)),
		EntryMethod: "qr_scan",
	})
	if err != nil {
		t.Fatalf("record transaction failed: %v", err)
	}
	if txn.StampsEarned != 1 || txn.EntryMethod != constants.TransactionEntryQRScan {
		t.Fatalf("unexpected transaction: %+v", txn)
	}

	var customer models.Customer
	if err := db.First(&customer, 31).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 1 || customer.TotalStampsEarned != 1 {
		t.Fatalf("unexpected balance: %+v", customer)
	}
	if customer.LastTransactionAt == nil {
		t.Fatalf("last_transaction_at should be set")
	}

	// 交易号挂在印花行上
	var stamp models.Stamp
	if err := db.Where("customer_id = ?", 31).First(&stamp).Error; err != nil {
		t.Fatalf("load stamp failed: %v", err)
	}
	if stamp.TransactionID == nil || *stamp.TransactionID != txn.ID {
		t.Fatalf("stamp should link transaction %d, got %+v", txn.ID, stamp.TransactionID)
	}
	if stamp.Reason != constants.StampReasonTransaction {
		t.Fatalf("stamp reason want TRANSACTION got %s", stamp.Reason)
	}
}

func TestRecordTransactionBelowMinimum(t *testing.T) {
	svc, db := setupTransactionServiceTest(t)
	createTestCustomer(t, db, 32, 0)
	createTestLocation(t, db, 2)

	_, err := svc.RecordTransaction(RecordTransactionInput{
		CustomerID:  32,
		LocationID:  2,
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		EntryMethod: constants.TransactionEntryManualCode,
	})
	if !errors.Is(err, ErrBelowMinimumAmount) {
		t.Fatalf("expected below minimum, got: %v", err)
	}

	// 低于门槛不得留下任何记录
	var txns int64
	if err := db.Model(&models.Transaction{}).Where("customer_id = ?", 32).Count(&txns).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	if txns != 0 {
		t.Fatalf("transaction rows want 0 got %d", txns)
	}
	var customer models.Customer
	if err := db.First(&customer, 32).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 0 {
		t.Fatalf("balance should stay 0, got %d", customer.CurrentStamps)
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	svc, db := setupTransactionServiceTest(t)
	createTestCustomer(t, db, 33, 0)
	createTestLocation(t, db, 3)

	if _, err := svc.RecordTransaction(RecordTransactionInput{
		CustomerID:  33,
		LocationID:  3,
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(20000)),
		EntryMethod: "PHONE_ORDER",
	}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid entry method, got: %v", err)
	}

	if _, err := svc.RecordTransaction(RecordTransactionInput{
		CustomerID:  33,
		LocationID:  3,
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(-5)),
		EntryMethod: constants.TransactionEntryQRScan,
	}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got: %v", err)
	}

	if _, err := svc.RecordTransaction(RecordTransactionInput{
		CustomerID:  33,
		LocationID:  999,
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(20000)),
		EntryMethod: constants.TransactionEntryQRScan,
	}); !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected location not found, got: %v", err)
	}

	if _, err := svc.RecordTransaction(RecordTransactionInput{
		CustomerID:  999,
		LocationID:  3,
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(20000)),
		EntryMethod: constants.TransactionEntryQRScan,
	}); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected customer not found, got: %v", err)
	}
}

func TestRecordTransactionTriggersMilestone(t *testing.T) {
	svc, db := setupTransactionServiceTest(t)
	createTestCustomer(t, db, 34, 0)
	createTestLocation(t, db, 4)

	rule := models.AutoGiftRule{
		Name:         "第二笔消费奖励",
		TriggerType:  constants.TriggerTypeTransactionCount,
		TriggerValue: models.JSON{"count": 2},
		RewardType:   constants.RewardTypeStamps,
		RewardStamps: 3,
		IsActive:     true,
	}
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	record := func() {
		t.Helper()
		if _, err := svc.RecordTransaction(RecordTransactionInput{
			CustomerID:  34,
			LocationID:  4,
			TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(20000)),
			EntryMethod: constants.TransactionEntryQRScan,
		}); err != nil {
			t.Fatalf("record transaction failed: %v", err)
		}
	}

	record()
	var customer models.Customer
	if err := db.First(&customer, 34).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 1 {
		t.Fatalf("first transaction should not trigger, got %d stamps", customer.CurrentStamps)
	}

	record()
	if err := db.First(&customer, 34).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	// 两枚交易印花 + 三枚里程碑奖励
	if customer.CurrentStamps != 5 {
		t.Fatalf("milestone should grant once, got %d stamps", customer.CurrentStamps)
	}

	record()
	if err := db.First(&customer, 34).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 6 {
		t.Fatalf("milestone must not repeat, got %d stamps", customer.CurrentStamps)
	}
}
