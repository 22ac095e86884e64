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
	"gorm.io/gorm"
)

func setupLedgerServiceTest(t *testing.T) (*LedgerService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Stamp{},
		&models.BalanceAdjustment{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewLedgerService(
		repository.NewCustomerRepository(db),
		repository.NewStampRepository(db),
		repository.NewBalanceAdjustmentRepository(db),
	), db
}

func createTestCustomer(t *testing.T, db *gorm.DB, id uint, stamps int) {
	t.Helper()
	customer := models.Customer{
		ID:                id,
		UserID:            id,
		MemberNo:          fmt.Sprintf("M%06d", id),
		CurrentStamps:     stamps,
		TotalStampsEarned: stamps,
	}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
}

func TestLedgerAwardStamps(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	createTestCustomer(t, db, 1, 0)

	if err := svc.AwardStamps(AwardStampsInput{
		CustomerID: 1,
		Count:      3,
		Reason:     constants.StampReasonBonus,
	}); err != nil {
		t.Fatalf("award stamps failed: %v", err)
	}

	balance, err := svc.GetBalance(1)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance.CurrentStamps != 3 || balance.TotalStampsEarned != 3 || balance.TotalStampsUsed != 0 {
		t.Fatalf("unexpected balance: %+v", balance)
	}

	var rows int64
	if err := db.Model(&models.Stamp{}).Where("customer_id = ? AND status = ?", 1, constants.StampStatusActive).Count(&rows).Error; err != nil {
		t.Fatalf("count stamps failed: %v", err)
	}
	if rows != 3 {
		t.Fatalf("stamp rows want 3 got %d", rows)
	}
}

func TestLedgerAwardStampsInvalidInput(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	createTestCustomer(t, db, 2, 0)

	if err := svc.AwardStamps(AwardStampsInput{CustomerID: 2, Count: 0, Reason: constants.StampReasonBonus}); !errors.Is(err, ErrInvalidStampCount) {
		t.Fatalf("expected invalid stamp count, got: %v", err)
	}
	if err := svc.AwardStamps(AwardStampsInput{CustomerID: 2, Count: 1, Reason: "  "}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got: %v", err)
	}
	if err := svc.AwardStamps(AwardStampsInput{CustomerID: 999, Count: 1, Reason: constants.StampReasonBonus}); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected customer not found, got: %v", err)
	}
}

func TestLedgerConsumeStampsFIFO(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	createTestCustomer(t, db, 3, 0)

	// 两批不同时间获得的印花
	old := time.Now().Add(-48 * time.Hour)
	if err := db.Create(&models.Stamp{CustomerID: 3, Status: constants.StampStatusActive, Reason: constants.StampReasonBonus, EarnedAt: old}).Error; err != nil {
		t.Fatalf("seed old stamp failed: %v", err)
	}
	if err := db.Create(&models.Stamp{CustomerID: 3, Status: constants.StampStatusActive, Reason: constants.StampReasonBonus, EarnedAt: time.Now()}).Error; err != nil {
		t.Fatalf("seed new stamp failed: %v", err)
	}
	if err := db.Model(&models.Customer{}).Where("id = ?", 3).Updates(map[string]interface{}{
		"current_stamps":      2,
		"total_stamps_earned": 2,
	}).Error; err != nil {
		t.Fatalf("seed balance failed: %v", err)
	}

	if err := svc.ConsumeStamps(ConsumeStampsInput{CustomerID: 3, Count: 1}); err != nil {
		t.Fatalf("consume stamps failed: %v", err)
	}

	balance, err := svc.GetBalance(3)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance.CurrentStamps != 1 || balance.TotalStampsUsed != 1 {
		t.Fatalf("unexpected balance after consume: %+v", balance)
	}

	// 最早获得的一枚先被标记
	var used models.Stamp
	if err := db.Where("customer_id = ? AND status = ?", 3, constants.StampStatusUsed).First(&used).Error; err != nil {
		t.Fatalf("load used stamp failed: %v", err)
	}
	if !used.EarnedAt.Equal(old) && used.EarnedAt.After(old.Add(time.Second)) {
		t.Fatalf("oldest stamp should be used first, got earned_at=%v", used.EarnedAt)
	}
	if used.UsedAt == nil {
		t.Fatalf("used stamp should carry used_at")
	}
}

func TestLedgerConsumeStampsInsufficient(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	createTestCustomer(t, db, 4, 1)

	err := svc.ConsumeStamps(ConsumeStampsInput{CustomerID: 4, Count: 5})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}

	// 余额不足时不得有任何状态变化
	balance, err := svc.GetBalance(4)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance.CurrentStamps != 1 || balance.TotalStampsUsed != 0 {
		t.Fatalf("balance should be untouched, got: %+v", balance)
	}
}

func TestLedgerAdjustBalance(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	createTestCustomer(t, db, 5, 0)

	if err := svc.AdjustBalance(AdjustBalanceInput{CustomerID: 5, EmployeeID: 9, Delta: 2, Reason: "开业补偿"}); err != nil {
		t.Fatalf("positive adjust failed: %v", err)
	}
	if err := svc.AdjustBalance(AdjustBalanceInput{CustomerID: 5, EmployeeID: 9, Delta: -1, Reason: "误发回收"}); err != nil {
		t.Fatalf("negative adjust failed: %v", err)
	}

	balance, err := svc.GetBalance(5)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance.CurrentStamps != 1 || balance.TotalStampsEarned != 2 || balance.TotalStampsUsed != 1 {
		t.Fatalf("unexpected balance: %+v", balance)
	}

	var audits int64
	if err := db.Model(&models.BalanceAdjustment{}).Where("customer_id = ?", 5).Count(&audits).Error; err != nil {
		t.Fatalf("count adjustments failed: %v", err)
	}
	if audits != 2 {
		t.Fatalf("adjustment rows want 2 got %d", audits)
	}
}

func TestLedgerAdjustBalanceValidation(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)
	createTestCustomer(t, db, 6, 0)

	if err := svc.AdjustBalance(AdjustBalanceInput{CustomerID: 6, EmployeeID: 9, Delta: 0, Reason: "零调整"}); !errors.Is(err, ErrInvalidStampCount) {
		t.Fatalf("expected invalid stamp count, got: %v", err)
	}
	if err := svc.AdjustBalance(AdjustBalanceInput{CustomerID: 6, EmployeeID: 9, Delta: 1, Reason: "   "}); !errors.Is(err, ErrAdjustReasonRequired) {
		t.Fatalf("expected reason required, got: %v", err)
	}
	if err := svc.AdjustBalance(AdjustBalanceInput{CustomerID: 6, EmployeeID: 9, Delta: -3, Reason: "扣减测试"}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}

	// 失败的调整不能留下审计记录
	var audits int64
	if err := db.Model(&models.BalanceAdjustment{}).Where("customer_id = ?", 6).Count(&audits).Error; err != nil {
		t.Fatalf("count adjustments failed: %v", err)
	}
	if audits != 0 {
		t.Fatalf("adjustment rows want 0 got %d", audits)
	}
}

func TestLedgerConsumeStampsConditionalGuard(t *testing.T) {
	_, db := setupLedgerServiceTest(t)
	createTestCustomer(t, db, 6, 3)
	repo := repository.NewCustomerRepository(db)

	// 超出余额的条件更新一行都改不到
	affected, err := repo.ConsumeStamps(6, 4)
	if err != nil {
		t.Fatalf("consume over balance failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("overdraw must touch 0 rows, got %d", affected)
	}
	var customer models.Customer
	if err := db.First(&customer, 6).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 3 || customer.TotalStampsUsed != 0 {
		t.Fatalf("overdraw must not change counters: %+v", customer)
	}

	// 余额内的扣减恰好改到一行
	affected, err = repo.ConsumeStamps(6, 3)
	if err != nil {
		t.Fatalf("consume within balance failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("consume want 1 row got %d", affected)
	}
	if err := db.First(&customer, 6).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 0 || customer.TotalStampsUsed != 3 {
		t.Fatalf("unexpected counters after consume: %+v", customer)
	}

	// 扣空之后并发晚到的一方改不到行，余额不会变负
	affected, err = repo.ConsumeStamps(6, 1)
	if err != nil {
		t.Fatalf("consume empty balance failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("late consumer must touch 0 rows, got %d", affected)
	}
}
