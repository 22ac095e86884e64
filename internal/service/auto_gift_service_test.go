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

func setupAutoGiftServiceTest(t *testing.T) (*AutoGiftService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auto_gift_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Stamp{},
		&models.BalanceAdjustment{},
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
	return NewAutoGiftService(
		repository.NewAutoGiftRepository(db),
		customerRepo,
		repository.NewVoucherRepository(db),
		ledger,
		settingSvc,
	), db
}

func createTestRule(t *testing.T, db *gorm.DB, rule models.AutoGiftRule) *models.AutoGiftRule {
	t.Helper()
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	return &rule
}

func TestEvaluateTriggerGrantsOnce(t *testing.T) {
	svc, db := setupAutoGiftServiceTest(t)
	createTestCustomer(t, db, 41, 0)
	rule := createTestRule(t, db, models.AutoGiftRule{
		Name:         "满五笔奖励",
		TriggerType:  constants.TriggerTypeTransactionCount,
		TriggerValue: models.JSON{"count": 5},
		RewardType:   constants.RewardTypeStamps,
		RewardStamps: 2,
		IsActive:     true,
	})

	// 未达阈值不发放
	if err := svc.EvaluateTrigger(41, constants.TriggerTypeTransactionCount, TriggerContext{Count: 4}); err != nil {
		t.Fatalf("evaluate below threshold failed: %v", err)
	}
	var customer models.Customer
	if err := db.First(&customer, 41).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 0 {
		t.Fatalf("below threshold must not grant, got %d", customer.CurrentStamps)
	}

	// 达到阈值发放一次
	if err := svc.EvaluateTrigger(41, constants.TriggerTypeTransactionCount, TriggerContext{Count: 5}); err != nil {
		t.Fatalf("evaluate at threshold failed: %v", err)
	}
	if err := db.First(&customer, 41).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 2 {
		t.Fatalf("grant want 2 stamps got %d", customer.CurrentStamps)
	}

	// 再次评估静默跳过
	if err := svc.EvaluateTrigger(41, constants.TriggerTypeTransactionCount, TriggerContext{Count: 6}); err != nil {
		t.Fatalf("re-evaluate failed: %v", err)
	}
	if err := db.First(&customer, 41).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 2 {
		t.Fatalf("grant must not repeat, got %d", customer.CurrentStamps)
	}

	var history models.AutoGiftHistory
	if err := db.Where("rule_id = ? AND customer_id = ?", rule.ID, 41).First(&history).Error; err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if history.RewardGiven != "stamps:2" {
		t.Fatalf("reward description want stamps:2 got %s", history.RewardGiven)
	}
}

func TestEvaluateTriggerVoucherReward(t *testing.T) {
	svc, db := setupAutoGiftServiceTest(t)
	createTestCustomer(t, db, 42, 0)
	createTestRule(t, db, models.AutoGiftRule{
		Name:              "注册赠券",
		TriggerType:       constants.TriggerTypeRegistration,
		RewardType:        constants.RewardTypeVoucher,
		RewardVoucherTier: constants.VoucherTierSmall,
		IsActive:          true,
	})

	if err := svc.EvaluateTrigger(42, constants.TriggerTypeRegistration, TriggerContext{}); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	// 奖励券直发、不扣印花
	var voucher models.Voucher
	if err := db.Where("customer_id = ?", 42).First(&voucher).Error; err != nil {
		t.Fatalf("load voucher failed: %v", err)
	}
	if voucher.Tier != constants.VoucherTierSmall || voucher.Status != constants.VoucherStatusActive {
		t.Fatalf("unexpected voucher: %+v", voucher)
	}
	if voucher.StampsUsed != 0 {
		t.Fatalf("reward voucher must not cost stamps, got %d", voucher.StampsUsed)
	}
	var customer models.Customer
	if err := db.First(&customer, 42).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 0 {
		t.Fatalf("balance should be untouched, got %d", customer.CurrentStamps)
	}
}

func TestEvaluateTriggerInactiveRuleSkipped(t *testing.T) {
	svc, db := setupAutoGiftServiceTest(t)
	createTestCustomer(t, db, 43, 0)
	createTestRule(t, db, models.AutoGiftRule{
		Name:         "停用规则",
		TriggerType:  constants.TriggerTypeRegistration,
		RewardType:   constants.RewardTypeStamps,
		RewardStamps: 9,
		IsActive:     false,
	})

	if err := svc.EvaluateTrigger(43, constants.TriggerTypeRegistration, TriggerContext{}); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	var customer models.Customer
	if err := db.First(&customer, 43).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 0 {
		t.Fatalf("inactive rule must not grant, got %d", customer.CurrentStamps)
	}
}

func TestGrantBirthdayProfileReward(t *testing.T) {
	svc, db := setupAutoGiftServiceTest(t)
	createTestCustomer(t, db, 44, 0)

	if err := svc.GrantBirthdayProfileReward(44); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	var customer models.Customer
	if err := db.First(&customer, 44).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != constants.DefaultBirthdayRewardStamps {
		t.Fatalf("reward want %d got %d", constants.DefaultBirthdayRewardStamps, customer.CurrentStamps)
	}
	if customer.LastBirthdayGiftYear == nil || *customer.LastBirthdayGiftYear != time.Now().Year() {
		t.Fatalf("gift year should be current year, got %v", customer.LastBirthdayGiftYear)
	}

	// 幂等：重复调用不再发放
	if err := svc.GrantBirthdayProfileReward(44); err != nil {
		t.Fatalf("repeat grant failed: %v", err)
	}
	if err := db.First(&customer, 44).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != constants.DefaultBirthdayRewardStamps {
		t.Fatalf("repeat grant must be no-op, got %d", customer.CurrentStamps)
	}
}

func TestRuleCRUD(t *testing.T) {
	svc, _ := setupAutoGiftServiceTest(t)

	rule := &models.AutoGiftRule{
		Name:         "印花里程碑",
		TriggerType:  constants.TriggerTypeStampMilestone,
		TriggerValue: models.JSON{"count": 20},
		RewardType:   constants.RewardTypeStamps,
		RewardStamps: 1,
		IsActive:     true,
	}
	if err := svc.CreateRule(rule); err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	loaded, err := svc.GetRule(rule.ID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if loaded.Name != rule.Name {
		t.Fatalf("unexpected rule: %+v", loaded)
	}

	loaded.RewardStamps = 4
	if err := svc.UpdateRule(loaded); err != nil {
		t.Fatalf("update rule failed: %v", err)
	}

	if err := svc.DeleteRule(rule.ID); err != nil {
		t.Fatalf("delete rule failed: %v", err)
	}
	if _, err := svc.GetRule(rule.ID); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected rule not found, got: %v", err)
	}

	if err := svc.CreateRule(&models.AutoGiftRule{Name: "  "}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got: %v", err)
	}
}

func TestGrantBirthdayEvaluatesBirthdayRules(t *testing.T) {
	svc, db := setupAutoGiftServiceTest(t)
	createTestCustomer(t, db, 45, 0)
	createTestRule(t, db, models.AutoGiftRule{
		Name:         "生日加赠",
		TriggerType:  constants.TriggerTypeBirthday,
		RewardType:   constants.RewardTypeStamps,
		RewardStamps: 3,
		IsActive:     true,
	})

	if err := svc.GrantBirthdayProfileReward(45); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	// 固定生日奖励 + 管理端 BIRTHDAY 规则各发一次
	want := constants.DefaultBirthdayRewardStamps + 3
	var customer models.Customer
	if err := db.First(&customer, 45).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != want {
		t.Fatalf("birthday total want %d got %d", want, customer.CurrentStamps)
	}

	// 重复调用两条路径都不再发放
	if err := svc.GrantBirthdayProfileReward(45); err != nil {
		t.Fatalf("repeat grant failed: %v", err)
	}
	if err := db.First(&customer, 45).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != want {
		t.Fatalf("repeat grant must be no-op, got %d", customer.CurrentStamps)
	}
}
