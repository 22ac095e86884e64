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

func setupSettingServiceTest(t *testing.T) (*SettingService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:setting_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewSettingService(repository.NewSettingRepository(db)), db
}

func TestSettingDefaultsWithoutRow(t *testing.T) {
	svc, _ := setupSettingServiceTest(t)

	minAmount, err := svc.GetMinTransactionAmount()
	if err != nil {
		t.Fatalf("get min amount failed: %v", err)
	}
	want, _ := decimal.NewFromString(constants.DefaultMinTransactionAmount)
	if !minAmount.Equal(want) {
		t.Fatalf("min amount want %s got %s", want, minAmount)
	}

	cost, err := svc.GetStampsForVoucherTier(constants.VoucherTierSmall)
	if err != nil || cost != constants.DefaultStampsForSmallVoucher {
		t.Fatalf("small tier cost want %d got %d err %v", constants.DefaultStampsForSmallVoucher, cost, err)
	}
	cost, err = svc.GetStampsForVoucherTier(constants.VoucherTierLarge)
	if err != nil || cost != constants.DefaultStampsForLargeVoucher {
		t.Fatalf("large tier cost want %d got %d err %v", constants.DefaultStampsForLargeVoucher, cost, err)
	}
	days, err := svc.GetVoucherExpiryDays()
	if err != nil || days != constants.DefaultVoucherExpiryDays {
		t.Fatalf("expiry days want %d got %d err %v", constants.DefaultVoucherExpiryDays, days, err)
	}
}

func TestSettingUpdateTakesEffect(t *testing.T) {
	svc, _ := setupSettingServiceTest(t)

	if _, err := svc.Update(constants.SettingKeyLoyaltyConfig, map[string]interface{}{
		constants.SettingFieldMinTransactionAmount:  "20000",
		constants.SettingFieldStampsForSmallVoucher: 6,
		constants.SettingFieldVoucherExpiryDays:     14,
	}); err != nil {
		t.Fatalf("update setting failed: %v", err)
	}

	minAmount, err := svc.GetMinTransactionAmount()
	if err != nil {
		t.Fatalf("get min amount failed: %v", err)
	}
	if !minAmount.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("min amount want 20000 got %s", minAmount)
	}

	cost, err := svc.GetStampsForVoucherTier(constants.VoucherTierSmall)
	if err != nil || cost != 6 {
		t.Fatalf("small tier cost want 6 got %d err %v", cost, err)
	}
	// 未覆盖的字段维持默认值
	cost, err = svc.GetStampsForVoucherTier(constants.VoucherTierLarge)
	if err != nil || cost != constants.DefaultStampsForLargeVoucher {
		t.Fatalf("large tier cost want default got %d err %v", cost, err)
	}
	days, err := svc.GetVoucherExpiryDays()
	if err != nil || days != 14 {
		t.Fatalf("expiry days want 14 got %d err %v", days, err)
	}
}

func TestSettingInvalidValuesFallBack(t *testing.T) {
	svc, _ := setupSettingServiceTest(t)

	if _, err := svc.Update(constants.SettingKeyLoyaltyConfig, map[string]interface{}{
		constants.SettingFieldStampsForSmallVoucher: -3,
		constants.SettingFieldVoucherExpiryDays:     0,
	}); err != nil {
		t.Fatalf("update setting failed: %v", err)
	}

	cost, err := svc.GetStampsForVoucherTier(constants.VoucherTierSmall)
	if err != nil || cost != constants.DefaultStampsForSmallVoucher {
		t.Fatalf("non-positive cost should fall back, got %d err %v", cost, err)
	}
	days, err := svc.GetVoucherExpiryDays()
	if err != nil || days != constants.DefaultVoucherExpiryDays {
		t.Fatalf("non-positive days should fall back, got %d err %v", days, err)
	}
}

func TestSettingInvalidTier(t *testing.T) {
	svc, _ := setupSettingServiceTest(t)
	if _, err := svc.GetStampsForVoucherTier("MEDIUM"); !errors.Is(err, ErrVoucherInvalidTier) {
		t.Fatalf("expected invalid tier, got: %v", err)
	}
}

func TestSettingGetConfigMergesOverrides(t *testing.T) {
	svc, _ := setupSettingServiceTest(t)

	if _, err := svc.Update(constants.SettingKeyLoyaltyConfig, map[string]interface{}{
		constants.SettingFieldBirthdayRewardStamps: 5,
	}); err != nil {
		t.Fatalf("update setting failed: %v", err)
	}

	cfg, err := svc.GetConfig()
	if err != nil {
		t.Fatalf("get config failed: %v", err)
	}
	reward, err := parseSettingInt(cfg[constants.SettingFieldBirthdayRewardStamps])
	if err != nil || reward != 5 {
		t.Fatalf("birthday reward want 5 got %v err %v", cfg[constants.SettingFieldBirthdayRewardStamps], err)
	}
	if _, ok := cfg[constants.SettingFieldMinTransactionAmount]; !ok {
		t.Fatalf("config should include default min amount")
	}
}
