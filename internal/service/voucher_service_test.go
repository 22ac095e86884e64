package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupVoucherServiceTest(t *testing.T) (*VoucherService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:voucher_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Stamp{},
		&models.BalanceAdjustment{},
		&models.Voucher{},
		&models.Redemption{},
		&models.Product{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	ledger := NewLedgerService(
		repository.NewCustomerRepository(db),
		repository.NewStampRepository(db),
		repository.NewBalanceAdjustmentRepository(db),
	)
	settingSvc := NewSettingService(repository.NewSettingRepository(db))
	return NewVoucherService(
		repository.NewVoucherRepository(db),
		repository.NewRedemptionRepository(db),
		repository.NewProductRepository(db),
		ledger,
		settingSvc,
		nil,
	), db
}

func createTestProduct(t *testing.T, db *gorm.DB, id uint, tier string, active bool) {
	t.Helper()
	product := models.Product{
		ID:          id,
		Name:        fmt.Sprintf("商品%d", id),
		VoucherTier: tier,
		IsActive:    active,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
}

func createTestVoucher(t *testing.T, db *gorm.DB, customerID uint, code, tier, status string, expiresAt time.Time) *models.Voucher {
	t.Helper()
	voucher := &models.Voucher{
		CustomerID: customerID,
		Code:       code,
		Tier:       tier,
		StampsUsed: 5,
		Status:     status,
		QRCodeData: fmt.Sprintf(voucherQRPayloadFormat, code),
		ExpiresAt:  expiresAt,
	}
	if err := db.Create(voucher).Error; err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	return voucher
}

func TestExchangeStampsForVoucher(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 11, constants.DefaultStampsForSmallVoucher+2)

	voucher, err := svc.ExchangeStampsForVoucher(ExchangeVoucherInput{CustomerID: 11, Tier: "small"})
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if voucher.Tier != constants.VoucherTierSmall || voucher.Status != constants.VoucherStatusActive {
		t.Fatalf("unexpected voucher: %+v", voucher)
	}
	if voucher.StampsUsed != constants.DefaultStampsForSmallVoucher {
		t.Fatalf("stamps used want %d got %d", constants.DefaultStampsForSmallVoucher, voucher.StampsUsed)
	}
	if !strings.HasPrefix(voucher.Code, "LV") {
		t.Fatalf("voucher code should carry LV prefix, got %s", voucher.Code)
	}
	if voucher.QRCodeData != fmt.Sprintf(voucherQRPayloadFormat, voucher.Code) {
		t.Fatalf("qr payload mismatch: %s", voucher.QRCodeData)
	}
	if !voucher.ExpiresAt.After(time.Now()) {
		t.Fatalf("voucher should expire in the future")
	}

	var customer models.Customer
	if err := db.First(&customer, 11).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != 2 {
		t.Fatalf("remaining stamps want 2 got %d", customer.CurrentStamps)
	}
}

func TestExchangeStampsInsufficient(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 12, constants.DefaultStampsForLargeVoucher-1)

	_, err := svc.ExchangeStampsForVoucher(ExchangeVoucherInput{CustomerID: 12, Tier: constants.VoucherTierLarge})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}

	// 兑换失败不得扣印花、不得建券
	var customer models.Customer
	if err := db.First(&customer, 12).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != constants.DefaultStampsForLargeVoucher-1 {
		t.Fatalf("balance should be untouched, got %d", customer.CurrentStamps)
	}
	var vouchers int64
	if err := db.Model(&models.Voucher{}).Where("customer_id = ?", 12).Count(&vouchers).Error; err != nil {
		t.Fatalf("count vouchers failed: %v", err)
	}
	if vouchers != 0 {
		t.Fatalf("voucher rows want 0 got %d", vouchers)
	}
}

func TestExchangeStampsInvalidTier(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 13, 20)

	if _, err := svc.ExchangeStampsForVoucher(ExchangeVoucherInput{CustomerID: 13, Tier: "MEDIUM"}); !errors.Is(err, ErrVoucherInvalidTier) {
		t.Fatalf("expected invalid tier, got: %v", err)
	}
}

func TestRedeemVoucher(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 14, 0)
	createTestProduct(t, db, 21, constants.VoucherTierSmall, true)
	voucher := createTestVoucher(t, db, 14, "LVTEST0001", constants.VoucherTierSmall, constants.VoucherStatusActive, time.Now().Add(24*time.Hour))

	redeemed, redemption, err := svc.RedeemVoucher(RedeemVoucherInput{
		Code:       "lvtest0001",
		CashierID:  7,
		LocationID: 3,
		ProductID:  21,
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if redeemed.Status != constants.VoucherStatusUsed || redeemed.UsedAt == nil {
		t.Fatalf("voucher should be used: %+v", redeemed)
	}
	if redemption.VoucherID != voucher.ID || redemption.CashierID != 7 || redemption.LocationID != 3 {
		t.Fatalf("unexpected redemption: %+v", redemption)
	}

	// 二次核销同一张券必须失败
	_, _, err = svc.RedeemVoucher(RedeemVoucherInput{Code: "LVTEST0001", CashierID: 7, LocationID: 3, ProductID: 21})
	if !errors.Is(err, ErrVoucherAlreadyUsed) {
		t.Fatalf("expected already used, got: %v", err)
	}
}

func TestRedeemVoucherExpired(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 15, 0)
	createTestProduct(t, db, 22, constants.VoucherTierSmall, true)
	voucher := createTestVoucher(t, db, 15, "LVTEST0002", constants.VoucherTierSmall, constants.VoucherStatusActive, time.Now().Add(-time.Hour))

	_, _, err := svc.RedeemVoucher(RedeemVoucherInput{Code: "LVTEST0002", CashierID: 7, LocationID: 3, ProductID: 22})
	if !errors.Is(err, ErrVoucherExpired) {
		t.Fatalf("expected expired, got: %v", err)
	}

	// 状态列就地修正为过期
	var stored models.Voucher
	if err := db.First(&stored, voucher.ID).Error; err != nil {
		t.Fatalf("load voucher failed: %v", err)
	}
	if stored.Status != constants.VoucherStatusExpired {
		t.Fatalf("voucher status want EXPIRED got %s", stored.Status)
	}
}

func TestRedeemVoucherTierMismatch(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 16, 0)
	createTestProduct(t, db, 23, constants.VoucherTierLarge, true)
	createTestVoucher(t, db, 16, "LVTEST0003", constants.VoucherTierSmall, constants.VoucherStatusActive, time.Now().Add(24*time.Hour))

	_, _, err := svc.RedeemVoucher(RedeemVoucherInput{Code: "LVTEST0003", CashierID: 7, LocationID: 3, ProductID: 23})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not eligible, got: %v", err)
	}
}

func TestRedeemVoucherInactiveProduct(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 17, 0)
	createTestProduct(t, db, 24, constants.VoucherTierSmall, false)
	createTestVoucher(t, db, 17, "LVTEST0004", constants.VoucherTierSmall, constants.VoucherStatusActive, time.Now().Add(24*time.Hour))

	_, _, err := svc.RedeemVoucher(RedeemVoucherInput{Code: "LVTEST0004", CashierID: 7, LocationID: 3, ProductID: 24})
	if !errors.Is(err, ErrProductInactive) {
		t.Fatalf("expected product inactive, got: %v", err)
	}
}

func TestGetVoucherByCodeLazyExpire(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 18, 0)
	createTestVoucher(t, db, 18, "LVTEST0005", constants.VoucherTierSmall, constants.VoucherStatusActive, time.Now().Add(-time.Minute))

	voucher, err := svc.GetVoucherByCode("LVTEST0005")
	if err != nil {
		t.Fatalf("get voucher failed: %v", err)
	}
	if voucher.Status != constants.VoucherStatusExpired {
		t.Fatalf("lazy expire should flip status, got %s", voucher.Status)
	}
}

func TestExpireOverdueVouchers(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 19, 0)
	createTestVoucher(t, db, 19, "LVTEST0006", constants.VoucherTierSmall, constants.VoucherStatusActive, time.Now().Add(-time.Hour))
	createTestVoucher(t, db, 19, "LVTEST0007", constants.VoucherTierSmall, constants.VoucherStatusActive, time.Now().Add(time.Hour))
	used := time.Now()
	usedVoucher := createTestVoucher(t, db, 19, "LVTEST0008", constants.VoucherTierSmall, constants.VoucherStatusUsed, used.Add(-time.Hour))
	_ = usedVoucher

	expired, err := svc.ExpireOverdueVouchers()
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired count want 1 got %d", expired)
	}

	// 已核销的券不受清扫影响
	var stored models.Voucher
	if err := db.Where("code = ?", "LVTEST0008").First(&stored).Error; err != nil {
		t.Fatalf("load used voucher failed: %v", err)
	}
	if stored.Status != constants.VoucherStatusUsed {
		t.Fatalf("used voucher must stay USED, got %s", stored.Status)
	}
}

func TestMarkUsedSingleWinner(t *testing.T) {
	_, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 20, 0)
	voucher := createTestVoucher(t, db, 20, "LVTEST0009", constants.VoucherTierSmall, constants.VoucherStatusActive, time.Now().Add(24*time.Hour))
	repo := repository.NewVoucherRepository(db)

	now := time.Now()
	affected, err := repo.MarkUsed(voucher.ID, now)
	if err != nil {
		t.Fatalf("first mark used failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("first caller want 1 row got %d", affected)
	}

	// 并发晚到的一方条件更新改不到行
	affected, err = repo.MarkUsed(voucher.ID, now)
	if err != nil {
		t.Fatalf("second mark used failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("second caller must touch 0 rows, got %d", affected)
	}

	// 已核销的券也不会被过期标记改写
	affected, err = repo.MarkExpired(voucher.ID, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("mark expired failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("used voucher must not expire, got %d rows", affected)
	}
}

func TestRedeemVoucherDuplicateRedemptionRow(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	createTestCustomer(t, db, 21, 0)
	createTestProduct(t, db, 25, constants.VoucherTierSmall, true)
	voucher := createTestVoucher(t, db, 21, "LVTEST0010", constants.VoucherTierSmall, constants.VoucherStatusActive, time.Now().Add(24*time.Hour))

	// 预先落一条核销记录，模拟并发对手已抢到唯一索引
	if err := db.Create(&models.Redemption{
		CustomerID: 21,
		VoucherID:  voucher.ID,
		ProductID:  25,
		CashierID:  8,
		LocationID: 3,
		RedeemedAt: time.Now(),
	}).Error; err != nil {
		t.Fatalf("create redemption failed: %v", err)
	}

	_, _, err := svc.RedeemVoucher(RedeemVoucherInput{Code: "LVTEST0010", CashierID: 9, LocationID: 3, ProductID: 25})
	if !errors.Is(err, ErrVoucherAlreadyUsed) {
		t.Fatalf("expected already used on duplicate redemption, got: %v", err)
	}

	// 整个事务回滚，状态列保持 ACTIVE 交由对手方写入
	var stored models.Voucher
	if err := db.First(&stored, voucher.ID).Error; err != nil {
		t.Fatalf("load voucher failed: %v", err)
	}
	if stored.Status != constants.VoucherStatusActive {
		t.Fatalf("voucher status want ACTIVE got %s", stored.Status)
	}
}
