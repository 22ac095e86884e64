package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
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

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "user-auth-service-test-secret"
	cfg.UserJWT.ExpireHours = 24
	cfg.UserJWT.RememberMeExpireHours = 168
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{
		MinLength:     8,
		RequireUpper:  true,
		RequireLower:  true,
		RequireNumber: true,
	}

	customerRepo := repository.NewCustomerRepository(db)
	customerSvc := NewCustomerService(customerRepo)
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
	return NewUserAuthService(cfg, repository.NewUserRepository(db), customerSvc, autoGift), db
}

func TestUserRegisterCreatesCustomer(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)

	user, token, expiresAt, err := svc.Register("member@example.com", "Passw0rd123", "小王")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("expected valid token, got token=%q expires=%v", token, expiresAt)
	}

	var customer models.Customer
	if err := db.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
		t.Fatalf("customer profile should be created: %v", err)
	}
	if customer.MemberNo == "" {
		t.Fatalf("member no should be assigned")
	}
	if customer.CurrentStamps != 0 {
		t.Fatalf("new customer balance want 0 got %d", customer.CurrentStamps)
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestUserRegisterValidation(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	if _, _, _, err := svc.Register("not-an-email", "Passw0rd123", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got: %v", err)
	}
	if _, _, _, err := svc.Register("weak@example.com", "short", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got: %v", err)
	}

	if _, _, _, err := svc.Register("dup@example.com", "Passw0rd123", ""); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, _, _, err := svc.Register("Dup@Example.com", "Passw0rd123", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected email exists, got: %v", err)
	}
}

func TestUserLogin(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)

	if _, _, _, err := svc.Register("login@example.com", "Passw0rd123", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, token, _, err := svc.Login("login@example.com", "Passw0rd123", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || user.LastLoginAt == nil {
		t.Fatalf("login should issue token and stamp last_login_at")
	}

	if _, _, _, err := svc.Login("login@example.com", "WrongPass999", false); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got: %v", err)
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, _, _, err := svc.Login("login@example.com", "Passw0rd123", false); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected user disabled, got: %v", err)
	}
}

func TestUserUpdateProfileBirthdayReward(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)

	user, _, _, err := svc.Register("birthday@example.com", "Passw0rd123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	birth := time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC)
	if _, err := svc.UpdateProfile(user.ID, UpdateProfileInput{BirthDate: &birth}); err != nil {
		t.Fatalf("update profile failed: %v", err)
	}

	var customer models.Customer
	if err := db.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != constants.DefaultBirthdayRewardStamps {
		t.Fatalf("birthday reward want %d got %d", constants.DefaultBirthdayRewardStamps, customer.CurrentStamps)
	}

	// 再次修改生日不重复发放
	other := time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.UpdateProfile(user.ID, UpdateProfileInput{BirthDate: &other}); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if err := db.Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
		t.Fatalf("load customer failed: %v", err)
	}
	if customer.CurrentStamps != constants.DefaultBirthdayRewardStamps {
		t.Fatalf("birthday reward must not repeat, got %d", customer.CurrentStamps)
	}
}

func TestUserChangePasswordInvalidatesToken(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	user, _, _, err := svc.Register("rotate@example.com", "Passw0rd123", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	oldVersion := user.TokenVersion

	if err := svc.ChangePassword(user.ID, "WrongOld999", "NewPassw0rd1"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected invalid old password, got: %v", err)
	}
	if err := svc.ChangePassword(user.ID, "Passw0rd123", "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got: %v", err)
	}
	if err := svc.ChangePassword(user.ID, "Passw0rd123", "NewPassw0rd1"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	refreshed, err := svc.GetUser(user.ID)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if refreshed.TokenVersion != oldVersion+1 || refreshed.TokenInvalidBefore == nil {
		t.Fatalf("token revocation markers not updated: %+v", refreshed)
	}

	if _, _, _, err := svc.Login("rotate@example.com", "NewPassw0rd1", true); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}
