package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// 通用错误
var (
	ErrNotFound           = errors.New("error.not_found")
	ErrInvalidArgument    = errors.New("error.invalid_argument")
	ErrInvalidCredentials = errors.New("error.invalid_credentials")
	ErrInvalidPassword    = errors.New("error.invalid_password")
	ErrWeakPassword       = errors.New("error.weak_password")
	ErrInvalidEmail       = errors.New("error.invalid_email")
	ErrEmailExists        = errors.New("error.email_exists")
	ErrUserDisabled       = errors.New("error.user_disabled")
	ErrUsernameExists     = errors.New("error.username_exists")
)

// 印花账本错误
var (
	ErrCustomerNotFound     = errors.New("error.customer_not_found")
	ErrInvalidStampCount    = errors.New("error.invalid_stamp_count")
	ErrInsufficientBalance  = errors.New("error.insufficient_balance")
	ErrAdjustReasonRequired = errors.New("error.adjust_reason_required")
)

// 交易错误
var (
	ErrBelowMinimumAmount = errors.New("error.below_minimum_amount")
	ErrInvalidAmount      = errors.New("error.invalid_amount")
	ErrLocationNotFound   = errors.New("error.location_not_found")
	ErrCashierNotFound    = errors.New("error.cashier_not_found")
)

// 兑换券错误
var (
	ErrVoucherNotFound     = errors.New("error.voucher_not_found")
	ErrVoucherAlreadyUsed  = errors.New("error.voucher_already_used")
	ErrVoucherExpired      = errors.New("error.voucher_expired")
	ErrVoucherInvalidTier  = errors.New("error.voucher_invalid_tier")
	ErrVoucherCodeConflict = errors.New("error.voucher_code_conflict")
	ErrProductNotFound     = errors.New("error.product_not_found")
	ErrProductInactive     = errors.New("error.product_inactive")
)

// 自动赠礼错误
// ErrGiftAlreadyGranted 属于静默跳过的业务结果，不作为硬错误透出给调用方。
var (
	ErrRuleNotFound       = errors.New("error.rule_not_found")
	ErrGiftAlreadyGranted = errors.New("error.gift_already_granted")
)

// isDuplicateKeyError 判定写入失败是否为唯一索引冲突
// 驱动不支持错误翻译时退回消息匹配（sqlite / postgres 两种措辞）。
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
