package constants

// 印花状态常量
const (
	StampStatusActive  = "active"
	StampStatusUsed    = "used"
	StampStatusExpired = "expired"
)

// 印花来源常量
const (
	StampReasonTransaction     = "TRANSACTION"
	StampReasonBirthdayProfile = "BIRTHDAY_PROFILE_REWARD"
	StampReasonBonus           = "BONUS"
	StampReasonManualAdjust    = "MANUAL_ADJUSTMENT"
	StampReasonVoucherExchange = "VOUCHER_EXCHANGE"
	StampReasonAutoGift        = "AUTO_GIFT"
)

// 兑换券状态常量
const (
	VoucherStatusActive  = "ACTIVE"
	VoucherStatusUsed    = "USED"
	VoucherStatusExpired = "EXPIRED"
)

// 兑换券档位常量
const (
	VoucherTierSmall = "SMALL"
	VoucherTierLarge = "LARGE"
)

// 交易录入方式常量
const (
	TransactionEntryQRScan     = "QR_SCAN"
	TransactionEntryManualCode = "MANUAL_CODE"
)

// 自动赠礼触发类型常量
const (
	TriggerTypeBirthday         = "BIRTHDAY"
	TriggerTypeTransactionCount = "TRANSACTION_COUNT"
	TriggerTypeStampMilestone   = "STAMP_MILESTONE"
	TriggerTypeProfileComplete  = "PROFILE_COMPLETE"
	TriggerTypeRegistration     = "REGISTRATION"
)

// 自动赠礼奖励类型常量
const (
	RewardTypeStamps  = "stamps"
	RewardTypeVoucher = "voucher"
)

// 员工角色常量
const (
	EmployeeRoleAdmin   = "admin"
	EmployeeRoleManager = "manager"
	EmployeeRoleCashier = "cashier"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskVoucherExpireSweep = "voucher:timeout_expire"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "ln"
)

// 设置键常量
const (
	SettingKeyLoyaltyConfig = "loyalty_config"

	SettingFieldMinTransactionAmount  = "min_transaction_amount"
	SettingFieldStampsForSmallVoucher = "stamps_for_small_voucher"
	SettingFieldStampsForLargeVoucher = "stamps_for_large_voucher"
	SettingFieldVoucherExpiryDays     = "voucher_expiry_days"
	SettingFieldBirthdayRewardStamps  = "birthday_reward_stamps"
)

// 设置默认值常量（对应键未配置时生效）
const (
	DefaultMinTransactionAmount  = "15000"
	DefaultStampsForSmallVoucher = 5
	DefaultStampsForLargeVoucher = 10
	DefaultVoucherExpiryDays     = 30
	DefaultBirthdayRewardStamps  = 2
)
