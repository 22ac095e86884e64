package repository

import "time"

// CustomerListFilter 查询会员列表的过滤条件
type CustomerListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	MemberNo    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// StampListFilter 查询印花列表的过滤条件
type StampListFilter struct {
	Page       int
	PageSize   int
	CustomerID uint
	Status     string
	Reason     string
	EarnedFrom *time.Time
	EarnedTo   *time.Time
}

// TransactionListFilter 查询交易列表的过滤条件
type TransactionListFilter struct {
	Page        int
	PageSize    int
	CustomerID  uint
	CashierID   uint
	LocationID  uint
	EntryMethod string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// VoucherListFilter 查询兑换券列表的过滤条件
type VoucherListFilter struct {
	Page       int
	PageSize   int
	CustomerID uint
	Status     string
	Tier       string
	Code       string
}

// RedemptionListFilter 查询核销记录列表的过滤条件
type RedemptionListFilter struct {
	Page         int
	PageSize     int
	CustomerID   uint
	CashierID    uint
	LocationID   uint
	ProductID    uint
	RedeemedFrom *time.Time
	RedeemedTo   *time.Time
}

// AutoGiftRuleListFilter 查询自动赠礼规则列表的过滤条件
type AutoGiftRuleListFilter struct {
	Page        int
	PageSize    int
	TriggerType string
	OnlyActive  bool
}

// BalanceAdjustmentListFilter 查询手工调整记录列表的过滤条件
type BalanceAdjustmentListFilter struct {
	Page        int
	PageSize    int
	CustomerID  uint
	EmployeeID  uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// EmployeeListFilter 查询员工列表的过滤条件
type EmployeeListFilter struct {
	Page       int
	PageSize   int
	Keyword    string
	Role       string
	LocationID uint
}

// ProductListFilter 查询可兑换商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	Tier       string
	OnlyActive bool
}

// LocationListFilter 查询门店列表的过滤条件
type LocationListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}
