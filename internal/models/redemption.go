package models

import "time"

// Redemption 兑换券核销记录表（每张券至多一条，作为永久凭证）
type Redemption struct {
	ID         uint      `gorm:"primarykey" json:"id"`                // 主键
	CustomerID uint      `gorm:"index;not null" json:"customer_id"`   // 会员ID
	VoucherID  uint      `gorm:"uniqueIndex;not null" json:"voucher_id"` // 兑换券ID（唯一约束兜底防重复核销）
	ProductID  uint      `gorm:"index;not null" json:"product_id"`    // 兑换商品ID
	CashierID  uint      `gorm:"index;not null" json:"cashier_id"`    // 经手收银员ID
	LocationID uint      `gorm:"index;not null" json:"location_id"`   // 门店ID
	RedeemedAt time.Time `gorm:"index;not null" json:"redeemed_at"`   // 核销时间
	CreatedAt  time.Time `gorm:"index" json:"created_at"`             // 创建时间
}

// TableName 指定表名
func (Redemption) TableName() string {
	return "redemptions"
}
