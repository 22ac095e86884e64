package models

import "time"

// Transaction 消费交易表（一行代表一次到店消费）
type Transaction struct {
	ID              uint      `gorm:"primarykey" json:"id"`                               // 主键
	CustomerID      uint      `gorm:"index;not null" json:"customer_id"`                  // 会员ID
	CashierID       *uint     `gorm:"index" json:"cashier_id"`                            // 经手收银员ID（可空）
	LocationID      uint      `gorm:"index;not null" json:"location_id"`                  // 门店ID
	TotalAmount     Money     `gorm:"type:decimal(20,2);not null" json:"total_amount"`    // 消费金额
	StampsEarned    int       `gorm:"not null;default:0" json:"stamps_earned"`            // 本次获得印花数
	EntryMethod     string    `gorm:"not null" json:"entry_method"`                       // 录入方式（QR_SCAN/MANUAL_CODE）
	TransactionDate time.Time `gorm:"index;not null" json:"transaction_date"`             // 交易时间
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt       time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}
