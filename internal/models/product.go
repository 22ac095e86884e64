package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 可兑换商品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                   // 主键
	Name        string         `gorm:"not null" json:"name"`                   // 商品名称
	Description string         `gorm:"type:text" json:"description"`           // 描述
	VoucherTier string         `gorm:"not null" json:"voucher_tier"`           // 可用券档位（SMALL/LARGE）
	IsActive    bool           `gorm:"not null" json:"is_active"`              // 是否上架（不设列默认值，false 才能如实写入）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
