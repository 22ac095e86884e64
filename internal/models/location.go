package models

import (
	"time"

	"gorm.io/gorm"
)

// Location 门店表
type Location struct {
	ID        uint           `gorm:"primarykey" json:"id"`                   // 主键
	Name      string         `gorm:"not null" json:"name"`                   // 门店名称
	Code      string         `gorm:"uniqueIndex;not null" json:"code"`       // 门店编码
	Address   string         `gorm:"type:text" json:"address"`               // 地址
	IsActive  bool           `gorm:"not null" json:"is_active"`              // 是否营业（不设列默认值，false 才能如实写入）
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (Location) TableName() string {
	return "locations"
}
