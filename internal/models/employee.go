package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee 员工表（收银员/店长/系统管理员）
type Employee struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                 // 主键
	Username           string         `gorm:"uniqueIndex;not null" json:"username"` // 登录名
	PasswordHash       string         `gorm:"not null" json:"-"`                    // 密码哈希（不返回给前端）
	DisplayName        string         `gorm:"default:''" json:"display_name"`       // 姓名
	Role               string         `gorm:"not null;default:'cashier'" json:"role"` // 角色（admin/manager/cashier）
	LocationID         *uint          `gorm:"index" json:"location_id"`             // 所属门店（可空）
	IsSuper            bool           `gorm:"not null;default:false" json:"is_super"` // 超级管理员
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`          // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                       // 该时间点前签发的 Token 失效
	LastLoginAt        *time.Time     `json:"last_login_at"`                        // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`              // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间
}

// TableName 指定表名
func (Employee) TableName() string {
	return "employees"
}
