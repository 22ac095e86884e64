package models

import (
	"strings"

	"github.com/loyalty-next/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultEmployee 初始化默认管理员员工账号
func InitDefaultEmployee(username, password string) error {
	var count int64
	DB.Model(&Employee{}).Count(&count)

	// 如果已有员工，确保默认 admin 拥有超级管理员权限
	if count > 0 {
		if err := DB.Model(&Employee{}).Where("username = ?", "admin").Update("is_super", true).Error; err != nil {
			logger.Warnw("ensure_default_admin_super_failed", "error", err)
		}
		return nil
	}

	// 创建默认管理员
	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	employee := Employee{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  username,
		Role:         "admin",
		IsSuper:      strings.EqualFold(strings.TrimSpace(username), "admin"),
	}

	if err := DB.Create(&employee).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_employee_created_with_default_password", "username", username, "password", password)
		logger.Warnw("default_employee_password_change_required", "username", username)
	} else {
		logger.Warnw("default_employee_created", "username", username, "password_hidden", true)
	}

	return nil
}
