package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/loyalty-next/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// UserAuthState 用户鉴权快照
// token_invalid_before 为 Unix 秒时间戳，0 表示未设置
// 该结构仅用于服务端 Redis 缓存
// 字段保持简洁，避免重复查询数据库
type UserAuthState struct {
	UserID             uint   `json:"user_id"`
	Status             string `json:"status"`
	TokenVersion       uint64 `json:"token_version"`
	TokenInvalidBefore int64  `json:"token_invalid_before"`
	UpdatedAt          int64  `json:"updated_at"`
}

// EmployeeAuthState 员工鉴权快照
type EmployeeAuthState struct {
	EmployeeID         uint   `json:"employee_id"`
	Username           string `json:"username"`
	Role               string `json:"role"`
	TokenVersion       uint64 `json:"token_version"`
	TokenInvalidBefore int64  `json:"token_invalid_before"`
	IsSuper            bool   `json:"is_super"`
	UpdatedAt          int64  `json:"updated_at"`
}

func userAuthStateKey(userID uint) string {
	return fmt.Sprintf("auth:user:%d", userID)
}

func employeeAuthStateKey(employeeID uint) string {
	return fmt.Sprintf("auth:employee:%d", employeeID)
}

// BuildUserAuthState 从用户模型构建鉴权快照
func BuildUserAuthState(user *models.User) *UserAuthState {
	if user == nil {
		return nil
	}
	state := &UserAuthState{
		UserID:       user.ID,
		Status:       user.Status,
		TokenVersion: user.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
	if user.TokenInvalidBefore != nil {
		state.TokenInvalidBefore = user.TokenInvalidBefore.Unix()
	}
	return state
}

// BuildEmployeeAuthState 从员工模型构建鉴权快照
func BuildEmployeeAuthState(employee *models.Employee) *EmployeeAuthState {
	if employee == nil {
		return nil
	}
	state := &EmployeeAuthState{
		EmployeeID:   employee.ID,
		Username:     employee.Username,
		Role:         employee.Role,
		TokenVersion: employee.TokenVersion,
		IsSuper:      employee.IsSuper,
		UpdatedAt:    time.Now().Unix(),
	}
	if employee.TokenInvalidBefore != nil {
		state.TokenInvalidBefore = employee.TokenInvalidBefore.Unix()
	}
	return state
}

// GetUserAuthState 获取用户鉴权快照
func GetUserAuthState(ctx context.Context, userID uint) (*UserAuthState, bool, error) {
	if userID == 0 {
		return nil, false, nil
	}
	var state UserAuthState
	hit, err := GetJSON(ctx, userAuthStateKey(userID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetUserAuthState 写入用户鉴权快照
func SetUserAuthState(ctx context.Context, state *UserAuthState) error {
	if state == nil || state.UserID == 0 {
		return nil
	}
	return SetJSON(ctx, userAuthStateKey(state.UserID), state, authStateCacheTTL)
}

// DelUserAuthState 删除用户鉴权快照
func DelUserAuthState(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	return Del(ctx, userAuthStateKey(userID))
}

// GetEmployeeAuthState 获取员工鉴权快照
func GetEmployeeAuthState(ctx context.Context, employeeID uint) (*EmployeeAuthState, bool, error) {
	if employeeID == 0 {
		return nil, false, nil
	}
	var state EmployeeAuthState
	hit, err := GetJSON(ctx, employeeAuthStateKey(employeeID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetEmployeeAuthState 写入员工鉴权快照
func SetEmployeeAuthState(ctx context.Context, state *EmployeeAuthState) error {
	if state == nil || state.EmployeeID == 0 {
		return nil
	}
	return SetJSON(ctx, employeeAuthStateKey(state.EmployeeID), state, authStateCacheTTL)
}

// DelEmployeeAuthState 删除员工鉴权快照
func DelEmployeeAuthState(ctx context.Context, employeeID uint) error {
	if employeeID == 0 {
		return nil
	}
	return Del(ctx, employeeAuthStateKey(employeeID))
}
