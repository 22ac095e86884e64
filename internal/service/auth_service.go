package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 员工认证服务
type AuthService struct {
	cfg          *config.Config
	employeeRepo repository.EmployeeRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, employeeRepo repository.EmployeeRepository) *AuthService {
	return &AuthService{
		cfg:          cfg,
		employeeRepo: employeeRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword 校验密码是否符合策略
func (s *AuthService) ValidatePassword(password string) error {
	if s == nil || s.cfg == nil {
		return nil
	}
	return validatePassword(s.cfg.Security.PasswordPolicy, password)
}

// JWTClaims JWT 声明
type JWTClaims struct {
	EmployeeID   uint   `json:"employee_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(employee *models.Employee) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.ExpireHours) * time.Hour)

	claims := JWTClaims{
		EmployeeID:   employee.ID,
		Username:     employee.Username,
		Role:         employee.Role,
		TokenVersion: employee.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("无效的 token")
}

// Login 员工登录
func (s *AuthService) Login(username, password string) (*models.Employee, string, time.Time, error) {
	// 查找员工
	employee, err := s.employeeRepo.GetByUsername(username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if employee == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	// 验证密码
	if err := s.VerifyPassword(employee.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	// 生成 JWT
	token, expiresAt, err := s.GenerateJWT(employee)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	// 更新最后登录时间
	now := time.Now()
	employee.LastLoginAt = &now
	if err := s.employeeRepo.Update(employee); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetEmployeeAuthState(context.Background(), cache.BuildEmployeeAuthState(employee))

	return employee, token, expiresAt, nil
}

// ChangePassword 修改员工密码
func (s *AuthService) ChangePassword(employeeID uint, oldPassword, newPassword string) error {
	employee, err := s.employeeRepo.GetByID(employeeID)
	if err != nil {
		return err
	}
	if employee == nil {
		return ErrNotFound
	}

	if err := s.VerifyPassword(employee.PasswordHash, oldPassword); err != nil {
		return ErrInvalidPassword
	}

	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	employee.PasswordHash = hashedPassword
	now := time.Now()
	employee.TokenVersion++
	employee.TokenInvalidBefore = &now
	if err := s.employeeRepo.Update(employee); err != nil {
		return err
	}
	_ = cache.SetEmployeeAuthState(context.Background(), cache.BuildEmployeeAuthState(employee))
	return nil
}

// CreateEmployeeInput 员工创建输入
type CreateEmployeeInput struct {
	Username    string
	Password    string
	DisplayName string
	Role        string
	LocationID  *uint
}

// CreateEmployee 创建员工账号
func (s *AuthService) CreateEmployee(input CreateEmployeeInput) (*models.Employee, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrInvalidArgument
	}
	role := strings.ToLower(strings.TrimSpace(input.Role))
	switch role {
	case constants.EmployeeRoleAdmin, constants.EmployeeRoleManager, constants.EmployeeRoleCashier:
	default:
		return nil, ErrInvalidArgument
	}
	if err := s.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	existing, err := s.employeeRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = username
	}

	employee := &models.Employee{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         role,
		LocationID:   input.LocationID,
	}
	if err := s.employeeRepo.Create(employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// UpdateEmployeeInput 员工更新输入
type UpdateEmployeeInput struct {
	DisplayName *string
	Role        *string
	LocationID  *uint
	Password    *string
}

// UpdateEmployee 更新员工账号
func (s *AuthService) UpdateEmployee(employeeID uint, input UpdateEmployeeInput) (*models.Employee, error) {
	employee, err := s.employeeRepo.GetByID(employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, ErrNotFound
	}

	if input.DisplayName != nil {
		employee.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*input.Role))
		switch role {
		case constants.EmployeeRoleAdmin, constants.EmployeeRoleManager, constants.EmployeeRoleCashier:
			employee.Role = role
		default:
			return nil, ErrInvalidArgument
		}
	}
	if input.LocationID != nil {
		employee.LocationID = input.LocationID
	}
	if input.Password != nil {
		if err := s.ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := s.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		employee.PasswordHash = hash
		now := time.Now()
		employee.TokenVersion++
		employee.TokenInvalidBefore = &now
	}

	if err := s.employeeRepo.Update(employee); err != nil {
		return nil, err
	}
	_ = cache.SetEmployeeAuthState(context.Background(), cache.BuildEmployeeAuthState(employee))
	return employee, nil
}
