package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminEmployees 获取员工列表 (Admin)
func (h *Handler) GetAdminEmployees(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.EmployeeListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("search")),
		Role:     strings.ToLower(strings.TrimSpace(c.Query("role"))),
	}
	if raw := c.Query("location_id"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.LocationID = uint(parsed)
		}
	}

	employees, total, err := h.EmployeeRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.employee_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, employees, pagination)
}

// AdminCreateEmployeeRequest 创建员工请求
type AdminCreateEmployeeRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required"`
	LocationID  *uint  `json:"location_id"`
}

// CreateAdminEmployee 创建员工账号
func (h *Handler) CreateAdminEmployee(c *gin.Context) {
	var req AdminCreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	employee, err := h.AuthService.CreateEmployee(service.CreateEmployeeInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		LocationID:  req.LocationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidArgument):
			respondError(c, response.CodeBadRequest, "error.employee_invalid", nil)
		case errors.Is(err, service.ErrUsernameExists):
			respondError(c, response.CodeBadRequest, "error.username_exists", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, "error.password_weak", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"id":           employee.ID,
		"username":     employee.Username,
		"display_name": employee.DisplayName,
		"role":         employee.Role,
		"location_id":  employee.LocationID,
	})
}

// AdminUpdateEmployeeRequest 更新员工请求
type AdminUpdateEmployeeRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
	LocationID  *uint   `json:"location_id"`
	Password    *string `json:"password"`
}

// UpdateAdminEmployee 更新员工账号
func (h *Handler) UpdateAdminEmployee(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.employee_id_invalid", nil)
		return
	}

	var req AdminUpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	employee, err := h.AuthService.UpdateEmployee(id, service.UpdateEmployeeInput{
		DisplayName: req.DisplayName,
		Role:        req.Role,
		LocationID:  req.LocationID,
		Password:    req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.employee_not_found", nil)
		case errors.Is(err, service.ErrInvalidArgument):
			respondError(c, response.CodeBadRequest, "error.employee_invalid", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, "error.password_weak", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"id":           employee.ID,
		"username":     employee.Username,
		"display_name": employee.DisplayName,
		"role":         employee.Role,
		"location_id":  employee.LocationID,
	})
}
