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

// AdminLocationRequest 门店创建/更新请求
type AdminLocationRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Address  string `json:"address"`
	IsActive *bool  `json:"is_active"`
}

// GetAdminLocations 获取门店列表 (Admin)
func (h *Handler) GetAdminLocations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	locations, total, err := h.LocationService.ListLocations(repository.LocationListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.location_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, locations, pagination)
}

// CreateAdminLocation 创建门店
func (h *Handler) CreateAdminLocation(c *gin.Context) {
	var req AdminLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	location, err := h.LocationService.CreateLocation(service.LocationInput{
		Name:     req.Name,
		Code:     req.Code,
		Address:  req.Address,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			respondError(c, response.CodeBadRequest, "error.location_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, location)
}

// UpdateAdminLocation 更新门店
func (h *Handler) UpdateAdminLocation(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req AdminLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	location, err := h.LocationService.UpdateLocation(id, service.LocationInput{
		Name:     req.Name,
		Code:     req.Code,
		Address:  req.Address,
		IsActive: req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLocationNotFound):
			respondError(c, response.CodeNotFound, "error.location_not_found", nil)
		case errors.Is(err, service.ErrInvalidArgument):
			respondError(c, response.CodeBadRequest, "error.location_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, location)
}

// DeleteAdminLocation 删除门店
func (h *Handler) DeleteAdminLocation(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.LocationService.DeleteLocation(id); err != nil {
		if errors.Is(err, service.ErrLocationNotFound) {
			respondError(c, response.CodeNotFound, "error.location_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, nil)
}
