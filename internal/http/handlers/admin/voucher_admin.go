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

// GetAdminVouchers 获取兑换券列表 (Admin)
func (h *Handler) GetAdminVouchers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.VoucherListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		Tier:     strings.ToUpper(strings.TrimSpace(c.Query("tier"))),
		Code:     strings.ToUpper(strings.TrimSpace(c.Query("code"))),
	}
	if raw := c.Query("customer_id"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.CustomerID = uint(parsed)
		}
	}

	vouchers, total, err := h.VoucherService.ListVouchers(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.voucher_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, vouchers, pagination)
}

// GetAdminVoucherByCode 按券码查询兑换券（核销前校验入口）
func (h *Handler) GetAdminVoucherByCode(c *gin.Context) {
	voucher, err := h.VoucherService.GetVoucherByCode(c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrVoucherNotFound) {
			respondError(c, response.CodeNotFound, "error.voucher_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.voucher_fetch_failed", err)
		return
	}
	response.Success(c, voucher)
}

// ExpireAdminVoucher 手工将兑换券置为过期
func (h *Handler) ExpireAdminVoucher(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.VoucherService.ExpireVoucher(id); err != nil {
		respondError(c, response.CodeInternal, "error.voucher_expire_failed", err)
		return
	}
	response.Success(c, gin.H{"expired": true})
}
