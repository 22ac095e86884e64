package admin

import (
	"errors"
	"strconv"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminRedeemVoucherRequest 核销兑换券请求
type AdminRedeemVoucherRequest struct {
	Code       string `json:"code" binding:"required"`
	LocationID uint   `json:"location_id" binding:"required"`
	ProductID  uint   `json:"product_id" binding:"required"`
}

// CreateAdminRedemption 核销一张兑换券
func (h *Handler) CreateAdminRedemption(c *gin.Context) {
	employeeID, ok := getEmployeeID(c)
	if !ok {
		return
	}

	var req AdminRedeemVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	voucher, redemption, err := h.VoucherService.RedeemVoucher(service.RedeemVoucherInput{
		Code:       req.Code,
		CashierID:  employeeID,
		LocationID: req.LocationID,
		ProductID:  req.ProductID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVoucherNotFound):
			respondError(c, response.CodeNotFound, "error.voucher_not_found", nil)
		case errors.Is(err, service.ErrVoucherAlreadyUsed):
			respondError(c, response.CodeBadRequest, "error.voucher_already_used", nil)
		case errors.Is(err, service.ErrVoucherExpired):
			respondError(c, response.CodeBadRequest, "error.voucher_expired", nil)
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, response.CodeBadRequest, "error.product_not_eligible", nil)
		case errors.Is(err, service.ErrProductInactive):
			respondError(c, response.CodeBadRequest, "error.product_inactive", nil)
		default:
			respondError(c, response.CodeInternal, "error.redeem_failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"voucher":    voucher,
		"redemption": redemption,
	})
}

// GetAdminRedemptions 获取核销记录列表 (Admin)
func (h *Handler) GetAdminRedemptions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.RedemptionListFilter{
		Page:     page,
		PageSize: pageSize,
	}
	if raw := c.Query("customer_id"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.CustomerID = uint(parsed)
		}
	}
	if raw := c.Query("location_id"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.LocationID = uint(parsed)
		}
	}
	if raw := c.Query("product_id"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.ProductID = uint(parsed)
		}
	}

	redemptions, total, err := h.VoucherService.ListRedemptions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.redemption_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, redemptions, pagination)
}
