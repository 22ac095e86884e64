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

// GetAdminCustomers 获取会员列表 (Admin)
func (h *Handler) GetAdminCustomers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	customers, total, err := h.CustomerService.ListCustomers(repository.CustomerListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("search")),
		MemberNo: strings.TrimSpace(c.Query("member_no")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, customers, pagination)
}

// LookupAdminCustomer 按会员号查找会员（收银台扫码/手输入口）
func (h *Handler) LookupAdminCustomer(c *gin.Context) {
	memberNo := strings.TrimSpace(c.Query("member_no"))
	if memberNo == "" {
		respondError(c, response.CodeBadRequest, "error.member_no_required", nil)
		return
	}

	customer, err := h.CustomerService.GetCustomerByMemberNo(memberNo)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			respondError(c, response.CodeNotFound, "error.customer_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return
	}
	response.Success(c, customer)
}

// GetAdminCustomer 获取会员详情 (Admin)
func (h *Handler) GetAdminCustomer(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.customer_id_invalid", nil)
		return
	}

	customer, err := h.CustomerService.GetCustomer(id)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			respondError(c, response.CodeNotFound, "error.customer_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return
	}

	summary, err := h.LedgerService.GetBalance(customer.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return
	}

	response.Success(c, gin.H{
		"customer": customer,
		"balance":  summary,
	})
}

// GetAdminCustomerStamps 获取会员印花流水 (Admin)
func (h *Handler) GetAdminCustomerStamps(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.customer_id_invalid", nil)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	stamps, total, err := h.LedgerService.ListStampHistory(repository.StampListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: id,
		Status:     strings.TrimSpace(c.Query("status")),
		Reason:     strings.TrimSpace(c.Query("reason")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.stamp_history_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, stamps, pagination)
}

// AdminAdjustBalanceRequest 手工调整印花余额请求
type AdminAdjustBalanceRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AdjustAdminCustomerBalance 手工增减会员印花余额
func (h *Handler) AdjustAdminCustomerBalance(c *gin.Context) {
	employeeID, ok := getEmployeeID(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.customer_id_invalid", nil)
		return
	}

	var req AdminAdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	err := h.LedgerService.AdjustBalance(service.AdjustBalanceInput{
		CustomerID: id,
		EmployeeID: employeeID,
		Delta:      req.Delta,
		Reason:     req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCustomerNotFound):
			respondError(c, response.CodeNotFound, "error.customer_not_found", nil)
		case errors.Is(err, service.ErrInvalidStampCount):
			respondError(c, response.CodeBadRequest, "error.adjust_delta_invalid", nil)
		case errors.Is(err, service.ErrAdjustReasonRequired):
			respondError(c, response.CodeBadRequest, "error.adjust_reason_required", nil)
		case errors.Is(err, service.ErrInsufficientBalance):
			respondError(c, response.CodeBadRequest, "error.stamps_insufficient", nil)
		default:
			respondError(c, response.CodeInternal, "error.adjust_failed", err)
		}
		return
	}

	summary, err := h.LedgerService.GetBalance(id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return
	}
	response.Success(c, summary)
}

// GetAdminCustomerAdjustments 获取会员手工调整记录 (Admin)
func (h *Handler) GetAdminCustomerAdjustments(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.customer_id_invalid", nil)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	adjustments, total, err := h.LedgerService.ListAdjustments(repository.BalanceAdjustmentListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: id,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.adjustment_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, adjustments, pagination)
}
