package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) currentCustomer(c *gin.Context) (*models.Customer, bool) {
	uid, ok := getUserID(c)
	if !ok {
		return nil, false
	}
	customer, err := h.CustomerService.GetCustomerByUserID(uid)
	if err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			respondError(c, response.CodeNotFound, "error.customer_not_found", nil)
			return nil, false
		}
		respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
		return nil, false
	}
	return customer, true
}

// GetMyCard 获取会员卡信息（会员号供收银台扫码/手输识别）
func (h *Handler) GetMyCard(c *gin.Context) {
	customer, ok := h.currentCustomer(c)
	if !ok {
		return
	}

	response.Success(c, gin.H{
		"member_no":      customer.MemberNo,
		"current_stamps": customer.CurrentStamps,
	})
}

// GetMyBalance 获取当前印花余额
func (h *Handler) GetMyBalance(c *gin.Context) {
	customer, ok := h.currentCustomer(c)
	if !ok {
		return
	}

	summary, err := h.LedgerService.GetBalance(customer.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.balance_fetch_failed", err)
		return
	}
	response.Success(c, summary)
}

// GetMyStampHistory 获取印花流水
func (h *Handler) GetMyStampHistory(c *gin.Context) {
	customer, ok := h.currentCustomer(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	stamps, total, err := h.LedgerService.ListStampHistory(repository.StampListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: customer.ID,
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

// GetMyTransactions 获取消费记录
func (h *Handler) GetMyTransactions(c *gin.Context) {
	customer, ok := h.currentCustomer(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	transactions, total, err := h.TransactionService.ListTransactions(repository.TransactionListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: customer.ID,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.transaction_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, transactions, pagination)
}

// GetMyVouchers 获取兑换券列表
// 默认仅返回可用券；status=all 时返回全部历史券。
func (h *Handler) GetMyVouchers(c *gin.Context) {
	customer, ok := h.currentCustomer(c)
	if !ok {
		return
	}

	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	if status == "" {
		vouchers, err := h.VoucherService.ListActiveVouchers(customer.ID)
		if err != nil {
			respondError(c, response.CodeInternal, "error.voucher_fetch_failed", err)
			return
		}
		response.Success(c, gin.H{"vouchers": vouchers})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.VoucherListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: customer.ID,
	}
	if status != "ALL" {
		filter.Status = status
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

// ExchangeVoucherRequest 印花换券请求
type ExchangeVoucherRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// ExchangeVoucher 用印花兑换一张券
func (h *Handler) ExchangeVoucher(c *gin.Context) {
	customer, ok := h.currentCustomer(c)
	if !ok {
		return
	}

	var req ExchangeVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	voucher, err := h.VoucherService.ExchangeStampsForVoucher(service.ExchangeVoucherInput{
		CustomerID: customer.ID,
		Tier:       req.Tier,
	})
	if err != nil {
		respondVoucherExchangeError(c, err)
		return
	}

	response.Success(c, gin.H{"voucher": voucher})
}

// GetMyVoucher 按券码查询本人的券
func (h *Handler) GetMyVoucher(c *gin.Context) {
	customer, ok := h.currentCustomer(c)
	if !ok {
		return
	}

	voucher, err := h.VoucherService.GetVoucherByCode(c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrVoucherNotFound) {
			respondError(c, response.CodeNotFound, "error.voucher_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.voucher_fetch_failed", err)
		return
	}
	if voucher.CustomerID != customer.ID {
		respondError(c, response.CodeNotFound, "error.voucher_not_found", nil)
		return
	}

	response.Success(c, gin.H{"voucher": voucher})
}

// GetProducts 获取可兑换商品列表（公开）
func (h *Handler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListProducts(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Tier:       strings.ToUpper(strings.TrimSpace(c.Query("tier"))),
		OnlyActive: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, products, pagination)
}

// GetLocations 获取营业门店列表（公开）
func (h *Handler) GetLocations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	locations, total, err := h.LocationService.ListLocations(repository.LocationListFilter{
		Page:       page,
		PageSize:   pageSize,
		OnlyActive: true,
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
