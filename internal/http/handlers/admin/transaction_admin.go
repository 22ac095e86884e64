package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"

	"github.com/shopspring/decimal"
)

// AdminRecordTransactionRequest 收银台记录消费请求
// 会员可用 customer_id 或 member_no 指定，二选一。
type AdminRecordTransactionRequest struct {
	CustomerID  uint   `json:"customer_id"`
	MemberNo    string `json:"member_no"`
	LocationID  uint   `json:"location_id" binding:"required"`
	TotalAmount string `json:"total_amount" binding:"required"`
	EntryMethod string `json:"entry_method" binding:"required"`
}

// CreateAdminTransaction 记录一笔消费并发放印花
func (h *Handler) CreateAdminTransaction(c *gin.Context) {
	employeeID, ok := getEmployeeID(c)
	if !ok {
		return
	}

	var req AdminRecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	customerID := req.CustomerID
	if customerID == 0 {
		customer, err := h.CustomerService.GetCustomerByMemberNo(req.MemberNo)
		if err != nil {
			if errors.Is(err, service.ErrCustomerNotFound) {
				respondError(c, response.CodeNotFound, "error.customer_not_found", nil)
				return
			}
			respondError(c, response.CodeInternal, "error.customer_fetch_failed", err)
			return
		}
		customerID = customer.ID
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.TotalAmount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.amount_invalid", nil)
		return
	}

	record, err := h.TransactionService.RecordTransaction(service.RecordTransactionInput{
		CustomerID:  customerID,
		CashierID:   &employeeID,
		LocationID:  req.LocationID,
		TotalAmount: models.NewMoneyFromDecimal(amount),
		EntryMethod: req.EntryMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCustomerNotFound):
			respondError(c, response.CodeNotFound, "error.customer_not_found", nil)
		case errors.Is(err, service.ErrLocationNotFound):
			respondError(c, response.CodeBadRequest, "error.location_not_found", nil)
		case errors.Is(err, service.ErrInvalidAmount):
			respondError(c, response.CodeBadRequest, "error.amount_invalid", nil)
		case errors.Is(err, service.ErrBelowMinimumAmount):
			respondError(c, response.CodeBadRequest, "error.amount_below_minimum", nil)
		case errors.Is(err, service.ErrInvalidArgument):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		default:
			respondError(c, response.CodeInternal, "error.transaction_record_failed", err)
		}
		return
	}

	response.Success(c, gin.H{"transaction": record})
}

// GetAdminTransactions 获取交易列表 (Admin)
func (h *Handler) GetAdminTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.TransactionListFilter{
		Page:        page,
		PageSize:    pageSize,
		EntryMethod: strings.ToUpper(strings.TrimSpace(c.Query("entry_method"))),
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
	if raw := c.Query("cashier_id"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.CashierID = uint(parsed)
		}
	}

	transactions, total, err := h.TransactionService.ListTransactions(filter)
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

// GetAdminTransaction 获取交易详情 (Admin)
func (h *Handler) GetAdminTransaction(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	record, err := h.TransactionService.GetTransaction(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.transaction_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.transaction_fetch_failed", err)
		return
	}

	response.Success(c, record)
}
