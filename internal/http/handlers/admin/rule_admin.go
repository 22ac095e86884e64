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
)

// AdminRuleRequest 自动赠礼规则创建/更新请求
type AdminRuleRequest struct {
	Name              string                 `json:"name"`
	TriggerType       string                 `json:"trigger_type"`
	TriggerValue      map[string]interface{} `json:"trigger_value"`
	RewardType        string                 `json:"reward_type"`
	RewardStamps      int                    `json:"reward_stamps"`
	RewardVoucherTier string                 `json:"reward_voucher_tier"`
	Priority          int                    `json:"priority"`
	IsActive          *bool                  `json:"is_active"`
}

// GetAdminRules 获取规则列表 (Admin)
func (h *Handler) GetAdminRules(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rules, total, err := h.AutoGiftService.ListRules(repository.AutoGiftRuleListFilter{
		Page:        page,
		PageSize:    pageSize,
		TriggerType: strings.ToUpper(strings.TrimSpace(c.Query("trigger_type"))),
		OnlyActive:  c.Query("only_active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.rule_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, rules, pagination)
}

// GetAdminRule 获取规则详情 (Admin)
func (h *Handler) GetAdminRule(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	rule, err := h.AutoGiftService.GetRule(id)
	if err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			respondError(c, response.CodeNotFound, "error.rule_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.rule_fetch_failed", err)
		return
	}
	response.Success(c, rule)
}

// CreateAdminRule 创建规则
func (h *Handler) CreateAdminRule(c *gin.Context) {
	var req AdminRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	rule := &models.AutoGiftRule{
		Name:              strings.TrimSpace(req.Name),
		TriggerType:       strings.ToUpper(strings.TrimSpace(req.TriggerType)),
		TriggerValue:      models.JSON(req.TriggerValue),
		RewardType:        strings.ToLower(strings.TrimSpace(req.RewardType)),
		RewardStamps:      req.RewardStamps,
		RewardVoucherTier: strings.ToUpper(strings.TrimSpace(req.RewardVoucherTier)),
		Priority:          req.Priority,
		IsActive:          true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.AutoGiftService.CreateRule(rule); err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			respondError(c, response.CodeBadRequest, "error.rule_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, rule)
}

// UpdateAdminRule 更新规则
func (h *Handler) UpdateAdminRule(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	rule, err := h.AutoGiftService.GetRule(id)
	if err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			respondError(c, response.CodeNotFound, "error.rule_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.rule_fetch_failed", err)
		return
	}

	var req AdminRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		rule.Name = name
	}
	if triggerType := strings.ToUpper(strings.TrimSpace(req.TriggerType)); triggerType != "" {
		rule.TriggerType = triggerType
	}
	if req.TriggerValue != nil {
		rule.TriggerValue = models.JSON(req.TriggerValue)
	}
	if rewardType := strings.ToLower(strings.TrimSpace(req.RewardType)); rewardType != "" {
		rule.RewardType = rewardType
	}
	if req.RewardStamps > 0 {
		rule.RewardStamps = req.RewardStamps
	}
	if tier := strings.ToUpper(strings.TrimSpace(req.RewardVoucherTier)); tier != "" {
		rule.RewardVoucherTier = tier
	}
	rule.Priority = req.Priority
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.AutoGiftService.UpdateRule(rule); err != nil {
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, rule)
}

// DeleteAdminRule 删除规则
func (h *Handler) DeleteAdminRule(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.AutoGiftService.DeleteRule(id); err != nil {
		if errors.Is(err, service.ErrRuleNotFound) {
			respondError(c, response.CodeNotFound, "error.rule_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, nil)
}
