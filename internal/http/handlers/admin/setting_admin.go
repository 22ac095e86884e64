package admin

import (
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetAdminSettings 获取积分规则配置（默认值与覆盖值合并后）
func (h *Handler) GetAdminSettings(c *gin.Context) {
	config, err := h.SettingService.GetConfig()
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}
	response.Success(c, config)
}

// UpdateAdminSettings 更新积分规则配置
// 仅覆盖提交的字段，配置即时生效（服务层每次评估都读取当前值）。
func (h *Handler) UpdateAdminSettings(c *gin.Context) {
	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if len(req) == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	updated, err := h.SettingService.Update(constants.SettingKeyLoyaltyConfig, req)
	if err != nil {
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, updated)
}
