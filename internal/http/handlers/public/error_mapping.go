package public

import (
	"errors"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var voucherExchangeErrorRules = []mappedHandlerError{
	{target: service.ErrVoucherInvalidTier, code: response.CodeBadRequest, key: "error.voucher_tier_invalid"},
	{target: service.ErrInsufficientBalance, code: response.CodeBadRequest, key: "error.stamps_insufficient"},
	{target: service.ErrCustomerNotFound, code: response.CodeNotFound, key: "error.customer_not_found"},
	{target: service.ErrVoucherCodeConflict, code: response.CodeInternal, key: "error.voucher_code_conflict"},
}

func respondVoucherExchangeError(c *gin.Context, err error) {
	respondWithMappedError(c, err, voucherExchangeErrorRules, response.CodeInternal, "error.voucher_exchange_failed")
}
