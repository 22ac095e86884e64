package public

import "github.com/loyalty-next/internal/provider"

// Handler 前台/会员侧接口处理器入口
// 说明：该处理器仅用于会员 App、小程序等用户侧 API。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
