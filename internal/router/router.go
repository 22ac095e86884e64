package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loyalty-next/internal/authz"
	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/config"
	adminhandlers "github.com/loyalty-next/internal/http/handlers/admin"
	publichandlers "github.com/loyalty-next/internal/http/handlers/public"
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按会员端/门店端分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ln"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	employeeLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:employee_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/locations", publicHandler.GetLocations)
		}

		// 会员认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 会员接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetUserProfile)
			user.PUT("/me/profile", publicHandler.UpdateUserProfile)
			user.PUT("/me/password", publicHandler.UserChangePassword)
			user.GET("/me/card", publicHandler.GetMyCard)
			user.GET("/me/balance", publicHandler.GetMyBalance)
			user.GET("/me/stamps", publicHandler.GetMyStampHistory)
			user.GET("/me/transactions", publicHandler.GetMyTransactions)
			user.GET("/me/vouchers", publicHandler.GetMyVouchers)
			user.POST("/me/vouchers/exchange", publicHandler.ExchangeVoucher)
			user.GET("/me/vouchers/:code", publicHandler.GetMyVoucher)
		}

		// 门店/后台接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, employeeLoginRule, KeyByIPAndJSONField("username")), adminHandler.EmployeeLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.EmployeeRepo), EmployeeRBACMiddleware(c.AuthzService))
			{
				authorized.PUT("/password", adminHandler.UpdateEmployeePassword)

				// 会员管理
				authorized.GET("/customers", adminHandler.GetAdminCustomers)
				authorized.GET("/customers/lookup", adminHandler.LookupAdminCustomer)
				authorized.GET("/customers/:id", adminHandler.GetAdminCustomer)
				authorized.GET("/customers/:id/stamps", adminHandler.GetAdminCustomerStamps)
				authorized.POST("/customers/:id/adjustments", adminHandler.AdjustAdminCustomerBalance)
				authorized.GET("/customers/:id/adjustments", adminHandler.GetAdminCustomerAdjustments)

				// 消费流水
				authorized.POST("/transactions", adminHandler.CreateAdminTransaction)
				authorized.GET("/transactions", adminHandler.GetAdminTransactions)
				authorized.GET("/transactions/:id", adminHandler.GetAdminTransaction)

				// 兑换券核销
				authorized.POST("/redemptions", adminHandler.CreateAdminRedemption)
				authorized.GET("/redemptions", adminHandler.GetAdminRedemptions)

				// 兑换券管理
				authorized.GET("/vouchers", adminHandler.GetAdminVouchers)
				authorized.GET("/vouchers/:code", adminHandler.GetAdminVoucherByCode)
				authorized.POST("/vouchers/:id/expire", adminHandler.ExpireAdminVoucher)

				// 自动赠礼规则
				authorized.GET("/rules", adminHandler.GetAdminRules)
				authorized.POST("/rules", adminHandler.CreateAdminRule)
				authorized.GET("/rules/:id", adminHandler.GetAdminRule)
				authorized.PUT("/rules/:id", adminHandler.UpdateAdminRule)
				authorized.DELETE("/rules/:id", adminHandler.DeleteAdminRule)

				// 积分配置
				authorized.GET("/settings", adminHandler.GetAdminSettings)
				authorized.PUT("/settings", adminHandler.UpdateAdminSettings)

				// 门店管理
				authorized.GET("/locations", adminHandler.GetAdminLocations)
				authorized.POST("/locations", adminHandler.CreateAdminLocation)
				authorized.PUT("/locations/:id", adminHandler.UpdateAdminLocation)
				authorized.DELETE("/locations/:id", adminHandler.DeleteAdminLocation)

				// 商品管理
				authorized.GET("/products", adminHandler.GetAdminProducts)
				authorized.GET("/products/:id", adminHandler.GetAdminProduct)
				authorized.POST("/products", adminHandler.CreateAdminProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateAdminProduct)
				authorized.DELETE("/products/:id", adminHandler.DeleteAdminProduct)

				// 员工管理
				authorized.GET("/employees", adminHandler.GetAdminEmployees)
				authorized.POST("/employees", adminHandler.CreateAdminEmployee)
				authorized.PUT("/employees/:id", adminHandler.UpdateAdminEmployee)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/employees/:id/roles", adminHandler.GetAuthzEmployeeRoles)
				authorized.PUT("/authz/employees/:id/roles", adminHandler.SetAuthzEmployeeRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
