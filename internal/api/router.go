// internal/api/router.go
package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置HTTP路由
func SetupRouter(d Deps) *gin.Engine {
	handler := NewHandler(d)

	r := gin.New()
	r.Use(gin.Recovery())
	if d.DebugMode {
		r.Use(gin.Logger())
	}
	r.Use(RequestContext(d.Metrics))
	r.Use(corsMiddleware(d.AllowedOrigins))

	r.GET("/health", handler.Health)

	limited := func(c *gin.Context) { c.Next() }
	if d.RateLimit != nil {
		limited = d.RateLimit.Middleware()
	}

	// ===============================
	// 公开路由
	// ===============================
	public := r.Group("/api")
	{
		public.GET("/questions", handler.GetQuestions)
		if d.DebugMode {
			public.POST("/auth/token", handler.IssueToken)
		}
	}

	// ===============================
	// 需要认证的路由
	// ===============================
	api := r.Group("/api")
	api.Use(AuthMiddleware(d.Tokens))
	{
		api.GET("/metrics", handler.GetMetrics)

		llmGroup := api.Group("/llm")
		{
			llmGroup.GET("/config", handler.GetLLMConfig)
			// 全局LLM配置只允许管理员修改
			llmGroup.PUT("/config", RequireAdmin(d.AdminAccounts), handler.UpdateLLMConfig)
			llmGroup.GET("/config/history", RequireAdmin(d.AdminAccounts), handler.GetLLMConfigHistory)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("/:taskID", handler.GetTask)
			tasks.GET("/:taskID/stream", handler.SubscribeTask)
		}

		// 可编辑内容不在服务端保存
		content := api.Group("/content")
		{
			content.POST("/edit", handler.EditContent)
			content.POST("/export", handler.ExportContent)
		}

		account := api.Group("/accounts/:id")
		account.Use(RequireAccountOwner())
		{
			craft := account.Group("/craft")
			{
				craft.POST("/sessions", handler.StartCraftSession)
				craft.GET("/sessions/:sid", handler.GetCraftSession)
				craft.POST("/sessions/:sid/answers", handler.SubmitCraftAnswer)
				craft.GET("/ws", handler.CraftWebSocket)
			}

			blueprint := account.Group("/blueprint")
			{
				blueprint.GET("", handler.GetBlueprint)
				blueprint.PUT("", handler.SaveBlueprint)
				blueprint.GET("/content", handler.GetBlueprintContent)
				blueprint.GET("/status", handler.GetGenerationStatus)
				blueprint.POST("/generate", handler.GenerateBlueprint)
				blueprint.POST("/generate/llm", limited, handler.GenerateBlueprintWithLLM)
			}

			account.GET("/progress", handler.GetProgress)
			account.PUT("/flags/:flag", handler.SetFlag)

			knowledge := account.Group("/knowledge")
			{
				knowledge.GET("", handler.ListKnowledge)
				knowledge.POST("", handler.UploadKnowledge)
				knowledge.POST("/extract", limited, handler.ExtractBusinessContext)
			}
		}
	}

	return r
}
