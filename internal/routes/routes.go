package routes

import (
	"github.com/gin-gonic/gin"

	"kolboard/internal/authz"
	"kolboard/internal/handlers"
	"kolboard/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	opportunityHandler *handlers.OpportunityHandler,
	contactHandler *handlers.ContactHandler,
	campaignHandler *handlers.CampaignHandler,
	formHandler *handlers.FormHandler,
	listHandler *handlers.ListHandler,
	assistantHandler *handlers.AssistantHandler,
	reportHandler *handlers.ReportHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.RefreshToken)
	r.POST("/register", userHandler.Register)

	public := r.Group("/public")
	{
		public.GET("/forms/:slug", formHandler.PublicGet)
		public.POST("/forms/:slug", formHandler.PublicSubmit)
	}

	// ---- protected
	r.Use(middleware.AuthMiddleware())
	r.Use(middleware.ReadOnlyGuard())

	r.POST("/logout", authHandler.Logout)
	r.GET("/me", userHandler.Me)

	// USERS (management and above)
	users := r.Group("/users", middleware.RequireRoles(authz.RoleManagement, authz.RoleAdmin))
	{
		users.GET("/", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	// OPPORTUNITIES (the pipeline itself)
	opps := r.Group("/opportunities")
	{
		opps.POST("/", opportunityHandler.Create)
		opps.GET("/", opportunityHandler.List)
		opps.POST("/bulk-assign", opportunityHandler.BulkAssign)
		opps.POST("/reorder", opportunityHandler.Reorder)
		opps.GET("/:id", opportunityHandler.Get)
		opps.PATCH("/:id", opportunityHandler.Update)
		opps.DELETE("/:id", opportunityHandler.Delete)
		opps.POST("/:id/transition", opportunityHandler.Transition)
		opps.POST("/:id/move", opportunityHandler.Move)
		opps.GET("/:id/history", opportunityHandler.History)
		opps.POST("/:id/email", opportunityHandler.SendEmail)

		opps.GET("/:id/contacts", contactHandler.ListForOpportunity)
		opps.GET("/:id/contacts/primary", contactHandler.Primary)
		opps.POST("/:id/contacts", contactHandler.Link)
		opps.DELETE("/:id/contacts/:contact_id", contactHandler.Unlink)
	}

	r.GET("/board/:category", opportunityHandler.Board)

	// CONTACTS
	contacts := r.Group("/contacts")
	{
		contacts.POST("/", contactHandler.Create)
		contacts.GET("/", contactHandler.List)
		contacts.GET("/:id", contactHandler.Get)
		contacts.PUT("/:id", contactHandler.Update)
		contacts.DELETE("/:id", contactHandler.Delete)
	}

	// CAMPAIGNS (campaigns role and above)
	campaigns := r.Group("/campaigns", middleware.RequireRoles(
		authz.RoleCampaigns, authz.RoleAnalyst, authz.RoleManagement, authz.RoleAdmin))
	{
		campaigns.POST("/", campaignHandler.Create)
		campaigns.GET("/", campaignHandler.List)
		campaigns.GET("/:id", campaignHandler.Get)
		campaigns.PUT("/:id", campaignHandler.Update)
		campaigns.DELETE("/:id", campaignHandler.Delete)
		campaigns.POST("/:id/members", campaignHandler.AddMember)
		campaigns.GET("/:id/members", campaignHandler.Members)
		campaigns.DELETE("/:id/members/:opportunity_id", campaignHandler.RemoveMember)
	}

	// FORMS (admin surface; the public side is above)
	forms := r.Group("/forms")
	{
		forms.POST("/", formHandler.Create)
		forms.GET("/", formHandler.List)
		forms.GET("/:id", formHandler.Get)
		forms.PUT("/:id", formHandler.Update)
		forms.DELETE("/:id", formHandler.Delete)
		forms.GET("/:id/responses", formHandler.Responses)
		forms.GET("/:id/responses/export.csv", formHandler.ExportCSV)
		forms.GET("/:id/responses/export.pdf", formHandler.ExportPDF)
		forms.POST("/:id/share", formHandler.ShareLink)
	}

	// LISTS
	lists := r.Group("/lists")
	{
		lists.POST("/", listHandler.Create)
		lists.GET("/", listHandler.Mine)
		lists.GET("/:id", listHandler.Get)
		lists.PUT("/:id", listHandler.Rename)
		lists.DELETE("/:id", listHandler.Delete)
		lists.POST("/:id/entries", listHandler.AddEntry)
		lists.DELETE("/:id/entries/:opportunity_id", listHandler.RemoveEntry)
		lists.GET("/:id/members", listHandler.Members)
		lists.POST("/:id/reorder", listHandler.ReorderEntries)
	}

	// ASSISTANT
	assistant := r.Group("/assistant")
	{
		assistant.POST("/chat", assistantHandler.Ask)
		assistant.GET("/conversations", assistantHandler.Conversations)
		assistant.GET("/conversations/:id/messages", assistantHandler.Messages)
		assistant.GET("/conversations/:id/actions", assistantHandler.Actions)
	}

	// REPORTS (analyst and above)
	reports := r.Group("/reports", middleware.RequireRoles(
		authz.RoleAnalyst, authz.RoleManagement, authz.RoleAdmin))
	{
		reports.GET("/summary", reportHandler.Summary)
		reports.GET("/opportunities", reportHandler.Filter)
		reports.GET("/export.pdf", reportHandler.ExportPDF)
	}

	return r
}
