package lead

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers routes that need no token
func RegisterPublicRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/auth/login", handler.Login)
}

// RegisterRoutes registers the authenticated CRM routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	leads := r.Group("/leads")
	{
		leads.GET("", handler.ListLeads)
		leads.PATCH("/bulk", handler.BulkUpdate)
		leads.GET("/:id", handler.GetLead)
		leads.PATCH("/:id", handler.UpdateLead)
		leads.GET("/:id/comments", handler.ListComments)
	}

	campaigns := r.Group("/campaigns")
	{
		campaigns.GET("", handler.ListCampaigns)
		campaigns.GET("/:id/leads", handler.ListCampaignLeads)
	}

	r.GET("/statuses", handler.ListStatuses)
	r.GET("/requirement-fields", handler.ListRequirementFields)
	r.GET("/sources", handler.ListSources)
	r.GET("/tags", handler.ListTags)
}
