// internal/app/router.go
package app

import (
	"aquaflow-service/internal/domain/staff"
	authHandler "aquaflow-service/internal/handlers/auth"
	billingHandler "aquaflow-service/internal/handlers/billing"
	contractHandler "aquaflow-service/internal/handlers/contract"
	customerHandler "aquaflow-service/internal/handlers/customer"
	meterHandler "aquaflow-service/internal/handlers/meter"
	notifyHandler "aquaflow-service/internal/handlers/notification"
	wsHandler "aquaflow-service/internal/handlers/websocket"
	"aquaflow-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler     *authHandler.AuthHandler
	ContractHandler *contractHandler.ContractHandler
	MeterHandler    *meterHandler.MeterHandler
	BillingHandler  *billingHandler.BillingHandler
	NotifHandler    *notifyHandler.NotificationHandler
	CustomerHandler *customerHandler.CustomerHandler
	WSHandler       *wsHandler.WebSocketHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Auth ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.POST("/refresh", h.AuthHandler.Refresh)
	}

	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.Me)
	}

	staffAdmin := api.Group("/staff")
	staffAdmin.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.AdminOnly())
	{
		staffAdmin.POST("", h.AuthHandler.CreateAccount)
	}

	// ==================== Customers ====================
	customers := api.Group("/customers")
	customers.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireRole(staff.RoleServiceStaff, staff.RoleAdmin))
	{
		customers.POST("", h.CustomerHandler.Create)
		customers.GET("/search", h.CustomerHandler.FindByPhone)
		customers.GET("/:id", h.CustomerHandler.Get)
	}

	// ==================== Contracts ====================
	contracts := api.Group("/contracts")
	contracts.Use(h.AuthMiddleware.Auth())
	{
		contracts.GET("", h.ContractHandler.List)
		contracts.GET("/:id", h.ContractHandler.Get)

		serviceStaff := contracts.Group("")
		serviceStaff.Use(h.AuthMiddleware.RequireRole(staff.RoleServiceStaff, staff.RoleAdmin))
		{
			serviceStaff.POST("", h.ContractHandler.Create)
			serviceStaff.POST("/:id/submit", h.ContractHandler.Submit)
			serviceStaff.POST("/:id/approve-survey", h.ContractHandler.ApproveSurvey)
			serviceStaff.POST("/:id/send-for-signature", h.ContractHandler.SendForSignature)
			serviceStaff.POST("/:id/sign", h.ContractHandler.Sign)
			serviceStaff.POST("/:id/send-to-installation", h.ContractHandler.SendToInstallation)
			serviceStaff.POST("/:id/annul", h.ContractHandler.Annul)
		}

		admin := contracts.Group("")
		admin.Use(h.AuthMiddleware.AdminOnly())
		{
			admin.POST("/:id/suspend", h.ContractHandler.Suspend)
			admin.POST("/:id/resume", h.ContractHandler.Resume)
			admin.POST("/:id/terminate", h.ContractHandler.Terminate)
			admin.POST("/:id/expire", h.ContractHandler.Expire)
		}

		technical := contracts.Group("")
		technical.Use(h.AuthMiddleware.RequireRole(staff.RoleTechnicalStaff, staff.RoleAdmin))
		{
			technical.POST("/:id/survey", h.ContractHandler.SubmitSurvey)
			technical.POST("/:id/complete-installation", h.ContractHandler.CompleteInstallation)
		}
	}

	// ==================== Meters & Readings ====================
	meters := api.Group("/meters")
	meters.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireRole(staff.RoleTechnicalStaff, staff.RoleAdmin))
	{
		meters.POST("", h.MeterHandler.Register)
		meters.GET("/:code", h.MeterHandler.Get)
	}

	serviceContracts := api.Group("/service-contracts")
	serviceContracts.Use(h.AuthMiddleware.Auth())
	{
		readings := serviceContracts.Group("")
		readings.Use(h.AuthMiddleware.RequireRole(staff.RoleTechnicalStaff, staff.RoleAdmin))
		{
			readings.POST("/:id/readings", h.MeterHandler.SubmitReading)
			readings.POST("/:id/replace-meter", h.MeterHandler.Replace)
		}
		serviceContracts.GET("/:id/readings", h.MeterHandler.ListReadings)
		serviceContracts.GET("/:id/invoices", h.BillingHandler.ListInvoices)

		billing := serviceContracts.Group("")
		billing.Use(h.AuthMiddleware.RequireRole(staff.RoleCashier, staff.RoleAdmin))
		{
			billing.POST("/:id/invoices", h.BillingHandler.GenerateInvoice)
		}
	}

	// ==================== Invoices & Payments ====================
	invoices := api.Group("/invoices")
	invoices.Use(h.AuthMiddleware.Auth())
	{
		invoices.GET("/:id", h.BillingHandler.GetInvoice)

		cashier := invoices.Group("")
		cashier.Use(h.AuthMiddleware.RequireRole(staff.RoleCashier, staff.RoleAdmin))
		{
			cashier.POST("/:id/payments", h.BillingHandler.RecordPayment)
			cashier.POST("/:id/cancel", h.BillingHandler.CancelInvoice)
		}
	}

	billingAdmin := api.Group("/billing")
	billingAdmin.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.AdminOnly())
	{
		billingAdmin.POST("/mark-overdue", h.BillingHandler.MarkOverdue)
	}

	// ==================== Notifications ====================
	notifications := api.Group("/notifications")
	notifications.Use(h.AuthMiddleware.Auth())
	{
		notifications.GET("", h.NotifHandler.GetNotifications)
		notifications.GET("/latest", h.NotifHandler.GetLatestNotifications)
		notifications.GET("/count/unread", h.NotifHandler.GetUnreadCount)
		notifications.PUT("/:id/read", h.NotifHandler.MarkAsRead)
		notifications.PUT("/read-all", h.NotifHandler.MarkAllAsRead)
		notifications.DELETE("/:id", h.NotifHandler.Delete)
	}

	// ==================== WebSocket Stats ====================
	wsAdmin := api.Group("/ws")
	wsAdmin.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.AdminOnly())
	{
		wsAdmin.GET("/stats", h.WSHandler.GetStats)
		wsAdmin.POST("/alert", h.WSHandler.BroadcastAlert)
	}
}
