// Package gateway serves the appointment API as JSON over HTTP for browsers.
// Requests are decoded with gin, passed to the same rpc.Service the gRPC
// server exposes and answered with its result.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/middleware"
	"jobgate-appointment-api/internal/rpc"
)

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Service rpc.Service
	Secret  string
	Limiter *middleware.RateLimiter
	Origins []string

	// TrustedProxies may set X-Forwarded-For. With none, rate limits key on
	// the socket address.
	TrustedProxies []string

	// Secure marks auth cookies Secure. Set it outside development.
	Secure  bool
	Version string
	DB      Pinger
	Redis   Pinger
}

// New builds the router. Routes mirror the REST paths of the web client.
func New(dep Deps) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(dep.TrustedProxies); err != nil {
		appLog.Error("trusted proxies ignored", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), RequestID())
	r.Use(corsMiddleware(dep.Origins))

	health := &healthHandler{version: dep.Version, db: dep.DB, redis: dep.Redis}
	svc := dep.Service
	ck := cookies{secure: dep.Secure}
	limit := rateLimit(dep.Limiter)

	api := r.Group("/api")
	api.GET("/health", health.check)

	pub := api.Group("/auth")
	pub.POST("/register", limit, issue(ck, svc.Register, http.StatusCreated))
	pub.POST("/login", limit, issue(ck, svc.Login, http.StatusOK))
	pub.POST("/refresh", limit, ck.refresh(svc.RefreshToken))

	authed := api.Group("", Authenticate(dep.Secret))
	authed.POST("/auth/logout", ck.logout(svc.Logout))

	users := authed.Group("/users")
	users.GET("/profile", handle(svc.GetProfile, 0, http.StatusOK))
	users.PATCH("/profile", handle(svc.UpdateProfile, fromBody, http.StatusOK))
	users.GET("/preferences", handle(svc.GetPreferences, 0, http.StatusOK))
	users.PATCH("/preferences", handle(svc.UpdatePreferences, fromBody, http.StatusOK))
	users.GET("/list", handle(svc.ListUsers, fromQuery, http.StatusOK))

	univ := authed.Group("/universities")
	univ.GET("/", handle(svc.ListUniversities, fromQuery, http.StatusOK))
	univ.POST("/", handle(svc.CreateUniversity, fromBody, http.StatusCreated))
	univ.GET("/my", handle(svc.MyUniversity, 0, http.StatusOK))
	univ.GET("/:id", handle(svc.GetUniversity, fromPath, http.StatusOK))
	univ.PATCH("/:id", handle(svc.UpdateUniversity, fromBody|fromPath, http.StatusOK))
	univ.DELETE("/:id", handle(svc.DeleteUniversity, fromPath, http.StatusNoContent))
	univ.GET("/:id/staff", handle(svc.ListUniversityStaff, fromPath, http.StatusOK))

	apt := authed.Group("/appointments")
	apt.GET("/themes", handle(svc.ListThemes, 0, http.StatusOK))
	apt.POST("/themes", handle(svc.CreateTheme, fromBody, http.StatusCreated))

	apt.GET("/agendas", handle(svc.ListAgendas, fromQuery, http.StatusOK))
	apt.POST("/agendas", handle(svc.CreateAgenda, fromBody, http.StatusCreated))
	apt.GET("/agendas/:id", handle(svc.GetAgenda, fromPath, http.StatusOK))
	apt.PATCH("/agendas/:id", handle(svc.UpdateAgenda, fromBody|fromPath, http.StatusOK))
	apt.DELETE("/agendas/:id", handle(svc.DeleteAgenda, fromPath, http.StatusNoContent))
	apt.POST("/agendas/:id/staff", handle(svc.AssignAgendaStaff, fromBody|fromPath, http.StatusCreated))

	apt.GET("/slots", handle(svc.ListSlots, fromQuery, http.StatusOK))
	apt.POST("/slots", handle(svc.CreateSlot, fromBody, http.StatusCreated))
	apt.GET("/slots/available", handle(svc.AvailableSlots, fromQuery, http.StatusOK))
	apt.POST("/slots/bulk", handle(svc.BulkCreateSlots, fromBody, http.StatusCreated))
	apt.POST("/slots/check-conflicts", handle(svc.CheckSlotConflicts, fromBody, http.StatusOK))
	apt.GET("/slots/:id", handle(svc.GetSlot, fromPath, http.StatusOK))
	apt.PATCH("/slots/:id", handle(svc.UpdateSlot, fromBody|fromPath, http.StatusOK))
	apt.DELETE("/slots/:id", handle(svc.DeleteSlot, fromPath, http.StatusNoContent))

	apt.GET("/calendar/month", handle(svc.MonthView, fromQuery, http.StatusOK))
	apt.GET("/calendar/events", handle(svc.CalendarEvents, fromQuery, http.StatusOK))
	apt.GET("/calendar.ics", download(svc.CalendarICS))
	apt.GET("/export", download(svc.ExportAppointments))
	apt.GET("/statistics", handle(svc.Statistics, fromQuery, http.StatusOK))

	apt.GET("/", handle(svc.ListAppointments, fromQuery, http.StatusOK))
	apt.POST("/book", limit, handle(svc.BookAppointment, fromBody, http.StatusCreated))
	apt.GET("/:id", handle(svc.GetAppointment, fromPath, http.StatusOK))
	apt.PATCH("/:id", handle(svc.UpdateAppointment, fromBody|fromPath, http.StatusOK))
	apt.POST("/:id/cancel", handle(svc.CancelAppointment, fromBody|fromPath, http.StatusOK))
	apt.POST("/:id/feedback", handle(svc.SubmitFeedback, fromBody|fromPath, http.StatusOK))
	apt.POST("/:id/send-reminder", handle(svc.SendReminder, fromBody|fromPath, http.StatusOK))

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		// credentials cannot be combined with a wildcard origin
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
