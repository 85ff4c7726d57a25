package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/auth"
	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	DB        Pinger
	Documents service.DocumentService
	Verifier  auth.Verifier
	Stream    NotificationStream
	// KeepAlive is the SSE comment interval; zero picks a default.
	KeepAlive time.Duration
	Location  *time.Location
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	svc := deps.Documents
	writers := middleware.RequireRoles(auth.Writers)
	auditors := middleware.RequireRoles(auth.Auditors)
	everyone := middleware.RequireRoles(auth.Everyone)

	docs := app.Group("/documents", middleware.Auth(deps.Verifier))

	docs.Get("/notifications", everyone, ListNotifications(svc))
	docs.Get("/notifications/stream", everyone, StreamNotifications(deps.Stream, deps.KeepAlive))
	docs.Delete("/notifications/:notificationId", everyone, DeleteNotification(svc))

	docs.Get("/types", everyone, GetTypes(svc))
	docs.Get("/audit", auditors, GetAuditLogs(svc))
	docs.Get("/byId/:documentId", everyone, GetDocument(svc))
	docs.Get("/", everyone, ListDocuments(svc, deps.Location))

	docs.Post("/descargar", everyone, DownloadDocument(svc))
	docs.Post("/share", everyone, ShareDocument(svc))
	docs.Post("/", writers, AddDocument(svc))

	docs.Delete("/versions/:versionId", writers, DeleteVersion(svc))
	docs.Put("/:documentId", writers, UpdateDocument(svc))
	docs.Delete("/:documentId", writers, DeleteDocument(svc))
}
