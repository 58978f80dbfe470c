package app

import (
	"time"

	"taskflow-backend/internal/attachments"
	"taskflow-backend/internal/auth"
	"taskflow-backend/internal/billing"
	"taskflow-backend/internal/config"
	"taskflow-backend/internal/constants"
	"taskflow-backend/internal/database"
	"taskflow-backend/internal/emails"
	"taskflow-backend/internal/health"
	"taskflow-backend/internal/invitations"
	"taskflow-backend/internal/memberships"
	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/notifications"
	"taskflow-backend/internal/onboarding"
	"taskflow-backend/internal/orgs"
	"taskflow-backend/internal/projects"
	"taskflow-backend/internal/tasks"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and routes. The
// DB and Redis handles are returned so the caller can ping and migrate before
// listening.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	// CORS (before session)
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
	}))

	// Billing webhook mounted before session and body parsing middleware:
	// signature verification needs the raw body. DB is injected after init.
	billingWebhook := &billing.WebhookHandler{WebhookSecret: cfg.BillingWebhookSecret}
	app.Post("/api/v1/billing/webhook", func(c *fiber.Ctx) error {
		return billingWebhook.HandleWebhook(c)
	})

	// Session (Redis); the client is shared with the health marker
	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	// Health (no auth)
	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		StorageURL:     cfg.StorageURL,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", healthHandlers.Dashboard)
	app.Get("/health", healthHandlers.Live)
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/errors", healthHandlers.Errors)
	app.Get("/health/reset", healthHandlers.Reset)

	if db == nil {
		// No database configured (some test setups); only health and webhook
		// signature verification are usable.
		return app, nil, rdb, nil
	}
	billingWebhook.DB = db
	healthHandlers.DB = &health.GormPinger{DB: db}

	var mail emails.Sender = emails.NoopSender{}
	if cfg.MailAPIKey != "" {
		mail = &emails.Client{APIKey: cfg.MailAPIKey, MailFrom: cfg.MailFrom}
	}

	notifSvc := &notifications.Service{DB: db}
	memberSvc := &memberships.Service{DB: db}
	invSvc := &invitations.Service{
		DB:            db,
		Mail:          mail,
		Notifier:      notifSvc,
		InviteBaseURL: cfg.InviteBaseURL,
	}
	onboardSvc := &onboarding.Service{DB: db, Invites: invSvc}
	authSvc := &auth.Service{DB: db, Onboarding: onboardSvc, Mail: mail}
	orgSvc := &orgs.Service{DB: db, Members: memberSvc, Invites: invSvc}
	projectSvc := &projects.Service{DB: db}
	taskSvc := &tasks.Service{DB: db, Members: memberSvc, Notifier: notifSvc}
	attachSvc := &attachments.Service{
		DB: db,
		Client: &attachments.HTTPStorageClient{
			BaseURL:   cfg.StorageURL,
			SecretKey: cfg.StorageSecretKey,
		},
		StorageURL: cfg.StorageURL,
	}
	billSvc := &billing.Service{
		DB:         db,
		Creator:    billing.NewCreator(cfg.BillingSecretKey),
		Onboarding: onboardSvc,
	}

	authz := func(permission string) fiber.Handler {
		return middleware.AuthorizePermission(memberSvc, permission)
	}
	loginLimiter := middleware.RateLimit(cfg.LoginRateMax, 15*time.Minute)
	inviteLimiter := middleware.RateLimit(cfg.InviteRateMax, time.Hour)

	// Auth
	authHandlers := &auth.Handlers{
		Service:    authSvc,
		UserFinder: &auth.GormUserFinder{DB: db},
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/register", loginLimiter, authHandlers.Register)
	authGroup.Post("/login", loginLimiter, authHandlers.Login)
	authGroup.Get("/me", authHandlers.Me)
	authGroup.Delete("/logout", authHandlers.Logout)

	// Onboarding
	onboardHandlers := &onboarding.Handlers{Service: onboardSvc}
	app.Get("/api/v1/onboarding/step", middleware.RequireAuth(), onboardHandlers.Step)

	// Billing (user-scoped; the webhook is mounted above)
	billHandlers := &billing.Handlers{Service: billSvc}
	app.Get("/api/v1/billing/plans", billHandlers.ListPlans)
	app.Post("/api/v1/billing/select-plan", middleware.RequireAuth(), billHandlers.SelectPlan)

	// Invitations outside an org context: public token probe + accept
	invHandlers := &invitations.Handlers{Service: invSvc, Config: sessionCfg}
	app.Post("/api/v1/invitations/check-token", invHandlers.CheckToken)
	app.Post("/api/v1/invitations/accept", middleware.RequireAuth(), invHandlers.Accept)

	// Notifications
	notifHandlers := &notifications.Handlers{Service: notifSvc}
	notifGroup := app.Group("/api/v1/notifications", middleware.RequireAuth())
	notifGroup.Get("/", notifHandlers.List)
	notifGroup.Patch("/read-all", notifHandlers.MarkAllRead)
	notifGroup.Patch("/:id/read", notifHandlers.MarkRead)

	// Organizations: creation has no org context yet, everything else is
	// org-scoped and permission-gated.
	orgHandlers := &orgs.Handlers{Service: orgSvc, Config: sessionCfg}
	app.Post("/api/v1/orgs", middleware.RequireAuth(), orgHandlers.Create)

	org := app.Group("/api/v1/orgs/:org_id", middleware.RequireAuth())
	org.Get("/", authz(constants.ViewOrg), orgHandlers.Get)
	org.Patch("/", authz(constants.UpdateOrg), orgHandlers.Update)

	// Members
	memberHandlers := &memberships.Handlers{Service: memberSvc}
	org.Get("/members", authz(constants.ViewOrg), memberHandlers.List)
	org.Patch("/members/:user_id/role", authz(constants.AssignRole), memberHandlers.UpdateRole)
	org.Delete("/members/:user_id", authz(constants.RemoveMember), memberHandlers.Remove)

	// Invitations (org-scoped)
	org.Post("/invitations", authz(constants.InviteMember), inviteLimiter, invHandlers.Send)
	org.Get("/invitations", authz(constants.InviteMember), invHandlers.ListPending)
	org.Delete("/invitations/:invite_id", authz(constants.InviteMember), invHandlers.Revoke)
	org.Post("/invitations/:invite_id/resend", authz(constants.InviteMember), inviteLimiter, invHandlers.Resend)

	// Projects
	projectHandlers := &projects.Handlers{Service: projectSvc}
	org.Post("/projects", authz(constants.ManageProjects), projectHandlers.Create)
	org.Get("/projects", authz(constants.ViewProjects), projectHandlers.List)
	org.Get("/projects/:project_id", authz(constants.ViewProjects), projectHandlers.Get)
	org.Patch("/projects/:project_id", authz(constants.ManageProjects), projectHandlers.Update)
	org.Post("/projects/:project_id/archive", authz(constants.ManageProjects), projectHandlers.Archive)

	// Tasks
	taskHandlers := &tasks.Handlers{Service: taskSvc}
	org.Post("/projects/:project_id/tasks", authz(constants.ManageTasks), taskHandlers.Create)
	org.Get("/projects/:project_id/tasks", authz(constants.ViewProjects), taskHandlers.List)
	org.Get("/tasks/:task_id", authz(constants.ViewProjects), taskHandlers.Get)
	org.Patch("/tasks/:task_id", authz(constants.ManageTasks), taskHandlers.Update)
	org.Patch("/tasks/:task_id/assignee", authz(constants.ManageTasks), taskHandlers.Assign)
	org.Delete("/tasks/:task_id", authz(constants.ManageTasks), taskHandlers.Delete)

	// Attachments
	attachHandlers := &attachments.Handlers{Service: attachSvc}
	org.Post("/tasks/:task_id/attachments/upload-url", authz(constants.UploadFiles), attachHandlers.CreateUploadURL)
	org.Post("/tasks/:task_id/attachments", authz(constants.UploadFiles), attachHandlers.Register)
	org.Get("/tasks/:task_id/attachments", authz(constants.ViewProjects), attachHandlers.List)
	org.Delete("/attachments/:attachment_id", authz(constants.UploadFiles), attachHandlers.Delete)

	// Billing summary (admin only)
	org.Get("/billing/summary", authz(constants.ManageBilling), billHandlers.OrgSummary)

	return app, db, rdb, nil
}
