package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/infra/database"
	"github.com/mastry/crm-backend/internal/infra/http/handlers"
	"github.com/mastry/crm-backend/internal/infra/http/middleware"
	"github.com/mastry/crm-backend/internal/infra/mail"
	"github.com/mastry/crm-backend/internal/infra/queue"
	"github.com/mastry/crm-backend/internal/infra/webhook"
	"github.com/mastry/crm-backend/internal/infra/whatsapp"
	"github.com/mastry/crm-backend/internal/usecase"
)

type repos struct {
	leads      entity.LeadRepository
	users      entity.UserRepository
	rotation   entity.RotationRepository
	activities entity.ActivityRepository
	tags       entity.TagRepository
	webhooks   entity.WebhookRepository
	templates  entity.TemplateRepository
	snapshots  usecase.SnapshotStore
}

func main() {
	godotenv.Load()
	ctx := context.Background()

	var (
		r        repos
		sqlDB    *sql.DB
		amqpConn *amqp.Connection
	)

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		conn, err := database.NewDBConnection(dsn)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer conn.Close()

		if err := database.Migrate(ctx, conn); err != nil {
			log.Fatalf("migration failed: %v", err)
		}

		sqlDB = conn
		r = repos{
			leads:      &database.LeadRepository{DB: conn},
			users:      &database.UserRepository{DB: conn},
			rotation:   &database.RotationRepository{DB: conn},
			activities: &database.ActivityRepository{DB: conn},
			tags:       &database.TagRepository{DB: conn},
			webhooks:   &database.WebhookRepository{DB: conn},
			templates:  &database.TemplateRepository{DB: conn},
			snapshots:  &database.SnapshotStore{DB: conn},
		}
	} else {
		log.Println("DATABASE_URL not set, using in-memory store")
		store := database.NewMemoryStore()
		r = repos{
			leads:      store.Leads(),
			users:      store.Users(),
			rotation:   store.Rotation(),
			activities: store.Activities(),
			tags:       store.Tags(),
			webhooks:   store.Webhooks(),
			templates:  store.Templates(),
			snapshots:  store,
		}
	}

	var producer usecase.EventPublisher
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		mq, err := queue.NewRabbitMQ(url)
		if err != nil {
			log.Fatalf("rabbitmq connection failed: %v", err)
		}
		defer mq.Close()
		producer = queue.NewProducer(mq.Ch)
		amqpConn = mq.Conn
	}

	healthHandler := handlers.NewHealthHandler(sqlDB, amqpConn)

	activities := usecase.NewActivityLog(r.activities, r.leads)
	rotator := usecase.NewRotator(r.rotation)

	sender := buildSender()
	deliverer := buildDeliverer()

	dispatcher := usecase.NewAutomationDispatcher(r.leads, r.webhooks, activities, sender, deliverer, producer)
	leadService := usecase.NewLeadService(r.leads, activities, rotator, dispatcher)
	tagService := usecase.NewTagService(r.leads, r.tags, activities)
	userService := usecase.NewUserService(r.users, rotator)
	templateService := usecase.NewTemplateService(r.templates, r.users)
	backupService := usecase.NewBackupService(r.snapshots, r.leads, r.users)

	seedSuperAdmin(ctx, userService, r.users)

	leadHandler := handlers.NewLeadHandler(leadService, activities)
	tagHandler := handlers.NewTagHandler(tagService)
	userHandler := handlers.NewUserHandler(userService)
	automationHandler := handlers.NewAutomationHandler(dispatcher, templateService, leadService, r.webhooks)
	systemHandler := handlers.NewSystemHandler(backupService)

	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(middleware.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-User-ID"},
	}))

	router.Get("/health", healthHandler.Handle)
	router.Handle("/metrics", promhttp.Handler())

	router.Post("/capture", leadHandler.Capture)
	router.Post("/bookings/call", leadHandler.BookingCall)
	router.Get("/call-logs", leadHandler.CallLogs)

	router.Route("/leads", func(rt chi.Router) {
		rt.Get("/", leadHandler.List)
		rt.Post("/", leadHandler.Create)
		rt.Get("/check-duplicate", leadHandler.CheckDuplicate)
		rt.Post("/bulk/update", leadHandler.BulkUpdate)
		rt.Post("/bulk/tags/add", leadHandler.BulkAddTags)
		rt.Post("/bulk/tags/remove", leadHandler.BulkRemoveTags)
		rt.Post("/bulk/assign", leadHandler.BulkReassign)
		rt.Post("/bulk/delete", leadHandler.BulkDelete)
		rt.Get("/{id}", leadHandler.Get)
		rt.Patch("/{id}", leadHandler.Update)
		rt.Delete("/{id}", leadHandler.Delete)
		rt.Post("/{id}/merge", leadHandler.Merge)
		rt.Post("/{id}/restore", leadHandler.Restore)
		rt.Get("/{id}/activities", leadHandler.ListActivities)
	})

	router.Route("/trash", func(rt chi.Router) {
		rt.Get("/", leadHandler.ListTrash)
		rt.Delete("/", leadHandler.EmptyTrash)
		rt.Delete("/{id}", leadHandler.Purge)
	})

	router.Route("/tags", func(rt chi.Router) {
		rt.Get("/", tagHandler.List)
		rt.Post("/", tagHandler.Create)
		rt.Post("/rename", tagHandler.Rename)
		rt.Post("/merge", tagHandler.Merge)
		rt.Post("/delete", tagHandler.Delete)
	})

	router.Route("/users", func(rt chi.Router) {
		rt.Get("/", userHandler.List)
		rt.Post("/", userHandler.Invite)
		rt.Delete("/{id}", userHandler.Delete)
		rt.Post("/{id}/toggle", userHandler.ToggleActive)
	})

	router.Route("/automations", func(rt chi.Router) {
		rt.Post("/trigger", automationHandler.Trigger)
		rt.Post("/payment-link", automationHandler.PaymentLink)
		rt.Get("/webhooks", automationHandler.ListWebhooks)
		rt.Post("/webhooks", automationHandler.SaveWebhook)
		rt.Delete("/webhooks/{id}", automationHandler.DeleteWebhook)
		rt.Post("/webhooks/test", automationHandler.TestWebhook)
		rt.Get("/templates/email", automationHandler.ListEmailTemplates)
		rt.Post("/templates/email", automationHandler.SaveEmailTemplate)
		rt.Get("/templates/whatsapp", automationHandler.ListWhatsAppTemplates)
		rt.Post("/templates/whatsapp", automationHandler.SaveWhatsAppTemplate)
		rt.Delete("/templates/whatsapp/{id}", automationHandler.DeleteWhatsAppTemplate)
	})

	router.Route("/system", func(rt chi.Router) {
		rt.Get("/backup", systemHandler.ExportBackup)
		rt.Post("/restore", systemHandler.RestoreBackup)
		rt.Get("/metrics", systemHandler.Metrics)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("CRM backend listening on :%s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}

// buildSender prefers real providers when SMTP is configured, falling back
// to the failure-injecting simulator for local work.
func buildSender() usecase.ChannelSender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return usecase.NewSimulatedDelivery(time.Now().UnixNano())
	}

	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	emailSender := mail.NewEmailSender(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASS"), os.Getenv("SMTP_FROM"))

	var wa usecase.WhatsAppService
	if token := os.Getenv("WHATSAPP_TOKEN"); token != "" {
		wa = whatsapp.NewClient(token, os.Getenv("WHATSAPP_API_URL"), os.Getenv("WHATSAPP_PHONE_ID"))
	}

	return &usecase.ProviderSender{Email: emailSender, WhatsApp: wa}
}

// buildDeliverer posts to subscriber URLs for real when enabled, simulated
// otherwise. Both paths feed the delivery counter.
func buildDeliverer() usecase.WebhookDeliverer {
	var inner usecase.WebhookDeliverer
	if os.Getenv("WEBHOOK_DELIVERY") == "live" {
		inner = webhook.NewHTTPDeliverer()
	} else {
		inner = usecase.NewSimulatedDelivery(time.Now().UnixNano())
	}
	return meteredDeliverer{inner}
}

type meteredDeliverer struct {
	inner usecase.WebhookDeliverer
}

func (m meteredDeliverer) Deliver(ctx context.Context, cfg *entity.WebhookConfig, event entity.AutomationEvent, lead *entity.Lead) usecase.WebhookResult {
	res := m.inner.Deliver(ctx, cfg, event, lead)
	if res.OK {
		middleware.RecordWebhookDelivery("ok")
	} else {
		middleware.RecordWebhookDelivery("failed")
	}
	return res
}

// seedSuperAdmin guarantees at least one active superadmin so the roster
// guard has something to protect on a fresh install.
func seedSuperAdmin(ctx context.Context, users *usecase.UserService, repo entity.UserRepository) {
	existing, err := repo.List(ctx)
	if err != nil || len(existing) > 0 {
		return
	}
	if _, err := users.Invite(ctx, "Admin", "admin@example.com", entity.RoleSuperAdmin); err != nil {
		log.Printf("superadmin seed failed: %v", err)
	}
}
