// Package xnemaplatform предоставляет маршруты для основного приложения.
package xnemaplatform

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/admin/creatorapprove"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/admin/intentconfirm"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/auth/login"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/auth/register"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/checkout/checkoutcreate"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/checkout/checkoutstatus"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/content/watch"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/health"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/payment/paymentwebhook"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/revenue/share"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/subscription/cancel"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/handlers/subscription/mysubscription"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/middlewarectx"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/access"
	authservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/auth"
	intentservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/intent"
	revenueservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/revenue"
	subservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/subscription"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/storage/repository"
)

// Services — зависимости HTTP-слоя платформы.
type Services struct {
	Auth          *authservice.AuthService
	Subscriptions *subservice.Service
	Intents       *intentservice.Service
	Revenue       *revenueservice.Service
	Accounts      *repository.Storage
	Evaluator     *access.Evaluator
	Publisher     paymentwebhook.Publisher
	WebhookSecret string
}

// Ресурсы, охраняемые вычислителем доступа. Платный контент требует
// выведенной роли subscriber вместе с эффективно активной подпиской,
// выручка доступна авторам, админские маршруты — только admin.
var (
	contentResource = models.Resource{
		Path:                       "/api/v1/content",
		RequiredRoles:              []string{models.RoleSubscriber},
		RequiresActiveSubscription: true,
	}
	revenueResource = models.Resource{
		Path:          "/api/v1/revenue",
		RequiredRoles: []string{models.RoleCreator},
	}
	adminResource = models.Resource{
		Path:          "/api/v1/admin",
		RequiredRoles: []string{models.RoleAdmin},
	}
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)

		// Callback провайдера, авторизация подписью тела
		r.Post("/payments/webhook/{rail}", paymentwebhook.New(logger, svc.Publisher, svc.WebhookSecret).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/checkout", checkoutcreate.New(logger, svc.Intents).ServeHTTP)
			r.Get("/checkout/{id}/status", checkoutstatus.New(logger, svc.Intents).ServeHTTP)
			r.Post("/subscriptions/cancel", cancel.New(logger, svc.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/me", mysubscription.New(logger, svc.Subscriptions).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAccess(logger, svc.Evaluator, svc.Accounts, svc.Subscriptions, revenueResource))
				r.Get("/revenue/share", share.New(logger, svc.Revenue).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAccess(logger, svc.Evaluator, svc.Accounts, svc.Subscriptions, adminResource))
				r.Post("/admin/creators/{uid}/approve", creatorapprove.New(logger, svc.Revenue).ServeHTTP)
				r.Post("/admin/intents/{id}/confirm", intentconfirm.New(logger, svc.Intents).ServeHTTP)
			})
		})

		// Платный контент доступен и гостю: вычислитель вернёт redirect
		// на логин вместо 401 от разбора токена.
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OptionalJWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RequireAccess(logger, svc.Evaluator, svc.Accounts, svc.Subscriptions, contentResource))
			r.Get("/content/{id}", watch.New(logger).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, svc.Accounts).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
