package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/response"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/metrics"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/access"
)

// AccountProvider загружает учётную запись для проверки доступа.
type AccountProvider interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
}

// SubscriptionProvider загружает подписку учётной записи для проверки доступа.
type SubscriptionProvider interface {
	GetForAccount(ctx context.Context, accountUID string) (*models.Subscription, error)
}

// RequireAccess возвращает HTTP middleware, пропускающий запрос только при
// решении allow от вычислителя доступа. Решение redirect отвечает 401 с
// адресом перенаправления в теле, deny — 403 с машиночитаемой причиной.
// Редирект здесь описательный: API-клиент и фронтенд сами решают, как
// его выполнить.
func RequireAccess(log *slog.Logger, evaluator *access.Evaluator, accounts AccountProvider, subs SubscriptionProvider, resource models.Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAccess"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("path", resource.Path),
			)

			var account *models.Account
			var sub *models.Subscription

			uid, ok := r.Context().Value(AccountUID).(string)
			if ok && uid != "" {
				var err error
				account, err = accounts.GetAccount(r.Context(), uid)
				if err != nil {
					log.Error("failed to load account", sl.Err(err))
					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, response.Error("internal error"))
					return
				}
				sub, err = subs.GetForAccount(r.Context(), uid)
				if err != nil {
					log.Error("failed to load subscription", sl.Err(err))
					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, response.Error("internal error"))
					return
				}
			}

			decision := evaluator.Evaluate(account, sub, resource, time.Now().UTC())
			metrics.AccessDecisions.WithLabelValues(string(decision.Effect), decision.Reason).Inc()

			switch decision.Effect {
			case access.EffectAllow:
				next.ServeHTTP(w, r)
			case access.EffectRedirect:
				log.Info("access redirected", slog.String("target", decision.Target))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.OKWithData(decision))
			default:
				log.Info("access denied", slog.String("reason", decision.Reason))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Response{
					Status: response.StatusError,
					Error:  decision.Reason,
					Data:   decision,
				})
			}
		})
	}
}
