// Package mysubscription реализует HTTP-обработчик чтения собственной подписки.
//
// Handler возвращает подписку текущей учётной записи с эффективным статусом:
// просроченная активная запись отдаётся как expired без записи в базу.
package mysubscription

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/middlewarectx"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/response"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// Handler управляет HTTP-запросами на чтение собственной подписки.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики подписок
}

// Service описывает интерфейс бизнес-логики чтения подписки.
type Service interface {
	GetForAccount(ctx context.Context, accountUID string) (*models.Subscription, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить свою подписку
// @Description Возвращает подписку текущей учётной записи с эффективным статусом.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Данные подписки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении подписки"
// @Router /subscriptions/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.my"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	accountUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || accountUID == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	sub, err := h.service.GetForAccount(r.Context(), accountUID)
	if err != nil {
		log.Error("failed to read subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read subscription"))
		return
	}

	now := time.Now().UTC()
	if sub == nil {
		render.JSON(w, r, response.OKWithData(map[string]any{
			"status": models.SubscriptionStatusNone,
		}))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"status":       sub.EffectiveStatus(now),
		"plan":         sub.Plan,
		"period_start": sub.PeriodStart,
		"period_end":   sub.PeriodEnd,
	}))
}
