// Package checkoutstatus реализует HTTP-обработчик опроса статуса оплаты.
//
// Handler возвращает текущий статус платёжного намерения владельцу.
// Чтение неблокирующее: подтверждение доедет асинхронно, клиент опрашивает.
package checkoutstatus

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/middlewarectx"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/response"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/intent"
)

// Handler управляет HTTP-запросами на чтение статуса оплаты.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики платёжных намерений
}

// Service описывает интерфейс бизнес-логики платёжных намерений.
type Service interface {
	GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error)
	GetIntentStatus(ctx context.Context, id string) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить статус оплаты
// @Description Возвращает статус платёжного намерения. Просроченное намерение истекает при чтении.
// @Tags Checkout
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID платёжного намерения"
// @Success 200 {object} map[string]any "Статус намерения"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Намерение не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении статуса"
// @Router /checkout/{id}/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.status"
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

	id := chi.URLParam(r, "id")
	current, err := h.service.GetIntent(r.Context(), id)
	if err != nil {
		log.Error("failed to load intent", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read intent status"))
		return
	}
	// Чужое намерение неотличимо от несуществующего.
	if current == nil || current.AccountUID != accountUID {
		log.Info("intent not found", slog.String("intent_id", id))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("payment intent not found"))
		return
	}

	status, err := h.service.GetIntentStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, intent.ErrIntentNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment intent not found"))
			return
		}
		log.Error("failed to read intent status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read intent status"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"intent_id": id,
		"status":    status,
	}))
}
