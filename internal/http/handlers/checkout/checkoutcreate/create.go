// Package checkoutcreate реализует HTTP-обработчик инициации оплаты.
//
// Handler принимает JSON-запрос с планом и платёжным каналом, создаёт
// платёжное намерение и checkout-сессию у шлюза и возвращает способ
// завершения оплаты (ссылку или код). Повторная инициация при живом
// намерении возвращает 409 с данными для возобновления оплаты.
package checkoutcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/middlewarectx"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/response"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/intent"
)

// Handler управляет HTTP-запросами на инициацию оплаты.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики платёжных намерений
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики платёжных намерений.
type Service interface {
	CreateCheckout(ctx context.Context, accountUID, plan, rail string) (*intent.CheckoutResult, error)
	ActiveIntent(ctx context.Context, accountUID, plan string) (*models.PaymentIntent, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Инициировать оплату подписки
// @Description Создает платёжное намерение и checkout-сессию для выбранного плана и канала.
// @Tags Checkout
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyCheckout true "План и платёжный канал"
// @Success 200 {object} map[string]any "Созданное намерение и способ оплаты"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Есть незавершённая оплата этого плана"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при инициации оплаты"
// @Router /checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCheckout
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	accountUID, ok := r.Context().Value(middlewarectx.AccountUID).(string)
	if !ok || accountUID == "" {
		log.Error("account uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.CreateCheckout(r.Context(), accountUID, req.Plan, req.Rail)
	if err != nil {
		if errors.Is(err, intent.ErrDuplicateActiveIntent) {
			h.renderActiveIntent(w, r, log, accountUID, req.Plan)
			return
		}
		log.Error("failed to create checkout", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create checkout"))
		return
	}

	log.Info("checkout created", slog.String("intent_id", result.Intent.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"intent_id":  result.Intent.ID,
		"status":     result.Intent.Status,
		"expires_at": result.Intent.ExpiresAt,
		"checkout":   result.Checkout,
	}))
}

// renderActiveIntent отвечает 409 с данными живого намерения: клиент
// возобновляет уже начатую оплату, а не создаёт параллельную.
func (h *Handler) renderActiveIntent(w http.ResponseWriter, r *http.Request, log *slog.Logger, accountUID, plan string) {
	active, err := h.service.ActiveIntent(r.Context(), accountUID, plan)
	if err != nil || active == nil {
		log.Error("failed to load active intent", sl.Err(err))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("payment already in progress"))
		return
	}

	log.Info("duplicate checkout rejected", slog.String("active_intent_id", active.ID))
	w.WriteHeader(http.StatusConflict)
	render.JSON(w, r, response.Response{
		Status: response.StatusError,
		Error:  "payment already in progress",
		Data: map[string]any{
			"intent_id":  active.ID,
			"status":     active.Status,
			"rail":       active.Rail,
			"expires_at": active.ExpiresAt,
		},
	})
}
