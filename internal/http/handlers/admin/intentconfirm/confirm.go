// Package intentconfirm реализует админский HTTP-обработчик ручного
// завершения платёжного намерения. Это путь подтверждения канала
// generated_link: у него нет ни webhook, ни цели опроса, терминальный
// статус вносит оператор после сверки с выпиской.
package intentconfirm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/response"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/intent"
)

// Handler управляет HTTP-запросами на ручное завершение намерений.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики платёжных намерений
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики применения статуса.
type Service interface {
	ApplyProviderStatus(ctx context.Context, id, providerStatus string) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Request — исход оплаты, внесённый оператором.
type Request struct {
	Status string `json:"status" validate:"required,oneof=confirmed rejected cancelled"`
}

// ServeHTTP godoc
// @Summary Завершить платёжное намерение вручную
// @Description Применяет внесённый оператором исход оплаты. Используется для канала generated_link.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID платёжного намерения"
// @Param request body Request true "Исход оплаты"
// @Success 200 {object} map[string]any "Итоговый статус намерения"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 404 {object} response.ErrorResponse "Намерение не найдено"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при завершении"
// @Router /admin/intents/{id}/confirm [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.intentconfirm"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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

	id := chi.URLParam(r, "id")
	status, err := h.service.ApplyProviderStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, intent.ErrIntentNotFound) {
			log.Info("intent not found", slog.String("intent_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment intent not found"))
			return
		}
		log.Error("failed to apply manual status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not apply status"))
		return
	}

	log.Info("intent finished manually",
		slog.String("intent_id", id),
		slog.String("status", status))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"intent_id": id,
		"status":    status,
	}))
}
