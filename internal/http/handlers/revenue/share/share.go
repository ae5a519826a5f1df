// Package share реализует HTTP-обработчик чтения распределения выручки автора.
//
// Автор читает своё распределение; admin может запросить любого автора
// через query-параметр creator_uid. Параметр at позволяет пересчитать
// распределение на произвольный момент для аудита выплат.
package share

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/middlewarectx"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/response"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/revenue"
)

// Handler управляет HTTP-запросами на чтение распределения выручки.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики выручки
}

// Service описывает интерфейс бизнес-логики распределения выручки.
type Service interface {
	ShareFor(ctx context.Context, creatorUID string, at time.Time) (models.RevenueShare, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить распределение выручки
// @Description Возвращает доли автора и платформы на указанный момент времени.
// @Tags Revenue
// @Produce  json
// @Security BearerAuth
// @Param at query string false "Момент расчёта в формате RFC3339, по умолчанию сейчас"
// @Param creator_uid query string false "UID автора, доступно только admin"
// @Success 200 {object} map[string]any "Доли выручки"
// @Failure 400 {object} response.ErrorResponse "Некорректный параметр at"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Чужой автор доступен только admin"
// @Failure 404 {object} response.ErrorResponse "Окно выручки не найдено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при расчёте"
// @Router /revenue/share [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.revenue.share"
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
	role, _ := r.Context().Value(middlewarectx.Role).(string)

	creatorUID := accountUID
	if requested := r.URL.Query().Get("creator_uid"); requested != "" && requested != accountUID {
		if role != models.RoleAdmin {
			log.Info("non-admin requested foreign revenue share")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("forbidden"))
			return
		}
		creatorUID = requested
	}

	var at time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			log.Error("failed to parse at parameter", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid at parameter, expected RFC3339"))
			return
		}
		at = parsed
	}

	share, err := h.service.ShareFor(r.Context(), creatorUID, at)
	if err != nil {
		if errors.Is(err, revenue.ErrWindowNotFound) {
			log.Info("revenue window not found", slog.String("creator_uid", creatorUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("creator revenue window not found"))
			return
		}
		log.Error("failed to compute revenue share", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not compute revenue share"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"creator_uid":  creatorUID,
		"creator_pct":  share.CreatorPct,
		"platform_pct": share.PlatformPct,
	}))
}
