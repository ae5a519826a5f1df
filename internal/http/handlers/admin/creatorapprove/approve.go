// Package creatorapprove реализует админский HTTP-обработчик одобрения автора.
package creatorapprove

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/response"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// Handler управляет HTTP-запросами на одобрение авторов.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики выручки и одобрения
}

// Service описывает интерфейс бизнес-логики одобрения автора.
type Service interface {
	ApproveCreator(ctx context.Context, creatorUID string, approvedAt time.Time) (*models.CreatorRevenueWindow, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Одобрить автора
// @Description Назначает учётной записи роль creator и фиксирует окно льготной выручки.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "UID учётной записи"
// @Success 200 {object} map[string]any "Окно выручки автора"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль admin"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при одобрении"
// @Router /admin/creators/{uid}/approve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.creatorapprove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")
	window, err := h.service.ApproveCreator(r.Context(), uid, time.Time{})
	if err != nil {
		log.Error("failed to approve creator", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not approve creator"))
		return
	}

	log.Info("creator approved", slog.String("creator_uid", uid))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"creator_uid":               window.CreatorUID,
		"first_approved_publish_at": window.FirstApprovedPublishAt,
		"promotional_share_ends_at": window.PromotionalShareEndsAt,
	}))
}
