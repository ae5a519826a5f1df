// Package watch реализует HTTP-обработчик выдачи платного контента.
//
// Проверку доступа выполняет middleware RequireAccess: сюда запрос доходит
// только с решением allow. Handler отдаёт данные для запуска плеера.
package watch

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/response"
)

// Handler управляет HTTP-запросами на просмотр контента.
type Handler struct {
	log *slog.Logger // Логгер для записи информации и ошибок
}

// New создает новый Handler с переданным логгером.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Получить данные для просмотра контента
// @Description Возвращает данные для запуска плеера. Требует активной подписки.
// @Tags Content
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID контента"
// @Success 200 {object} map[string]any "Данные для плеера"
// @Failure 401 {object} response.ErrorResponse "Требуется авторизация"
// @Failure 403 {object} response.ErrorResponse "Требуется активная подписка"
// @Router /content/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.watch"
	contentID := chi.URLParam(r, "id")

	h.log.Info("content playback granted",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("content_id", contentID))

	render.JSON(w, r, response.OKWithData(map[string]any{
		"content_id": contentID,
		"stream_url": "/streams/" + contentID + "/master.m3u8",
	}))
}
