package handler

import (
	"log/slog"
	"net/http"

	"progress-hub/internal/domain"
	"progress-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ProgressHandler serves the watch progress API.
type ProgressHandler struct {
	uc     *usecase.Progress
	logger *slog.Logger
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(uc *usecase.Progress, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{uc: uc, logger: logger}
}

// Register mounts the progress routes on g, which must already require
// an authenticated identity.
func (h *ProgressHandler) Register(g *echo.Group) {
	g.GET("/video/:video_id", h.Get)
	g.POST("/video/:video_id", h.Save)
	g.DELETE("/video/:video_id", h.Delete)
	g.DELETE("/videos", h.DeleteAll)
}

type progressResponse struct {
	Time    float64 `json:"time"`
	VideoID string  `json:"video_id"`
}

type saveProgressRequest struct {
	VideoID string   `param:"video_id" json:"-" validate:"videoid"`
	Time    *float64 `json:"time" validate:"required,gte=0"`
}

// Get returns progress for one or more comma separated video ids.
func (h *ProgressHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	owner, err := ownerOf(c)
	if err != nil {
		return err
	}

	progress, err := h.uc.Get(ctx, owner, c.Param("video_id"))
	if err != nil {
		return h.fail(c, "get progress", err)
	}

	resp := make([]progressResponse, 0, len(progress))
	for _, p := range progress {
		resp = append(resp, progressResponse{Time: p.Time, VideoID: p.VideoID})
	}
	return c.JSON(http.StatusOK, resp)
}

// Save stores the playback position of a video.
func (h *ProgressHandler) Save(c echo.Context) error {
	ctx := c.Request().Context()
	owner, err := ownerOf(c)
	if err != nil {
		return err
	}

	var req saveProgressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return mapDomainError(err)
	}

	if err := h.uc.Save(ctx, owner, req.VideoID, *req.Time); err != nil {
		return h.fail(c, "save progress", err)
	}
	return c.NoContent(http.StatusCreated)
}

// Delete removes the progress of one video.
func (h *ProgressHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	owner, err := ownerOf(c)
	if err != nil {
		return err
	}

	if err := h.uc.Delete(ctx, owner, c.Param("video_id")); err != nil {
		return h.fail(c, "delete progress", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll removes all progress of the caller.
func (h *ProgressHandler) DeleteAll(c echo.Context) error {
	ctx := c.Request().Context()
	owner, err := ownerOf(c)
	if err != nil {
		return err
	}

	if err := h.uc.DeleteAll(ctx, owner); err != nil {
		return h.fail(c, "delete all progress", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProgressHandler) fail(c echo.Context, op string, err error) error {
	httpErr := mapDomainError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request().Context(), op+" failed", "error", err)
	}
	return httpErr
}

func ownerOf(c echo.Context) (domain.Identity, error) {
	id, ok := domain.IdentityFromContext(c.Request().Context())
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthorized.Error())
	}
	return id, nil
}
