package feed

import (
	"errors"
	"io"

	"github.com/shuvam-shrestha/famnotify/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler exposes the merge engine over HTTP: public visitor routes for the
// three write operations and gated family routes for the merged read model.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

type cookingListRequest struct {
	Items []string `json:"items" binding:"required,min=1"`
}

type snapshotRequest struct {
	ImageURL   string `json:"imageUrl" binding:"required"`
	Caption    string `json:"caption"`
	DataAIHint string `json:"dataAiHint"`
}

type feedResponse struct {
	Notifications          []NotificationItem `json:"notifications"`
	UnreadCount            int                `json:"unreadCount"`
	IsLoadingNotifications bool               `json:"isLoadingNotifications"`
}

// RegisterRoutes sets up visitor routes on the base group and family routes
// behind the gate middleware.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, familyGateMW gin.HandlerFunc) {
	router.POST("/doorbell", h.ringDoorbell)
	router.POST("/cooking-list", h.submitCookingList)
	router.POST("/snapshots", h.postSnapshot)

	family := router.Group("/notifications", familyGateMW)
	family.GET("", h.getNotifications)
	family.GET("/unread-count", h.getUnreadCount)
	family.POST("/:notification_id/mark-read", h.markNotificationAsRead)
	family.GET("/stream", h.streamNotifications)
}

func (h *Handler) ringDoorbell(c *gin.Context) {
	if err := h.engine.AddDoorbellAlert(c.Request.Context()); err != nil {
		common.RespondWithError(c, mapFeedError(err))
		return
	}
	common.RespondAccepted(c, "Family notified.", nil)
}

func (h *Handler) submitCookingList(c *gin.Context) {
	var req cookingListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	if err := h.engine.AddCookingList(c.Request.Context(), req.Items); err != nil {
		common.RespondWithError(c, mapFeedError(err))
		return
	}
	common.RespondAccepted(c, "Cooking wishlist submitted.", nil)
}

func (h *Handler) postSnapshot(c *gin.Context) {
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	item := h.engine.AddSnapshotAlert(Snapshot{
		ImageURL:   req.ImageURL,
		Caption:    req.Caption,
		DataAIHint: req.DataAIHint,
	})
	common.RespondCreated(c, "Snapshot posted.", item)
}

func (h *Handler) getNotifications(c *gin.Context) {
	common.RespondOK(c, "Notifications retrieved successfully.", feedResponse{
		Notifications:          h.engine.Notifications(),
		UnreadCount:            h.engine.UnreadCount(),
		IsLoadingNotifications: h.engine.IsLoading(),
	})
}

func (h *Handler) getUnreadCount(c *gin.Context) {
	common.RespondOK(c, "Unread count retrieved successfully.", gin.H{
		"unreadCount": h.engine.UnreadCount(),
	})
}

func (h *Handler) markNotificationAsRead(c *gin.Context) {
	id := c.Param("notification_id")
	if id == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Notification ID is required."))
		return
	}

	if err := h.engine.MarkAsRead(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, mapFeedError(err))
		return
	}
	common.RespondOK(c, "Notification marked as read successfully.", nil)
}

// streamNotifications pushes the merged feed over Server-Sent Events: one
// event with the current state on connect, then one per engine
// recomputation. This is how a dashboard stays live without reloading.
func (h *Handler) streamNotifications(c *gin.Context) {
	updates, unsubscribe := h.engine.Subscribe()
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("feed", feedResponse{
		Notifications:          h.engine.Notifications(),
		UnreadCount:            h.engine.UnreadCount(),
		IsLoadingNotifications: h.engine.IsLoading(),
	})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case feed, ok := <-updates:
			if !ok {
				return false
			}
			unread := 0
			for _, n := range feed {
				if !n.Read {
					unread++
				}
			}
			c.SSEvent("feed", feedResponse{
				Notifications:          feed,
				UnreadCount:            unread,
				IsLoadingNotifications: h.engine.IsLoading(),
			})
			return true
		}
	})
}

// mapFeedError translates feed-level failures into the API error taxonomy.
func mapFeedError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyCookingList):
		return common.NewValidationAPIError("The cooking list has no usable entries after trimming.")
	case errors.Is(err, ErrNotFound):
		return common.ErrNotFound.WithDetails("Notification not found in either origin store.")
	default:
		var persistErr *PersistenceError
		if errors.As(err, &persistErr) {
			return common.ErrServiceUnavailable.WithDetails("The notification store rejected the operation.")
		}
		return err
	}
}
