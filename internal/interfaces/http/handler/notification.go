package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	notificationapp "github.com/ledgerly/backend/internal/application/notification"
)

// NotificationHandler handles the notification feed and the due-check trigger
type NotificationHandler struct {
	BaseHandler
	notifications *notificationapp.NotificationService
	reminders     *notificationapp.ReminderService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *notificationapp.NotificationService, reminders *notificationapp.ReminderService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, reminders: reminders}
}

// List godoc
// @ID           listNotifications
// @Summary      List notifications
// @Description  Newest first
// @Tags         notifications
// @Produce      json
// @Param        unread_only query bool   false "Only unread notifications"
// @Param        type        query string false "Notification type"
// @Param        page        query int    false "Page" default(1)
// @Param        page_size   query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]notificationapp.NotificationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var filter notificationapp.NotificationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	items, total, err := h.notifications.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, size := page(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, items, total, p, size)
}

// UnreadCount godoc
// @ID           countUnreadNotifications
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200 {object} APIResponse[CountData]
// @Security     BearerAuth
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	count, err := h.notifications.UnreadCount(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: count})
}

// MarkRead godoc
// @ID           markNotificationRead
// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Param        id path string true "Notification ID" format(uuid)
// @Success      200 {object} APIResponse[notificationapp.NotificationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "notification")
	if !ok {
		return
	}
	item, err := h.notifications.MarkRead(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// MarkAllRead godoc
// @ID           markAllNotificationsRead
// @Summary      Mark every notification read
// @Tags         notifications
// @Produce      json
// @Success      200 {object} APIResponse[CountData]
// @Security     BearerAuth
// @Router       /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	count, err := h.notifications.MarkAllRead(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: count})
}

// Delete godoc
// @ID           deleteNotification
// @Summary      Delete a notification
// @Tags         notifications
// @Param        id path string true "Notification ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "notification")
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DueCheck godoc
// @ID           runDueCheck
// @Summary      Run the due-date check for the caller's tenant
// @Description  Creates reminders for invoices due soon or overdue. Runs at most once per day unless forced.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request body DueCheckRequest false "Options"
// @Success      200 {object} APIResponse[notificationapp.DueCheckResult]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications/due-check [post]
func (h *NotificationHandler) DueCheck(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req DueCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}
	result, err := h.reminders.RunDueCheck(c.Request.Context(), notificationapp.DueCheckOptions{
		TenantID: &tenantID,
		Force:    req.Force,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
