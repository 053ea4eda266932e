package http

import (
	"github.com/labstack/echo/v4"
	infra "github.com/pot-code/learnforge-gateway/internal/infrastructure"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learnforge-gateway/internal/progress"
)

type NotifyHandler struct {
	hub      *infra.Websocket
	notifier *Notifier
	registry *progress.Registry
	jwtUtil  *auth.JWTUtil
}

func NewNotifyHandler(hub *infra.Websocket, notifier *Notifier, registry *progress.Registry, JWTUtil *auth.JWTUtil) *NotifyHandler {
	return &NotifyHandler{hub, notifier, registry, JWTUtil}
}

// HandleNotify subscribe to alerts and summary pushes, the cached summary is sent right away
func (nh *NotifyHandler) HandleNotify(c echo.Context) error {
	id := learnerID(c, nh.jwtUtil)
	svc := nh.registry.Get(c.Request().Context(), id)
	if err := nh.hub.Subscribe(c, id); err != nil {
		return err
	}
	if summary := svc.Summary(); summary != nil {
		nh.notifier.PushSummary(id, summary)
	}
	return nil
}
