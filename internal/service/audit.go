package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

func recordAudit(ctx context.Context, recorder auditRecorder, logger *zap.Logger, actor Actor, action, resource, resourceID string, oldValues, newValues []byte) {
	if recorder == nil {
		return
	}
	var actorID *string
	if actor.ID != "" {
		actorID = &actor.ID
	}
	if err := recorder.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
