package auth

import (
	"context"

	"github.com/fieldreach/goalsync-lambda/internal/config"
	"github.com/sirupsen/logrus"
)

// AuditLogger returns the audit logger tagged with the calling user
// when the request carries claims, so destructive skips and refusals
// can be traced back to who triggered them.
func AuditLogger(ctx context.Context) logrus.FieldLogger {
	log := config.AuditLogger
	if claims, err := GetUserClaimsFromContext(ctx); err == nil {
		log = log.WithField("user_id", claims.UserID)
	}
	return log
}
