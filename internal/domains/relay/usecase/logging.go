package usecase

import (
	"strings"
)

const queueComponentName = "relayqueue"

func (q *Queue) logInfo(operation, correlationID, message string, attrs ...any) {
	q.logger.Info(message, append(q.logBase(operation, correlationID), attrs...)...)
}

func (q *Queue) logWarn(operation, correlationID, message string, attrs ...any) {
	q.logger.Warn(message, append(q.logBase(operation, correlationID), attrs...)...)
}

func (q *Queue) logError(operation, correlationID, message string, err error, attrs ...any) {
	base := append(q.logBase(operation, correlationID), "error", err.Error())
	q.logger.Error(message, append(base, attrs...)...)
}

func (q *Queue) logBase(operation, correlationID string) []any {
	return []any{
		"component", queueComponentName,
		"operation", strings.TrimSpace(operation),
		"correlation_id", strings.TrimSpace(correlationID),
	}
}
