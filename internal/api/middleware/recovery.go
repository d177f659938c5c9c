package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"hyperhook/internal/service"
)

// Recovery - middleware для восстановления после паники в handlers
//
// Назначение:
// Перехватывает panic в HTTP handlers и предотвращает падение всего сервера.
// Логирует сообщение и stack trace, отправляет уведомление об ошибке
// и возвращает клиенту общий HTTP 500 без деталей.
//
// Текст паники никогда не попадает в тело ответа: там могут оказаться
// внутренние пути, значения переменных и прочие детали реализации.
func Recovery(logger *zap.Logger, notifications service.NotificationServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						zap.Any("panic", err),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)

					if notifications != nil {
						notifications.NotifyError(fmt.Sprintf("unhandled panic on %s %s: %v", r.Method, r.URL.Path, err))
					}

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error":"internal server error"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
