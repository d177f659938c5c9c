package models

import "time"

// Notification представляет уведомление о событии релея
//
// Уведомления эфемерны: рендерятся в текст, отправляются в Discord
// и нигде не сохраняются.
type Notification struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`     // STARTED, STOPPED, ORDER, SKIP, ERROR
	Severity  string    `json:"severity"` // info, warn, error
	Message   string    `json:"message"`
}

// Типы уведомлений
const (
	NotificationTypeStarted = "STARTED" // сервис запущен и авторизован на бирже
	NotificationTypeStopped = "STOPPED" // сервис остановлен
	NotificationTypeOrder   = "ORDER"   // ордер исполнен
	NotificationTypeSkip    = "SKIP"    // алерт обработан без сделки (нет баланса/позиции)
	NotificationTypeError   = "ERROR"   // ошибка биржи или необработанный сбой
)

// Уровни важности
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)
