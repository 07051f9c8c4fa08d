package models

const (
	// DefaultWarningDays порог "скоро истекает" для бейджей и уведомлений
	DefaultWarningDays = 7

	// DefaultLookAheadDays окно выборки истекающих позиций
	DefaultLookAheadDays = 30

	// ReminderHour час, в который отправляются напоминания
	ReminderHour = 9

	// DefaultReminderLeadDays за сколько дней до истечения напоминать
	DefaultReminderLeadDays = 3

	// DefaultKitCheckIntervalDays период напоминания о проверке набора
	DefaultKitCheckIntervalDays = 30

	// DefaultRedisTTL время жизни записи о запланированном уведомлении
	DefaultRedisTTL = 90 * 24 * 60 * 60 // 90 дней в секундах

	// RateLimitRPS запросов в секунду на ключ API по умолчанию
	RateLimitRPS = 10

	// RateLimitBurst всплеск запросов на ключ API по умолчанию
	RateLimitBurst = 20
)
