package pubsub

import "errors"

var (
	// ErrInvalidURL возвращается при некорректной строке подключения к Redis
	ErrInvalidURL = errors.New("pubsub: failed to parse redis url")

	// ErrNotReady возвращается, когда Redis недоступен после всех попыток подключения
	ErrNotReady = errors.New("pubsub: redis is not ready")

	// ErrPublish возвращается при ошибке публикации события
	ErrPublish = errors.New("pubsub: failed to publish event")

	// ErrSubscribe возвращается при ошибке подписки на каналы
	ErrSubscribe = errors.New("pubsub: failed to subscribe")

	// ErrReceive возвращается при потере приема событий
	ErrReceive = errors.New("pubsub: event receive loop lost")

	// ErrDecode возвращается при некорректном сообщении в канале
	ErrDecode = errors.New("pubsub: failed to decode event")
)
