package eventbus

import "errors"

var (
	// ErrConnect возвращается при ошибке подключения к RabbitMQ
	ErrConnect = errors.New("eventbus: failed to connect")

	// ErrPublish возвращается при ошибке публикации сообщения
	ErrPublish = errors.New("eventbus: failed to publish")

	// ErrClosed возвращается при публикации после закрытия
	ErrClosed = errors.New("eventbus: publisher closed")
)
