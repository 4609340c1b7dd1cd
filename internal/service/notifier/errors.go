package notifier

import "errors"

var (
	// ErrSubscriberLagged возвращается подписке, которая не успевала читать события.
	// Клиент должен заново получить снимок слотов.
	ErrSubscriberLagged = errors.New("notifier: subscriber lagged behind, resynchronize")

	// ErrClosed возвращается после остановки рассылки
	ErrClosed = errors.New("notifier: closed")

	// ErrUnsubscribed возвращается подписке, закрытой самим клиентом
	ErrUnsubscribed = errors.New("notifier: unsubscribed")
)
