package syncclient

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrLayoutNotFound возвращается, когда парковка не существует. Повтор не поможет.
	ErrLayoutNotFound = fmt.Errorf("syncclient: %w", domain.ErrLayoutNotFound)

	// ErrResync возвращается, когда сервер отключил отстающего подписчика
	ErrResync = errors.New("syncclient: server requested resynchronization")

	// ErrStreamClosed возвращается, когда поток событий закрыт сервером
	ErrStreamClosed = errors.New("syncclient: event stream closed")

	// ErrStreamIdle возвращается, когда поток молчит дольше допустимого (нет даже heartbeat)
	ErrStreamIdle = errors.New("syncclient: event stream idle")

	// ErrUnexpectedStatus возвращается при неожиданном HTTP статусе
	ErrUnexpectedStatus = errors.New("syncclient: unexpected response status")

	// ErrDecode возвращается при некорректном ответе сервера
	ErrDecode = errors.New("syncclient: failed to decode response")

	// errSessionEnded сессия получила снимок, а затем поток закончился
	errSessionEnded = errors.New("syncclient: session ended")
)
