package syncclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
)

// Типы SSE событий потока изменений
const (
	EventTypeSlot   = "slot"
	EventTypeResync = "resync"
)

// defaultIdleTimeout три интервала heartbeat сервера
const defaultIdleTimeout = 45 * time.Second

// HTTPSource удаленный источник: REST снимок и SSE поток
type HTTPSource struct {
	baseURL     string
	token       string
	userID      int64
	httpClient  *http.Client
	streamHTTP  *http.Client
	bufferSize  int
	idleTimeout time.Duration
}

// HTTPOption настройка HTTPSource
type HTTPOption func(*HTTPSource)

// WithBearerToken передает JWT в заголовке Authorization
func WithBearerToken(token string) HTTPOption {
	return func(s *HTTPSource) { s.token = token }
}

// WithUserID передает идентификатор в заголовке X-User-ID
func WithUserID(id int64) HTTPOption {
	return func(s *HTTPSource) { s.userID = id }
}

// WithIdleTimeout задает, сколько поток может молчать, прежде чем соединение считается потерянным
func WithIdleTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// WithHTTPClient заменяет клиент для снимков и потока
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.httpClient = c
		s.streamHTTP = c
	}
}

// NewHTTPSource создает удаленный источник. baseURL без суффикса /api/v1.
func NewHTTPSource(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		// у потока нет общего таймаута, он живет до отмены контекста
		streamHTTP:  &http.Client{},
		bufferSize:  64,
		idleTimeout: defaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot получает слоты парковки
func (s *HTTPSource) Snapshot(ctx context.Context, layoutID int64) ([]*domain.Slot, error) {
	url := fmt.Sprintf("%s/api/v1/layouts/%d/slots", s.baseURL, layoutID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var body models.SlotListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	out := make([]*domain.Slot, 0, len(body.Slots))
	for _, sr := range body.Slots {
		out = append(out, sr.ToDomainSlot())
	}
	return out, nil
}

// Subscribe открывает SSE поток. Возвращается после того, как сервер зарегистрировал подписку.
func (s *HTTPSource) Subscribe(ctx context.Context, layoutID int64) (Stream, error) {
	url := fmt.Sprintf("%s/api/v1/layouts/%d/events", s.baseURL, layoutID)

	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	s.authorize(req)

	resp, err := s.streamHTTP.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	st := &sseStream{
		events: make(chan domain.SlotChangeEvent, s.bufferSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go st.read(ctx, resp.Body, s.idleTimeout)

	return st, nil
}

func (s *HTTPSource) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if s.userID > 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(s.userID, 10))
	}
}

func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrLayoutNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// sseStream поток событий поверх text/event-stream
type sseStream struct {
	events chan domain.SlotChangeEvent
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (st *sseStream) Events() <-chan domain.SlotChangeEvent {
	return st.events
}

func (st *sseStream) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.err
}

func (st *sseStream) Close() {
	st.cancel()
	<-st.done
}

func (st *sseStream) fail(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.err == nil {
		st.err = err
	}
}

func (st *sseStream) read(ctx context.Context, body io.ReadCloser, idle time.Duration) {
	defer close(st.done)
	defer close(st.events)
	defer body.Close()

	// Полуоткрытое соединение не возвращает ошибку чтения: обрываем его по таймеру,
	// который сбрасывается любыми данными, включая heartbeat
	timer := time.AfterFunc(idle, func() {
		st.fail(ErrStreamIdle)
		st.cancel()
	})
	defer timer.Stop()

	err := parseSSE(idleReader{r: body, timer: timer, idle: idle}, func(msg sseMessage) error {
		switch msg.event {
		case EventTypeResync:
			return ErrResync
		case EventTypeSlot, "":
			var event domain.SlotChangeEvent
			if err := json.Unmarshal([]byte(msg.data), &event); err != nil {
				return fmt.Errorf("%w: %v", ErrDecode, err)
			}
			select {
			case st.events <- event:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			// неизвестные типы пропускаем
			return nil
		}
	})

	switch {
	case ctx.Err() != nil:
		st.fail(ctx.Err())
	case err != nil:
		st.fail(err)
	default:
		st.fail(ErrStreamClosed)
	}
}

// idleReader сбрасывает таймер простоя при каждом чтении данных
type idleReader struct {
	r     io.Reader
	timer *time.Timer
	idle  time.Duration
}

func (ir idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.idle)
	}
	return n, err
}

// sseMessage одно SSE сообщение
type sseMessage struct {
	id    string
	event string
	data  string
}

// parseSSE читает сообщения text/event-stream и передает их в handle.
// Комментарии (строки с ':') служат heartbeat'ом и пропускаются.
func parseSSE(r io.Reader, handle func(sseMessage) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var (
		msg  sseMessage
		data []string
	)

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if len(data) > 0 || msg.event != "" {
				msg.data = strings.Join(data, "\n")
				if err := handle(msg); err != nil {
					return err
				}
			}
			msg = sseMessage{}
			data = data[:0]
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "id":
			msg.id = value
		case "event":
			msg.event = value
		case "data":
			data = append(data, value)
		}
	}

	return scanner.Err()
}
