// parkwatch следит за слотами парковки через API сервиса и печатает сетку при каждом изменении.
//
//	parkwatch -url http://localhost:8080 -layout 1
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/syncclient"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "адрес сервиса")
		layoutID = flag.Int64("layout", 0, "ID парковки")
		token    = flag.String("token", os.Getenv("PARKWATCH_TOKEN"), "JWT для заголовка Authorization")
		userID   = flag.Int64("user", 0, "ID пользователя для заголовка X-User-ID")
		level    = flag.String("log-level", "warn", "уровень логирования")
		maxDelay = flag.Duration("max-backoff", 30*time.Second, "максимальная задержка переподключения")
	)
	flag.Parse()

	if *layoutID <= 0 {
		fmt.Fprintln(os.Stderr, "parkwatch: -layout is required")
		os.Exit(2)
	}

	log := logger.NewWithWriter(os.Stderr, *level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []syncclient.HTTPOption
	if *token != "" {
		opts = append(opts, syncclient.WithBearerToken(*token))
	}
	if *userID > 0 {
		opts = append(opts, syncclient.WithUserID(*userID))
	}
	source := syncclient.NewHTTPSource(*baseURL, 10*time.Second, opts...)

	client := syncclient.NewClient(source, *layoutID,
		syncclient.Config{BaseDelay: 500 * time.Millisecond, MaxDelay: *maxDelay},
		log,
		syncclient.OnSnapshot(func(m *syncclient.Mirror) {
			render(os.Stdout, m, "snapshot")
		}),
		syncclient.OnEvent(func(m *syncclient.Mirror, e domain.SlotChangeEvent) {
			render(os.Stdout, m, fmt.Sprintf("slot %d -> %s (v%d)", e.SlotID, e.Status, e.Version))
		}),
	)

	if err := client.Run(ctx); err != nil {
		if errors.Is(err, syncclient.ErrLayoutNotFound) {
			fmt.Fprintf(os.Stderr, "parkwatch: layout %d not found\n", *layoutID)
		} else {
			fmt.Fprintf(os.Stderr, "parkwatch: %v\n", err)
		}
		os.Exit(1)
	}
}

// render печатает сетку: [B-1 ] свободно, [B-2*] занято
func render(w io.Writer, m *syncclient.Mirror, reason string) {
	available, occupied := m.Counts()
	fmt.Fprintf(w, "\n%s  layout=%d  available=%d occupied=%d  (%s)\n",
		time.Now().Format(time.TimeOnly), m.LayoutID(), available, occupied, reason)

	var (
		line        strings.Builder
		currentType string
		inRow       int
	)
	flush := func() {
		if line.Len() > 0 {
			fmt.Fprintln(w, line.String())
			line.Reset()
		}
		inRow = 0
	}

	for _, s := range m.Slots() {
		if s.VehicleType != currentType {
			flush()
			currentType = s.VehicleType
			fmt.Fprintf(w, "%s:\n", currentType)
		}

		mark := " "
		if s.IsOccupied() {
			mark = "*"
		}
		fmt.Fprintf(&line, "[%-6s%s]", s.Label, mark)

		inRow++
		if inRow == 10 {
			flush()
		}
	}
	flush()
}
