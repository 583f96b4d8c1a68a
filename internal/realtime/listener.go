package realtime

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// Listener holds a dedicated connection subscribed to Channel. LISTEN
// state is per connection, so it cannot borrow from the pool.
type Listener struct {
	dsn    string
	logger *logrus.Logger
}

func NewListener(dsn string, logger *logrus.Logger) *Listener {
	return &Listener{dsn: dsn, logger: logger}
}

// Listen blocks until ctx is cancelled or the connection fails. ready is
// called once the LISTEN is in place.
func (l *Listener) Listen(ctx context.Context, ready func(), handle func(*ChangeEvent)) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("listener connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	ready()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		ev, err := ParseChange(n.Payload)
		if err != nil {
			l.logger.WithError(err).WithField("payload", n.Payload).Warn("Ignoring malformed change notification")
			continue
		}
		handle(ev)
	}
}
