package workout

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/trakkr/handler"
	"github.com/dmitrymomot/trakkr/pkg/logger"
	"github.com/dmitrymomot/trakkr/svc/workout"
)

// SnapshotEvent is the type of the first frame of every event stream.
const SnapshotEvent = "snapshot"

const writeWait = 10 * time.Second

// stream sends the current session, then every SessionEvent of the user,
// as JSON text frames until the client goes away.
func (a *api) stream() http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		userID := UserID(ctx)
		opts := []handler.WebSocketOption{
			handler.WithWSErrorHandler(func(ctx context.Context, err error) {
				a.logger.DebugContext(ctx, "session event stream closed",
					logger.UserID(userID), logger.Error(err))
			}),
		}
		if a.checkOrigin != nil {
			opts = append(opts, handler.WithWSOriginCheck(a.checkOrigin))
		}
		return handler.WebSocket(func(ctx context.Context, conn *websocket.Conn) error {
			return a.serveEvents(ctx, conn, userID)
		}, opts...)
	})
}

func (a *api) serveEvents(ctx context.Context, conn *websocket.Conn, userID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := a.events.Subscribe(ctx, userID)
	if err != nil {
		return err
	}
	defer sub.Close()

	// subscribe before the snapshot so no change falls in between
	s, _, err := a.svc.GetCurrent(ctx, userID)
	if err != nil {
		return err
	}
	snapshot := workout.SessionEvent{Type: SnapshotEvent, UserID: userID, Session: s, At: time.Now().UnixMilli()}
	if s != nil {
		snapshot.WorkoutLogID = s.WorkoutLogID
	}
	if err := writeJSON(conn, snapshot); err != nil {
		return err
	}

	// the read loop only notices the client closing
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(a.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Receive():
			if !ok {
				return nil
			}
			if err := writeJSON(conn, msg.Data); err != nil {
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
