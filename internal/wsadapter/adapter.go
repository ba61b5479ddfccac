// Package wsadapter implements the per-connection WebSocket protocol: it
// validates the session token presented on connect, subscribes to the
// EventBus topic keyed by that token, and translates bus events and client
// pings into the framed messages described by the transport contract. It
// holds no session state of its own beyond the live connection.
package wsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/examcore/internal/eventbus"
	"github.com/stemsi/examcore/internal/middleware"
	"github.com/stemsi/examcore/internal/sessionengine"
)

// Close codes per the connection contract.
const (
	closeTokenInvalid = 4001
	closeAuthFailed   = 4003
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins; an empty slice
// permits all origins (development mode), matching the HTTP CORS default.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Adapter upgrades and services exam WebSocket connections. Construct with
// New and register Handle on the `/ws/exam/:token` route, behind
// middleware.RequireStudentWSAuth.
type Adapter struct {
	engine   *sessionengine.Engine
	bus      *eventbus.Bus
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func New(engine *sessionengine.Engine, bus *eventbus.Bus, allowedOrigins []string, log zerolog.Logger) *Adapter {
	return &Adapter{
		engine:   engine,
		bus:      bus,
		upgrader: buildUpgrader(allowedOrigins),
		log:      log.With().Str("component", "ws_adapter").Logger(),
	}
}

// Handle upgrades the request and services the connection until it closes.
func (a *Adapter) Handle(c *gin.Context) {
	token := c.Param("token")
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	a.serve(c.Request.Context(), conn, token, claims.UserID)
}

func (a *Adapter) serve(ctx context.Context, conn *websocket.Conn, token string, studentID uuid.UUID) {
	sess, err := a.engine.ValidateToken(ctx, token, studentID)
	if err != nil {
		a.sendExpired(conn, ReasonInvalidToken)
		closeWith(conn, closeCodeForValidateErr(err))
		return
	}

	events, unsubscribe := a.bus.Subscribe(token)
	defer unsubscribe()

	progress, err := a.engine.GetProgress(ctx, sess)
	if err != nil {
		a.log.Error().Err(err).Msg("initial progress lookup failed")
		closeWith(conn, websocket.CloseInternalServerErr)
		return
	}
	if err := writeJSON(conn, connectedMessage{
		Type:                 TypeConnected,
		TimeRemainingSeconds: progress.TimeRemainingSec,
		AnsweredCount:        progress.Answered,
		TotalQuestions:       progress.Total,
	}); err != nil {
		return
	}
	resetIdleDeadline(conn)

	incoming := make(chan clientMessage)
	readErr := make(chan error, 1)
	go a.readLoop(conn, incoming, readErr)

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-readErr:
			if err != nil {
				a.log.Debug().Err(err).Str("token", token).Msg("websocket read ended")
			}
			return

		case msg, ok := <-incoming:
			if !ok {
				return
			}
			if msg.Type != TypePing {
				continue
			}
			if !a.handlePing(ctx, conn, token, studentID) {
				return
			}

		case evt, ok := <-events:
			if !ok {
				return
			}
			if !a.forwardEvent(conn, evt) {
				return
			}
			return // both session_expired and session_completed are terminal
		}
	}
}

func (a *Adapter) readLoop(conn *websocket.Conn, out chan<- clientMessage, errCh chan<- error) {
	defer close(out)
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			errCh <- err
			return
		}
		out <- msg
	}
}

// handlePing re-validates the token on every ping — the cheapest possible
// liveness probe that also doubles as continuous authorization. Returns
// false if the connection should close.
func (a *Adapter) handlePing(ctx context.Context, conn *websocket.Conn, token string, studentID uuid.UUID) bool {
	sess, err := a.engine.ValidateToken(ctx, token, studentID)
	if err != nil {
		a.sendExpired(conn, ReasonTokenExpired)
		closeWith(conn, closeCodeForValidateErr(err))
		return false
	}

	progress, err := a.engine.GetProgress(ctx, sess)
	if err != nil {
		a.log.Error().Err(err).Msg("ping progress lookup failed")
		closeWith(conn, websocket.CloseInternalServerErr)
		return false
	}

	resetIdleDeadline(conn)
	return writeJSON(conn, pongMessage{
		Type:                 TypePong,
		TimeRemainingSeconds: progress.TimeRemainingSec,
		AnsweredCount:        progress.Answered,
	}) == nil
}

// forwardEvent re-marshals a bus event's payload with its "type" field set,
// writes it, and reports whether the write succeeded.
func (a *Adapter) forwardEvent(conn *websocket.Conn, evt eventbus.Event) bool {
	raw, err := json.Marshal(evt.Data)
	if err != nil {
		a.log.Error().Err(err).Msg("marshal bus event payload failed")
		return false
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		a.log.Error().Err(err).Msg("unmarshal bus event payload failed")
		return false
	}
	fields["type"] = evt.Kind

	if err := writeJSON(conn, fields); err != nil {
		return false
	}

	code := websocket.CloseNormalClosure
	if evt.Kind == "session_expired" {
		code = closeTokenInvalid
	}
	closeWith(conn, code)
	return true
}

func (a *Adapter) sendExpired(conn *websocket.Conn, reason ExpiryReason) {
	msg := "Your session token is no longer valid."
	if reason == ReasonInvalidToken {
		msg = "Authentication failed for this connection."
	}
	_ = writeJSON(conn, expiredMessage{Type: TypeSessionExpired, Message: msg, Reason: reason})
}

// closeCodeForValidateErr picks the close code ValidateToken's failure
// warrants: 4003 for a token that belongs to a different student, 4001 for
// every other reason (unknown, invalidated, or terminal session).
func closeCodeForValidateErr(err error) int {
	if errors.Is(err, sessionengine.ErrTokenForbidden) {
		return closeAuthFailed
	}
	return closeTokenInvalid
}

func closeWith(conn *websocket.Conn, code int) {
	deadline := time.Now().Add(writeWait)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""), deadline)
}
