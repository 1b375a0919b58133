package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/ai"
	"github.com/spigell/smart-hr/internal/auth"
	"github.com/spigell/smart-hr/internal/tools"
)

const wsWriteTimeout = 10 * time.Second

// handleChatWS serves chat turns over a websocket. Each text frame from the
// client is a chat request; the server answers with chat events, one per frame.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The hijacked request context outlives the client, so a failed read
	// cancels the turn in flight instead.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	requests := make(chan chatRequest)
	go func() {
		defer cancel()
		for {
			var body chatRequest
			if err := conn.ReadJSON(&body); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("websocket read failed", zap.Error(err))
				}
				return
			}
			select {
			case requests <- body:
			case <-ctx.Done():
				return
			}
		}
	}()

	send := func(event chatEvent) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(event)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case body := <-requests:
			if err := s.serveWSTurn(ctx, caller, body, send); err != nil {
				s.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func (s *Server) serveWSTurn(ctx context.Context, caller tools.Caller, body chatRequest, send func(chatEvent) error) error {
	if !s.limiter.Allow(caller.OwnerID) {
		return send(chatEvent{Type: eventError, Error: "too many chat requests, slow down"})
	}

	req := ai.Request{Caller: caller, Messages: body.Messages, ThreadID: strings.TrimSpace(body.ThreadID)}
	if err := req.Validate(); err != nil {
		return send(chatEvent{Type: eventError, Error: err.Error()})
	}
	return s.runChat(ctx, req, send)
}
