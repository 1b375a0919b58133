package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/ai"
	"github.com/spigell/smart-hr/internal/auth"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/logger"
	"github.com/spigell/smart-hr/internal/wire"
)

const (
	contentTypeNDJSON = "application/x-ndjson"

	eventDelta = "delta"
	eventDone  = "done"
	eventError = "error"
)

type chatRequest struct {
	Messages []ai.Message `json:"messages"`
	ThreadID string       `json:"threadId,omitempty"`
}

type chatEvent struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Segments []wire.Segment `json:"segments,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type renderRequest struct {
	Text      string `json:"text"`
	Streaming bool   `json:"streaming"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFrom(r.Context())
	if !s.limiter.Allow(caller.OwnerID) {
		s.respondJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many chat requests, slow down"})
		return
	}

	var body chatRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	req := ai.Request{Caller: caller, Messages: body.Messages, ThreadID: strings.TrimSpace(body.ThreadID)}
	if err := req.Validate(); err != nil {
		s.respondError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), contentTypeNDJSON) {
		s.streamNDJSON(w, r, req)
		return
	}
	s.streamText(w, r, req)
}

// streamText writes the formatted answer as chunked plain text.
func (s *Server) streamText(w http.ResponseWriter, r *http.Request, req ai.Request) {
	flusher, _ := w.(http.Flusher)
	started := false

	_, err := s.pipeline.Answer(r.Context(), req, func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err == nil {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
		}
		return
	}

	s.logChatFailure(r.Context(), req, err)
	if !started {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": ai.ErrUnavailable.Error()})
	}
}

func (s *Server) streamNDJSON(w http.ResponseWriter, r *http.Request, req ai.Request) {
	w.Header().Set("Content-Type", contentTypeNDJSON)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)
	send := func(event chatEvent) error {
		if err := encoder.Encode(event); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	if err := s.runChat(r.Context(), req, send); err != nil {
		s.logger.Debug("chat stream aborted", zap.Error(err))
	}
}

// runChat answers req, reporting deltas, the final segments or a failure through send.
func (s *Server) runChat(ctx context.Context, req ai.Request, send func(chatEvent) error) error {
	full, err := s.pipeline.Answer(ctx, req, func(chunk string) error {
		return send(chatEvent{Type: eventDelta, Text: chunk})
	})
	if err != nil {
		s.logChatFailure(ctx, req, err)
		return send(chatEvent{Type: eventError, Error: ai.ErrUnavailable.Error()})
	}
	return send(chatEvent{Type: eventDone, Text: full, Segments: wire.Parse(full)})
}

func (s *Server) logChatFailure(ctx context.Context, req ai.Request, err error) {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		s.logger.Info("chat turn cancelled by client", zap.String(logger.FieldOwner, req.Caller.OwnerID))
		return
	}
	s.logger.Error("chat turn failed",
		zap.String(logger.FieldOwner, req.Caller.OwnerID),
		zap.String("thread_id", req.ThreadID),
		zap.Error(err),
	)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var body renderRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	out, err := s.renderer.Message(body.Text, body.Streaming)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, out)
}
