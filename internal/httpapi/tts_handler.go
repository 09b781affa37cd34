package httpapi

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lexiqai/tts-gateway/internal/audio"
	"github.com/lexiqai/tts-gateway/internal/observability"
	"github.com/lexiqai/tts-gateway/internal/resilience"
	"github.com/lexiqai/tts-gateway/internal/speech"
	"github.com/lexiqai/tts-gateway/internal/synth"
)

// errorResponse is the body of every non-2xx /tts answer
type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)
	m := observability.NewRequestMetrics(RequestID(ctx))

	form, err := s.parseForm(w, r)
	if err != nil {
		m.RecordRequestEnd("invalid")
		m.RecordError("invalid_form", "httpapi")
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	req, err := decodeSynthesisRequest(form)
	if err != nil {
		m.RecordRequestEnd("invalid")
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	art, err := s.svc.Synthesize(ctx, req)
	if err != nil {
		status, detail, kind := classifyError(err)
		m.RecordRequestEnd(kind)
		if status == http.StatusBadRequest {
			logger.Info().Str("detail", detail).Msg("Rejected TTS request")
		} else {
			m.RecordError(kind, "speech")
			logger.Error().Err(err).Int("status", status).Msg("TTS request failed")
		}
		if kind == "canceled" {
			return
		}
		writeJSON(w, status, errorResponse{Detail: detail})
		return
	}

	w.Header().Set("Content-Type", art.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Data); err != nil {
		logger.Warn().Err(err).Msg("Failed to write audio response")
		m.RecordRequestEnd("write_error")
		return
	}

	m.RecordAudioBytes(audio.FormatForMIME(art.MediaType), len(art.Data))
	m.RecordRequestEnd("ok")
}

// parseForm accepts urlencoded and multipart bodies. Only body fields are
// read; query parameters are ignored.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.opts.MaxBodyBytes); err != nil {
			return nil, formError(err)
		}
		return r.PostForm, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, formError(err)
	}
	return r.PostForm, nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return speech.InvalidArgument("request body exceeds %d bytes", tooLarge.Limit)
	}
	return speech.InvalidArgument("invalid form body")
}

// decodeSynthesisRequest maps form fields onto a request. Absent optional
// fields keep their defaults; present but malformed ones are rejected.
func decodeSynthesisRequest(form url.Values) (speech.SynthesisRequest, error) {
	req := speech.NewSynthesisRequest(form.Get("text"), 0)

	if v := strings.TrimSpace(form.Get("speaker_id")); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return req, speech.InvalidArgument("speaker_id must be an integer")
		}
		req.SpeakerID = id
	}

	if v := strings.TrimSpace(form.Get("speed")); v != "" {
		speed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, speech.InvalidArgument("speed must be a number")
		}
		req.Speed = speed
	}

	if v := strings.TrimSpace(form.Get("compress")); v != "" {
		compress, err := parseBool(v)
		if err != nil {
			return req, err
		}
		req.Compress = compress
	}

	return req, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, speech.InvalidArgument("compress must be a boolean")
}

// classifyError maps a service error to an HTTP status, a client safe
// detail and a metrics label
func classifyError(err error) (status int, detail, kind string) {
	var invalid *speech.InvalidArgumentError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Detail, "invalid"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "speech backend unavailable", "circuit_open"
	case errors.Is(err, synth.ErrBusy):
		return http.StatusServiceUnavailable, "too many concurrent requests", "busy"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "speech synthesis timed out", "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request canceled", "canceled"
	case errors.Is(err, speech.ErrEncoding):
		return http.StatusInternalServerError, "failed to encode audio", "encode_error"
	case errors.Is(err, speech.ErrSynthesis):
		return http.StatusBadGateway, "speech synthesis failed", "synthesis_error"
	}
	return http.StatusInternalServerError, "internal error", "internal_error"
}
