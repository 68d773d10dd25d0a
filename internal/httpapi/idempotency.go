package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

// withIdempotency защищает мутирующий запрос от повторного исполнения.
// Касса повторяет POST при сетевых сбоях; если ключ уже обработан,
// возвращается сохранённый ответ без повторного списания остатков.
// Без заголовка Idempotency-Key запрос обрабатывается как обычно.
func (h *Handler) withIdempotency(w http.ResponseWriter, r *http.Request, handle func() (int, any)) {
	key := r.Header.Get(idempotencyKeyHeader)
	if key == "" || h.idem == nil {
		code, body := handle()
		writeJSON(w, code, body)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(payload))

	sum := sha256.Sum256(payload)
	requestHash := hex.EncodeToString(sum[:])

	existing, err := h.idem.CreateProcessing(key, requestHash, time.Now().UTC().Add(idempotencyTTL))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
			h.replayIdempotent(w, key, existing)
		case errors.Is(err, domain.ErrIdempotencyHashMismatch):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		default:
			h.logger.WithError(err).WithField("idempotency_key", key).Error("idempotency bookkeeping failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	code, body := handle()

	encoded, marshalErr := json.Marshal(body)
	if marshalErr != nil {
		h.logger.WithError(marshalErr).WithField("idempotency_key", key).Error("failed to encode response for idempotency record")
		encoded = nil
	}
	markErr := error(nil)
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		markErr = h.idem.MarkDone(key, encoded, code)
	} else {
		markErr = h.idem.MarkFailed(key, encoded, code)
	}
	if markErr != nil {
		h.logger.WithError(markErr).WithField("idempotency_key", key).Error("failed to finalize idempotency record")
	}

	writeJSON(w, code, body)
}

// replayIdempotent возвращает сохранённый результат по уже известному ключу.
// Пока первый запрос ещё обрабатывается, повтор получает 409.
func (h *Handler) replayIdempotent(w http.ResponseWriter, key string, record domain.IdempotencyRecord) {
	if record.Key == "" {
		fetched, err := h.idem.Get(key)
		if err != nil {
			h.logger.WithError(err).WithField("idempotency_key", key).Error("failed to load idempotency record")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
		record = fetched
	}

	if record.Status == domain.IdempotencyStatusProcessing {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "request with this idempotency key is still being processed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotency-Replayed", "true")
	w.WriteHeader(record.HTTPStatus)
	_, _ = w.Write(record.ResponseBody)
}
