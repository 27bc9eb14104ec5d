package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pushci/receiver/event"
	"github.com/pushci/receiver/metrics"
)

// GitHub caps webhook payloads at 25 MB.
const maxPayloadSize = 25 << 20

const (
	eventHeader     = "X-Github-Event"
	signatureHeader = "X-Hub-Signature-256"
	deliveryHeader  = "X-Github-Delivery"
)

func (w *Webhook) verify(body []byte, signature string) bool {
	if len(w.secret) == 0 {
		return true
	}
	if !strings.HasPrefix(signature, "sha256=") {
		return false
	}
	sum, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, w.secret)
	mac.Write(body)
	return hmac.Equal(sum, mac.Sum(nil))
}

// payload extracts the JSON document from either delivery format: a
// form-encoded "payload" field, or a raw application/json body.
func payload(contentType string, body []byte) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" {
		if len(body) == 0 {
			return nil, errors.New("empty payload")
		}
		return body, nil
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	data := form.Get("payload")
	if data == "" {
		return nil, errors.New("missing payload form field")
	}
	return []byte(data), nil
}

func (w *Webhook) webhook(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.Header().Set("Allow", http.MethodPost)
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log := w.log.With(zap.String("delivery", r.Header.Get(deliveryHeader)))
	eventType := r.Header.Get(eventHeader)
	if eventType == "" {
		http.Error(rw, "missing "+eventHeader+" header", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxPayloadSize))
	if err != nil {
		http.Error(rw, "cannot read body", http.StatusBadRequest)
		return
	}

	if !w.verify(body, r.Header.Get(signatureHeader)) {
		log.Warn("Rejected delivery with invalid signature", zap.String("event", eventType))
		http.Error(rw, "invalid signature", http.StatusUnauthorized)
		return
	}
	metrics.ObserveWebhookEvent(eventType)

	if eventType != "push" {
		log.Debug("Ignoring event", zap.String("event", eventType))
		rw.WriteHeader(http.StatusOK)
		return
	}

	data, err := payload(r.Header.Get("Content-Type"), body)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}

	push, err := event.ParsePush(data)
	if err != nil {
		log.Info("Rejected push payload", zap.Error(err))
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}

	if push.IsDeletion() {
		log.Info("Ignoring ref deletion", zap.String("ref", push.Ref))
		rw.WriteHeader(http.StatusOK)
		return
	}

	res, err := w.handler.HandlePush(w.runCtx, push)
	if err != nil {
		log.Error("Push run did not complete",
			zap.String("repository", push.Repository.FullName),
			zap.String("sha", push.After),
			zap.Error(err))
	} else {
		log.Info("Push run complete",
			zap.String("repository", push.Repository.FullName),
			zap.String("sha", push.After),
			zap.String("state", string(res.State)),
			zap.String("log", res.LogName))
	}
	rw.WriteHeader(http.StatusOK)
}
