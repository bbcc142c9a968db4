package main

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/tplt/internal/session"
)

const sessionCookieName = "tplt_session"

type sessionKey struct{}

type sessionService struct {
	store         *session.Store
	sessionSecret []byte
	ttl           time.Duration
	secure        bool
	logger        *zap.Logger
	now           func() time.Time
}

func newSessionService(store *session.Store, sessionSecret string, ttl time.Duration, logger *zap.Logger) *sessionService {
	secret := []byte(sessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	return &sessionService{store: store, sessionSecret: secret, ttl: ttl, logger: logger, now: time.Now}
}

// createSessionValue signs the session ID together with the time the cookie
// was issued: "<id>.<unix seconds>.<hex hmac>".
func (a *sessionService) createSessionValue(id string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(id)) + "." + strconv.FormatInt(a.now().Unix(), 10)
	return payload + "." + hex.EncodeToString(a.sign(payload))
}

// verifySessionValue returns the session ID of a value signed with this
// service's secret and issued no longer than the TTL ago.
func (a *sessionService) verifySessionValue(value string) (string, bool) {
	cut := strings.LastIndexByte(value, '.')
	if cut < 0 {
		return "", false
	}
	payload, signature := value[:cut], value[cut+1:]

	provided, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(provided, a.sign(payload)) {
		return "", false
	}

	encodedID, issuedRaw, ok := strings.Cut(payload, ".")
	if !ok {
		return "", false
	}
	issued, err := strconv.ParseInt(issuedRaw, 10, 64)
	if err != nil {
		return "", false
	}
	if age := a.now().Sub(time.Unix(issued, 0)); age < -time.Minute || age > a.ttl {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(encodedID)
	if err != nil || len(decoded) == 0 {
		return "", false
	}
	return string(decoded), true
}

func (a *sessionService) sign(payload string) []byte {
	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	return mac.Sum(nil)
}

func (a *sessionService) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.createSessionValue(id),
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// middleware attaches the caller's session to the request, creating one on
// first visit. The session stays locked until the handler returns.
func (a *sessionService) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			id, _ = a.verifySessionValue(cookie.Value)
		}

		entry, created := a.store.GetOrCreate(id)
		if created {
			a.logger.Info("new session", zap.String("session", entry.ID))
		}
		a.setSessionCookie(w, entry.ID)

		entry.Lock()
		defer entry.Unlock()

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, entry)))
	})
}

// handleSessionReset ends the caller's session. The next request starts a
// fresh one with a newly seeded master.
func (s *server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	if entry, ok := r.Context().Value(sessionKey{}).(*session.Entry); ok {
		s.sessions.store.Delete(entry.ID)
		s.logger.Info("session reset", zap.String("session", entry.ID))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.sessions.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func stateFrom(r *http.Request) *session.State {
	entry, ok := r.Context().Value(sessionKey{}).(*session.Entry)
	if !ok {
		return session.NewState()
	}
	return entry.State
}
