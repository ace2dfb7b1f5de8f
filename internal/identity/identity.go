// Package identity ties each request to an anonymous device and one of its
// browser tabs, and hands the tab's wizard session to the handlers behind it.
package identity

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/startup-navigator/internal/domain"
	"github.com/ashureev/startup-navigator/internal/wizard"
)

const (
	// DeviceCookie carries the anonymous device id.
	DeviceCookie = "navigator_anon_id"
	// TabHeader carries the browser tab id. The loading socket sends it as the
	// session_id query parameter instead.
	TabHeader = "X-Navigator-Session-ID"
	// DefaultTab is used when a request names no tab, or an unusable one.
	DefaultTab = "default"

	devicePrefix   = "anon_"
	cookieLifetime = 30 * 24 * time.Hour
	seenEvery      = time.Minute
)

var tabPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Caller is who a request belongs to.
type Caller struct {
	DeviceID string
	TabID    string
}

// Username is the display name shown for the device.
func (c Caller) Username() string {
	if len(c.DeviceID) > len(devicePrefix)+8 {
		return "anon-" + c.DeviceID[len(c.DeviceID)-8:]
	}
	return "anon-user"
}

type callerKey struct{}

// WithCaller attaches c to ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller resolved by Resolver.Identify.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok && c.DeviceID != ""
}

// UserStore keeps one row per device.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpsertUser(ctx context.Context, user *domain.User) error
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error
}

// SessionLoader returns a tab's wizard session, or a new one on first contact.
type SessionLoader interface {
	Get(ctx context.Context, userID, sessionID string) (*domain.WizardSession, error)
}

// Resolver identifies callers from their cookie and tab id.
type Resolver struct {
	users UserStore
	isDev bool
	now   func() time.Time
}

// NewResolver creates a resolver that records devices in users. In development
// the cookie is not marked Secure so plain http works.
func NewResolver(users UserStore, isDev bool) *Resolver {
	return &Resolver{users: users, isDev: isDev, now: time.Now}
}

// Identify resolves the caller and attaches it to the request context. A device
// without a valid cookie gets a new id.
func (rs *Resolver) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID, ok := deviceFromCookie(r)
		if !ok {
			var err error
			if deviceID, err = newDeviceID(); err != nil {
				slog.Error("Failed to mint device id", "error", err)
				writeFailure(w, "failed to establish anonymous identity")
				return
			}
		}
		// Refreshed on every request so an active device keeps its id.
		rs.setCookie(w, deviceID)

		caller := Caller{DeviceID: deviceID, TabID: tabFromRequest(r)}
		if err := rs.touch(r.Context(), caller); err != nil {
			slog.Error("Failed to record device", "user_id", deviceID, "error", err)
			writeFailure(w, "failed to initialize anonymous user")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// AttachSession loads the caller's wizard session and attaches it with
// wizard.WithSession. It must run after Identify.
func AttachSession(sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			sess, err := sessions.Get(r.Context(), caller.DeviceID, caller.TabID)
			if err != nil {
				slog.Error("Failed to load wizard session",
					"user_id", caller.DeviceID, "session_id", caller.TabID, "error", err)
				writeFailure(w, "failed to load wizard session")
				return
			}
			next.ServeHTTP(w, r.WithContext(wizard.WithSession(r.Context(), sess)))
		})
	}
}

// touch creates the device row on first sight and otherwise bumps last-seen,
// at most once per seenEvery.
func (rs *Resolver) touch(ctx context.Context, c Caller) error {
	now := rs.now()
	user, err := rs.users.GetUser(ctx, c.DeviceID)
	switch {
	case err != nil:
		return err
	case user == nil:
		return rs.users.UpsertUser(ctx, &domain.User{
			UserID:     c.DeviceID,
			Username:   c.Username(),
			LastSeenAt: now,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	case user.LastSeenAt.IsZero() || user.IdleFor(now) > seenEvery:
		return rs.users.UpdateLastSeen(ctx, c.DeviceID, now)
	}
	return nil
}

func (rs *Resolver) setCookie(w http.ResponseWriter, deviceID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceCookie,
		Value:    deviceID,
		Path:     "/",
		MaxAge:   int(cookieLifetime.Seconds()),
		Expires:  rs.now().Add(cookieLifetime),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !rs.isDev,
	})
}

func newDeviceID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate device id: %w", err)
	}
	return devicePrefix + hex.EncodeToString(u[:]), nil
}

// validDeviceID accepts only ids this package could have minted.
func validDeviceID(id string) bool {
	rest, ok := strings.CutPrefix(id, devicePrefix)
	if !ok || len(rest) != 32 || strings.ToLower(rest) != rest {
		return false
	}
	_, err := hex.DecodeString(rest)
	return err == nil
}

func deviceFromCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(DeviceCookie)
	if err != nil || !validDeviceID(c.Value) {
		return "", false
	}
	return c.Value, true
}

func tabFromRequest(r *http.Request) string {
	tab := r.Header.Get(TabHeader)
	if tab == "" {
		tab = r.URL.Query().Get("session_id")
	}
	if tab = strings.TrimSpace(tab); !tabPattern.MatchString(tab) {
		return DefaultTab
	}
	return tab
}

func writeFailure(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintf(w, `{"error":%q}`, msg)
}

// RemoteIP returns the request's peer address without the port.
func RemoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
