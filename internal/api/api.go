// Package api is the HTTP surface of the network: account and post CRUD,
// the follow graph, the paywalled feed, moderation, checkout, and the
// websocket endpoint listeners subscribe to for new-post events.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	lru "github.com/hashicorp/golang-lru/v2"

	gerrs "github.com/jdholdren/gossip/internal/errors"
	"github.com/jdholdren/gossip/internal/fanout"
	"github.com/jdholdren/gossip/internal/feed"
	"github.com/jdholdren/gossip/internal/follow"
	"github.com/jdholdren/gossip/internal/gossip"
	"github.com/jdholdren/gossip/internal/payment"
)

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("error encoding json response: %s", err)
	}

	return nil
}

// validator is a surface that can validate itself and return an error
// if something is wrong.
type validator interface {
	Validate() error
}

// decodeValid decodes a request and then validates it.
func decodeValid[V validator](r io.Reader) (V, error) {
	var v V
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return v, gerrs.E(fmt.Errorf("error decoding request: %w", err), http.StatusBadRequest)
	}
	if err := v.Validate(); err != nil {
		return v, gerrs.E(err, http.StatusBadRequest)
	}

	return v, nil
}

// HandlerFuncE is a modified type of [http.HandlerFunc] that returns an error.
type HandlerFuncE func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFuncE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := f(w, r)
	if err == nil {
		return
	}

	// Either it's already a structured error, or coerce it to one
	sErr := &gerrs.Error{}
	if !errors.As(err, &sErr) {
		slog.Error("unstructured error from handler", "err", err)
		sErr = gerrs.E(http.StatusInternalServerError, "internal server error")
	}

	if err := writeJSON(w, sErr.Status, sErr); err != nil {
		slog.Error("error writing response", "error", err)
	}
}

// errRouter is a newtype around a mux router that allows attaching handlers that return errors.
type errRouter struct {
	*mux.Router
}

func (r errRouter) HandleFuncE(path string, f HandlerFuncE) *mux.Route {
	return r.Handle(path, f)
}

// svcErr maps domain sentinels onto structured errors for the response.
func svcErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gossip.ErrNotFound):
		return gerrs.E(err, http.StatusNotFound)
	case errors.Is(err, gossip.ErrConflict):
		return gerrs.E(err, http.StatusConflict)
	case errors.Is(err, follow.ErrAlreadyFollowing):
		return gerrs.E(err, http.StatusConflict)
	case errors.Is(err, follow.ErrNotFollowing),
		errors.Is(err, follow.ErrSelfFollow),
		errors.Is(err, feed.ErrInvalidSort):
		return gerrs.E(err, http.StatusBadRequest)
	case errors.Is(err, follow.ErrNotAFollower):
		// Data corruption, but the message is safe to surface.
		return gerrs.E(err, http.StatusInternalServerError)
	default:
		// Unexpected persistence failure: log the cause, return a generic
		// message.
		slog.Error("internal error", "err", err)
		return gerrs.E("internal server error", http.StatusInternalServerError)
	}
}

type (
	// Server hosts the public API.
	Server struct {
		*http.Server

		repo     gossip.Repository
		graph    *follow.Graph
		feed     *feed.Policy
		hub      *fanout.Hub
		payments payment.Gateway

		postCache *lru.Cache[string, PostResp]

		secureCookie *securecookie.SecureCookie
		httpsCookies bool // Whether or not HTTPS should be used for cookies
	}

	ServerConfig struct {
		Port           int
		CookieHashKey  []byte
		CookieBlockKey []byte
		HttpsCookies   bool
		CorsHeader     string
	}
)

func NewServer(config ServerConfig, repo gossip.Repository, hub *fanout.Hub, payments payment.Gateway) *Server {
	var (
		r        = errRouter{Router: mux.NewRouter()}
		cache, _ = lru.New[string, PostResp](1024)
	)

	srvr := Server{
		repo:         repo,
		graph:        follow.New(repo, repo),
		feed:         feed.New(repo, repo),
		hub:          hub,
		payments:     payments,
		postCache:    cache,
		secureCookie: securecookie.New(config.CookieHashKey, config.CookieBlockKey),
		httpsCookies: config.HttpsCookies,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsHeader}),
				handlers.AllowCredentials(),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}

	r.Use(accessLogMiddleware) // Log everything

	// Open endpoints: sign-up, sign-in, and the event stream.
	r.HandleFuncE("/api/register", srvr.postRegister).Methods(http.MethodPost)
	r.HandleFuncE("/api/login", srvr.postLogin).Methods(http.MethodPost)
	r.HandleFuncE("/api/moderator/register", srvr.postModeratorRegister).Methods(http.MethodPost)
	r.HandleFuncE("/api/moderator/login", srvr.postModeratorLogin).Methods(http.MethodPost)
	r.HandleFunc("/ws", hub.ServeWS).Methods(http.MethodGet)

	authed := errRouter{Router: r.NewRoute().Subrouter()}
	authed.Use(requireSessionMiddleware(srvr.secureCookie))

	authed.HandleFuncE("/api/logout", srvr.getLogout).Methods(http.MethodGet)

	// Accounts and the follow graph
	authed.HandleFuncE("/api/accounts", srvr.getAccounts).Methods(http.MethodGet)
	authed.HandleFuncE("/api/accounts/{accountID}", srvr.getAccount).Methods(http.MethodGet)
	authed.HandleFuncE("/api/accounts/{accountID}", srvr.putAccount).Methods(http.MethodPut)
	authed.HandleFuncE("/api/accounts/{accountID}", srvr.deleteAccount).Methods(http.MethodDelete)
	authed.HandleFuncE("/api/accounts/{accountID}/follow", srvr.postFollow).Methods(http.MethodPost)
	authed.HandleFuncE("/api/accounts/{accountID}/unfollow", srvr.postUnfollow).Methods(http.MethodPost)

	// Posts and the feed
	authed.HandleFuncE("/api/posts", srvr.postPosts).Methods(http.MethodPost)
	authed.HandleFuncE("/api/posts", srvr.getPosts).Methods(http.MethodGet)
	authed.HandleFuncE("/api/posts/{postID}", srvr.getPost).Methods(http.MethodGet)
	authed.HandleFuncE("/api/posts/{postID}", srvr.putPost).Methods(http.MethodPut)
	authed.HandleFuncE("/api/posts/{postID}", srvr.deletePost).Methods(http.MethodDelete)
	authed.HandleFuncE("/api/feed", srvr.getFeed).Methods(http.MethodGet)

	// Payment
	authed.HandleFuncE("/api/checkout", srvr.postCheckout).Methods(http.MethodPost)

	slog.Debug("configured api server", "port", config.Port)

	return &srvr
}
