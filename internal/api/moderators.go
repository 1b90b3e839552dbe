package api

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	gerrs "github.com/jdholdren/gossip/internal/errors"
	"github.com/jdholdren/gossip/internal/gossip"
)

type ModeratorResp struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func moderatorResp(mod gossip.Moderator) ModeratorResp {
	return ModeratorResp{
		ID:        mod.ID,
		Username:  mod.Username,
		Email:     mod.Email,
		CreatedAt: mod.CreatedAt,
	}
}

type moderatorRegisterReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req moderatorRegisterReq) Validate() error {
	var details []gerrs.Detail
	for field, val := range map[string]string{
		"username": req.Username,
		"email":    req.Email,
		"password": req.Password,
	} {
		if val == "" {
			details = append(details, gerrs.Detail{Field: field, Error: "is required"})
		}
	}
	if len(details) > 0 {
		return gerrs.E("invalid registration", details, http.StatusBadRequest)
	}

	return nil
}

func (s *Server) postModeratorRegister(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeValid[moderatorRegisterReq](r.Body)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return svcErr(err)
	}

	mod, err := s.repo.CreateModerator(r.Context(), gossip.Moderator{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if errors.Is(err, gossip.ErrConflict) {
		return gerrs.E("moderator with this email already exists", http.StatusConflict)
	}
	if err != nil {
		return svcErr(err)
	}

	setSession(w, s.secureCookie, s.httpsCookies, sessionState{ID: mod.ID, Kind: kindModerator})

	return writeJSON(w, http.StatusCreated, moderatorResp(mod))
}

func (s *Server) postModeratorLogin(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeValid[loginReq](r.Body)
	if err != nil {
		return err
	}

	mod, err := s.repo.ModeratorByEmail(r.Context(), req.Email)
	if errors.Is(err, gossip.ErrNotFound) {
		return gerrs.E("moderator not found", http.StatusNotFound)
	}
	if err != nil {
		return svcErr(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(mod.PasswordHash), []byte(req.Password)) != nil {
		return gerrs.E("password incorrect", http.StatusBadRequest)
	}

	setSession(w, s.secureCookie, s.httpsCookies, sessionState{ID: mod.ID, Kind: kindModerator})

	return writeJSON(w, http.StatusOK, moderatorResp(mod))
}
