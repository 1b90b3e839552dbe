package api

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	gerrs "github.com/jdholdren/gossip/internal/errors"
	"github.com/jdholdren/gossip/internal/gossip"

	"github.com/gorilla/mux"
)

type AccountResp struct {
	ID         string      `json:"id"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Age        int         `json:"age,omitempty"`
	Tier       gossip.Tier `json:"tier"`
	Followers  []string    `json:"followers"`
	Followings []string    `json:"followings"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func accountResp(acc gossip.Account) AccountResp {
	return AccountResp{
		ID:         acc.ID,
		FirstName:  acc.FirstName,
		LastName:   acc.LastName,
		Username:   acc.Username,
		Email:      acc.Email,
		Age:        acc.Age,
		Tier:       acc.Tier,
		Followers:  acc.Followers,
		Followings: acc.Followings,
		CreatedAt:  acc.CreatedAt,
		UpdatedAt:  acc.UpdatedAt,
	}
}

type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
}

func (req registerReq) Validate() error {
	var details []gerrs.Detail
	for field, val := range map[string]string{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"username":   req.Username,
		"password":   req.Password,
		"email":      req.Email,
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

func (s *Server) postRegister(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeValid[registerReq](r.Body)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return svcErr(err)
	}

	acc, err := s.repo.CreateAccount(r.Context(), gossip.Account{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Age:          req.Age,
		Tier:         gossip.TierUnpaid,
	})
	if errors.Is(err, gossip.ErrConflict) {
		return gerrs.E("account with this email already exists", http.StatusConflict)
	}
	if err != nil {
		return svcErr(err)
	}

	setSession(w, s.secureCookie, s.httpsCookies, sessionState{ID: acc.ID, Kind: kindAccount})

	return writeJSON(w, http.StatusCreated, accountResp(acc))
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req loginReq) Validate() error {
	if req.Email == "" || req.Password == "" {
		return gerrs.E("email and password are required", http.StatusBadRequest)
	}
	return nil
}

func (s *Server) postLogin(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeValid[loginReq](r.Body)
	if err != nil {
		return err
	}

	acc, err := s.repo.AccountByEmail(r.Context(), req.Email)
	if errors.Is(err, gossip.ErrNotFound) {
		return gerrs.E("account not found", http.StatusNotFound)
	}
	if err != nil {
		return svcErr(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
		return gerrs.E("password incorrect", http.StatusBadRequest)
	}

	setSession(w, s.secureCookie, s.httpsCookies, sessionState{ID: acc.ID, Kind: kindAccount})

	// Reload with edges for the response.
	acc, err = s.repo.Account(r.Context(), acc.ID)
	if err != nil {
		return svcErr(err)
	}

	return writeJSON(w, http.StatusOK, accountResp(acc))
}

type accountListResp struct {
	Data []AccountResp `json:"data"`
	pageMeta
}

func (s *Server) getAccounts(w http.ResponseWriter, r *http.Request) error {
	pg := parsePageParams(r)

	accs, count, err := s.repo.AllAccounts(r.Context(), pg.Limit, pg.Offset())
	if err != nil {
		return svcErr(err)
	}

	resp := accountListResp{
		Data: make([]AccountResp, 0, len(accs)),
		pageMeta: pageMeta{
			Page:      pg.Page,
			Limit:     pg.Limit,
			PageTotal: gossip.PageTotal(count, pg.Limit),
		},
	}
	for _, acc := range accs {
		resp.Data = append(resp.Data, accountResp(acc))
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) error {
	acc, err := s.repo.Account(r.Context(), mux.Vars(r)["accountID"])
	if err != nil {
		return svcErr(err)
	}

	return writeJSON(w, http.StatusOK, accountResp(acc))
}

type updateAccountReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Password  string `json:"password"` // optional; re-hashed when present
	Age       int    `json:"age"`
	Email     string `json:"email"`
}

func (req updateAccountReq) Validate() error {
	if req.FirstName == "" && req.LastName == "" && req.Username == "" &&
		req.Password == "" && req.Email == "" && req.Age == 0 {
		return gerrs.E("nothing to update", http.StatusBadRequest)
	}
	return nil
}

func (s *Server) putAccount(w http.ResponseWriter, r *http.Request) error {
	state := session(r, s.secureCookie)
	id := mux.Vars(r)["accountID"]
	if state.Kind != kindAccount || state.ID != id {
		return gerrs.E("you can update your own account only", http.StatusForbidden)
	}

	req, err := decodeValid[updateAccountReq](r.Body)
	if err != nil {
		return err
	}

	acc, err := s.repo.Account(r.Context(), id)
	if err != nil {
		return svcErr(err)
	}

	if req.FirstName != "" {
		acc.FirstName = req.FirstName
	}
	if req.LastName != "" {
		acc.LastName = req.LastName
	}
	if req.Username != "" {
		acc.Username = req.Username
	}
	if req.Email != "" {
		acc.Email = req.Email
	}
	if req.Age != 0 {
		acc.Age = req.Age
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return svcErr(err)
		}
		acc.PasswordHash = string(hash)
	}

	acc, err = s.repo.UpdateAccount(r.Context(), acc)
	if err != nil {
		return svcErr(err)
	}

	return writeJSON(w, http.StatusOK, accountResp(acc))
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) error {
	state := session(r, s.secureCookie)
	id := mux.Vars(r)["accountID"]
	if state.Kind != kindAccount || state.ID != id {
		return gerrs.E("you can delete your own account only", http.StatusForbidden)
	}

	if err := s.repo.DeleteAccount(r.Context(), id); err != nil {
		return svcErr(err)
	}

	// The principal no longer exists; end the session too.
	setSession(w, s.secureCookie, s.httpsCookies, sessionState{})

	return writeJSON(w, http.StatusOK, struct{}{})
}

type followResp struct {
	Message string `json:"message"`
}

func (s *Server) postFollow(w http.ResponseWriter, r *http.Request) error {
	state := session(r, s.secureCookie)
	if state.Kind != kindAccount {
		return gerrs.E("only accounts can follow", http.StatusForbidden)
	}

	if err := s.graph.Follow(r.Context(), state.ID, mux.Vars(r)["accountID"]); err != nil {
		return svcErr(err)
	}

	return writeJSON(w, http.StatusOK, followResp{Message: "account followed successfully"})
}

func (s *Server) postUnfollow(w http.ResponseWriter, r *http.Request) error {
	state := session(r, s.secureCookie)
	if state.Kind != kindAccount {
		return gerrs.E("only accounts can unfollow", http.StatusForbidden)
	}

	if err := s.graph.Unfollow(r.Context(), state.ID, mux.Vars(r)["accountID"]); err != nil {
		return svcErr(err)
	}

	return writeJSON(w, http.StatusOK, followResp{Message: "account unfollowed successfully"})
}
