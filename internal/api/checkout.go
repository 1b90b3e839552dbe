package api

import (
	"fmt"
	"net/http"

	gerrs "github.com/jdholdren/gossip/internal/errors"
	"github.com/jdholdren/gossip/internal/gossip"
)

type checkoutReq struct {
	Email string `json:"email"`
}

func (req checkoutReq) Validate() error {
	if req.Email == "" {
		return gerrs.E("email is required", http.StatusBadRequest)
	}
	return nil
}

type checkoutResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// postCheckout charges the caller through the payment gateway and, on
// success, upgrades their tier. A declined charge leaves the tier untouched.
func (s *Server) postCheckout(w http.ResponseWriter, r *http.Request) error {
	state := session(r, s.secureCookie)
	if state.Kind != kindAccount {
		return gerrs.E("only accounts can check out", http.StatusForbidden)
	}

	req, err := decodeValid[checkoutReq](r.Body)
	if err != nil {
		return err
	}

	if err := s.payments.Charge(r.Context(), state.ID, req.Email); err != nil {
		return gerrs.E(fmt.Errorf("payment failed: %w", err), http.StatusPaymentRequired)
	}

	if err := s.repo.SetTier(r.Context(), state.ID, gossip.TierPaid); err != nil {
		return svcErr(err)
	}

	return writeJSON(w, http.StatusOK, checkoutResp{Success: true, Message: "Payment successful"})
}
