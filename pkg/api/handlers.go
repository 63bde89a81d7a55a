package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/verdant-labs/greenledger/pkg/auth"
	"github.com/verdant-labs/greenledger/pkg/reputation"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body with a size cap.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// requirePrincipal resolves the authenticated caller for mutating
// endpoints.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		WriteUnauthorized(w, "")
		return "", false
	}
	return p, true
}

// queryUint64 parses a required uint64 query parameter.
func queryUint64(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	raw := r.URL.Query().Get(name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		WriteBadRequest(w, "Missing or invalid query parameter: "+name)
		return 0, false
	}
	return v, true
}

func (s *Server) record(r *http.Request, op string, start time.Time, err error) {
	if s.telemetry != nil {
		s.telemetry.RecordOperation(r.Context(), op, time.Since(start), err)
	}
}

// SubmitActionRequest is the body of POST /v1/actions.
type SubmitActionRequest struct {
	ActionType   string `json:"action_type"`
	LocationHash string `json:"location_hash"`
	ProofHash    string `json:"proof_hash"`
}

// handleActions serves POST /v1/actions (submit) and GET
// /v1/actions?user=&id= (detail).
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		caller, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req SubmitActionRequest
		if !decode(w, r, &req) {
			return
		}
		if req.LocationHash == "" || req.ProofHash == "" {
			WriteBadRequest(w, "Missing required fields: location_hash, proof_hash")
			return
		}
		start := time.Now()
		id, err := s.engine.SubmitAction(caller, reputation.ActionType(req.ActionType), req.LocationHash, req.ProofHash)
		s.record(r, "submit_action", start, err)
		if err != nil {
			WriteEngineError(w, err)
			return
		}
		if s.telemetry != nil {
			s.telemetry.RecordSubmission(r.Context(), req.ActionType)
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]uint64{"action_id": id})

	case http.MethodGet:
		user := r.URL.Query().Get("user")
		if user == "" {
			WriteBadRequest(w, "Missing required query parameter: user")
			return
		}
		id, ok := queryUint64(w, r, "id")
		if !ok {
			return
		}
		a, err := s.engine.GetUserAction(user, id)
		if err != nil {
			WriteEngineError(w, err)
			return
		}
		writeJSON(w, a)

	default:
		WriteMethodNotAllowed(w)
	}
}

// VerifyActionRequest is the body of POST /v1/actions/verify.
type VerifyActionRequest struct {
	User     string `json:"user"`
	ActionID uint64 `json:"action_id"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req VerifyActionRequest
	if !decode(w, r, &req) {
		return
	}
	start := time.Now()
	err := s.engine.VerifyAction(caller, req.User, req.ActionID)
	s.record(r, "verify_action", start, err)
	if err != nil {
		WriteEngineError(w, err)
		return
	}
	if s.telemetry != nil {
		if a, gerr := s.engine.GetUserAction(req.User, req.ActionID); gerr == nil {
			s.telemetry.RecordVerification(r.Context(), a.RewardAmount)
		}
	}
	writeJSON(w, map[string]bool{"verified": true})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}
	user := r.URL.Query().Get("user")
	if user == "" {
		WriteBadRequest(w, "Missing required query parameter: user")
		return
	}
	id, ok := queryUint64(w, r, "id")
	if !ok {
		return
	}
	p, found := s.engine.GetPendingVerification(user, id)
	if !found {
		WriteError(w, http.StatusNotFound, "Not Found", "No pending verification for this action")
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}
	user := r.URL.Query().Get("user")
	if user == "" {
		WriteBadRequest(w, "Missing required query parameter: user")
		return
	}
	writeJSON(w, s.engine.GetUserStats(user))
}

// RegisterSponsorRequest is the body of POST /v1/sponsors.
type RegisterSponsorRequest struct {
	Name string `json:"name"`
}

// handleSponsors serves POST /v1/sponsors (register) and GET
// /v1/sponsors?principal= (info).
func (s *Server) handleSponsors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		caller, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req RegisterSponsorRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Name == "" {
			WriteBadRequest(w, "Missing required field: name")
			return
		}
		start := time.Now()
		err := s.engine.RegisterSponsor(caller, req.Name)
		s.record(r, "register_sponsor", start, err)
		if err != nil {
			WriteEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]bool{"registered": true})

	case http.MethodGet:
		principal := r.URL.Query().Get("principal")
		info, found := s.engine.GetSponsorInfo(principal)
		if !found {
			WriteError(w, http.StatusNotFound, "Not Found", "Sponsor not registered")
			return
		}
		writeJSON(w, info)

	default:
		WriteMethodNotAllowed(w)
	}
}

// ContributeRequest is the body of POST /v1/sponsors/contribute.
type ContributeRequest struct {
	Amount uint64 `json:"amount"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req ContributeRequest
	if !decode(w, r, &req) {
		return
	}
	start := time.Now()
	err := s.engine.SponsorContribute(caller, req.Amount)
	s.record(r, "sponsor_contribute", start, err)
	if err != nil {
		WriteEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"contributed": true})
}

// TransferRequest is the body of POST /v1/tokens/transfer.
type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Memo   string `json:"memo,omitempty"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req TransferRequest
	if !decode(w, r, &req) {
		return
	}
	if req.From == "" {
		req.From = caller
	}
	start := time.Now()
	err := s.engine.Transfer(caller, req.From, req.To, req.Amount, req.Memo)
	s.record(r, "transfer", start, err)
	if err != nil {
		WriteEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"transferred": true})
}

// TradeRequest is the body of POST /v1/tokens/trade.
type TradeRequest struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req TradeRequest
	if !decode(w, r, &req) {
		return
	}
	start := time.Now()
	err := s.engine.TradeTokens(caller, req.To, req.Amount)
	s.record(r, "trade_tokens", start, err)
	if err != nil {
		WriteEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"transferred": true})
}

// ApproveRequest is the body of POST /v1/tokens/approve.
type ApproveRequest struct {
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req ApproveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Spender == "" {
		WriteBadRequest(w, "Missing required field: spender")
		return
	}
	if err := s.engine.Approve(caller, req.Spender, req.Amount); err != nil {
		WriteEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"approved": true})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}
	principal := r.URL.Query().Get("principal")
	if principal == "" {
		WriteBadRequest(w, "Missing required query parameter: principal")
		return
	}
	writeJSON(w, map[string]uint64{"balance": s.engine.GetBalance(principal)})
}

func (s *Server) handleTokenMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}
	writeJSON(w, map[string]any{
		"name":         s.engine.GetName(),
		"symbol":       s.engine.GetSymbol(),
		"decimals":     s.engine.GetDecimals(),
		"uri":          s.engine.GetTokenURI(),
		"total_supply": s.engine.GetTotalSupply(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}
	writeJSON(w, map[string]any{
		"enabled":       s.engine.GetContractStatus(),
		"total_actions": s.engine.GetTotalActions(),
		"total_supply":  s.engine.GetTotalSupply(),
	})
}

// ToggleRequest is the body of POST /v1/admin/toggle.
type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req ToggleRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.ToggleContract(caller, req.Enabled); err != nil {
		WriteEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"enabled": req.Enabled})
}

// TokenURIRequest is the body of POST /v1/admin/token-uri.
type TokenURIRequest struct {
	URI string `json:"uri"`
}

func (s *Server) handleTokenURI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}
	caller, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req TokenURIRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.UpdateTokenURI(caller, req.URI); err != nil {
		WriteEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"updated": true})
}

// VerifierRequest is the body of POST /v1/admin/verifiers.
type VerifierRequest struct {
	Verifier string `json:"verifier"`
	Remove   bool   `json:"remove,omitempty"`
}

// handleVerifiers serves POST (grant/revoke) and GET (list) for the
// verifier set.
func (s *Server) handleVerifiers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		caller, ok := requirePrincipal(w, r)
		if !ok {
			return
		}
		var req VerifierRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Verifier == "" {
			WriteBadRequest(w, "Missing required field: verifier")
			return
		}
		var err error
		if req.Remove {
			err = s.engine.RemoveVerifier(caller, req.Verifier)
		} else {
			err = s.engine.AddVerifier(caller, req.Verifier)
		}
		if err != nil {
			WriteEngineError(w, err)
			return
		}
		writeJSON(w, map[string]bool{"ok": true})

	case http.MethodGet:
		writeJSON(w, map[string][]string{"verifiers": s.engine.Verifiers()})

	default:
		WriteMethodNotAllowed(w)
	}
}
