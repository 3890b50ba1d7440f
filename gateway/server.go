package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"synthvault/core/events"
	"synthvault/core/types"
	"synthvault/crypto"
	nativecommon "synthvault/native/common"
	"synthvault/native/token"
	"synthvault/native/vault"
	"synthvault/observability"
)

const (
	requestLimit = 1 << 20 // 1 MiB
	auditLimit   = 1024
)

// Server exposes the engine's read-only queries and operations over HTTP and
// keeps a bounded audit log of emitted ledger events.
type Server struct {
	engine     *vault.Engine
	log        *slog.Logger
	collateral map[string]*token.Token
	debtToken  *token.Token

	mu    sync.Mutex
	audit []*types.Event
}

// NewServer wires the HTTP surface around the engine.
func NewServer(engine *vault.Engine, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("gateway: engine required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, log: logger}, nil
}

// SetTokens wires the token contracts behind the asset registry so the
// gateway can expose the funding and allowance endpoints. Collateral tokens
// are keyed by uppercase symbol. The debt token accepts approvals only; its
// supply is controlled by the engine alone.
func (s *Server) SetTokens(collateral map[string]*token.Token, debt *token.Token) {
	s.collateral = collateral
	s.debtToken = debt
}

// Emit implements events.Emitter, recording engine events in the audit log.
func (s *Server) Emit(evt events.Event) {
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, carrier.Event())
	if len(s.audit) > auditLimit {
		s.audit = s.audit[len(s.audit)-auditLimit:]
	}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/assets", s.listAssets)
		r.Get("/events", s.listEvents)
		r.Get("/positions/{address}", s.getPosition)
		r.Get("/positions/{address}/health", s.getHealth)
		r.Get("/value/{asset}", s.getUsdValue)
		r.Get("/collateral-amount/{asset}", s.getAssetAmount)
		r.Post("/faucet", s.faucet)
		r.Post("/approve", s.approve)
		r.Post("/deposit", s.deposit)
		r.Post("/mint", s.mint)
		r.Post("/redeem", s.redeem)
		r.Post("/burn", s.burn)
		r.Post("/liquidate", s.liquidate)
		r.Post("/deposit-and-mint", s.depositAndMint)
		r.Post("/redeem-for-repayment", s.redeemForRepayment)
	})
	return r
}

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"assets": s.engine.Assets()})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := append([]*types.Event(nil), s.audit...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"events": entries})
}

func (s *Server) getPosition(w http.ResponseWriter, r *http.Request) {
	addr, err := decodeAddressParam(r, "address")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	position, err := s.engine.PositionOf(addr)
	if err != nil {
		s.writeEngineError(w, "position", err)
		return
	}
	collateral := make(map[string]string, len(position.Collateral))
	for symbol, balance := range position.Collateral {
		collateral[symbol] = balance.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":    addr.String(),
		"collateral": collateral,
		"debt":       position.Debt.String(),
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	addr, err := decodeAddressParam(r, "address")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	healthFactor, err := s.engine.HealthFactor(addr)
	if err != nil {
		s.writeEngineError(w, "health", err)
		return
	}
	totalUsd, err := s.engine.TotalCollateralUsdValue(addr)
	if err != nil {
		s.writeEngineError(w, "health", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":            addr.String(),
		"healthFactor":       healthFactor.String(),
		"collateralValueUsd": totalUsd.String(),
	})
}

func (s *Server) getUsdValue(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	amount, err := parseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	value, err := s.engine.UsdValue(asset, amount)
	if err != nil {
		s.writeEngineError(w, "value", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"asset": strings.ToUpper(asset), "usdValue": value.String()})
}

func (s *Server) getAssetAmount(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	usd, err := parseAmount(r.URL.Query().Get("usd"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := s.engine.AssetAmountForUsd(asset, usd)
	if err != nil {
		s.writeEngineError(w, "collateral-amount", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"asset": strings.ToUpper(asset), "amount": amount.String()})
}

type operationRequest struct {
	Address     string `json:"address"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	MintAmount  string `json:"mintAmount"`
	BurnAmount  string `json:"burnAmount"`
	Liquidator  string `json:"liquidator"`
	Borrower    string `json:"borrower"`
	DebtToCover string `json:"debtToCover"`
}

// faucet mints collateral to an account so deployments can fund users. Only
// registered collateral assets can be fauceted; the debt token is not
// reachable here.
func (s *Server) faucet(w http.ResponseWriter, r *http.Request) {
	s.runOperation(w, r, "faucet", func(req operationRequest) error {
		recipient, amount, err := callerAndAmount(req.Address, req.Amount)
		if err != nil {
			return err
		}
		tok, ok := s.collateral[symbolKey(req.Asset)]
		if !ok {
			return vault.ErrAssetNotSupported
		}
		if err := tok.Mint(s.engine.Address(), recipient, amount); err != nil {
			return badRequestError{err}
		}
		return nil
	})
}

// approve grants the engine an allowance over the caller's collateral or debt
// tokens, the prerequisite for deposit, burn, and liquidate.
func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	s.runOperation(w, r, "approve", func(req operationRequest) error {
		owner, amount, err := callerAndAmount(req.Address, req.Amount)
		if err != nil {
			return err
		}
		if amount.Sign() < 0 {
			return badRequestError{fmt.Errorf("allowance must be non-negative")}
		}
		tok := s.tokenFor(req.Asset)
		if tok == nil {
			return vault.ErrAssetNotSupported
		}
		tok.Approve(owner, s.engine.Address(), amount)
		return nil
	})
}

func (s *Server) tokenFor(asset string) *token.Token {
	symbol := symbolKey(asset)
	if s.debtToken != nil && symbol == s.debtToken.Symbol() {
		return s.debtToken
	}
	return s.collateral[symbol]
}

func symbolKey(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.runOperation(w, r, "deposit", func(req operationRequest) error {
		caller, amount, err := callerAndAmount(req.Address, req.Amount)
		if err != nil {
			return err
		}
		return s.engine.Deposit(caller, req.Asset, amount)
	})
}

func (s *Server) mint(w http.ResponseWriter, r *http.Request) {
	s.runOperation(w, r, "mint", func(req operationRequest) error {
		caller, amount, err := callerAndAmount(req.Address, req.Amount)
		if err != nil {
			return err
		}
		return s.engine.Mint(caller, amount)
	})
}

func (s *Server) redeem(w http.ResponseWriter, r *http.Request) {
	s.runOperation(w, r, "redeem", func(req operationRequest) error {
		caller, amount, err := callerAndAmount(req.Address, req.Amount)
		if err != nil {
			return err
		}
		return s.engine.Redeem(caller, req.Asset, amount)
	})
}

func (s *Server) burn(w http.ResponseWriter, r *http.Request) {
	s.runOperation(w, r, "burn", func(req operationRequest) error {
		caller, amount, err := callerAndAmount(req.Address, req.Amount)
		if err != nil {
			return err
		}
		return s.engine.Burn(caller, amount)
	})
}

func (s *Server) liquidate(w http.ResponseWriter, r *http.Request) {
	s.runOperation(w, r, "liquidate", func(req operationRequest) error {
		liquidator, err := crypto.DecodeAddress(strings.TrimSpace(req.Liquidator))
		if err != nil {
			return badRequestError{fmt.Errorf("invalid liquidator: %w", err)}
		}
		borrower, err := crypto.DecodeAddress(strings.TrimSpace(req.Borrower))
		if err != nil {
			return badRequestError{fmt.Errorf("invalid borrower: %w", err)}
		}
		debtToCover, err := parseAmount(req.DebtToCover)
		if err != nil {
			return err
		}
		_, err = s.engine.Liquidate(liquidator, borrower, req.Asset, debtToCover)
		return err
	})
}

func (s *Server) depositAndMint(w http.ResponseWriter, r *http.Request) {
	s.runOperation(w, r, "deposit-and-mint", func(req operationRequest) error {
		caller, collateralAmount, err := callerAndAmount(req.Address, req.Amount)
		if err != nil {
			return err
		}
		mintAmount, err := parseAmount(req.MintAmount)
		if err != nil {
			return err
		}
		return s.engine.DepositAndMint(caller, req.Asset, collateralAmount, mintAmount)
	})
}

func (s *Server) redeemForRepayment(w http.ResponseWriter, r *http.Request) {
	s.runOperation(w, r, "redeem-for-repayment", func(req operationRequest) error {
		caller, collateralAmount, err := callerAndAmount(req.Address, req.Amount)
		if err != nil {
			return err
		}
		burnAmount, err := parseAmount(req.BurnAmount)
		if err != nil {
			return err
		}
		return s.engine.RedeemForDebtRepayment(caller, req.Asset, collateralAmount, burnAmount)
	})
}

func (s *Server) runOperation(w http.ResponseWriter, r *http.Request, operation string, run func(operationRequest) error) {
	var req operationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, requestLimit)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	started := time.Now()
	err := run(req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		observability.EngineMetrics().RecordError(operation, reasonFor(err))
	}
	observability.EngineMetrics().Observe(operation, outcome, time.Since(started))
	if err != nil {
		s.log.Warn("operation failed", "operation", operation, "error", err)
		s.writeEngineError(w, operation, err)
		return
	}
	s.log.Info("operation applied", "operation", operation)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func (s *Server) writeEngineError(w http.ResponseWriter, operation string, err error) {
	writeError(w, statusFor(err), err)
}

func statusFor(err error) int {
	var bad badRequestError
	switch {
	case errors.As(err, &bad),
		errors.Is(err, vault.ErrInvalidAmount),
		errors.Is(err, vault.ErrAssetNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, vault.ErrInsufficientBalance),
		errors.Is(err, vault.ErrHealthFactorBroken),
		errors.Is(err, vault.ErrHealthFactorOK),
		errors.Is(err, vault.ErrHealthFactorNotImproved),
		errors.Is(err, vault.ErrTransferFailed),
		errors.Is(err, nativecommon.ErrReentrantCall):
		return http.StatusConflict
	case errors.Is(err, vault.ErrStalePrice),
		errors.Is(err, vault.ErrInvalidPrice),
		errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, vault.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, vault.ErrAssetNotSupported):
		return "asset_not_supported"
	case errors.Is(err, vault.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, vault.ErrHealthFactorBroken):
		return "health_factor_broken"
	case errors.Is(err, vault.ErrHealthFactorOK):
		return "health_factor_ok"
	case errors.Is(err, vault.ErrHealthFactorNotImproved):
		return "health_factor_not_improved"
	case errors.Is(err, vault.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, vault.ErrStalePrice):
		return "stale_price"
	case errors.Is(err, vault.ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, nativecommon.ErrModulePaused):
		return "module_paused"
	case errors.Is(err, nativecommon.ErrReentrantCall):
		return "reentrant_call"
	default:
		return "internal"
	}
}

func decodeAddressParam(r *http.Request, name string) (crypto.Address, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	addr, err := crypto.DecodeAddress(raw)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return addr, nil
}

func callerAndAmount(address, amount string) (crypto.Address, *big.Int, error) {
	caller, err := crypto.DecodeAddress(strings.TrimSpace(address))
	if err != nil {
		return crypto.Address{}, nil, badRequestError{fmt.Errorf("invalid address: %w", err)}
	}
	parsed, err := parseAmount(amount)
	if err != nil {
		return crypto.Address{}, nil, err
	}
	return caller, parsed, nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, badRequestError{fmt.Errorf("amount required")}
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, badRequestError{fmt.Errorf("invalid amount %q", raw)}
	}
	return amount, nil
}
