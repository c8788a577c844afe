// Package api serves read-only HTTP views of the auction engine.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jensholdgaard/auctiond/internal/auction"
)

// Engine is the part of the auction engine the API reads from.
type Engine interface {
	Auctions() []auction.AuctionEntry
	Auction(id auction.NFTID) (*auction.AuctionData, bool)
	Deadlines() []auction.Deadline
	PendingClaim(account auction.AccountID) (auction.Balance, bool)
	BidHistorySize() uint16
	CurrentBlock() auction.BlockNumber
	CustodyAccount() auction.AccountID
}

// Balances reads free account balances.
type Balances interface {
	Balance(ctx context.Context, account string) (uint64, error)
}

// ClaimResponse is the body of GET /claims/{account}.
type ClaimResponse struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// BalanceResponse is the body of GET /balances/{account}.
type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// ChainResponse is the body of GET /chain.
type ChainResponse struct {
	Block          uint32 `json:"block"`
	BidHistorySize uint16 `json:"bid_history_size"`
	CustodyAccount string `json:"custody_account"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the engine views.
type Handler struct {
	engine   Engine
	balances Balances
	logger   *slog.Logger
}

// NewHandler returns a handler reading from engine and balances.
func NewHandler(engine Engine, balances Balances, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, balances: balances, logger: logger}
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/auctions", h.listAuctions).Methods(http.MethodGet)
	r.HandleFunc("/auctions/{id}", h.getAuction).Methods(http.MethodGet)
	r.HandleFunc("/deadlines", h.deadlines).Methods(http.MethodGet)
	r.HandleFunc("/claims/{account}", h.claim).Methods(http.MethodGet)
	r.HandleFunc("/balances/{account}", h.balance).Methods(http.MethodGet)
	r.HandleFunc("/bid-history-size", h.bidHistorySize).Methods(http.MethodGet)
	r.HandleFunc("/chain", h.chain).Methods(http.MethodGet)
}

func (h *Handler) listAuctions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Auctions())
}

func (h *Handler) getAuction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid nft id")
		return
	}
	a, ok := h.engine.Auction(auction.NFTID(id))
	if !ok {
		writeErr(w, http.StatusNotFound, auction.ErrAuctionDoesNotExist.Error())
		return
	}
	writeJSON(w, http.StatusOK, auction.AuctionEntry{NFTID: auction.NFTID(id), AuctionData: a})
}

func (h *Handler) deadlines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Deadlines())
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	amount, ok := h.engine.PendingClaim(account)
	if !ok {
		writeErr(w, http.StatusNotFound, auction.ErrClaimDoesNotExist.Error())
		return
	}
	writeJSON(w, http.StatusOK, ClaimResponse{Account: account, Amount: amount})
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	b, err := h.balances.Balance(r.Context(), account)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "reading balance",
			slog.String("account", account),
			slog.String("error", err.Error()),
		)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Account: account, Balance: b})
}

func (h *Handler) bidHistorySize(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]uint16{"bid_history_size": h.engine.BidHistorySize()})
}

func (h *Handler) chain(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ChainResponse{
		Block:          h.engine.CurrentBlock(),
		BidHistorySize: h.engine.BidHistorySize(),
		CustodyAccount: h.engine.CustodyAccount(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
