// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package frontend

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/server/router"

	"github.com/tim-polodev/stock-api/internal/auth"
	"github.com/tim-polodev/stock-api/internal/controller"
	"github.com/tim-polodev/stock-api/internal/database"
	"github.com/tim-polodev/stock-api/internal/model"
	"github.com/tim-polodev/stock-api/internal/quotes"
)

const (
	defaultQuotesLimit = 30
	maxQuotesLimit     = 1000
	maxBodyBytes       = 1 << 20
)

// ServiceClients contains the clients the handlers depend on.
type ServiceClients struct {
	DB        *sql.DB
	Fetcher   quotes.Fetcher
	Publisher controller.EventPublisher
}

// Server holds the HTTP handlers of the stock API.
type Server struct {
	ServiceClients ServiceClients
}

// NewServer returns a new Server.
func NewServer(clients ServiceClients) *Server {
	return &Server{ServiceClients: clients}
}

// InstallHandlers installs the stock API routes on r behind mc.
func InstallHandlers(s *Server, r *router.Router, mc router.MiddlewareChain) {
	r.GET("/health", mc, s.HealthHandler)
	r.POST("/stocks/sync", mc, s.SyncStockHandler)
	r.GET("/stocks", mc, s.ListSymbolsHandler)
	r.GET("/stocks/:symbol", mc, s.ListQuotesHandler)
	r.GET("/me", mc, s.CurrentUserHandler)
}

// SyncStockHandler serves POST /stocks/sync.
func (s *Server) SyncStockHandler(c *router.Context) {
	ctx := c.Request.Context()

	var req controller.SyncRequest
	if err := decodeSyncRequest(c.Request.Body, &req); err != nil {
		auth.WriteError(ctx, c.Writer, http.StatusUnprocessableEntity, err.Error())
		return
	}
	logging.Debugf(ctx, "SyncStockHandler: received SyncRequest %v", req)

	res, err := controller.SyncStock(ctx, s.ServiceClients.DB, s.ServiceClients.Fetcher, s.ServiceClients.Publisher, req, "api")
	switch {
	case err == nil:
		writeJSON(c, http.StatusOK, res)
	case controller.IsInvalidRequest(err):
		auth.WriteError(ctx, c.Writer, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, controller.ErrStockNotFound):
		auth.WriteError(ctx, c.Writer, http.StatusNotFound, controller.ErrStockNotFound.Error())
	default:
		logging.Errorf(ctx, "SyncStockHandler: failed to sync %s: %s", req.Symbol, err)
		auth.WriteError(ctx, c.Writer, http.StatusInternalServerError, err.Error())
	}
}

// decodeSyncRequest reads a JSON body with both fields present.
func decodeSyncRequest(body io.Reader, req *controller.SyncRequest) error {
	var raw struct {
		Symbol *string `json:"symbol"`
		Period *string `json:"period"`
	}
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&raw); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	switch {
	case raw.Symbol == nil:
		return errors.New("field required: symbol")
	case raw.Period == nil:
		return errors.New("field required: period")
	}
	req.Symbol, req.Period = *raw.Symbol, *raw.Period
	return nil
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HealthHandler serves GET /health. It always answers 200 and reports the
// database state in the body.
func (s *Server) HealthHandler(c *router.Context) {
	ctx := c.Request.Context()
	if err := database.Ping(ctx, s.ServiceClients.DB); err != nil {
		logging.Warningf(ctx, "HealthHandler: database ping failed: %s", err)
		writeJSON(c, http.StatusOK, healthResponse{Status: "unhealthy", Database: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, healthResponse{Status: "healthy", Database: "connected"})
}

// ListSymbolsHandler serves GET /stocks.
func (s *Server) ListSymbolsHandler(c *router.Context) {
	ctx := c.Request.Context()
	symbols, err := model.ListSymbols(ctx, s.ServiceClients.DB)
	if err != nil {
		auth.WriteError(ctx, c.Writer, http.StatusInternalServerError, err.Error())
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"symbols": symbols})
}

// ListQuotesHandler serves GET /stocks/:symbol?limit=N.
func (s *Server) ListQuotesHandler(c *router.Context) {
	ctx := c.Request.Context()
	symbol := quotes.NormalizeSymbol(c.Params.ByName("symbol"))

	limit := defaultQuotesLimit
	if raw := c.Request.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxQuotesLimit {
			auth.WriteError(ctx, c.Writer, http.StatusUnprocessableEntity, "limit must be an integer between 1 and 1000")
			return
		}
		limit = n
	}

	qs, err := model.ListStockQuotes(ctx, s.ServiceClients.DB, symbol, limit)
	if err != nil {
		auth.WriteError(ctx, c.Writer, http.StatusInternalServerError, err.Error())
		return
	}
	if qs == nil {
		qs = []model.StockQuote{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"symbol": symbol, "quotes": qs})
}

// CurrentUserHandler serves GET /me.
func (s *Server) CurrentUserHandler(c *router.Context) {
	ctx := c.Request.Context()
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		status, detail := http.StatusUnauthorized, "Not authenticated"
		if e, ok := err.(*auth.Error); ok {
			status, detail = e.Status, e.Detail
		}
		auth.WriteError(ctx, c.Writer, status, detail)
		return
	}
	writeJSON(c, http.StatusOK, user)
}

func writeJSON(c *router.Context, status int, v any) {
	c.Writer.Header().Set("Content-Type", "application/json")
	c.Writer.WriteHeader(status)
	if err := json.NewEncoder(c.Writer).Encode(v); err != nil {
		logging.Errorf(c.Request.Context(), "writeJSON: failed to write response: %s", err)
	}
}
