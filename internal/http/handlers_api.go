package http

import (
	"context"
	"net/http"
	"sync/atomic"

	"pfm/internal/core"
	"pfm/internal/log"
)

func (s *Server) apiContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.fetchTimeout)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.apiContext(r)
	defer cancel()

	user, err := s.provider.GetCurrentUser(ctx)
	if err != nil {
		writeProviderError(w, r, err, "get_user")
		return
	}
	writeJSON(w, r, http.StatusOK, toUserView(user))
}

func (s *Server) handleRecipients(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.apiContext(r)
	defer cancel()

	recipients, err := s.provider.GetRecipients(ctx)
	if err != nil {
		writeProviderError(w, r, err, "list_recipients")
		return
	}
	writeJSON(w, r, http.StatusOK, toRecipientViews(recipients))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.apiContext(r)
	defer cancel()

	categories, err := s.provider.GetCategories(ctx)
	if err != nil {
		writeProviderError(w, r, err, "list_categories")
		return
	}
	out := make([]categoryView, len(categories))
	for i, c := range categories {
		out[i] = categoryView{ID: c.ID, Name: c.Name, Type: string(c.Type)}
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.apiContext(r)
	defer cancel()

	txns, err := s.provider.GetRecentTransactions(ctx)
	if err != nil {
		writeProviderError(w, r, err, "list_recent_transactions")
		return
	}
	writeJSON(w, r, http.StatusOK, toTransactionViews(txns, s.now()))
}

// handleTransactions lists the ledger, optionally filtered by ?type= and
// ?category=. Both filters combine.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	categoryID := sanitizeInput(query.Get("category"))

	var typ core.TransactionType
	if raw := sanitizeInput(query.Get("type")); raw != "" {
		parsed, err := core.ParseTransactionType(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		typ = parsed
	}

	ctx, cancel := s.apiContext(r)
	defer cancel()

	var (
		txns []core.Transaction
		err  error
	)
	switch {
	case categoryID != "":
		txns, err = s.provider.GetTransactionsByCategory(ctx, categoryID)
		if err == nil && typ != "" {
			txns = core.FilterByType(txns, typ)
		}
	case typ != "":
		txns, err = s.provider.GetTransactionsByType(ctx, typ)
	default:
		txns, err = s.provider.GetAllTransactions(ctx)
	}
	if err != nil {
		writeProviderError(w, r, err, "list_transactions")
		return
	}
	writeJSON(w, r, http.StatusOK, toTransactionViews(txns, s.now()))
}

// handleTransaction serves a single transaction. Found transactions are
// kept in the lookup cache for LOOKUP_CACHE_TTL.
func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "missing transaction id")
		return
	}

	if tx, ok := s.lookupCache.Get(id); ok {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		log.FromContext(r.Context()).DebugContext(r.Context(), "Transaction cache hit", "transaction_id", id)
		writeJSON(w, r, http.StatusOK, toTransactionView(tx, s.now()))
		return
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	ctx, cancel := s.apiContext(r)
	defer cancel()

	tx, found, err := s.provider.GetTransactionByID(ctx, id)
	if err != nil {
		writeProviderError(w, r, err, "get_transaction")
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "transaction not found")
		return
	}
	s.lookupCache.Set(id, tx)
	writeJSON(w, r, http.StatusOK, toTransactionView(tx, s.now()))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.apiContext(r)
	defer cancel()

	balance, err := s.provider.CalculateBalance(ctx)
	if err != nil {
		writeProviderError(w, r, err, "calculate_balance")
		return
	}
	writeJSON(w, r, http.StatusOK, toBalanceView(balance))
}

// handleHistory serves the balance series for ?period=, default 1M.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	period := s.defaultPeriod
	if raw := sanitizeInput(r.URL.Query().Get("period")); raw != "" {
		parsed, err := core.ParseChartPeriod(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		period = parsed
	}

	ctx, cancel := s.apiContext(r)
	defer cancel()

	points, err := s.provider.GetBalanceHistory(ctx, period)
	if err != nil {
		writeProviderError(w, r, err, "get_balance_history")
		return
	}
	writeJSON(w, r, http.StatusOK, historyView{Period: period.Label(), Points: toPointViews(points)})
}
