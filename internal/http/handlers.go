package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/gateway"
	"kakeibo/internal/services"
)

// ownerHeader identifies the budget owner. The service sits behind an
// authenticating proxy that sets it; requests without it are rejected.
const ownerHeader = "X-User-ID"

type moneyDTO struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

type balanceDTO struct {
	Spent       moneyDTO `json:"spent"`
	Remaining   moneyDTO `json:"remaining"`
	UsedPercent float64  `json:"used_percent"`
}

type categoryDTO struct {
	Category   string   `json:"category"`
	Amount     moneyDTO `json:"amount"`
	Percentage float64  `json:"percentage"`
}

type transactionDTO struct {
	Index          int       `json:"index"`
	Amount         moneyDTO  `json:"amount"`
	Kind           string    `json:"kind"`
	Category       string    `json:"category"`
	Note           string    `json:"note,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
	RunningBalance *moneyDTO `json:"running_balance,omitempty"`
}

type periodDTO struct {
	ID           int64            `json:"id"`
	Ceiling      moneyDTO         `json:"ceiling"`
	CreatedAt    time.Time        `json:"created_at"`
	Balance      balanceDTO       `json:"balance"`
	Transactions []transactionDTO `json:"transactions"`
}

type dashboardResponse struct {
	State      string        `json:"state"`
	Period     *periodDTO    `json:"period,omitempty"`
	Categories []categoryDTO `json:"categories,omitempty"`
}

type budgetRequest struct {
	Amount    string `json:"amount"`
	Confirmed bool   `json:"confirmed"`
}

type budgetConfirmResponse struct {
	State   string   `json:"state"`
	Pending moneyDTO `json:"pending"`
}

type transactionRequest struct {
	Amount     string     `json:"amount"`
	Category   string     `json:"category"`
	Kind       string     `json:"kind"`
	Note       string     `json:"note"`
	OccurredAt *time.Time `json:"occurred_at"`
}

type historyEntryDTO struct {
	PeriodID         int64            `json:"period_id"`
	Month            string           `json:"month"`
	Ceiling          moneyDTO         `json:"ceiling"`
	TotalSpent       moneyDTO         `json:"total_spent"`
	Remaining        moneyDTO         `json:"remaining"`
	TransactionCount int              `json:"transaction_count"`
	Transactions     []transactionDTO `json:"transactions"`
	Truncated        bool             `json:"truncated"`
}

type historyResponse struct {
	Entries []historyEntryDTO `json:"entries"`
}

type categoryItemDTO struct {
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
	Default bool   `json:"default"`
}

type categoriesResponse struct {
	Categories []categoryItemDTO `json:"categories"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if d, found := s.dashboardCache.Get(owner); found {
		writeJSON(w, http.StatusOK, toDashboardResponse(d))
		return
	}

	d, err := s.budget.Dashboard(r.Context(), owner)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.dashboardCache.Set(owner, *d)
	writeJSON(w, http.StatusOK, toDashboardResponse(*d))
}

// handleSetBudget drives the two-step budget flow: a request without
// the confirmed flag only validates the amount and echoes the parsed
// ceiling back for review; a confirmed request starts the new period.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := s.budget.Dashboard(r.Context(), owner)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	setup := s.budget.BeginSetup(d)
	if err := setup.Propose(req.Amount); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid budget amount")
		return
	}

	if !req.Confirmed {
		writeJSON(w, http.StatusOK, budgetConfirmResponse{
			State:   string(setup.State()),
			Pending: toMoneyDTO(setup.Pending()),
		})
		return
	}

	ceiling, err := setup.Confirm()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "budget not confirmable")
		return
	}

	period, err := s.budget.SetBudget(r.Context(), owner, ceiling)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateOwner(owner)
	writeJSON(w, http.StatusCreated, toPeriodDTO(*period))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	t := core.Transaction{
		Amount:   core.Money{Cents: cents},
		Category: strings.TrimSpace(req.Category),
		Kind:     core.ParseKind(req.Kind),
		Note:     strings.TrimSpace(req.Note),
	}
	if req.OccurredAt != nil {
		t.OccurredAt = *req.OccurredAt
	}

	period, err := s.budget.RecordTransaction(r.Context(), owner, t)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateOwner(owner)
	writeJSON(w, http.StatusCreated, toPeriodDTO(*period))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid transaction index")
		return
	}

	period, err := s.budget.RemoveTransaction(r.Context(), owner, index)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.invalidateOwner(owner)
	writeJSON(w, http.StatusOK, toPeriodDTO(*period))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	expanded := false
	switch strings.TrimSpace(r.URL.Query().Get("expanded")) {
	case "1", "true":
		expanded = true
	}

	key := historyKey(owner, expanded)
	if entries, found := s.historyCache.Get(key); found {
		writeJSON(w, http.StatusOK, toHistoryResponse(entries))
		return
	}

	entries, err := s.budget.History(r.Context(), owner, expanded)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.historyCache.Set(key, entries)
	writeJSON(w, http.StatusOK, toHistoryResponse(entries))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	categories, err := s.budget.Categories(r.Context(), owner)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoriesResponse(categories))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.budget.AddCategory(r.Context(), owner, req.Name, req.Icon, req.Color)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryItemDTO(*created))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := s.budget.RemoveCategory(r.Context(), owner, r.PathValue("name")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	categories, err := s.budget.Categories(r.Context(), owner)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoriesResponse(categories))
}

func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := strings.TrimSpace(r.Header.Get(ownerHeader))
	if owner == "" {
		writeError(w, http.StatusUnauthorized, "missing "+ownerHeader+" header")
		return "", false
	}
	return owner, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoActivePeriod):
		writeError(w, http.StatusNotFound, "no active budget period")
	case errors.Is(err, services.ErrTransactionNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, gateway.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "period owned by another user")
	case errors.Is(err, gateway.ErrCategoryExists):
		writeError(w, http.StatusConflict, "category already exists")
	case errors.Is(err, gateway.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, gateway.ErrDefaultCategory),
		errors.Is(err, core.ErrCategoryNameTooLong),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrNoteTooLong),
		errors.Is(err, core.ErrZeroTimestamp):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func toMoneyDTO(m core.Money) moneyDTO {
	return moneyDTO{Cents: m.Cents, Display: formatAmount(m.Cents)}
}

func toBalanceDTO(b core.Balance) balanceDTO {
	return balanceDTO{
		Spent:       toMoneyDTO(b.Spent),
		Remaining:   toMoneyDTO(b.Remaining),
		UsedPercent: b.UsedPercent,
	}
}

func toTransactionDTO(index int, t core.Transaction) transactionDTO {
	dto := transactionDTO{
		Index:      index,
		Amount:     toMoneyDTO(t.Amount),
		Kind:       string(t.Kind),
		Category:   t.Category,
		Note:       t.Note,
		OccurredAt: t.OccurredAt,
	}
	if t.RunningBalance != nil {
		rb := toMoneyDTO(*t.RunningBalance)
		dto.RunningBalance = &rb
	}
	return dto
}

func toPeriodDTO(p core.Period) periodDTO {
	dto := periodDTO{
		ID:           p.ID,
		Ceiling:      toMoneyDTO(p.Ceiling),
		CreatedAt:    p.CreatedAt,
		Balance:      toBalanceDTO(core.DeriveBalance(p)),
		Transactions: make([]transactionDTO, 0, len(p.Transactions)),
	}
	for i, t := range p.Transactions {
		dto.Transactions = append(dto.Transactions, toTransactionDTO(i, t))
	}
	return dto
}

func toDashboardResponse(d services.Dashboard) dashboardResponse {
	resp := dashboardResponse{State: string(d.State)}
	if d.Period != nil {
		p := toPeriodDTO(*d.Period)
		resp.Period = &p
		resp.Categories = make([]categoryDTO, 0, len(d.Categories))
		for _, c := range d.Categories {
			resp.Categories = append(resp.Categories, categoryDTO{
				Category:   c.Category,
				Amount:     toMoneyDTO(c.Amount),
				Percentage: c.Percentage,
			})
		}
	}
	return resp
}

func toCategoryItemDTO(c core.Category) categoryItemDTO {
	return categoryItemDTO{
		Name:    c.Name,
		Icon:    c.Icon,
		Color:   c.Color,
		Default: c.Default,
	}
}

func toCategoriesResponse(categories []core.Category) categoriesResponse {
	resp := categoriesResponse{Categories: make([]categoryItemDTO, 0, len(categories))}
	for _, c := range categories {
		resp.Categories = append(resp.Categories, toCategoryItemDTO(c))
	}
	return resp
}

func toHistoryResponse(entries []services.HistoryEntry) historyResponse {
	resp := historyResponse{Entries: make([]historyEntryDTO, 0, len(entries))}
	for _, e := range entries {
		dto := historyEntryDTO{
			PeriodID:         e.Summary.PeriodID,
			Month:            fmt.Sprintf("%04d-%02d", e.Summary.Year, int(e.Summary.Month)),
			Ceiling:          toMoneyDTO(e.Summary.Ceiling),
			TotalSpent:       toMoneyDTO(e.Summary.TotalSpent),
			Remaining:        toMoneyDTO(e.Summary.Remaining),
			TransactionCount: e.Summary.TransactionCount,
			Transactions:     make([]transactionDTO, 0, len(e.Transactions)),
			Truncated:        e.Truncated,
		}
		for i, t := range e.Transactions {
			dto.Transactions = append(dto.Transactions, toTransactionDTO(i, t))
		}
		resp.Entries = append(resp.Entries, dto)
	}
	return resp
}

func formatAmount(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-" + s
	}
	return s
}
