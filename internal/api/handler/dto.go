package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/api/service"
	"github.com/coop-bookkeeping/internal/domain/account"
	"github.com/coop-bookkeeping/internal/domain/audit"
	"github.com/coop-bookkeeping/internal/domain/event"
	"github.com/coop-bookkeeping/internal/domain/fiscalyear"
	"github.com/coop-bookkeeping/internal/domain/history"
	"github.com/coop-bookkeeping/internal/domain/journal"
	"github.com/coop-bookkeeping/internal/domain/shared"
	"github.com/coop-bookkeeping/internal/money"
	"github.com/coop-bookkeeping/internal/reconcile"
)

// Dates cross the API in the bookkeeping formats: m/d/Y for days, m/Y for
// archived months.
const (
	dateLayout  = "01/02/2006"
	monthLayout = "01/2006"
)

// CreateAccountRequest creates a header or an account in the chart. Headers
// carry a type (roots) or inherit their parent's; accounts always require a
// parent header.
type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Slug     string `json:"slug" binding:"required"`
	Header   bool   `json:"header,omitempty"`
	Type     int    `json:"type,omitempty" binding:"omitempty,min=1,max=8"`
	ParentID string `json:"parent_id,omitempty" binding:"omitempty,uuid"`
	Bank     bool   `json:"bank,omitempty"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Number         string `json:"number,omitempty"`
	Type           int    `json:"type"`
	TypeName       string `json:"type_name"`
	Bank           bool   `json:"bank,omitempty"`
	Active         bool   `json:"active"`
	Balance        string `json:"balance"`
	LastReconciled string `json:"last_reconciled,omitempty"`
}

// HeaderResponse represents a chart header in API responses
type HeaderResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Type     int    `json:"type"`
	TypeName string `json:"type_name"`
	ParentID string `json:"parent_id,omitempty"`
}

// ChartNodeResponse is one header of the chart tree with its subtree total.
type ChartNodeResponse struct {
	HeaderResponse
	Number   string              `json:"number"`
	Total    string              `json:"total"`
	Accounts []AccountResponse   `json:"accounts,omitempty"`
	Children []ChartNodeResponse `json:"children,omitempty"`
}

// TransactionResponse is one ledger line in API responses. Debit and credit
// are mutually exclusive formatted amounts.
type TransactionResponse struct {
	ID             string `json:"id"`
	EntryID        string `json:"entry_id"`
	Date           string `json:"date"`
	Detail         string `json:"detail,omitempty"`
	Debit          string `json:"debit,omitempty"`
	Credit         string `json:"credit,omitempty"`
	Reconciled     bool   `json:"reconciled"`
	RunningBalance string `json:"running_balance,omitempty"`
}

// TotalsResponse aggregates lines into display totals.
type TotalsResponse struct {
	Debits    string `json:"debits"`
	Credits   string `json:"credits"`
	NetChange string `json:"net_change"`
}

// LedgerResponse is an account's register over a date window.
type LedgerResponse struct {
	Account        AccountResponse       `json:"account"`
	OpeningBalance string                `json:"opening_balance"`
	Lines          []TransactionResponse `json:"lines"`
	Totals         TotalsResponse        `json:"totals"`
}

// EntryLineRequest is one submitted line of a journal entry. Amounts arrive
// as decimal strings; exactly one of debit and credit must be set.
type EntryLineRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Detail    string `json:"detail,omitempty"`
	Debit     string `json:"debit,omitempty"`
	Credit    string `json:"credit,omitempty"`
	EventID   string `json:"event_id,omitempty" binding:"omitempty,uuid"`
}

// PostEntryRequest represents a journal entry submission
type PostEntryRequest struct {
	Kind          string             `json:"kind,omitempty" binding:"omitempty,oneof=GENERAL BANK_SPENDING BANK_RECEIVING"`
	Date          string             `json:"date" binding:"required"`
	Memo          string             `json:"memo" binding:"required"`
	Comments      string             `json:"comments,omitempty"`
	EventID       string             `json:"event_id,omitempty" binding:"omitempty,uuid"`
	CheckNumber   string             `json:"check_number,omitempty"`
	ACHPayment    bool               `json:"ach_payment,omitempty"`
	Payee         string             `json:"payee,omitempty"`
	Payor         string             `json:"payor,omitempty"`
	MainAccountID string             `json:"main_account_id,omitempty" binding:"omitempty,uuid"`
	Lines         []EntryLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// TransferRequest moves an amount between two accounts as a general entry.
type TransferRequest struct {
	SourceAccountID      string `json:"source_account_id" binding:"required,uuid"`
	DestinationAccountID string `json:"destination_account_id" binding:"required,uuid"`
	Amount               string `json:"amount" binding:"required"`
	Date                 string `json:"date" binding:"required"`
	Memo                 string `json:"memo,omitempty"`
	Detail               string `json:"detail,omitempty"`
}

// EntryResponse represents a journal entry in API responses
type EntryResponse struct {
	ID          string                `json:"id"`
	Number      string                `json:"number"`
	Kind        string                `json:"kind"`
	Date        string                `json:"date"`
	Memo        string                `json:"memo"`
	Comments    string                `json:"comments,omitempty"`
	EventID     string                `json:"event_id,omitempty"`
	CheckNumber string                `json:"check_number,omitempty"`
	ACHPayment  bool                  `json:"ach_payment,omitempty"`
	Payee       string                `json:"payee,omitempty"`
	Payor       string                `json:"payor,omitempty"`
	Void        bool                  `json:"void,omitempty"`
	Lines       []TransactionResponse `json:"lines,omitempty"`
}

// ValidationErrorResponse is one recoverable rule violation; line is -1 for
// entry-level violations.
type ValidationErrorResponse struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ReconcileRequest is a reconciliation preview or commit submission.
type ReconcileRequest struct {
	StatementDate    string   `json:"statement_date" binding:"required"`
	StatementBalance *string  `json:"statement_balance,omitempty"`
	TransactionIDs   []string `json:"transaction_ids,omitempty" binding:"omitempty,dive,uuid"`
}

// ReconcileSummaryResponse is the arithmetic for a candidate selection.
type ReconcileSummaryResponse struct {
	CreditSum    string `json:"credit_sum"`
	DebitSum     string `json:"debit_sum"`
	NetChange    string `json:"net_change"`
	OutOfBalance string `json:"out_of_balance"`
	Balanced     bool   `json:"balanced"`
}

// HistoricalAccountResponse is one archived monthly figure.
type HistoricalAccountResponse struct {
	Number string `json:"number"`
	Name   string `json:"name"`
	Type   int    `json:"type"`
	Amount string `json:"amount"`
}

// MonthResponse groups one archived month into presentation tabs.
type MonthResponse struct {
	Month         string                      `json:"month"`
	Balance       []HistoricalAccountResponse `json:"balance"`
	ProfitAndLoss []HistoricalAccountResponse `json:"profit_and_loss"`
	Previous      string                      `json:"previous,omitempty"`
	Next          string                      `json:"next,omitempty"`
}

// AuditRecordResponse is one audited action from the trail.
type AuditRecordResponse struct {
	ID            string         `json:"id"`
	Action        string         `json:"action"`
	SubjectID     string         `json:"subject_id"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Detail        map[string]any `json:"detail,omitempty"`
	CreatedAt     string         `json:"created_at"`
}

// CreateEventRequest represents a request to create a new event
type CreateEventRequest struct {
	Name         string `json:"name" binding:"required"`
	Abbreviation string `json:"abbreviation" binding:"required"`
	Date         string `json:"date" binding:"required"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
}

// EventResponse represents an event in API responses
type EventResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
	Date   string `json:"date"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
}

// EventDetailResponse pairs an event with its transaction totals.
type EventDetailResponse struct {
	EventResponse
	Totals TotalsResponse        `json:"totals"`
	Lines  []TransactionResponse `json:"lines,omitempty"`
}

// CloseFiscalYearRequest asks the year-close worker to archive the books.
type CloseFiscalYearRequest struct {
	Year               int      `json:"year" binding:"required,min=1900"`
	EndMonth           int      `json:"end_month" binding:"required,min=1,max=12"`
	Period             int      `json:"period" binding:"required,oneof=12 13"`
	ExcludedAccountIDs []string `json:"excluded_account_ids,omitempty" binding:"omitempty,dive,uuid"`
}

// CloseRequestResponse acknowledges an accepted close request.
type CloseRequestResponse struct {
	RequestID   string `json:"request_id"`
	Year        int    `json:"year"`
	EndMonth    int    `json:"end_month"`
	Period      int    `json:"period"`
	RequestedAt string `json:"requested_at"`
}

// FiscalYearResponse represents a recorded fiscal year
type FiscalYearResponse struct {
	ID       string `json:"id"`
	Year     int    `json:"year"`
	EndMonth int    `json:"end_month"`
	Period   int    `json:"period"`
}

// CurrentFiscalYearResponse reports the active accounting period.
type CurrentFiscalYearResponse struct {
	Start  string              `json:"start,omitempty"`
	Latest *FiscalYearResponse `json:"latest,omitempty"`
}

func mapAccountToResponse(acc *account.Account, number string, value decimal.Decimal) AccountResponse {
	resp := AccountResponse{
		ID:       acc.ID.String(),
		Name:     acc.Name,
		Slug:     acc.Slug,
		Number:   number,
		Type:     int(acc.Type),
		TypeName: acc.Type.String(),
		Bank:     acc.Bank,
		Active:   acc.Active,
		Balance:  money.Format(value),
	}
	if acc.LastReconciled != nil {
		resp.LastReconciled = acc.LastReconciled.Format(dateLayout)
	}
	return resp
}

func mapHeaderToResponse(h *account.Header) HeaderResponse {
	resp := HeaderResponse{
		ID:       h.ID.String(),
		Name:     h.Name,
		Slug:     h.Slug,
		Type:     int(h.Type),
		TypeName: h.Type.String(),
	}
	if h.ParentID != nil {
		resp.ParentID = h.ParentID.String()
	}
	return resp
}

func mapChartNodeToResponse(node *service.ChartNode) ChartNodeResponse {
	resp := ChartNodeResponse{
		HeaderResponse: mapHeaderToResponse(node.Header),
		Number:         node.Number,
		Total:          money.Format(node.Total),
	}
	for _, a := range node.Accounts {
		resp.Accounts = append(resp.Accounts, mapAccountToResponse(a.Account, a.Number, a.Value))
	}
	for _, child := range node.Children {
		resp.Children = append(resp.Children, mapChartNodeToResponse(child))
	}
	return resp
}

func mapTransactionToResponse(line *journal.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:         line.ID.String(),
		EntryID:    line.EntryID.String(),
		Date:       line.Date.Format(dateLayout),
		Detail:     line.Detail,
		Reconciled: line.Reconciled,
	}
	switch {
	case line.IsDebit():
		resp.Debit = money.Format(line.BalanceDelta.Neg())
	case line.IsCredit():
		resp.Credit = money.Format(line.BalanceDelta)
	}
	return resp
}

func mapTotalsToResponse(totals journal.Totals) TotalsResponse {
	return TotalsResponse{
		Debits:    money.Format(totals.DebitMagnitude()),
		Credits:   money.Format(totals.CreditTotal),
		NetChange: money.Format(totals.NetChange),
	}
}

func mapEntryToResponse(entry *journal.Entry, lines []*journal.Transaction) EntryResponse {
	resp := EntryResponse{
		ID:          entry.ID.String(),
		Number:      entry.Number(),
		Kind:        string(entry.Kind),
		Date:        entry.Date.Format(dateLayout),
		Memo:        entry.Memo,
		Comments:    entry.Comments,
		CheckNumber: entry.CheckNumber,
		ACHPayment:  entry.ACHPayment,
		Payee:       entry.Payee,
		Payor:       entry.Payor,
		Void:        entry.Void,
	}
	if entry.EventID != nil {
		resp.EventID = entry.EventID.String()
	}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, mapTransactionToResponse(line))
	}
	return resp
}

func mapValidationErrors(errs []journal.ValidationError) []ValidationErrorResponse {
	mapped := make([]ValidationErrorResponse, 0, len(errs))
	for _, e := range errs {
		mapped = append(mapped, ValidationErrorResponse{Line: e.Line, Message: e.Message})
	}
	return mapped
}

func mapSummaryToResponse(summary reconcile.Summary) ReconcileSummaryResponse {
	return ReconcileSummaryResponse{
		CreditSum:    money.Format(summary.CreditSum),
		DebitSum:     money.Format(summary.DebitSum),
		NetChange:    money.Format(summary.NetChange),
		OutOfBalance: money.Format(summary.OutOfBalance),
		Balanced:     summary.Balanced(),
	}
}

func mapHistoricalToResponse(snapshot *history.HistoricalAccount) HistoricalAccountResponse {
	return HistoricalAccountResponse{
		Number: snapshot.Number,
		Name:   snapshot.Name,
		Type:   int(snapshot.Type),
		Amount: money.Format(snapshot.ValueAmount()),
	}
}

func mapMonthToResponse(view *service.MonthView) MonthResponse {
	resp := MonthResponse{
		Month:         view.Month.Format(monthLayout),
		Balance:       make([]HistoricalAccountResponse, 0, len(view.Balance)),
		ProfitAndLoss: make([]HistoricalAccountResponse, 0, len(view.ProfitAndLoss)),
	}
	for _, snapshot := range view.Balance {
		resp.Balance = append(resp.Balance, mapHistoricalToResponse(snapshot))
	}
	for _, snapshot := range view.ProfitAndLoss {
		resp.ProfitAndLoss = append(resp.ProfitAndLoss, mapHistoricalToResponse(snapshot))
	}
	if view.HasPrevious {
		resp.Previous = view.Previous.Format(monthLayout)
	}
	if view.HasNext {
		resp.Next = view.Next.Format(monthLayout)
	}
	return resp
}

func mapAuditRecordToResponse(record *audit.Record) AuditRecordResponse {
	return AuditRecordResponse{
		ID:            record.ID.String(),
		Action:        string(record.Action),
		SubjectID:     record.SubjectID.String(),
		CorrelationID: record.CorrelationID,
		Detail:        record.Detail,
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
	}
}

func mapEventToResponse(evt *event.Event) EventResponse {
	return EventResponse{
		ID:     evt.ID.String(),
		Name:   evt.Name,
		Number: evt.Number,
		Date:   evt.Date.Format(dateLayout),
		City:   evt.City,
		State:  evt.State,
	}
}

func mapCloseRequestToResponse(request *shared.CloseRequest) CloseRequestResponse {
	return CloseRequestResponse{
		RequestID:   request.RequestID.String(),
		Year:        request.Year,
		EndMonth:    request.EndMonth,
		Period:      request.Period,
		RequestedAt: request.RequestedAt.Format(time.RFC3339),
	}
}

func mapFiscalYearToResponse(fy *fiscalyear.FiscalYear) *FiscalYearResponse {
	if fy == nil {
		return nil
	}
	return &FiscalYearResponse{
		ID:       fy.ID.String(),
		Year:     fy.Year,
		EndMonth: fy.EndMonth,
		Period:   fy.Period,
	}
}
