// Package api defines the JSON routes for the portfolio service, mapped 1:1
// onto the core operations.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/toman-labs/goldfolio/internal/chart"
	"github.com/toman-labs/goldfolio/internal/model"
	"github.com/toman-labs/goldfolio/internal/portfolio"
	"github.com/toman-labs/goldfolio/internal/route/util"
	"github.com/toman-labs/goldfolio/pkg/lax"
)

// InvestmentRequest is the POST body for recording a transaction.
type InvestmentRequest struct {
	UserID    int64           `json:"userId"`
	Asset     string          `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Price     decimal.Decimal `json:"price"`
	Operation string          `json:"operation"`
	Date      *time.Time      `json:"date"`
}

// TransactionPage is one page of a user's history plus the total count.
type TransactionPage struct {
	Transactions []model.Transaction `json:"transactions"`
	Page         int                 `json:"page"`
	Size         int                 `json:"size"`
	Count        int                 `json:"count"`
}

// Register attaches every API route to the router.
func Register(router *mux.Router, service *portfolio.Service) {
	router.Handle("/api/investments", lax.Wrap(lax.View{
		Post: makeCreateInvestment(service),
	}))
	router.Handle("/api/investments/{userId}", lax.Wrap(lax.View{
		Get: makeListInvestments(service),
	}))
	router.Handle("/api/investments/{userId}/page", lax.Wrap(lax.View{
		Get: makeListInvestmentsPage(service),
	}))
	router.Handle("/api/portfolio/{userId}", lax.Wrap(lax.View{
		Get: makeBalances(service),
	}))
	router.Handle("/api/portfolio/{userId}/values", lax.Wrap(lax.View{
		Get: makeValues(service),
	}))
	router.Handle("/api/portfolio/{userId}/allocation", lax.Wrap(lax.View{
		Get: makeAllocation(service),
	}))
	router.Handle("/api/portfolio/{userId}/pnl", lax.Wrap(lax.View{
		Get: makePnL(service),
	}))
	router.Handle("/api/portfolio/{userId}/valuation", lax.Wrap(lax.View{
		Get: makeValuation(service),
	}))
	router.Handle("/api/portfolio/{userId}/snapshot", lax.Wrap(lax.View{
		Post: makeSnapshotNow(service),
	}))
	router.Handle("/api/portfolio/{userId}/snapshots", lax.Wrap(lax.View{
		Get: makeListSnapshots(service),
	}))
	router.HandleFunc("/api/portfolio/{userId}/chart", makeChartHandler(service)).
		Methods("GET")
}

func userID(request *lax.Request) (int64, *lax.Response) {
	id, err := request.Int64Var("userId")

	if err != nil {
		return 0, lax.MakeNotFoundResponse()
	}

	return id, nil
}

func validateInvestment(body *InvestmentRequest) (*model.Transaction, *lax.Response) {
	var issues []lax.IssueDescription

	assetType, err := model.ParseAssetType(body.Asset)

	if err != nil {
		issues = append(issues, lax.Issue("asset", err.Error()))
	}

	operation, err := model.ParseOperation(body.Operation)

	if err != nil {
		issues = append(issues, lax.Issue("operation", err.Error()))
	}

	if body.UserID <= 0 {
		issues = append(issues, lax.Issue("userId", "missing or invalid user ID"))
	}

	if body.Amount.IsNegative() {
		issues = append(issues, lax.Issue("amount", "amount must not be negative"))
	}

	if body.Price.IsNegative() {
		issues = append(issues, lax.Issue("price", "price must not be negative"))
	}

	if len(body.Currency) == 0 {
		issues = append(issues, lax.Issue("currency", "missing payment currency"))
	}

	if len(issues) > 0 {
		return nil, lax.MakeErrorListResponse(issues...)
	}

	transaction := model.Transaction{
		UserID:    body.UserID,
		Asset:     assetType,
		Amount:    body.Amount,
		Currency:  body.Currency,
		Price:     body.Price,
		Operation: operation,
	}

	if body.Date != nil {
		transaction.Date = *body.Date
	}

	return &transaction, nil
}

func makeCreateInvestment(service *portfolio.Service) lax.MethodHandler {
	return func(request *lax.Request) any {
		body := InvestmentRequest{}

		if err := request.JSON(&body); err != nil {
			return lax.MakeBadRequestResponse(err)
		}

		transaction, errorResponse := validateInvestment(&body)

		if errorResponse != nil {
			return errorResponse
		}

		if err := service.RecordTransaction(transaction); err != nil {
			return err
		}

		return transaction
	}
}

func makeListInvestments(service *portfolio.Service) lax.MethodHandler {
	return func(request *lax.Request) any {
		id, errorResponse := userID(request)

		if errorResponse != nil {
			return errorResponse
		}

		transactions, err := service.Transactions(id)

		if err != nil {
			return err
		}

		if transactions == nil {
			transactions = []model.Transaction{}
		}

		return transactions
	}
}

func makeListInvestmentsPage(service *portfolio.Service) lax.MethodHandler {
	return func(request *lax.Request) any {
		id, errorResponse := userID(request)

		if errorResponse != nil {
			return errorResponse
		}

		page, pageErr := request.QueryInt("page", 0)
		size, sizeErr := request.QueryInt("size", 10)

		if pageErr != nil || sizeErr != nil || page < 0 || size <= 0 {
			return lax.MakeErrorListResponse(
				lax.Issue("page", "page must be a non-negative integer"),
				lax.Issue("size", "size must be a positive integer"),
			)
		}

		transactions, count, err := service.TransactionsPage(id, page, size)

		if err != nil {
			return err
		}

		if transactions == nil {
			transactions = []model.Transaction{}
		}

		return TransactionPage{
			Transactions: transactions,
			Page:         page,
			Size:         size,
			Count:        count,
		}
	}
}

func makeBalances(service *portfolio.Service) lax.MethodHandler {
	return func(request *lax.Request) any {
		id, errorResponse := userID(request)

		if errorResponse != nil {
			return errorResponse
		}

		balances, err := service.CurrentBalances(id)

		if err != nil {
			return err
		}

		return balances
	}
}

func makeValues(service *portfolio.Service) lax.MethodHandler {
	return func(request *lax.Request) any {
		id, errorResponse := userID(request)

		if errorResponse != nil {
			return errorResponse
		}

		values, err := service.CurrentValues(id)

		if err != nil {
			return err
		}

		return values
	}
}

func makeAllocation(service *portfolio.Service) lax.MethodHandler {
	return func(request *lax.Request) any {
		id, errorResponse := userID(request)

		if errorResponse != nil {
			return errorResponse
		}

		percentages, err := service.AllocationPercent(id)

		if err != nil {
			return err
		}

		return percentages
	}
}

func makePnL(service *portfolio.Service) lax.MethodHandler {
	return func(request *lax.Request) any {
		id, errorResponse := userID(request)

		if errorResponse != nil {
			return errorResponse
		}

		start, startErr := request.QueryTime("start")
		end, endErr := request.QueryTime("end")

		if startErr != nil || endErr != nil {
			return lax.MakeErrorListResponse(
				lax.Issue("start", "start must be an RFC 3339 timestamp"),
				lax.Issue("end", "end must be an RFC 3339 timestamp"),
			)
		}

		pnl, err := service.PnLByAsset(id, start, end)

		if err != nil {
			return err
		}

		return pnl
	}
}

func makeValuation(service *portfolio.Service) lax.MethodHandler {
	return func(request *lax.Request) any {
		id, errorResponse := userID(request)

		if errorResponse != nil {
			return errorResponse
		}

		summary, err := service.Valuation(id)

		if err != nil {
			return err
		}

		return summary
	}
}

func makeSnapshotNow(service *portfolio.Service) lax.MethodHandler {
	return func(request *lax.Request) any {
		id, errorResponse := userID(request)

		if errorResponse != nil {
			return errorResponse
		}

		if err := service.SnapshotNow(id); err != nil {
			return err
		}

		return lax.MakeResponse(http.StatusCreated, "Snapshot recorded")
	}
}

func makeListSnapshots(service *portfolio.Service) lax.MethodHandler {
	return func(request *lax.Request) any {
		id, errorResponse := userID(request)

		if errorResponse != nil {
			return errorResponse
		}

		start, startErr := request.QueryTime("start")
		end, endErr := request.QueryTime("end")

		if startErr != nil || endErr != nil {
			return lax.MakeErrorListResponse(
				lax.Issue("start", "start must be an RFC 3339 timestamp"),
				lax.Issue("end", "end must be an RFC 3339 timestamp"),
			)
		}

		snapshots, err := service.Snapshots(id, start, end)

		if err != nil {
			return err
		}

		if snapshots == nil {
			snapshots = []model.Snapshot{}
		}

		return snapshots
	}
}

func makeChartHandler(service *portfolio.Service) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(request)["userId"], 10, 64)

		if err != nil {
			util.RespondNotFound(writer)

			return
		}

		values, err := service.CurrentValues(id)

		if err != nil {
			util.RespondInternalServerError(writer, err)

			return
		}

		png, err := chart.RenderPie("Portfolio (Toman)", values)

		if err == chart.ErrNoData {
			util.RespondValidationError(writer, "Nothing to chart")

			return
		}

		if err != nil {
			util.RespondInternalServerError(writer, err)

			return
		}

		writer.Header().Set("Content-Type", "image/png")
		writer.Write(png)
	}
}
