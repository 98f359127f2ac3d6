// Package bot answers the textual buy/sell/portfolio commands shared by the
// chat-style delivery adapters.
package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/toman-labs/goldfolio/internal/chart"
	"github.com/toman-labs/goldfolio/internal/model"
	"github.com/toman-labs/goldfolio/internal/portfolio"
)

const commandList = "Commands: /buy, /sell, /portfolio"
const buyUsage = "Usage: /buy <ASSET> <AMOUNT> <CURRENCY> <PRICE>"
const sellUsage = "Usage: /sell <ASSET> <AMOUNT> <CURRENCY> <PRICE>"

// Reply is the formatted outcome of one command.
type Reply struct {
	Text     string
	ChartPNG []byte
}

// Handler dispatches commands onto the portfolio service. A chat transport
// only ever sees a Reply; errors come back as reply text.
type Handler struct {
	Service *portfolio.Service
}

// Handle answers a single command for a user.
func (handler *Handler) Handle(userID int64, text string) Reply {
	text = strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, "/buy"):
		return handler.handleTrade(userID, text, model.OperationBuy, buyUsage)
	case strings.HasPrefix(text, "/sell"):
		return handler.handleTrade(userID, text, model.OperationSell, sellUsage)
	case strings.HasPrefix(text, "/portfolio"):
		return handler.handlePortfolio(userID)
	default:
		return Reply{Text: commandList}
	}
}

func (handler *Handler) handleTrade(userID int64, text string, operation model.Operation, usage string) Reply {
	parts := strings.Fields(text)

	if len(parts) < 5 {
		return Reply{Text: usage}
	}

	assetType, err := model.ParseAssetType(parts[1])

	if err != nil {
		return Reply{Text: "Error: " + err.Error()}
	}

	amount, err := decimal.NewFromString(parts[2])

	if err != nil || amount.IsNegative() {
		return Reply{Text: "Error: invalid amount " + parts[2]}
	}

	price, err := decimal.NewFromString(parts[4])

	if err != nil || price.IsNegative() {
		return Reply{Text: "Error: invalid price " + parts[4]}
	}

	transaction := model.Transaction{
		UserID:    userID,
		Asset:     assetType,
		Amount:    amount,
		Currency:  parts[3],
		Price:     price,
		Operation: operation,
	}

	if err := handler.Service.RecordTransaction(&transaction); err != nil {
		return Reply{Text: "Error: " + err.Error()}
	}

	return Reply{Text: fmt.Sprintf("Recorded %s of %s %s.", operation, amount, assetType)}
}

func (handler *Handler) handlePortfolio(userID int64) Reply {
	balances, err := handler.Service.CurrentBalances(userID)

	if err != nil {
		return Reply{Text: "Error: " + err.Error()}
	}

	if len(balances) == 0 {
		return Reply{Text: "Your portfolio is empty."}
	}

	builder := strings.Builder{}
	builder.WriteString("Portfolio:\n")

	for _, assetType := range model.AssetTypes {
		if balance, ok := balances[assetType]; ok {
			fmt.Fprintf(&builder, "%s: %s\n", assetType, balance)
		}
	}

	reply := Reply{Text: builder.String()}

	// Sold-out portfolios can still list balances with nothing to draw.
	if png, err := chart.RenderPie("Portfolio", balances); err == nil {
		reply.ChartPNG = png
	}

	return reply
}
