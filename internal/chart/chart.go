// Package chart renders portfolio pie charts for the delivery adapters.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/toman-labs/goldfolio/internal/model"
	"github.com/wcharczuk/go-chart/v2"
)

// ErrNoData is returned when nothing has a positive value to draw.
var ErrNoData = errors.New("no chart data")

// RenderPie draws a PNG pie of the positive entries, each slice labelled
// with the asset name, its grouped value, and its share of the total.
func RenderPie(title string, totals map[model.AssetType]decimal.Decimal) ([]byte, error) {
	total := decimal.Zero

	for _, assetType := range model.AssetTypes {
		if value, ok := totals[assetType]; ok && value.IsPositive() {
			total = total.Add(value)
		}
	}

	if !total.IsPositive() {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(totals))

	for _, assetType := range model.AssetTypes {
		value, ok := totals[assetType]

		if !ok || !value.IsPositive() {
			continue
		}

		share := value.DivRound(total, 6).Mul(decimal.NewFromInt(100)).Round(1)
		label := fmt.Sprintf(
			"%s (%s, %s%%)",
			assetType,
			groupDigits(value.Round(0).String()),
			share,
		)
		values = append(values, chart.Value{Label: label, Value: value.InexactFloat64()})
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  800,
		Height: 600,
		Values: values,
	}

	buffer := &bytes.Buffer{}

	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// groupDigits inserts thousands separators into a plain integer string.
func groupDigits(number string) string {
	sign := ""

	if strings.HasPrefix(number, "-") {
		sign = "-"
		number = number[1:]
	}

	var groups []string

	for len(number) > 3 {
		groups = append([]string{number[len(number)-3:]}, groups...)
		number = number[:len(number)-3]
	}

	groups = append([]string{number}, groups...)

	return sign + strings.Join(groups, ",")
}
