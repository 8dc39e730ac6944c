package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// CartItem is a pre-purchase line holding a snapshot of the product
type CartItem struct {
	ID              string  `json:"id"`
	ProductID       int64   `json:"product_id"`
	Product         Product `json:"product"`
	Quantity        int64   `json:"quantity"`
	ReservationDate string  `json:"reservation_date,omitempty"`
	ReservationTime string  `json:"reservation_time,omitempty"`
}

func (c CartItem) LineTotal() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(c.Quantity))
}

// CartItemID formats the line id as "<productId>-<millis>".
func CartItemID(productID, millis int64) string {
	return strconv.FormatInt(productID, 10) + "-" + strconv.FormatInt(millis, 10)
}
