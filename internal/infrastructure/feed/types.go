package feed

import (
	"strconv"
	"strings"
	"time"

	"github.com/storeops/backend/internal/domain/order"
)

// storeTimeLayout is the store's timestamp format; *_gmt fields carry UTC
const storeTimeLayout = "2006-01-02T15:04:05"

// storeOrder is the subset of the store's order resource this service reads
type storeOrder struct {
	ID             int64           `json:"id"`
	Number         string          `json:"number"`
	Status         string          `json:"status"`
	DateCreated    string          `json:"date_created"`
	DateCreatedGMT string          `json:"date_created_gmt"`
	LineItems      []storeLineItem `json:"line_items"`
}

type storeLineItem struct {
	ProductID   int64  `json:"product_id"`
	VariationID int64  `json:"variation_id"`
	Quantity    int    `json:"quantity"`
	Name        string `json:"name"`
}

func (o storeOrder) toDomain() order.Order {
	number := o.Number
	if number == "" {
		number = strconv.FormatInt(o.ID, 10)
	}
	out := order.Order{
		ID:          strconv.FormatInt(o.ID, 10),
		Number:      number,
		Status:      order.Status(strings.ToLower(o.Status)),
		DateCreated: parseStoreTime(o.DateCreatedGMT, o.DateCreated),
		LineItems:   make([]order.LineItem, 0, len(o.LineItems)),
	}
	for _, li := range o.LineItems {
		item := order.LineItem{
			ProductID: strconv.FormatInt(li.ProductID, 10),
			Quantity:  li.Quantity,
			Name:      li.Name,
		}
		// the store reports 0 for simple products
		if li.VariationID != 0 {
			v := strconv.FormatInt(li.VariationID, 10)
			item.VariationID = &v
		}
		out.LineItems = append(out.LineItems, item)
	}
	return out
}

// parseStoreTime prefers the GMT value and falls back to the local one
func parseStoreTime(gmt, local string) time.Time {
	for _, v := range []string{gmt, local} {
		if v == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC()
		}
		if t, err := time.ParseInLocation(storeTimeLayout, v, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
