package web

// query.go parses list-endpoint query parameters into crm query structs.
// Malformed values fail with INVALID_QUERY rather than being ignored, so a
// typo never silently widens a result set.

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/alxcrm/crm-api/internal/crm"
	"github.com/shopspring/decimal"
)

func parsePage(r *http.Request) (crm.Page, error) {
	var page crm.Page
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, invalidParam("limit", v)
		}
		page.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, invalidParam("offset", v)
		}
		page.Offset = n
	}
	return page, nil
}

func parseSorts(r *http.Request) []crm.Sort {
	return crm.ParseSort(r.URL.Query().Get("sort"))
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, invalidParam(name, v)
	}
	return &t, nil
}

func parseDecimalParam(r *http.Request, name string) (*decimal.Decimal, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, invalidParam(name, v)
	}
	return &d, nil
}

func parseIntParam(r *http.Request, name string) (*int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, invalidParam(name, v)
	}
	return &n, nil
}

func parseInt64Param(r *http.Request, name string) (*int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, invalidParam(name, v)
	}
	return &n, nil
}

func invalidParam(name, value string) error {
	return crm.NewError(crm.KindInvalidQuery, fmt.Sprintf("invalid %s parameter: %q", name, value))
}

func parseCustomerQuery(r *http.Request) (crm.CustomerQuery, error) {
	var q crm.CustomerQuery

	page, err := parsePage(r)
	if err != nil {
		return q, err
	}
	q.Page = page
	q.Sort = parseSorts(r)

	values := r.URL.Query()
	q.Filter.NameContains = values.Get("name")
	q.Filter.EmailContains = values.Get("email")
	q.Filter.PhonePrefix = values.Get("phone_prefix")

	if q.Filter.CreatedAfter, err = parseTimeParam(r, "created_after"); err != nil {
		return q, err
	}
	if q.Filter.CreatedBefore, err = parseTimeParam(r, "created_before"); err != nil {
		return q, err
	}
	return q, nil
}

func parseProductQuery(r *http.Request) (crm.ProductQuery, error) {
	var q crm.ProductQuery

	page, err := parsePage(r)
	if err != nil {
		return q, err
	}
	q.Page = page
	q.Sort = parseSorts(r)

	q.Filter.NameContains = r.URL.Query().Get("name")

	if q.Filter.PriceMin, err = parseDecimalParam(r, "price_min"); err != nil {
		return q, err
	}
	if q.Filter.PriceMax, err = parseDecimalParam(r, "price_max"); err != nil {
		return q, err
	}
	if q.Filter.StockMin, err = parseIntParam(r, "stock_min"); err != nil {
		return q, err
	}
	if q.Filter.StockMax, err = parseIntParam(r, "stock_max"); err != nil {
		return q, err
	}
	return q, nil
}

func parseOrderQuery(r *http.Request) (crm.OrderQuery, error) {
	var q crm.OrderQuery

	page, err := parsePage(r)
	if err != nil {
		return q, err
	}
	q.Page = page
	q.Sort = parseSorts(r)

	values := r.URL.Query()
	q.Filter.CustomerName = values.Get("customer_name")
	q.Filter.ProductName = values.Get("product_name")

	if q.Filter.ProductID, err = parseInt64Param(r, "product_id"); err != nil {
		return q, err
	}
	if q.Filter.TotalMin, err = parseDecimalParam(r, "total_min"); err != nil {
		return q, err
	}
	if q.Filter.TotalMax, err = parseDecimalParam(r, "total_max"); err != nil {
		return q, err
	}
	if q.Filter.OrderedAfter, err = parseTimeParam(r, "ordered_after"); err != nil {
		return q, err
	}
	if q.Filter.OrderedBefore, err = parseTimeParam(r, "ordered_before"); err != nil {
		return q, err
	}
	return q, nil
}
