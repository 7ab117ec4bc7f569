package utils

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DBHandler translates query-string parameters into a filtered, sorted,
// projected and paginated read against one collection. Parameters outside
// the reserved set become filters; "field[gte]"-style keys map to the
// corresponding Mongo comparison operators.
type DBHandler struct {
	params url.Values
	filter bson.M
	opts   *options.FindOptions
	meta   Meta
}

// Meta is the pagination metadata returned alongside a listing.
type Meta struct {
	Page  int `json:"page"`
	Limit int `json:"limit,omitempty"`
}

const defaultPageLimit = 5

var reservedParams = map[string]struct{}{
	"sort":   {},
	"fields": {},
	"page":   {},
	"limit":  {},
}

var comparisonOps = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

func NewDBHandler(params url.Values) *DBHandler {
	return &DBHandler{
		params: params,
		filter: bson.M{},
		opts:   options.Find(),
		meta:   Meta{Page: 1},
	}
}

// Filter turns every non-reserved parameter into an equality or comparison
// filter. Values are coerced number first, then bool, then literal string.
func (h *DBHandler) Filter() *DBHandler {
	for key, values := range h.params {
		if len(values) == 0 {
			continue
		}

		field, op := splitOperator(key)
		if _, reserved := reservedParams[field]; reserved {
			continue
		}

		if op == "" {
			h.filter[field] = coerceValue(values[0])
			continue
		}

		sub, ok := h.filter[field].(bson.M)
		if !ok {
			sub = bson.M{}
			h.filter[field] = sub
		}
		sub[op] = coerceValue(values[0])
	}

	return h
}

// Sort applies a comma-separated sort list; a "-" prefix means descending.
// Entries are applied left to right as tie-breaks.
func (h *DBHandler) Sort() *DBHandler {
	raw := h.params.Get("sort")
	if raw == "" {
		return h
	}

	sortDoc := bson.D{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		direction := 1
		if strings.HasPrefix(entry, "-") {
			direction = -1
			entry = entry[1:]
		}
		sortDoc = append(sortDoc, bson.E{Key: entry, Value: direction})
	}

	if len(sortDoc) > 0 {
		h.opts.SetSort(sortDoc)
	}

	return h
}

// Fields applies an inclusion projection from the comma-separated allow-list.
func (h *DBHandler) Fields() *DBHandler {
	raw := h.params.Get("fields")
	if raw == "" {
		return h
	}

	projection := bson.M{}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			projection[field] = 1
		}
	}

	if len(projection) > 0 {
		h.opts.SetProjection(projection)
	}

	return h
}

// Paginate activates skip/limit only when a limit is requested; without one
// the full result set is returned and the page reported as 1.
func (h *DBHandler) Paginate() *DBHandler {
	if h.params.Get("limit") == "" {
		return h
	}

	page, err := strconv.Atoi(h.params.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(h.params.Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}

	h.opts.SetSkip(int64((page - 1) * limit))
	h.opts.SetLimit(int64(limit))
	h.meta = Meta{Page: page, Limit: limit}

	return h
}

// Fetch runs the translated query. The base filter overrides anything the
// client supplied for the same fields (secrecy, route scoping).
func (h *DBHandler) Fetch(ctx context.Context, col *mongo.Collection, base bson.M, out any) (Meta, error) {
	filter := h.filter
	for key, value := range base {
		filter[key] = value
	}

	cursor, err := col.Find(ctx, filter, h.opts)
	if err != nil {
		return h.meta, err
	}

	if err := cursor.All(ctx, out); err != nil {
		return h.meta, err
	}

	return h.meta, nil
}

// FilterDoc exposes the translated filter document.
func (h *DBHandler) FilterDoc() bson.M { return h.filter }

// FindOptions exposes the translated sort/projection/pagination options.
func (h *DBHandler) FindOptions() *options.FindOptions { return h.opts }

// Metadata exposes the pagination metadata without fetching.
func (h *DBHandler) Metadata() Meta { return h.meta }

// splitOperator decomposes "price[gte]" into ("price", "$gte"). Keys without
// a recognized operator suffix are returned unchanged with an empty operator.
func splitOperator(key string) (string, string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}

	op, ok := comparisonOps[key[open+1:len(key)-1]]
	if !ok {
		return key, ""
	}
	return key[:open], op
}

func coerceValue(value string) any {
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}
