package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFilterComparisonOperators(t *testing.T) {
	params := url.Values{}
	params.Set("difficulty", "easy")
	params.Set("price[gte]", "500")
	params.Set("price[lte]", "2000")

	h := NewDBHandler(params).Filter()

	filter := h.FilterDoc()
	assert.Equal(t, "easy", filter["difficulty"])

	price, ok := filter["price"].(bson.M)
	require.True(t, ok, "price must be a comparison sub-document")
	assert.Equal(t, 500.0, price["$gte"])
	assert.Equal(t, 2000.0, price["$lte"])
}

func TestFilterValueCoercion(t *testing.T) {
	params := url.Values{}
	params.Set("duration", "7")
	params.Set("isSecret", "false")
	params.Set("slug", "the-forest-hiker")

	filter := NewDBHandler(params).Filter().FilterDoc()

	assert.Equal(t, 7.0, filter["duration"])
	assert.Equal(t, false, filter["isSecret"])
	assert.Equal(t, "the-forest-hiker", filter["slug"])
}

func TestFilterSkipsReservedParams(t *testing.T) {
	params := url.Values{}
	params.Set("sort", "-price")
	params.Set("fields", "name,price")
	params.Set("page", "2")
	params.Set("limit", "10")
	params.Set("difficulty", "medium")

	filter := NewDBHandler(params).Filter().FilterDoc()

	assert.Len(t, filter, 1)
	assert.Equal(t, "medium", filter["difficulty"])
}

func TestFilterUnknownBracketSuffixStaysLiteral(t *testing.T) {
	params := url.Values{}
	params.Set("price[ne]", "300")

	filter := NewDBHandler(params).Filter().FilterDoc()

	assert.Equal(t, 300.0, filter["price[ne]"])
	assert.NotContains(t, filter, "price")
}

func TestSortDirectionsAndTieBreaks(t *testing.T) {
	params := url.Values{}
	params.Set("sort", "-price,rating")

	opts := NewDBHandler(params).Sort().FindOptions()

	sort, ok := opts.Sort.(bson.D)
	require.True(t, ok)
	require.Len(t, sort, 2)
	assert.Equal(t, bson.E{Key: "price", Value: -1}, sort[0])
	assert.Equal(t, bson.E{Key: "rating", Value: 1}, sort[1])
}

func TestSortAbsentLeavesOptionsUntouched(t *testing.T) {
	opts := NewDBHandler(url.Values{}).Sort().FindOptions()
	assert.Nil(t, opts.Sort)
}

func TestFieldsProjection(t *testing.T) {
	params := url.Values{}
	params.Set("fields", "name,price, duration")

	opts := NewDBHandler(params).Fields().FindOptions()

	projection, ok := opts.Projection.(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"name": 1, "price": 1, "duration": 1}, projection)
}

func TestPaginateInactiveWithoutLimit(t *testing.T) {
	params := url.Values{}
	params.Set("page", "3")

	h := NewDBHandler(params).Paginate()

	opts := h.FindOptions()
	assert.Nil(t, opts.Skip)
	assert.Nil(t, opts.Limit)
	assert.Equal(t, Meta{Page: 1}, h.Metadata())
}

func TestPaginateDefaultsPageToOne(t *testing.T) {
	params := url.Values{}
	params.Set("limit", "10")

	h := NewDBHandler(params).Paginate()

	opts := h.FindOptions()
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(0), *opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)
	assert.Equal(t, Meta{Page: 1, Limit: 10}, h.Metadata())
}

func TestPaginateOffsetFromPage(t *testing.T) {
	params := url.Values{}
	params.Set("page", "3")
	params.Set("limit", "10")

	h := NewDBHandler(params).Paginate()

	assert.Equal(t, int64(20), *h.FindOptions().Skip)
	assert.Equal(t, int64(10), *h.FindOptions().Limit)
	assert.Equal(t, Meta{Page: 3, Limit: 10}, h.Metadata())
}

func TestPaginateNonNumericFallsBack(t *testing.T) {
	params := url.Values{}
	params.Set("page", "two")
	params.Set("limit", "many")

	h := NewDBHandler(params).Paginate()

	assert.Equal(t, int64(0), *h.FindOptions().Skip)
	assert.Equal(t, int64(5), *h.FindOptions().Limit)
	assert.Equal(t, Meta{Page: 1, Limit: 5}, h.Metadata())
}

func TestTranslatorFullChain(t *testing.T) {
	params, err := url.ParseQuery("difficulty=easy&price[gte]=300&sort=-price&limit=2&page=1")
	require.NoError(t, err)

	h := NewDBHandler(params).Filter().Sort().Fields().Paginate()

	filter := h.FilterDoc()
	assert.Equal(t, "easy", filter["difficulty"])
	assert.Equal(t, bson.M{"$gte": 300.0}, filter["price"])

	opts := h.FindOptions()
	assert.Equal(t, bson.D{{Key: "price", Value: -1}}, opts.Sort)
	assert.Equal(t, int64(0), *opts.Skip)
	assert.Equal(t, int64(2), *opts.Limit)
	assert.Equal(t, Meta{Page: 1, Limit: 2}, h.Metadata())
}

func TestSplitOperator(t *testing.T) {
	cases := []struct {
		key   string
		field string
		op    string
	}{
		{"price[gte]", "price", "$gte"},
		{"price[gt]", "price", "$gt"},
		{"duration[lte]", "duration", "$lte"},
		{"duration[lt]", "duration", "$lt"},
		{"price", "price", ""},
		{"price[eq]", "price[eq]", ""},
		{"[gte]", "[gte]", ""},
	}

	for _, tc := range cases {
		field, op := splitOperator(tc.key)
		assert.Equal(t, tc.field, field, tc.key)
		assert.Equal(t, tc.op, op, tc.key)
	}
}
