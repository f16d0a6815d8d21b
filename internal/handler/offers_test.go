package handler

import (
	"testing"

	"promotions/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOfferQueriesPreservesOrder(t *testing.T) {
	queries, err := parseOfferQueries("3=300&1=100&2=200")
	require.NoError(t, err)
	assert.Equal(t, []service.OfferQuery{
		{ProductID: "3", Price: "300"},
		{ProductID: "1", Price: "100"},
		{ProductID: "2", Price: "200"},
	}, queries)
}

func TestParseOfferQueriesKeepsRawValues(t *testing.T) {
	// Parse failures are reported per entry downstream, so malformed values
	// pass through untouched.
	queries, err := parseOfferQueries("101=oops&pencil=50")
	require.NoError(t, err)
	assert.Equal(t, []service.OfferQuery{
		{ProductID: "101", Price: "oops"},
		{ProductID: "pencil", Price: "50"},
	}, queries)
}

func TestParseOfferQueriesEmptyAndMissingValues(t *testing.T) {
	queries, err := parseOfferQueries("")
	require.NoError(t, err)
	assert.Empty(t, queries)

	queries, err = parseOfferQueries("101")
	require.NoError(t, err)
	assert.Equal(t, []service.OfferQuery{{ProductID: "101", Price: ""}}, queries)
}

func TestParseOfferQueriesBadEscape(t *testing.T) {
	_, err := parseOfferQueries("10%zz=100")
	assert.Error(t, err)
}
