package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusBadRequest, MetadataFor(CodeValidation).HTTPStatus)
	require.Equal(t, http.StatusConflict, MetadataFor(CodeInsufficientStock).HTTPStatus)
	require.True(t, MetadataFor(CodeInsufficientStock).DetailsAllowed)
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("NOPE"))
	require.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestAsUnwrapsWrappedError(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("boom")
	err := fmt.Errorf("outer: %w", Wrap(CodeDependency, cause, "dependency failed"))

	typed := As(err)
	require.NotNil(t, typed)
	require.Equal(t, CodeDependency, typed.Code())
	require.ErrorIs(t, typed, cause)
}

func TestAsReturnsNilForPlainError(t *testing.T) {
	t.Parallel()

	require.Nil(t, As(fmt.Errorf("plain")))
	require.Nil(t, As(nil))
}

func TestInsufficientStockCarriesItems(t *testing.T) {
	t.Parallel()

	err := InsufficientStock([]ItemShortfall{{SKU: "BPC-157", Requested: 5, Available: 2}})
	require.Equal(t, CodeInsufficientStock, err.Code())

	details, ok := err.Details().(map[string]any)
	require.True(t, ok)
	items, ok := details["items"].([]ItemShortfall)
	require.True(t, ok)
	require.Len(t, items, 1)
	require.Equal(t, 5, items[0].Requested)
}
