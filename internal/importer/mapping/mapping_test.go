package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestCustomerColumns(t *testing.T) {
	columns := []string{"Cust_No", "Customer Name", "Addr.", "CITY", "State", "Mobile", "GSTIN", "PAN"}

	m := Suggest(KindCustomer, columns, Options{})

	assert.Equal(t, "Cust_No", m["customer_no"])
	assert.Equal(t, "Customer Name", m["name"])
	assert.Equal(t, "Addr.", m["address"])
	assert.Equal(t, "CITY", m["city"])
	assert.Equal(t, "State", m["state"])
	assert.Equal(t, "Mobile", m["phone"])
	assert.Equal(t, "GSTIN", m["tax_id"])
	assert.Equal(t, "PAN", m["tax_reg_no"])
}

func TestSuggestIsDeterministic(t *testing.T) {
	columns := []string{"cylinder", "customer", "dispatch", "return"}

	first := Suggest(KindTransaction, columns, Options{})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Suggest(KindTransaction, columns, Options{}))
	}
}

func TestSuggestExactBeatsSubstring(t *testing.T) {
	// "customer_no_old" contains the synonym, but the exact match wins even
	// though it appears later in the column list.
	columns := []string{"customer_no_old", "customer_no"}

	m := Suggest(KindCustomer, columns, Options{})
	assert.Equal(t, "customer_no", m["customer_no"])
}

func TestSuggestExclusiveColumnsClaimOnce(t *testing.T) {
	// "contact_state" substring-matches both the state and phone fields.
	// Without exclusivity both fields map to it; with exclusivity the
	// higher-priority field claims it and phone stays unmapped.
	columns := []string{"contact_state"}

	shared := Suggest(KindCustomer, columns, Options{ExclusiveColumns: false})
	assert.Equal(t, "contact_state", shared["state"])
	assert.Equal(t, "contact_state", shared["phone"])

	exclusive := Suggest(KindCustomer, columns, Options{ExclusiveColumns: true})
	assert.Equal(t, "contact_state", exclusive["state"])
	_, phoneMapped := exclusive["phone"]
	assert.False(t, phoneMapped)
}

func TestSuggestUnmatchedFieldsAbsent(t *testing.T) {
	m := Suggest(KindCylinder, []string{"unrelated", "columns"}, Options{})
	assert.Empty(t, m)
}

func TestParseManualMapping(t *testing.T) {
	m, err := Parse(`{"customer_no": "KUNDE", "cylinder_no": "FLASCHE"}`)
	require.NoError(t, err)
	assert.Equal(t, "KUNDE", m["customer_no"])
	assert.Equal(t, "FLASCHE", m["cylinder_no"])

	_, err = Parse(`not json`)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("  Customer ")
	require.NoError(t, err)
	assert.Equal(t, KindCustomer, kind)

	_, err = ParseKind("widget")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "customerno", normalize("Customer No."))
	assert.Equal(t, "customerno", normalize("customer_no"))
	assert.Equal(t, "datereturned", normalize("Date Returned"))
}
