package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSetJSONKeepsOrder(t *testing.T) {
	doc := `{"Uncategorized": [], "Rent": ["Rent Co"], "Groceries": ["walmart", "Lidl"], "Fuel": null}`

	var rs RuleSet
	require.NoError(t, json.Unmarshal([]byte(doc), &rs))
	assert.Equal(t, []string{Uncategorized, "Rent", "Groceries", "Fuel"}, rs.Names())
	assert.Equal(t, []string{"walmart", "Lidl"}, rs[2].Keywords)
	assert.NotNil(t, rs[3].Keywords)

	out, err := json.Marshal(rs)
	require.NoError(t, err)
	assert.Equal(t, `{"Uncategorized":[],"Rent":["Rent Co"],"Groceries":["walmart","Lidl"],"Fuel":[]}`, string(out))
}

func TestRuleSetJSONRejectsNonObject(t *testing.T) {
	for _, doc := range []string{`[]`, `"x"`, `{"a": "not-a-list"}`, `{"a": [1]}`, `{"a": []`} {
		var rs RuleSet
		assert.Error(t, json.Unmarshal([]byte(doc), &rs), doc)
	}
}

func TestRuleSetJSONRepeatedKey(t *testing.T) {
	var rs RuleSet
	require.NoError(t, json.Unmarshal([]byte(`{"A": ["x"], "B": [], "A": ["y"]}`), &rs))
	assert.Equal(t, []string{"A", "B"}, rs.Names())
	assert.Equal(t, []string{"y"}, rs[0].Keywords)
}
