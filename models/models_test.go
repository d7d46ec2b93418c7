package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialItemAmount(t *testing.T) {
	tests := []struct {
		name string
		item MaterialItem
		want float64
	}{
		{"numeric unit", MaterialItem{Unit: "15"}, 15},
		{"decimal unit with spaces", MaterialItem{Unit: " 2.5 "}, 2.5},
		{"unit of measure", MaterialItem{Unit: "bags"}, 0},
		{"empty", MaterialItem{}, 0},
		{"zero", MaterialItem{Unit: "0"}, 0},
		{"negative", MaterialItem{Unit: "-4"}, 0},
		{"nan", MaterialItem{Unit: "NaN"}, 0},
		{"consumed amount first", MaterialItem{Unit: "3", ConsumedAmount: 7}, 7},
		{"consumed amount with text unit", MaterialItem{Unit: "rods", ConsumedAmount: 4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Amount())
		})
	}
}

func TestMaterialItemNormalize(t *testing.T) {
	it := MaterialItem{Unit: "12"}
	it.Normalize()
	assert.Equal(t, 12.0, it.ConsumedAmount)
	assert.Empty(t, it.UnitOfMeasure)

	it = MaterialItem{Unit: " rods "}
	it.Normalize()
	assert.Equal(t, "rods", it.UnitOfMeasure)
	assert.Zero(t, it.ConsumedAmount)

	it = MaterialItem{Unit: "12", ConsumedAmount: 3}
	it.Normalize()
	assert.Equal(t, 3.0, it.ConsumedAmount, "explicit amount kept")
	assert.Equal(t, 3.0, it.Amount())
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-03-05"}`), &v))
	assert.Equal(t, "2024-03-05", v.D.String())

	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-03-05T23:30:00+07:00"}`), &v))
	assert.Equal(t, "2024-03-05", v.D.String())

	require.NoError(t, json.Unmarshal([]byte(`{"d":null}`), &v))
	assert.True(t, v.D.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"d":"05/03/2024"}`), &v))

	out, err := json.Marshal(struct {
		D Date `json:"d"`
		Z Date `json:"z"`
	}{D: MustDate("2024-03-05")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-03-05","z":null}`, string(out))
}

func TestDateScan(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want string
	}{
		{"time", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "2024-03-05"},
		{"date string", "2024-03-05", "2024-03-05"},
		{"sqlite timestamp", []byte("2024-03-05 00:00:00+00:00"), "2024-03-05"},
		{"rfc3339", "2024-03-05T00:00:00Z", "2024-03-05"},
		{"null", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, tt.want, d.String())
		})
	}

	var d Date
	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("yesterday"))
}

func TestDateValue(t *testing.T) {
	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = MustDate("2024-03-05").Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), v)
}

func TestStringList(t *testing.T) {
	l := StringList{"a.jpg", "b c.jpg"}
	v, err := l.Value()
	require.NoError(t, err)

	var back StringList
	require.NoError(t, back.Scan(v))
	assert.Equal(t, l, back)
	assert.True(t, back.Contains("b c.jpg"))
	assert.False(t, back.Contains("c.jpg"))

	out, err := json.Marshal(StringList(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestUsageLedger(t *testing.T) {
	var row MaterialTracking
	row.SetLedger(UsageLedger{"2024-03-06": 4, "2024-03-05": 6})
	row.TotalQuantity = 20
	row.UsedQuantity = row.Ledger().Sum()
	row.Recompute()

	assert.Equal(t, 10.0, row.RemainingQuantity)

	// Ledger hands out a copy
	l := row.Ledger()
	l["2024-03-07"] = 1
	assert.Len(t, row.Ledger(), 2)
}
