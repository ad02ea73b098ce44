package enso

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_Unmarshal(t *testing.T) {
	tests := []struct {
		in      string
		literal string
		ref     *OutputRef
	}{
		{in: `"1000"`, literal: "1000"},
		{in: `1000000000000000000000`, literal: "1000000000000000000000"},
		{in: `{"useOutputOfCallAt": 3}`, ref: &OutputRef{UseOutputOfCallAt: 3}},
		{in: `null`, literal: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var a Amount
			require.NoError(t, json.Unmarshal([]byte(tt.in), &a))
			if tt.ref != nil {
				ref, ok := a.Ref()
				require.True(t, ok)
				assert.Equal(t, *tt.ref, ref)
				_, isLiteral := a.Value()
				assert.False(t, isLiteral)
				return
			}
			v, ok := a.Value()
			require.True(t, ok)
			assert.Equal(t, tt.literal, v)
			assert.False(t, a.IsRef())
		})
	}

	var a Amount
	assert.Error(t, json.Unmarshal([]byte(`{"useOutputOfCallAt": "x"}`), &a))
	assert.Error(t, json.Unmarshal([]byte(`true`), &a))
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "42", Literal("42").String())
	assert.Equal(t, "output(1)", OutputOf(1).String())
	assert.Equal(t, "output(1)[2]", OutputOfAt(1, 2).String())
}

func TestAmount_KeepsNumberForm(t *testing.T) {
	var amounts []Amount
	require.NoError(t, json.Unmarshal([]byte(`[1000000000000000000000, "5", {"useOutputOfCallAt": 1}]`), &amounts))

	out, err := json.Marshal(amounts)
	require.NoError(t, err)
	assert.Equal(t, `[1000000000000000000000,"5",{"useOutputOfCallAt":1}]`, string(out))
}

func TestQuantity(t *testing.T) {
	var q struct {
		A Quantity `json:"a"`
		B Quantity `json:"b"`
		C Quantity `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 50, "b": "0.25", "c": null}`), &q))
	assert.Equal(t, Quantity("50"), q.A)
	assert.Equal(t, Quantity("0.25"), q.B)
	assert.Equal(t, Quantity(""), q.C)
}

func TestNum(t *testing.T) {
	in := `{"bps":25,"fee":"3000","ticks":[-276842,-275842]}`
	var v struct {
		Bps   Num   `json:"bps"`
		Fee   Num   `json:"fee"`
		Ticks []Num `json:"ticks"`
		Extra Num   `json:"extra,omitzero"`
	}
	require.NoError(t, json.Unmarshal([]byte(in), &v))
	assert.Equal(t, "25", v.Bps.String())
	assert.False(t, v.Bps.IsQuoted())
	assert.True(t, v.Fee.IsQuoted())
	assert.True(t, v.Extra.IsZero())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))

	out, err = json.Marshal([]Num{Bps(300), NumString("300")})
	require.NoError(t, err)
	assert.Equal(t, `[300,"300"]`, string(out))

	_, err = json.Marshal(NumInt(1))
	require.NoError(t, err)
	_, err = json.Marshal(Num{text: "1e"})
	assert.Error(t, err)
	assert.Error(t, json.Unmarshal([]byte(`true`), &v.Bps))
}

func TestOneOrMany(t *testing.T) {
	var single OneOrMany[Amount]
	require.NoError(t, json.Unmarshal([]byte(`"7"`), &single))
	assert.False(t, single.IsMany())
	assert.Equal(t, 1, single.Len())

	out, err := json.Marshal(single)
	require.NoError(t, err)
	assert.Equal(t, `"7"`, string(out))

	var many OneOrMany[Amount]
	require.NoError(t, json.Unmarshal([]byte(`["7", {"useOutputOfCallAt": 0}]`), &many))
	assert.True(t, many.IsMany())
	require.Equal(t, 2, many.Len())
	assert.True(t, many.Items()[1].IsRef())

	out, err = json.Marshal(many)
	require.NoError(t, err)
	assert.JSONEq(t, `["7", {"useOutputOfCallAt": 0}]`, string(out))

	var empty OneOrMany[string]
	require.NoError(t, json.Unmarshal([]byte(`[]`), &empty))
	out, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))

	items := many.Items()
	items[0] = Literal("changed")
	assert.Equal(t, "7", many.Items()[0].String(), "Items returns a copy")
}

func TestTransaction_ValueWei(t *testing.T) {
	tests := []struct {
		value   Quantity
		want    *big.Int
		wantErr bool
	}{
		{value: "", want: big.NewInt(0)},
		{value: "1000000000000000000", want: new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)},
		{value: "0x10", want: big.NewInt(16)},
		{value: "010", want: big.NewInt(10)},
		{value: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			got, err := Transaction{Value: tt.value}.ValueWei()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, tt.want.Cmp(got))
		})
	}
}

func TestTransaction_CallMsg(t *testing.T) {
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(`{
		"data": "0xdeadbeef",
		"to": "`+router.Hex()+`",
		"from": "`+wallet.Hex()+`",
		"value": "250"
	}`), &tx))

	msg, err := tx.CallMsg()
	require.NoError(t, err)
	assert.Equal(t, wallet, msg.From)
	require.NotNil(t, msg.To)
	assert.Equal(t, router, *msg.To)
	assert.Equal(t, int64(250), msg.Value.Int64())
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, msg.Data)
}
