package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	usdcHex   = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	wethHex   = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	walletHex = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
)

func setupAPI(t *testing.T, h http.HandlerFunc) *int32 {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("ENSO_API_KEY", "cli-key")
	t.Setenv("ENSO_BASE_URL", srv.URL)
	t.Setenv("MAX_RETRIES", "0")
	t.Setenv("REDIS_ADDR", "")
	return &calls
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPrice_Single(t *testing.T) {
	setupAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prices/137/"+usdcHex, r.URL.Path)
		assert.Equal(t, "Bearer cli-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"address":"` + usdcHex + `","price":1.0002,"decimals":6,"symbol":"USDC","timestamp":1,"confidence":0.99,"chainId":137}`))
	})

	out, err := execute(t, "price", "--chain", "137", usdcHex)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "USDC", got["symbol"])
	assert.Equal(t, "1.0002", got["price"])
	assert.Contains(t, out, "\n  \"", "output is indented")
}

func TestPrice_Multiple(t *testing.T) {
	setupAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prices/1", r.URL.Path)
		assert.Equal(t, []string{usdcHex, wethHex}, r.URL.Query()["addresses"])
		_, _ = w.Write([]byte(`[]`))
	})

	out, err := execute(t, "price", usdcHex, wethHex)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestRoute_FlagsToQuery(t *testing.T) {
	setupAPI(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/shortcuts/route", r.URL.Path)
		assert.Equal(t, "1", q.Get("chainId"))
		assert.Equal(t, walletHex, q.Get("fromAddress"))
		assert.Equal(t, []string{usdcHex}, q["tokenIn"])
		assert.Equal(t, []string{"1000000"}, q["amountIn"])
		assert.Equal(t, "delegate", q.Get("routingStrategy"))
		assert.Equal(t, "30", q.Get("slippage"))
		_, _ = w.Write([]byte(`{"route":[],"gas":"1","amountOut":"2","priceImpact":null,"createdAt":3,"tx":{"data":"0x","to":"` + walletHex + `","from":"` + walletHex + `","value":"0"}}`))
	})

	out, err := execute(t, "route", "--strategy", "delegate", "--from", walletHex,
		"--token-in", usdcHex, "--token-out", wethHex, "--amount-in", "1000000", "--slippage", "30")
	require.NoError(t, err)
	assert.Contains(t, out, `"amountOut": "2"`)
}

func TestLocalErrorsNeverReachAPI(t *testing.T) {
	calls := setupAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := execute(t, "route", "--from", walletHex, "--token-in", usdcHex, "--token-out", wethHex, "--amount-in", "1,2")
	assert.Error(t, err)

	_, err = execute(t, "approve", "--strategy", "teleport", "--from", walletHex, "--token", usdcHex, "--amount", "1")
	assert.ErrorContains(t, err, "routing strategy")

	_, err = execute(t, "price", "0x1234")
	assert.Error(t, err)

	dir := t.TempDir()
	file := filepath.Join(dir, "actions.json")
	forward := `[{"protocol":"enso","action":"route","args":{"tokenIn":"` + usdcHex + `","tokenOut":"` + wethHex +
		`","amountIn":{"useOutputOfCallAt":3},"receiver":"` + walletHex + `"}}]`
	require.NoError(t, os.WriteFile(file, []byte(forward), 0o600))
	_, err = execute(t, "bundle", "--from", walletHex, "--file", file)
	assert.Error(t, err)

	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestBundle_FromFile(t *testing.T) {
	setupAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/shortcuts/bundle", r.URL.Path)
		var body []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "balance", body[0]["action"])
		_, _ = w.Write([]byte(`{"bundle":[],"gas":"100","createdAt":1,"tx":{"data":"0x","to":"` + walletHex + `","from":"` + walletHex + `","value":"0"}}`))
	})

	file := filepath.Join(t.TempDir(), "actions.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"protocol":"enso","action":"balance","args":{"token":"`+usdcHex+`"}}]`), 0o600))

	out, err := execute(t, "bundle", "--from", walletHex, "-f", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"gas": "100"`)
}

func TestAPIErrorSurfaces(t *testing.T) {
	setupAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":400,"message":"chainId not supported"}`))
	})

	_, err := execute(t, "networks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chainId not supported")
}

func TestMissingAPIKey(t *testing.T) {
	t.Setenv("ENSO_API_KEY", "")
	_, err := execute(t, "networks")
	assert.ErrorContains(t, err, "ENSO_API_KEY")
}

func TestSpinnerWritesToStderr(t *testing.T) {
	s := newSpinner("loading")
	assert.Same(t, os.Stderr, s.WriterFile)
	assert.Equal(t, " loading", s.Suffix)
}
