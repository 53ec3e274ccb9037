package repository

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"TradePilot/internal/domain/models"
	xhttp "TradePilot/pkg/http"
)

func TestSignMatchesKnownVector(t *testing.T) {
	// the worked example from the Binance signed-endpoint documentation
	c := &binanceCore{secret: "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"}
	payload := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	want := "c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71"
	if got := c.sign(payload); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestCanonicalQuerySortedAndEscaped(t *testing.T) {
	q := canonicalQuery(map[string]string{
		"symbol":    "BTCUSDT",
		"side":      "BUY",
		"quantity":  "0.5",
		"newMarker": "a b",
	})
	if q != "newMarker=a+b&quantity=0.5&side=BUY&symbol=BTCUSDT" {
		t.Fatalf("got %q", q)
	}
}

func TestTimestampStrictlyIncreasing(t *testing.T) {
	c := &binanceCore{}
	prev := int64(0)
	for i := 0; i < 1000; i++ {
		ts := c.timestamp()
		if ts <= prev {
			t.Fatalf("timestamp %d not above previous %d", ts, prev)
		}
		prev = ts
	}
}

func TestPlaceMarketOrderSignsSentQuery(t *testing.T) {
	const secret = "topsecret"
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-MBX-APIKEY")
		w.Write([]byte(`{"orderId":12345,"symbol":"BTCUSDT","status":"FILLED","executedQty":"0.5","cummulativeQuoteQty":"15000","transactTime":1700000000000}`))
	}))
	defer srv.Close()

	client := NewSpotClient(srv.URL, "api-key", secret, xhttp.NewClient(), nil, nil)
	order, err := client.PlaceMarketOrder(context.Background(), "BTCUSDT", models.SideBuy, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotKey != "api-key" {
		t.Fatalf("api key header %q", gotKey)
	}

	payload, sig, ok := strings.Cut(gotQuery, "&signature=")
	if !ok {
		t.Fatalf("query %q carries no signature", gotQuery)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	if want := hex.EncodeToString(mac.Sum(nil)); sig != want {
		t.Fatalf("signature %s does not cover the sent query", sig)
	}

	keys := make([]string, 0, 8)
	for _, pair := range strings.Split(payload, "&") {
		k, _, _ := strings.Cut(pair, "=")
		keys = append(keys, k)
	}
	if !sort.StringsAreSorted(keys) {
		t.Fatalf("query keys not canonical: %v", keys)
	}

	if order.OrderID != "12345" {
		t.Fatalf("order id %q", order.OrderID)
	}
	if order.Price != 30000 {
		t.Fatalf("fill price %f, want 30000 (quote/executed)", order.Price)
	}
}

func TestCallDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-2010,"msg":"Account has insufficient balance"}`))
	}))
	defer srv.Close()

	client := NewSpotClient(srv.URL, "k", "s", xhttp.NewClient(), nil, nil)
	_, err := client.PlaceMarketOrder(context.Background(), "BTCUSDT", models.SideBuy, 1)
	if err == nil || !strings.Contains(err.Error(), "insufficient balance") {
		t.Fatalf("got %v", err)
	}
}
