package vault

import (
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFeedFetchesRound(t *testing.T) {
	updatedAt := time.Now().Add(-time.Minute).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"roundId": 42, "answer": "346000000000", "startedAt": %d, "updatedAt": %d, "answeredInRound": 42}`, updatedAt, updatedAt)
	}))
	defer srv.Close()

	feed := NewHTTPFeed(srv.Client(), srv.URL, 8)
	round, err := feed.LatestRoundData()
	if err != nil {
		t.Fatalf("latest round data: %v", err)
	}
	if round.RoundID.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("unexpected round id: %s", round.RoundID)
	}
	if round.Answer.Cmp(big.NewInt(346_000_000_000)) != 0 {
		t.Fatalf("unexpected answer: %s", round.Answer)
	}

	adapter := NewFeedAdapter(feed, time.Hour)
	price, _, err := adapter.LatestPrice()
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	if want := units(3_460); price.Cmp(want) != 0 {
		t.Fatalf("unexpected normalized price: got %s want %s", price, want)
	}
}

func TestHTTPFeedRejectsBadResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/error":
			http.Error(w, "upstream down", http.StatusBadGateway)
		default:
			fmt.Fprint(w, `{"roundId": 1, "answer": "not-a-number"}`)
		}
	}))
	defer srv.Close()

	if _, err := NewHTTPFeed(srv.Client(), srv.URL+"/error", 8).LatestRoundData(); err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if _, err := NewHTTPFeed(srv.Client(), srv.URL, 8).LatestRoundData(); err == nil {
		t.Fatal("expected error for malformed answer")
	}
	if _, err := NewHTTPFeed(nil, "", 8).LatestRoundData(); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}
