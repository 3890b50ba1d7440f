package vault

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer abstracts http.Client for ease of testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPFeed fetches round data from a JSON endpoint. The endpoint is expected
// to respond with the latest round in the form:
//
//	{"roundId": 42, "answer": "346000000000", "startedAt": 1700000000,
//	 "updatedAt": 1700000000, "answeredInRound": 42}
//
// where answer is a decimal string at the feed's fixed-point scale and the
// timestamps are unix seconds.
type HTTPFeed struct {
	client   HTTPDoer
	endpoint string
	decimals uint8
}

// NewHTTPFeed constructs a remote feed adapter. When the client is nil
// http.DefaultClient is used.
func NewHTTPFeed(client HTTPDoer, endpoint string, decimals uint8) *HTTPFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFeed{client: client, endpoint: strings.TrimSpace(endpoint), decimals: decimals}
}

func (f *HTTPFeed) LatestRoundData() (RoundData, error) {
	if f == nil || f.endpoint == "" {
		return RoundData{}, fmt.Errorf("vault oracle: http feed not configured")
	}
	req, err := http.NewRequest(http.MethodGet, f.endpoint, nil)
	if err != nil {
		return RoundData{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return RoundData{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return RoundData{}, fmt.Errorf("vault oracle: http feed status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		RoundID         int64  `json:"roundId"`
		Answer          string `json:"answer"`
		StartedAt       int64  `json:"startedAt"`
		UpdatedAt       int64  `json:"updatedAt"`
		AnsweredInRound int64  `json:"answeredInRound"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return RoundData{}, fmt.Errorf("vault oracle: http feed decode: %w", err)
	}
	answer, ok := new(big.Int).SetString(strings.TrimSpace(payload.Answer), 10)
	if !ok {
		return RoundData{}, fmt.Errorf("vault oracle: http feed invalid answer %q", payload.Answer)
	}
	round := RoundData{
		RoundID:         big.NewInt(payload.RoundID),
		Answer:          answer,
		AnsweredInRound: big.NewInt(payload.AnsweredInRound),
	}
	if payload.StartedAt > 0 {
		round.StartedAt = time.Unix(payload.StartedAt, 0)
	}
	if payload.UpdatedAt > 0 {
		round.UpdatedAt = time.Unix(payload.UpdatedAt, 0)
	}
	return round, nil
}

// Decimals reports the feed's fixed-point scale.
func (f *HTTPFeed) Decimals() uint8 {
	if f == nil {
		return 0
	}
	return f.decimals
}
