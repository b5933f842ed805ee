package gateway

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

const stellarChain = "stellar"

// StellarGateway simulates an on-chain payment: it settles locally with a
// generated transaction id and hash. Latency and failures are injectable so
// the workflow's failure paths stay testable.
type StellarGateway struct {
	// Latency delays each Initiate call to mimic network settlement.
	Latency time.Duration
	// Fail, when set, decides per request whether initiation is rejected.
	Fail func(req *Request) string
}

func NewStellarGateway() *StellarGateway {
	return &StellarGateway{}
}

func (g *StellarGateway) Provider() Provider {
	return ProviderStellar
}

func (g *StellarGateway) Initiate(ctx context.Context, req *Request) (*Result, error) {
	if g.Latency > 0 {
		select {
		case <-time.After(g.Latency):
		case <-ctx.Done():
			return &Result{Success: false, Err: ctx.Err().Error()}, nil
		}
	}
	if req.Amount.IsNegative() {
		return &Result{Success: false, Err: "amount must not be negative"}, nil
	}
	if g.Fail != nil {
		if reason := g.Fail(req); reason != "" {
			return &Result{Success: false, Err: reason}, nil
		}
	}
	txHash := "tx_" + randomToken(13)
	chain := stellarChain
	return &Result{
		Success:       true,
		TransactionID: "stx_" + randomToken(13),
		TxHash:        &txHash,
		Blockchain:    &chain,
		Method:        stellarChain,
	}, nil
}

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomToken(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range b {
		r, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = tokenAlphabet[0]
			continue
		}
		b[i] = tokenAlphabet[r.Int64()]
	}
	return string(b)
}
