package sui

import (
	"context"
	"fmt"
	"time"

	"github.com/rewired-gh/suimomentum/internal/logger"
	"github.com/rewired-gh/suimomentum/internal/models"
)

// TxBuilder produces unsigned transaction bytes for a route.
type TxBuilder interface {
	BuildSwap(ctx context.Context, route models.Route, sender string, maxSlippage float64) (string, error)
}

// Signer builds, signs and submits swaps. In dry-run mode the transaction is
// simulated by the node and never signed.
type Signer struct {
	key         *Keypair
	rpc         *RPCClient
	builder     TxBuilder
	maxSlippage float64
	dryRun      bool
	now         func() time.Time
}

func NewSigner(key *Keypair, rpc *RPCClient, builder TxBuilder, maxSlippage float64, dryRun bool) *Signer {
	return &Signer{
		key:         key,
		rpc:         rpc,
		builder:     builder,
		maxSlippage: maxSlippage,
		dryRun:      dryRun,
		now:         time.Now,
	}
}

// Address returns the sender address.
func (s *Signer) Address() string {
	return s.key.Address()
}

// SubmitSwap executes route on chain. A transaction whose effects report
// anything but success is an error.
func (s *Signer) SubmitSwap(ctx context.Context, route models.Route) (*models.TxReceipt, error) {
	txBytes, err := s.builder.BuildSwap(ctx, route, s.key.Address(), s.maxSlippage)
	if err != nil {
		return nil, err
	}

	if s.dryRun {
		res, err := s.rpc.DryRunTransactionBlock(ctx, txBytes)
		if err != nil {
			return nil, fmt.Errorf("dry run: %w", err)
		}
		if err := checkEffects(res.Effects); err != nil {
			return nil, err
		}
		gas := gasUsed(res.Effects)
		logger.Info("Dry run succeeded for %s (gas %d)", res.Effects.TransactionDigest, gas)
		return &models.TxReceipt{
			Digest:      res.Effects.TransactionDigest,
			Status:      res.Effects.Status.Status,
			GasUsed:     gas,
			DryRun:      true,
			SubmittedAt: s.now(),
		}, nil
	}

	sig, err := s.key.SignTransaction(txBytes)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	res, err := s.rpc.ExecuteTransactionBlock(ctx, txBytes, []string{sig})
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	if err := checkEffects(res.Effects); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", res.Digest, err)
	}

	return &models.TxReceipt{
		Digest:      res.Digest,
		Status:      res.Effects.Status.Status,
		GasUsed:     gasUsed(res.Effects),
		SubmittedAt: s.now(),
	}, nil
}

func checkEffects(effects *TransactionEffects) error {
	if effects == nil {
		return fmt.Errorf("response carried no effects")
	}
	if effects.Status.Status != "success" {
		return fmt.Errorf("on-chain status %q: %s", effects.Status.Status, effects.Status.Error)
	}
	return nil
}

// gasUsed reports 0 when the node returns unparseable gas figures.
func gasUsed(effects *TransactionEffects) int64 {
	gas, err := effects.TotalGas()
	if err != nil {
		logger.Warn("Transaction %s: %v", effects.TransactionDigest, err)
		return 0
	}
	return gas
}
