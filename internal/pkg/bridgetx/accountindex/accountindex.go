package accountindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/record"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/txstore"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type RecordStore interface {
	ScanRecords(ctx context.Context, fn txstore.RecordScanFunc) error
	GetRecord(ctx context.Context, key string) (*record.Record, error)
}

type IndexOptions struct {
	Logger *zerolog.Logger
}

// Index answers "which records were sent from this account" by scanning the whole store.
// Nothing is persisted: every call costs one read per stored record.
type Index struct {
	s      RecordStore
	logger *zerolog.Logger
}

func New(s RecordStore, options *IndexOptions) *Index {
	logger := zerolog.DefaultContextLogger

	if options != nil && options.Logger != nil {
		logger = options.Logger
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Index{
		s:      s,
		logger: logger,
	}
}

// GetAccountIndexes returns the keys of the records whose sender equals account, in scan order.
func (i *Index) GetAccountIndexes(ctx context.Context, account string) (*record.KeyList, error) {
	if account == "" {
		return nil, ErrInvalidInput
	}

	keys := record.NewKeyList()

	err := i.s.ScanRecords(ctx, func(key string, rec *record.Record) (bool, error) {
		if rec.From == account {
			keys.ID = append(keys.ID, key)
		}

		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan records error: %w", err)
	}

	return keys, nil
}

// GetAccountTxs returns the records whose sender equals account, in scan order.
// Records deleted after the scan saw them are left out.
func (i *Index) GetAccountTxs(ctx context.Context, account string) (*record.TxList, error) {
	keys, err := i.GetAccountIndexes(ctx, account)
	if err != nil {
		return nil, err
	}

	txs := record.NewTxList()

	for _, key := range keys.ID {
		rec, err := i.s.GetRecord(ctx, key)
		if err != nil {
			if errors.Is(err, txstore.ErrNotFound) {
				i.logger.Debug().Str("key", key).Msg("record removed during account lookup")

				continue
			}

			return nil, fmt.Errorf("get record %s error: %w", key, err)
		}

		txs.Txs = append(txs.Txs, rec)
	}

	return txs, nil
}

// StatusTotal aggregates the records of one status.
type StatusTotal struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type Summary struct {
	Account  string                        `json:"account"`
	Count    int                           `json:"count"`
	ByStatus map[record.Status]StatusTotal `json:"byStatus"`

	// InvalidAmounts counts records whose amount is not a decimal number.
	// Their amounts are left out of the totals.
	InvalidAmounts int `json:"invalidAmounts"`
}

// GetAccountSummary counts the account's records and sums their amounts per status.
func (i *Index) GetAccountSummary(ctx context.Context, account string) (*Summary, error) {
	if account == "" {
		return nil, ErrInvalidInput
	}

	summary := &Summary{
		Account:  account,
		ByStatus: map[record.Status]StatusTotal{},
	}

	err := i.s.ScanRecords(ctx, func(key string, rec *record.Record) (bool, error) {
		if rec.From != account {
			return false, nil
		}

		summary.Count++

		total := summary.ByStatus[rec.Status]
		total.Count++

		amount, err := decimal.NewFromString(rec.Amount)
		if err != nil {
			i.logger.Debug().Str("key", key).Str("amount", rec.Amount).Msg("amount is not a decimal")

			summary.InvalidAmounts++
		} else {
			total.Amount = total.Amount.Add(amount)
		}

		summary.ByStatus[rec.Status] = total

		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan records error: %w", err)
	}

	return summary, nil
}
