package finance

import (
	"github.com/SimonSchneider/goslu/date"
	"github.com/shopspring/decimal"
)

type EntryRecorder interface {
	OnEntry(accountID string, entry LedgerEntry) error
}

type EntryRecorderFunc func(accountID string, entry LedgerEntry) error

func (f EntryRecorderFunc) OnEntry(accountID string, entry LedgerEntry) error {
	return f(accountID, entry)
}

type TransferRecorder interface {
	OnTransfer(sourceAccountID, destinationAccountID string, day date.Date, amount decimal.Decimal) error
}

type TransferRecorderFunc func(sourceAccountID, destinationAccountID string, day date.Date, amount decimal.Decimal) error

func (f TransferRecorderFunc) OnTransfer(sourceAccountID, destinationAccountID string, day date.Date, amount decimal.Decimal) error {
	return f(sourceAccountID, destinationAccountID, day, amount)
}

type Recorder interface {
	EntryRecorder
	TransferRecorder
}

// CompositeRecorder lets either half be nil.
type CompositeRecorder struct {
	EntryRecorder
	TransferRecorder
}

func (r CompositeRecorder) OnEntry(accountID string, entry LedgerEntry) error {
	if r.EntryRecorder == nil {
		return nil
	}
	return r.EntryRecorder.OnEntry(accountID, entry)
}

func (r CompositeRecorder) OnTransfer(sourceAccountID, destinationAccountID string, day date.Date, amount decimal.Decimal) error {
	if r.TransferRecorder == nil {
		return nil
	}
	return r.TransferRecorder.OnTransfer(sourceAccountID, destinationAccountID, day, amount)
}
