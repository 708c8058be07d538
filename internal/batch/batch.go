// Package batch classifies the per-unit outcomes of best-effort batch runs.
//
// A batch never fails as a whole: every unit ends up succeeded, passed over
// (skipped or blocked, which is not an error) or failed, and Reduce folds
// the outcomes into a report. Iteration and I/O stay with the caller.
package batch

import (
	apperrors "agencyledger/internal/errors"
)

// Kind is the classification of a single unit of work.
type Kind int

const (
	Succeeded Kind = iota
	PassedOver
	Failed
)

// Entry describes a unit that did not succeed.
type Entry struct {
	ID     string `json:"id"`
	Label  string `json:"label,omitempty"`
	Reason string `json:"reason"`
	Code   string `json:"code,omitempty"`
}

// Outcome is the result of processing one unit.
type Outcome[T any] struct {
	Kind  Kind
	Item  T
	Entry Entry
}

// Success records a unit that produced item.
func Success[T any](item T) Outcome[T] {
	return Outcome[T]{Kind: Succeeded, Item: item}
}

// Pass records a unit that was deliberately left alone.
func Pass[T any](id, label, reason string) Outcome[T] {
	return Outcome[T]{Kind: PassedOver, Entry: Entry{ID: id, Label: label, Reason: reason}}
}

// PassErr records a unit that was left alone because of a domain outcome
// reported as an error, keeping the error's code.
func PassErr[T any](id, label string, err error) Outcome[T] {
	return Outcome[T]{Kind: PassedOver, Entry: Entry{ID: id, Label: label, Reason: err.Error(), Code: apperrors.Code(err)}}
}

// Fail records a unit that failed with err.
func Fail[T any](id, label string, err error) Outcome[T] {
	return Outcome[T]{Kind: Failed, Entry: Entry{ID: id, Label: label, Reason: err.Error(), Code: apperrors.Code(err)}}
}

// Result is the three-way fold of a batch's outcomes.
type Result[T any] struct {
	Succeeded []T
	Passed    []Entry
	Failed    []Entry
}

// Total returns the number of units the result accounts for.
func (r Result[T]) Total() int {
	return len(r.Succeeded) + len(r.Passed) + len(r.Failed)
}

// Reduce folds outcomes in order. The returned slices are never nil so they
// serialize as empty JSON arrays.
func Reduce[T any](outcomes []Outcome[T]) Result[T] {
	res := Result[T]{
		Succeeded: []T{},
		Passed:    []Entry{},
		Failed:    []Entry{},
	}
	for _, o := range outcomes {
		switch o.Kind {
		case Succeeded:
			res.Succeeded = append(res.Succeeded, o.Item)
		case PassedOver:
			res.Passed = append(res.Passed, o.Entry)
		default:
			res.Failed = append(res.Failed, o.Entry)
		}
	}
	return res
}
