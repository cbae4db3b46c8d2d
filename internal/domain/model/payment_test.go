//go:build !integration

package model_test

import (
	"testing"

	"realty-payments/internal/domain/model"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to model.PaymentStatus
		want     bool
	}{
		{model.PaymentStatusPending, model.PaymentStatusSubmitted, true},
		{model.PaymentStatusPending, model.PaymentStatusConfirmed, true},
		{model.PaymentStatusPending, model.PaymentStatusFailed, true},
		{model.PaymentStatusPending, model.PaymentStatusCancelled, true},
		{model.PaymentStatusSubmitted, model.PaymentStatusConfirmed, true},
		{model.PaymentStatusSubmitted, model.PaymentStatusFailed, true},

		// No backward edges.
		{model.PaymentStatusSubmitted, model.PaymentStatusPending, false},
		{model.PaymentStatusSubmitted, model.PaymentStatusCancelled, false},
		{model.PaymentStatusConfirmed, model.PaymentStatusPending, false},

		// Terminal states never move, in particular not between each other.
		{model.PaymentStatusConfirmed, model.PaymentStatusFailed, false},
		{model.PaymentStatusFailed, model.PaymentStatusConfirmed, false},
		{model.PaymentStatusCancelled, model.PaymentStatusConfirmed, false},
		{model.PaymentStatusFailed, model.PaymentStatusFailed, false},
	}
	for _, tc := range cases {
		if got := model.CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	terminal := []model.PaymentStatus{
		model.PaymentStatusConfirmed,
		model.PaymentStatusFailed,
		model.PaymentStatusCancelled,
	}
	for _, s := range terminal {
		if !model.Terminal(s) {
			t.Errorf("Terminal(%s) = false, want true", s)
		}
	}

	open := []model.PaymentStatus{
		model.PaymentStatusPending,
		model.PaymentStatusSubmitted,
	}
	for _, s := range open {
		if model.Terminal(s) {
			t.Errorf("Terminal(%s) = true, want false", s)
		}
	}
}
