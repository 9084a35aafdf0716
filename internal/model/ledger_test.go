package model

import "testing"

func TestAmount_String(t *testing.T) {
	tests := []struct {
		amount Amount
		want   string
	}{
		{0, "0.00"},
		{500, "5.00"},
		{1000, "10.00"},
		{1050, "10.50"},
		{7, "0.07"},
		{-250, "-2.50"},
	}

	for _, tt := range tests {
		if got := tt.amount.String(); got != tt.want {
			t.Errorf("Amount(%d).String() = %q, want %q", int64(tt.amount), got, tt.want)
		}
	}
}

func TestEntryCategory_IsValid(t *testing.T) {
	for _, c := range ValidCategories {
		if !c.IsValid() {
			t.Errorf("expected %q to be valid", c)
		}
	}

	if EntryCategory("signup-bonus").IsValid() {
		t.Error("expected unknown category to be invalid")
	}
	if EntryCategory("").IsValid() {
		t.Error("expected empty category to be invalid")
	}
}

func TestLedgerEntry_IsConfirmed(t *testing.T) {
	confirmed := ConfirmationConfirmed
	rejected := ConfirmationRejected

	entry := LedgerEntry{Category: CategoryBlockchainPayment, Confirmation: &confirmed}
	if !entry.IsConfirmed() {
		t.Error("expected confirmed entry to report IsConfirmed")
	}

	entry.Confirmation = &rejected
	if entry.IsConfirmed() {
		t.Error("expected rejected entry to not report IsConfirmed")
	}

	entry.Confirmation = nil
	if entry.IsConfirmed() {
		t.Error("expected bonus entry without confirmation to not report IsConfirmed")
	}
}
