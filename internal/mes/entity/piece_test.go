package entity

import "testing"

func TestCanTransitionPiece(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{PieceStatusAvailable, PieceStatusAllocated, true},
		{PieceStatusAvailable, PieceStatusRejected, true},
		{PieceStatusAvailable, PieceStatusScrap, true},
		{PieceStatusAvailable, PieceStatusConsumed, false},
		{PieceStatusAvailable, PieceStatusIssued, false},
		{PieceStatusAllocated, PieceStatusIssued, true},
		{PieceStatusAllocated, PieceStatusReturned, true},
		{PieceStatusAllocated, PieceStatusRejected, false},
		{PieceStatusIssued, PieceStatusInUse, true},
		{PieceStatusIssued, PieceStatusConsumed, true},
		{PieceStatusIssued, PieceStatusReturned, true},
		{PieceStatusIssued, PieceStatusAvailable, false},
		{PieceStatusInUse, PieceStatusConsumed, true},
		{PieceStatusInUse, PieceStatusAvailable, false},
		{PieceStatusReturned, PieceStatusAvailable, true},
		{PieceStatusReturned, PieceStatusScrap, true},
		{PieceStatusReturned, PieceStatusIssued, false},
		// 终态不可逆
		{PieceStatusConsumed, PieceStatusAvailable, false},
		{PieceStatusScrap, PieceStatusAvailable, false},
		{PieceStatusRejected, PieceStatusAvailable, false},
	}
	for _, c := range cases {
		if got := CanTransitionPiece(c.from, c.to); got != c.want {
			t.Errorf("CanTransitionPiece(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsTerminalPieceStatus(t *testing.T) {
	terminal := []string{PieceStatusConsumed, PieceStatusScrap, PieceStatusRejected}
	for _, s := range terminal {
		if !IsTerminalPieceStatus(s) {
			t.Errorf("Expected %s to be terminal", s)
		}
	}
	for _, s := range []string{PieceStatusAvailable, PieceStatusAllocated, PieceStatusIssued, PieceStatusInUse, PieceStatusReturned} {
		if IsTerminalPieceStatus(s) {
			t.Errorf("Expected %s to be non-terminal", s)
		}
	}
}
