package position

import (
	"fmt"
	"testing"
	"time"

	"DashSync/internal/model"
)

func ptr(v float64) *float64 { return &v }

func openSnap(id, symbol string, entry, notional float64) *model.Snapshot {
	return &model.Snapshot{
		InPosition: true,
		Position: &model.Position{
			ID:         id,
			Side:       model.SideLong,
			Symbol:     symbol,
			EntryPrice: entry,
			Notional:   notional,
		},
	}
}

func TestNext_OpenUpdateClose(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	st, tr := Next(State{}, &model.Snapshot{InPosition: false}, "AAA", t0)
	if tr != TransitionNone || st.Phase != NoPosition {
		t.Fatalf("expected no position, got %v/%v", st.Phase, tr)
	}
	if got := DisplaySymbol(st, "AAA_USDT", ""); got != "AAA" {
		t.Errorf("expected AAA displayed, got %q", got)
	}

	snap := openSnap("p1", "BBB_USDT", 10, 100)
	snap.CurrentPrice = 10
	st, tr = Next(st, snap, "AAA", t0.Add(time.Second))
	if tr != TransitionOpened {
		t.Fatalf("expected OPENED, got %v", tr)
	}
	if st.LockedSymbol != "BBB" || !st.Locked() {
		t.Errorf("expected lock on BBB, got %q locked=%v", st.LockedSymbol, st.Locked())
	}
	if !st.OpenedAt.Equal(t0.Add(time.Second)) {
		t.Errorf("expected open reference at transition, got %v", st.OpenedAt)
	}
	if st.Size != 10 {
		t.Errorf("expected derived size 10, got %v", st.Size)
	}

	upd := openSnap("p1", "BBB_USDT", 10, 100)
	upd.CurrentPrice = 11
	st, tr = Next(st, upd, "CCC", t0.Add(5*time.Second))
	if tr != TransitionUpdated {
		t.Fatalf("expected UPDATED, got %v", tr)
	}
	if st.UnrealizedPnL != 10 || !st.PnLEstimated {
		t.Errorf("expected fallback pnl 10, got %v estimated=%v", st.UnrealizedPnL, st.PnLEstimated)
	}
	if got := DisplaySymbol(st, "CCC_USDT", ""); got != "BBB" {
		t.Errorf("locked symbol must be shown, got %q", got)
	}
	if !st.OpenedAt.Equal(t0.Add(time.Second)) {
		t.Errorf("open reference must not move on update, got %v", st.OpenedAt)
	}

	st, tr = Next(st, &model.Snapshot{InPosition: false}, "CCC", t0.Add(6*time.Second))
	if tr != TransitionClosed || st.Locked() {
		t.Fatalf("expected CLOSED and unlocked, got %v locked=%v", tr, st.Locked())
	}
	if st.EntryPrice != 0 || st.Notional != 0 || st.Elapsed(t0.Add(time.Hour)) != 0 {
		t.Errorf("closed state must be cleared: %+v", st)
	}
	if got := DisplaySymbol(st, "DDD_USDT", ""); got != "DDD" {
		t.Errorf("after close the leaderboard symbol is shown, got %q", got)
	}
}

func TestNext_EntryImmutableForSameID(t *testing.T) {
	now := time.Now()
	st, _ := Next(State{}, openSnap("p1", "BBB_USDT", 10, 100), "", now)
	moved := openSnap("p1", "BBB_USDT", 10, 100)
	moved.Position.Notional = 999
	moved.Position.Symbol = "ZZZ_USDT"
	// Same explicit id: entry fields stay as captured at open.
	st, tr := Next(st, moved, "", now.Add(time.Second))
	if tr != TransitionUpdated {
		t.Fatalf("expected UPDATED, got %v", tr)
	}
	if st.Notional != 100 || st.LockedSymbol != "BBB" || st.EntryPrice != 10 {
		t.Errorf("open fields changed: %+v", st)
	}
}

func TestNext_ServerPnLPreferred(t *testing.T) {
	snap := openSnap("p1", "BBB_USDT", 10, 100)
	snap.CurrentPrice = 20
	snap.Position.UnrealizedPnL = ptr(-3.5)
	st, _ := Next(State{}, snap, "", time.Now())
	if st.UnrealizedPnL != -3.5 || st.PnLEstimated {
		t.Errorf("expected verbatim server pnl, got %v estimated=%v", st.UnrealizedPnL, st.PnLEstimated)
	}
}

func TestNext_PositionPriceOverridesSnapshotPrice(t *testing.T) {
	snap := openSnap("p1", "BBB_USDT", 10, 100)
	snap.CurrentPrice = 50 // top pair price, not the position pair
	snap.Position.CurrentPrice = ptr(9)
	snap.Position.Side = model.SideShort
	st, _ := Next(State{}, snap, "", time.Now())
	if st.CurrentPrice != 9 || st.UnrealizedPnL != 10 {
		t.Errorf("expected short pnl 10 at 9, got price=%v pnl=%v", st.CurrentPrice, st.UnrealizedPnL)
	}
}

func TestNext_IdentityChangeResetsTimerAndLock(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st, _ := Next(State{}, openSnap("A", "AAA_USDT", 1, 10), "", t0)

	tB := t0.Add(90 * time.Second)
	st, tr := Next(st, openSnap("B", "BBB_USDT", 2, 20), "", tB)
	if tr != TransitionReplaced {
		t.Fatalf("expected REPLACED, got %v", tr)
	}
	if st.ID != "B" || !st.OpenedAt.Equal(tB) {
		t.Errorf("expected reference reset to %v, got id=%s at %v", tB, st.ID, st.OpenedAt)
	}
	if st.Elapsed(tB.Add(3*time.Second)) != 3*time.Second {
		t.Errorf("elapsed must count from B, got %v", st.Elapsed(tB.Add(3*time.Second)))
	}
	if st.LockedSymbol != "BBB" || st.EntryPrice != 2 || st.Notional != 20 {
		t.Errorf("expected re-lock on BBB with new entry, got %+v", st)
	}
}

func TestNext_ServerOpenTimeAuthoritative(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	server := now.Add(-10 * time.Minute)

	snap := openSnap("p1", "BBB_USDT", 10, 100)
	snap.Position.OpenTimestamp = server.UnixMilli()
	st, _ := Next(State{}, snap, "", now)
	if !st.OpenedAt.Equal(server) {
		t.Errorf("expected server open time %v, got %v", server, st.OpenedAt)
	}

	snap2 := openSnap("p2", "BBB_USDT", 10, 100)
	snap2.Position.EntryTime = "2026-01-01T11:55:00.123456"
	st, _ = Next(State{}, snap2, "", now)
	want := time.Date(2026, 1, 1, 11, 55, 0, 123456000, time.UTC)
	if !st.OpenedAt.Equal(want) {
		t.Errorf("expected entry time %v treated as UTC, got %v", want, st.OpenedAt)
	}
}

func TestNext_DerivedIdentityWithoutServerID(t *testing.T) {
	now := time.Now()
	a := openSnap("", "BBB_USDT", 10, 100)
	a.Position.EntryTime = "2026-01-01T10:00:00"
	st, tr := Next(State{}, a, "", now)
	if tr != TransitionOpened {
		t.Fatalf("expected OPENED, got %v", tr)
	}
	again := openSnap("", "BBB_USDT", 10, 100)
	again.Position.EntryTime = "2026-01-01T10:00:00"
	again.Position.UnrealizedPnL = ptr(1)
	if _, tr := Next(st, again, "", now.Add(time.Second)); tr != TransitionUpdated {
		t.Errorf("same derived identity must update, got %v", tr)
	}
	other := openSnap("", "BBB_USDT", 10, 100)
	other.Position.EntryTime = "2026-01-01T10:05:00"
	if _, tr := Next(st, other, "", now.Add(time.Second)); tr != TransitionReplaced {
		t.Errorf("new entry time must be a new position, got %v", tr)
	}
}

func TestNext_LockFallsBackToDisplayedSymbol(t *testing.T) {
	st, _ := Next(State{}, openSnap("p1", "", 10, 100), "TOP", time.Now())
	if st.LockedSymbol != "TOP" {
		t.Errorf("expected fallback lock TOP, got %q", st.LockedSymbol)
	}
}

func TestNext_SymbolLockHoldsUnderLeaderboardChurn(t *testing.T) {
	now := time.Now()
	st, _ := Next(State{}, openSnap("p1", "LOCK_USDT", 10, 100), "X", now)
	for i := 0; i < 50; i++ {
		top := fmt.Sprintf("TOP%d_USDT", i)
		snap := openSnap("p1", "LOCK_USDT", 10, 100)
		snap.CurrentPrice = 10 + float64(i)
		st, _ = Next(st, snap, model.BaseSymbol(top), now.Add(time.Duration(i)*time.Second))
		if got := DisplaySymbol(st, top, "OTHER"); got != "LOCK" {
			t.Fatalf("step %d: displayed %q while position open", i, got)
		}
	}
}

func TestNext_ApplySameSnapshotTwice(t *testing.T) {
	now := time.Now()
	snap := openSnap("p1", "BBB_USDT", 10, 100)
	snap.CurrentPrice = 12
	first, _ := Next(State{}, snap, "", now)
	second, _ := Next(first, snap, "", now.Add(time.Second))
	if first != second {
		t.Errorf("state changed on re-apply:\n%+v\n%+v", first, second)
	}
}

func TestDisplaySymbol_FallsBackToCurrentSymbol(t *testing.T) {
	if got := DisplaySymbol(State{}, "", "ETH_USDT"); got != "ETH" {
		t.Errorf("expected ETH, got %q", got)
	}
}
