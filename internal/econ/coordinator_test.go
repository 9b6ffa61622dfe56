package econ

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"citydesk/internal/cityapi"
)

func newTestCoordinator(invalidations *int) (*Coordinator, *Notices) {
	notices := NewNotices(time.Minute, nil)
	coord := NewCoordinator(notices, func() {
		if invalidations != nil {
			*invalidations++
		}
	})
	return coord, notices
}

func TestValidateTransferBlocksSilently(t *testing.T) {
	coord, notices := newTestCoordinator(nil)
	cases := []struct{ from, to, qty int }{
		{0, 2, 5},  // sender unset
		{1, 0, 5},  // receiver unset
		{1, 2, 0},  // quantity not positive
		{1, 2, -3}, // quantity negative
	}
	for _, tc := range cases {
		if coord.ValidateTransfer(tc.from, tc.to, tc.qty) {
			t.Errorf("expected silent block for %+v", tc)
		}
	}
	if notices.Error() != "" || notices.Success() != "" {
		t.Errorf("silent blocks must not set notices, got %q / %q", notices.Error(), notices.Success())
	}
}

func TestValidateTransferRejectsSelfTransferVisibly(t *testing.T) {
	coord, notices := newTestCoordinator(nil)
	if coord.ValidateTransfer(3, 3, 5) {
		t.Fatal("self transfer must be rejected")
	}
	if notices.Error() != MsgSelfTransfer {
		t.Errorf("expected %q, got %q", MsgSelfTransfer, notices.Error())
	}
}

func TestSubmitSuccessSetsNoticeAndInvalidatesOnce(t *testing.T) {
	invalidations := 0
	coord, notices := newTestCoordinator(&invalidations)
	notices.SetError("stale error")

	out, executed := coord.Submit(context.Background(), Action{
		Control: "transfer",
		Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
			return cityapi.ActionOutcome{OK: true, Reason: "转移 5 flour 成功"}, nil
		},
		Success: TransferSuccess,
	})
	if !executed || !out.OK {
		t.Fatalf("expected executed success, got executed=%v out=%+v", executed, out)
	}
	if invalidations != 1 {
		t.Errorf("expected exactly one overview invalidation, got %d", invalidations)
	}
	if notices.Success() != "转移 5 flour 成功" {
		t.Errorf("unexpected success notice %q", notices.Success())
	}
	if notices.Error() != "" {
		t.Errorf("success must clear prior error, got %q", notices.Error())
	}
	if coord.Busy("transfer") {
		t.Error("guard not released after success")
	}
}

func TestSubmitRejectionMapsKnownReason(t *testing.T) {
	invalidations := 0
	coord, notices := newTestCoordinator(&invalidations)

	out, executed := coord.Submit(context.Background(), Action{
		Control: "purchase",
		Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
			return cityapi.ActionOutcome{OK: false, Reason: "already_owned"}, nil
		},
		Reasons: PurchaseReasons,
	})
	if !executed || out.OK {
		t.Fatalf("expected executed rejection, got executed=%v out=%+v", executed, out)
	}
	if notices.Error() != "已拥有该物品" {
		t.Errorf("expected mapped reason, got %q", notices.Error())
	}
	if invalidations != 0 {
		t.Errorf("rejection must not invalidate overview, got %d", invalidations)
	}
}

func TestSubmitRejectionPassesUnknownReasonVerbatim(t *testing.T) {
	coord, notices := newTestCoordinator(nil)
	coord.Submit(context.Background(), Action{
		Control: "checkin",
		Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
			return cityapi.ActionOutcome{OK: false, Reason: "quota_exhausted"}, nil
		},
		Reasons: CheckInReasons,
	})
	if notices.Error() != "quota_exhausted" {
		t.Errorf("unknown code must pass through verbatim, got %q", notices.Error())
	}
}

func TestSubmitTransportFailureUsesRawErrorText(t *testing.T) {
	coord, notices := newTestCoordinator(nil)
	coord.Submit(context.Background(), Action{
		Control: "transfer",
		Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
			return cityapi.ActionOutcome{}, errors.New("request failed: connection refused")
		},
	})
	if notices.Error() != "request failed: connection refused" {
		t.Errorf("expected raw error text, got %q", notices.Error())
	}
	if coord.Busy("transfer") {
		t.Error("guard not released after transport failure")
	}
}

func TestSubmitGuardBlocksConcurrentSameControl(t *testing.T) {
	coord, _ := newTestCoordinator(nil)
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		coord.Submit(context.Background(), Action{
			Control: "transfer",
			Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
				close(started)
				<-release
				return cityapi.ActionOutcome{OK: true, Reason: "ok"}, nil
			},
		})
	}()

	<-started
	if !coord.Busy("transfer") {
		t.Error("control should report busy while in flight")
	}
	if _, executed := coord.Submit(context.Background(), Action{
		Control: "transfer",
		Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
			t.Error("duplicate submission must not issue a request")
			return cityapi.ActionOutcome{}, nil
		},
	}); executed {
		t.Error("expected duplicate submission to be a no-op")
	}

	// A different control interleaves freely.
	if _, executed := coord.Submit(context.Background(), Action{
		Control: "checkin",
		Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
			return cityapi.ActionOutcome{OK: true, Reason: "ok"}, nil
		},
	}); !executed {
		t.Error("independent control must not be blocked")
	}

	close(release)
	wg.Wait()
	if coord.Busy("transfer") {
		t.Error("guard not released after completion")
	}
}

func TestPurchaseScenarioMessages(t *testing.T) {
	coord, notices := newTestCoordinator(nil)

	// Agent with 100 credits buys an item priced 60.
	coord.Submit(context.Background(), Action{
		Control: "purchase",
		Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
			return cityapi.ActionOutcome{OK: true, Price: 60, RemainingCredits: 40}, nil
		},
		Reasons: PurchaseReasons,
		Success: PurchaseSuccess,
	})
	if got := notices.Success(); got != "购买成功！花费 60 信用点，剩余 40" {
		t.Errorf("unexpected success message %q", got)
	}

	// Buying the same item again is rejected by the backend.
	coord.Submit(context.Background(), Action{
		Control: "purchase",
		Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
			return cityapi.ActionOutcome{OK: false, Reason: "already_owned"}, nil
		},
		Reasons: PurchaseReasons,
		Success: PurchaseSuccess,
	})
	if got := notices.Error(); got != "已拥有该物品" {
		t.Errorf("unexpected error message %q", got)
	}
}

func TestCheckInSuccessMessage(t *testing.T) {
	out := cityapi.ActionOutcome{OK: true, Reward: 10}
	if got := CheckInSuccess(out); got != "打卡成功！获得 10 信用点" {
		t.Errorf("unexpected message %q", got)
	}
}
