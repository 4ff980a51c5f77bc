package domain

import "testing"

func TestStatus_Valid(t *testing.T) {
	valid := []Status{StatusRequested, StatusPendingApproval, StatusApproved, StatusDenied, StatusExpired}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []Status{"", "revoked", "APPROVED"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	if StatusRequested.Terminal() || StatusPendingApproval.Terminal() {
		t.Error("transient states must not be terminal")
	}
	if !StatusDenied.Terminal() || !StatusExpired.Terminal() {
		t.Error("denied and expired must be terminal")
	}
	// approved is terminal for a login attempt but the session stays open,
	// so it may still transition to expired.
	if StatusApproved.Terminal() {
		t.Error("approved must still allow the expired transition")
	}
}

func TestStatus_CanTransition(t *testing.T) {
	testCases := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusRequested, StatusPendingApproval, true},
		{StatusRequested, StatusApproved, true},
		{StatusRequested, StatusExpired, true},
		{StatusPendingApproval, StatusApproved, true},
		{StatusPendingApproval, StatusDenied, true},
		{StatusPendingApproval, StatusExpired, true},
		{StatusApproved, StatusExpired, true},
		{StatusApproved, StatusDenied, false},
		{StatusDenied, StatusApproved, false},
		{StatusExpired, StatusRequested, false},
		{StatusPendingApproval, StatusRequested, false},
	}

	for _, tc := range testCases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%q → %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTransitionSources(t *testing.T) {
	cases := []struct {
		next Status
		want []Status
	}{
		{StatusPendingApproval, []Status{StatusRequested}},
		{StatusApproved, []Status{StatusRequested, StatusPendingApproval}},
		{StatusDenied, []Status{StatusRequested, StatusPendingApproval}},
		{StatusExpired, []Status{StatusRequested, StatusPendingApproval, StatusApproved}},
		{StatusRequested, nil},
	}
	for _, tc := range cases {
		got := TransitionSources(tc.next)
		if len(got) != len(tc.want) {
			t.Errorf("TransitionSources(%s) = %v, want %v", tc.next, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("TransitionSources(%s) = %v, want %v", tc.next, got, tc.want)
				break
			}
		}
	}
}
