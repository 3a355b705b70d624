package service_test

import (
	"testing"

	"roulette-bot/service"
)

func TestParsePrizePayload(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{"valid", `{"prize":"Скидка 10%"}`, "Скидка 10%", false},
		{"padded", `{"prize":"  Кепка  "}`, "Кепка", false},
		{"invalid json", `prize=Кепка`, "", true},
		{"missing prize", `{"other":"x"}`, "", true},
		{"blank prize", `{"prize":"   "}`, "", true},
		{"empty payload", ``, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := service.ParsePrizePayload(tc.data)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("payload %q should be rejected, got %q", tc.data, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse payload: %v", err)
			}
			if got != tc.want {
				t.Errorf("prize = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMalformedSubmissionLeavesStoreUntouched(t *testing.T) {
	svc, _ := setupEligibility(t)
	profile := service.Profile{DisplayName: "Пётр", Username: "petr"}
	userId := int64(1006)

	if err := svc.SetAgreed(userId, profile); err != nil {
		t.Fatalf("set agreed: %v", err)
	}

	for _, data := range []string{`not json`, `{"prize":""}`, `{}`} {
		if prize, err := service.ParsePrizePayload(data); err == nil {
			t.Fatalf("payload %q should be rejected, got %q", data, prize)
		}
	}

	// A rejected payload consumes nothing: no audit row, no window.
	if total, _, _ := svc.Stats(10); total != 0 {
		t.Fatalf("rejected payloads must not be audited, total=%d", total)
	}
	if access, err := svc.CheckAccess(userId, true); err != nil || access.Access != service.AccessEligible {
		t.Fatalf("user should stay Eligible after a rejected payload, got %v (err=%v)", access.Access, err)
	}

	prize, err := service.ParsePrizePayload(`{"prize":"Скидка 10%"}`)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if spin, _, err := svc.RecordSpin(userId, profile, prize); err != nil || spin == nil {
		t.Fatalf("the next well-formed submission should be accepted (err=%v)", err)
	}
}
