package handlers

import (
	"net/http"
	"testing"
)

func TestRateLimitStatus_ReportsEveryClass(t *testing.T) {
	e := newTestEnv(t)
	// Two write-class hits for u1; still under the limit, so no reset wait.
	_ = e.limits.Write.Allow("user:u1")
	_ = e.limits.Write.Allow("user:u1")

	w := e.do(http.MethodGet, "/rate-limit", "ok:u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	got := decode[RateLimitResponse](t, w)
	if got.Key != "user:u1" || len(got.Classes) != 3 {
		t.Fatalf("response = %+v", got)
	}
	if wr := got.Classes["write"]; wr.Limit != 20 || wr.Remaining != 18 || wr.ResetInSeconds != 0 {
		t.Fatalf("write class = %+v", wr)
	}
	if gen := got.Classes["general"]; gen.Remaining != gen.Limit {
		t.Fatalf("general class = %+v", gen)
	}

	w = e.do(http.MethodGet, "/rate-limit", "", "")
	if got := decode[RateLimitResponse](t, w); got.Key != "ip:192.0.2.1" {
		t.Fatalf("anonymous key = %q", got.Key)
	}
}
