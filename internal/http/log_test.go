package handlers_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"marketplace/internal/domain"
	applog "marketplace/internal/log"
)

// observe routes the process logger into memory for the rest of the test.
func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	applog.Set(zap.New(core))
	t.Cleanup(func() { applog.Set(zap.NewNop()) })
	return logs
}

func TestAccessLogCarriesStatusAndRequestID(t *testing.T) {
	s := newServer(t)
	logs := observe(t)

	s.call("GET", "/api/v1/user/basket", "", nil)

	entries := logs.FilterMessage("http.request").AllUntimed()
	if len(entries) != 1 {
		t.Fatalf("want one access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusUnauthorized) {
		t.Fatalf("status field: %v", fields["status"])
	}
	if fields["path"] != "/api/v1/user/basket" {
		t.Fatalf("path field: %v", fields["path"])
	}
	if rid, _ := fields["req_id"].(string); rid == "" {
		t.Fatalf("request id missing: %v", fields)
	}
}

func TestSecurityEventsAreLogged(t *testing.T) {
	s := newServer(t)
	buyer := s.signup("buyer@example.test", domain.RoleBuyer)
	logs := observe(t)

	s.call("GET", "/api/v1/user/order", "", nil)
	s.call("GET", "/api/v1/user/order", "forged", nil)
	s.call("GET", "/api/v1/partner/state", buyer, nil)
	s.call("POST", "/api/v1/user/login", "", map[string]string{"email": "buyer@example.test", "password": "Wr0ng!pass"})

	for _, action := range []string{"auth.missing", "auth.reject", "access.denied.role", "auth.login.fail"} {
		found := logs.FilterMessage(action).AllUntimed()
		if len(found) == 0 {
			t.Fatalf("expected %s log", action)
		}
		if found[0].Level != zapcore.WarnLevel {
			t.Fatalf("%s logged at %s, want warn", action, found[0].Level)
		}
	}

	denied := logs.FilterMessage("access.denied.role").AllUntimed()[0].ContextMap()
	if denied["user_id"] == nil {
		t.Fatalf("denial should name the user: %v", denied)
	}
	fail := logs.FilterMessage("auth.login.fail").AllUntimed()[0].ContextMap()
	if f, _ := fail["fields"].(map[string]any); f["reason"] != "bad_credentials" {
		t.Fatalf("login failure reason: %v", fail["fields"])
	}
}

func TestAuditTrail(t *testing.T) {
	s := newServer(t)
	logs := observe(t)

	seller := s.signup("partner@gadgets.test", domain.RoleSeller)
	s.mustCall(http.StatusOK, "POST", "/api/v1/partner/import", seller,
		map[string]string{"url": servePriceList(t, shopList)}, nil)

	for _, action := range []string{"auth.register", "auth.confirm", "auth.login.success", "pricelist.import"} {
		found := logs.FilterMessage(action).FilterField(zap.Bool("audit", true)).Len()
		if found != 1 {
			t.Fatalf("want one audit entry for %s, got %d", action, found)
		}
	}
	if logs.FilterMessage("pricelist.applied").Len() != 1 {
		t.Fatal("import service did not log the applied document")
	}
}
