package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdf-toolkit/internal/domain"
)

func TestAuthHandler_Register(t *testing.T) {
	container, _ := newTestContainer(t, nil)
	handler := NewAuthHandler(container)

	body := strings.NewReader(`{"email":"new@example.com","password":"hunter2hunter2"}`)
	req := httptest.NewRequest("POST", "/api/v1/auth/register", body)
	rr := httptest.NewRecorder()

	handler.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Account domain.Account `json:"account"`
		Token   string         `json:"token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Account.Email != "new@example.com" {
		t.Fatalf("unexpected email %s", resp.Account.Email)
	}
	if resp.Account.SubscriptionTier != domain.TierFree {
		t.Fatalf("new accounts must start free, got %s", resp.Account.SubscriptionTier)
	}
	if resp.Token == "" {
		t.Fatalf("expected a token in the response")
	}

	accountID, err := container.Auth.ValidateToken(resp.Token)
	if err != nil || accountID != resp.Account.ID {
		t.Fatalf("returned token does not validate for the new account: %v", err)
	}
}

func TestAuthHandler_RegisterRejectsBadInput(t *testing.T) {
	container, _ := newTestContainer(t, nil)
	handler := NewAuthHandler(container)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"email":`},
		{"invalid email", `{"email":"nope","password":"hunter2hunter2"}`},
		{"short password", `{"email":"ok@example.com","password":"short"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			handler.Register(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	container, _ := newTestContainer(t, nil)
	handler := NewAuthHandler(container)

	if _, err := container.Auth.Register(context.Background(), "login@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email":"login@example.com","password":"hunter2hunter2"}`))
	rr := httptest.NewRecorder()

	handler.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"token"`) {
		t.Fatalf("expected token in response body")
	}

	badReq := httptest.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email":"login@example.com","password":"wrong-password"}`))
	badRR := httptest.NewRecorder()

	handler.Login(badRR, badReq)

	if badRR.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", badRR.Code)
	}
}

func TestAuthHandler_GetProfile(t *testing.T) {
	container, accounts := newTestContainer(t, nil)
	handler := NewAuthHandler(container)
	account := seedTestAccount(t, accounts, "acc-profile", domain.TierBasic, 2)

	req := withAccount(httptest.NewRequest("GET", "/api/v1/auth/profile", nil), account)
	rr := httptest.NewRecorder()

	handler.GetProfile(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	body := rr.Body.String()
	var got domain.Account
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != account.ID || got.SubscriptionTier != domain.TierBasic {
		t.Fatalf("unexpected profile %+v", got)
	}
	// Sensitive fields must never leave the server.
	if strings.Contains(body, "password") || strings.Contains(body, "stripe") {
		t.Fatalf("profile response leaks sensitive fields: %s", body)
	}
}

func TestAuthHandler_GetProfileRequiresAuth(t *testing.T) {
	container, _ := newTestContainer(t, nil)
	handler := NewAuthHandler(container)

	req := httptest.NewRequest("GET", "/api/v1/auth/profile", nil)
	rr := httptest.NewRecorder()

	handler.GetProfile(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestAuthHandler_GetUsage(t *testing.T) {
	container, accounts := newTestContainer(t, nil)
	handler := NewAuthHandler(container)
	account := seedTestAccount(t, accounts, "acc-usage", domain.TierFree, 3)

	req := withAccount(httptest.NewRequest("GET", "/api/v1/usage", nil), account)
	rr := httptest.NewRecorder()

	handler.GetUsage(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var snapshot domain.UsageSnapshot
	if err := json.NewDecoder(rr.Body).Decode(&snapshot); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if snapshot.UsageCount != 3 || snapshot.UsageLimit != 5 || !snapshot.CanPerform {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestAuthHandler_GetOperations(t *testing.T) {
	container, accounts := newTestContainer(t, nil)
	handler := NewAuthHandler(container)
	account := seedTestAccount(t, accounts, "acc-ops", domain.TierFree, 0)
	other := seedTestAccount(t, accounts, "acc-other", domain.TierFree, 0)

	ctx := context.Background()
	container.Ledger.Append(ctx, account.ID, domain.OperationMerge, 2, true)
	container.Ledger.Append(ctx, account.ID, domain.OperationSplit, 1, false)
	container.Ledger.Append(ctx, other.ID, domain.OperationCompress, 1, true)

	req := withAccount(httptest.NewRequest("GET", "/api/v1/operations", nil), account)
	rr := httptest.NewRecorder()

	handler.GetOperations(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Operations []domain.OperationRecord `json:"operations"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Operations) != 2 {
		t.Fatalf("expected 2 records, got %d", len(resp.Operations))
	}
	for _, record := range resp.Operations {
		if record.AccountID != account.ID {
			t.Fatalf("operations response leaks another account's record")
		}
	}
}
