package partners_test

import (
	"fmt"
	"net/http"
	"testing"

	"bizops-backend/internal/database"
	"bizops-backend/internal/models"
	"bizops-backend/internal/server/servertest"
	"bizops-backend/internal/testutil"
)

func TestCustomerPhoneIsUnique(t *testing.T) {
	env := servertest.New(t)
	_, token := testutil.CreateUser(t, models.RoleFinance)

	resp := env.JSON(t, http.MethodPost, "/api/customers", token, map[string]string{"name": "Northwind", "phone": "555-0100"})
	if resp.Status != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Status, resp.Body)
	}
	var first models.Customer
	resp.Decode(t, &first)

	resp = env.JSON(t, http.MethodPost, "/api/customers", token, map[string]string{"name": "Other", "phone": " 555-0100 "})
	if resp.Status != http.StatusBadRequest || resp.Message(t) != "Phone number already exists" {
		t.Errorf("duplicate create = %d %s", resp.Status, resp.Body)
	}

	resp = env.JSON(t, http.MethodPost, "/api/customers", token, map[string]string{"name": "Contoso", "phone": "555-0200"})
	var second models.Customer
	resp.Decode(t, &second)

	resp = env.JSON(t, http.MethodPut, fmt.Sprintf("/api/customers/%d", second.ID), token, map[string]string{"name": "Contoso", "phone": "555-0100"})
	if resp.Status != http.StatusBadRequest || resp.Message(t) != "Phone number already exists" {
		t.Errorf("duplicate update = %d %s", resp.Status, resp.Body)
	}

	// keeping its own phone is not a conflict
	resp = env.JSON(t, http.MethodPut, fmt.Sprintf("/api/customers/%d", first.ID), token, map[string]string{"name": "Northwind Ltd", "phone": "555-0100"})
	if resp.Status != http.StatusOK {
		t.Errorf("self update = %d %s", resp.Status, resp.Body)
	}
}

func TestCustomerValidation(t *testing.T) {
	env := servertest.New(t)
	_, token := testutil.CreateUser(t, models.RoleFinance)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing phone", map[string]string{"name": "A"}},
		{"missing name", map[string]string{"phone": "1"}},
		{"bad email", map[string]string{"name": "A", "phone": "1", "email": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.JSON(t, http.MethodPost, "/api/customers", token, tt.body)
			if resp.Status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.Status)
			}
		})
	}
}

func TestCustomerWithProjectsCannotBeDeleted(t *testing.T) {
	env := servertest.New(t)
	_, admin := testutil.CreateUser(t, models.RoleAdmin)
	_, pm := testutil.CreateUser(t, models.RoleProjectManager)

	resp := env.JSON(t, http.MethodPost, "/api/customers", admin, map[string]string{"name": "Northwind", "phone": "555-0100"})
	var customer models.Customer
	resp.Decode(t, &customer)

	resp = env.JSON(t, http.MethodPost, "/api/projects", pm, map[string]any{"title": "HQ wiring", "customerId": customer.ID})
	if resp.Status != http.StatusCreated {
		t.Fatalf("create project: %d %s", resp.Status, resp.Body)
	}

	path := fmt.Sprintf("/api/customers/%d", customer.ID)
	if resp := env.JSON(t, http.MethodDelete, path, pm, nil); resp.Status != http.StatusForbidden {
		t.Errorf("pm delete = %d, want 403", resp.Status)
	}
	if resp := env.JSON(t, http.MethodDelete, path, admin, nil); resp.Status != http.StatusBadRequest {
		t.Errorf("delete with projects = %d, want 400", resp.Status)
	}

	resp = env.JSON(t, http.MethodGet, fmt.Sprintf("/api/projects?customerId=%d", customer.ID), pm, nil)
	var projects []struct {
		Title        string `json:"title"`
		Status       string `json:"status"`
		CustomerName string `json:"customerName"`
	}
	resp.Decode(t, &projects)
	if len(projects) != 1 || projects[0].CustomerName != "Northwind" || projects[0].Status != "planned" {
		t.Errorf("projects = %+v", projects)
	}

	resp = env.JSON(t, http.MethodPost, "/api/projects", pm, map[string]any{"title": "Ghost", "customerId": 999})
	if resp.Status != http.StatusBadRequest {
		t.Errorf("unknown customer = %d, want 400", resp.Status)
	}
}

func TestSupplierListsAndBankAccounts(t *testing.T) {
	env := servertest.New(t)
	_, finance := testutil.CreateUser(t, models.RoleFinance)
	_, pm := testutil.CreateUser(t, models.RoleProjectManager)

	resp := env.JSON(t, http.MethodPost, "/api/suppliers", finance, map[string]any{
		"name": "Acme",
		"bankAccountDetails": []map[string]string{
			{"bankName": "First Bank", "accountName": "Acme Ltd", "accountNumber": "0001"},
		},
	})
	if resp.Status != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Status, resp.Body)
	}
	var acme models.Supplier
	resp.Decode(t, &acme)
	if len(acme.BankAccountDetails) != 1 || acme.BankAccountDetails[0].AccountNumber != "0001" {
		t.Errorf("bank accounts = %+v", acme.BankAccountDetails)
	}

	resp = env.JSON(t, http.MethodPost, "/api/suppliers", finance, map[string]any{"name": "Old Co", "isActive": false})
	if resp.Status != http.StatusCreated {
		t.Fatalf("create inactive: %d %s", resp.Status, resp.Body)
	}
	var old models.Supplier
	resp.Decode(t, &old)
	if old.IsActive {
		t.Error("response isActive = true, want false")
	}
	var stored models.Supplier
	database.DB.First(&stored, old.ID)
	if stored.IsActive {
		t.Error("stored is_active = true, want false")
	}

	resp = env.JSON(t, http.MethodPost, "/api/suppliers", finance, map[string]any{
		"name":               "Broken",
		"bankAccountDetails": []map[string]string{{"bankName": "X"}},
	})
	if resp.Status != http.StatusBadRequest {
		t.Errorf("incomplete bank account = %d, want 400", resp.Status)
	}

	if resp := env.JSON(t, http.MethodPost, "/api/suppliers", pm, map[string]any{"name": "Nope"}); resp.Status != http.StatusForbidden {
		t.Errorf("pm create = %d, want 403", resp.Status)
	}

	var active, all []models.Supplier
	env.JSON(t, http.MethodGet, "/api/suppliers", pm, nil).Decode(t, &active)
	env.JSON(t, http.MethodGet, "/api/suppliers/all", pm, nil).Decode(t, &all)
	if len(active) != 1 || len(all) != 2 {
		t.Errorf("active = %d, all = %d; want 1 and 2", len(active), len(all))
	}
}
