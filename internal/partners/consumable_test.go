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

type consumableFixture struct {
	env     *servertest.Env
	finance string
	pm      string
	project models.Project
	cable   models.InventoryItem
	bolts   models.InventoryItem
}

func newConsumableFixture(t *testing.T) consumableFixture {
	t.Helper()
	f := consumableFixture{env: servertest.New(t)}
	_, f.finance = testutil.CreateUser(t, models.RoleFinance)
	_, f.pm = testutil.CreateUser(t, models.RoleProjectManager)

	customer := models.Customer{Name: "Northwind", Phone: "555-0100"}
	testutil.MustCreate(t, &customer)
	f.project = models.Project{Title: "HQ wiring", CustomerID: customer.ID, Status: models.ProjectStatusPlanned}
	testutil.MustCreate(t, &f.project)
	f.cable = models.InventoryItem{Name: "Cable", Unit: "m", Quantity: 100}
	testutil.MustCreate(t, &f.cable)
	f.bolts = models.InventoryItem{Name: "Bolts", Unit: "pcs", Quantity: 10}
	testutil.MustCreate(t, &f.bolts)
	return f
}

func stock(t *testing.T, id uint) int64 {
	t.Helper()
	var item models.InventoryItem
	if err := database.DB.First(&item, id).Error; err != nil {
		t.Fatal(err)
	}
	return item.Quantity
}

func TestConsumableLifecycle(t *testing.T) {
	f := newConsumableFixture(t)
	base := fmt.Sprintf("/api/projects/%d/consumables", f.project.ID)

	resp := f.env.JSON(t, http.MethodPost, base, f.pm, map[string]any{
		"date": "2024-01-01",
		"items": []map[string]any{
			{"inventoryItemId": f.cable.ID, "quantity": 25},
			{"inventoryItemId": f.bolts.ID, "quantity": 4},
		},
	})
	if resp.Status != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Status, resp.Body)
	}
	var pc models.ProjectConsumable
	resp.Decode(t, &pc)
	if len(pc.Items) != 2 || pc.Items[0].InventoryItem == nil || pc.Items[0].InventoryItem.Name != "Cable" {
		t.Fatalf("created = %+v", pc)
	}
	if got := stock(t, f.cable.ID); got != 75 {
		t.Errorf("cable stock = %d, want 75", got)
	}
	if got := stock(t, f.bolts.ID); got != 6 {
		t.Errorf("bolt stock = %d, want 6", got)
	}

	var list []models.ProjectConsumable
	f.env.JSON(t, http.MethodGet, base, f.pm, nil).Decode(t, &list)
	if len(list) != 1 || list[0].ID != pc.ID {
		t.Fatalf("list = %+v", list)
	}

	item := fmt.Sprintf("/api/project-consumables/%d", pc.ID)
	resp = f.env.JSON(t, http.MethodPut, item, f.pm, map[string]any{"date": "2024-01-02"})
	if resp.Status != http.StatusOK {
		t.Fatalf("update: %d %s", resp.Status, resp.Body)
	}
	resp.Decode(t, &pc)
	if got := pc.Date.UTC().Format("2006-01-02"); got != "2024-01-02" {
		t.Errorf("date = %s, want 2024-01-02", got)
	}
	if got := stock(t, f.cable.ID); got != 75 {
		t.Errorf("cable stock after date change = %d, want 75", got)
	}

	if resp := f.env.JSON(t, http.MethodDelete, item, f.pm, nil); resp.Status != http.StatusForbidden {
		t.Errorf("pm delete = %d, want 403", resp.Status)
	}
	if resp := f.env.JSON(t, http.MethodDelete, item, f.finance, nil); resp.Status != http.StatusOK {
		t.Fatalf("delete: %d %s", resp.Status, resp.Body)
	}
	if got := stock(t, f.cable.ID); got != 100 {
		t.Errorf("cable stock after delete = %d, want 100", got)
	}
	if got := stock(t, f.bolts.ID); got != 10 {
		t.Errorf("bolt stock after delete = %d, want 10", got)
	}

	f.env.JSON(t, http.MethodGet, base, f.pm, nil).Decode(t, &list)
	if len(list) != 0 {
		t.Errorf("list after delete = %d, want 0", len(list))
	}
	if resp := f.env.JSON(t, http.MethodPut, item, f.pm, map[string]any{"date": "2024-01-03"}); resp.Status != http.StatusNotFound {
		t.Errorf("update deleted = %d, want 404", resp.Status)
	}

	var logs []models.AuditLog
	f.env.JSON(t, http.MethodGet, "/api/audit-logs?entityType=project_consumable", f.finance, nil).Decode(t, &logs)
	if len(logs) != 3 {
		t.Errorf("audit entries = %d, want 3", len(logs))
	}
}

func TestConsumableStockShortfallRollsBack(t *testing.T) {
	f := newConsumableFixture(t)
	base := fmt.Sprintf("/api/projects/%d/consumables", f.project.ID)

	// each line fits on its own, together they exceed the 10 bolts in stock
	resp := f.env.JSON(t, http.MethodPost, base, f.pm, map[string]any{
		"items": []map[string]any{
			{"inventoryItemId": f.cable.ID, "quantity": 5},
			{"inventoryItemId": f.bolts.ID, "quantity": 6},
			{"inventoryItemId": f.bolts.ID, "quantity": 6},
		},
	})
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (%s)", resp.Status, resp.Body)
	}
	if msg := resp.Message(t); msg != "Insufficient stock for Bolts: 4 available, 6 requested" {
		t.Errorf("message = %q", msg)
	}
	if got := stock(t, f.cable.ID); got != 100 {
		t.Errorf("cable stock = %d, want 100", got)
	}
	if got := stock(t, f.bolts.ID); got != 10 {
		t.Errorf("bolt stock = %d, want 10", got)
	}
	var n int64
	database.DB.Model(&models.ProjectConsumable{}).Count(&n)
	if n != 0 {
		t.Errorf("consumables = %d, want 0", n)
	}
}

func TestConsumableValidation(t *testing.T) {
	f := newConsumableFixture(t)
	base := fmt.Sprintf("/api/projects/%d/consumables", f.project.ID)

	tests := []struct {
		name string
		path string
		body map[string]any
		want int
	}{
		{"no items", base, map[string]any{"items": []map[string]any{}}, http.StatusBadRequest},
		{"zero quantity", base, map[string]any{"items": []map[string]any{{"inventoryItemId": f.cable.ID, "quantity": 0}}}, http.StatusBadRequest},
		{"unknown item", base, map[string]any{"items": []map[string]any{{"inventoryItemId": 999, "quantity": 1}}}, http.StatusBadRequest},
		{"bad date", base, map[string]any{"date": "yesterday", "items": []map[string]any{{"inventoryItemId": f.cable.ID, "quantity": 1}}}, http.StatusBadRequest},
		{"unknown project", "/api/projects/999/consumables", map[string]any{"items": []map[string]any{{"inventoryItemId": f.cable.ID, "quantity": 1}}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.env.JSON(t, http.MethodPost, tt.path, f.pm, tt.body)
			if resp.Status != tt.want {
				t.Errorf("status = %d, want %d (%s)", resp.Status, tt.want, resp.Body)
			}
		})
	}

	if got := stock(t, f.cable.ID); got != 100 {
		t.Errorf("cable stock = %d, want 100", got)
	}
	if resp := f.env.JSON(t, http.MethodGet, "/api/projects/999/consumables", f.pm, nil); resp.Status != http.StatusNotFound {
		t.Errorf("list unknown project = %d, want 404", resp.Status)
	}
}

func TestConsumedItemCannotBeDeleted(t *testing.T) {
	f := newConsumableFixture(t)
	_, admin := testutil.CreateUser(t, models.RoleAdmin)

	resp := f.env.JSON(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/consumables", f.project.ID), f.pm, map[string]any{
		"items": []map[string]any{{"inventoryItemId": f.bolts.ID, "quantity": 1}},
	})
	if resp.Status != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Status, resp.Body)
	}
	if resp := f.env.JSON(t, http.MethodDelete, fmt.Sprintf("/api/inventory/%d", f.bolts.ID), admin, nil); resp.Status != http.StatusBadRequest {
		t.Errorf("delete consumed item = %d, want 400", resp.Status)
	}
}
