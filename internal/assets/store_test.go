package assets

import (
	"context"
	"errors"
	"testing"
	"time"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"
	"bizops-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	actor   auth.Actor
	laptop  models.AssetType
	project models.Project
}

func setup(t *testing.T) fixture {
	t.Helper()
	testutil.SetupDB(t)

	user, _ := testutil.CreateUser(t, models.RoleProjectManager)
	customer := models.Customer{Name: "Northwind", Phone: "+1-555-0100"}
	testutil.MustCreate(t, &customer)

	f := fixture{
		actor:  auth.Actor{ID: user.ID, Name: user.Name, Role: user.Role},
		laptop: models.AssetType{Name: "Laptop", Category: "IT"},
	}
	testutil.MustCreate(t, &f.laptop)
	f.project = models.Project{Title: "Office fit-out", CustomerID: customer.ID}
	testutil.MustCreate(t, &f.project)
	return f
}

func countInstances(t *testing.T) int64 {
	t.Helper()
	var n int64
	database.DB.Model(&models.AssetInstance{}).Count(&n)
	return n
}

func TestCreateInstanceRejectsDuplicateTag(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inst, err := CreateInstance(ctx, f.actor, InstanceInput{AssetTag: " LT-001 ", AssetTypeID: f.laptop.ID})
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	if inst.AssetTag != "LT-001" || inst.Status != models.AssetStatusAvailable || inst.Condition != models.AssetConditionGood {
		t.Errorf("defaults not applied: %+v", inst)
	}
	var stored models.AssetInstance
	database.DB.First(&stored, inst.ID)
	if !stored.IsActive {
		t.Error("stored instance is not active")
	}

	_, err = CreateInstance(ctx, f.actor, InstanceInput{AssetTag: "LT-001", AssetTypeID: f.laptop.ID})
	if !errors.Is(err, ErrDuplicateTag) {
		t.Fatalf("err = %v, want ErrDuplicateTag", err)
	}
	if n := countInstances(t); n != 1 {
		t.Errorf("instances = %d, want 1", n)
	}

	_, err = CreateInstance(ctx, f.actor, InstanceInput{AssetTag: "LT-002", AssetTypeID: 999})
	if !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("unknown type err = %v", err)
	}
}

func TestAssignAndReturnRecordMovements(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inst, err := CreateInstance(ctx, f.actor, InstanceInput{AssetTag: "LT-001", AssetTypeID: f.laptop.ID, Location: "Warehouse"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Assign(ctx, f.actor, inst.ID, AssignInput{}); err == nil {
		t.Error("assign without a target should fail")
	}
	missing := uint(999)
	if _, err := Assign(ctx, f.actor, inst.ID, AssignInput{ProjectID: &missing}); err == nil {
		t.Error("assign to an unknown project should fail")
	}

	assigned, err := Assign(ctx, f.actor, inst.ID, AssignInput{ProjectID: &f.project.ID, Location: "Site A", Reason: "fit-out"})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.Status != models.AssetStatusInUse || assigned.ProjectID == nil || assigned.Location != "Site A" {
		t.Errorf("after assign: %+v", assigned)
	}

	returned, err := Return(ctx, f.actor, inst.ID, ReturnInput{Location: "Warehouse", Condition: models.AssetConditionFair})
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if returned.Status != models.AssetStatusAvailable || returned.ProjectID != nil || returned.Condition != models.AssetConditionFair {
		t.Errorf("after return: %+v", returned)
	}

	stored, err := GetInstance(ctx, inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ProjectID != nil || stored.Location != "Warehouse" {
		t.Errorf("stored = %+v", stored)
	}

	movements, err := Movements(ctx, inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(movements))
	}
	ret, asg := movements[0], movements[1]
	if ret.MovementType != models.MovementReturn || ret.FromLocation != "Site A" || ret.ToLocation != "Warehouse" {
		t.Errorf("return movement = %+v", ret)
	}
	if asg.MovementType != models.MovementAssignment || asg.ToProjectID == nil || *asg.ToProjectID != f.project.ID || asg.Reason != "fit-out" {
		t.Errorf("assignment movement = %+v", asg)
	}
}

func TestRetiredAssetCannotBeAssigned(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inst, err := CreateInstance(ctx, f.actor, InstanceInput{AssetTag: "LT-009", AssetTypeID: f.laptop.ID, Status: models.AssetStatusRetired})
	if err != nil {
		t.Fatal(err)
	}
	var ie InputError
	if _, err := Assign(ctx, f.actor, inst.ID, AssignInput{ProjectID: &f.project.ID}); !errors.As(err, &ie) {
		t.Fatalf("err = %v, want InputError", err)
	}
	movements, _ := Movements(ctx, inst.ID)
	if len(movements) != 0 {
		t.Errorf("movements = %d, want 0", len(movements))
	}
}

func TestUpdateStatusLogsMovement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inst, err := CreateInstance(ctx, f.actor, InstanceInput{AssetTag: "LT-001", AssetTypeID: f.laptop.ID})
	if err != nil {
		t.Fatal(err)
	}
	in := InstanceInput{AssetTag: "LT-001", AssetTypeID: f.laptop.ID, Status: models.AssetStatusMaintenance}
	if _, err := UpdateInstance(ctx, f.actor, inst.ID, in); err != nil {
		t.Fatalf("UpdateInstance: %v", err)
	}
	movements, _ := Movements(ctx, inst.ID)
	if len(movements) != 1 || movements[0].MovementType != models.MovementStatusChange || movements[0].ToStatus != models.AssetStatusMaintenance {
		t.Errorf("movements = %+v", movements)
	}
}

func TestGetSummary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	price := decimal.RequireFromString("1200.50")
	a, _ := CreateInstance(ctx, f.actor, InstanceInput{AssetTag: "A", AssetTypeID: f.laptop.ID, PurchasePrice: &price})
	CreateInstance(ctx, f.actor, InstanceInput{AssetTag: "B", AssetTypeID: f.laptop.ID, PurchasePrice: &price, Status: models.AssetStatusInUse})
	CreateInstance(ctx, f.actor, InstanceInput{AssetTag: "C", AssetTypeID: f.laptop.ID, Status: models.AssetStatusRetired})

	soon := now.AddDate(0, 0, 10)
	later := now.AddDate(0, 0, 90)
	testutil.MustCreate(t, &models.MaintenanceRecord{InstanceID: a.ID, MaintenanceType: models.MaintenancePreventive, MaintenanceDate: &soon})
	testutil.MustCreate(t, &models.MaintenanceRecord{InstanceID: a.ID, MaintenanceType: models.MaintenancePreventive, MaintenanceDate: &later})

	s, err := GetSummary(ctx, now)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if s.TotalAssets != 3 || s.Available != 1 || s.InUse != 1 || s.Retired != 1 {
		t.Errorf("counts = %+v", s)
	}
	if !s.TotalValue.Equal(decimal.RequireFromString("2401")) {
		t.Errorf("totalValue = %s", s.TotalValue)
	}
	if s.UpcomingMaintenance != 1 {
		t.Errorf("upcoming = %d, want 1", s.UpcomingMaintenance)
	}
}

func TestImportSkipsBadRows(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := CreateInstance(ctx, f.actor, InstanceInput{AssetTag: "LT-001", AssetTypeID: f.laptop.ID}); err != nil {
		t.Fatal(err)
	}

	x := excelize.NewFile()
	sheet := x.GetSheetName(0)
	rows := [][]any{
		{"Asset tag", "Type", "Serial", "Location", "Condition"},
		{"LT-001", "Laptop", "S1", "HQ", "good"},
		{"LT-002", "laptop", "S2", "HQ", "Excellent"},
		{"DR-001", "Drone", "S3", "HQ", ""},
		{"LT-003", "Laptop", "", "", "broken"},
	}
	for i, r := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := x.SetSheetRow(sheet, cellName, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := x.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseImport(buf)
	if err != nil {
		t.Fatalf("ParseImport: %v", err)
	}
	if len(parsed) != 4 || parsed[0].Line != 2 {
		t.Fatalf("parsed = %+v", parsed)
	}

	res, err := Import(ctx, f.actor, parsed)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 1 || res.Skipped != 3 || len(res.Errors) != 3 {
		t.Errorf("result = %+v", res)
	}
	inst, err := GetInstanceByTag(ctx, "LT-002")
	if err != nil {
		t.Fatal(err)
	}
	if inst.Condition != models.AssetConditionExcellent || inst.AssetType == nil || inst.AssetType.Name != "Laptop" {
		t.Errorf("imported = %+v", inst)
	}
}
