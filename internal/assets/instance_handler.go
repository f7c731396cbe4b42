package assets

import (
	"errors"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/models"
	"bizops-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type InstanceRequest struct {
	AssetTag       string                `json:"assetTag"`
	AssetTypeID    uint                  `json:"assetTypeId"`
	SerialNumber   string                `json:"serialNumber"`
	Status         models.AssetStatus    `json:"status"`
	Condition      models.AssetCondition `json:"condition"`
	Location       string                `json:"location"`
	ProjectID      *uint                 `json:"projectId"`
	AssignedToID   *uint                 `json:"assignedToId"`
	PurchaseDate   string                `json:"purchaseDate"`
	PurchasePrice  *decimal.Decimal      `json:"purchasePrice"`
	WarrantyExpiry string                `json:"warrantyExpiry"`
	Notes          string                `json:"notes"`
	Images         []string              `json:"images"`
}

func (r InstanceRequest) input() (InstanceInput, error) {
	purchased, err := validation.Date("purchaseDate", r.PurchaseDate)
	if err != nil {
		return InstanceInput{}, err
	}
	warranty, err := validation.Date("warrantyExpiry", r.WarrantyExpiry)
	if err != nil {
		return InstanceInput{}, err
	}
	return InstanceInput{
		AssetTag:       r.AssetTag,
		AssetTypeID:    r.AssetTypeID,
		SerialNumber:   r.SerialNumber,
		Status:         r.Status,
		Condition:      r.Condition,
		Location:       r.Location,
		ProjectID:      r.ProjectID,
		AssignedToID:   r.AssignedToID,
		PurchaseDate:   purchased,
		PurchasePrice:  r.PurchasePrice,
		WarrantyExpiry: warranty,
		Notes:          r.Notes,
		Images:         r.Images,
	}, nil
}

type AssignRequest struct {
	ProjectID    *uint  `json:"projectId"`
	AssignedToID *uint  `json:"assignedToId"`
	Location     string `json:"location"`
	Reason       string `json:"reason"`
}

type ReturnRequest struct {
	Location  string                `json:"location"`
	Reason    string                `json:"reason"`
	Condition models.AssetCondition `json:"condition"`
}

type AssetTypeSummary struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
}

type InstanceResponse struct {
	models.AssetInstance
	AssetType *AssetTypeSummary `json:"assetType"`
}

func toInstanceResponse(inst models.AssetInstance) InstanceResponse {
	resp := InstanceResponse{AssetInstance: inst}
	if t := inst.AssetType; t != nil {
		resp.AssetType = &AssetTypeSummary{
			Name:         t.Name,
			Category:     t.Category,
			Manufacturer: t.Manufacturer,
			Model:        t.Model,
		}
	}
	return resp
}

func httpError(err error) error {
	var ie InputError
	switch {
	case errors.As(err, &ie):
		return fiber.NewError(fiber.StatusBadRequest, ie.Error())
	case errors.Is(err, ErrDuplicateTag):
		return fiber.NewError(fiber.StatusBadRequest, "Asset tag already exists")
	case errors.Is(err, ErrTypeNotFound):
		return fiber.NewError(fiber.StatusBadRequest, "Asset type not found")
	case errors.Is(err, ErrInstanceNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Asset instance not found")
	}
	return err
}

// GET /api/asset-instances?status=&category=&projectId=&assignedToId=
func ListInstancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f InstanceFilter
		if s := c.Query("status"); s != "" && s != "all" {
			f.Status = models.AssetStatus(s)
			if !f.Status.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "Unknown status filter")
			}
		}
		if category := c.Query("category"); category != "all" {
			f.Category = category
		}
		var err error
		if f.ProjectID, err = validation.QueryID(c, "projectId"); err != nil {
			return err
		}
		if f.AssignedToID, err = validation.QueryID(c, "assignedToId"); err != nil {
			return err
		}

		instances, err := ListInstances(c.UserContext(), f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch asset instances")
		}
		resp := make([]InstanceResponse, 0, len(instances))
		for _, inst := range instances {
			resp = append(resp, toInstanceResponse(inst))
		}
		return c.JSON(resp)
	}
}

// GET /api/asset-instances/:id
func GetInstanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		inst, err := GetInstance(c.UserContext(), id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toInstanceResponse(*inst))
	}
}

// GET /api/asset-instances/by-tag/:tag
func GetInstanceByTagHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		inst, err := GetInstanceByTag(c.UserContext(), c.Params("tag"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toInstanceResponse(*inst))
	}
}

// POST /api/asset-instances
func CreateInstanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		var body InstanceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		in, err := body.input()
		if err != nil {
			return err
		}

		inst, err := CreateInstance(c.UserContext(), actor, in)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(inst)
	}
}

// PUT /api/asset-instances/:id
func UpdateInstanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body InstanceRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		in, err := body.input()
		if err != nil {
			return err
		}

		inst, err := UpdateInstance(c.UserContext(), actor, id, in)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(inst)
	}
}

// POST /api/asset-instances/:id/assign
func AssignInstanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body AssignRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		inst, err := Assign(c.UserContext(), actor, id, AssignInput(body))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(inst)
	}
}

// POST /api/asset-instances/:id/return
func ReturnInstanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body ReturnRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
			}
		}

		inst, err := Return(c.UserContext(), actor, id, ReturnInput(body))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(inst)
	}
}
