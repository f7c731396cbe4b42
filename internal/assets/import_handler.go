package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ImportRow is one spreadsheet line: tag, type name, serial, location, condition.
type ImportRow struct {
	Line      int
	AssetTag  string
	TypeName  string
	Serial    string
	Location  string
	Condition models.AssetCondition
}

type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// ParseImport reads the first sheet. A first row whose first cell mentions
// "tag" is treated as a header.
func ParseImport(r io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("excel file could not be read: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("sheet could not be read: %w", err)
	}

	start := 0
	if len(rows) > 0 && strings.Contains(strings.ToLower(cell(rows[0], 0)), "tag") {
		start = 1
	}

	out := make([]ImportRow, 0, len(rows))
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if cell(row, 0) == "" && cell(row, 1) == "" {
			continue
		}
		out = append(out, ImportRow{
			Line:      i + 1,
			AssetTag:  cell(row, 0),
			TypeName:  cell(row, 1),
			Serial:    cell(row, 2),
			Location:  cell(row, 3),
			Condition: models.AssetCondition(strings.ToLower(cell(row, 4))),
		})
	}
	return out, nil
}

// Import creates one instance per row. Each row commits on its own so one bad
// line does not discard the rest.
func Import(ctx context.Context, actor auth.Actor, rows []ImportRow) (ImportResult, error) {
	res := ImportResult{Errors: []string{}}

	var types []models.AssetType
	if err := database.DB.WithContext(ctx).Find(&types).Error; err != nil {
		return res, err
	}
	byName := make(map[string]uint, len(types))
	for _, t := range types {
		byName[strings.ToLower(t.Name)] = t.ID
	}

	for _, row := range rows {
		typeID, ok := byName[strings.ToLower(row.TypeName)]
		if !ok {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: unknown asset type %q", row.Line, row.TypeName))
			continue
		}

		in := InstanceInput{
			AssetTag:     row.AssetTag,
			AssetTypeID:  typeID,
			SerialNumber: row.Serial,
			Location:     row.Location,
			Condition:    row.Condition,
		}
		if err := in.normalize(); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", row.Line, err))
			continue
		}

		var inst models.AssetInstance
		err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return createInstance(tx, actor, in, &inst)
		})
		switch {
		case errors.Is(err, ErrDuplicateTag):
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: asset tag %s already exists", row.Line, row.AssetTag))
		case err != nil:
			return res, err
		default:
			res.Created++
		}
	}
	return res, nil
}

// POST /api/asset-instances/import (multipart "file", .xlsx)
func ImportInstancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File could not be uploaded")
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files can be imported")
		}

		file, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "File could not be opened")
		}
		defer file.Close()

		rows, err := ParseImport(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file is empty")
		}

		res, err := Import(c.UserContext(), actor, rows)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"created": res.Created,
			"skipped": res.Skipped,
			"errors":  res.Errors,
			"message": fmt.Sprintf("%d assets imported, %d skipped", res.Created, res.Skipped),
		})
	}
}
