// hr-import loads the four HR tables from the operations team's Excel
// workbook. Each sheet replaces its table wholesale inside one transaction,
// so a half-read workbook never leaves a mixed state behind.
//
// Expected sheets: Employees, Former Employees, New Joiners, Instructor
// Performance. Header row first; unknown trailing columns are ignored.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// employeeRow mirrors one roster sheet line before it becomes a model.
type employeeRow struct {
	EmployeeId  string `validate:"required,max=20"`
	FirstName   string `validate:"required,max=100"`
	LastName    string `validate:"max=100"`
	Nationality string `validate:"max=100"`
	Department  string `validate:"max=100"`
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "01-02-06", "2-Jan-06"}

func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return &d
		}
	}
	return nil
}

func parseAmount(raw string) decimal.Decimal {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseScore(raw string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// cell returns column i of a row, tolerating short rows: excelize drops
// trailing empty cells.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func readEmployees(f *excelize.File) ([]models.Employee, []string, error) {
	rows, err := sheetRows(f, "Employees")
	if err != nil {
		return nil, nil, err
	}
	var out []models.Employee
	var skipped []string
	for i, row := range rows {
		r := employeeRow{
			EmployeeId:  cell(row, 0),
			FirstName:   cell(row, 1),
			LastName:    cell(row, 2),
			Nationality: cell(row, 3),
			Department:  cell(row, 5),
		}
		if err := validate.Struct(r); err != nil {
			skipped = append(skipped, fmt.Sprintf("Employees row %d: %v", i+2, err))
			continue
		}
		out = append(out, models.Employee{
			EmployeeId:         r.EmployeeId,
			FirstName:          r.FirstName,
			LastName:           r.LastName,
			Nationality:        r.Nationality,
			Position:           cell(row, 4),
			Department:         r.Department,
			DateOfJoining:      parseDate(cell(row, 6)),
			ContractType:       models.ContractType(cell(row, 7)),
			BasicSalary:        parseAmount(cell(row, 8)),
			HousingAllowance:   parseAmount(cell(row, 9)),
			TransportAllowance: parseAmount(cell(row, 10)),
		})
	}
	return out, skipped, nil
}

func readFormerEmployees(f *excelize.File) ([]models.FormerEmployee, []string, error) {
	rows, err := sheetRows(f, "Former Employees")
	if err != nil {
		return nil, nil, err
	}
	var out []models.FormerEmployee
	var skipped []string
	for i, row := range rows {
		r := employeeRow{
			EmployeeId:  cell(row, 0),
			FirstName:   cell(row, 1),
			LastName:    cell(row, 2),
			Nationality: cell(row, 3),
			Department:  cell(row, 5),
		}
		if err := validate.Struct(r); err != nil {
			skipped = append(skipped, fmt.Sprintf("Former Employees row %d: %v", i+2, err))
			continue
		}
		out = append(out, models.FormerEmployee{
			EmployeeId:           r.EmployeeId,
			FirstName:            r.FirstName,
			LastName:             r.LastName,
			Nationality:          r.Nationality,
			Position:             cell(row, 4),
			Department:           r.Department,
			DateOfJoining:        parseDate(cell(row, 6)),
			DateOfLeaving:        parseDate(cell(row, 7)),
			ContractType:         models.ContractType(cell(row, 8)),
			BasicSalary:          parseAmount(cell(row, 9)),
			HousingAllowance:     parseAmount(cell(row, 10)),
			TransportAllowance:   parseAmount(cell(row, 11)),
			LeavingReason:        cell(row, 12),
			TerminationType:      models.TerminationType(cell(row, 13)),
			TerminationSubReason: cell(row, 14),
		})
	}
	return out, skipped, nil
}

func readNewJoiners(f *excelize.File) ([]models.NewJoiner, []string, error) {
	rows, err := sheetRows(f, "New Joiners")
	if err != nil {
		return nil, nil, err
	}
	var out []models.NewJoiner
	var skipped []string
	for i, row := range rows {
		r := employeeRow{
			EmployeeId:  cell(row, 0),
			FirstName:   cell(row, 1),
			LastName:    cell(row, 2),
			Nationality: cell(row, 3),
			Department:  cell(row, 4),
		}
		if err := validate.Struct(r); err != nil {
			skipped = append(skipped, fmt.Sprintf("New Joiners row %d: %v", i+2, err))
			continue
		}
		out = append(out, models.NewJoiner{
			EmployeeId:      r.EmployeeId,
			FirstName:       r.FirstName,
			LastName:        r.LastName,
			Nationality:     r.Nationality,
			Department:      r.Department,
			DateOfJoining:   parseDate(cell(row, 5)),
			ContractType:    models.ContractType(cell(row, 6)),
			ProbationStatus: models.ProbationStatus(cell(row, 7)),
		})
	}
	return out, skipped, nil
}

func readInstructorPerformance(f *excelize.File) ([]models.InstructorPerformance, []string, error) {
	rows, err := sheetRows(f, "Instructor Performance")
	if err != nil {
		return nil, nil, err
	}
	var out []models.InstructorPerformance
	var skipped []string
	for i, row := range rows {
		name := cell(row, 0)
		if name == "" {
			skipped = append(skipped, fmt.Sprintf("Instructor Performance row %d: employee name is required", i+2))
			continue
		}
		out = append(out, models.InstructorPerformance{
			EmployeeName:  name,
			ReviewDate:    parseDate(cell(row, 1)),
			OverallScore:  parseScore(cell(row, 2)),
			OverallRating: models.PerformanceRating(cell(row, 3)),
		})
	}
	return out, skipped, nil
}

func main() {
	file := flag.String("file", "", "Required: path to the HR workbook (.xlsx)")
	dryRun := flag.Bool("dry-run", false, "Parse and report counts without writing")
	flag.Parse()

	if strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(1)
	}

	f, err := excelize.OpenFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open workbook: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	employees, skippedE, err := readEmployees(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	former, skippedF, err := readFormerEmployees(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	joiners, skippedJ, err := readNewJoiners(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	reviews, skippedR, err := readInstructorPerformance(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, msg := range append(append(append(skippedE, skippedF...), skippedJ...), skippedR...) {
		fmt.Fprintln(os.Stderr, "skipped: "+msg)
	}

	fmt.Printf("Parsed: %d employees, %d former, %d joiners, %d reviews\n",
		len(employees), len(former), len(joiners), len(reviews))
	if *dryRun {
		return
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.AutoMigrateAll(db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate tables: %v\n", err)
		os.Exit(1)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Employee{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.FormerEmployee{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.NewJoiner{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.InstructorPerformance{}).Error; err != nil {
			return err
		}
		if len(employees) > 0 {
			if err := tx.CreateInBatches(employees, 200).Error; err != nil {
				return err
			}
		}
		if len(former) > 0 {
			if err := tx.CreateInBatches(former, 200).Error; err != nil {
				return err
			}
		}
		if len(joiners) > 0 {
			if err := tx.CreateInBatches(joiners, 200).Error; err != nil {
				return err
			}
		}
		if len(reviews) > 0 {
			if err := tx.CreateInBatches(reviews, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if utils.IsDuplicateEntry(err) {
			fmt.Fprintf(os.Stderr, "import failed, nothing written: the workbook repeats an employee id: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "import failed, nothing written: %v\n", err)
		}
		os.Exit(1)
	}

	// best-effort: a connected server drops its own cached overview on TTL
	_ = config.RemoveRedisKey("hrOverview")

	fmt.Println("Import complete")
}
