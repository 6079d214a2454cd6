package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/models"
	"github.com/xuri/excelize/v2"
)

// ExportOverviewExcel writes a two-sheet workbook: the KPI overview and the
// active roster. Streams straight into w; the caller sets headers.
func ExportOverviewExcel(ctx context.Context, w io.Writer) error {
	overview, err := BuildOverview(ctx)
	if err != nil {
		return err
	}
	roster, err := models.ListEmployees(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const kpiSheet = "Overview"
	f.SetSheetName("Sheet1", kpiSheet)

	kpiRows := [][2]interface{}{
		{"Total Employees", overview.TotalEmployees},
		{"Active Employees", overview.ActiveEmployees},
		{"Former Employees", overview.FormerEmployees},
		{"Attrition Rate %", overview.AttritionRate},
		{"Monthly Payroll (QAR)", overview.MonthlyPayroll.InexactFloat64()},
		{"Avg Tenure (years)", overview.AvgTenureYears},
		{"Married %", overview.MarriedPct},
		{"Single %", overview.SinglePct},
		{"Turnover Last Year", overview.TurnoverLastYear},
		{"Terminations", overview.TurnoverBreakdown.Terminations},
		{"Resignations", overview.TurnoverBreakdown.Resignations},
		{"Turnover Cost (QAR)", overview.TurnoverCost.InexactFloat64()},
		{"On Probation", overview.OnProbationCount},
		{"Probation Failure Rate %", overview.ProbationFailureRate},
		{"Poor Performers", overview.PoorPerformersCount},
		{"Exceed Expectations %", overview.ExceedExpectationsPct},
	}
	f.SetCellValue(kpiSheet, "A1", "KPI")
	f.SetCellValue(kpiSheet, "B1", "Value")
	for i, row := range kpiRows {
		f.SetCellValue(kpiSheet, "A"+fmt.Sprint(i+2), row[0])
		f.SetCellValue(kpiSheet, "B"+fmt.Sprint(i+2), row[1])
	}

	const rosterSheet = "Employees"
	if _, err := f.NewSheet(rosterSheet); err != nil {
		return err
	}

	headers := []string{"EmployeeId", "Name", "Nationality", "Department", "Position", "ContractType", "DateOfJoining", "TotalSalary"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(rosterSheet, cell, h)
	}
	for i, e := range roster {
		values := []interface{}{
			e.EmployeeId,
			e.FullName(),
			e.Nationality,
			e.Department,
			e.Position,
			string(e.ContractType),
			"",
			e.TotalSalary().InexactFloat64(),
		}
		if e.DateOfJoining != nil {
			values[6] = e.DateOfJoining.Format("2006-01-02")
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(rosterSheet, cell, v)
		}
	}

	trend, err := models.ListMonthlyRevenue(ctx)
	if err != nil {
		return err
	}
	const trendSheet = "Monthly Revenue"
	if _, err := f.NewSheet(trendSheet); err != nil {
		return err
	}
	f.SetCellValue(trendSheet, "A1", "Year")
	f.SetCellValue(trendSheet, "B1", "Month")
	f.SetCellValue(trendSheet, "C1", "Revenue (QAR)")
	for i, m := range trend {
		month := m.MonthName
		if month == "" {
			month = time.Month(m.Month).String()
		}
		f.SetCellValue(trendSheet, "A"+fmt.Sprint(i+2), m.Year)
		f.SetCellValue(trendSheet, "B"+fmt.Sprint(i+2), month)
		f.SetCellValue(trendSheet, "C"+fmt.Sprint(i+2), m.RevenueQr.InexactFloat64())
	}

	return f.Write(w)
}
