// snapshot-kpis derives the HR KPIs from the raw tables and persists them
// as a new hr_kpi_snapshots row. Run it on a schedule (nightly cron); the
// overview engine will prefer the snapshot values on its next build.
//
// A redis lock guards against two overlapping runs writing duplicate rows.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/models/reports"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/bsm/redislock"
)

const snapshotLockKey = "lock:snapshot-kpis"

func main() {
	dryRun := flag.Bool("dry-run", false, "Compute and print the snapshot without writing it")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	locker := config.GetRedisLock()
	lock, err := locker.Obtain(ctx, snapshotLockKey, 2*time.Minute, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			fmt.Fprintln(os.Stderr, "another snapshot run is in progress; exiting")
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "failed to obtain snapshot lock: %v\n", err)
		os.Exit(1)
	}
	defer lock.Release(ctx)

	if err := db.WithContext(ctx).AutoMigrate(&models.HrKpiSnapshot{}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to migrate snapshot table: %v\n", err)
		os.Exit(1)
	}

	active, err := models.ListEmployees(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load employees: %v\n", err)
		os.Exit(1)
	}
	former, err := models.ListFormerEmployees(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load former employees: %v\n", err)
		os.Exit(1)
	}
	joiners, err := models.ListNewJoiners(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load new joiners: %v\n", err)
		os.Exit(1)
	}
	reviews, err := models.ListInstructorPerformance(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load instructor performance: %v\n", err)
		os.Exit(1)
	}

	// Snapshots are always derived from raw records, never from an earlier
	// snapshot, so stale values cannot self-perpetuate.
	now := time.Now()
	overview := reports.ComputeOverview(active, former, joiners, reviews, nil, now)

	splitJson, err := utils.MarshalToJSON(overview.NationalitySplit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode nationality split: %v\n", err)
		os.Exit(1)
	}
	reasonsJson, err := utils.MarshalToJSON(overview.TurnoverMainReasons)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode turnover reasons: %v\n", err)
		os.Exit(1)
	}

	row := models.HrKpiSnapshot{
		SnapshotDate:          now,
		AttritionRate:         overview.AttritionRate,
		MonthlyPayroll:        overview.MonthlyPayroll,
		AvgTenureYears:        overview.AvgTenureYears,
		NationalitySplitJson:  splitJson,
		MarriedPct:            overview.MarriedPct,
		SinglePct:             overview.SinglePct,
		TurnoverLastYear:      overview.TurnoverLastYear,
		TopTurnoverDepartment: utils.DereferencePtr(overview.TopTurnoverDepartment),
		TopTurnoverPct:        overview.TopTurnoverPct,
		TurnoverReasonsJson:   reasonsJson,
		TurnoverCost:          overview.TurnoverCost,
		EngagementScore:       overview.EngagementScore,
	}

	if *dryRun {
		encoded, _ := utils.MarshalToJSON(row)
		fmt.Println(encoded)
		return
	}

	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to write snapshot: %v\n", err)
		os.Exit(1)
	}

	if err := config.RemoveRedisKey("hrOverview"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to drop the cached overview: %v\n", err)
	}

	fmt.Printf("Snapshot written: id=%d date=%s attrition=%.2f%% payroll=%s\n",
		row.ID, now.Format("2006-01-02"), row.AttritionRate, row.MonthlyPayroll.StringFixed(2))
}
