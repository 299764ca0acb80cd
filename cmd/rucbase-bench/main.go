// Command rucbase-bench drives the storage and execution engine end to end:
// it opens (or creates) a database directory, creates a table with a
// secondary index, inserts a batch of generated rows through the insert
// executor, then runs a filtered scan and an update through the same
// executor tree, reporting how long each phase took.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/lkyu-ly/rucbase-go/catalog"
	"github.com/lkyu-ly/rucbase-go/common"
	"github.com/lkyu-ly/rucbase-go/execution"
	"github.com/lkyu-ly/rucbase-go/indexing"
	"github.com/lkyu-ly/rucbase-go/planner"
	"github.com/lkyu-ly/rucbase-go/storage"
	"github.com/lkyu-ly/rucbase-go/transaction"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "rucbase-data", "database directory")
	rows := flag.Int("rows", 10000, "number of rows to insert")
	poolSize := flag.Int("pool", 64, "buffer pool frames per open file")
	fresh := flag.Bool("fresh", false, "delete an existing database directory before running")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "building logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*dir, *rows, *poolSize, *fresh, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(dir string, numRows, poolSize int, fresh bool, logger *zap.Logger) error {
	if fresh {
		_ = catalog.DropDB(dir)
	}

	dm := storage.NewDiskManager(logger)

	cat, err := catalog.OpenDB(dir, dm, poolSize, logger)
	if dbErr, ok := err.(common.DBError); ok && dbErr.Code == common.DatabaseNotFound {
		cat, err = catalog.CreateDB(dir, dm, poolSize, logger)
	}
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer cat.CloseDB()

	const tableName = "items"
	cols := []catalog.ColMeta{
		{Name: "id", Type: common.IntType},
		{Name: "name", Type: common.StringType},
		{Name: "qty", Type: common.IntType},
	}
	tab, err := cat.GetTableMetadata(tableName)
	if err != nil {
		tab, err = cat.CreateTable(tableName, cols)
		if err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
		if err := cat.CreateIndex(tableName, []string{"id"}); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
		tab, err = cat.GetTableMetadata(tableName)
		if err != nil {
			return err
		}
	}

	txn := transaction.NewTransactionContext(1)
	ctx := execution.NewExecutorContext(txn)

	rowValues := make([][]common.Value, numRows)
	for i := 0; i < numRows; i++ {
		rowValues[i] = []common.Value{
			common.NewIntValue(int64(i)),
			common.NewStringValue(gofakeit.FirstName()),
			common.NewIntValue(int64(gofakeit.Number(1, 100))),
		}
	}

	start := time.Now()
	values := planner.NewValuesNode(tab.Desc.GetFieldTypes(), rowValues)
	insertPlan := planner.NewInsertNode(tableName, values)
	insertExec := execution.NewInsertExecutor(insertPlan, execution.NewValuesExecutor(values), tab.Heap, indexList(tab))
	if err := runToCompletion(insertExec, ctx); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	logger.Info("insert complete", zap.Int("rows", numRows), zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	threshold := planner.NewComparisonExpression(
		planner.NewColumnValueExpression(2, tab.Desc.GetFieldTypes(), "qty"),
		planner.NewConstantValueExpression(common.NewIntValue(50)),
		planner.GreaterThanOrEqual,
	)
	scanPlan := planner.NewSeqScanNode(tableName, tab.Desc.GetFieldTypes(), []planner.Expr{threshold})
	scanExec := execution.NewSeqScanExecutor(scanPlan, tab.Heap)
	if err := scanExec.Init(ctx); err != nil {
		return fmt.Errorf("scan init: %w", err)
	}
	matched := 0
	for scanExec.Next() {
		matched++
	}
	if err := scanExec.Error(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if err := scanExec.Close(); err != nil {
		return err
	}
	logger.Info("scan complete", zap.Int("matched", matched), zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	restockPlan := planner.NewSeqScanNode(tableName, tab.Desc.GetFieldTypes(), []planner.Expr{
		planner.NewComparisonExpression(
			planner.NewColumnValueExpression(2, tab.Desc.GetFieldTypes(), "qty"),
			planner.NewConstantValueExpression(common.NewIntValue(10)),
			planner.LessThan,
		),
	})
	updatePlan := planner.NewUpdateNode(tableName, restockPlan, []planner.Assignment{
		{ColumnIndex: 2, Value: planner.NewConstantValueExpression(common.NewIntValue(100))},
	})
	updateExec := execution.NewUpdateExecutor(updatePlan, tab.Heap, execution.NewSeqScanExecutor(restockPlan, tab.Heap), indexList(tab))
	if err := runToCompletion(updateExec, ctx); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	logger.Info("restock complete", zap.Duration("elapsed", time.Since(start)))

	return nil
}

// runToCompletion drains a DML executor (Insert/Update/Delete), whose single
// logical output row is readable via Current() once the drain is done,
// regardless of what Next() itself returns.
func runToCompletion(e execution.Executor, ctx *execution.ExecutorContext) error {
	if err := e.Init(ctx); err != nil {
		return err
	}
	e.Next()
	if err := e.Error(); err != nil {
		return err
	}
	return e.Close()
}

func indexList(tab *catalog.TabMeta) []indexing.Index {
	out := make([]indexing.Index, 0, len(tab.Indexes))
	for _, idx := range tab.Indexes {
		out = append(out, idx)
	}
	return out
}
