package features

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ChronoBoot/loan-score/internal/config"
	"github.com/ChronoBoot/loan-score/internal/datasource/file"
	"github.com/ChronoBoot/loan-score/internal/frame"
	"github.com/ChronoBoot/loan-score/internal/metrics"
	csvparser "github.com/ChronoBoot/loan-score/internal/parser/csv"
)

// Source file names, fixed by the upstream dataset.
const (
	ApplicationTrainFile     = "application_train.csv"
	ApplicationTestFile      = "application_test.csv"
	BureauFile               = "bureau.csv"
	CreditCardBalanceFile    = "credit_card_balance.csv"
	InstallmentsPaymentsFile = "installments_payments.csv"
	PreviousApplicationFile  = "previous_application.csv"
	POSCashBalanceFile       = "POS_CASH_balance.csv"
)

// IDColumn is the applicant key shared by the primary and satellite tables.
const IDColumn = "SK_ID_CURR"

// SourceFiles lists every CSV the assembler reads, in read order.
var SourceFiles = []string{
	ApplicationTrainFile,
	ApplicationTestFile,
	BureauFile,
	CreditCardBalanceFile,
	InstallmentsPaymentsFile,
	PreviousApplicationFile,
	POSCashBalanceFile,
}

// Logger is the minimal logging interface used by the assembler.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Summarizer reduces a satellite table to one row per applicant.
type Summarizer func(*frame.Table) (*frame.Table, error)

// Assembler builds the flattened per-applicant feature table: it reads the
// primary application table, summarizes each satellite table and outer-joins
// the summaries onto the primary rows by applicant ID.
//
// The outer join plus the pre-filtering of satellites to the primary ID set
// guarantee the row-count invariant: the assembled table has exactly one row
// per sampled applicant, however many satellite rows exist (including none).
type Assembler struct {
	DataDir string
	Logger  Logger

	// DiffMean selects the DAYS_CREDIT_DIFF_MEAN policy for the bureau
	// summarizer. Zero value means DiffMeanGlobal.
	DiffMean DiffMeanPolicy

	// ParserOptions are passed through to the CSV reader (delimiter,
	// encoding, ...). sample_every is managed by Assemble.
	ParserOptions config.Options

	// Open is a seam for tests; when nil the file is opened from DataDir.
	Open func(name string) (io.ReadCloser, error)
}

// NewAssembler returns an assembler reading from dataDir.
func NewAssembler(dataDir string) *Assembler {
	return &Assembler{DataDir: dataDir}
}

type tableStep struct {
	file      string
	summarize Summarizer
}

// plan is the static table-to-summarizer dispatch, in join order.
func (a *Assembler) plan() []tableStep {
	policy := a.DiffMean
	if policy == "" {
		policy = DiffMeanGlobal
	}
	return []tableStep{
		{BureauFile, func(t *frame.Table) (*frame.Table, error) { return SummarizeBureau(t, policy) }},
		{CreditCardBalanceFile, SummarizeCreditCard},
		{InstallmentsPaymentsFile, SummarizeInstallments},
		{PreviousApplicationFile, SummarizePrevious},
		{POSCashBalanceFile, SummarizePOSCash},
	}
}

// Assemble produces the joined feature table.
//
// samplingRate keeps every samplingRate-th row of the primary table
// (deterministic modulo sampling, not random); 1 keeps everything.
// training selects application_train.csv, otherwise application_test.csv.
//
// Errors:
//   - a missing or unreadable source file is fatal
//   - a missing expected column is fatal at first access
//   - empty or all-null groups are not errors; they produce null summary
//     cells after the join
func (a *Assembler) Assemble(ctx context.Context, samplingRate int, training bool) (*frame.Table, error) {
	if samplingRate < 1 {
		samplingRate = 1
	}
	logf := a.logf()

	primaryFile := ApplicationTestFile
	if training {
		primaryFile = ApplicationTrainFile
	}

	opt := config.Options{}
	for k, v := range a.ParserOptions {
		opt[k] = v
	}
	opt["sample_every"] = samplingRate

	start := time.Now()
	data, err := a.readTable(ctx, primaryFile, opt)
	if err != nil {
		return nil, err
	}
	logf("stage=read_primary file=%s rows=%d sampling=%d duration=%s",
		primaryFile, data.NumRows(), samplingRate, durMS(start))
	metrics.AddRecords(primaryFile, float64(data.NumRows()))

	ids, err := data.KeySet(IDColumn)
	if err != nil {
		return nil, fmt.Errorf("features: primary table: %w", err)
	}

	delete(opt, "sample_every")
	for _, step := range a.plan() {
		stepStart := time.Now()

		sat, err := a.readTable(ctx, step.file, opt)
		if err != nil {
			return nil, err
		}
		metrics.AddRecords(step.file, float64(sat.NumRows()))

		key, err := sat.Col(IDColumn)
		if err != nil {
			return nil, fmt.Errorf("features: %s: %w", step.file, err)
		}
		sat = sat.FilterRows(func(i int) bool {
			_, ok := ids[frame.FormatValue(key.Vals[i])]
			return ok
		})

		summary, err := step.summarize(sat)
		if err != nil {
			return nil, err
		}

		data, err = frame.OuterJoin(data, summary, IDColumn)
		if err != nil {
			return nil, fmt.Errorf("features: join %s: %w", step.file, err)
		}

		logf("stage=summarize file=%s rows_in=%d rows_out=%d duration=%s",
			step.file, sat.NumRows(), summary.NumRows(), durMS(stepStart))
		metrics.IncStep("summarize_" + step.file)
		metrics.ObserveDuration("summarize_"+step.file, time.Since(stepStart).Seconds())
	}

	logf("stage=assemble ok rows=%d cols=%d duration=%s",
		data.NumRows(), data.NumCols(), durMS(start))
	metrics.IncStep("assemble")
	metrics.ObserveDuration("assemble", time.Since(start).Seconds())
	return data, nil
}

// WriteFeatures assembles the dataset, drops the applicant ID and writes the
// feature CSV to DataDir. The written table is returned for profiling and
// training.
func (a *Assembler) WriteFeatures(ctx context.Context, samplingRate int, training bool, filename string) (*frame.Table, error) {
	data, err := a.Assemble(ctx, samplingRate, training)
	if err != nil {
		return nil, err
	}
	data, err = data.DropColumn(IDColumn)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(a.DataDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("features: write %s: %w", path, err)
	}
	defer f.Close()

	if err := data.WriteCSV(f); err != nil {
		return nil, fmt.Errorf("features: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("features: write %s: %w", path, err)
	}
	return data, nil
}

func (a *Assembler) readTable(ctx context.Context, name string, opt config.Options) (*frame.Table, error) {
	open := a.Open
	if open == nil {
		open = func(name string) (io.ReadCloser, error) {
			return file.NewLocal(filepath.Join(a.DataDir, name)).Open(ctx)
		}
	}
	src, err := open(name)
	if err != nil {
		return nil, fmt.Errorf("features: open %s: %w", name, err)
	}
	defer src.Close()

	t, err := csvparser.ReadTable(ctx, src, opt)
	if err != nil {
		return nil, fmt.Errorf("features: read %s: %w", name, err)
	}
	return t, nil
}

func (a *Assembler) logf() func(format string, v ...any) {
	if a.Logger == nil {
		l := log.New(io.Discard, "", 0)
		return l.Printf
	}
	return a.Logger.Printf
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }
