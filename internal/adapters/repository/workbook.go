package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/internal/domain/teamkey"
	"github.com/okian/fantaledger/internal/domain/views"
	"github.com/okian/fantaledger/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the ledger workbook.
const (
	SheetHistory   = "Storico"
	SheetDeltas    = "Punteggi giornata"
	SheetStandings = "Ultima classifica"
	SheetChart     = "Grafico"

	// TimeLayout is how timestamps are stored in the workbook.
	TimeLayout = "2006-01-02 15:04:05"
)

// History columns.
const (
	colRound    = "giornata"
	colTime     = "data_download"
	colName     = "Squadra"
	colKey      = "squadra_norm"
	colTotal    = "punteggio_totale"
	colDelta    = "punteggio_giornata"
	colPosition = "posizione"
)

var (
	historyHeader   = []interface{}{colRound, colTime, colName, colKey, colTotal}
	deltasHeader    = []interface{}{colRound, colTime, colName, colDelta}
	standingsHeader = []interface{}{colPosition, colName, colTotal, colRound, colTime}
)

// WorkbookStore keeps the ledger in an xlsx workbook.
type WorkbookStore struct {
	path   string
	loc    *time.Location
	chart  ChartRenderer
	logger logger.Logger
}

// NewWorkbookStore creates a store backed by the workbook at path.
func NewWorkbookStore(path string, opts ...Option) *WorkbookStore {
	s := &WorkbookStore{
		path:   path,
		loc:    time.Local,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the workbook location.
func (s *WorkbookStore) Path() string { return s.path }

// Load reads the history sheet. Any problem with the workbook as a whole
// yields an empty ledger; single malformed rows are skipped.
func (s *WorkbookStore) Load(ctx context.Context) (model.Ledger, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		s.logger.Info(ctx, "no ledger workbook yet, starting empty", logger.String("path", s.path))
		return model.Ledger{}, nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		s.logger.Warn(ctx, "ledger workbook unreadable, starting empty", logger.String("path", s.path), logger.Error(err))
		return model.Ledger{}, nil
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetHistory, excelize.Options{RawCellValue: true})
	if err != nil || len(rows) == 0 {
		s.logger.Warn(ctx, "history sheet missing, starting empty",
			logger.String("path", s.path),
			logger.String("sheet", SheetHistory),
		)
		return model.Ledger{}, nil
	}

	cols, missing := locateColumns(rows[0])
	if len(missing) > 0 {
		s.logger.Warn(ctx, "history sheet lacks columns, starting empty",
			logger.String("path", s.path),
			logger.Strings("missing", missing),
		)
		return model.Ledger{}, nil
	}

	ledger := make(model.Ledger, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		e, err := s.parseEntry(row, cols)
		if err != nil {
			s.logger.Warn(ctx, "skipping history row", logger.Int("row", i+2), logger.Error(err))
			continue
		}
		ledger = append(ledger, e)
	}

	s.logger.Debug(ctx, "ledger loaded", logger.Int("entries", len(ledger)), logger.Int("rounds", ledger.MaxRound()))
	return ledger, nil
}

type columns map[string]int

func locateColumns(header []string) (columns, []string) {
	cols := make(columns, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, name := range []string{colRound, colTime, colName, colKey, colTotal} {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	return cols, missing
}

func (c columns) cell(row []string, name string) string {
	i := c[name]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (s *WorkbookStore) parseEntry(row []string, cols columns) (model.Entry, error) {
	roundF, err := strconv.ParseFloat(cols.cell(row, colRound), 64)
	if err != nil || roundF < 1 || roundF != float64(int(roundF)) {
		return model.Entry{}, fmt.Errorf("invalid round %q", cols.cell(row, colRound))
	}

	total, err := strconv.ParseFloat(cols.cell(row, colTotal), 64)
	if err != nil {
		return model.Entry{}, fmt.Errorf("invalid total %q", cols.cell(row, colTotal))
	}

	at, err := s.parseTime(cols.cell(row, colTime))
	if err != nil {
		return model.Entry{}, err
	}

	name := cols.cell(row, colName)
	key := cols.cell(row, colKey)
	if key == "" {
		key = teamkey.Normalize(name)
	}
	if key == "" {
		return model.Entry{}, errors.New("missing team")
	}

	return model.Entry{
		Round:           int(roundF),
		RecordedAt:      at,
		DisplayName:     name,
		TeamKey:         key,
		CumulativeScore: total,
	}, nil
}

// parseTime accepts the stored layout, RFC 3339 and Excel serial dates.
func (s *WorkbookStore) parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(TimeLayout, v, s.loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", v, err)
		}
		// serial dates carry no zone; read them as wall time in loc
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, s.loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", v)
}

// Save writes the ledger sorted by round and score together with the derived
// sheets, then atomically replaces the workbook.
func (s *WorkbookStore) Save(ctx context.Context, ledger model.Ledger) error {
	sorted := ledger.Clone()
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Round != sorted[j].Round {
			return sorted[i].Round < sorted[j].Round
		}
		return sorted[i].CumulativeScore > sorted[j].CumulativeScore
	})

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := s.build(ctx, f, sorted); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteLedger, err)
	}

	if err := s.replace(f); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteLedger, err)
	}

	s.logger.Info(ctx, "ledger workbook written",
		logger.String("path", s.path),
		logger.Int("entries", len(sorted)),
		logger.Int("rounds", sorted.MaxRound()),
	)
	return nil
}

func (s *WorkbookStore) build(ctx context.Context, f *excelize.File, ledger model.Ledger) error {
	if err := f.SetSheetName("Sheet1", SheetHistory); err != nil {
		return err
	}
	for _, name := range []string{SheetDeltas, SheetStandings} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	history := make([][]interface{}, 0, len(ledger))
	for _, e := range ledger {
		history = append(history, []interface{}{e.Round, s.formatTime(e.RecordedAt), e.DisplayName, e.TeamKey, e.CumulativeScore})
	}
	if err := s.writeTable(f, SheetHistory, historyHeader, history); err != nil {
		return err
	}

	deltaRows := views.Deltas(ledger)
	deltas := make([][]interface{}, 0, len(deltaRows))
	for _, d := range deltaRows {
		deltas = append(deltas, []interface{}{d.Round, s.formatTime(d.RecordedAt), d.DisplayName, d.RoundScore})
	}
	if err := s.writeTable(f, SheetDeltas, deltasHeader, deltas); err != nil {
		return err
	}

	standingRows := views.Standings(ledger)
	standings := make([][]interface{}, 0, len(standingRows))
	for _, r := range standingRows {
		standings = append(standings, []interface{}{r.Position, r.DisplayName, r.CumulativeScore, r.Round, s.formatTime(r.RecordedAt)})
	}
	if err := s.writeTable(f, SheetStandings, standingsHeader, standings); err != nil {
		return err
	}

	if err := s.addChart(f, ledger); err != nil {
		// the ledger sheets are complete; write them without the chart
		s.logger.Warn(ctx, "chart sheet skipped", logger.String("path", s.path), logger.Error(err))
		if idx, _ := f.GetSheetIndex(SheetChart); idx >= 0 {
			_ = f.DeleteSheet(SheetChart)
		}
	}

	f.SetActiveSheet(0)
	return nil
}

func (s *WorkbookStore) addChart(f *excelize.File, ledger model.Ledger) error {
	if s.chart == nil {
		return nil
	}
	png, err := s.chart(ledger)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRenderChart, err)
	}
	if _, err := f.NewSheet(SheetChart); err != nil {
		return err
	}
	if err := f.AddPictureFromBytes(SheetChart, "A1", &excelize.Picture{Extension: ".png", File: png}); err != nil {
		return fmt.Errorf("%w: %v", ErrRenderChart, err)
	}
	return nil
}

func (s *WorkbookStore) writeTable(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 20)
}

func (s *WorkbookStore) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(s.loc).Format(TimeLayout)
}

// replace writes f next to the target and renames it over the target.
func (s *WorkbookStore) replace(f *excelize.File) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".fantaledger-*.xlsx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
