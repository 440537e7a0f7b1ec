package export

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

const defaultGreptimePort = 4001

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes snapshot and stall rows to GreptimeDB via the
// ingester client.
type GreptimeDBWriter struct {
	client     greptimeClient
	table      string
	stallTable string
	log        *slog.Logger
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port") and
// targets database. Stall rows go to "<tableName>_stalls".
func NewGreptimeDBWriter(endpoint, database, tableName string, log *slog.Logger) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &GreptimeDBWriter{
		client:     client,
		table:      tableName,
		stallTable: tableName + "_stalls",
		log:        log,
	}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	if endpoint == "" {
		return "", 0, fmt.Errorf("greptime endpoint is empty")
	}
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// no port given
		return endpoint, defaultGreptimePort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("greptime endpoint %q: invalid port: %w", endpoint, err)
	}
	return host, port, nil
}

// Write inserts a single snapshot row.
func (w *GreptimeDBWriter) Write(row SnapshotRow) error {
	return w.WriteBatch([]SnapshotRow{row})
}

// WriteBatch inserts multiple snapshot rows.
func (w *GreptimeDBWriter) WriteBatch(rows []SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	cols := []struct {
		name string
		tag  bool
		typ  types.ColumnType
	}{
		{"run_id", true, types.STRING},
		{"build_order", true, types.STRING},
		{"source", true, types.STRING},
		{"tick", false, types.INT64},
		{"metal_income", false, types.FLOAT64},
		{"energy_income", false, types.FLOAT64},
		{"metal_stored", false, types.FLOAT64},
		{"energy_stored", false, types.FLOAT64},
		{"build_power", false, types.FLOAT64},
		{"army_value_metal", false, types.FLOAT64},
		{"stall_factor", false, types.FLOAT64},
	}
	for _, c := range cols {
		if c.tag {
			err = tbl.AddTagColumn(c.name, c.typ)
		} else {
			err = tbl.AddFieldColumn(c.name, c.typ)
		}
		if err != nil {
			return err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(
			r.RunID, r.BuildOrder, r.Source,
			int64(r.Tick),
			r.MetalIncome, r.EnergyIncome,
			r.MetalStored, r.EnergyStored,
			r.BuildPower, r.ArmyValueMetal, r.StallFactor,
			r.Timestamp,
		); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

// WriteStalls inserts stall rows into the stall table.
func (w *GreptimeDBWriter) WriteStalls(rows []StallRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.stallTable)
	if err != nil {
		return err
	}
	for _, name := range []string{"run_id", "build_order", "resource"} {
		if err := tbl.AddTagColumn(name, types.STRING); err != nil {
			return err
		}
	}
	if err := tbl.AddFieldColumn("start_tick", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("end_tick", types.INT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("severity", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, r.BuildOrder, r.Resource,
			int64(r.StartTick), int64(r.EndTick), r.Severity, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, len(rows))
}

func (w *GreptimeDBWriter) write(tbl *table.Table, n int) error {
	name, _ := tbl.GetName()
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		w.logger().Error("greptime write failed", "table", name, "error", err)
		return err
	}
	w.logger().Debug("greptime write", "table", name, "rows", n)
	return nil
}

func (w *GreptimeDBWriter) logger() *slog.Logger {
	if w.log == nil {
		return slog.Default()
	}
	return w.log
}
