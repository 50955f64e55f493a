package dataset

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"
	_ "modernc.org/sqlite"

	"github.com/transitlab/traffic-prep-go/internal/errs"
	"github.com/transitlab/traffic-prep-go/internal/tensor"
)

// Open reads a dataset file produced by the collection tooling. The file
// is an SQLite database; see the table list in readTables. The read is
// one-shot: the returned DataSet holds everything in memory and the
// connection is closed before returning.
func Open(path string) (*DataSet, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to configure dataset db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping dataset db: %w", err)
	}

	ds, err := readTables(db)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func tableExists(db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func readTables(db *sql.DB) (*DataSet, error) {
	meta, err := readMeta(db)
	if err != nil {
		return nil, err
	}

	ds := &DataSet{
		Name: meta["name"],
		City: meta["city"],
		POI:  map[int]*tensor.Tensor{},
	}

	ds.TimeFitness, err = strconv.ParseFloat(meta["time_fitness"], 64)
	if err != nil {
		return nil, errs.Config("time_fitness", "unparseable value %q", meta["time_fitness"])
	}
	ds.TimeStart, err = parseStart(meta["time_start"])
	if err != nil {
		return nil, errs.Config("time_start", "unparseable value %q", meta["time_start"])
	}
	if s, ok := meta["service_start_hour"]; ok {
		e := meta["service_end_hour"]
		start, err1 := strconv.Atoi(s)
		end, err2 := strconv.Atoi(e)
		if err1 != nil || err2 != nil {
			return nil, errs.Config("service_hours", "unparseable window %q-%q", s, e)
		}
		ds.Hours = &ServiceHours{StartHour: start, EndHour: end}
	}

	if ds.NodeTraffic, err = readTraffic(db); err != nil {
		return nil, err
	}
	if ds.Stations, err = readStations(db); err != nil {
		return nil, err
	}
	if ds.Weather, err = readGrid(db, "weather", "slot", "dim"); err != nil {
		return nil, err
	}
	if ds.MonthlyInteraction, err = readInteraction(db); err != nil {
		return nil, err
	}
	if ds.GraphNeighbors, err = readGraph(db, "neighbor"); err != nil {
		return nil, err
	}
	if ds.GraphLines, err = readGraph(db, "line"); err != nil {
		return nil, err
	}
	if ds.GraphTransfer, err = readGraph(db, "transfer"); err != nil {
		return nil, err
	}
	if err = readPOI(db, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

func readMeta(db *sql.DB) (map[string]string, error) {
	ok, err := tableExists(db, "meta")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.Data("meta", "dataset file has no meta table")
	}
	rows, err := db.Query("SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("failed to read meta: %w", err)
	}
	defer rows.Close()

	meta := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func parseStart(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// readGrid reads a sparse (row, col, value) table into a dense 2-D tensor
// sized by the maximum indices present. Returns nil when the table is
// absent or empty.
func readGrid(db *sql.DB, table, rowCol, colCol string) (*tensor.Tensor, error) {
	ok, err := tableExists(db, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var maxRow, maxCol sql.NullInt64
	q := fmt.Sprintf("SELECT MAX(%s), MAX(%s) FROM %s", rowCol, colCol, table)
	if err := db.QueryRow(q).Scan(&maxRow, &maxCol); err != nil {
		return nil, fmt.Errorf("failed to size %s: %w", table, err)
	}
	if !maxRow.Valid {
		return nil, nil
	}

	out := tensor.New(int(maxRow.Int64)+1, int(maxCol.Int64)+1)
	rows, err := db.Query(fmt.Sprintf("SELECT %s, %s, value FROM %s", rowCol, colCol, table))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var r, c int
		var v float64
		if err := rows.Scan(&r, &c, &v); err != nil {
			return nil, err
		}
		out.Set(v, r, c)
	}
	return out, rows.Err()
}

func readTraffic(db *sql.DB) (*tensor.Tensor, error) {
	t, err := readGrid(db, "traffic", "slot", "node")
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errs.Data("node_traffic", "dataset file has no traffic table")
	}
	return t, nil
}

func readStations(db *sql.DB) ([]Station, error) {
	ok, err := tableExists(db, "stations")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	rows, err := db.Query("SELECT id, name, lat, lng FROM stations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to read stations: %w", err)
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		var s Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Lat, &s.Lng); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

func readInteraction(db *sql.DB) (*tensor.Tensor, error) {
	ok, err := tableExists(db, "monthly_interaction")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var maxMonth, maxNode sql.NullInt64
	err = db.QueryRow("SELECT MAX(month), MAX(MAX(src), MAX(dst)) FROM monthly_interaction").Scan(&maxMonth, &maxNode)
	if err != nil {
		return nil, fmt.Errorf("failed to size monthly_interaction: %w", err)
	}
	if !maxMonth.Valid {
		return nil, nil
	}
	months := int(maxMonth.Int64) + 1
	n := int(maxNode.Int64) + 1

	out := tensor.New(months, n, n)
	rows, err := db.Query("SELECT month, src, dst, value FROM monthly_interaction")
	if err != nil {
		return nil, fmt.Errorf("failed to read monthly_interaction: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m, s, d int
		var v float64
		if err := rows.Scan(&m, &s, &d, &v); err != nil {
			return nil, err
		}
		out.Set(v, m, s, d)
	}
	return out, rows.Err()
}

func readGraph(db *sql.DB, name string) (*mat.Dense, error) {
	ok, err := tableExists(db, "graphs")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var maxNode sql.NullInt64
	err = db.QueryRow("SELECT MAX(MAX(i), MAX(j)) FROM graphs WHERE name=?", name).Scan(&maxNode)
	if err != nil {
		return nil, fmt.Errorf("failed to size graph %s: %w", name, err)
	}
	if !maxNode.Valid {
		return nil, nil
	}
	n := int(maxNode.Int64) + 1

	out := mat.NewDense(n, n, nil)
	rows, err := db.Query("SELECT i, j, value FROM graphs WHERE name=?", name)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph %s: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var i, j int
		var v float64
		if err := rows.Scan(&i, &j, &v); err != nil {
			return nil, err
		}
		out.Set(i, j, v)
	}
	return out, rows.Err()
}

func readPOI(db *sql.DB, ds *DataSet) error {
	ok, err := tableExists(db, "poi")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rows, err := db.Query("SELECT DISTINCT distance FROM poi")
	if err != nil {
		return fmt.Errorf("failed to read poi distances: %w", err)
	}
	var distances []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return err
		}
		distances = append(distances, d)
	}
	rows.Close()

	for _, d := range distances {
		var maxNode, maxDim sql.NullInt64
		err = db.QueryRow("SELECT MAX(node), MAX(dim) FROM poi WHERE distance=?", d).Scan(&maxNode, &maxDim)
		if err != nil {
			return fmt.Errorf("failed to size poi %d: %w", d, err)
		}
		out := tensor.New(int(maxNode.Int64)+1, int(maxDim.Int64)+1)
		prows, err := db.Query("SELECT node, dim, value FROM poi WHERE distance=?", d)
		if err != nil {
			return fmt.Errorf("failed to read poi %d: %w", d, err)
		}
		for prows.Next() {
			var node, dim int
			var v float64
			if err := prows.Scan(&node, &dim, &v); err != nil {
				prows.Close()
				return err
			}
			out.Set(v, node, dim)
		}
		if err := prows.Err(); err != nil {
			prows.Close()
			return err
		}
		prows.Close()
		ds.POI[d] = out
	}
	return nil
}
