// Package history keeps local log of acquisition cycles in sqlite.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/juju/errors"
	_ "github.com/mattn/go-sqlite3" // driver
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	"github.com/temoto/yc01-bridge/internal/tele"
	"github.com/temoto/yc01-bridge/log2"
)

const schema = `
CREATE TABLE IF NOT EXISTS cycle (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	time_ns INTEGER NOT NULL,
	node TEXT NOT NULL,
	cycle INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	message TEXT NOT NULL,
	address TEXT,
	name TEXT,
	reading_time_ns INTEGER,
	rssi INTEGER,
	type INTEGER,
	sensor_type TEXT,
	ph REAL, ec REAL, salt REAL, tds REAL, orp REAL, chlorine REAL, temperature REAL, battery REAL
);
CREATE INDEX IF NOT EXISTS cycle_time ON cycle(time_ns);
`

const openTimeout = 5 * time.Second

type Entry struct {
	Time    time.Time
	Node    string
	Cycle   uint64
	Outcome string
	Message string
	Device  *ble.Identity
	Reading *yc01.Reading
}

type History struct {
	db        *sql.DB
	log       *log2.Log
	path      string
	retention time.Duration
}

// Open retention<=0 keeps everything.
func Open(log *log2.Log, path string, retention time.Duration) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Annotate(err, "history mkdir")
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, errors.Annotatef(err, "history open path=%s", path)
	}
	db.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()
	if _, err = db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Annotatef(err, "history schema path=%s", path)
	}
	return &History{db: db, log: log, path: path, retention: retention}, nil
}

func (self *History) Close() error { return errors.Annotate(self.db.Close(), "history close") }

// Record appends cycle outcome and prunes entries older than retention.
func (self *History) Record(ctx context.Context, s *tele.Status) error {
	var address, name, sensorType sql.NullString
	var readingTime, rssi, typ sql.NullInt64
	var values [8]sql.NullFloat64
	if s.Device != nil {
		address = sql.NullString{String: string(s.Device.Address), Valid: true}
		name = sql.NullString{String: s.Device.Name, Valid: true}
	}
	if r := s.Reading; r != nil {
		readingTime = sql.NullInt64{Int64: r.Time.UnixNano(), Valid: true}
		rssi = sql.NullInt64{Int64: int64(r.RSSI), Valid: true}
		typ = sql.NullInt64{Int64: int64(r.Type), Valid: true}
		sensorType = sql.NullString{String: r.SensorType, Valid: true}
		for i, v := range []float64{r.PH, r.EC, r.Salt, r.TDS, r.ORP, r.Chlorine, r.Temperature, r.Battery} {
			values[i] = sql.NullFloat64{Float64: v, Valid: true}
		}
	}
	_, err := self.db.ExecContext(ctx, `INSERT INTO cycle
(time_ns,node,cycle,outcome,message,address,name,reading_time_ns,rssi,type,sensor_type,ph,ec,salt,tds,orp,chlorine,temperature,battery)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.Time.UnixNano(), s.Node, int64(s.Cycle), s.Outcome, s.Message, address, name, readingTime, rssi, typ, sensorType,
		values[0], values[1], values[2], values[3], values[4], values[5], values[6], values[7])
	if err != nil {
		return errors.Annotate(err, "history insert")
	}
	if self.retention > 0 {
		res, err := self.db.ExecContext(ctx, `DELETE FROM cycle WHERE time_ns < ?`, s.Time.Add(-self.retention).UnixNano())
		if err != nil {
			return errors.Annotate(err, "history prune")
		}
		if n, _ := res.RowsAffected(); n > 0 {
			self.log.Debugf("history pruned=%d", n)
		}
	}
	return nil
}

// Recent returns last entries, newest first.
func (self *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := self.db.QueryContext(ctx, `SELECT
time_ns,node,cycle,outcome,message,address,name,reading_time_ns,rssi,type,sensor_type,ph,ec,salt,tds,orp,chlorine,temperature,battery
FROM cycle ORDER BY time_ns DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Annotate(err, "history query")
	}
	defer rows.Close()
	result := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var timeNs, cycle int64
		var address, name, sensorType sql.NullString
		var readingTime, rssi, typ sql.NullInt64
		var v [8]sql.NullFloat64
		if err = rows.Scan(&timeNs, &e.Node, &cycle, &e.Outcome, &e.Message, &address, &name, &readingTime, &rssi, &typ, &sensorType,
			&v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6], &v[7]); err != nil {
			return nil, errors.Annotate(err, "history scan")
		}
		e.Time = time.Unix(0, timeNs).UTC()
		e.Cycle = uint64(cycle)
		if address.Valid {
			e.Device = &ble.Identity{Address: ble.Address(address.String), Name: name.String}
		}
		if readingTime.Valid {
			e.Reading = &yc01.Reading{
				Type:        byte(typ.Int64),
				SensorType:  sensorType.String,
				Time:        time.Unix(0, readingTime.Int64).UTC(),
				RSSI:        int(rssi.Int64),
				PH:          v[0].Float64,
				EC:          v[1].Float64,
				Salt:        v[2].Float64,
				TDS:         v[3].Float64,
				ORP:         v[4].Float64,
				Chlorine:    v[5].Float64,
				Temperature: v[6].Float64,
				Battery:     v[7].Float64,
			}
		}
		result = append(result, e)
	}
	return result, errors.Annotate(rows.Err(), "history rows")
}
