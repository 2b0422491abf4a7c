// Package datarecording stores simulation results in SQLite databases.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// ErrInvalidEntry is returned when an entry cannot be stored as a table row.
var ErrInvalidEntry = errors.New("entry is invalid")

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of the tables created by the recorder.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

// New creates a DataRecorder that writes into path + ".sqlite3". If path is
// empty, a unique name is generated. Buffered entries are flushed when the
// program exits through atexit.
func New(path string) (DataRecorder, error) {
	w := &sqliteWriter{
		dbName:    path,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	if err := w.Init(); err != nil {
		return nil, err
	}

	atexit.Register(func() { w.Flush() })

	return w, nil
}

// NewWithDB creates a new DataRecorder with a given database.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		DB:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	return w
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteWriter is the writer that writes data into SQLite database
type sqliteWriter struct {
	*sql.DB

	dbName     string
	tables     map[string]*table
	tableNames []string
	batchSize  int
	entryCount int
	closed     bool
}

// Init establishes a connection to the database.
func (t *sqliteWriter) Init() error {
	if t.dbName == "" {
		t.dbName = "cachesim_" + xid.New().String()
	}

	filename := t.dbName + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filename, err)
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	t.DB = db

	return nil
}

func isAllowedType(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	types := reflect.TypeOf(entry)
	if types == nil || types.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T is not a struct", ErrInvalidEntry, entry)
	}

	for i := 0; i < types.NumField(); i++ {
		field := types.Field(i)

		if !field.IsExported() || !isAllowedType(field.Type.Kind()) {
			return fmt.Errorf("%w: field %s of %s",
				ErrInvalidEntry, field.Name, types.Name())
		}
	}

	return nil
}

func (t *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	if _, exists := t.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	n := structs.Names(sampleEntry)
	fields := strings.Join(n, ", \n\t")

	createTableSQL := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`
	t.mustExecute(createTableSQL)

	t.createIndices(tableName, sampleEntry)

	t.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
	t.tableNames = append(t.tableNames, tableName)
}

// createIndices indexes the fields tagged with `cachesim_data:"index"`.
func (t *sqliteWriter) createIndices(tableName string, sampleEntry any) {
	for _, f := range structs.Fields(sampleEntry) {
		if f.Tag("cachesim_data") != "index" {
			continue
		}

		t.mustExecute(fmt.Sprintf(
			"CREATE INDEX %s_%s ON %s (%s);",
			tableName, f.Name(), tableName, f.Name()))
	}
}

func (t *sqliteWriter) InsertData(tableName string, entry any) {
	table, exists := t.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.structType {
		panic(fmt.Sprintf("table %s stores %s, not %T",
			tableName, table.structType, entry))
	}

	table.entries = append(table.entries, entry)

	t.entryCount++
	if t.entryCount >= t.batchSize {
		t.Flush()
	}
}

func (t *sqliteWriter) ListTables() []string {
	tables := make([]string, len(t.tableNames))
	copy(tables, t.tableNames)

	return tables
}

func (t *sqliteWriter) Flush() {
	if t.entryCount == 0 || t.closed {
		return
	}

	tx, err := t.Begin()
	if err != nil {
		panic(err)
	}

	for _, tableName := range t.tableNames {
		table := t.tables[tableName]
		if len(table.entries) == 0 {
			continue
		}

		stmt := prepareStatement(tx, tableName, table.entries[0])

		for _, entry := range table.entries {
			_, err := stmt.Exec(sqlValues(entry)...)
			if err != nil {
				panic(err)
			}
		}

		table.entries = nil

		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	t.entryCount = 0
}

// sqlValues returns the field values of entry. database/sql rejects uint64
// values with the high bit set, so uint64 fields are stored as the int64 with
// the same bits.
func sqlValues(entry any) []any {
	values := structs.Values(entry)
	for i, v := range values {
		if u, ok := v.(uint64); ok {
			values[i] = int64(u)
		}
	}

	return values
}

func (t *sqliteWriter) Close() error {
	if t.closed {
		return nil
	}

	t.Flush()
	t.closed = true

	return t.DB.Close()
}

func (t *sqliteWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}

	return res
}

func prepareStatement(tx *sql.Tx, table string, entry any) *sql.Stmt {
	n := structs.Names(entry)
	for i := 0; i < len(n); i++ {
		n[i] = "?"
	}

	entryToFill := "(" + strings.Join(n, ", ") + ")"
	sqlStr := "INSERT INTO " + table + " VALUES " + entryToFill

	stmt, err := tx.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	return stmt
}
