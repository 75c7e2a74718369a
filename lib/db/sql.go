//Package db is the MySQL-backed implementation of the persistence contract the realtime core depends on.
package db

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/whistlepost/WhistlepostAPI/lib/conf"
	"github.com/whistlepost/WhistlepostAPI/lib/psc"
)

const (
	//For parsing
	mysqlTime = "2006-01-02 15:04:05"
)

//DB contains the database connection and a prepared statement cache.
type DB struct {
	database *sql.DB
	sc       *psc.StatementCache
}

//New connects to MySQL as configured, or dies trying.
func New(config conf.MysqlConfig) (db *DB) {
	database, err := sql.Open("mysql", config.ConnectionString())
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	database.SetMaxIdleConns(config.MaxConns)
	db = &DB{database: database, sc: psc.NewCache(database)}
	go db.keepalive()
	return
}

func (db *DB) prepare(query string) (stmt *sql.Stmt, err error) {
	return db.sc.Prepare(query)
}

func (db *DB) keepalive() {
	tick := time.Tick(1 * time.Hour)
	for range tick {
		err := db.database.Ping()
		if err != nil {
			log.Println("Database keepalive failed:", err)
		}
	}
}
