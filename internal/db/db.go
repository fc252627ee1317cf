package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// Connect returns a MySQL connection using env vars.
func Connect() (*sql.DB, error) {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3306"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4,utf8", user, pass, host, port, name)
	return sql.Open("mysql", dsn)
}

// EnsureSchema creates required tables if not exist.
func EnsureSchema(db *sql.DB) error {
	if skip := strings.TrimSpace(os.Getenv("DB_SKIP_SCHEMA")); strings.EqualFold(skip, "true") || skip == "1" {
		log.Printf("EnsureSchema: skipped (DB_SKIP_SCHEMA=%q)", skip)
		return nil
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			type ENUM('bus','train','airport') NOT NULL,
			state VARCHAR(100) NULL,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS hotels (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			city VARCHAR(100) NOT NULL,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			price_per_night DOUBLE NOT NULL DEFAULT 0,
			rating DOUBLE NOT NULL DEFAULT 0
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS operators (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			state VARCHAR(100) NOT NULL,
			mode ENUM('bus','train','flight') NOT NULL,
			name VARCHAR(255) NOT NULL,
			UNIQUE KEY uq_operator (state, mode, name)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	for _, stmt := range []string{
		`CREATE INDEX idx_stations_latlon ON stations(lat, lon)`,
		`CREATE INDEX idx_stations_type ON stations(type)`,
		`CREATE INDEX idx_hotels_latlon ON hotels(lat, lon)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			errMsg := strings.ToLower(err.Error())
			if strings.Contains(errMsg, "duplicate") {
				// index already exists, nothing to do
			} else if strings.Contains(errMsg, "permission denied") {
				log.Printf("EnsureSchema: unable to create index (permission denied): %v", err)
			} else {
				return err
			}
		}
	}

	return nil
}
