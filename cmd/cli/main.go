package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appdb "github.com/yourorg/velora/internal/db"
	"github.com/yourorg/velora/internal/models"
)

var (
	fromArg       string
	toArg         string
	departArg     string
	modeArg       string
	deadlineArg   string
	stateArg      string
	hasVehicleArg bool
	debugArg      bool
)

var rootCmd = &cobra.Command{
	Use:   "velora",
	Short: "Velora trip planner CLI",
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a trip through the running API",
	Run: func(cmd *cobra.Command, args []string) {
		doPlan()
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check API health",
	Run: func(cmd *cobra.Command, args []string) {
		doHealthCheck()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample stations",
	Run: func(cmd *cobra.Command, args []string) {
		doSeed()
	},
}

func init() {
	planCmd.Flags().StringVarP(&fromArg, "from", "f", "", "Origin: place name or \"lat,lon\"")
	planCmd.Flags().StringVarP(&toArg, "to", "t", "", "Destination: place name or \"lat,lon\"")
	planCmd.Flags().StringVarP(&departArg, "depart", "d", "", "Departure time HH:MM (default: now)")
	planCmd.Flags().StringVar(&deadlineArg, "deadline", "", "Arrival deadline HH:MM (plans backwards)")
	planCmd.Flags().StringVarP(&modeArg, "mode", "m", "auto", "Restrict to one mode: drive, bus, train, flight, combo")
	planCmd.Flags().StringVar(&stateArg, "state", "", "Origin state, for bus operator names")
	planCmd.Flags().BoolVar(&hasVehicleArg, "vehicle", false, "Traveler has their own vehicle")
	planCmd.Flags().BoolVarP(&debugArg, "debug", "v", false, "Include all candidates in output")
	planCmd.MarkFlagRequired("from")
	planCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(planCmd, healthCmd, seedCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func baseURL() string {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:8080"
	}
	return strings.TrimRight(base, "/")
}

func doPlan() {
	req := models.PlanRequest{
		Mode:          modeArg,
		DepartureTime: departArg,
		Deadline:      deadlineArg,
		State:         stateArg,
		HasVehicle:    hasVehicleArg,
		Debug:         debugArg,
	}

	if p, ok := parseLatLon(fromArg); ok {
		req.Origin = p
	} else {
		req.OriginName = fromArg
	}
	if p, ok := parseLatLon(toArg); ok {
		req.Destination = p
	} else {
		req.DestName = toArg
	}

	body, err := json.Marshal(req)
	if err != nil {
		log.Println("Plan: encode error:", err)
		return
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Post(baseURL()+"/api/plan", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Println("Plan: request error:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		fmt.Printf("Plan failed (%s): %v\n", resp.Status, apiErr)
		return
	}

	var result models.PlanningResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Println("Plan: decode error:", err)
		return
	}
	printResult(result)
}

// parseLatLon interpreta "lat,lon"; cualquier otra cosa es un nombre
func parseLatLon(s string) (models.Coordinate, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return models.Coordinate{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return models.Coordinate{}, false
	}
	return models.Coordinate{Lat: lat, Lon: lon}, true
}

func printResult(r models.PlanningResult) {
	fmt.Printf("Decision: %s\n", r.Decision)
	fmt.Printf("Reason:   %s\n", r.Reason)
	if r.Decision == "no_options" {
		return
	}
	fmt.Printf("Depart %s, arrive %s (%.0f min, ₹%.0f)\n", r.DepartureTime, r.ArrivalTime, r.TotalTimeMin, r.TotalFare)
	fmt.Println()
	for i, leg := range r.Legs {
		fmt.Printf("%d. [%s] %s → %s  %s-%s  %.1f km  ₹%.0f", i+1, leg.Mode, leg.From, leg.To, leg.Departure, leg.Arrival, leg.DistanceKm, leg.Fare)
		if leg.OperatorName != "" {
			fmt.Printf("  (%s)", leg.OperatorName)
		}
		if leg.TrafficDelayMin > 0 {
			fmt.Printf("  +%.0f min traffic", leg.TrafficDelayMin)
		}
		fmt.Println()
	}
	if len(r.IntermediateStops) > 0 {
		fmt.Println("\nVia:", strings.Join(r.IntermediateStops, ", "))
	}
	for _, w := range r.Warnings {
		fmt.Printf("⚠️  %s\n", w.Message)
	}
	if len(r.Hotels) > 0 {
		fmt.Println("\nHotels near destination:")
		for _, h := range r.Hotels {
			fmt.Printf("  %s (₹%.0f/night, %.1f★)\n", h.Name, h.PricePerNight, h.Rating)
		}
	}
}

func doHealthCheck() {
	resp, err := http.Get(baseURL() + "/api/health")
	if err != nil {
		fmt.Println("Health: ERROR:", err)
		return
	}
	defer resp.Body.Close()
	fmt.Println("Health status:", resp.Status)
}

func doSeed() {
	db, err := appdb.Connect()
	if err != nil {
		log.Println("DB connect error:", err)
		return
	}
	defer db.Close()
	if err := appdb.EnsureSchema(db); err != nil {
		log.Println("Ensure schema error:", err)
		return
	}
	seedStations(db)
}

// seedStations carga un conjunto mínimo de estaciones y operadores para
// desarrollo local
func seedStations(db *sql.DB) {
	stations := []struct {
		name, stype, state string
		lat, lon           float64
	}{
		{"Kochi KSRTC Bus Stand", "bus", "kerala", 9.9816, 76.2999},
		{"Alappuzha Bus Stand", "bus", "kerala", 9.4981, 76.3388},
		{"Kollam Bus Stand", "bus", "kerala", 8.8932, 76.6141},
		{"Thiruvananthapuram Central Bus Station", "bus", "kerala", 8.4875, 76.9525},
		{"Ernakulam Junction", "train", "kerala", 9.9689, 76.2884},
		{"Kollam Junction", "train", "kerala", 8.8877, 76.6088},
		{"Thiruvananthapuram Central", "train", "kerala", 8.4869, 76.9529},
		{"Cochin International Airport", "airport", "kerala", 10.1520, 76.3919},
		{"Trivandrum International Airport", "airport", "kerala", 8.4821, 76.9201},
	}

	inserted := 0
	for _, s := range stations {
		var exists int
		_ = db.QueryRow("SELECT 1 FROM stations WHERE name = ?", s.name).Scan(&exists)
		if exists == 1 {
			continue
		}
		_, err := db.Exec(
			"INSERT INTO stations (name, type, state, lat, lon) VALUES (?, ?, ?, ?, ?)",
			s.name, s.stype, s.state, s.lat, s.lon,
		)
		if err != nil {
			log.Println("Seed: insert error:", err)
			return
		}
		inserted++
	}

	_, err := db.Exec(
		"INSERT IGNORE INTO operators (state, mode, name) VALUES (?, ?, ?)",
		"kerala", "bus", "KSRTC",
	)
	if err != nil {
		log.Println("Seed: operator insert error:", err)
		return
	}

	fmt.Printf("Seed: %d stations inserted (%d already present)\n", inserted, len(stations)-inserted)
}
