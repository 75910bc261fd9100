package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/viperball-sim/internal/engine"
	"github.com/stitts-dev/viperball-sim/internal/models"
	"github.com/stitts-dev/viperball-sim/pkg/config"
	"github.com/stitts-dev/viperball-sim/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db, cfg); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	return models.NewSeasonStore(db).Migrate()
}

func dropTables(db *database.DB) error {
	return db.Migrator().DropTable(&models.SeasonRecord{}, &models.Dynasty{})
}

// seedData creates a demo dynasty: sixteen programs in two conferences,
// ready to start its first season.
func seedData(db *database.DB, cfg *config.Config) error {
	store := models.NewSeasonStore(db)
	if err := store.Migrate(); err != nil {
		return err
	}

	east := []string{
		"Cobra State", "Mamba Tech", "Adder A&M", "Krait College",
		"Taipan University", "Boa Institute", "Fer-de-Lance U", "Bushmaster State",
	}
	west := []string{
		"Sidewinder State", "Rattler Tech", "Copperhead College", "Diamondback U",
		"Cottonmouth A&M", "Viper Poly", "Asp Academy", "Python State",
	}

	var teams []*engine.Team
	for i, name := range east {
		teams = append(teams, &engine.Team{
			Name:         name,
			Conference:   "Viper East",
			Prestige:     78 - i*4,
			OffenseStyle: "balanced",
			DefenseStyle: "balanced",
		})
	}
	for i, name := range west {
		teams = append(teams, &engine.Team{
			Name:         name,
			Conference:   "Viper West",
			Prestige:     76 - i*4,
			OffenseStyle: "balanced",
			DefenseStyle: "balanced",
		})
	}

	conferences := map[string][]string{
		"Viper East": east,
		"Viper West": west,
	}
	scheduleCfg := engine.ScheduleConfig{
		GamesPerTeam: cfg.GamesPerTeam,
		NonConfWeeks: cfg.NonConfWeeks,
	}

	teamsJSON, err := json.Marshal(teams)
	if err != nil {
		return err
	}
	confJSON, err := json.Marshal(conferences)
	if err != nil {
		return err
	}
	cfgJSON, err := json.Marshal(scheduleCfg)
	if err != nil {
		return err
	}

	d := &models.Dynasty{
		Name:        "Viperball Demo League",
		CurrentYear: 2025,
		Teams:       teamsJSON,
		Conferences: confJSON,
		Config:      cfgJSON,
	}
	if err := store.CreateDynasty(d); err != nil {
		return err
	}

	fmt.Printf("Seeded dynasty %s (%s)\n", d.Name, d.ID)
	return nil
}
