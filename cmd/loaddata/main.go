// Command loaddata seeds the ingredient and tag reference data from a
// JSON file. Existing rows are left untouched so the command can be
// re-run safely.
package main

import (
	"encoding/json"
	"flag"
	"os"

	"gorm.io/gorm/clause"

	"github.com/plateshare/backend/config"
	"github.com/plateshare/backend/internal/database"
	"github.com/plateshare/backend/internal/models"
	"github.com/plateshare/backend/pkg/logger"
)

type seedFile struct {
	Ingredients []struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	} `json:"ingredients"`
	Tags []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	} `json:"tags"`
}

func main() {
	path := flag.String("file", "data/reference.json", "path to the reference data file")
	flag.Parse()

	logger.Init("plateshare-loaddata", config.IsDevelopment())
	log := logger.Logger

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("failed to read reference data")
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatal().Err(err).Msg("failed to parse reference data")
	}

	ingredients := make([]models.Ingredient, 0, len(seed.Ingredients))
	for _, i := range seed.Ingredients {
		ingredients = append(ingredients, models.Ingredient{
			Name:            i.Name,
			MeasurementUnit: i.MeasurementUnit,
		})
	}
	if len(ingredients) > 0 {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ingredients).Error; err != nil {
			log.Fatal().Err(err).Msg("failed to seed ingredients")
		}
	}

	tags := make([]models.Tag, 0, len(seed.Tags))
	for _, t := range seed.Tags {
		tags = append(tags, models.Tag{Name: t.Name, Color: t.Color, Slug: t.Slug})
	}
	if len(tags) > 0 {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tags).Error; err != nil {
			log.Fatal().Err(err).Msg("failed to seed tags")
		}
	}

	log.Info().Int("ingredients", len(ingredients)).Int("tags", len(tags)).Msg("reference data loaded")
}
