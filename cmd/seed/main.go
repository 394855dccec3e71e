package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/maplequest/maplequest-backend/internal/config"
	"github.com/maplequest/maplequest-backend/internal/database"
)

type landmark struct {
	Name        string
	Description string
	Latitude    string
	Longitude   string
	Points      int
	Image       string
}

// Canadian landmark catalog. Image filenames resolve against IMAGE_BASE_URL.
var landmarks = []landmark{
	{
		Name:        "Niagara Falls",
		Description: "Niagara Falls is a breathtaking natural wonder on the border of Canada and the United States, known for its massive, powerful waterfalls and misty beauty. It's a popular destination for sightseeing, boat tours, and stunning views, especially from the Canadian side.",
		Latitude:    "43.0946853",
		Longitude:   "-79.039969",
		Points:      100,
		Image:       "niagara-falls.jpg",
	},
	{
		Name:        "Hopewell Rocks Provincial Park",
		Description: "Hopewell Rocks Provincial Park in New Brunswick is famous for its towering flowerpot-shaped rock formations carved by the tides of the Bay of Fundy. Visitors can walk on the ocean floor at low tide and kayak among the rocks at high tide for a truly unique experience.",
		Latitude:    "45.817655",
		Longitude:   "-64.578458",
		Points:      80,
		Image:       "hopewell-rocks.jpg",
	},
	{
		Name:        "Banff National Park",
		Description: "Banff National Park, located in the Canadian Rockies, is renowned for its stunning turquoise lakes, majestic mountains, and abundant wildlife. It's a year-round destination for hiking, skiing, and exploring some of Canada's most breathtaking natural scenery.",
		Latitude:    "51.497408",
		Longitude:   "-115.926168",
		Points:      120,
		Image:       "banff.jpg",
	},
	{
		Name:        "University of Calgary",
		Description: "The University of Calgary is a leading Canadian research university known for its innovative programs, vibrant campus life, and strong ties to industry. Located in Alberta's largest city, it offers world-class education and opportunities in a dynamic, forward-thinking environment.",
		Latitude:    "51.07848848773985",
		Longitude:   "-114.13352874347278",
		Points:      50,
		Image:       "ucalgary.jpg",
	},
	{
		Name:        "CN Tower",
		Description: "One of the tallest freestanding structures in the world, offering panoramic city and lake views. It's famous for its glass floor and EdgeWalk experience.",
		Latitude:    "43.64272921522629",
		Longitude:   "-79.38712117632794",
		Points:      90,
		Image:       "cn-tower.jpg",
	},
	{
		Name:        "Parliament Hill",
		Description: "The heart of Canada's federal government. Its Gothic Revival architecture, daily ceremonies, and riverfront location make it an iconic national symbol.",
		Latitude:    "45.42375180363914",
		Longitude:   "-75.70093973205235",
		Points:      75,
		Image:       "parliament-hill.jpg",
	},
	{
		Name:        "Capilano Suspension Bridge",
		Description: "A 137-metre-long swaying bridge over a forested canyon in North Vancouver. The park features treetop walkways, cliffside paths, and Indigenous cultural exhibits.",
		Latitude:    "49.343021644932385",
		Longitude:   "-123.1149244029921",
		Points:      85,
		Image:       "capilano-bridge.jpg",
	},
	{
		Name:        "Château Frontenac",
		Description: "Historic grand hotel overlooking Old Québec, known for its castle-like architecture and river views.",
		Latitude:    "46.81231686579934",
		Longitude:   "-71.20521303872079",
		Points:      70,
		Image:       "chateau-frontenac.jpg",
	},
	{
		Name:        "Peggy's Cove Lighthouse",
		Description: "Classic red lighthouse perched on rocky shores, surrounded by waves and picturesque fishing village scenery.",
		Latitude:    "44.491936206399686",
		Longitude:   "-63.91859253025372",
		Points:      65,
		Image:       "peggys-cove.jpg",
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	baseURL := os.Getenv("IMAGE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://maple-quest-images.s3.us-west-2.amazonaws.com/locations"
	}

	created, updated := 0, 0
	for _, lm := range landmarks {
		imageURL := fmt.Sprintf("%s/%s", baseURL, lm.Image)

		var id uuid.UUID
		err := database.PostgresDB.QueryRow(
			"SELECT id FROM locations WHERE name = $1", lm.Name,
		).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			_, err = database.PostgresDB.Exec(`
				INSERT INTO locations (id, name, latitude, longitude, description, points, default_image_url)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, uuid.New(), lm.Name, lm.Latitude, lm.Longitude, lm.Description, lm.Points, imageURL)
			if err != nil {
				log.Fatalf("Failed to create location %q: %v", lm.Name, err)
			}
			created++
			log.Printf("Created location: %s", lm.Name)
		case err != nil:
			log.Fatalf("Failed to look up location %q: %v", lm.Name, err)
		default:
			_, err = database.PostgresDB.Exec(`
				UPDATE locations
				SET latitude = $2, longitude = $3, description = $4, points = $5, default_image_url = $6
				WHERE id = $1
			`, id, lm.Latitude, lm.Longitude, lm.Description, lm.Points, imageURL)
			if err != nil {
				log.Fatalf("Failed to update location %q: %v", lm.Name, err)
			}
			updated++
			log.Printf("Updated location: %s", lm.Name)
		}
	}

	log.Printf("✅ Seeding completed. Created: %d, Updated: %d", created, updated)
}
