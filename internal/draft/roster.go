package draft

import "github.com/Billy-Davies-2/psl-draft/internal/models"

// PlayerSeed describes a player registered when the pool is (re)seeded.
type PlayerSeed struct {
	Name    string
	Rating  int
	Price   int
	Country string
}

// TeamSeed describes a franchise created when the roster is (re)seeded.
type TeamSeed struct {
	Name      string
	MaxPoints int
	MaxBudget int
	Password  string
}

// Roster is the seed data used on first start and on Reset.
type Roster struct {
	Players []PlayerSeed
	Teams   []TeamSeed
}

// DefaultRoster returns the demo pool and the four default franchises.
func DefaultRoster() Roster {
	return Roster{
		Players: []PlayerSeed{
			{Name: "Babar Azam", Rating: 95, Price: 500000, Country: models.DomesticCountry},
			{Name: "Shaheen Afridi", Rating: 93, Price: 480000, Country: models.DomesticCountry},
			{Name: "Mohammad Rizwan", Rating: 92, Price: 470000, Country: models.DomesticCountry},
			{Name: "Naseem Shah", Rating: 88, Price: 420000, Country: models.DomesticCountry},
			{Name: "Haris Rauf", Rating: 87, Price: 410000, Country: models.DomesticCountry},
			{Name: "Shadab Khan", Rating: 85, Price: 390000, Country: models.DomesticCountry},
			{Name: "Fakhar Zaman", Rating: 82, Price: 370000, Country: models.DomesticCountry},
			{Name: "Saim Ayub", Rating: 78, Price: 340000, Country: models.DomesticCountry},
			{Name: "Imad Wasim", Rating: 75, Price: 320000, Country: models.DomesticCountry},
			{Name: "Usama Mir", Rating: 70, Price: 280000, Country: models.DomesticCountry},
		},
		Teams: []TeamSeed{
			{Name: "Lahore Qalandars", MaxPoints: 1000, MaxBudget: 5000000, Password: "lahore123"},
			{Name: "Karachi Kings", MaxPoints: 1000, MaxBudget: 5000000, Password: "karachi123"},
			{Name: "Multan Sultans", MaxPoints: 1000, MaxBudget: 5000000, Password: "multan123"},
			{Name: "Peshawar Zalmi", MaxPoints: 1000, MaxBudget: 5000000, Password: "peshawar123"},
		},
	}
}
