// Package seeds generates a deterministic demo catalog and loads it into a
// rating store.
package seeds

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
)

const (
	defaultUsers    = 30
	defaultProducts = 40
	ratingAttempts  = 400
)

// Dataset is one generated catalog. Ratings hold at most one entry per
// (user, product) pair.
type Dataset struct {
	Users    []domain.User
	Products []domain.Product
	Ratings  []domain.RatingInput
}

// Generate builds the demo catalog from a fixed random seed.
func Generate(seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))
	ds := &Dataset{
		Users:    generateUsers(rng, defaultUsers),
		Products: generateProducts(rng, defaultProducts),
	}
	ds.Ratings = generateRatings(rng, ds.Users, ds.Products, ratingAttempts)
	return ds
}

func generateUsers(rng *rand.Rand, n int) []domain.User {
	roles := []string{"customer", "admin"}
	roleWeights := []float64{0.95, 0.05}

	users := make([]domain.User, 0, n)
	for i := range n {
		id := int64(i + 1)
		users = append(users, domain.User{
			ID:        id,
			Name:      fmt.Sprintf("User %d", id),
			Email:     fmt.Sprintf("user%d@example.com", id),
			Role:      weightedChoice(rng, roles, roleWeights),
			Status:    "Active",
			CreatedAt: time.Now().AddDate(0, 0, -rng.Intn(365)).UTC(),
		})
	}
	return users
}

var categories = []string{"electronics", "books", "home", "sports", "beauty"}

var titles = map[string][]string{
	"electronics": {
		"Wireless Earbuds", "Mechanical Keyboard", "4K Monitor", "USB-C Hub",
		"Smart Speaker", "Action Camera", "Portable SSD", "Noise Cancelling Headphones",
	},
	"books": {
		"The Pragmatic Programmer", "Dune", "Sapiens", "Clean Code",
		"The Hobbit", "Atomic Habits", "Project Hail Mary", "Thinking, Fast and Slow",
	},
	"home": {
		"French Press", "Cast Iron Skillet", "Desk Lamp", "Air Purifier",
		"Throw Blanket", "Chef's Knife", "Robot Vacuum", "Pour-Over Kettle",
	},
	"sports": {
		"Yoga Mat", "Running Shoes", "Adjustable Dumbbells", "Cycling Helmet",
		"Resistance Bands", "Hiking Backpack", "Foam Roller", "Jump Rope",
	},
	"beauty": {
		"Vitamin C Serum", "Sunscreen SPF 50", "Hair Dryer", "Face Cleanser",
		"Electric Toothbrush", "Beard Trimmer", "Lip Balm Set", "Night Cream",
	},
}

func generateProducts(rng *rand.Rand, n int) []domain.Product {
	products := make([]domain.Product, 0, n)
	for i := range n {
		category := categories[i%len(categories)]
		titleList := titles[category]
		title := titleList[(i/len(categories))%len(titleList)]
		if i >= len(categories)*len(titleList) {
			title = fmt.Sprintf("%s %d", title, i/(len(categories)*len(titleList))+1)
		}

		id := int64(i + 1)
		products = append(products, domain.Product{
			ID:          id,
			Title:       title,
			Description: fmt.Sprintf("%s from the %s catalog", title, category),
			Category:    category,
			Price:       math.Round((5+rng.Float64()*295)*100) / 100,
			ImageURL:    fmt.Sprintf("https://images.example.com/products/%d.jpg", id),
			CreatedAt:   time.Now().AddDate(0, 0, -rng.Intn(730)).UTC(),
		})
	}
	return products
}

var reviews = map[int]string{
	1: "Disappointed, would not buy again.",
	2: "Below expectations.",
	3: "Does the job.",
	4: "Really good, minor nitpicks.",
	5: "Excellent, highly recommend.",
}

// generateRatings skews activity toward low user and product ids and gives
// every user a favorite category, so neighborhoods have real signal.
func generateRatings(rng *rand.Rand, users []domain.User, products []domain.Product, n int) []domain.RatingInput {
	if len(users) == 0 || len(products) == 0 {
		return nil
	}

	favorite := make(map[int64]string, len(users))
	for _, u := range users {
		favorite[u.ID] = categories[rng.Intn(len(categories))]
	}
	quality := make(map[int64]float64, len(products))
	for _, p := range products {
		quality[p.ID] = 2 + 2*rng.Float64()
	}

	seen := make(map[[2]int64]bool)
	ratings := make([]domain.RatingInput, 0, n)
	for range n {
		user := users[skewedIndex(rng, len(users), 1.5)]
		product := products[skewedIndex(rng, len(products), 1.3)]

		key := [2]int64{user.ID, product.ID}
		if seen[key] {
			continue
		}
		seen[key] = true

		score := quality[product.ID] + rng.NormFloat64()*0.6
		if product.Category == favorite[user.ID] {
			score += 1
		} else {
			score -= 0.5
		}
		stars := int(max(domain.MinRating, min(domain.MaxRating, math.Round(score))))

		ratings = append(ratings, domain.RatingInput{
			UserID:    user.ID,
			ProductID: product.ID,
			Score:     float64(stars),
			Review:    reviews[stars],
		})
	}
	return ratings
}

// skewedIndex draws an index in [0, n) with a power-law bias toward 0.
func skewedIndex(rng *rand.Rand, n int, exponent float64) int {
	idx := int(math.Pow(rng.Float64(), exponent) * float64(n))
	return max(0, min(idx, n-1))
}

func weightedChoice(rng *rand.Rand, choices []string, weights []float64) string {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}
