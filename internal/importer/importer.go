// Package importer pulls ingredients from nutrition-facts web pages into
// the record store. Extraction is selector-based and deterministic: pages
// that do not carry a recognizable nutrition table are rejected.
package importer

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mealboard/internal/entity"
)

// Saver persists extracted ingredients.
type Saver interface {
	Create(ctx context.Context, record entity.Ingredient) (*entity.Ingredient, error)
}

// Importer fetches and extracts ingredients from URLs.
type Importer struct {
	saver  Saver
	client *http.Client
}

// New creates an Importer saving through the given Saver.
func New(saver Saver) *Importer {
	return &Importer{
		saver:  saver,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Import fetches the URL, extracts the ingredient, and saves it for the
// given owner.
func (i *Importer) Import(ctx context.Context, url, userID string) (*entity.Ingredient, error) {
	doc, err := i.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	record, err := Extract(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to extract ingredient from %s: %w", url, err)
	}
	record.UserID = userID

	saved, err := i.saver.Create(ctx, *record)
	if err != nil {
		return nil, fmt.Errorf("failed to save ingredient: %w", err)
	}
	return saved, nil
}

func (i *Importer) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	// Strip noise before selecting.
	doc.Find("script, style, nav, footer, iframe").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})
	return doc, nil
}

// Extract reads an ingredient from a parsed page. The name comes from the
// first h1 (falling back to the page title); nutrition rows come from a
// table with the "nutrition" class, label in the first cell and amount in
// the last.
func Extract(doc *goquery.Document) (*entity.Ingredient, error) {
	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		name = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if name == "" {
		return nil, fmt.Errorf("no ingredient name on page")
	}

	record := &entity.Ingredient{Name: name}
	found := 0
	doc.Find("table.nutrition tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(cells.First().Text()))
		amount, err := parseAmount(cells.Last().Text())
		if err != nil {
			return
		}
		switch {
		case strings.Contains(label, "calorie"), strings.Contains(label, "energy"):
			record.Nutrition.Calories = amount
		case strings.Contains(label, "protein"):
			record.Nutrition.Protein = amount
		case strings.Contains(label, "carb"):
			record.Nutrition.Carbs = amount
		case strings.Contains(label, "fat"):
			record.Nutrition.Fat = amount
		case strings.Contains(label, "price"):
			record.Price = amount
		default:
			return
		}
		found++
	})

	if found == 0 {
		return nil, fmt.Errorf("no nutrition table on page")
	}
	return record, nil
}

// parseAmount reads the leading number out of strings like "12 g",
// "260 kcal" or "€1,50".
func parseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	start := -1
	end := 0
	for idx, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			if start == -1 {
				start = idx
			}
			end = idx + len(string(r))
			continue
		}
		if start != -1 {
			break
		}
	}
	if start == -1 {
		return 0, fmt.Errorf("no numeric amount in %q", raw)
	}
	num := strings.ReplaceAll(s[start:end], ",", ".")
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q: %w", raw, err)
	}
	return value, nil
}
