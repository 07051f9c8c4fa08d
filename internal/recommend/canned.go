package recommend

import (
	"context"
	"fmt"
	"time"

	"depremkit/internal/expiry"
	"depremkit/internal/models"
)

// template is a suggested item whose expiration, if any, is given in months
// from the generation date.
type template struct {
	name     string
	category string
	quantity int64
	unit     string
	months   int
	notes    string
}

var baseKit = []template{
	{"Su (19L)", models.CategoryWater, 1, "bidon", 12, "Kişi başı günlük 3L hesabıyla"},
	{"Konserve Et", models.CategoryFood, 3, "box", 24, "Protein kaynağı"},
	{"Kuru Fasulye", models.CategoryFood, 2, "pack", 18, "Uzun ömürlü protein"},
	{"Pirinç", models.CategoryFood, 2, "kg", 12, "Temel karbonhidrat"},
	{"İlk Yardım Çantası", models.CategoryMedical, 1, "pcs", 0, "Temel tıbbi malzemeler"},
	{"Ağrı Kesici", models.CategoryMedical, 2, "box", 18, "Parasetamol bazlı"},
	{"El Feneri", models.CategoryTools, 2, "pcs", 0, "LED, su geçirmez"},
	{"Pil (AA)", models.CategoryTools, 8, "pcs", 36, "Alkalin pil"},
	{"Radyo", models.CategoryCommunication, 1, "pcs", 0, "Pilli, şarjlı"},
	{"Düdük", models.CategoryCommunication, 2, "pcs", 0, "Acil durum sinyali"},
	{"Çakmak", models.CategoryTools, 3, "pcs", 30, "Su geçirmez"},
	{"Mum", models.CategoryTools, 6, "pcs", 0, "Uzun yanma süreli"},
}

var (
	childrenKit = []template{
		{"Bebek Maması", models.CategoryFood, 6, "box", 9, "Çocuklar için"},
		{"Oyuncak", models.CategoryOther, 2, "pcs", 0, "Çocukları sakinleştirmek için"},
	}
	petsKit = []template{
		{"Evcil Hayvan Maması", models.CategoryFood, 5, "kg", 10, "Evcil hayvanlar için"},
		{"Pet Tasması", models.CategoryOther, 1, "pcs", 0, "Kimlik bilgisi ile"},
	}
	elderlyKit = []template{
		{"Baston", models.CategoryOther, 1, "pcs", 0, "Hareket desteği için"},
		{"Kan Basıncı İlacı", models.CategoryMedical, 3, "box", 12, "Yaşlılar için temel ilaç"},
	}
)

// CannedGenerator returns a fixed kit tailored by simple household rules.
type CannedGenerator struct {
	delay time.Duration
	now   func() time.Time
}

func NewCannedGenerator(delay time.Duration, now func() time.Time) *CannedGenerator {
	if now == nil {
		now = time.Now
	}
	return &CannedGenerator{delay: delay, now: now}
}

func (g *CannedGenerator) Generate(ctx context.Context, p models.HouseholdProfile) (*models.Recommendation, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}

	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	templates := append([]template(nil), baseKit...)
	if p.HasChildren {
		templates = append(templates, childrenKit...)
	}
	if p.HasPets {
		templates = append(templates, petsKit...)
	}
	if p.HasElderly {
		templates = append(templates, elderlyKit...)
	}
	if p.HasChronicIllness && p.MedicationNeeds != "" {
		templates = append(templates, template{
			"Kişisel İlaçlar", models.CategoryMedical, 4, "box", 6,
			fmt.Sprintf("%s için özel ilaçlar", p.MedicationNeeds),
		})
	}
	if p.DietaryRestrictions != "" {
		templates = append(templates, template{
			"Özel Diyet Ürünleri", models.CategoryFood, 3, "pack", 9,
			fmt.Sprintf("%s uyumlu gıdalar", p.DietaryRestrictions),
		})
	}

	priority := make(map[string]bool, len(p.PriorityCategories))
	for _, c := range p.PriorityCategories {
		priority[c] = true
	}

	now := g.now()
	items := make([]models.NewItem, 0, len(templates))
	for _, t := range templates {
		if len(priority) > 0 && !priority[t.category] && !isEssential(t.category) {
			continue
		}
		item := models.NewItem{
			Name:     t.name,
			Category: t.category,
			Quantity: scaleQuantity(t.quantity, t.category, p.HouseholdSize),
			Unit:     t.unit,
			Notes:    t.notes,
		}
		if t.months > 0 {
			item.ExpirationDate = expiry.DateString(now.AddDate(0, t.months, 0))
		}
		items = append(items, item)
	}

	return &models.Recommendation{Items: items, Explanation: explain(p, len(items))}, nil
}

// scaleQuantity grows water and food with the household: ceil(q*size/2).
func scaleQuantity(q int64, category string, size int) int64 {
	if category != models.CategoryWater && category != models.CategoryFood {
		return q
	}
	n := q * int64(size)
	return (n + 1) / 2
}
