// Package recommend builds emergency kit suggestions for a household.
package recommend

import (
	"errors"
	"fmt"
	"strings"

	"depremkit/internal/models"
)

var ErrInvalidProfile = errors.New("invalid household profile")

// MaxHouseholdSize caps the profile so scaled quantities stay in range.
const MaxHouseholdSize = 50

// essentialCategories are kept even when the profile names other priorities.
var essentialCategories = []string{models.CategoryWater, models.CategoryFood, models.CategoryMedical}

// Validate checks the household profile before generation.
func Validate(p models.HouseholdProfile) error {
	if p.HouseholdSize < 1 {
		return fmt.Errorf("%w: household size must be at least 1", ErrInvalidProfile)
	}
	if p.HouseholdSize > MaxHouseholdSize {
		return fmt.Errorf("%w: household size must be at most %d", ErrInvalidProfile, MaxHouseholdSize)
	}
	switch p.LivingArea {
	case models.LivingAreaApartment, models.LivingAreaHouse, models.LivingAreaOther:
	default:
		return fmt.Errorf("%w: unknown living area %q", ErrInvalidProfile, p.LivingArea)
	}
	for _, c := range p.PriorityCategories {
		if !models.IsKnownCategory(c) {
			return fmt.Errorf("%w: unknown priority category %q", ErrInvalidProfile, c)
		}
	}
	return nil
}

func isEssential(category string) bool {
	for _, c := range essentialCategories {
		if c == category {
			return true
		}
	}
	return false
}

// explain renders the household summary shown with every recommendation.
func explain(p models.HouseholdProfile, count int) string {
	var traits []string
	if p.HasChildren {
		traits = append(traits, "çocuk sahibi")
	}
	if p.HasElderly {
		traits = append(traits, "yaşlı bireyli")
	}
	if p.HasPets {
		traits = append(traits, "evcil hayvanlı")
	}
	if p.HasChronicIllness {
		traits = append(traits, "kronik hastalık durumu olan")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d kişilik ", p.HouseholdSize)
	if len(traits) > 0 {
		b.WriteString(strings.Join(traits, ", "))
		b.WriteString(" ")
	}
	b.WriteString("ev için ")
	if len(p.PriorityCategories) > 0 {
		names := make([]string, len(p.PriorityCategories))
		for i, id := range p.PriorityCategories {
			c, _ := models.LookupCategory(id)
			names[i] = c.Name
		}
		fmt.Fprintf(&b, "özellikle %s kategorilerinde ", strings.Join(names, ", "))
	}
	b.WriteString("deprem çantası önerileri oluşturuldu. ")

	switch p.LivingArea {
	case models.LivingAreaApartment:
		b.WriteString("Apartman dairesi")
	case models.LivingAreaHouse:
		b.WriteString("Müstakil ev")
	default:
		b.WriteString("Yaşam alanı")
	}
	fmt.Fprintf(&b, " koşulları dikkate alınarak toplam %d farklı eşya önerildi.", count)
	return b.String()
}
