package models

const (
	LivingAreaApartment = "apartment"
	LivingAreaHouse     = "house"
	LivingAreaOther     = "other"
)

// HouseholdProfile describes the household a kit recommendation is built for.
type HouseholdProfile struct {
	HouseholdSize       int      `json:"household_size"`
	HasChildren         bool     `json:"has_children"`
	HasPets             bool     `json:"has_pets"`
	HasElderly          bool     `json:"has_elderly"`
	HasChronicIllness   bool     `json:"has_chronic_illness"`
	MedicationNeeds     string   `json:"medication_needs,omitempty"`
	DietaryRestrictions string   `json:"dietary_restrictions,omitempty"`
	LivingArea          string   `json:"living_area"`
	PriorityCategories  []string `json:"priority_categories,omitempty"`
}

// Recommendation is the output of a kit generator.
type Recommendation struct {
	Items       []NewItem `json:"items"`
	Explanation string    `json:"explanation"`
}
