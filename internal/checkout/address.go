package checkout

import (
	"strings"

	"egadget-storefront/internal/models"
)

// ValidateAddress checks that every required delivery field is filled in.
// The postal code is optional.
func ValidateAddress(a models.Address) error {
	required := []struct {
		name  string
		value string
	}{
		{"fullName", a.FullName},
		{"phone", a.Phone},
		{"email", a.Email},
		{"islandGroup", a.IslandGroup},
		{"region", a.Region},
		{"province", a.Province},
		{"municipality", a.Municipality},
		{"barangay", a.Barangay},
		{"street", a.Street},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return models.Invalid("please fill in all required fields", missing...)
	}
	return nil
}
