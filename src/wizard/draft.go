package wizard

import (
	"fmt"
	"strings"
)

// Contact is the attendee's identity block, required before leaving step 1.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Extras holds the optional step-2 answers. TeamMembers keeps empty
// placeholder rows while editing; they are filtered out at submission.
type Extras struct {
	DietaryRestrictions string   `json:"dietary_restrictions"`
	TeamMembers         []string `json:"team_members"`
}

// Draft is the in-progress registration, owned exclusively by one wizard
// instance and discarded when the flow ends.
type Draft struct {
	Contact       Contact `json:"contact"`
	TicketTierID  uint    `json:"ticket_tier_id"`
	Extras        Extras  `json:"extras"`
	AgreedToTerms bool    `json:"agreed_to_terms"`
}

// FilteredTeamMembers drops placeholder rows, preserving order.
func (d *Draft) FilteredTeamMembers() []string {
	members := make([]string, 0, len(d.Extras.TeamMembers))
	for _, m := range d.Extras.TeamMembers {
		if strings.TrimSpace(m) != "" {
			members = append(members, m)
		}
	}
	return members
}

// set merges a single field value into the draft. No validation runs here;
// gates only fire on Advance and Submit.
func (d *Draft) set(field string, value any) error {
	switch field {
	case "contact.name":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects a string", field)
		}
		d.Contact.Name = s
	case "contact.email":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects a string", field)
		}
		d.Contact.Email = s
	case "contact.phone":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects a string", field)
		}
		d.Contact.Phone = s
	case "ticket_tier_id":
		switch v := value.(type) {
		case uint:
			d.TicketTierID = v
		case int:
			d.TicketTierID = uint(v)
		case float64: // decoded JSON numbers
			d.TicketTierID = uint(v)
		default:
			return fmt.Errorf("field %s expects a numeric id", field)
		}
	case "dietary_restrictions":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects a string", field)
		}
		d.Extras.DietaryRestrictions = s
	case "agreed_to_terms":
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("field %s expects a boolean", field)
		}
		d.AgreedToTerms = b
	default:
		return fmt.Errorf("unknown draft field: %s", field)
	}
	return nil
}
