package sanitize

import "github.com/realcrm/lead-harvester/internal/pipeline"

// Lead returns a copy of l with every free-text field normalized.
// Identity, URL, and phone fields are left untouched; the phone has its
// own normalization rule.
func Lead(l pipeline.Lead) pipeline.Lead {
	l.Title = Text(l.Title)
	l.Price = Text(l.Price)
	l.Address = Text(l.Address)
	l.Neighborhood = Text(l.Neighborhood)
	l.PropertyType = Text(l.PropertyType)
	l.Description = Text(l.Description)
	l.OwnerName = Text(l.OwnerName)
	l.ApartmentSize = Text(l.ApartmentSize)
	l.RoomsCount = Text(l.RoomsCount)
	l.PublishDate = Text(l.PublishDate)
	return l
}
