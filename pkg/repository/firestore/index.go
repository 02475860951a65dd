package firestore

import "github.com/m-mizutani/fireconf"

const (
	fieldStatus       = "status"
	fieldLastModified = "last_modified"
)

// IndexConfig returns the composite indexes the queries of this package
// depend on, for collections named with prefix.
func IndexConfig(prefix string) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: AssessmentsCollection(prefix),
				Indexes: []fireconf.Index{
					// ListByStatus
					{
						Fields: []fireconf.IndexField{
							{Path: fieldStatus, Order: fireconf.OrderAscending},
							{Path: fieldLastModified, Order: fireconf.OrderDescending},
						},
					},
				},
			},
		},
	}
}
