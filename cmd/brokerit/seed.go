package main

import (
	"fmt"

	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/storage/badger"
	"github.com/urfave/cli/v2"
)

// seedCommand populates a fresh database with a sample broker and two
// properties so the service can be exercised without real data.
func seedCommand(c *cli.Context) error {
	repos, err := badger.OpenRepositories(c.String("db"), false)
	if err != nil {
		return err
	}
	defer repos.Close()

	ctx := c.Context

	existing, err := repos.Brokers.ListBrokers(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Println("Data already seeded")
		return nil
	}

	brokers, err := repos.Brokers.AddBrokers(ctx, &core.Broker{
		Name:           "John Doe",
		Email:          "john@example.com",
		Phone:          "+1234567890",
		WhatsAppNumber: "+1234567890",
		Active:         true,
	})
	if err != nil {
		return err
	}
	broker := brokers[0]

	properties, err := repos.Properties.AddProperties(ctx,
		&core.Property{
			BrokerId:     broker.Id,
			Title:        "Beautiful 3BR House",
			Description:  "Spacious family home with modern amenities, updated kitchen, large backyard",
			Address:      "123 Main St, Los Angeles, CA",
			Price:        450000,
			Bedrooms:     3,
			Bathrooms:    2,
			SquareFeet:   2000,
			PropertyType: "house",
			Status:       "available",
		},
		&core.Property{
			BrokerId:     broker.Id,
			Title:        "Downtown 2BR Condo",
			Description:  "Modern condo in the heart of downtown, walking distance to restaurants and shops",
			Address:      "456 Park Ave, Los Angeles, CA",
			Price:        350000,
			Bedrooms:     2,
			Bathrooms:    2,
			SquareFeet:   1200,
			PropertyType: "condo",
			Status:       "available",
		},
	)
	if err != nil {
		return err
	}

	// One brochure per property; embeddings are generated on the next serve
	// run's reprocess sweep.
	for _, property := range properties {
		if _, err := repos.Documents.AddDocuments(ctx, &core.KnowledgeDocument{
			BrokerId:   broker.Id,
			PropertyId: property.Id,
			Title:      property.Title,
			FileType:   "txt",
			Content: fmt.Sprintf("%s. %s Located at %s. Price $%.0f. %d bedrooms, %d bathrooms, %d sq ft.",
				property.Title, property.Description, property.Address,
				property.Price, property.Bedrooms, property.Bathrooms, property.SquareFeet),
		}); err != nil {
			return err
		}
	}

	fmt.Printf("Data seeded successfully: broker %d, %d properties\n", broker.Id, len(properties))
	return nil
}
