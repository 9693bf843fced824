package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/leadflowhq/leadflow/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_campaigns",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.CampaignModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_campaigns_owner_id ON campaigns (owner_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.CampaignModel{})
			},
		},
		{
			ID: "000002_create_leads",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.LeadModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_leads_owner_id ON leads (owner_id)`,
					`CREATE INDEX IF NOT EXISTS idx_leads_campaign_id ON leads (campaign_id) WHERE campaign_id IS NOT NULL`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.LeadModel{})
			},
		},
		{
			ID: "000003_create_calls",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.CallModel{}); err != nil {
					return err
				}
				indexes := []string{
					// Webhook and poller lookups key on the provider id; it
					// must be unique among assigned calls.
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_calls_provider_call_id ON calls (provider_call_id) WHERE provider_call_id IS NOT NULL`,
					`CREATE INDEX IF NOT EXISTS idx_calls_status_updated ON calls (status, updated_at)`,
					`CREATE INDEX IF NOT EXISTS idx_calls_campaign_id ON calls (campaign_id) WHERE campaign_id IS NOT NULL`,
					`CREATE INDEX IF NOT EXISTS idx_calls_lead_id ON calls (lead_id) WHERE lead_id IS NOT NULL`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.CallModel{})
			},
		},
		{
			ID: "000004_create_lead_activities",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.LeadActivityModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_lead_activities_lead_id ON lead_activities (lead_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.LeadActivityModel{})
			},
		},
	})

	return m.Migrate()
}
