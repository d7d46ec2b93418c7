package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/sitebook/models"
)

// Migrations brings the schema up to date. The request-code sequence only
// exists on Postgres; other dialects (tests) supply codes in process.
func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "01102024_create_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Project{}, &models.TeamMember{}, &models.MaterialRequest{},
					&models.MaterialItem{}, &models.MaterialTracking{}, &models.ProgressUpdate{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("progress_updates", "material_tracking", "material_items",
					"material_requests", "team_members", "projects")
			},
		},
		{
			ID: "01102024_request_code_sequence",
			Migrate: func(tx *gorm.DB) error {
				if tx.Dialector.Name() != "postgres" {
					return nil
				}
				if err := tx.Exec("CREATE SEQUENCE IF NOT EXISTS material_request_code_seq").Error; err != nil {
					return err
				}
				return tx.Exec(`
					CREATE OR REPLACE FUNCTION generate_request_code() RETURNS text AS $$
					BEGIN
						RETURN 'MR-' || to_char(now(), 'YYYYMMDD') || '-' ||
							lpad(nextval('material_request_code_seq')::text, 4, '0');
					END;
					$$ LANGUAGE plpgsql`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				if tx.Dialector.Name() != "postgres" {
					return nil
				}
				if err := tx.Exec("DROP FUNCTION IF EXISTS generate_request_code()").Error; err != nil {
					return err
				}
				return tx.Exec("DROP SEQUENCE IF EXISTS material_request_code_seq").Error
			},
		},
		{
			ID: "15102024_tracking_project_description_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_material_tracking_project_description ON material_tracking(project_id, description)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_material_tracking_project_description").Error
			},
		},
	})
	return m.Migrate()
}
