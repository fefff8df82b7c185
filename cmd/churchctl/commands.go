package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/church-platform/internal/auth"
	dbpkg "github.com/BruksfildServices01/church-platform/internal/db"
	"github.com/BruksfildServices01/church-platform/internal/models"
)

const minPasswordLen = 8

// ----------------------------------------------------------------------------
// migrate
// ----------------------------------------------------------------------------

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, err := connect()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := dbpkg.Migrate(db, log); err != nil {
				return err
			}
			log.Info("migration complete")
			return nil
		},
	}
}

// ----------------------------------------------------------------------------
// create-superadmin
// ----------------------------------------------------------------------------

type superAdminInput struct {
	Username string
	Password string
	FullName string
	Email    string
}

// upsertSuperAdmin creates the super admin or resets the password, name and
// email of an existing one with the same username.
func upsertSuperAdmin(db *gorm.DB, in superAdminInput) (models.SuperAdmin, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return models.SuperAdmin{}, errors.New("--username is required")
	}
	if len(in.Password) < minPasswordLen {
		return models.SuperAdmin{}, fmt.Errorf("--password must be at least %d characters", minPasswordLen)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.SuperAdmin{}, err
	}

	admin := models.SuperAdmin{
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Email:        in.Email,
		IsActive:     true,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "full_name", "email", "is_active", "updated_at"}),
	}).Create(&admin).Error
	if err != nil {
		return models.SuperAdmin{}, err
	}

	var saved models.SuperAdmin
	err = db.Where("username = ?", in.Username).First(&saved).Error
	return saved, err
}

func newCreateSuperAdminCmd() *cobra.Command {
	var in superAdminInput

	cmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create a super admin, or reset an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, err := connect()
			if err != nil {
				return err
			}
			defer closeDB(db)

			admin, err := upsertSuperAdmin(db, in)
			if err != nil {
				return err
			}
			log.WithField("id", admin.ID).WithField("username", admin.Username).Info("super admin ready")
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "superadmin", "Login name")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (required)")
	cmd.Flags().StringVar(&in.FullName, "full-name", "Super Administrator", "Display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Contact email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// ----------------------------------------------------------------------------
// create-admin
// ----------------------------------------------------------------------------

type churchAdminInput struct {
	ChurchID uint
	Username string
	Password string
	FullName string
	Email    string
}

func createChurchAdmin(db *gorm.DB, in churchAdminInput) (models.ChurchAdmin, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return models.ChurchAdmin{}, errors.New("--username is required")
	}
	if len(in.Password) < minPasswordLen {
		return models.ChurchAdmin{}, fmt.Errorf("--password must be at least %d characters", minPasswordLen)
	}

	var church models.Church
	if err := db.First(&church, in.ChurchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ChurchAdmin{}, fmt.Errorf("church %d not found", in.ChurchID)
		}
		return models.ChurchAdmin{}, err
	}

	var n int64
	if err := db.Model(&models.ChurchAdmin{}).Where("username = ?", in.Username).Count(&n).Error; err != nil {
		return models.ChurchAdmin{}, err
	}
	if n > 0 {
		return models.ChurchAdmin{}, fmt.Errorf("username %q already exists", in.Username)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.ChurchAdmin{}, err
	}

	admin := models.ChurchAdmin{
		ChurchID:     church.ID,
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Email:        in.Email,
		IsActive:     true,
	}
	return admin, db.Create(&admin).Error
}

func newCreateAdminCmd() *cobra.Command {
	var in churchAdminInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a church admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, err := connect()
			if err != nil {
				return err
			}
			defer closeDB(db)

			admin, err := createChurchAdmin(db, in)
			if err != nil {
				return err
			}
			log.WithField("id", admin.ID).WithField("church_id", admin.ChurchID).Info("church admin created")
			return nil
		},
	}

	cmd.Flags().UintVar(&in.ChurchID, "church-id", 0, "Church the admin manages (required)")
	cmd.Flags().StringVar(&in.Username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (required)")
	cmd.Flags().StringVar(&in.FullName, "full-name", "", "Display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Contact email")
	_ = cmd.MarkFlagRequired("church-id")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// ----------------------------------------------------------------------------
// hash-password
// ----------------------------------------------------------------------------

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <plain>",
		Short: "Print a bcrypt hash for seeding admins by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
