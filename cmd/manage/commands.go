package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds what every subcommand needs once the root command has run.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "manage",
		Short:         "Administrative tasks for the foodgram backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.AddCommand(
		newMigrateCmd(a),
		newImportIngredientsCmd(a),
		newCreateTagCmd(a),
		newSeedUsersCmd(a),
		newSeedRecipesCmd(a),
		newTokenCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	db, err := database.Open(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.db = cfg, logger, db
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !down {
				return database.Migrate(cmd.Context(), a.db, a.cfg.DatabaseURL, a.logger)
			}
			if config.IsSQLite(a.cfg.DatabaseURL) {
				return errors.New("rollback is only supported on postgres")
			}
			return database.MigrateDown(cmd.Context(), a.cfg.DatabaseURL, a.logger)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	return cmd
}

func newImportIngredientsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-ingredients <file.csv>",
		Short: "Load the ingredient catalog from a name,measurement_unit CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := readIngredientsCSV(f)
			if err != nil {
				return err
			}
			created, err := service.NewCatalogService(a.db).ImportIngredients(cmd.Context(), rows)
			if err != nil {
				return err
			}
			a.logger.Info("imported ingredients", zap.Int("rows", len(rows)), zap.Int("created", created))
			return nil
		},
	}
}

func newCreateTagCmd(a *app) *cobra.Command {
	var tag models.Tag
	cmd := &cobra.Command{
		Use:   "create-tag",
		Short: "Add a tag to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := service.NewCatalogService(a.db).CreateTag(cmd.Context(), &tag); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tag.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&tag.Name, "name", "", "display name")
	cmd.Flags().StringVar(&tag.Slug, "slug", "", "unique slug used in filters")
	cmd.Flags().StringVar(&tag.Color, "color", models.TagColorGreen, "hex color from the tag palette")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("slug")
	return cmd
}

func newSeedUsersCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed-users",
		Short: "Create development users; existing ones are left alone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Environment == config.Production {
				return errors.New("refusing to seed users in production")
			}
			auth := service.NewAuthService(a.db, a.cfg.JWTSecret)
			for _, u := range devUsers {
				u.Password = password
				user, err := auth.CreateUser(cmd.Context(), u)
				switch {
				case errors.Is(err, service.ErrAlreadyExists):
					a.logger.Info("user exists", zap.String("username", u.Username))
				case err != nil:
					return err
				default:
					a.logger.Info("created user", zap.String("username", user.Username), zap.String("id", user.ID.String()))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "testpassword123", "password for every seeded user")
	return cmd
}

var devUsers = []service.NewUser{
	{Email: "john.doe@example.com", Username: "johndoe", FirstName: "John", LastName: "Doe"},
	{Email: "jane.smith@example.com", Username: "janesmith", FirstName: "Jane", LastName: "Smith"},
	{Email: "admin@example.com", Username: "admin", FirstName: "Admin", LastName: "User", IsStaff: true},
}

func newTokenCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := service.NewAuthService(a.db, a.cfg.JWTSecret).IssueToken(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&password, "password", "", "user password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
