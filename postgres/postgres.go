package postgres

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgtype"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/davison/tradedesk"
)

type Config struct {
	Address      string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MigrationDir string
}

func (c *Config) connectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Address,
		c.Name,
		c.SSLMode,
	)
}

type Client struct {
	database *sqlx.DB
}

func NewClient(config *Config) (*Client, error) {
	database, err := sqlx.Connect("pgx", config.connectionString())
	if err != nil {
		return nil, fmt.Errorf("could not connect database: [%v]", err)
	}

	return &Client{database: database}, nil
}

func (c *Client) Close() error {
	return c.database.Close()
}

func RunMigration(logger tradedesk.Logger, config *Config) error {
	if len(config.MigrationDir) == 0 {
		logger.Infof("postgres migration disabled")
		return nil
	}

	logger.Infof("starting postgres migration")

	migration, err := migrate.New(
		"file://"+config.MigrationDir,
		config.connectionString(),
	)
	if err != nil {
		return err
	}

	err = migration.Up()
	if err != nil {
		if err == migrate.ErrNoChange {
			logger.Infof("postgres migration skipped as there are no changes")
			return nil
		}

		return err
	}

	logger.Infof("postgres migration performed successfully")

	return nil
}

func floatToNumeric(value float64) (pgtype.Numeric, error) {
	var result pgtype.Numeric

	if err := result.Set(value); err != nil {
		return pgtype.Numeric{}, err
	}

	return result, nil
}

func numericToFloat(value pgtype.Numeric) (float64, error) {
	var result float64

	if err := value.AssignTo(&result); err != nil {
		return 0, err
	}

	return result, nil
}
