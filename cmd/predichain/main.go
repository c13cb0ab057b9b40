// backend-go/cmd/predichain/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/predichain/backend-go/internal/config"
	"github.com/predichain/backend-go/internal/drive"
	"github.com/predichain/backend-go/internal/forecast"
	"github.com/predichain/backend-go/internal/pipeline/ingest"
	"github.com/predichain/backend-go/internal/pipeline/usage"
	"github.com/predichain/backend-go/internal/procurement"
	"github.com/predichain/backend-go/internal/storage"
	"github.com/urfave/cli/v2"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) *sql.DB {
	db, _ := c.Context.Value(dbKey).(*sql.DB)
	return db
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "predichain",
		Usage: "Demand forecasting and procurement planning for construction materials",
		Commands: []*cli.Command{
			ingestCommand(),
			retryCommand(),
			driveSyncCommand(),
			forecastCommand(),
			recommendCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Normalize archived usage logs into the database",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Archive directory holding usage CSVs",
				Value: "./data/uploads",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent file workers",
				Value: 4,
			},
		},
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			archive, err := storage.NewLocalStore(c.String("dir"))
			if err != nil {
				return err
			}

			objects, err := archive.ListObjects(c.Context, "")
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(objects))
			for _, obj := range objects {
				keys = append(keys, obj.Key)
			}
			if len(keys) == 0 {
				log.Println("nothing to ingest")
				return nil
			}

			db := dbFrom(c)
			cfg := ingest.DefaultConfig("cli")
			cfg.WorkerCount = c.Int("workers")

			worker := ingest.NewWorker(cfg, ingest.NewRepository(db), archive, ingest.NewSQLSink(db))
			run, err := worker.ProcessBatch(c.Context, keys)
			if err != nil {
				return err
			}
			log.Printf("ingest run %d: %d/%d files, %d rows", run.ID, run.ProcessedFiles, run.TotalFiles, run.TotalRows)
			return nil
		},
	}
}

func retryCommand() *cli.Command {
	return &cli.Command{
		Name:  "retry",
		Usage: "Retry failed ingest jobs",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Archive directory holding usage CSVs",
				Value: "./data/uploads",
			},
		},
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			archive, err := storage.NewLocalStore(c.String("dir"))
			if err != nil {
				return err
			}
			db := dbFrom(c)
			worker := ingest.NewWorker(ingest.DefaultConfig("cli"), ingest.NewRepository(db), archive, ingest.NewSQLSink(db))
			return worker.RetryFailed(c.Context)
		},
	}
}

func driveSyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "drive-sync",
		Usage: "Mirror usage CSVs from a Google Drive folder into the archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "folder",
				Usage: "Drive folder path, e.g. predichain/usage",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Archive directory to mirror into",
				Value: "./data/uploads",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			if cfg.Drive.CredentialsJSON == "" {
				return fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON is not set")
			}

			svc, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
			if err != nil {
				return err
			}
			archive, err := storage.NewLocalStore(c.String("dir"))
			if err != nil {
				return err
			}

			folder := c.String("folder")
			if folder == "" {
				folder = cfg.Drive.FolderPath
			}

			written, err := drive.NewSyncer(svc, archive).Sync(c.Context, folder)
			if err != nil {
				return err
			}
			log.Printf("synced %d files", len(written))
			return nil
		},
	}
}

func forecastCommand() *cli.Command {
	return &cli.Command{
		Name:  "forecast",
		Usage: "Forecast monthly demand for a material from a usage CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "Usage CSV path", Required: true},
			&cli.StringFlag{Name: "material", Usage: "Material name", Required: true},
			&cli.IntFlag{Name: "horizon", Usage: "Forecast horizon in months", Value: 6},
		},
		Action: func(c *cli.Context) error {
			normalized, err := normalizeFile(c.String("file"))
			if err != nil {
				return err
			}

			adapter := forecast.NewAdapter(forecast.NewLinearForecaster())
			result, err := adapter.Forecast(c.Context, normalized.Daily, c.String("material"), c.Int("horizon"))
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func recommendCommand() *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Produce order recommendations for a material from a usage CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "Usage CSV path", Required: true},
			&cli.StringFlag{Name: "material", Usage: "Material name", Required: true},
			&cli.IntFlag{Name: "horizon", Usage: "Forecast horizon in months", Value: 6},
			&cli.IntFlag{Name: "lead-time", Usage: "Supplier lead time in days", Value: 10},
			&cli.Float64Flag{Name: "inventory", Usage: "Current inventory on hand"},
			&cli.Float64Flag{Name: "reliability", Usage: "Supplier reliability percent"},
		},
		Action: func(c *cli.Context) error {
			normalized, err := normalizeFile(c.String("file"))
			if err != nil {
				return err
			}

			adapter := forecast.NewAdapter(forecast.NewLinearForecaster())
			result, err := adapter.Forecast(c.Context, normalized.Daily, c.String("material"), c.Int("horizon"))
			if err != nil {
				return err
			}

			params := procurement.Params{
				LeadTimeDays:          c.Int("lead-time"),
				CurrentInventory:      c.Float64("inventory"),
				HistoricalReliability: normalized.Reliability,
			}
			if c.IsSet("reliability") {
				v := c.Float64("reliability")
				params.SupplierReliability = &v
			}

			plan, err := procurement.Recommend(result.Monthly, params)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"material":          result.Material,
				"forecast":          result.Monthly,
				"used_proxy_series": result.UsedProxySeries,
				"plan":              plan,
			})
		},
	}
}

func normalizeFile(path string) (*usage.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, rows, err := usage.ReadCSV(f)
	if err != nil {
		return nil, err
	}
	return usage.Normalize(header, rows)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
