// Command templehubctl runs offline maintenance against the TempleHub
// database: spreadsheet imports and a text rendering of the leadership
// hierarchy.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dalemusser/templehub/internal/app/system/indexes"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	mongoURI string
	database string
	timeout  time.Duration
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "templehubctl",
	Short: "TempleHub maintenance commands",
	Long: `templehubctl works directly against the TempleHub MongoDB database.

Available commands:
  import   - Bulk import members or donations from a .xlsx or .csv file
  orgchart - Print the leadership hierarchy as an indented outline`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", envOr("TEMPLEHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	rootCmd.PersistentFlags().StringVar(&database, "database", envOr("TEMPLEHUB_MONGO_DATABASE", "templehub"), "MongoDB database name")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(orgchartCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// connect opens the database and makes sure the unique indexes the import
// pipeline depends on exist.
func connect(ctx context.Context) (*mongo.Database, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	closeFn := func() { _ = client.Disconnect(context.Background()) }
	if err := client.Ping(ctx, nil); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(database)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return db, closeFn, nil
}
