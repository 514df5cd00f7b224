package cli

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"railprep/internal/config"
	"railprep/internal/corpus"
	"railprep/internal/domain"
	pgcorpus "railprep/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads a question bank file into Postgres. YAML banks are
// validated against the corpus schema; .xlsx files are imported row by row.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the question corpus from a YAML or XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if file == "" {
				file = cfg.Quiz.CorpusFile
			}
			if file == "" {
				return fmt.Errorf("no corpus file given (--file or quiz.corpus_file)")
			}

			questions, err := loadCorpusFile(file)
			if err != nil {
				return err
			}

			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := pgcorpus.Seed(cmd.Context(), pool, questions)
			if err != nil {
				return err
			}
			log.Printf("seeded %d of %d questions from %s", n, len(questions), file)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "question bank file (.yaml or .xlsx)")
	return cmd
}

func loadCorpusFile(path string) ([]domain.Question, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return corpus.LoadXLSX(path)
	default:
		return corpus.LoadFile(path)
	}
}
