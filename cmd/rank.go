package cmd

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/export"
	"github.com/spigell/smart-hr/internal/scoring"
	"github.com/spigell/smart-hr/internal/tools"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the applicants of a job and print the best ones",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		logger, config := setup()

		st, err := openStore(ctx, config, logger, false)
		if err != nil {
			logger.Fatal("opening the database", zap.Error(err))
		}
		defer st.Close()

		jobID, _ := cmd.Flags().GetString("job")
		limit, _ := cmd.Flags().GetInt("limit")
		xlsx, _ := cmd.Flags().GetString("xlsx")

		job, ranking, err := tools.New(st, logger.Named("tools")).Rank(ctx, callerFromFlags(cmd), jobID, limit)
		if err != nil {
			logger.Fatal("ranking applicants", zap.String("job", jobID), zap.Error(err))
		}

		pterm.DefaultSection.Printfln("%s at %s", job.Position, job.Company)
		if err := printRanking(ranking); err != nil {
			logger.Fatal("printing the ranking", zap.Error(err))
		}

		if xlsx == "" {
			return
		}

		f, err := os.Create(xlsx)
		if err != nil {
			logger.Fatal("creating the workbook", zap.Error(err))
		}
		defer f.Close()

		if err := export.Ranking(f, job, ranking, time.Now()); err != nil {
			logger.Fatal("writing the workbook", zap.String("file", xlsx), zap.Error(err))
		}
		pterm.Success.Printfln("ranking written to %s", xlsx)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	addCallerFlags(rankCmd)

	rankCmd.Flags().String("job", "", "job id to rank applicants for")
	rankCmd.Flags().IntP("limit", "n", scoring.DefaultLimit, "number of applicants to show")
	rankCmd.Flags().String("xlsx", "", "also write the ranking to this Excel file")
	rankCmd.MarkFlagRequired("job")
}

func printRanking(ranking scoring.Ranking) error {
	if len(ranking.Applicants) == 0 {
		pterm.Info.Println(ranking.Message)
		return nil
	}

	data := pterm.TableData{{"#", "Applicant", "Email", "Experience", "Location", "Status", "Score"}}
	for i, r := range ranking.Applicants {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			r.Application.FullName,
			r.Application.Email,
			r.Application.Experience,
			r.Application.Location,
			string(r.Application.Status),
			strconv.Itoa(r.Score),
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("%d of %d applications shown", len(ranking.Applicants), ranking.Considered)
	return nil
}
