package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/ai"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/tools"
	"github.com/spigell/smart-hr/internal/wire"
)

const (
	chatExit  = "exit"
	chatReset = "reset"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant about your jobs and applicants from the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	addCallerFlags(chatCmd)
}

func chat(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	st, err := openStore(ctx, config, logger, false)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer st.Close()

	pipeline, err := newPipeline(ctx, config, tools.New(st, logger.Named("tools")), logger)
	if err != nil {
		logger.Fatal("configuring the assistant", zap.Error(err))
	}

	caller := callerFromFlags(cmd)
	// Earlier turns live in the pipeline's thread memory; each request carries only the new question.
	thread := uuid.NewString()

	pterm.Info.Printfln("Ask about your jobs and applicants. Type %q to start over, %q to leave.", chatReset, chatExit)

	prompt := promptui.Prompt{
		Label: "You",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("say something")
			}
			return nil
		},
	}

	for {
		question, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			logger.Fatal("reading input", zap.Error(err))
		}

		switch strings.ToLower(strings.TrimSpace(question)) {
		case chatExit:
			return
		case chatReset:
			pipeline.Forget(caller.OwnerID, thread)
			pterm.Info.Println("conversation cleared")
			continue
		}

		req := ai.Request{
			Caller:   caller,
			Messages: []ai.Message{{Role: ai.RoleUser, Content: question}},
			ThreadID: thread,
		}

		// Raw chunks are printed as they arrive; cards are drawn once the answer is complete.
		spinner, _ := pterm.DefaultSpinner.Start("thinking")
		streaming := false
		answer, err := pipeline.Answer(ctx, req, func(chunk string) error {
			if !streaming {
				_ = spinner.Stop()
				streaming = true
			}
			fmt.Print(chunk)
			return nil
		})
		if streaming {
			fmt.Println()
		}
		if err != nil {
			if streaming {
				pterm.Error.Println(ai.ErrUnavailable.Error())
			} else {
				spinner.Fail(ai.ErrUnavailable.Error())
			}
			logger.Debug("chat turn failed", zap.Error(err))
			if ctx.Err() != nil {
				return
			}
			continue
		}
		if !streaming {
			_ = spinner.Stop()
		}

		printSegments(cards(wire.Parse(answer)))
	}
}

// cards keeps the card segments; prose has already been printed while streaming.
func cards(segments []wire.Segment) []wire.Segment {
	out := make([]wire.Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Kind != wire.KindProse {
			out = append(out, seg)
		}
	}
	return out
}

func printSegments(segments []wire.Segment) {
	for _, seg := range segments {
		switch seg.Kind {
		case wire.KindApplication:
			a := seg.Application
			pterm.DefaultBox.WithTitle(a.FullName).Println(cardLines(
				"Job", a.JobName,
				"Email", a.Email,
				"Phone", a.Phone,
				"Status", a.Status,
				"Experience", a.Experience,
				"Location", a.Location,
				"Applied", a.AppliedAt,
			))
		case wire.KindJob:
			j := seg.Job
			pterm.DefaultBox.WithTitle(j.Position).Println(cardLines(
				"Company", j.Company,
				"Location", j.Location,
				"Type", j.EmploymentType+" / "+j.WorkMode,
				"Salary", j.SalaryMin+" - "+j.SalaryMax,
				"Status", j.Status,
				"Applicants", j.Applicants,
				"Posted", j.PostedAt,
			))
		default:
			fmt.Println(strings.TrimSpace(seg.Text))
		}
	}
}

// cardLines renders label/value pairs, skipping empty values.
func cardLines(pairs ...string) string {
	var lines []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			continue
		}
		lines = append(lines, pterm.Bold.Sprint(pairs[i]+": ")+pairs[i+1])
	}
	return strings.Join(lines, "\n")
}
