package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reportcard-analyzer/internal/analysis"
	"reportcard-analyzer/internal/bootstrap"
	"reportcard-analyzer/internal/shared/config"
)

// errAnalysisFailed signals a submission that ended in the failed state. The
// view has already been printed, so main only needs the exit status.
var errAnalysisFailed = errors.New("analysis failed")

func newAnalyzeCmd(opts *options) *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Submit one analysis and print the feedback",
	}

	var (
		filePath       string
		studentID      string
		graduationYear string
	)
	fileCmd := &cobra.Command{
		Use:   "file",
		Short: "Upload a report card PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.view(config.ModeFile)
			if err != nil {
				return err
			}
			if filePath != "" {
				f, err := analysis.FileFromPath(filePath)
				if err != nil {
					return err
				}
				view.SelectFile(f)
			}
			view.SetStudentID(studentID)
			view.SetGraduationYear(graduationYear)
			return opts.submit(cmd, view)
		},
	}
	fileCmd.Flags().StringVar(&filePath, "file", "", "Path to the report card PDF")
	fileCmd.Flags().StringVar(&studentID, "student-id", "", "Student identifier")
	fileCmd.Flags().StringVar(&graduationYear, "graduation-year", "", "Expected graduation year")

	var texts []string
	textsCmd := &cobra.Command{
		Use:   "texts",
		Short: "Submit free-text notes, one --text per box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.view(config.ModeTexts)
			if err != nil {
				return err
			}
			for i, text := range texts {
				if i > 0 {
					view.AddTextBox()
				}
				view.SetTextAt(i, text)
			}
			return opts.submit(cmd, view)
		},
	}
	textsCmd.Flags().StringArrayVar(&texts, "text", nil, "Text box contents (repeatable, order preserved)")

	analyzeCmd.AddCommand(fileCmd, textsCmd)
	return analyzeCmd
}

func (o *options) view(mode string) (*analysis.View, error) {
	cfg := o.cfg
	cfg.InputMode = mode
	client, enc, err := bootstrap.BuildClient(cfg)
	if err != nil {
		return nil, err
	}
	return analysis.NewView(client, enc), nil
}

func (o *options) submit(cmd *cobra.Command, view *analysis.View) error {
	out := cmd.OutOrStdout()
	if !o.jsonOut {
		loading := view.State()
		loading.Loading = true
		loading.Status = analysis.StatusSubmitting
		if err := o.print(out, loading); err != nil {
			return err
		}
	}

	st, err := view.Submit(cmd.Context())
	if perr := o.print(out, st); perr != nil {
		return perr
	}
	if err != nil {
		return fmt.Errorf("%w: %s", errAnalysisFailed, st.Error)
	}
	return nil
}
