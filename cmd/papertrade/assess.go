package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yanun0323/errors"

	"papertrade/internal/risk"
	"papertrade/internal/schema"
)

func newAssessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assess",
		Short: "Answer the risk questionnaire interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := risk.NewQuestionnaire(risk.DefaultQuestions())
			if err != nil {
				return err
			}
			answers, err := askAll(bufio.NewScanner(cmd.InOrStdin()), cmd, q.Questions())
			if err != nil {
				return err
			}
			score, profile, err := q.Assess(answers)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "score: %d\nprofile: %s\n%s\n", score, profile, risk.Describe(profile))
			return nil
		},
	}
}

func askAll(in *bufio.Scanner, cmd *cobra.Command, questions []risk.Question) ([]schema.Answer, error) {
	out := cmd.OutOrStdout()
	answers := make([]schema.Answer, 0, len(questions))
	for i, question := range questions {
		fmt.Fprintf(out, "%d. %s\n", i+1, question.Prompt)
		for j, opt := range question.Options {
			fmt.Fprintf(out, "   %d) %s\n", j+1, opt.Text)
		}
		for {
			fmt.Fprint(out, "> ")
			if !in.Scan() {
				if err := in.Err(); err != nil {
					return nil, err
				}
				return nil, errors.Errorf("input ended at question %s", question.ID)
			}
			n, err := strconv.Atoi(strings.TrimSpace(in.Text()))
			if err != nil || n < 1 || n > len(question.Options) {
				fmt.Fprintf(out, "pick 1-%d\n", len(question.Options))
				continue
			}
			answers = append(answers, schema.Answer{QuestionID: question.ID, SelectedScore: question.Options[n-1].Score})
			break
		}
	}
	return answers, nil
}
